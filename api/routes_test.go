package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"idcops-service/service"
	"idcops-service/service/config"
	"idcops-service/service/models"
	"idcops-service/service/storage"
	"idcops-service/testutil"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
)

type RoutesTestSuite struct {
	suite.Suite
	kv     *testutil.RecordingKV
	app    *service.App
	mux    *chi.Mux
	helper *testutil.HTTPTestHelper
}

func (s *RoutesTestSuite) SetupTest() {
	s.kv = testutil.NewRecordingKV()
	s.helper = testutil.NewHTTPTestHelper()
	s.start(config.Default())
}

func (s *RoutesTestSuite) start(cfg *config.Config) {
	s.app = service.NewApp(cfg, s.kv, nil, nil)
	s.app.Load(context.Background())
	s.mux = chi.NewRouter()
	InitRoute(s.mux, s.app)
}

func (s *RoutesTestSuite) do(method, url string, body interface{}) *httptest.ResponseRecorder {
	req, err := s.helper.CreateJSONRequest(method, url, body)
	s.Require().NoError(err)
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)
	return w
}

func (s *RoutesTestSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/ready", nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *RoutesTestSuite) TestReadyReportsSaveFailure() {
	s.kv.FailSets(true)
	s.do(http.MethodPost, "/assets", map[string]interface{}{"name": "交换机"})

	w := s.do(http.MethodGet, "/ready", nil)
	s.Equal(http.StatusServiceUnavailable, w.Code)
	s.Contains(w.Body.String(), "assets")
}

func (s *RoutesTestSuite) TestAssetBorrowReturnFlow() {
	w := s.do(http.MethodPost, "/assets", map[string]interface{}{"name": "服务器A", "category": "server"})
	s.Equal(http.StatusCreated, w.Code)
	var created models.Asset
	s.helper.DecodeData(s.T(), w, &created)
	s.Equal(int64(1), created.ID)
	s.Equal(models.AssetAvailable, created.Status)

	w = s.do(http.MethodPost, "/assets/1/borrow", map[string]string{"borrowerId": "u1"})
	s.Equal(http.StatusOK, w.Code)
	var borrowed models.Asset
	s.helper.DecodeData(s.T(), w, &borrowed)
	s.Equal(models.AssetBorrowed, borrowed.Status)
	s.Equal("u1", borrowed.BorrowerID)

	w = s.do(http.MethodPost, "/assets/1/borrow", map[string]string{"borrowerId": "u2"})
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/assets/1/return", nil)
	s.Equal(http.StatusOK, w.Code)
	var returned models.Asset
	s.helper.DecodeData(s.T(), w, &returned)
	s.Equal(models.AssetAvailable, returned.Status)
	s.Empty(returned.BorrowerID)
	s.Len(returned.Logs, 2)

	q := url.Values{"status": {"在库"}, "keyword": {"服务器"}}
	w = s.do(http.MethodGet, "/assets?"+q.Encode(), nil)
	var page []models.Asset
	s.helper.DecodeData(s.T(), w, &page)
	s.Len(page, 1)
}

func (s *RoutesTestSuite) TestAssetErrors() {
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/assets/9", nil).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/assets/abc", nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodPost, "/assets/9/return", nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodPut, "/assets/9", map[string]string{"name": "x"}).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, "/assets/9", nil).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/assets", []int{1}).Code)

	s.do(http.MethodPost, "/assets", map[string]string{"name": "x"})
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/assets/1/borrow", map[string]string{"borrowerId": " "}).Code)
	s.Equal(http.StatusOK, s.do(http.MethodPost, "/assets/1/repair", map[string]bool{"inRepair": true}).Code)
	s.Equal(http.StatusConflict, s.do(http.MethodPost, "/assets/1/borrow", map[string]string{"borrowerId": "u1"}).Code)

	s.Equal(http.StatusConflict, s.do(http.MethodPut, "/assets/1", map[string]string{"status": "borrowed"}).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPut, "/assets/1", map[string]string{"status": "lost"}).Code)

	w := s.do(http.MethodGet, "/assets?page=4611686018427387905&size=2", nil)
	s.Equal(http.StatusOK, w.Code)
	var page []models.Asset
	s.helper.DecodeData(s.T(), w, &page)
	s.Empty(page)
}

func (s *RoutesTestSuite) TestInspectionGroupedShape() {
	body := map[string]interface{}{
		"title": "日常巡检",
		"data": map[string]interface{}{
			"A区": []map[string]string{{"content": "UPS", "status": "异常"}, {"content": "空调", "status": "正常"}},
		},
	}
	w := s.do(http.MethodPost, "/inspections", body)
	s.Equal(http.StatusCreated, w.Code)
	var created models.Inspection
	s.helper.DecodeData(s.T(), w, &created)
	s.Len(created.Items, 2)
	s.Equal(1, created.Abnormal)

	w = s.do(http.MethodGet, "/inspections?onlyAbnormal=true", nil)
	var list []models.Inspection
	s.helper.DecodeData(s.T(), w, &list)
	s.Len(list, 1)

	s.Equal(http.StatusOK, s.do(http.MethodPost, "/inspections/1/synced", nil).Code)
	w = s.do(http.MethodGet, "/inspections?unsynced=true", nil)
	s.helper.DecodeData(s.T(), w, &list)
	s.Empty(list)
}

func (s *RoutesTestSuite) TestNotificationFlow() {
	w := s.do(http.MethodPost, "/notifications/submit", map[string]string{"message": "停电演练"})
	s.Equal(http.StatusCreated, w.Code)

	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/notifications/submit", map[string]string{"message": "  "}).Code)

	w = s.do(http.MethodPost, "/notifications/1/confirm", nil)
	s.Equal(http.StatusOK, w.Code)
	var n models.Notification
	s.helper.DecodeData(s.T(), w, &n)
	s.True(n.Confirmed)
	s.Equal(1, n.ConfirmedCount)

	s.Equal(http.StatusNotFound, s.do(http.MethodPost, "/notifications/42/confirm", nil).Code)

	w = s.do(http.MethodGet, "/notifications/unread-count", nil)
	var unread struct {
		Unread int `json:"unread"`
	}
	s.helper.DecodeData(s.T(), w, &unread)
	s.Equal(1, unread.Unread)

	s.Equal(http.StatusOK, s.do(http.MethodPost, "/notifications/read-all", nil).Code)
	w = s.do(http.MethodGet, "/notifications/unread-count", nil)
	s.helper.DecodeData(s.T(), w, &unread)
	s.Equal(0, unread.Unread)

	w = s.do(http.MethodGet, "/notifications/stats", nil)
	var stats []models.NotificationStat
	s.helper.DecodeData(s.T(), w, &stats)
	s.Len(stats, 1)

	s.Equal(http.StatusServiceUnavailable, s.do(http.MethodPost, "/notifications/sync", nil).Code)
}

func (s *RoutesTestSuite) TestTaskRecurrence() {
	w := s.do(http.MethodPost, "/tasks", map[string]string{"title": "巡检", "recurrence": "每日", "dueDate": "2024-03-01"})
	s.Equal(http.StatusCreated, w.Code)

	s.Equal(http.StatusOK, s.do(http.MethodPost, "/tasks/1/complete", nil).Code)
	s.Equal(http.StatusOK, s.do(http.MethodPost, "/tasks/1/complete", nil).Code)

	w = s.do(http.MethodGet, "/tasks?status=new", nil)
	var list []models.Task
	s.helper.DecodeData(s.T(), w, &list)
	s.Require().Len(list, 1)
	s.Equal(models.RecurrenceDaily, list[0].Recurrence)

	w = s.do(http.MethodPost, "/tasks/recurrence/sweep", nil)
	var sweep map[string]int
	s.helper.DecodeData(s.T(), w, &sweep)
	s.Equal(0, sweep["created"])
}

func (s *RoutesTestSuite) TestOrderLifecycle() {
	s.Equal(http.StatusCreated, s.do(http.MethodPost, "/orders", map[string]string{"title": "更换硬盘", "priority": "高", "reporter": "wang"}).Code)

	w := s.do(http.MethodPost, "/orders/1/assign", map[string]string{"assignee": "li"})
	var o models.Order
	s.helper.DecodeData(s.T(), w, &o)
	s.Equal(models.WorkInProgress, o.Status)

	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/orders/1/complete", map[string]string{"signature": ""}).Code)
	w = s.do(http.MethodPost, "/orders/1/complete", map[string]string{"signature": "li"})
	s.helper.DecodeData(s.T(), w, &o)
	s.Equal(models.WorkDone, o.Status)

	w = s.do(http.MethodGet, "/orders?priority=high", nil)
	var list []models.Order
	s.helper.DecodeData(s.T(), w, &list)
	s.Len(list, 1)
}

func (s *RoutesTestSuite) TestTags() {
	s.Equal(http.StatusCreated, s.do(http.MethodPost, "/tags", map[string]string{"name": "核心"}).Code)
	s.Equal(http.StatusConflict, s.do(http.MethodPost, "/tags", map[string]string{"name": "核心"}).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/tags", map[string]string{"name": ""}).Code)
}

func (s *RoutesTestSuite) TestAuthFlow() {
	w := s.do(http.MethodPost, "/auth/register", map[string]string{"username": "admin", "password": "pw", "role": "admin"})
	s.Equal(http.StatusCreated, w.Code)
	s.Equal(http.StatusConflict, s.do(http.MethodPost, "/auth/register", map[string]string{"username": "admin", "password": "x"}).Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodPost, "/auth/login", map[string]string{"username": "admin", "password": "bad"}).Code)

	w = s.do(http.MethodGet, "/auth/current", nil)
	var session models.Session
	s.helper.DecodeData(s.T(), w, &session)
	s.Equal("admin", session.Username)
	s.Empty(session.Token)

	w = s.do(http.MethodGet, "/users", nil)
	s.NotContains(w.Body.String(), "passwordHash")

	s.Equal(http.StatusOK, s.do(http.MethodPost, "/auth/logout", nil).Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/auth/current", nil).Code)
}

func (s *RoutesTestSuite) TestRequireAuth() {
	cfg := config.Default()
	cfg.App.RequireAuth = true
	s.start(cfg)

	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/assets", nil).Code)

	w := s.do(http.MethodPost, "/auth/register", map[string]string{"username": "op", "password": "pw", "role": "operator"})
	var session models.Session
	s.helper.DecodeData(s.T(), w, &session)
	s.Require().NotEmpty(session.Token)

	req, err := s.helper.CreateJSONRequest(http.MethodGet, "/assets", nil)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	s.Equal(http.StatusOK, rec.Code)

	req, _ = s.helper.CreateJSONRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec = httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *RoutesTestSuite) TestLegacySlotServedCanonical() {
	s.kv.Seed(storage.SlotKey("idc", storage.SlotAssets), `[{"id":5,"name":"旧资产","borrower":"u9","borrowedAt":"2023-01-01"}]`)
	s.start(config.Default())

	w := s.do(http.MethodGet, "/assets/5", nil)
	var a models.Asset
	s.helper.DecodeData(s.T(), w, &a)
	s.Equal("u9", a.BorrowerID)
	s.Equal("2023-01-01", a.BorrowTime)
	s.Equal(1, s.kv.Sets(storage.SlotKey("idc", storage.SlotAssets)))
}

func TestRoutesTestSuite(t *testing.T) {
	suite.Run(t, new(RoutesTestSuite))
}
