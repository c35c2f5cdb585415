package asset

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"idcops-service/service/models"
	"idcops-service/service/store"
	"idcops-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var testNow = time.Date(2025, 8, 1, 9, 30, 0, 0, time.UTC)

func TestNormalizeVariants(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		want models.Asset
	}{
		{
			name: "旧版借用字段",
			raw:  `{"status":"在库","borrower":"u1","borrowedAt":"t1"}`,
			want: models.Asset{ID: 4, Status: models.AssetAvailable, BorrowerID: "u1", BorrowTime: "t1", Logs: []models.AssetLog{}},
		},
		{
			name: "旧版日志",
			raw:  `{"id":2,"name":"UPS","status":"借用中","borrower":"u2","logs":[{"action":"borrow","user":"u2","date":"d1"},{"action":"add","user":"x"},{"action":"归还","user":"u2","date":"d2"}]}`,
			want: models.Asset{ID: 2, Name: "UPS", Status: models.AssetBorrowed, BorrowerID: "u2", Logs: []models.AssetLog{
				{Action: models.AssetActionBorrow, UserID: "u2", Time: "d1"},
				{Action: models.AssetActionReturn, UserID: "u2", Time: "d2"},
			}},
		},
		{
			name: "维修别名",
			raw:  `{"id":3,"name":"Switch","status":"维修","category":"网络","location":"A-01"}`,
			want: models.Asset{ID: 3, Name: "Switch", Category: "网络", Location: "A-01", Status: models.AssetInRepair, Logs: []models.AssetLog{}},
		},
		{
			name: "规范结构",
			raw:  `{"id":9,"name":"Rack","status":"borrowed","borrowerId":"u9","borrowTime":"t9","logs":[]}`,
			want: models.Asset{ID: 9, Name: "Rack", Status: models.AssetBorrowed, BorrowerID: "u9", BorrowTime: "t9", Logs: []models.AssetLog{}},
		},
		{
			name: "未知状态",
			raw:  `{"id":5,"status":"lost","logs":"oops"}`,
			want: models.Asset{ID: 5, Status: models.AssetAvailable, Logs: []models.AssetLog{}},
		},
		{
			name: "非对象",
			raw:  `[1,2]`,
			want: models.Asset{ID: 4, Status: models.AssetAvailable, Logs: []models.AssetLog{}},
		},
		{
			name: "同时存在新旧字段",
			raw:  `{"id":6,"borrower":"old","borrowerId":"new","status":"borrowed"}`,
			want: models.Asset{ID: 6, Status: models.AssetBorrowed, BorrowerID: "new", Logs: []models.AssetLog{}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(json.RawMessage(tc.raw), 4)
			assert.Equal(t, tc.want, got)

			// 规范化幂等
			encoded, err := json.Marshal(got)
			require.NoError(t, err)
			assert.Equal(t, got, Normalize(encoded, 4))
		})
	}
}

func TestParseStatus(t *testing.T) {
	for _, alias := range []string{"available", "在库", "可用"} {
		s, ok := ParseStatus(alias)
		assert.True(t, ok)
		assert.Equal(t, models.AssetAvailable, s)
	}
	s, ok := ParseStatus("借用")
	assert.True(t, ok)
	assert.Equal(t, models.AssetBorrowed, s)

	s, ok = ParseStatus("维修中")
	assert.True(t, ok)
	assert.Equal(t, models.AssetInRepair, s)

	_, ok = ParseStatus("unknown")
	assert.False(t, ok)
}

// AssetServiceTestSuite 资产服务测试套件
type AssetServiceTestSuite struct {
	suite.Suite
	ctx context.Context
	kv  *testutil.RecordingKV
	svc *Service
}

func (s *AssetServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.kv = testutil.NewRecordingKV()
	s.svc = NewService(s.kv, "idc", store.Options{Clock: testutil.FixedClock(testNow)})
	s.svc.Load(s.ctx)
}

func (s *AssetServiceTestSuite) TestLoadLegacyScenario() {
	s.kv.Seed("idc-assets", `[{"status":"在库","borrower":"u1","borrowedAt":"t1"}]`)

	report := s.svc.Load(s.ctx)
	s.Equal(1, report.Migrated)
	s.True(report.Written)

	a, ok := s.svc.Get(1)
	s.Require().True(ok)
	s.Equal(models.AssetAvailable, a.Status)
	s.Equal("u1", a.BorrowerID)
	s.Equal("t1", a.BorrowTime)

	raw, _ := s.kv.Raw("idc-assets")
	s.JSONEq(`[{"id":1,"name":"","status":"available","borrowerId":"u1","borrowTime":"t1","logs":[]}]`, raw)

	report = s.svc.Load(s.ctx)
	s.False(report.Written)
	s.Equal(1, s.kv.Sets("idc-assets"))
}

func (s *AssetServiceTestSuite) TestAddDefaults() {
	a := s.svc.Add(s.ctx, models.Asset{Name: "Server", Status: "在库"})
	s.Equal(int64(1), a.ID)
	s.Equal(models.AssetAvailable, a.Status)
	s.NotNil(a.Logs)

	b := s.svc.Add(s.ctx, models.Asset{Name: "PDU"})
	s.Equal(int64(2), b.ID)
	s.Equal(models.AssetAvailable, b.Status)
}

func (s *AssetServiceTestSuite) TestUpdateNormalizesStatusAlias() {
	a := s.svc.Add(s.ctx, models.Asset{Name: "Server"})

	updated, err := s.svc.Update(s.ctx, a.ID, map[string]interface{}{"status": "维修中", "remark": "fan"})
	s.Require().NoError(err)
	s.Equal(models.AssetInRepair, updated.Status)
	s.Equal("fan", updated.Remark)
	s.Equal("Server", updated.Name)

	updated, err = s.svc.Update(s.ctx, a.ID, map[string]interface{}{"status": "available"})
	s.Require().NoError(err)
	s.Equal(models.AssetAvailable, updated.Status)
}

func (s *AssetServiceTestSuite) TestUpdateCannotBypassBorrowFlow() {
	a := s.svc.Add(s.ctx, models.Asset{Name: "Server"})
	sets := s.kv.Sets("idc-assets")

	_, err := s.svc.Update(s.ctx, a.ID, map[string]interface{}{"status": "borrowed"})
	s.ErrorIs(err, ErrStatusManaged)
	_, err = s.svc.Update(s.ctx, a.ID, map[string]interface{}{"status": "whatever"})
	s.ErrorIs(err, ErrInvalidStatus)
	s.Equal(sets, s.kv.Sets("idc-assets"))

	updated, err := s.svc.Update(s.ctx, a.ID, map[string]interface{}{
		"name":       "Server-2",
		"borrowerId": "mallory",
		"borrowTime": "t",
		"logs":       []interface{}{map[string]interface{}{"action": "borrow", "userId": "mallory", "time": "t"}},
	})
	s.Require().NoError(err)
	s.Equal("Server-2", updated.Name)
	s.Equal(models.AssetAvailable, updated.Status)
	s.Empty(updated.BorrowerID)
	s.Empty(updated.BorrowTime)
	s.Empty(updated.Logs)

	borrowed, err := s.svc.Borrow(s.ctx, a.ID, "alice")
	s.Require().NoError(err)
	s.Len(borrowed.Logs, 1)

	_, err = s.svc.Update(s.ctx, a.ID, map[string]interface{}{"status": "available"})
	s.ErrorIs(err, ErrStatusManaged)
	_, err = s.svc.Update(s.ctx, a.ID, map[string]interface{}{"status": "in-repair"})
	s.ErrorIs(err, ErrStatusManaged)

	same, err := s.svc.Update(s.ctx, a.ID, map[string]interface{}{"status": "borrowed", "remark": "desk 3"})
	s.Require().NoError(err)
	s.Equal("desk 3", same.Remark)
	s.Equal("alice", same.BorrowerID)
	s.Len(same.Logs, 1)
}

func (s *AssetServiceTestSuite) TestAddClearsBorrowState() {
	a := s.svc.Add(s.ctx, models.Asset{
		Name:       "Laptop",
		Status:     models.AssetBorrowed,
		BorrowerID: "bob",
		Logs:       []models.AssetLog{{Action: models.AssetActionBorrow, UserID: "bob", Time: "t"}},
	})
	s.Equal(models.AssetAvailable, a.Status)
	s.Empty(a.BorrowerID)
	s.Empty(a.Logs)

	_, err := s.svc.Borrow(s.ctx, a.ID, "alice")
	s.NoError(err)

	r := s.svc.Add(s.ctx, models.Asset{Name: "Disk", Status: models.AssetInRepair})
	s.Equal(models.AssetInRepair, r.Status)
}

func (s *AssetServiceTestSuite) TestBorrowAndReturn() {
	a := s.svc.Add(s.ctx, models.Asset{Name: "Laptop"})

	borrowed, err := s.svc.Borrow(s.ctx, a.ID, "alice")
	s.Require().NoError(err)
	s.Equal(models.AssetBorrowed, borrowed.Status)
	s.Equal("alice", borrowed.BorrowerID)
	s.Equal("2025-08-01T09:30:00.000Z", borrowed.BorrowTime)
	s.Equal([]models.AssetLog{{Action: models.AssetActionBorrow, UserID: "alice", Time: "2025-08-01T09:30:00.000Z"}}, borrowed.Logs)

	returned, err := s.svc.Return(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(models.AssetAvailable, returned.Status)
	s.Empty(returned.BorrowerID)
	s.Empty(returned.BorrowTime)
	s.Equal("2025-08-01T09:30:00.000Z", returned.ReturnTime)
	s.Require().Len(returned.Logs, 2)
	s.Equal(models.AssetLog{Action: models.AssetActionReturn, UserID: "alice", Time: "2025-08-01T09:30:00.000Z"}, returned.Logs[1])
}

func (s *AssetServiceTestSuite) TestBorrowRejectsBorrowedAndRepair() {
	a := s.svc.Add(s.ctx, models.Asset{Name: "Laptop"})
	_, err := s.svc.Borrow(s.ctx, a.ID, "alice")
	s.Require().NoError(err)

	got, err := s.svc.Borrow(s.ctx, a.ID, "bob")
	s.ErrorIs(err, ErrAlreadyBorrowed)
	s.Equal("alice", got.BorrowerID)
	s.Len(got.Logs, 1)

	b := s.svc.Add(s.ctx, models.Asset{Name: "Disk"})
	_, err = s.svc.SetRepair(s.ctx, b.ID, true)
	s.Require().NoError(err)
	_, err = s.svc.Borrow(s.ctx, b.ID, "bob")
	s.ErrorIs(err, ErrInRepair)

	_, err = s.svc.Borrow(s.ctx, b.ID, "  ")
	s.ErrorIs(err, ErrBorrowerRequired)
}

func (s *AssetServiceTestSuite) TestReturnWithoutBorrowerAddsNoLog() {
	a := s.svc.Add(s.ctx, models.Asset{Name: "Cable"})

	returned, err := s.svc.Return(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Empty(returned.Logs)
	s.Equal(models.AssetAvailable, returned.Status)
}

func (s *AssetServiceTestSuite) TestSetRepair() {
	a := s.svc.Add(s.ctx, models.Asset{Name: "UPS"})
	_, err := s.svc.Borrow(s.ctx, a.ID, "alice")
	s.Require().NoError(err)

	_, err = s.svc.SetRepair(s.ctx, a.ID, true)
	s.ErrorIs(err, ErrAlreadyBorrowed)

	_, err = s.svc.Return(s.ctx, a.ID)
	s.Require().NoError(err)
	repaired, err := s.svc.SetRepair(s.ctx, a.ID, true)
	s.Require().NoError(err)
	s.Equal(models.AssetInRepair, repaired.Status)

	fixed, err := s.svc.SetRepair(s.ctx, a.ID, false)
	s.Require().NoError(err)
	s.Equal(models.AssetAvailable, fixed.Status)
}

func (s *AssetServiceTestSuite) TestActionsOnMissingID() {
	_, err := s.svc.Borrow(s.ctx, 999, "alice")
	s.ErrorIs(err, store.ErrNotFound)
	_, err = s.svc.Return(s.ctx, 999)
	s.ErrorIs(err, store.ErrNotFound)

	_, err = s.svc.Update(s.ctx, 999, map[string]interface{}{"name": "x"})
	s.ErrorIs(err, store.ErrNotFound)
	s.False(s.svc.Remove(s.ctx, 999))
	s.Equal(0, s.kv.Sets("idc-assets"))
}

func (s *AssetServiceTestSuite) TestSearchAndFilter() {
	s.svc.Add(s.ctx, models.Asset{Name: "Dell Server", Category: "服务器", Location: "A-01"})
	s.svc.Add(s.ctx, models.Asset{Name: "Cisco Switch", Category: "网络", Location: "B-02", Remark: "spare"})
	third := s.svc.Add(s.ctx, models.Asset{Name: "HP Server", Category: "服务器", Location: "B-03"})
	_, err := s.svc.Borrow(s.ctx, third.ID, "bob")
	s.Require().NoError(err)

	s.Len(s.svc.Search("server"), 2)
	s.Len(s.svc.Search(" SPARE "), 1)
	s.Len(s.svc.Search("b-0"), 2)
	s.Len(s.svc.Search(""), 3)

	got := s.svc.Filter(Filter{Category: "服务器", Status: models.AssetBorrowed})
	s.Require().Len(got, 1)
	s.Equal("HP Server", got[0].Name)

	s.Len(s.svc.Filter(Filter{BorrowerID: "bob"}), 1)
	s.Empty(s.svc.Filter(Filter{Keyword: "cisco", Category: "服务器"}))
}

func (s *AssetServiceTestSuite) TestPersistenceFailureDoesNotBlockAdd() {
	s.kv.FailSets(true)

	a := s.svc.Add(s.ctx, models.Asset{Name: "Server"})
	s.Equal(int64(1), a.ID)
	s.Len(s.svc.List(), 1)
	s.ErrorIs(s.svc.LastError(), testutil.ErrInjected)
}

func TestAssetServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AssetServiceTestSuite))
}
