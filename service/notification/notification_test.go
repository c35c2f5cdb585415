package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"idcops-service/service/models"
	"idcops-service/service/store"
	"idcops-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var testNow = time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

const testNowISO = "2025-08-01T12:00:00.000Z"

type mockRemote struct {
	mock.Mock
}

func (m *mockRemote) Submit(ctx context.Context, message string) (json.RawMessage, error) {
	args := m.Called(ctx, message)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

func (m *mockRemote) Confirm(ctx context.Context, id int64) (json.RawMessage, error) {
	args := m.Called(ctx, id)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

func (m *mockRemote) Fetch(ctx context.Context) ([]json.RawMessage, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]json.RawMessage)
	return list, args.Error(1)
}

func TestNormalizeVariants(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		want models.Notification
	}{
		{
			name: "数值确认与date",
			raw:  `{"id":3,"message":"m","date":"2024-01-01","confirmed":2}`,
			want: models.Notification{ID: 3, CreatedAt: "2024-01-01", Title: "m", Message: "m", Confirmed: true, ConfirmedCount: 2},
		},
		{
			name: "布尔确认无计数",
			raw:  `{"id":4,"title":"t","createdAt":"c","confirmed":true}`,
			want: models.Notification{ID: 4, CreatedAt: "c", Title: "t", Confirmed: true, ConfirmedCount: 1},
		},
		{
			name: "计数优先于布尔",
			raw:  `{"id":5,"title":"t","createdAt":"c","confirmed":false,"confirmedCount":3}`,
			want: models.Notification{ID: 5, CreatedAt: "c", Title: "t", Confirmed: true, ConfirmedCount: 3},
		},
		{
			name: "status 形式",
			raw:  `{"id":6,"name":"n","content":"body","status":"done","publisher":"ops","type":"warn","read":true}`,
			want: models.Notification{ID: 6, CreatedAt: testNowISO, Title: "n", Message: "body", Content: "body", Publisher: "ops", Type: "warn", Read: true, Confirmed: true, ConfirmedCount: 1},
		},
		{
			name: "缺少标题",
			raw:  `{"createdAt":"c"}`,
			want: models.Notification{ID: 9, CreatedAt: "c", Title: "通知 #9"},
		},
		{
			name: "空message回落到content",
			raw:  `{"id":7,"createdAt":"c","message":"","content":"body"}`,
			want: models.Notification{ID: 7, CreatedAt: "c", Title: "body", Message: "body", Content: "body"},
		},
		{
			name: "空标题回落到message",
			raw:  `{"id":8,"createdAt":"c","title":"","message":"m"}`,
			want: models.Notification{ID: 8, CreatedAt: "c", Title: "m", Message: "m"},
		},
		{
			name: "空createdAt使用date",
			raw:  `{"id":10,"title":"t","createdAt":"","date":"2024-01-01"}`,
			want: models.Notification{ID: 10, CreatedAt: "2024-01-01", Title: "t"},
		},
		{
			name: "非对象",
			raw:  `42`,
			want: models.Notification{ID: 9, CreatedAt: testNowISO, Title: "通知 #9"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(json.RawMessage(tc.raw), 9, testNow)
			assert.Equal(t, tc.want, got)

			encoded, err := json.Marshal(got)
			require.NoError(t, err)
			assert.NotContains(t, string(encoded), `"date"`)
			assert.Equal(t, got, Normalize(encoded, 9, testNow.Add(time.Hour)))
		})
	}
}

// NotificationServiceTestSuite 通知服务测试套件
type NotificationServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	kv     *testutil.RecordingKV
	remote *mockRemote
	svc    *Service
}

func (s *NotificationServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.kv = testutil.NewRecordingKV()
	s.remote = new(mockRemote)
	s.svc = NewService(s.kv, "idc", s.remote, store.Options{Clock: testutil.FixedClock(testNow)})
	s.svc.Load(s.ctx)
}

func (s *NotificationServiceTestSuite) TestSubmitUsesRemoteRecord() {
	s.remote.On("Submit", mock.Anything, "机房断电演练").
		Return(json.RawMessage(`{"id":12,"message":"机房断电演练","confirmed":false}`), nil)

	n, err := s.svc.Submit(s.ctx, " 机房断电演练 ")
	s.Require().NoError(err)
	s.Equal(int64(12), n.ID)
	s.Equal("机房断电演练", n.Title)
	s.Equal("机房断电演练", n.Message)
	s.Equal(testNowISO, n.CreatedAt)
	s.False(n.Read)
	s.NoError(s.svc.RemoteError())

	local := s.svc.Create(s.ctx, models.Notification{Title: "local"})
	s.Equal(int64(13), local.ID)
	s.remote.AssertExpectations(s.T())
}

func (s *NotificationServiceTestSuite) TestSubmitFallsBackLocally() {
	s.remote.On("Submit", mock.Anything, "hello").Return(nil, errors.New("connection refused"))

	n, err := s.svc.Submit(s.ctx, "hello")
	s.Require().NoError(err)
	s.Equal(int64(1), n.ID)
	s.Equal("hello", n.Title)
	s.Equal("hello", n.Message)
	s.False(n.Confirmed)
	s.Equal(0, n.ConfirmedCount)
	s.EqualError(s.svc.RemoteError(), "connection refused")
	s.Len(s.svc.List(), 1)
}

func (s *NotificationServiceTestSuite) TestSubmitRejectsEmpty() {
	_, err := s.svc.Submit(s.ctx, "   ")
	s.ErrorIs(err, ErrEmptyMessage)
	s.remote.AssertNotCalled(s.T(), "Submit", mock.Anything, mock.Anything)
}

func (s *NotificationServiceTestSuite) TestCreateResetsState() {
	n := s.svc.Create(s.ctx, models.Notification{Title: "t", Content: "c", Publisher: "ops", Type: "info", Confirmed: true, ConfirmedCount: 5, Read: true})
	s.Equal(int64(1), n.ID)
	s.False(n.Confirmed)
	s.Equal(0, n.ConfirmedCount)
	s.False(n.Read)
	s.Equal("c", n.Message)
	s.Equal(testNowISO, n.CreatedAt)
}

func (s *NotificationServiceTestSuite) TestCreateUntitledDraftGetsOwnTitle() {
	draft := Normalize(json.RawMessage(`{"publisher":"ops"}`), 0, time.Now())
	n := s.svc.Create(s.ctx, draft)
	s.Equal(int64(1), n.ID)
	s.Equal("通知 #1", n.Title)
}

func (s *NotificationServiceTestSuite) TestConfirmIsMonotonic() {
	n := s.svc.Create(s.ctx, models.Notification{Title: "t"})
	s.remote.On("Confirm", mock.Anything, n.ID).Return(nil, errors.New("timeout")).Once()
	s.remote.On("Confirm", mock.Anything, n.ID).Return(json.RawMessage(`{}`), nil)

	first, err := s.svc.Confirm(s.ctx, n.ID)
	s.Require().NoError(err)
	s.True(first.Confirmed)
	s.Equal(1, first.ConfirmedCount)
	s.Error(s.svc.RemoteError())

	second, err := s.svc.Confirm(s.ctx, n.ID)
	s.Require().NoError(err)
	s.True(second.Confirmed)
	s.Equal(2, second.ConfirmedCount)
	s.NoError(s.svc.RemoteError())
}

func (s *NotificationServiceTestSuite) TestConfirmMissing() {
	_, err := s.svc.Confirm(s.ctx, 999)
	s.ErrorIs(err, store.ErrNotFound)
	s.remote.AssertNotCalled(s.T(), "Confirm", mock.Anything, mock.Anything)
}

func (s *NotificationServiceTestSuite) TestMarkAllReadAndUnreadCount() {
	s.svc.Create(s.ctx, models.Notification{Title: "a"})
	s.svc.Create(s.ctx, models.Notification{Title: "b"})
	s.Equal(2, s.svc.UnreadCount())
	sets := s.kv.Sets("idc-notifications")

	s.Equal(2, s.svc.MarkAllRead(s.ctx))
	s.Equal(0, s.svc.UnreadCount())
	s.Equal(sets+1, s.kv.Sets("idc-notifications"))

	s.Equal(0, s.svc.MarkAllRead(s.ctx))
	s.Equal(sets+1, s.kv.Sets("idc-notifications"))
}

func (s *NotificationServiceTestSuite) TestStatsAndFilter() {
	a := s.svc.Create(s.ctx, models.Notification{Title: "维护", Publisher: "ops", Type: "info"})
	s.svc.Create(s.ctx, models.Notification{Message: "安全提醒", Publisher: "sec", Type: "warn"})
	s.remote.On("Confirm", mock.Anything, a.ID).Return(json.RawMessage(`{}`), nil)
	_, err := s.svc.Confirm(s.ctx, a.ID)
	s.Require().NoError(err)

	stats := s.svc.Stats()
	s.Require().Len(stats, 2)
	s.Equal(models.NotificationStat{ID: a.ID, Title: "维护", Confirmed: 1, Unconfirmed: []string{}}, stats[0])
	s.Equal("安全提醒", stats[1].Title)

	s.Len(s.svc.Filter(Filter{Type: "warn"}), 1)
	s.Len(s.svc.Filter(Filter{Keyword: "OPS"}), 1)
	s.Len(s.svc.Filter(Filter{Publisher: "sec", Keyword: "提醒"}), 1)
	s.Len(s.svc.Filter(Filter{UnreadOnly: true}), 2)
}

func (s *NotificationServiceTestSuite) TestSeedIfEmpty() {
	s.True(s.svc.SeedIfEmpty(s.ctx))
	s.Len(s.svc.List(), 2)
	s.False(s.svc.SeedIfEmpty(s.ctx))
	s.Len(s.svc.List(), 2)
}

func (s *NotificationServiceTestSuite) TestSync() {
	s.svc.Create(s.ctx, models.Notification{Title: "local"})

	s.remote.On("Fetch", mock.Anything).Return(nil, errors.New("503")).Once()
	_, err := s.svc.Sync(s.ctx)
	s.Error(err)
	s.Len(s.svc.List(), 1)

	s.remote.On("Fetch", mock.Anything).Return([]json.RawMessage{
		json.RawMessage(`{"id":5,"message":"remote","confirmed":true}`),
		json.RawMessage(`{"message":"no id"}`),
	}, nil)
	n, err := s.svc.Sync(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, n)

	list := s.svc.List()
	s.Require().Len(list, 2)
	s.Equal(int64(5), list[0].ID)
	s.Equal(1, list[0].ConfirmedCount)
	s.Equal(int64(2), list[1].ID)

	next := s.svc.Create(s.ctx, models.Notification{Title: "after"})
	s.Equal(int64(6), next.ID)
}

func (s *NotificationServiceTestSuite) TestLoadMigratesLegacy() {
	s.kv.Seed("idc-notifications", `[{"id":1,"message":"m","date":"d","confirmed":1}]`)

	report := s.svc.Load(s.ctx)
	s.True(report.Written)
	raw, _ := s.kv.Raw("idc-notifications")
	s.JSONEq(`[{"id":1,"createdAt":"d","title":"m","message":"m","read":false,"confirmed":true,"confirmedCount":1}]`, raw)

	report = s.svc.Load(s.ctx)
	s.False(report.Written)
}

func (s *NotificationServiceTestSuite) TestLoadEmptyStringsMigrateOnce() {
	s.kv.Seed("idc-notifications", `[{"id":1,"createdAt":"c","message":"","content":"body"},{"id":2,"createdAt":"","date":"d","title":"","message":"m"}]`)

	s.True(s.svc.Load(s.ctx).Written)
	s.Equal(1, s.kv.Sets("idc-notifications"))

	s.False(s.svc.Load(s.ctx).Written)
	s.Equal(1, s.kv.Sets("idc-notifications"))

	list := s.svc.List()
	s.Require().Len(list, 2)
	s.Equal("body", list[0].Title)
	s.Equal("d", list[1].CreatedAt)
	s.Equal("m", list[1].Title)
}

func TestNotificationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(NotificationServiceTestSuite))
}

func TestLocalOnlyService(t *testing.T) {
	svc := NewService(testutil.NewRecordingKV(), "idc", nil, store.Options{})
	svc.Load(context.Background())

	n, err := svc.Submit(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n.ID)

	_, err = svc.Sync(context.Background())
	assert.ErrorIs(t, err, ErrNoRemote)
}
