package task

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

func TestNextDueDate(t *testing.T) {
	testCases := []struct {
		due  string
		rec  models.Recurrence
		want string
	}{
		{"2025-08-01", models.RecurrenceDaily, "2025-08-02"},
		{"2025-08-31", models.RecurrenceDaily, "2025-09-01"},
		{"2025-08-01", models.RecurrenceWeekly, "2025-08-08"},
		{"2025-12-29", models.RecurrenceWeekly, "2026-01-05"},
		{"2025-01-15", models.RecurrenceMonthly, "2025-02-15"},
		{"2025-01-31", models.RecurrenceMonthly, "2025-03-03"},
		{"2025-08-01T08:30:00.000Z", models.RecurrenceDaily, "2025-08-02T08:30:00.000Z"},
		{"2025-08-01T08:30:00+08:00", models.RecurrenceWeekly, "2025-08-08T00:30:00.000Z"},
	}

	for _, tc := range testCases {
		t.Run(tc.due+"/"+string(tc.rec), func(t *testing.T) {
			got, err := NextDueDate(tc.due, tc.rec)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := NextDueDate("someday", models.RecurrenceDaily)
	assert.Error(t, err)
	_, err = NextDueDate("2025-08-01", models.RecurrenceNone)
	assert.Error(t, err)
}

func TestNormalizeAliases(t *testing.T) {
	got := Normalize(json.RawMessage(`{"id":2,"title":"巡检","status":"已完成","recurrence":"每日","dueDate":"2025-08-01","createdAt":"c"}`), 1)
	assert.Equal(t, models.Task{ID: 2, Title: "巡检", Status: models.WorkDone, Recurrence: models.RecurrenceDaily, DueDate: "2025-08-01", CreatedAt: "c"}, got)

	got = Normalize(json.RawMessage(`{"status":"处理中","recurrence":"yearly"}`), 5)
	assert.Equal(t, models.WorkInProgress, got.Status)
	assert.Equal(t, models.RecurrenceNone, got.Recurrence)
	assert.Equal(t, int64(5), got.ID)

	encoded, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Equal(t, got, Normalize(encoded, 5))
}

// TaskServiceTestSuite 任务服务测试套件
type TaskServiceTestSuite struct {
	suite.Suite
	ctx context.Context
	kv  *testutil.RecordingKV
	svc *Service
}

func (s *TaskServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.kv = testutil.NewRecordingKV()
	s.svc = NewService(s.kv, "idc", store.Options{Clock: testutil.FixedClock(time.Date(2025, 7, 30, 0, 0, 0, 0, time.UTC))})
	s.svc.Load(s.ctx)
}

func (s *TaskServiceTestSuite) dueOn(date string) []models.Task {
	return s.svc.store.Filter(func(t models.Task) bool { return t.DueDate == date })
}

func (s *TaskServiceTestSuite) TestAddDefaults() {
	t := s.svc.Add(s.ctx, models.Task{Title: "更换滤网"})
	s.Equal(int64(1), t.ID)
	s.Equal(models.WorkNew, t.Status)
	s.Equal("2025-07-30T00:00:00.000Z", t.CreatedAt)
	s.False(t.Synced)
}

func (s *TaskServiceTestSuite) TestCompletingTwiceSchedulesOnce() {
	t := s.svc.Add(s.ctx, models.Task{Title: "日常巡检", Recurrence: models.RecurrenceDaily, DueDate: "2025-08-01"})

	_, ok := s.svc.Complete(s.ctx, t.ID)
	s.True(ok)
	_, ok = s.svc.Complete(s.ctx, t.ID)
	s.True(ok)

	next := s.dueOn("2025-08-02")
	s.Require().Len(next, 1)
	s.Equal(models.WorkNew, next[0].Status)
	s.Equal("日常巡检", next[0].Title)
	s.Equal(models.RecurrenceDaily, next[0].Recurrence)
	s.Len(s.svc.List(), 2)
}

func (s *TaskServiceTestSuite) TestAddCompletedRecurringSchedules() {
	s.svc.Add(s.ctx, models.Task{Title: "周检", Status: models.WorkDone, Recurrence: models.RecurrenceWeekly, DueDate: "2025-08-01"})
	s.Len(s.dueOn("2025-08-08"), 1)
}

func (s *TaskServiceTestSuite) TestScheduleNextPreconditions() {
	_, ok := s.svc.ScheduleNext(s.ctx, models.Task{Title: "a", Status: models.WorkNew, Recurrence: models.RecurrenceDaily, DueDate: "2025-08-01"})
	s.False(ok)
	_, ok = s.svc.ScheduleNext(s.ctx, models.Task{Title: "a", Status: models.WorkDone, DueDate: "2025-08-01"})
	s.False(ok)
	_, ok = s.svc.ScheduleNext(s.ctx, models.Task{Title: "a", Status: models.WorkDone, Recurrence: models.RecurrenceDaily})
	s.False(ok)
	_, ok = s.svc.ScheduleNext(s.ctx, models.Task{Title: "a", Status: models.WorkDone, Recurrence: models.RecurrenceDaily, DueDate: "bad"})
	s.False(ok)
	s.Empty(s.svc.List())
}

func (s *TaskServiceTestSuite) TestSweepRecurring() {
	s.kv.Seed("idc-tasks", `[
		{"id":1,"title":"日检","status":"已完成","recurrence":"每日","dueDate":"2025-08-01","createdAt":"c","synced":false},
		{"id":2,"title":"月检","status":"done","recurrence":"monthly","dueDate":"2025-08-01","createdAt":"c","synced":false},
		{"id":3,"title":"临时","status":"done","dueDate":"2025-08-01","createdAt":"c","synced":false}
	]`)
	s.svc.Load(s.ctx)

	s.Equal(2, s.svc.SweepRecurring(s.ctx))
	s.Equal(0, s.svc.SweepRecurring(s.ctx))
	s.Len(s.dueOn("2025-08-02"), 1)
	s.Len(s.dueOn("2025-09-01"), 1)
}

func (s *TaskServiceTestSuite) TestFilter() {
	s.svc.Add(s.ctx, models.Task{Title: "UPS 检查", Location: "A 机房"})
	s.svc.Add(s.ctx, models.Task{Title: "空调保养", Location: "B 机房", Description: "ups room", Status: models.WorkInProgress})

	s.Len(s.svc.Filter(Filter{Keyword: "ups"}), 2)
	s.Len(s.svc.Filter(Filter{Status: models.WorkInProgress}), 1)
	s.Len(s.svc.Filter(Filter{Location: "A 机房"}), 1)
}

func (s *TaskServiceTestSuite) TestMissingID() {
	_, ok := s.svc.Update(s.ctx, 999, map[string]interface{}{"status": "done"})
	s.False(ok)
	s.False(s.svc.Remove(s.ctx, 999))
	s.Empty(s.svc.List())
}

func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}
