/**
 * @module SchedulerService
 * @description 后台定时作业调度：周期任务补齐、通知远程同步
 * @architecture 基于 robfig/cron 的调度器模式
 * @stateFlow Register -> Start -> 按表达式触发作业 -> Stop 等待运行中的作业结束
 * @rules
 *   - 同一作业上一次未结束时跳过本次触发
 *   - 作业 panic 被恢复并记录，不影响调度器
 *   - 表达式支持秒级字段与 @every 描述符
 * @dependencies github.com/robfig/cron/v3, go.uber.org/zap
 * @refs service/task/service.go, service/notification/service.go, service/app.go
 */

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// RecurrenceSweeper 补齐已完成周期任务的下一次
type RecurrenceSweeper interface {
	SweepRecurring(ctx context.Context) int
}

// NotificationSyncer 从远程服务同步通知
type NotificationSyncer interface {
	Sync(ctx context.Context) (int, error)
}

// SchedulerService 调度器服务
type SchedulerService struct {
	cron    *cron.Cron
	logger  *zap.Logger
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc

	mu      sync.Mutex
	jobs    map[string]cron.EntryID
	started bool
}

// NewSchedulerService 创建调度器服务，timeout 为单次作业的最长执行时间
func NewSchedulerService(logger *zap.Logger, timeout time.Duration) *SchedulerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger = logger.Named("scheduler")
	cl := cronLogger{logger: logger.Sugar()}
	ctx, cancel := context.WithCancel(context.Background())

	c := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	return &SchedulerService{
		cron:    c,
		logger:  logger,
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(map[string]cron.EntryID),
	}
}

// AddJob 注册作业；同名作业会被替换
func (s *SchedulerService) AddJob(name, spec string, fn func(ctx context.Context)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
		defer cancel()
		start := time.Now()
		fn(ctx)
		s.logger.Debug("作业执行完成", zap.String("job", name), zap.Duration("elapsed", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("添加作业 %s 失败: %w", name, err)
	}
	if old, ok := s.jobs[name]; ok {
		s.cron.Remove(old)
	}
	s.jobs[name] = id
	s.logger.Info("注册作业", zap.String("job", name), zap.String("spec", spec))
	return nil
}

// RegisterRecurrence 注册周期任务补齐作业
func (s *SchedulerService) RegisterRecurrence(spec string, sweeper RecurrenceSweeper) error {
	return s.AddJob("task-recurrence", spec, func(ctx context.Context) {
		if created := sweeper.SweepRecurring(ctx); created > 0 {
			s.logger.Info("补齐周期任务", zap.Int("created", created))
		}
	})
}

// RegisterNotificationSync 注册通知同步作业
func (s *SchedulerService) RegisterNotificationSync(spec string, syncer NotificationSyncer) error {
	return s.AddJob("notification-sync", spec, func(ctx context.Context) {
		if _, err := syncer.Sync(ctx); err != nil {
			s.logger.Warn("通知同步失败", zap.Error(err))
		}
	})
}

// Jobs 已注册的作业名称
func (s *SchedulerService) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}

// Start 启动调度器
func (s *SchedulerService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
	s.logger.Info("调度器已启动", zap.Int("jobs", len(s.jobs)))
}

// Stop 停止调度器并等待运行中的作业结束
func (s *SchedulerService) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("调度器已停止")
}

// cronLogger 把 cron 的日志接口接到 zap
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
