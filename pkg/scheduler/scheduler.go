package scheduler

import (
	"context"
	"errors"
	"sync"

	"albumsync/pkg/engine"
	"albumsync/pkg/models"
	"albumsync/pkg/settings"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// 固定的频率枚举，不支持任意自定义周期。
// @every 首次触发在一个完整周期之后，所以打开开关不会立刻触发同步。
var cronSpecs = map[string]string{
	"15min":  "@every 15m",
	"hourly": "@every 1h",
	"6hours": "@every 6h",
	"daily":  "@every 24h",
	"weekly": "@every 168h",
}

// ValidFrequency 频率取值是否合法
func ValidFrequency(freq string) bool {
	_, ok := cronSpecs[freq]
	return ok
}

// Frequencies 全部合法频率
func Frequencies() []string {
	return []string{"15min", "hourly", "6hours", "daily", "weekly"}
}

// Runner 被调度的执行入口，由同步引擎实现
type Runner interface {
	Run(ctx context.Context) (*models.SyncLogEntry, error)
}

// Scheduler 周期触发器：开关与频率持久化在设置聚合体里，
// 频率变更时整体重启计时（不保留已过去的部分周期）。
type Scheduler struct {
	mu       sync.Mutex
	settings *settings.Manager
	runner   Runner
	cron     *cron.Cron
}

func NewScheduler(settings *settings.Manager, runner Runner) *Scheduler {
	return &Scheduler{settings: settings, runner: runner}
}

// Start 进程启动时调用：按持久化的开关状态恢复调度
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.settings.AutoSync() {
		return nil
	}
	return s.startLocked()
}

// SetEnabled 打开/关闭自动同步。打开只注册计时器，不在前沿触发执行。
func (s *Scheduler) SetEnabled(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.settings.SetAutoSync(enabled); err != nil {
		return err
	}
	if enabled {
		if s.cron != nil {
			return nil
		}
		return s.startLocked()
	}
	s.stopLocked()
	return nil
}

// SetFrequency 切换频率。处于启用状态时按新周期重新计时。
func (s *Scheduler) SetFrequency(freq string) error {
	if !ValidFrequency(freq) {
		return errors.New("未知的同步频率: " + freq)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.settings.SetFrequency(freq); err != nil {
		return err
	}
	if s.cron != nil {
		s.stopLocked()
		return s.startLocked()
	}
	return nil
}

// Enabled 当前是否在调度
func (s *Scheduler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron != nil
}

// Stop 停止调度（进程退出时调用）
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// startLocked 调用方必须持有锁
func (s *Scheduler) startLocked() error {
	freq := s.settings.Frequency()
	spec, ok := cronSpecs[freq]
	if !ok {
		return errors.New("未知的同步频率: " + freq)
	}

	c := cron.New()
	entryID, err := c.AddFunc(spec, s.tick)
	if err != nil {
		return err
	}
	c.Start()
	s.cron = c
	zap.S().Infof("自动同步已启动 (EntryID: %d, 频率: %s)", entryID, freq)
	return nil
}

// stopLocked 调用方必须持有锁
func (s *Scheduler) stopLocked() {
	if s.cron == nil {
		return
	}
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.cron = nil
	zap.S().Info("自动同步已停止")
}

func (s *Scheduler) tick() {
	zap.S().Info("定时触发同步任务...")
	_, err := s.runner.Run(context.Background())
	switch {
	case err == nil:
		zap.S().Info("定时同步执行成功")
	case errors.Is(err, engine.ErrBusy):
		// 上一轮还没结束，等下一个自然周期
		zap.S().Warn("上一轮同步尚未结束，本次触发被跳过")
	case errors.Is(err, engine.ErrNoMappings):
		zap.S().Debug("尚未配置映射，本次触发无事可做")
	default:
		zap.S().Errorf("定时同步执行失败: %v", err)
	}
}
