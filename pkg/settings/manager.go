package settings

import (
	"fmt"
	"sync"
	"time"

	"albumsync/pkg/models"

	"go.uber.org/zap"
)

const (
	// SchemaVersion 设置结构版本号，结构变更时递增
	SchemaVersion = 1

	settingsKey = "syncSettings"

	// DefaultFrequency 默认同步频率
	DefaultFrequency = "hourly"
)

// Store 设置持久化的最小接口，由 pkg/store 的 BadgerStore 实现
type Store interface {
	Get(key string, value interface{}) error
	Upsert(key string, value interface{}) error
	Exists(key string, dataType interface{}) bool
}

// Manager 持有设置聚合体的唯一内存副本，所有变更同步落盘
type Manager struct {
	mu    sync.Mutex
	store Store
	data  *models.SyncSettings
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// NewDefaultSettings 默认设置
func NewDefaultSettings() *models.SyncSettings {
	return &models.SyncSettings{
		SchemaVersion: SchemaVersion,
		Mappings:      []models.Mapping{},
		AutoSync:      false,
		SyncFrequency: DefaultFrequency,
		SyncLogs:      []models.SyncLogEntry{},
	}
}

// Load 进程启动时调用一次，本地无数据时使用默认值
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data := &models.SyncSettings{}
	if !m.store.Exists(settingsKey, &models.SyncSettings{}) {
		m.data = NewDefaultSettings()
		zap.S().Info("本地没有同步设置，使用默认值")
		return m.save()
	}
	if err := m.store.Get(settingsKey, data); err != nil {
		return fmt.Errorf("读取同步设置失败: %w", err)
	}
	if data.SyncFrequency == "" {
		data.SyncFrequency = DefaultFrequency
	}
	if data.SchemaVersion == 0 {
		data.SchemaVersion = SchemaVersion
	}
	m.data = data
	zap.S().Infof("同步设置已加载 - 映射: %d, 自动同步: %v, 频率: %s",
		len(data.Mappings), data.AutoSync, data.SyncFrequency)
	return nil
}

// save 调用方必须持有锁
func (m *Manager) save() error {
	return m.store.Upsert(settingsKey, m.data)
}

// Snapshot 返回设置的拷贝
func (m *Manager) Snapshot() models.SyncSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := *m.data
	snap.Mappings = append([]models.Mapping{}, m.data.Mappings...)
	snap.SyncLogs = append([]models.SyncLogEntry{}, m.data.SyncLogs...)
	return snap
}

// Mappings 按插入顺序返回映射列表的拷贝
func (m *Manager) Mappings() []models.Mapping {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Mapping{}, m.data.Mappings...)
}

// ReplaceMappings 整体替换映射列表并落盘
func (m *Manager) ReplaceMappings(mappings []models.Mapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.Mappings = mappings
	return m.save()
}

// SetAutoSync 更新自动同步开关
func (m *Manager) SetAutoSync(enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.AutoSync = enabled
	return m.save()
}

// SetFrequency 更新同步频率（取值校验由调度器负责）
func (m *Manager) SetFrequency(freq string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.SyncFrequency = freq
	return m.save()
}

// AutoSync 当前自动同步开关
func (m *Manager) AutoSync() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.AutoSync
}

// Frequency 当前同步频率
func (m *Manager) Frequency() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.SyncFrequency
}

// LastSync 上次执行时间
func (m *Manager) LastSync() *time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data.LastSync == nil {
		return nil
	}
	t := *m.data.LastSync
	return &t
}

// SyncLogs 日志条目拷贝，最新在前
func (m *Manager) SyncLogs() []models.SyncLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.SyncLogEntry{}, m.data.SyncLogs...)
}

// CompleteRun 一次执行结束后的原子提交：更新 lastSync 并把日志条目插到最前，
// 超过保留条数的旧条目被丢弃。要么整体成功，要么什么都不写。
func (m *Manager) CompleteRun(entry models.SyncLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	logs := append([]models.SyncLogEntry{entry}, m.data.SyncLogs...)
	if len(logs) > models.MaxSyncLogs {
		logs = logs[:models.MaxSyncLogs]
	}
	prevLogs := m.data.SyncLogs
	prevLast := m.data.LastSync

	ts := entry.Timestamp
	m.data.SyncLogs = logs
	m.data.LastSync = &ts
	if err := m.save(); err != nil {
		m.data.SyncLogs = prevLogs
		m.data.LastSync = prevLast
		return err
	}
	return nil
}
