package engine

import (
	"context"
	"errors"

	"albumsync/pkg/models"
)

var (
	// ErrBusy 已有执行在进行中，调用方稍后重试（不排队、不并行）
	ErrBusy = errors.New("同步任务正在运行中，请稍后再试")
	// ErrNoMappings 映射列表为空，"没有配置"不同于"本轮无事可做"
	ErrNoMappings = errors.New("尚未配置任何映射")
)

// SourceCatalog 源端目录：刷新并返回相册快照
type SourceCatalog interface {
	Refresh(ctx context.Context) ([]models.Album, error)
}

// DestCatalog 目标端目录：集合快照与唯一写入路径
type DestCatalog interface {
	Collections(ctx context.Context) ([]models.Collection, error)
	PushImages(ctx context.Context, collectionId, itemId, fieldId string, images []models.ImageRef) (int, error)
}

// EventPublisher 执行结束后的事件通知（可选）
type EventPublisher interface {
	PublishSyncResult(entry models.SyncLogEntry) error
}

// LogArchive 完整日志归档（可选），设置中只保留环形视图
type LogArchive interface {
	Record(entry models.SyncLogEntry) error
}
