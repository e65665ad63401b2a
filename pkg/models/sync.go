package models

import "time"

// Mapping 状态机
const (
	MappingStatusInactive = "inactive"
	MappingStatusPending  = "pending"
	MappingStatusSynced   = "synced"
	MappingStatusError    = "error"
)

// SyncLogEntry 状态
const (
	SyncStatusSuccess = "success"
	SyncStatusError   = "error"
)

// MaxSyncLogs 日志保留条数（只保留最近的）
const MaxSyncLogs = 10

// Mapping 一条同步映射：一个源相册绑定到一个目标集合条目的字段
type Mapping struct {
	Id           string `json:"id"`           // 创建时生成，不可变
	AlbumId      string `json:"albumId"`      // 源相册ID
	CollectionId string `json:"collectionId"` // 目标集合ID
	ItemId       string `json:"itemId"`       // 目标条目ID
	FieldId      string `json:"fieldId"`      // 目标多图字段ID
	Status       string `json:"status"`
}

// Runnable 判断映射是否可执行：albumId、collectionId、fieldId 均非空
func (m Mapping) Runnable() bool {
	return m.AlbumId != "" && m.CollectionId != "" && m.FieldId != ""
}

// SyncLogEntry 一次执行的汇总记录
type SyncLogEntry struct {
	Timestamp       time.Time `json:"timestamp"`
	PhotosProcessed int       `json:"photosProcessed"`
	VideosSkipped   int       `json:"videosSkipped"`
	Status          string    `json:"status"`
	Error           string    `json:"error,omitempty"`
}

// SyncSettings 持久化的设置聚合体
type SyncSettings struct {
	SchemaVersion int            `json:"schemaVersion"`
	Mappings      []Mapping      `json:"mappings"`
	AutoSync      bool           `json:"autoSync"`
	SyncFrequency string         `json:"syncFrequency"`
	LastSync      *time.Time     `json:"lastSync"`
	SyncLogs      []SyncLogEntry `json:"syncLogs"`
}
