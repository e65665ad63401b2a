package models

import "time"

const TableNameSyncLogRecord = "t_sync_log"

// SyncLogRecord 同步日志归档表（完整历史，设置中的环形视图只保留最近10条）
type SyncLogRecord struct {
	Id              int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Timestamp       time.Time `json:"timestamp" gorm:"column:timestamp;index"`
	PhotosProcessed int       `json:"photosProcessed" gorm:"column:photosProcessed"`
	VideosSkipped   int       `json:"videosSkipped" gorm:"column:videosSkipped"`
	Status          string    `json:"status" gorm:"column:status;type:varchar(16)"`
	Error           string    `json:"error,omitempty" gorm:"column:error;type:varchar(1024)"`
}

func (*SyncLogRecord) TableName() string {
	return TableNameSyncLogRecord
}
