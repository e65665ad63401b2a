package archive

import (
	"fmt"

	"albumsync/pkg/models"

	"gorm.io/gorm"
)

// Service 同步日志的完整归档：设置里只保留最近 10 条的环形视图，
// 配置了归档库时每条执行记录都会落到 t_sync_log 表里。
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) (*Service, error) {
	if err := db.AutoMigrate(&models.SyncLogRecord{}); err != nil {
		return nil, fmt.Errorf("初始化归档表失败: %w", err)
	}
	return &Service{db: db}, nil
}

// Record 归档一条执行记录
func (s *Service) Record(entry models.SyncLogEntry) error {
	record := models.SyncLogRecord{
		Timestamp:       entry.Timestamp,
		PhotosProcessed: entry.PhotosProcessed,
		VideosSkipped:   entry.VideosSkipped,
		Status:          entry.Status,
		Error:           entry.Error,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return fmt.Errorf("写入归档记录失败: %w", err)
	}
	return nil
}

// Recent 按时间倒序返回最近的归档记录
func (s *Service) Recent(limit int) ([]models.SyncLogRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []models.SyncLogRecord
	err := s.db.Order("timestamp DESC").Limit(limit).Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("查询归档记录失败: %w", err)
	}
	return records, nil
}
