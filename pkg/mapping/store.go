package mapping

import (
	"strconv"
	"sync"
	"time"

	"albumsync/pkg/models"
	"albumsync/pkg/settings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Store 映射列表的唯一持有者：插入顺序即展示/遍历顺序，
// 所有修改同步落盘，修改之间用互斥锁串行化。
type Store struct {
	mu       sync.Mutex
	settings *settings.Manager
	lastId   int64
}

func NewStore(settings *settings.Manager) *Store {
	return &Store{settings: settings}
}

// Add 追加一条空映射（status=inactive），返回新映射
func (s *Store) Add() (models.Mapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := models.Mapping{
		Id:     s.nextId(),
		Status: models.MappingStatusInactive,
	}
	mappings := append(s.settings.Mappings(), m)
	if err := s.settings.ReplaceMappings(mappings); err != nil {
		return models.Mapping{}, err
	}
	return m, nil
}

// Update 单字段更新。未知 id 静默忽略（容忍与删除并发的竞争），未知字段报错。
func (s *Store) Update(id, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mappings := s.settings.Mappings()
	idx := lo.IndexOf(lo.Map(mappings, func(m models.Mapping, _ int) string { return m.Id }), id)
	if idx < 0 {
		return nil
	}

	m := &mappings[idx]
	switch field {
	case "albumId":
		m.AlbumId = value
	case "collectionId":
		m.CollectionId = value
	case "itemId":
		m.ItemId = value
	case "fieldId":
		m.FieldId = value
	case "status":
		switch value {
		case models.MappingStatusInactive, models.MappingStatusPending,
			models.MappingStatusSynced, models.MappingStatusError:
			m.Status = value
		default:
			return errors.Errorf("未知的映射状态: %s", value)
		}
	default:
		return errors.Errorf("未知的映射字段: %s", field)
	}
	return s.settings.ReplaceMappings(mappings)
}

// Delete 按 id 删除，不存在时不报错
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mappings := s.settings.Mappings()
	remaining := lo.Filter(mappings, func(m models.Mapping, _ int) bool { return m.Id != id })
	if len(remaining) == len(mappings) {
		return nil
	}
	return s.settings.ReplaceMappings(remaining)
}

// List 按插入顺序返回映射列表
func (s *Store) List() []models.Mapping {
	return s.settings.Mappings()
}

// nextId 毫秒时间戳 id，同一毫秒内递增保证唯一
func (s *Store) nextId() string {
	now := time.Now().UnixMilli()
	if now <= s.lastId {
		now = s.lastId + 1
	}
	s.lastId = now
	return strconv.FormatInt(now, 10)
}
