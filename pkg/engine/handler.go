package engine

import (
	"context"
	"sync"
	"time"

	"albumsync/pkg/mapping"
	"albumsync/pkg/models"
	"albumsync/pkg/settings"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Engine 同步引擎：一次 Run 把映射列表对账成目标端的写入动作。
// 进程内同一时刻至多一次执行；单条映射失败不影响同轮的其他映射。
type Engine struct {
	mu      sync.Mutex
	running bool

	settings  *settings.Manager
	mappings  *mapping.Store
	source    SourceCatalog
	dest      DestCatalog
	publisher EventPublisher
	archive   LogArchive
}

func NewEngine(settings *settings.Manager, mappings *mapping.Store, source SourceCatalog, dest DestCatalog) *Engine {
	return &Engine{
		settings: settings,
		mappings: mappings,
		source:   source,
		dest:     dest,
	}
}

// SetPublisher 配置执行结果的事件通知，发布失败只记日志
func (e *Engine) SetPublisher(p EventPublisher) {
	e.publisher = p
}

// SetArchive 配置完整日志归档，写入失败只记日志
func (e *Engine) SetArchive(a LogArchive) {
	e.archive = a
}

// Running 是否有执行在进行中
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Run 执行一轮对账。映射列表为空返回 ErrNoMappings（不产生日志条目，
// lastSync 不变）；已有执行在进行中返回 ErrBusy。只要执行发生了，
// 无论结果如何都会追加一条日志并更新 lastSync。
func (e *Engine) Run(ctx context.Context) (*models.SyncLogEntry, error) {
	mappings := e.mappings.List()
	if len(mappings) == 0 {
		return nil, ErrNoMappings
	}

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, ErrBusy
	}
	e.running = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	zap.S().Info("开始同步（只处理照片，排除视频）...")
	startTime := time.Now()

	// 1. 刷新两端目录快照
	albums, srcErr := e.source.Refresh(ctx)
	if srcErr != nil {
		zap.S().Warnf("源端目录不可用，相关映射将被跳过: %v", srcErr)
	}
	collections, dstErr := e.dest.Collections(ctx)
	if dstErr != nil {
		zap.S().Warnf("目标端目录不可用，相关映射将被跳过: %v", dstErr)
	}

	// 两端目录都拉不到时本轮无法进行，记一条错误日志
	if srcErr != nil && dstErr != nil {
		entry := models.SyncLogEntry{
			Timestamp: time.Now(),
			Status:    models.SyncStatusError,
			Error:     "两端目录均不可用: " + srcErr.Error() + "; " + dstErr.Error(),
		}
		e.commit(entry)
		return &entry, nil
	}

	var totalPhotos, totalVideos int

	// 2. 逐条顺序处理可执行的映射，单条失败不中断整轮
	for _, m := range mappings {
		if !m.Runnable() {
			continue
		}

		album, okA := lo.Find(albums, func(a models.Album) bool { return a.Id == m.AlbumId })
		_, okC := lo.Find(collections, func(c models.Collection) bool { return c.Id == m.CollectionId })
		if !okA || !okC {
			// id 已无法解析（相册或集合被删），静默跳过，状态不变
			zap.S().Debugf("映射 %s 无法解析，跳过", m.Id)
			continue
		}

		count, err := e.dest.PushImages(ctx, m.CollectionId, m.ItemId, m.FieldId, album.Photos)
		if err != nil {
			zap.S().Errorf("映射 %s 推送失败: %v", m.Id, err)
			if uerr := e.mappings.Update(m.Id, "status", models.MappingStatusError); uerr != nil {
				zap.S().Warnf("映射 %s 状态更新失败: %v", m.Id, uerr)
			}
			continue
		}

		totalPhotos += count
		totalVideos += album.VideoCount
		if uerr := e.mappings.Update(m.Id, "status", models.MappingStatusSynced); uerr != nil {
			zap.S().Warnf("映射 %s 状态更新失败: %v", m.Id, uerr)
		}
	}

	// 3. 汇总一条日志并原子提交
	entry := models.SyncLogEntry{
		Timestamp:       time.Now(),
		PhotosProcessed: totalPhotos,
		VideosSkipped:   totalVideos,
		Status:          models.SyncStatusSuccess,
	}
	e.commit(entry)

	zap.S().Infof("同步完成 - 照片: %d, 跳过视频: %d, 耗时: %v",
		totalPhotos, totalVideos, time.Since(startTime))
	return &entry, nil
}

// commit 写入日志环形视图与 lastSync，并触发可选的事件通知与归档
func (e *Engine) commit(entry models.SyncLogEntry) {
	if err := e.settings.CompleteRun(entry); err != nil {
		zap.S().Errorf("同步结果落盘失败: %v", err)
	}
	if e.publisher != nil {
		if err := e.publisher.PublishSyncResult(entry); err != nil {
			zap.S().Warnf("同步结果事件发布失败: %v", err)
		}
	}
	if e.archive != nil {
		if err := e.archive.Record(entry); err != nil {
			zap.S().Warnf("同步日志归档失败: %v", err)
		}
	}
}
