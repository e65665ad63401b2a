package server

import (
	"errors"
	"net/http"

	"albumsync/pkg/archive"
	"albumsync/pkg/dest"
	"albumsync/pkg/engine"
	"albumsync/pkg/mapping"
	"albumsync/pkg/scheduler"
	"albumsync/pkg/settings"
	"albumsync/pkg/source"
	"albumsync/pkg/token"
	"albumsync/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// Handler 操作接口处理器：把引擎的状态机原样暴露为 HTTP 命令，
// 不在这一层引入任何额外的状态或约束。
type Handler struct {
	cfg       *Config
	tokens    *token.TokenStore
	source    *source.Catalog
	dest      *dest.Catalog
	settings  *settings.Manager
	mappings  *mapping.Store
	engine    *engine.Engine
	scheduler *scheduler.Scheduler
	archive   *archive.Service // 可为 nil
}

func NewHandler(cfg *Config, tokens *token.TokenStore, src *source.Catalog, dst *dest.Catalog,
	st *settings.Manager, ms *mapping.Store, eng *engine.Engine, sch *scheduler.Scheduler,
	arc *archive.Service) *Handler {
	return &Handler{
		cfg:       cfg,
		tokens:    tokens,
		source:    src,
		dest:      dst,
		settings:  st,
		mappings:  ms,
		engine:    eng,
		scheduler: sch,
		archive:   arc,
	}
}

// SetToken 设置源端凭证并立即刷新相册目录。
// 刷新失败不回滚凭证（有效性只能由目录调用发现），把失败分类一并返回。
func (h *Handler) SetToken(c *gin.Context) {
	var req SetTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ErrWithCode(c, http.StatusBadRequest, err)
		return
	}
	if err := h.tokens.Set(req.Token); err != nil {
		util.Err(c, err)
		return
	}

	albums, err := h.source.Refresh(c.Request.Context())
	if err != nil {
		var fe *source.FetchError
		if errors.As(err, &fe) {
			util.Ok(c, gin.H{
				"connected": true,
				"albums":    []interface{}{},
				"fetchError": gin.H{
					"kind":    fe.Kind,
					"message": fe.Message,
				},
			})
			return
		}
		util.Err(c, err)
		return
	}
	util.Ok(c, gin.H{"connected": true, "albums": albums})
}

// ClearToken 清除源端凭证
func (h *Handler) ClearToken(c *gin.Context) {
	if err := h.tokens.Clear(); err != nil {
		util.Err(c, err)
		return
	}
	util.Ok(c, gin.H{"connected": false})
}

// GetAlbums 返回相册快照，?refresh=true 时先重新拉取
func (h *Handler) GetAlbums(c *gin.Context) {
	if cast.ToBool(util.GetParam(c, "refresh")) {
		albums, err := h.source.Refresh(c.Request.Context())
		if err != nil {
			var fe *source.FetchError
			if errors.As(err, &fe) && fe.Kind == source.FetchAuth {
				util.ErrWithCode(c, http.StatusUnauthorized, err)
				return
			}
			util.ErrWithCode(c, http.StatusBadGateway, err)
			return
		}
		util.Ok(c, albums)
		return
	}
	util.Ok(c, h.source.Albums())
}

// GetSites 列出目标端站点
func (h *Handler) GetSites(c *gin.Context) {
	sites, err := h.dest.ListSites(c.Request.Context())
	if err != nil {
		util.ErrWithCode(c, http.StatusBadGateway, err)
		return
	}
	util.Ok(c, sites)
}

// SelectSite 切换目标站点并加载该站点的集合
func (h *Handler) SelectSite(c *gin.Context) {
	var req SelectSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ErrWithCode(c, http.StatusBadRequest, err)
		return
	}
	if err := h.dest.SelectSite(req.SiteId); err != nil {
		util.Err(c, err)
		return
	}
	collections, err := h.dest.ListCollections(c.Request.Context(), req.SiteId)
	if err != nil {
		zap.S().Warnf("站点 %s 集合加载失败: %v", req.SiteId, err)
		util.Ok(c, gin.H{"siteId": req.SiteId, "collections": []interface{}{}})
		return
	}
	util.Ok(c, gin.H{"siteId": req.SiteId, "collections": collections})
}

// GetCollections 当前站点下含多图字段的集合
func (h *Handler) GetCollections(c *gin.Context) {
	collections, err := h.dest.Collections(c.Request.Context())
	if err != nil {
		util.ErrWithCode(c, http.StatusBadGateway, err)
		return
	}
	util.Ok(c, collections)
}

// GetCollectionItems 集合下的条目
func (h *Handler) GetCollectionItems(c *gin.Context) {
	items, err := h.dest.ListItems(c.Request.Context(), c.Param("collectionId"))
	if err != nil {
		util.ErrWithCode(c, http.StatusBadGateway, err)
		return
	}
	util.Ok(c, items)
}

// GetMappings 按插入顺序返回映射列表
func (h *Handler) GetMappings(c *gin.Context) {
	util.Ok(c, h.mappings.List())
}

// AddMapping 追加一条空映射
func (h *Handler) AddMapping(c *gin.Context) {
	m, err := h.mappings.Add()
	if err != nil {
		util.Err(c, err)
		return
	}
	util.Ok(c, m)
}

// UpdateMapping 单字段更新
func (h *Handler) UpdateMapping(c *gin.Context) {
	var req UpdateMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ErrWithCode(c, http.StatusBadRequest, err)
		return
	}
	if err := h.mappings.Update(c.Param("id"), req.Field, req.Value); err != nil {
		util.ErrWithCode(c, http.StatusBadRequest, err)
		return
	}
	util.Ok(c, nil)
}

// DeleteMapping 删除映射，不存在时也返回成功
func (h *Handler) DeleteMapping(c *gin.Context) {
	if err := h.mappings.Delete(c.Param("id")); err != nil {
		util.Err(c, err)
		return
	}
	util.Ok(c, nil)
}

// UpdateSchedule 更新自动同步开关和频率
func (h *Handler) UpdateSchedule(c *gin.Context) {
	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ErrWithCode(c, http.StatusBadRequest, err)
		return
	}
	if req.SyncFrequency != "" {
		if err := h.scheduler.SetFrequency(req.SyncFrequency); err != nil {
			util.ErrWithCode(c, http.StatusBadRequest, err)
			return
		}
	}
	if req.AutoSync != nil {
		if err := h.scheduler.SetEnabled(*req.AutoSync); err != nil {
			util.Err(c, err)
			return
		}
	}
	util.Ok(c, gin.H{
		"autoSync":      h.settings.AutoSync(),
		"syncFrequency": h.settings.Frequency(),
	})
}

// TriggerSync 手动触发一轮同步。执行中返回 409，未配置映射返回 400。
func (h *Handler) TriggerSync(c *gin.Context) {
	entry, err := h.engine.Run(c.Request.Context())
	switch {
	case errors.Is(err, engine.ErrBusy):
		util.ErrWithCode(c, http.StatusConflict, err)
	case errors.Is(err, engine.ErrNoMappings):
		util.ErrWithCode(c, http.StatusBadRequest, err)
	case err != nil:
		util.Err(c, err)
	default:
		util.Ok(c, entry)
	}
}

// GetLogs 日志环形视图，最新在前
func (h *Handler) GetLogs(c *gin.Context) {
	util.Ok(c, h.settings.SyncLogs())
}

// GetArchivedLogs 归档库里的完整历史，未配置归档库时返回 404
func (h *Handler) GetArchivedLogs(c *gin.Context) {
	if h.archive == nil {
		util.ErrWithCode(c, http.StatusNotFound, errors.New("未配置日志归档库"))
		return
	}
	records, err := h.archive.Recent(cast.ToInt(util.GetParam(c, "limit")))
	if err != nil {
		util.Err(c, err)
		return
	}
	util.Ok(c, records)
}

// GetStatus 服务状态概览
func (h *Handler) GetStatus(c *gin.Context) {
	util.Ok(c, StatusResponse{
		Version:         util.GetVersion().Version,
		SourceConnected: h.tokens.Connected(),
		SelectedSiteId:  h.dest.SelectedSite(),
		AutoSync:        h.settings.AutoSync(),
		SyncFrequency:   h.settings.Frequency(),
		LastSync:        h.settings.LastSync(),
		Running:         h.engine.Running(),
	})
}
