package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"albumsync/pkg/models"
	"albumsync/pkg/token"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Catalog 源端相册目录：按需刷新的只读快照
type Catalog struct {
	cfg    *Config
	client *http.Client
	tokens *token.TokenStore

	mu     sync.RWMutex
	albums []models.Album
}

func NewCatalog(cfg *Config, tokens *token.TokenStore) *Catalog {
	return &Catalog{
		cfg:    cfg,
		tokens: tokens,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

// Refresh 重新拉取相册列表并统计每个相册的照片/视频数量。
// 相册列表整体失败返回 *FetchError；单个相册失败降级为零计数占位，不中断整体刷新。
func (c *Catalog) Refresh(ctx context.Context) ([]models.Album, error) {
	tk, ok := c.tokens.Get()
	if !ok {
		return nil, &FetchError{Kind: FetchAuth, Message: "尚未连接源端，请先设置凭证"}
	}

	zap.S().Info("开始刷新源端相册目录...")
	listed, err := c.listAlbums(ctx, tk)
	if err != nil {
		return nil, err
	}
	if len(listed) > c.cfg.MaxAlbums {
		// 只取前若干个相册，控制延迟与配额消耗
		listed = listed[:c.cfg.MaxAlbums]
	}

	albums := make([]models.Album, 0, len(listed))
	for _, a := range listed {
		name := a.Title
		if name == "" {
			name = "Untitled Album"
		}
		items, err := c.searchItems(ctx, tk, a.Id)
		if err != nil {
			zap.S().Warnf("相册 %s 条目检索失败，降级为零计数: %v", name, err)
			albums = append(albums, models.Album{Id: a.Id, Name: name})
			continue
		}

		photos := lo.Filter(items, func(it mediaItem, _ int) bool {
			return strings.HasPrefix(it.MimeType, "image/")
		})
		videoCount := lo.CountBy(items, func(it mediaItem) bool {
			return strings.HasPrefix(it.MimeType, "video/")
		})
		albums = append(albums, models.Album{
			Id:         a.Id,
			Name:       name,
			PhotoCount: len(photos),
			VideoCount: videoCount,
			TotalItems: len(photos) + videoCount,
			Photos: lo.Map(photos, func(it mediaItem, _ int) models.ImageRef {
				return models.ImageRef{Id: it.Id, Url: it.BaseUrl}
			}),
		})
	}

	c.mu.Lock()
	c.albums = albums
	c.mu.Unlock()
	zap.S().Infof("源端相册目录刷新完成，共 %d 个相册", len(albums))
	return append([]models.Album{}, albums...), nil
}

// Albums 返回上次刷新的快照拷贝
func (c *Catalog) Albums() []models.Album {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Album{}, c.albums...)
}

func (c *Catalog) listAlbums(ctx context.Context, tk string) ([]albumInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"/albums", nil)
	if err != nil {
		return nil, &FetchError{Kind: FetchTransport, Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+tk)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: FetchTransport, Message: err.Error()}
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, classifyStatus(res)
	}

	var payload albumsResp
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, &FetchError{Kind: FetchServer, Message: fmt.Sprintf("响应解析失败: %v", err)}
	}
	return payload.Albums, nil
}

func (c *Catalog) searchItems(ctx context.Context, tk, albumId string) ([]mediaItem, error) {
	body, _ := json.Marshal(searchReq{AlbumId: albumId, PageSize: c.cfg.PageSize})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+"/mediaItems:search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tk)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, classifyStatus(res)
	}

	var payload searchResp
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return payload.MediaItems, nil
}

// classifyStatus 非 2xx 响应的粗分类，响应体作为诊断信息
func classifyStatus(res *http.Response) *FetchError {
	diag, _ := io.ReadAll(io.LimitReader(res.Body, 512))
	kind := FetchServer
	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		kind = FetchAuth
	}
	return &FetchError{Kind: kind, Status: res.StatusCode, Message: string(diag)}
}
