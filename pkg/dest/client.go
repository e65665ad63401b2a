package dest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"albumsync/pkg/models"

	"github.com/samber/lo"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// 选中的站点与设置聚合体分开持久化
const siteKey = "selectedSiteId"

// Store 站点选择持久化的最小接口，由 pkg/store 的 BadgerStore 实现
type Store interface {
	Get(key string, value interface{}) error
	Upsert(key string, value interface{}) error
	Exists(key string, dataType interface{}) bool
}

// Catalog 目标端目录：站点、集合（仅保留含多图字段的）、条目，
// 以及引擎的唯一写入路径 PushImages。
type Catalog struct {
	cfg    *Config
	client *http.Client
	store  Store

	mu          sync.RWMutex
	siteId      string
	collections []models.Collection
	items       map[string][]models.CollectionItem
}

func NewCatalog(cfg *Config, store Store) *Catalog {
	c := &Catalog{
		cfg:    cfg,
		store:  store,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		items:  make(map[string][]models.CollectionItem),
	}
	if store != nil && store.Exists(siteKey, new(string)) {
		var saved string
		if err := store.Get(siteKey, &saved); err == nil && saved != "" {
			c.siteId = saved
			zap.S().Infof("已从本地恢复选中站点: %s", saved)
		}
	}
	return c
}

// ListSites 列出目标端全部站点
func (c *Catalog) ListSites(ctx context.Context) ([]models.Site, error) {
	var payload sitesResp
	if err := c.getJSON(ctx, "/sites", &payload); err != nil {
		return nil, err
	}
	return lo.Map(payload.Sites, func(s siteInfo, _ int) models.Site {
		return models.Site{Id: s.Id, Name: s.DisplayName}
	}), nil
}

// SelectSite 切换站点：持久化选择并丢弃旧站点的集合/条目缓存
func (c *Catalog) SelectSite(siteId string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store != nil {
		if err := c.store.Upsert(siteKey, siteId); err != nil {
			return fmt.Errorf("保存站点选择失败: %w", err)
		}
	}
	c.siteId = siteId
	c.collections = nil
	c.items = make(map[string][]models.CollectionItem)
	return nil
}

// SelectedSite 当前选中的站点，可能为空
func (c *Catalog) SelectedSite() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.siteId
}

// ListCollections 拉取站点下的集合并过滤：只暴露含至少一个多图字段的集合
func (c *Catalog) ListCollections(ctx context.Context, siteId string) ([]models.Collection, error) {
	var payload collectionsResp
	if err := c.getJSON(ctx, "/sites/"+siteId+"/collections", &payload); err != nil {
		return nil, err
	}

	collections := make([]models.Collection, 0, len(payload.Collections))
	for _, ci := range payload.Collections {
		var detail collectionDetailResp
		if err := c.getJSON(ctx, "/collections/"+ci.Id, &detail); err != nil {
			zap.S().Warnf("集合 %s 字段结构拉取失败，跳过: %v", ci.DisplayName, err)
			continue
		}
		multiImage := lo.FilterMap(detail.Fields, func(f fieldInfo, _ int) (string, bool) {
			return f.Slug, f.Type == fieldTypeMultiImage
		})
		if len(multiImage) == 0 {
			continue
		}
		collections = append(collections, models.Collection{
			Id:               ci.Id,
			Name:             ci.DisplayName,
			MultiImageFields: multiImage,
		})
	}

	c.mu.Lock()
	if siteId == c.siteId {
		c.collections = collections
	}
	c.mu.Unlock()
	zap.S().Infof("站点 %s 下共 %d 个含多图字段的集合", siteId, len(collections))
	return collections, nil
}

// Collections 刷新当前选中站点的集合快照，未选中站点时报错
func (c *Catalog) Collections(ctx context.Context) ([]models.Collection, error) {
	siteId := c.SelectedSite()
	if siteId == "" {
		return nil, fmt.Errorf("尚未选择目标站点")
	}
	return c.ListCollections(ctx, siteId)
}

// ListItems 拉取集合下的条目
func (c *Catalog) ListItems(ctx context.Context, collectionId string) ([]models.CollectionItem, error) {
	var payload itemsResp
	if err := c.getJSON(ctx, "/collections/"+collectionId+"/items", &payload); err != nil {
		return nil, err
	}
	items := lo.Map(payload.Items, func(it itemInfo, _ int) models.CollectionItem {
		return models.CollectionItem{Id: it.Id, Name: cast.ToString(it.FieldData["name"])}
	})

	c.mu.Lock()
	c.items[collectionId] = items
	c.mu.Unlock()
	return items, nil
}

// PushImages 把图片引用写入条目的多图字段，一律以草稿方式写入（不自动发布）。
// itemId 为空时在集合下新建一个草稿条目。返回实际写入的引用数量。
func (c *Catalog) PushImages(ctx context.Context, collectionId, itemId, fieldId string, images []models.ImageRef) (int, error) {
	body := itemWriteReq{
		IsDraft: true,
		FieldData: map[string]interface{}{
			fieldId: lo.Map(images, func(ref models.ImageRef, _ int) imageField {
				return imageField{Url: ref.Url}
			}),
		},
	}

	method := http.MethodPatch
	path := "/collections/" + collectionId + "/items/" + itemId
	if itemId == "" {
		method = http.MethodPost
		path = "/collections/" + collectionId + "/items"
	}
	if err := c.writeJSON(ctx, method, path, body); err != nil {
		return 0, err
	}
	return len(images), nil
}

func (c *Catalog) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		diag, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("目标端 API 错误 %d: %s", res.StatusCode, string(diag))
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func (c *Catalog) writeJSON(ctx context.Context, method, path string, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.Endpoint+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		diag, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("目标端 API 错误 %d: %s", res.StatusCode, string(diag))
	}
	return nil
}
