package dest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"albumsync/pkg/models"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) Upsert(key string, value interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.data[key] = b
	return nil
}

func (s *memStore) Get(key string, value interface{}) error {
	b, ok := s.data[key]
	if !ok {
		return errors.New("not found")
	}
	return json.Unmarshal(b, value)
}

func (s *memStore) Exists(key string, dataType interface{}) bool {
	_, ok := s.data[key]
	return ok
}

func newTestCatalog(endpoint string, store Store) *Catalog {
	cfg := NewDefaultConfig()
	cfg.Endpoint = endpoint
	cfg.Token = "wf-token"
	return NewCatalog(cfg, store)
}

// cmsFixture 假目标端：一个站点、两个集合（只有 C1 含多图字段）
func cmsFixture(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer wf-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/sites":
			_ = json.NewEncoder(w).Encode(sitesResp{Sites: []siteInfo{
				{Id: "S1", DisplayName: "Portfolio"},
				{Id: "S2", DisplayName: "Blog"},
			}})
		case "/sites/S1/collections":
			_ = json.NewEncoder(w).Encode(collectionsResp{Collections: []collectionInfo{
				{Id: "C1", DisplayName: "Properties"},
				{Id: "C2", DisplayName: "Posts"},
			}})
		case "/collections/C1":
			_ = json.NewEncoder(w).Encode(collectionDetailResp{Id: "C1", Fields: []fieldInfo{
				{Id: "f1", Type: "PlainText", Slug: "name"},
				{Id: "f2", Type: fieldTypeMultiImage, Slug: "gallery"},
			}})
		case "/collections/C2":
			_ = json.NewEncoder(w).Encode(collectionDetailResp{Id: "C2", Fields: []fieldInfo{
				{Id: "f1", Type: "PlainText", Slug: "name"},
				{Id: "f3", Type: "RichText", Slug: "body"},
			}})
		case "/collections/C1/items":
			_ = json.NewEncoder(w).Encode(itemsResp{Items: []itemInfo{
				{Id: "I1", FieldData: map[string]interface{}{"name": "Villa"}},
				{Id: "I2", FieldData: map[string]interface{}{"slug": "no-name"}},
			}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestListSites(t *testing.T) {
	srv := cmsFixture(t)
	defer srv.Close()

	c := newTestCatalog(srv.URL, newMemStore())
	sites, err := c.ListSites(context.Background())
	require.NoError(t, err)
	require.Len(t, sites, 2)
	assert.Equal(t, "Portfolio", sites[0].Name)
}

func TestListCollectionsKeepsOnlyMultiImage(t *testing.T) {
	srv := cmsFixture(t)
	defer srv.Close()

	c := newTestCatalog(srv.URL, newMemStore())
	collections, err := c.ListCollections(context.Background(), "S1")
	require.NoError(t, err)

	// 不含多图字段的集合被过滤掉
	require.Len(t, collections, 1)
	assert.Equal(t, "C1", collections[0].Id)
	assert.Equal(t, []string{"gallery"}, collections[0].MultiImageFields)
}

func TestListItemsExtractsName(t *testing.T) {
	srv := cmsFixture(t)
	defer srv.Close()

	c := newTestCatalog(srv.URL, newMemStore())
	items, err := c.ListItems(context.Background(), "C1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Villa", items[0].Name)
	assert.Empty(t, items[1].Name)
}

func TestSelectSitePersistsAcrossRestarts(t *testing.T) {
	store := newMemStore()

	c1 := newTestCatalog("http://127.0.0.1:0", store)
	require.NoError(t, c1.SelectSite("S1"))
	assert.Equal(t, "S1", c1.SelectedSite())

	c2 := newTestCatalog("http://127.0.0.1:0", store)
	assert.Equal(t, "S1", c2.SelectedSite())
}

func TestCollectionsRequiresSelectedSite(t *testing.T) {
	c := newTestCatalog("http://127.0.0.1:0", newMemStore())
	_, err := c.Collections(context.Background())
	assert.Error(t, err)
}

func TestCollectionsUsesSelectedSite(t *testing.T) {
	srv := cmsFixture(t)
	defer srv.Close()

	c := newTestCatalog(srv.URL, newMemStore())
	require.NoError(t, c.SelectSite("S1"))

	collections, err := c.Collections(context.Background())
	require.NoError(t, err)
	require.Len(t, collections, 1)
	assert.Equal(t, "C1", collections[0].Id)
}

func TestPushImagesPatchesExistingItem(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody itemWriteReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestCatalog(srv.URL, newMemStore())
	images := []models.ImageRef{
		{Id: "p1", Url: "https://cdn.example/p1"},
		{Id: "p2", Url: "https://cdn.example/p2"},
	}
	count, err := c.PushImages(context.Background(), "C1", "I1", "gallery", images)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/collections/C1/items/I1", gotPath)
	// 写入一律是草稿，字段数据是 url 引用列表
	assert.True(t, gotBody.IsDraft)
	refs, ok := gotBody.FieldData["gallery"].([]interface{})
	require.True(t, ok)
	urls := lo.Map(refs, func(v interface{}, _ int) string {
		m, _ := v.(map[string]interface{})
		u, _ := m["url"].(string)
		return u
	})
	assert.Equal(t, []string{"https://cdn.example/p1", "https://cdn.example/p2"}, urls)
}

func TestPushImagesCreatesDraftWhenNoItem(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody itemWriteReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := newTestCatalog(srv.URL, newMemStore())
	count, err := c.PushImages(context.Background(), "C1", "", "gallery",
		[]models.ImageRef{{Id: "p1", Url: "https://cdn.example/p1"}})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/collections/C1/items", gotPath)
	assert.True(t, gotBody.IsDraft)
}

func TestPushImagesSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "validation failed", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestCatalog(srv.URL, newMemStore())
	count, err := c.PushImages(context.Background(), "C1", "I1", "gallery",
		[]models.ImageRef{{Id: "p1", Url: "https://cdn.example/p1"}})
	assert.Error(t, err)
	assert.Zero(t, count)
}

func TestSelectSiteInvalidatesCaches(t *testing.T) {
	srv := cmsFixture(t)
	defer srv.Close()

	c := newTestCatalog(srv.URL, newMemStore())
	require.NoError(t, c.SelectSite("S1"))
	_, err := c.Collections(context.Background())
	require.NoError(t, err)
	_, err = c.ListItems(context.Background(), "C1")
	require.NoError(t, err)

	require.NoError(t, c.SelectSite("S2"))
	// 旧站点的集合缓存被丢弃，Collections 重新按新站点拉取（S2 无集合端点 → 404）
	_, err = c.Collections(context.Background())
	assert.Error(t, err)
}
