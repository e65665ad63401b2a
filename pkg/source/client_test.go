package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"albumsync/pkg/token"

	"github.com/pkg/errors"
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

func (s *memStore) Delete(key string, dataType interface{}) error {
	delete(s.data, key)
	return nil
}

func (s *memStore) Exists(key string, dataType interface{}) bool {
	_, ok := s.data[key]
	return ok
}

func connectedTokens(t *testing.T) *token.TokenStore {
	t.Helper()
	ts := token.NewTokenStore(newMemStore())
	require.NoError(t, ts.Set("test-token"))
	return ts
}

func newTestCatalog(endpoint string, tokens *token.TokenStore) *Catalog {
	cfg := NewDefaultConfig()
	cfg.Endpoint = endpoint
	return NewCatalog(cfg, tokens)
}

// mediaFixture 构造 albums/mediaItems:search 两个端点的假源端。
// perAlbum 给出每个相册返回的条目 mime 类型。
func mediaFixture(t *testing.T, titles map[string]string, perAlbum map[string][]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/albums":
			resp := albumsResp{}
			for id, title := range titles {
				resp.Albums = append(resp.Albums, albumInfo{Id: id, Title: title})
			}
			_ = json.NewEncoder(w).Encode(resp)
		case "/mediaItems:search":
			var req searchReq
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, 50, req.PageSize)
			resp := searchResp{}
			for i, mime := range perAlbum[req.AlbumId] {
				resp.MediaItems = append(resp.MediaItems, mediaItem{
					Id:       fmt.Sprintf("%s-%d", req.AlbumId, i),
					MimeType: mime,
					BaseUrl:  fmt.Sprintf("https://cdn.example/%s/%d", req.AlbumId, i),
				})
			}
			_ = json.NewEncoder(w).Encode(resp)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestRefreshClassifiesMedia(t *testing.T) {
	srv := mediaFixture(t,
		map[string]string{"A1": "Summer"},
		map[string][]string{"A1": {"image/jpeg", "image/png", "video/mp4", "image/gif", "video/quicktime"}},
	)
	defer srv.Close()

	c := newTestCatalog(srv.URL, connectedTokens(t))
	albums, err := c.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, albums, 1)

	a := albums[0]
	assert.Equal(t, "Summer", a.Name)
	assert.Equal(t, 3, a.PhotoCount)
	assert.Equal(t, 2, a.VideoCount)
	assert.Equal(t, 5, a.TotalItems)
	// 照片引用只含 image/*，视频不会出现在引用列表里
	require.Len(t, a.Photos, 3)
	for _, ref := range a.Photos {
		assert.NotEmpty(t, ref.Id)
		assert.NotEmpty(t, ref.Url)
	}
}

func TestRefreshCapsAlbumCount(t *testing.T) {
	titles := make(map[string]string)
	items := make(map[string][]string)
	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("A%d", i)
		titles[id] = id
		items[id] = []string{"image/jpeg"}
	}
	srv := mediaFixture(t, titles, items)
	defer srv.Close()

	c := newTestCatalog(srv.URL, connectedTokens(t))
	albums, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, albums, 10)
}

func TestRefreshUntitledAlbumFallback(t *testing.T) {
	srv := mediaFixture(t,
		map[string]string{"A1": ""},
		map[string][]string{"A1": {"image/jpeg"}},
	)
	defer srv.Close()

	c := newTestCatalog(srv.URL, connectedTokens(t))
	albums, err := c.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, albums, 1)
	assert.Equal(t, "Untitled Album", albums[0].Name)
}

func TestRefreshDegradesPerAlbumFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/albums":
			_ = json.NewEncoder(w).Encode(albumsResp{Albums: []albumInfo{
				{Id: "ok", Title: "OK"},
				{Id: "bad", Title: "Bad"},
			}})
		case "/mediaItems:search":
			var req searchReq
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.AlbumId == "bad" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_ = json.NewEncoder(w).Encode(searchResp{MediaItems: []mediaItem{
				{Id: "p1", MimeType: "image/jpeg", BaseUrl: "https://cdn.example/p1"},
			}})
		}
	}))
	defer srv.Close()

	c := newTestCatalog(srv.URL, connectedTokens(t))
	albums, err := c.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, albums, 2)

	assert.Equal(t, 1, albums[0].PhotoCount)
	// 失败的相册降级为零计数占位，不中断整体刷新
	assert.Equal(t, "Bad", albums[1].Name)
	assert.Zero(t, albums[1].PhotoCount)
	assert.Zero(t, albums[1].TotalItems)
}

func TestRefreshWithoutTokenIsAuthError(t *testing.T) {
	c := newTestCatalog("http://127.0.0.1:0", token.NewTokenStore(newMemStore()))

	_, err := c.Refresh(context.Background())
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, FetchAuth, fe.Kind)
}

func TestRefreshClassifiesStatusCodes(t *testing.T) {
	cases := []struct {
		status int
		kind   FetchErrorKind
	}{
		{http.StatusUnauthorized, FetchAuth},
		{http.StatusForbidden, FetchAuth},
		{http.StatusInternalServerError, FetchServer},
		{http.StatusTooManyRequests, FetchServer},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tc.status)
		}))
		c := newTestCatalog(srv.URL, connectedTokens(t))

		_, err := c.Refresh(context.Background())
		var fe *FetchError
		require.ErrorAs(t, err, &fe, "status %d", tc.status)
		assert.Equal(t, tc.kind, fe.Kind)
		assert.Equal(t, tc.status, fe.Status)
		srv.Close()
	}
}

func TestRefreshTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // 立刻关掉，制造连接失败

	c := newTestCatalog(srv.URL, connectedTokens(t))
	_, err := c.Refresh(context.Background())
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, FetchTransport, fe.Kind)
}

func TestAlbumsReturnsCachedSnapshot(t *testing.T) {
	srv := mediaFixture(t,
		map[string]string{"A1": "Summer"},
		map[string][]string{"A1": {"image/jpeg"}},
	)
	defer srv.Close()

	c := newTestCatalog(srv.URL, connectedTokens(t))
	assert.Empty(t, c.Albums())

	_, err := c.Refresh(context.Background())
	require.NoError(t, err)
	cached := c.Albums()
	require.Len(t, cached, 1)
	assert.Equal(t, "Summer", cached[0].Name)
}
