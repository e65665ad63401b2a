package source

import "fmt"

// FetchErrorKind 目录拉取失败的粗分类
type FetchErrorKind string

const (
	FetchTransport FetchErrorKind = "transport" // 网络不可达、超时、CORS 等
	FetchAuth      FetchErrorKind = "auth"      // 凭证无效或过期（401/403）
	FetchServer    FetchErrorKind = "server"    // 其余非 2xx 响应
)

// FetchError 相册列表整体拉取失败时向调用方暴露的错误。
// 引擎把它当作"目录不可用"处理，占位/演示数据策略由展示层自行决定。
type FetchError struct {
	Kind    FetchErrorKind
	Status  int
	Message string
}

func (e *FetchError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("源端目录拉取失败[%s] %d: %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("源端目录拉取失败[%s]: %s", e.Kind, e.Message)
}

// 源端 API 报文结构
type albumsResp struct {
	Albums []albumInfo `json:"albums"`
}

type albumInfo struct {
	Id    string `json:"id"`
	Title string `json:"title"`
}

type searchReq struct {
	AlbumId  string `json:"albumId"`
	PageSize int    `json:"pageSize"`
}

type searchResp struct {
	MediaItems []mediaItem `json:"mediaItems"`
}

type mediaItem struct {
	Id       string `json:"id"`
	MimeType string `json:"mimeType"`
	BaseUrl  string `json:"baseUrl"`
}
