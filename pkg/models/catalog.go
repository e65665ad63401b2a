package models

// ImageRef 一条图片引用（推送到目标字段的最小单位）
type ImageRef struct {
	Id  string `json:"id"`
	Url string `json:"url"`
}

// Album 相册快照（每次刷新重新计算，不落盘）
type Album struct {
	Id         string     `json:"id"`         // 源端分配的相册ID
	Name       string     `json:"name"`       // 相册名称
	PhotoCount int        `json:"photoCount"` // 检索页内照片数量
	VideoCount int        `json:"videoCount"` // 检索页内视频数量
	TotalItems int        `json:"totalItems"` // photoCount + videoCount
	Photos     []ImageRef `json:"photos,omitempty"`
}

// Site 目标系统站点
type Site struct {
	Id   string `json:"id"`
	Name string `json:"displayName"`
}

// Collection 目标系统集合，只有 multiImageFields 非空的集合才会被暴露
type Collection struct {
	Id               string   `json:"id"`
	Name             string   `json:"name"`
	MultiImageFields []string `json:"multiImageFields"`
}

// CollectionItem 集合条目
type CollectionItem struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}
