package server

import "time"

// 操作接口的请求/响应结构体

type SetTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type SelectSiteRequest struct {
	SiteId string `json:"siteId" binding:"required"`
}

type UpdateMappingRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

type ScheduleRequest struct {
	AutoSync      *bool  `json:"autoSync,omitempty"`
	SyncFrequency string `json:"syncFrequency,omitempty"`
}

// StatusResponse 服务状态概览
type StatusResponse struct {
	Version         string     `json:"version"`
	SourceConnected bool       `json:"sourceConnected"` // 源端凭证是否已设置
	SelectedSiteId  string     `json:"selectedSiteId"`  // 当前选中的目标站点
	AutoSync        bool       `json:"autoSync"`
	SyncFrequency   string     `json:"syncFrequency"`
	LastSync        *time.Time `json:"lastSync"`
	Running         bool       `json:"running"` // 是否有执行在进行中
}
