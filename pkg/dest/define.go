package dest

// 目标端（headless CMS）API 报文结构

type sitesResp struct {
	Sites []siteInfo `json:"sites"`
}

type siteInfo struct {
	Id          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type collectionsResp struct {
	Collections []collectionInfo `json:"collections"`
}

type collectionInfo struct {
	Id          string `json:"id"`
	DisplayName string `json:"displayName"`
	Slug        string `json:"slug"`
}

type collectionDetailResp struct {
	Id          string      `json:"id"`
	DisplayName string      `json:"displayName"`
	Fields      []fieldInfo `json:"fields"`
}

type fieldInfo struct {
	Id          string `json:"id"`
	Type        string `json:"type"`
	Slug        string `json:"slug"`
	DisplayName string `json:"displayName"`
}

// 多图字段的字段类型标识
const fieldTypeMultiImage = "MultiImage"

type itemsResp struct {
	Items []itemInfo `json:"items"`
}

type itemInfo struct {
	Id        string                 `json:"id"`
	FieldData map[string]interface{} `json:"fieldData"`
}

// imageField 写入多图字段的单条引用
type imageField struct {
	Url string `json:"url"`
}

// itemWriteReq 条目写入请求，isDraft 恒为 true：同步产生的内容一律不自动发布
type itemWriteReq struct {
	IsDraft   bool                   `json:"isDraft"`
	FieldData map[string]interface{} `json:"fieldData"`
}
