package source

import (
	"github.com/pkg/errors"
)

type Config struct {
	Endpoint       string `json:"endpoint" yaml:"endpoint"`                             // 源端 API 地址
	TimeoutSeconds int    `json:"timeoutSeconds,omitempty" yaml:"timeoutSeconds,omitempty"` // 单次调用超时
	MaxAlbums      int    `json:"maxAlbums,omitempty" yaml:"maxAlbums,omitempty"`       // 相册列表上限
	PageSize       int    `json:"pageSize,omitempty" yaml:"pageSize,omitempty"`         // 条目检索页大小
}

func NewDefaultConfig() *Config {
	return &Config{
		Endpoint:       "https://photoslibrary.googleapis.com/v1",
		TimeoutSeconds: 15,
		MaxAlbums:      10,
		PageSize:       50,
	}
}

func (c *Config) Validate() []error {
	var errs = make([]error, 0)
	if c.Endpoint == "" {
		errs = append(errs, errors.New("缺少源端 API 地址"))
	}
	if c.TimeoutSeconds <= 0 {
		errs = append(errs, errors.Errorf("%d 不是合法的超时秒数", c.TimeoutSeconds))
	}
	return errs
}
