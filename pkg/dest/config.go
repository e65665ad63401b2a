package dest

import (
	"github.com/pkg/errors"
)

type Config struct {
	Endpoint       string `json:"endpoint" yaml:"endpoint"`                                 // 目标端 API 地址
	Token          string `json:"token" yaml:"token"`                                       // 目标端 API 凭证
	TimeoutSeconds int    `json:"timeoutSeconds,omitempty" yaml:"timeoutSeconds,omitempty"` // 单次调用超时
}

func NewDefaultConfig() *Config {
	return &Config{
		Endpoint:       "https://api.webflow.com/v2",
		TimeoutSeconds: 15,
	}
}

func (c *Config) Validate() []error {
	var errs = make([]error, 0)
	if c.Endpoint == "" {
		errs = append(errs, errors.New("缺少目标端 API 地址"))
	}
	if c.Token == "" {
		errs = append(errs, errors.New("缺少目标端 API 凭证"))
	}
	if c.TimeoutSeconds <= 0 {
		errs = append(errs, errors.Errorf("%d 不是合法的超时秒数", c.TimeoutSeconds))
	}
	return errs
}
