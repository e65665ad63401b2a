package server

import (
	"os"
	"path/filepath"
	"strings"

	"albumsync/pkg/db"
	"albumsync/pkg/dest"
	"albumsync/pkg/nsc"
	"albumsync/pkg/source"
	"albumsync/pkg/util"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	ClientName string          `json:"client_name" yaml:"client_name"`
	Port       int             `json:"port,omitempty" yaml:"port,omitempty"`
	DataDir    string          `json:"dataDir,omitempty" yaml:"dataDir,omitempty"` // 本地存储目录
	Source     *source.Config  `json:"source" yaml:"source"`
	Dest       *dest.Config    `json:"dest" yaml:"dest"`
	Nats       *nsc.NatsConfig `json:"nats,omitempty" yaml:"nats,omitempty"` // 可选：执行结果事件
	DB         *db.Config      `json:"db,omitempty" yaml:"db,omitempty"`     // 可选：日志归档库
}

func (g *Config) Validate() []error {
	var errs = make([]error, 0)
	if err := util.IsValidPort(g.Port); err != nil {
		errs = append(errs, err)
	}
	if g.Source == nil {
		errs = append(errs, errors.New("缺少 source 配置"))
	} else if es := g.Source.Validate(); len(es) > 0 {
		errs = append(errs, es...)
	}
	if g.Dest == nil {
		errs = append(errs, errors.New("缺少 dest 配置"))
	} else if es := g.Dest.Validate(); len(es) > 0 {
		errs = append(errs, es...)
	}
	if g.DB != nil {
		if es := g.DB.Validate(); len(es) > 0 {
			errs = append(errs, es...)
		}
	}
	return errs
}

func NewDefaultConfig() *Config {
	return &Config{
		Port:   3000,
		Source: source.NewDefaultConfig(),
		Dest:   dest.NewDefaultConfig(),
	}
}

func TryLoadFromDisk(configFilePath string) (*Config, error) {
	_, err := os.Stat(configFilePath)
	if err != nil {
		return nil, err
	}
	dir, file := filepath.Split(configFilePath)
	fileType := filepath.Ext(file)
	viper.Reset()
	viper.AddConfigPath(dir)
	viper.SetConfigName(strings.TrimSuffix(file, fileType))
	viper.SetConfigType(strings.TrimPrefix(fileType, "."))
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}
	cfg := NewDefaultConfig()
	if err := viper.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = strings.TrimPrefix(fileType, ".")
	}); err != nil {
		return nil, err
	}
	return cfg, nil
}
