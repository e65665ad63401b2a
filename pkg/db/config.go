package db

import (
	"fmt"

	"github.com/pkg/errors"
)

type Config struct {
	Driver          string `json:"driver" yaml:"driver"` // mysql / postgres
	Host            string `json:"host" yaml:"host"`
	Port            int    `json:"port" yaml:"port"`
	Username        string `json:"username" yaml:"username"`
	Password        string `json:"password" yaml:"password"`
	Database        string `json:"database" yaml:"database"`
	MaxIdleConns    int    `json:"maxIdleConns,omitempty" yaml:"maxIdleConns,omitempty"`
	MaxOpenConns    int    `json:"maxOpenConns,omitempty" yaml:"maxOpenConns,omitempty"`
	ConnMaxLifetime int    `json:"connMaxLifetime,omitempty" yaml:"connMaxLifetime,omitempty"`
	Debug           bool   `json:"debug" yaml:"debug"`
	Schema          string `json:"schema" yaml:"schema"`
}

func (t *Config) Validate() []error {
	var errs = make([]error, 0)
	if t.Username == "" || t.Password == "" {
		errs = append(errs, errors.Errorf("连接的数据库用户名或密码为空"))
	}
	if t.Database == "" {
		errs = append(errs, errors.Errorf("没有指定需要连接的数据库名称"))
	}
	return errs
}

func NewDefaultDBConfig() *Config {
	return &Config{
		Driver:          "mysql",
		Host:            "127.0.0.1",
		Port:            3306,
		Username:        "",
		Password:        "",
		Database:        "",
		MaxIdleConns:    5,
		MaxOpenConns:    20,
		ConnMaxLifetime: 3600, // 1小时
	}
}

func (t *Config) DSN() string {
	if t.Driver == "postgres" {
		return fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%d sslmode=disable search_path=%s",
			t.Host,
			t.Username,
			t.Password,
			t.Database,
			t.Port,
			t.Schema,
		)
	}
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		t.Username,
		t.Password,
		t.Host,
		t.Port,
		t.Database,
	)
}
