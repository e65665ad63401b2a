package nsc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"albumsync/pkg/models"
	"albumsync/pkg/util"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/nats-io/nkeys"
	"go.uber.org/zap"
)

var (
	singleton *NatsPubClient
	once      sync.Once
)

// NatsPubClient 同步结果事件发布端：每轮执行结束把日志条目发到约定主题，
// 供下游消费者（通知、统计等）使用。
type NatsPubClient struct {
	clientName string
	cfg        *NatsConfig
	nc         *nats.Conn
	mutex      sync.RWMutex
}

func InitNats(clientName string, config *NatsConfig) error {
	zap.S().Info("***初始化NATS")
	var hasError error
	once.Do(func() {
		client := &NatsPubClient{
			clientName: clientName,
			cfg:        config,
			nc:         nil,
		}
		defaultAccount, err := config.GetDefaultAccount()
		if err != nil {
			hasError = err
			return
		}
		if err := client.Connect(defaultAccount); err != nil {
			hasError = err
			return
		}
		if err := client.streamMustReady(); err != nil {
			hasError = err
			return
		}
		singleton = client
	})
	return hasError
}

func (nsc *NatsPubClient) Connect(account *NatsAccount) error {
	if nsc.nc != nil {
		return nil
	}
	opt := nats.GetDefaultOptions()
	opt.Name = fmt.Sprintf("%s %s", util.GetVersion().AppName, util.GetVersion().Version)
	opt.User = account.UserName
	opt.Password = account.Password
	opt.Nkey = account.NKey
	opt.Url = nsc.cfg.Endpoint
	opt.NoCallbacksAfterClientClose = true
	opt.ReconnectWait = 2 * time.Second //重试等待2s
	opt.MaxReconnect = -1               //永远重试
	opt.AllowReconnect = true
	opt.ReconnectJitter = 500 * time.Millisecond
	opt.DisconnectedErrCB = func(conn *nats.Conn, err error) {
		zap.S().Debugf("*** 断开连接...%s ***", err.Error())
	}
	opt.ReconnectedCB = func(conn *nats.Conn) {
		zap.S().Debugf("*** 已重连 ***")
	}
	opt.ConnectedCB = func(conn *nats.Conn) {
		zap.S().Debugf("*** NATS 已连接 ***")
	}

	opt.SignatureCB = func(b []byte) ([]byte, error) {
		sk, err := nkeys.FromSeed(util.StringToBytes(account.Seed))
		if err != nil {
			return nil, err
		}
		return sk.Sign(b)
	}

	nc, err := opt.Connect()
	if err != nil {
		return err
	}
	nsc.nc = nc
	return nil
}

// streamMustReady 确认stream存在，如果存在，绑定的主题需要追加
func (nsc *NatsPubClient) streamMustReady() error {
	js, err := jetstream.New(nsc.nc)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	stream, err := js.Stream(ctx, nsc.cfg.StreamName)
	zap.S().Infof("*** check stream %s. ***", nsc.cfg.StreamName)
	if err != nil && !errors.Is(err, jetstream.ErrStreamNotFound) {
		return err
	}
	var subjects = []string{nsc.cfg.SubjectName}
	if err == nil {
		si, err := stream.Info(ctx)
		if err != nil {
			return err
		}
		for _, sub := range si.Config.Subjects {
			if sub != nsc.cfg.SubjectName {
				subjects = append(subjects, sub)
			}
		}
	}
	zap.S().Infof("*** make sure stream %s and subject ready. ***", nsc.cfg.StreamName)
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     nsc.cfg.StreamName,
		Subjects: subjects,
	})
	return err
}

// PublishSyncResult 把一轮执行的汇总结果发布到约定主题
func (nsc *NatsPubClient) PublishSyncResult(entry models.SyncLogEntry) error {
	nsc.mutex.RLock()
	defer nsc.mutex.RUnlock()
	if nsc.nc == nil {
		return errors.New("NATS 连接不可用")
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	js, err := jetstream.New(nsc.nc)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := js.Publish(ctx, nsc.cfg.SubjectName, data); err != nil {
		return err
	}
	zap.S().Debugf("同步结果已发布到 %s", nsc.cfg.SubjectName)
	return nil
}

func (nsc *NatsPubClient) Close() {
	if nsc.nc != nil {
		_ = nsc.nc.Drain()
		nsc.nc.Close()
		zap.S().Debugf("*** NATS 已经关闭 ***")
	}
}

func GetNatsClient() *NatsPubClient {
	if singleton == nil {
		zap.S().Fatal("无法使用nats，请先初始化nats")
	}
	return singleton
}

func (nsc *NatsPubClient) GetNatsConn() *nats.Conn {
	return nsc.nc
}
