package cmd

import (
	"context"
	stderrors "errors"

	"albumsync/pkg/archive"
	"albumsync/pkg/db"
	"albumsync/pkg/dest"
	"albumsync/pkg/engine"
	"albumsync/pkg/mapping"
	"albumsync/pkg/nsc"
	"albumsync/pkg/scheduler"
	"albumsync/pkg/server"
	"albumsync/pkg/settings"
	"albumsync/pkg/signals"
	"albumsync/pkg/source"
	"albumsync/pkg/store"
	"albumsync/pkg/token"
	"albumsync/pkg/util"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func NewServerCommand() *cobra.Command {
	var configFilePath string
	cmd := &cobra.Command{
		Use:   "server",
		Short: "启动同步服务（HTTP 操作接口 + 定时调度）",
		Run: func(cmd *cobra.Command, args []string) {
			if configFilePath == "" {
				configFilePath = "./etc/config.yaml"
			}

			cfg, err := server.TryLoadFromDisk(configFilePath)
			if err != nil {
				zap.S().Errorf("配置文件加载错误:%s", err.Error())
				return
			}
			if errs := cfg.Validate(); len(errs) > 0 {
				zap.S().Errorf("配置文件验证错误:%s", stderrors.Join(errs...))
				return
			}
			ctx := signals.SetupSignalHandler()
			_ = startServer(cfg, ctx)
		},
	}
	cmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", "", "配置文件路径")
	return cmd
}

func startServer(cfg *server.Config, ctx context.Context) error {
	zap.S().Infof("***  %s %s ***", util.AppName, util.GetVersion().Version)
	zap.S().Infof("*** 客户ID:%s ***", cfg.ClientName)

	//初始化本地存储
	if err := store.InitBadgerStore(cfg.DataDir); err != nil {
		zap.S().Fatalf("无法打开本地存储。%s", err.Error())
	}
	badgerStore := store.GetBadgerStore()

	//加载持久化的同步设置
	settingsMgr := settings.NewManager(badgerStore)
	if err := settingsMgr.Load(); err != nil {
		zap.S().Fatalf("加载同步设置失败。%s", err.Error())
	}
	if last := settingsMgr.LastSync(); last != nil {
		zap.S().Infof("上次同步时间: %s", util.FormatTimePtr(last))
	}

	//装配各组件
	tokens := token.NewTokenStore(badgerStore)
	src := source.NewCatalog(cfg.Source, tokens)
	dst := dest.NewCatalog(cfg.Dest, badgerStore)
	mappings := mapping.NewStore(settingsMgr)
	eng := engine.NewEngine(settingsMgr, mappings, src, dst)

	//可选：初始化nats，发布执行结果事件
	natsEnabled := false
	if cfg.Nats != nil {
		if err := cfg.Nats.Validate(); err != nil {
			zap.S().Fatalf("nats 配置错误。%s", err.Error())
		}
		if err := nsc.InitNats(cfg.ClientName, cfg.Nats); err != nil {
			zap.S().Fatal(err)
		}
		eng.SetPublisher(nsc.GetNatsClient())
		natsEnabled = true
	}

	//可选：初始化归档库
	var arc *archive.Service
	if cfg.DB != nil {
		if err := db.InitDB(cfg.DB); err != nil {
			zap.S().Fatalf("无法连接数据库。%s", err.Error())
		}
		var err error
		arc, err = archive.NewService(db.GetDB())
		if err != nil {
			zap.S().Fatalf("初始化日志归档失败。%s", err.Error())
		}
		eng.SetArchive(arc)
	}

	//按持久化的开关状态恢复调度
	sch := scheduler.NewScheduler(settingsMgr, eng)
	if err := sch.Start(); err != nil {
		return errors.Wrap(err, "启动调度器失败")
	}

	//启动web服务
	handler := server.NewHandler(cfg, tokens, src, dst, settingsMgr, mappings, eng, sch, arc)
	webServer := server.NewServer(cfg, handler)

	g, c := errgroup.WithContext(ctx)
	g.Go(func() error {
		return webServer.Run()
	})
	g.Go(func() error {
		<-c.Done()
		sch.Stop()
		if natsEnabled {
			nsc.GetNatsClient().Close()
		}
		store.CloseBadgerStore()
		_ = webServer.GracefulShutdown(c)
		return c.Err()
	})
	return g.Wait()
}
