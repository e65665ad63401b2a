package cmd

import (
	"context"
	stderrors "errors"
	"time"

	"albumsync/pkg/archive"
	"albumsync/pkg/db"
	"albumsync/pkg/dest"
	"albumsync/pkg/engine"
	"albumsync/pkg/mapping"
	"albumsync/pkg/server"
	"albumsync/pkg/settings"
	"albumsync/pkg/source"
	"albumsync/pkg/store"
	"albumsync/pkg/token"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var syncCfg *server.Config

func NewSyncCommand() *cobra.Command {
	var configFilePath string
	var timeoutSeconds int
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "立即执行一轮同步后退出",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			syncCfg, err = server.TryLoadFromDisk(configFilePath)
			if err != nil {
				return errors.Errorf("读取本地配置文件错误:%s", err.Error())
			}
			if errs := syncCfg.Validate(); len(errs) > 0 {
				return errors.Errorf("本地配置文件验证错误:%s", stderrors.Join(errs...))
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			if err := runSyncOnce(syncCfg, timeoutSeconds); err != nil {
				zap.S().Errorf(err.Error())
				return
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", "./etc/config.yaml", "配置文件路径")
	cmd.Flags().IntVar(&timeoutSeconds, "timeout", 300, "整轮执行的超时秒数")
	return cmd
}

func runSyncOnce(cfg *server.Config, timeoutSeconds int) error {
	if cfg == nil {
		return stderrors.New("配置为空")
	}

	if err := store.InitBadgerStore(cfg.DataDir); err != nil {
		return errors.Wrap(err, "无法打开本地存储")
	}
	defer store.CloseBadgerStore()
	badgerStore := store.GetBadgerStore()

	settingsMgr := settings.NewManager(badgerStore)
	if err := settingsMgr.Load(); err != nil {
		return errors.Wrap(err, "加载同步设置失败")
	}

	tokens := token.NewTokenStore(badgerStore)
	src := source.NewCatalog(cfg.Source, tokens)
	dst := dest.NewCatalog(cfg.Dest, badgerStore)
	mappings := mapping.NewStore(settingsMgr)
	eng := engine.NewEngine(settingsMgr, mappings, src, dst)

	//可选：归档库
	if cfg.DB != nil {
		if err := db.InitDB(cfg.DB); err != nil {
			return errors.Wrap(err, "无法连接数据库")
		}
		arc, err := archive.NewService(db.GetDB())
		if err != nil {
			return errors.Wrap(err, "初始化日志归档失败")
		}
		eng.SetArchive(arc)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSeconds)*time.Second)
	defer cancel()

	entry, err := eng.Run(ctx)
	if err != nil {
		return err
	}
	zap.S().Infof("本轮执行结果 - 状态: %s, 照片: %d, 跳过视频: %d",
		entry.Status, entry.PhotosProcessed, entry.VideosSkipped)
	return nil
}
