package store

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/timshannon/badgerhold/v4"
	"go.uber.org/zap"
)

var instance *BadgerStore
var once sync.Once

type BadgerStore struct {
	store *badgerhold.Store
}

func (b *BadgerStore) Store(key string, value interface{}) error {
	return b.store.Upsert(key, value)
}

func (b *BadgerStore) Get(key string, value interface{}) error {
	return b.store.Get(key, value)
}

func (b *BadgerStore) Delete(key string, dataType interface{}) error {
	return b.store.Delete(key, dataType)
}

func (b *BadgerStore) Exists(key string, dataType interface{}) bool {
	v := dataType
	err := b.store.Get(key, v)
	return err == nil
}

func (b *BadgerStore) Upsert(key string, value interface{}) error {
	return b.store.Upsert(key, value)
}

// InitBadgerStore 打开本地存储，dataDir 为空时使用 ./etc/data
func InitBadgerStore(dataDir string) error {
	var initErr error
	once.Do(func() {
		if dataDir == "" {
			p, err := os.Getwd()
			if err != nil {
				initErr = err
				return
			}
			dataDir = filepath.Join(p, "etc", "data")
		}
		options := badgerhold.DefaultOptions
		options.Dir = dataDir
		options.ValueDir = dataDir
		s, err := badgerhold.Open(options)
		if err != nil {
			initErr = err
			return
		}
		instance = &BadgerStore{store: s}
	})
	return initErr
}

func GetBadgerStore() *BadgerStore {
	if instance == nil {
		zap.S().Fatal("本地存储尚未初始化，请先调用 InitBadgerStore")
	}
	return instance
}

func CloseBadgerStore() {
	if instance != nil {
		zap.S().Info("正在关闭 Badger 存储...")
		err := instance.store.Close()
		if err != nil {
			zap.S().Errorf("关闭 Badger 存储时发生错误: %v", err)
		} else {
			zap.S().Info("Badger 存储已成功关闭")
		}
		// 重置实例，避免重复关闭
		instance = nil
	}
}
