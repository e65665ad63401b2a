package token

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// 凭证与设置聚合体分开持久化，各用独立的 key
const tokenKey = "sourceToken"

// Store 凭证持久化的最小接口，由 pkg/store 的 BadgerStore 实现
type Store interface {
	Get(key string, value interface{}) error
	Upsert(key string, value interface{}) error
	Delete(key string, dataType interface{}) error
	Exists(key string, dataType interface{}) bool
}

// TokenStore 持有源端 API 的 bearer 凭证及连接状态。
// 本地不做任何格式或有效期校验，凭证失效只能通过目录调用的 401/403 发现。
type TokenStore struct {
	mu        sync.RWMutex
	store     Store
	token     string
	connected bool
}

func NewTokenStore(store Store) *TokenStore {
	t := &TokenStore{store: store}
	if store.Exists(tokenKey, new(string)) {
		var saved string
		if err := store.Get(tokenKey, &saved); err == nil && saved != "" {
			t.token = saved
			t.connected = true
			zap.S().Info("已从本地恢复源端凭证")
		}
	}
	return t
}

// Set 保存凭证并标记为已连接
func (t *TokenStore) Set(token string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.store.Upsert(tokenKey, token); err != nil {
		return fmt.Errorf("保存凭证失败: %w", err)
	}
	t.token = token
	t.connected = true
	return nil
}

// Get 返回当前凭证，未连接时第二个返回值为 false
func (t *TokenStore) Get() (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.connected {
		return "", false
	}
	return t.token, true
}

// Clear 清除凭证并标记为未连接
func (t *TokenStore) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.store.Delete(tokenKey, new(string)); err != nil {
		zap.S().Warnf("删除本地凭证失败: %v", err)
	}
	t.token = ""
	t.connected = false
	return nil
}

// Connected 当前连接状态
func (t *TokenStore) Connected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.connected
}
