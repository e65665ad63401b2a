package token

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) Upsert(key string, value interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.data[key] = b
	return nil
}

func (s *memStore) Get(key string, value interface{}) error {
	b, ok := s.data[key]
	if !ok {
		return errors.New("not found")
	}
	return json.Unmarshal(b, value)
}

func (s *memStore) Delete(key string, dataType interface{}) error {
	delete(s.data, key)
	return nil
}

func (s *memStore) Exists(key string, dataType interface{}) bool {
	_, ok := s.data[key]
	return ok
}

func TestSetGetClear(t *testing.T) {
	ts := NewTokenStore(newMemStore())

	_, ok := ts.Get()
	assert.False(t, ok)
	assert.False(t, ts.Connected())

	require.NoError(t, ts.Set("ya29.secret"))
	got, ok := ts.Get()
	require.True(t, ok)
	assert.Equal(t, "ya29.secret", got)
	assert.True(t, ts.Connected())

	require.NoError(t, ts.Clear())
	_, ok = ts.Get()
	assert.False(t, ok)
	assert.False(t, ts.Connected())
}

func TestRestoreFromStore(t *testing.T) {
	store := newMemStore()
	ts1 := NewTokenStore(store)
	require.NoError(t, ts1.Set("persisted"))

	ts2 := NewTokenStore(store)
	got, ok := ts2.Get()
	require.True(t, ok)
	assert.Equal(t, "persisted", got)
	assert.True(t, ts2.Connected())
}
