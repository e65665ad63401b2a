package settings

import (
	"encoding/json"
	"testing"
	"time"

	"albumsync/pkg/models"

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

func (s *memStore) Exists(key string, dataType interface{}) bool {
	_, ok := s.data[key]
	return ok
}

func TestLoadDefaults(t *testing.T) {
	m := NewManager(newMemStore())
	require.NoError(t, m.Load())

	snap := m.Snapshot()
	assert.Equal(t, SchemaVersion, snap.SchemaVersion)
	assert.False(t, snap.AutoSync)
	assert.Equal(t, DefaultFrequency, snap.SyncFrequency)
	assert.Empty(t, snap.Mappings)
	assert.Empty(t, snap.SyncLogs)
	assert.Nil(t, snap.LastSync)
}

func TestLoadRoundtrip(t *testing.T) {
	store := newMemStore()

	m1 := NewManager(store)
	require.NoError(t, m1.Load())
	require.NoError(t, m1.SetAutoSync(true))
	require.NoError(t, m1.SetFrequency("daily"))
	require.NoError(t, m1.ReplaceMappings([]models.Mapping{
		{Id: "1", AlbumId: "A1", Status: models.MappingStatusInactive},
	}))

	m2 := NewManager(store)
	require.NoError(t, m2.Load())
	assert.True(t, m2.AutoSync())
	assert.Equal(t, "daily", m2.Frequency())
	require.Len(t, m2.Mappings(), 1)
	assert.Equal(t, "A1", m2.Mappings()[0].AlbumId)
}

func TestCompleteRunUpdatesLastSync(t *testing.T) {
	m := NewManager(newMemStore())
	require.NoError(t, m.Load())

	entry := models.SyncLogEntry{
		Timestamp:       time.Now(),
		PhotosProcessed: 5,
		Status:          models.SyncStatusSuccess,
	}
	require.NoError(t, m.CompleteRun(entry))

	require.NotNil(t, m.LastSync())
	assert.Equal(t, entry.Timestamp.Unix(), m.LastSync().Unix())
	require.Len(t, m.SyncLogs(), 1)
	assert.Equal(t, 5, m.SyncLogs()[0].PhotosProcessed)
}

func TestCompleteRunRetention(t *testing.T) {
	m := NewManager(newMemStore())
	require.NoError(t, m.Load())

	base := time.Now()
	for i := 0; i < models.MaxSyncLogs+5; i++ {
		entry := models.SyncLogEntry{
			Timestamp:       base.Add(time.Duration(i) * time.Minute),
			PhotosProcessed: i,
			Status:          models.SyncStatusSuccess,
		}
		require.NoError(t, m.CompleteRun(entry))
	}

	logs := m.SyncLogs()
	require.Len(t, logs, models.MaxSyncLogs)
	// 最新在前，只保留最近的
	assert.Equal(t, models.MaxSyncLogs+4, logs[0].PhotosProcessed)
	for i := 1; i < len(logs); i++ {
		assert.True(t, !logs[i-1].Timestamp.Before(logs[i].Timestamp))
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	m := NewManager(newMemStore())
	require.NoError(t, m.Load())
	require.NoError(t, m.ReplaceMappings([]models.Mapping{{Id: "1"}}))

	snap := m.Snapshot()
	snap.Mappings[0].Id = "changed"
	assert.Equal(t, "1", m.Mappings()[0].Id)
}
