package fleet

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootLockAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locks", "abc.lock")

	lock, err := acquireRootLock(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var info lockInfo
	require.NoError(t, json.Unmarshal(data, &info))
	assert.Equal(t, os.Getpid(), info.PID)

	lock.release()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestRootLockReacquireAfterRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abc.lock")

	lock, err := acquireRootLock(path)
	require.NoError(t, err)
	lock.release()

	lock2, err := acquireRootLock(path)
	require.NoError(t, err)
	lock2.release()
}

func TestRootLockStaleTakeover(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abc.lock")

	// Lock held by a pid that cannot exist.
	stale, err := json.Marshal(lockInfo{PID: 1 << 22, CreatedAt: time.Now().Add(-time.Hour)})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, stale, 0644))

	start := time.Now()
	lock, err := acquireRootLock(path)
	require.NoError(t, err)
	defer lock.release()

	assert.Less(t, time.Since(start), 2*time.Second, "a dead holder is taken over, not waited out")
}

func TestProcessExists(t *testing.T) {
	assert.True(t, processExists(os.Getpid()))
	assert.False(t, processExists(0))
	assert.False(t, processExists(-1))
	assert.False(t, processExists(1<<22))
}
