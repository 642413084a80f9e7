package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("chunk.size", 800))
	require.NoError(t, store.Set("chunk.size", 400))

	val, ok := store.Get("chunk.size")
	assert.True(t, ok)
	assert.Equal(t, 400, val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("name", "bookwyrm")
	_ = store.Set("int", 42)
	_ = store.Set("int64", int64(7))
	_ = store.Set("float", 3.9)
	_ = store.Set("flag", true)
	_ = store.Set("timeout", "30s")
	_ = store.Set("native", 2*time.Minute)
	_ = store.Set("bad_timeout", "soon")

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string", store.GetString("name"), "bookwyrm"},
		{"string wrong type", store.GetString("int"), ""},
		{"int", store.GetInt("int"), 42},
		{"int64", store.GetInt("int64"), 7},
		{"float truncates", store.GetInt("float"), 3},
		{"int wrong type", store.GetInt("name"), 0},
		{"bool", store.GetBool("flag"), true},
		{"bool missing", store.GetBool("missing"), false},
		{"duration string", store.GetDuration("timeout"), 30 * time.Second},
		{"duration native", store.GetDuration("native"), 2 * time.Minute},
		{"duration malformed", store.GetDuration("bad_timeout"), time.Duration(0)},
		{"duration seconds", store.GetDuration("int"), 42 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_SaveLoadPath(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("k", "v")

	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, "v", store.GetString("k"))
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set(fmt.Sprintf("key%d", n), n)
		}(i)
		go func(n int) {
			defer wg.Done()
			_ = store.GetInt(fmt.Sprintf("key%d", n))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		assert.Equal(t, i, store.GetInt(fmt.Sprintf("key%d", i)))
	}
}
