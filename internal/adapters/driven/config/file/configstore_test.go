package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestSetAndGet(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("embedding.model", "text-embedding-3-small"))
	require.NoError(t, store.Set("crawl.max_urls", int64(50)))
	require.NoError(t, store.Set("crawl.request_delay", 1.5))
	require.NoError(t, store.Set("egov.health_check", true))

	assert.Equal(t, "text-embedding-3-small", store.GetString("embedding.model"))
	assert.Equal(t, 50, store.GetInt("crawl.max_urls"))
	assert.Equal(t, 1.5, store.GetFloat("crawl.request_delay"))
	assert.True(t, store.GetBool("egov.health_check"))
}

func TestGet_MissingAndWrongType(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("key", "value"))

	assert.Equal(t, "", store.GetString("missing"))
	assert.Equal(t, 0, store.GetInt("key"))
	assert.Equal(t, 0.0, store.GetFloat("key"))
	assert.False(t, store.GetBool("key"))
	assert.Nil(t, store.GetStringSlice("key"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestGetFloat_WidensIntegers(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("delay", int64(2)))
	assert.Equal(t, 2.0, store.GetFloat("delay"))
}

func TestLoad_FlattensNestedTables(t *testing.T) {
	dir := t.TempDir()
	content := `[crawl]
max_urls = 25
path_prefixes = ["/docs/", "/laws/"]

[embedding]
model = "text-embedding-3-large"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, 25, store.GetInt("crawl.max_urls"))
	assert.Equal(t, []string{"/docs/", "/laws/"}, store.GetStringSlice("crawl.path_prefixes"))
	assert.Equal(t, "text-embedding-3-large", store.GetString("embedding.model"))
}

func TestSet_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("azure.endpoint", "https://svc.search.windows.net"))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://svc.search.windows.net", reopened.GetString("azure.endpoint"))
}

func TestNewConfigStore_EmptyDirStartsEmpty(t *testing.T) {
	store := newTestStore(t)
	_, ok := store.Get("anything")
	assert.False(t, ok)
	assert.DirExists(t, filepath.Dir(store.Path()))
}
