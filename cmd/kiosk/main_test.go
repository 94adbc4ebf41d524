package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/kiosk/internal/config"
	"github.com/pders01/kiosk/internal/content"
	"github.com/pders01/kiosk/internal/ingest"
	"github.com/pders01/kiosk/internal/remote"
	"github.com/pders01/kiosk/internal/search"
	"github.com/pders01/kiosk/internal/storage"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>http://example.com</link>
    <item>
      <title>Sourdough basics</title>
      <link>http://example.com/sourdough</link>
      <guid>sourdough</guid>
      <description>Flour, water and patience.</description>
    </item>
    <item>
      <title>Rye bread</title>
      <link>http://example.com/rye</link>
      <guid>rye</guid>
      <description>A denser loaf.</description>
    </item>
  </channel>
</rss>`

// isolate points HOME and the sources file into a temp dir so no user
// configuration leaks into the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("KIOSK_INGEST_SOURCES_FILE", filepath.Join(dir, "sources.toml"))
	t.Setenv("KIOSK_LOG_LEVEL", "off")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(testFeed))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVersionCommand(t *testing.T) {
	isolate(t)

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Content Browser")
	assert.Contains(t, out, "github.com/pders01/kiosk")

	out, err = execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "kiosk dev\n", out)
}

func TestGenerateConfigCommand(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "conf", "config.toml")

	out, err := execute(t, "generate-config", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Generated default configuration at: "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Browse.PageSize)
}

func TestGenerateConfigCommand_DefaultPath(t *testing.T) {
	isolate(t)

	_, err := execute(t, "generate-config")
	require.NoError(t, err)
	_, err = os.Stat(config.DefaultPath())
	assert.NoError(t, err)
}

func TestGlobalOptions_DBOverride(t *testing.T) {
	dir := isolate(t)

	opts := &globalOptions{dbPath: filepath.Join(dir, "data", "kiosk.db")}
	cfg, err := opts.load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data", "kiosk.db"), cfg.Database.Path)
	assert.Equal(t, filepath.Join(dir, "data", "kiosk.bleve"), cfg.Database.SearchIndex)
}

func TestGlobalOptions_BadConfig(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[browse]\npage_size = 0\n"), 0o644))

	_, err := execute(t, "sources", "--config", path)
	assert.ErrorContains(t, err, "failed to load config")
}

func TestImportLifecycle(t *testing.T) {
	dir := isolate(t)
	srv := feedServer(t)
	db := filepath.Join(dir, "data", "kiosk.db")

	out, err := execute(t, "import", "--db", db, "--allow-private", "--save", "-c", "Baking", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Test Feed (2 items)")
	assert.Contains(t, out, "2 items from 1 sources")

	listed, err := ingest.LoadSources(filepath.Join(dir, "sources.toml"))
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Contains(t, listed[0].URL, "127.0.0.1")

	out, err = execute(t, "sources", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Test Feed")
	assert.Contains(t, out, "Baking")
	assert.Regexp(t, `Baking\s+2\s+`, out)

	out, err = execute(t, "reindex", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 2 items")

	// without URLs the saved source is refreshed
	out, err = execute(t, "import", "--db", db, "--allow-private", "--quiet")
	require.NoError(t, err)
	assert.Empty(t, out)

	cfg, err := (&globalOptions{dbPath: db}).load()
	require.NoError(t, err)
	store, repo, err := openLocal(context.Background(), cfg)
	require.NoError(t, err)
	resp, err := repo.Search(context.Background(), content.Query{SearchTerm: "rye", Category: "Baking"})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Rye bread", resp.Items[0].Title)
	require.NoError(t, repo.Close())
	require.NoError(t, store.Close())

	out, err = execute(t, "sources", "remove", srv.URL, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "and 2 items")

	_, err = execute(t, "sources", "remove", srv.URL, "--db", db)
	assert.ErrorContains(t, err, "no source with URL")
}

func TestImport_PrivateHostRejectedByDefault(t *testing.T) {
	dir := isolate(t)
	srv := feedServer(t)
	db := filepath.Join(dir, "kiosk.db")

	out, err := execute(t, "import", "--db", db, srv.URL)
	assert.ErrorContains(t, err, "1 of 1 sources failed")
	assert.Contains(t, out, "✗")
	assert.Contains(t, out, "invalid feed URL")

	store, err := storage.NewStore(db, 0)
	require.NoError(t, err)
	defer store.Close()
	n, err := store.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestImport_SaveNeedsSourcesFile(t *testing.T) {
	dir := isolate(t)
	os.Unsetenv("KIOSK_INGEST_SOURCES_FILE")
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ingest]\nsources_file = \"\"\n"), 0o644))
	srv := feedServer(t)

	_, err := execute(t, "import", "--config", path, "--db", filepath.Join(dir, "kiosk.db"), "--allow-private", "--save", srv.URL)
	assert.ErrorContains(t, err, "no sources file configured")
}

func TestSources_Empty(t *testing.T) {
	dir := isolate(t)

	out, err := execute(t, "sources", "--db", filepath.Join(dir, "kiosk.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "No sources yet")
}

func TestOpenRepository(t *testing.T) {
	dir := isolate(t)

	t.Run("local", func(t *testing.T) {
		cfg := config.TestConfig()
		cfg.Database.Path = filepath.Join(dir, "local", "kiosk.db")
		cfg.Database.SearchIndex = filepath.Join(dir, "local", "index.bleve")

		repo, closeRepo, err := openRepository(context.Background(), cfg)
		require.NoError(t, err)
		defer closeRepo()

		resp, err := repo.Search(context.Background(), content.Query{})
		require.NoError(t, err)
		assert.Empty(t, resp.Items)
	})

	t.Run("remote", func(t *testing.T) {
		api := httptest.NewServer(remote.NewRouter(search.NewEngine(nil), nil))
		defer api.Close()

		cfg := config.TestConfig()
		cfg.Source.Mode = config.SourceRemote
		cfg.Source.RemoteURL = api.URL

		repo, closeRepo, err := openRepository(context.Background(), cfg)
		require.NoError(t, err)
		defer closeRepo()
		assert.IsType(t, &remote.Client{}, repo)
	})

	t.Run("remote unreachable", func(t *testing.T) {
		api := httptest.NewServer(http.NotFoundHandler())
		api.Close()

		cfg := config.TestConfig()
		cfg.Source.Mode = config.SourceRemote
		cfg.Source.RemoteURL = api.URL

		_, _, err := openRepository(context.Background(), cfg)
		assert.ErrorContains(t, err, "unreachable")
	})
}
