package command

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/sharded-go/internal/core/service"
	"github.com/yndnr/sharded-go/internal/server/httpserver"
	"github.com/yndnr/sharded-go/internal/server/httpserver/handler"
	"github.com/yndnr/sharded-go/internal/storage/memory"
	"github.com/yndnr/sharded-go/internal/telemetry/logger"
	"github.com/yndnr/sharded-go/pkg/sharded"
)

const testAdminToken = "s3cret"

type fakeStorage struct {
	backup []byte
}

func (f *fakeStorage) Persistent() bool { return f.backup != nil }

func (f *fakeStorage) Backup(_ context.Context, w io.Writer) error {
	_, err := w.Write(f.backup)
	return err
}

func (f *fakeStorage) Status() handler.StorageStatus {
	return handler.StorageStatus{Persistent: f.Persistent(), LSMSize: 1024}
}

// testEnv runs the CLI against an in-process server backed by a memory
// store.
type testEnv struct {
	t      *testing.T
	url    string
	config string
	store  *memory.Store
}

func newTestEnv(t *testing.T, storage *fakeStorage) *testEnv {
	t.Helper()
	if storage == nil {
		storage = &fakeStorage{}
	}
	store := memory.New(nil, sharded.WithShardCount(4))
	h := handler.New(handler.Config{
		KV:      service.NewKVService(store, service.WithLogger(logger.Discard())),
		Storage: storage,
		Logger:  logger.Discard(),
	})
	srv := httptest.NewServer(httpserver.NewRouter(&httpserver.RouterConfig{
		Handler:    h,
		Logger:     logger.Discard(),
		AdminToken: testAdminToken,
	}))
	t.Cleanup(srv.Close)

	return &testEnv{
		t:      t,
		url:    srv.URL,
		config: filepath.Join(t.TempDir(), "cli.yaml"),
		store:  store,
	}
}

// run executes the CLI and returns stdout, stderr and the error.
func (e *testEnv) run(args ...string) (string, string, error) {
	e.t.Helper()
	var stdout, stderr bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.ExitErrHandler = func(*cli.Context, error) {}

	full := append([]string{"shardkv-cli", "--server", e.url, "--config", e.config}, args...)
	err := app.Run(full)
	return stdout.String(), stderr.String(), err
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, _, err := e.run(args...)
	require.NoError(e.t, err, "args %v", args)
	return out
}

func TestApp_Commands(t *testing.T) {
	app := App()
	assert.Equal(t, "shardkv-cli", app.Name)

	names := make(map[string]bool)
	for _, cmd := range app.Commands {
		names[cmd.Name] = true
	}
	for _, want := range []string{"get", "put", "delete", "list", "move", "stats", "health", "admin", "config"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestPutGetDelete(t *testing.T) {
	env := newTestEnv(t, nil)

	out := env.mustRun("put", "users/1", "ada")
	assert.Contains(t, out, "created users/1 (shard ")

	out = env.mustRun("put", "users/1", "grace")
	assert.Contains(t, out, "updated users/1")

	assert.Equal(t, "grace", env.mustRun("get", "users/1"))

	out = env.mustRun("-o", "json", "get", "users/1")
	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, map[string]string{"key": "users/1", "value": "grace"}, got)

	assert.Contains(t, env.mustRun("delete", "users/1"), "deleted users/1")
	assert.Equal(t, 0, env.store.Len())

	_, _, err := env.run("get", "users/1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SKV-")

	_, _, err = env.run("delete", "users/1")
	require.Error(t, err)
	env.mustRun("delete", "--ignore-missing", "users/1")
}

func TestPut_FileAndStdin(t *testing.T) {
	env := newTestEnv(t, nil)

	path := filepath.Join(t.TempDir(), "value.bin")
	require.NoError(t, os.WriteFile(path, []byte{0, 1, 2, 255}, 0o600))
	env.mustRun("put", "--file", path, "blob")

	v, err := env.store.Get(context.Background(), "blob")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 255}, v)

	_, _, err = env.run("put", "--file", path, "blob", "extra")
	require.Error(t, err)

	var stdout bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.Reader = strings.NewReader("from stdin")
	require.NoError(t, app.Run([]string{"shardkv-cli", "--server", env.url, "--config", env.config, "put", "piped", "-"}))
	v, err = env.store.Get(context.Background(), "piped")
	require.NoError(t, err)
	assert.Equal(t, "from stdin", string(v))

	out := filepath.Join(t.TempDir(), "out.bin")
	env.mustRun("get", "--out", out, "blob")
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 255}, data)
}

func TestListAndMove(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, k := range []string{"user:3", "user:1", "order:9", "user:2"} {
		env.mustRun("put", k, "v")
	}

	out := env.mustRun("list", "--prefix", "user:")
	assert.Equal(t, "KEY\nuser:1\nuser:2\nuser:3\n", out)

	out, stderr, err := env.run("--no-headers", "list", "--limit", "2")
	require.NoError(t, err)
	assert.Equal(t, "order:9\nuser:1\n", out)
	assert.Contains(t, stderr, "truncated after 2 keys")

	out = env.mustRun("move", "user:1", "user:9")
	assert.Contains(t, out, "moved user:1 (shard ")

	_, _, err = env.run("move", "user:2", "user:9")
	require.Error(t, err, "existing destination without --overwrite")
	env.mustRun("move", "--overwrite", "user:2", "user:9")

	out = env.mustRun("-o", "json", "list")
	var res struct {
		Keys      []string `json:"keys"`
		Truncated bool     `json:"truncated"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []string{"order:9", "user:3", "user:9"}, res.Keys)
	assert.False(t, res.Truncated)

	_, _, err = env.run("move", "only-one")
	require.Error(t, err)
}

func TestStats(t *testing.T) {
	env := newTestEnv(t, nil)
	for i := 0; i < 10; i++ {
		env.mustRun("put", "k"+string(rune('a'+i)), "v")
	}

	out := env.mustRun("stats")
	assert.True(t, strings.HasPrefix(out, "SHARD  COUNT\n"), out)
	assert.Contains(t, out, "10 keys in 4 shards")

	out = env.mustRun("-o", "yaml", "stats")
	assert.Contains(t, out, "keys: 10")
	assert.Contains(t, out, "shards:")
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	out := env.mustRun("-o", "json", "health")

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "ok", got["health"])
	assert.Equal(t, "ok", got["ready"])
}

func TestAdmin(t *testing.T) {
	env := newTestEnv(t, &fakeStorage{backup: []byte("badger-backup-stream")})

	_, _, err := env.run("admin", "status")
	require.Error(t, err, "missing token")

	out := env.mustRun("--admin-token", testAdminToken, "admin", "status")
	assert.Contains(t, out, "FIELD")
	assert.Contains(t, out, "version")

	dest := filepath.Join(t.TempDir(), "snap.backup")
	out, stderr, err := env.run("--admin-token", testAdminToken, "admin", "backup", "--out", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+dest)
	assert.Contains(t, stderr, "downloading")

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "badger-backup-stream", string(data))

	// An existing file is never overwritten.
	_, _, err = env.run("--admin-token", testAdminToken, "admin", "backup", "--out", dest)
	require.Error(t, err)
}

func TestAdmin_BackupNotPersistent(t *testing.T) {
	env := newTestEnv(t, nil)
	dest := filepath.Join(t.TempDir(), "snap.backup")

	_, _, err := env.run("--admin-token", testAdminToken, "admin", "backup", "--out", dest)
	require.Error(t, err)
	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "failed backup should remove the file")
}

func TestProfiles(t *testing.T) {
	env := newTestEnv(t, nil)
	cfg := "current: local\noutput: json\nprofiles:\n  local:\n    server: " + env.url + "\n    admin_token: " + testAdminToken + "\n"
	require.NoError(t, os.WriteFile(env.config, []byte(cfg), 0o600))

	var stdout bytes.Buffer
	app := App()
	app.Writer = &stdout
	require.NoError(t, app.Run([]string{"shardkv-cli", "--config", env.config, "admin", "status"}))

	var status map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &status), stdout.String())
	assert.Contains(t, status, "version")

	stdout.Reset()
	app = App()
	app.Writer = &stdout
	require.NoError(t, app.Run([]string{"shardkv-cli", "--config", env.config, "config", "show"}))
	var shown map[string]string
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &shown))
	assert.Equal(t, "local", shown["profile"])
	assert.Equal(t, env.url, shown["server"])
	assert.Equal(t, "(set)", shown["admin_token"])
}

func TestConfigTest(t *testing.T) {
	env := newTestEnv(t, nil)
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("shards:\n  count: 8\nstorage:\n  in_memory: true\n"), 0o600))
	assert.Contains(t, env.mustRun("config", "test", good), "configuration is valid")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("shards:\n  count: 0\nstorage:\n  in_memory: true\n"), 0o600))
	_, _, err := env.run("config", "test", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shards.count")
}

func TestInvalidOutputFormat(t *testing.T) {
	env := newTestEnv(t, nil)
	_, _, err := env.run("-o", "xml", "stats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}
