package credential

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	tok, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, tok.IsZero(), "fresh store should be empty")

	require.NoError(t, s.Save(ctx, "abc.def.ghi"))
	tok, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Token("abc.def.ghi"), tok)

	require.NoError(t, s.Save(ctx, "second"))
	tok, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Token("second"), tok)

	require.NoError(t, s.Delete(ctx))
	tok, err = s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, tok.IsZero())

	require.NoError(t, s.Delete(ctx), "deleting an empty store is not an error")

	require.NoError(t, s.Save(ctx, "third"))
	require.NoError(t, s.Save(ctx, ""), "saving the empty token deletes")
	tok, err = s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, tok.IsZero())
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(""))
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s := NewFileStore(path)
	exerciseStore(t, s)

	require.NoError(t, s.Save(context.Background(), "tok"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jwt":"tok"}`, string(data))
}

func TestFileStoreCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path).Load(context.Background())
	assert.ErrorContains(t, err, "decode credential file")
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	s := NewRedisStore(rdb, "", 0)
	assert.Equal(t, "eaglebank:session:jwt", s.Key())
	exerciseStore(t, s)
}

func TestRedisStoreTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	s := NewRedisStore(rdb, "test:", time.Hour)
	require.NoError(t, s.Save(context.Background(), "tok"))
	assert.Equal(t, time.Hour, mr.TTL("test:jwt"))

	mr.FastForward(2 * time.Hour)
	tok, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, tok.IsZero())
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	s := NewRedisStore(rdb, "", 0)
	_, err := s.Load(context.Background())
	assert.Error(t, err)
	assert.Error(t, s.Save(context.Background(), "tok"))
}

func TestTokenStringIsRedacted(t *testing.T) {
	assert.Equal(t, "<redacted>", Token("secret").String())
	assert.Equal(t, "<none>", Token("").String())
}
