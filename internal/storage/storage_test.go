package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the contract every backend must satisfy.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "fitplan_user_store", []byte(`{"token":"a"}`)))
		got, err := store.Get(ctx, "fitplan_user_store")
		require.NoError(t, err)
		assert.JSONEq(t, `{"token":"a"}`, string(got))
	})

	t.Run("set replaces", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "fitplan_user_store", []byte(`{"token":"b"}`)))
		got, err := store.Get(ctx, "fitplan_user_store")
		require.NoError(t, err)
		assert.JSONEq(t, `{"token":"b"}`, string(got))
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "fitplan_user_store"))
		require.NoError(t, store.Delete(ctx, "fitplan_user_store"))
		_, err := store.Get(ctx, "fitplan_user_store")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())

	t.Run("values are copied", func(t *testing.T) {
		store := NewMemoryStore()
		value := []byte("abc")
		require.NoError(t, store.Set(context.Background(), "k", value))
		value[0] = 'z'

		got, err := store.Get(context.Background(), "k")
		require.NoError(t, err)
		assert.Equal(t, "abc", string(got))
	})
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "nested"))
	require.NoError(t, err)

	exerciseStore(t, store)

	t.Run("no temp files left behind", func(t *testing.T) {
		require.NoError(t, store.Set(context.Background(), "k", []byte("v")))
		entries, err := os.ReadDir(filepath.Join(dir, "nested"))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "k.json", entries[0].Name())
	})

	t.Run("survives a new instance", func(t *testing.T) {
		reopened, err := NewFileStore(filepath.Join(dir, "nested"))
		require.NoError(t, err)
		got, err := reopened.Get(context.Background(), "k")
		require.NoError(t, err)
		assert.Equal(t, "v", string(got))
	})

	t.Run("rejects path keys", func(t *testing.T) {
		for _, key := range []string{"", "..", "../escape", "a/b"} {
			assert.Error(t, store.Set(context.Background(), key, []byte("x")), key)
		}
	})
}

func TestRedisStore(t *testing.T) {
	miniRedis := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: miniRedis.Addr()})
	defer client.Close()

	store := NewRedisStore(client, DefaultRedisPrefix)
	exerciseStore(t, store)

	require.NoError(t, store.Set(context.Background(), "k", []byte("v")))
	raw, err := miniRedis.Get("fitplan:k")
	require.NoError(t, err)
	assert.Equal(t, "v", raw)
	assert.Zero(t, miniRedis.TTL("fitplan:k"))
}

func setupMockDB(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	dbMock, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { dbMock.Close() })
	return NewPostgresStore(sqlx.NewDb(dbMock, "sqlmock")), mock
}

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()

	t.Run("create table", func(t *testing.T) {
		store, mock := setupMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS kv_records")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, store.CreateTable(ctx))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("get", func(t *testing.T) {
		store, mock := setupMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM kv_records WHERE key = $1")).
			WithArgs("fitplan_user_store").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`{"token":"a"}`)))

		got, err := store.Get(ctx, "fitplan_user_store")
		require.NoError(t, err)
		assert.Equal(t, `{"token":"a"}`, string(got))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("get missing", func(t *testing.T) {
		store, mock := setupMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM kv_records")).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("set upserts", func(t *testing.T) {
		store, mock := setupMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO kv_records (key, value, updated_at)")).
			WithArgs("k", []byte("v")).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, store.Set(ctx, "k", []byte("v")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete", func(t *testing.T) {
		store, mock := setupMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM kv_records WHERE key = $1")).
			WithArgs("k").
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, store.Delete(ctx, "k"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database errors are wrapped", func(t *testing.T) {
		store, mock := setupMockDB(t)
		boom := errors.New("connection reset")
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM kv_records")).WillReturnError(boom)

		err := store.Delete(ctx, "k")
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}
