package kvstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/devotionsim/proposal-api/internal/config"
	"github.com/devotionsim/proposal-api/internal/domain"
	"github.com/devotionsim/proposal-api/internal/kvstore"
)

// Compile-time interface checks
var (
	_ kvstore.Store = (*kvstore.MemoryStore)(nil)
	_ kvstore.Store = (*kvstore.RedisStore)(nil)
	_ kvstore.Store = (*kvstore.SQLStore)(nil)
	_ kvstore.Store = (*kvstore.TimeoutStore)(nil)
)

func newSQLiteStore(t *testing.T) *kvstore.SQLStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store := kvstore.NewSQLStore(db)
	require.NoError(t, store.AutoMigrate())
	return store
}

func backends(t *testing.T) map[string]kvstore.Store {
	return map[string]kvstore.Store{
		"memory": kvstore.NewMemoryStore(),
		"sqlite": newSQLiteStore(t),
	}
}

// ============================================================================
// Contract tests shared by all backends
// ============================================================================

func TestStore_GetSetDelete(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			v, err := store.Get(ctx, "proposal:missing")
			require.NoError(t, err)
			assert.Nil(t, v)

			require.NoError(t, store.Set(ctx, "proposal:a", []byte(`{"id":"a"}`), time.Hour))
			v, err = store.Get(ctx, "proposal:a")
			require.NoError(t, err)
			assert.Equal(t, `{"id":"a"}`, string(v))

			// overwrite
			require.NoError(t, store.Set(ctx, "proposal:a", []byte(`{"id":"a2"}`), time.Hour))
			v, err = store.Get(ctx, "proposal:a")
			require.NoError(t, err)
			assert.Equal(t, `{"id":"a2"}`, string(v))

			require.NoError(t, store.Delete(ctx, "proposal:a"))
			v, err = store.Get(ctx, "proposal:a")
			require.NoError(t, err)
			assert.Nil(t, v)

			assert.NoError(t, store.Ping(ctx))
		})
	}
}

func TestStore_Keys(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Set(ctx, "proposal:a", []byte("1"), 0))
			require.NoError(t, store.Set(ctx, "proposal:a:payment", []byte("2"), 0))
			require.NoError(t, store.Set(ctx, "proposal:b:payment", []byte("3"), 0))
			require.NoError(t, store.Set(ctx, "proposal:b:paid", []byte("4"), 0))
			require.NoError(t, store.Set(ctx, "admin:settings", []byte("5"), 0))

			keys, err := store.Keys(ctx, "proposal:*:payment")
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"proposal:a:payment", "proposal:b:payment"}, keys)
		})
	}
}

func TestStore_PushAndTrimRange(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			for _, id := range []string{"p1", "p2", "p3", "p4", "p5"} {
				require.NoError(t, store.PushAndTrim(ctx, "proposals:list", id, 3))
			}

			all, err := store.Range(ctx, "proposals:list", 0, -1)
			require.NoError(t, err)
			assert.Equal(t, []string{"p5", "p4", "p3"}, all)

			firstTwo, err := store.Range(ctx, "proposals:list", 0, 1)
			require.NoError(t, err)
			assert.Equal(t, []string{"p5", "p4"}, firstTwo)

			require.NoError(t, store.RemoveFromList(ctx, "proposals:list", "p4"))
			all, err = store.Range(ctx, "proposals:list", 0, 9)
			require.NoError(t, err)
			assert.Equal(t, []string{"p5", "p3"}, all)

			empty, err := store.Range(ctx, "proposals:none", 0, 9)
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}

// ============================================================================
// Expiry
// ============================================================================

func TestMemoryStore_Expiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := kvstore.NewMemoryStore().WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, store.Set(ctx, "forever", []byte("v"), 0))

	now = now.Add(time.Minute)

	v, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, v)

	keys, err := store.Keys(ctx, "*")
	require.NoError(t, err)
	assert.Equal(t, []string{"forever"}, keys)
}

func TestSQLStore_DeleteExpired(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", []byte("v"), time.Millisecond))
	require.NoError(t, store.Set(ctx, "long", []byte("v"), time.Hour))
	require.NoError(t, store.Set(ctx, "forever", []byte("v"), 0))

	time.Sleep(20 * time.Millisecond)

	v, err := store.Get(ctx, "short")
	require.NoError(t, err)
	assert.Nil(t, v, "expired rows are hidden before reaping")

	n, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	keys, err := store.Keys(ctx, "*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"long", "forever"}, keys)
}

func TestSQLStore_KeysEscapesLikeWildcards(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "checkout:idem:a_b", []byte("1"), 0))
	require.NoError(t, store.Set(ctx, "checkout:idem:axb", []byte("2"), 0))

	keys, err := store.Keys(ctx, "checkout:idem:a_b")
	require.NoError(t, err)
	assert.Equal(t, []string{"checkout:idem:a_b"}, keys)
}

// ============================================================================
// Timeout decorator
// ============================================================================

type slowStore struct {
	kvstore.Store
}

func (s slowStore) Get(ctx context.Context, _ string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type failingStore struct {
	kvstore.Store
}

func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func TestTimeoutStore(t *testing.T) {
	t.Run("deadline maps to upstream timeout", func(t *testing.T) {
		store := kvstore.WithTimeout(slowStore{Store: kvstore.NewMemoryStore()}, 10*time.Millisecond)

		_, err := store.Get(context.Background(), "k")

		var timeout *domain.UpstreamTimeoutError
		require.ErrorAs(t, err, &timeout)
		assert.Equal(t, "kv store", timeout.Service)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		store := kvstore.WithTimeout(failingStore{Store: kvstore.NewMemoryStore()}, time.Second)

		err := store.Set(context.Background(), "k", []byte("v"), 0)

		require.Error(t, err)
		var timeout *domain.UpstreamTimeoutError
		assert.False(t, errors.As(err, &timeout))
	})

	t.Run("fast calls succeed", func(t *testing.T) {
		store := kvstore.WithTimeout(kvstore.NewMemoryStore(), time.Second)
		require.NoError(t, store.Set(context.Background(), "k", []byte("v"), 0))
		v, err := store.Get(context.Background(), "k")
		require.NoError(t, err)
		assert.Equal(t, "v", string(v))
	})
}

func TestNewStore(t *testing.T) {
	cfg := &config.Config{}
	cfg.Store.Driver = "memory"
	store, err := kvstore.NewStore(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &kvstore.MemoryStore{}, store)

	cfg.Store.Driver = "sqlite"
	cfg.Store.SQLitePath = t.TempDir() + "/kv.db"
	store, err = kvstore.NewStore(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &kvstore.SQLStore{}, store)
	require.NoError(t, store.Close())

	cfg.Store.Driver = "etcd"
	_, err = kvstore.NewStore(cfg, zap.NewNop())
	assert.ErrorIs(t, err, kvstore.ErrUnsupportedDriver)
}
