package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/alchemorsel/cardapio/internal/domain/mealplan"
	"github.com/alchemorsel/cardapio/internal/domain/nutrition"
	"github.com/alchemorsel/cardapio/internal/domain/planning"
	"github.com/alchemorsel/cardapio/internal/infrastructure/monitoring"
	"github.com/alchemorsel/cardapio/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/cardapio/internal/ports/outbound"
)

type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func TestRepository_RoundTrip(t *testing.T) {
	cache := memory.NewCacheRepository(0)
	defer cache.Close()
	repo := NewRepository(cache, "memory", time.Hour, nil, zaptest.NewLogger(t))
	ctx := context.Background()

	sess := planning.NewSession("abc")
	_, err := sess.Begin(nutrition.DefaultProfile(), nutrition.CalculateNutritionalNeeds(nutrition.DefaultProfile()))
	require.NoError(t, err)
	require.NoError(t, sess.Complete(1, []mealplan.Recipe{{ID: "r1", Name: "Omelete", Category: mealplan.Breakfast}},
		mealplan.FitnessPlan{WaterIntake: 2.5, Exercises: []mealplan.Exercise{{Name: "Caminhada"}}}))

	require.NoError(t, repo.Save(ctx, sess))

	loaded, err := repo.Load(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, planning.StepResults, loaded.Step)
	assert.Equal(t, 1, loaded.Attempt)
	assert.Equal(t, "Omelete", loaded.Recipes[0].Name)
	assert.Equal(t, 2.5, loaded.Fitness.WaterIntake)
	assert.True(t, loaded.Ready())

	_, err = cache.Get(ctx, "session:abc")
	assert.NoError(t, err)
}

func TestRepository_LoadMissing(t *testing.T) {
	cache := memory.NewCacheRepository(0)
	defer cache.Close()
	metrics := monitoring.NewMetricsCollector(zaptest.NewLogger(t))
	repo := NewRepository(cache, "memory", time.Hour, metrics, zaptest.NewLogger(t))

	sess, err := repo.Load(context.Background(), "nope")

	require.NoError(t, err)
	assert.Nil(t, sess)
	count, err := testutil.GatherAndCount(metrics.Registry(), "session_store_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRepository_CorruptEntryIsTreatedAsMissing(t *testing.T) {
	cache := memory.NewCacheRepository(0)
	defer cache.Close()
	repo := NewRepository(cache, "memory", time.Hour, nil, zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "session:bad", []byte("{not json"), time.Hour))

	sess, err := repo.Load(ctx, "bad")
	require.NoError(t, err)
	assert.Nil(t, sess)

	_, err = cache.Get(ctx, "session:bad")
	assert.ErrorIs(t, err, outbound.ErrCacheMiss, "corrupt entry is purged")
}

func TestRepository_BackendErrors(t *testing.T) {
	backendErr := errors.New("connection reset")
	cache := new(MockCacheRepository)
	cache.On("Get", mock.Anything, "session:x").Return(nil, backendErr)
	cache.On("Set", mock.Anything, "session:x", mock.Anything, 30*time.Minute).Return(backendErr)

	repo := NewRepository(cache, "redis", 30*time.Minute, nil, zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := repo.Load(ctx, "x")
	assert.ErrorIs(t, err, backendErr)

	err = repo.Save(ctx, planning.NewSession("x"))
	assert.ErrorIs(t, err, backendErr)

	cache.AssertExpectations(t)
}

func TestRepository_PurgeFailureStillReadsAsMissing(t *testing.T) {
	cache := new(MockCacheRepository)
	cache.On("Get", mock.Anything, "session:bad").Return([]byte("{not json"), nil)
	cache.On("Delete", mock.Anything, "session:bad").Return(errors.New("read only replica"))

	repo := NewRepository(cache, "redis", time.Hour, nil, zaptest.NewLogger(t))

	sess, err := repo.Load(context.Background(), "bad")

	require.NoError(t, err)
	assert.Nil(t, sess)
	cache.AssertExpectations(t)
}

var _ outbound.CacheRepository = (*MockCacheRepository)(nil)
