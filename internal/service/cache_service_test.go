package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/rab-api/internal/repository"
	appErrors "github.com/noah-isme/rab-api/pkg/errors"
)

type memCacheRepo struct {
	values  map[string]string
	deleted []string
	getErr  error
}

func (m *memCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	value, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*string)) = value
	return nil
}

func (m *memCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.values[key] = value.(string)
	return nil
}

func (m *memCacheRepo) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	m.deleted = append(m.deleted, keys...)
	return nil
}


func TestCacheServiceRoundTripRecordsMetrics(t *testing.T) {
	repo := &memCacheRepo{values: map[string]string{}}
	metrics := NewMetricsService()
	cache := NewCacheService(repo, metrics, time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	var out string
	hit, err := cache.Get(ctx, "verify:a", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, "verify:a", "payload", 0))
	hit, err = cache.Get(ctx, "verify:a", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "payload", out)

	require.NoError(t, cache.Delete(ctx, "verify:a"))
	assert.Equal(t, []string{"verify:a"}, repo.deleted)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("miss")))
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := &memCacheRepo{values: map[string]string{"k": "v"}}
	cache := NewCacheService(repo, nil, 0, nil, false)

	var out string
	hit, err := cache.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, cache.Delete(context.Background(), "k"))
	assert.Empty(t, repo.deleted)
}

func TestCacheServiceGetFailure(t *testing.T) {
	repo := &memCacheRepo{values: map[string]string{}, getErr: errors.New("redis down")}
	cache := NewCacheService(repo, nil, 0, zap.NewNop(), true)

	var out string
	hit, err := cache.Get(context.Background(), "k", &out)
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestCacheServiceEvictsCorruptEntry(t *testing.T) {
	repo := &memCacheRepo{values: map[string]string{"verify:a": "x"}, getErr: fmt.Errorf("%w verify:a: bad json", repository.ErrCorruptEntry)}
	cache := NewCacheService(repo, nil, 0, nil, true)

	var out string
	hit, err := cache.Get(context.Background(), "verify:a", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []string{"verify:a"}, repo.deleted)
}
