package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/rab-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "rab")
	ctx := context.Background()

	var out map[string]string
	require.ErrorIs(t, repo.Get(ctx, "verify:a", &out), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "verify:a", map[string]string{"a": "b"}, time.Minute))
	assert.NoError(t, repo.Delete(ctx, "verify:a"))
	assert.NoError(t, repo.Close())
}

func TestCacheRepositoryKeyNamespace(t *testing.T) {
	assert.Equal(t, "rab:verify:a", NewCacheRepository(nil, "rab").key("verify:a"))
	assert.Equal(t, "verify:a", NewCacheRepository(nil, "").key("verify:a"))
}
