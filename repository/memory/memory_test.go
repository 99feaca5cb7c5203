package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/doccache/repository"
	"github.com/unkn0wn-root/doccache/repository/repotest"
)

func TestConformance(t *testing.T) {
	repotest.TestSuite(t, func(t *testing.T) repository.Repository { return New() })
}

func TestOpenerSharesTarget(t *testing.T) {
	ctx := context.Background()
	o := NewOpener()

	r1, err := o.Open(ctx, "cache")
	require.NoError(t, err)
	r2, err := o.Open(ctx, "cache")
	require.NoError(t, err)
	other, err := o.Open(ctx, "other")
	require.NoError(t, err)

	require.NoError(t, r1.Upsert(ctx, repotest.NewRecord("k", 10)))

	_, ok, err := r2.FindByCacheID(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = other.FindByCacheID(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = o.Open(ctx, "")
	assert.ErrorIs(t, err, repository.ErrEmptyTarget)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	r := New()
	require.NoError(t, r.Upsert(ctx, repotest.NewRecord("k", 10, "t")))

	got, _, err := r.FindByCacheID(ctx, "k")
	require.NoError(t, err)
	got.Data[0] = 'X'
	got.Tags[0] = "changed"

	again, _, err := r.FindByCacheID(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "payload:k", string(again.Data))
	assert.Equal(t, []string{"t"}, again.Tags)
}
