package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/VoidMesh/terrain/internal/logging"
	"github.com/VoidMesh/terrain/internal/store"
	"github.com/VoidMesh/terrain/internal/terrain"
	"github.com/VoidMesh/terrain/internal/testmocks"
	mockterrain "github.com/VoidMesh/terrain/internal/testmocks/terrain"
	"github.com/VoidMesh/terrain/internal/testutil"
)

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-1, store.DefaultListLimit},
		{0, store.DefaultListLimit},
		{1, 1},
		{120, 120},
		{store.MaxListLimit + 1, store.MaxListLimit},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, store.ClampLimit(tt.in), "limit %d", tt.in)
	}
}

func TestLoggingStore_Delegates(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	ctrl := testmocks.NewMockController(t)
	inner := mockterrain.NewMockStore(ctrl.Controller)

	rec := terrain.Record{ID: uuid.New(), Heights: []byte{1, 2, 3}}
	listed := []terrain.Record{rec}
	failure := errors.New("locked")

	gomock.InOrder(
		inner.EXPECT().Save(gomock.Any(), rec).Return(nil),
		inner.EXPECT().Get(gomock.Any(), rec.ID).Return(rec, nil),
		inner.EXPECT().List(gomock.Any(), 5).Return(listed, nil),
		inner.EXPECT().Save(gomock.Any(), rec).Return(failure),
	)

	ls := store.NewLoggingStore(inner, "mock", logging.NewDefaultWrapper())

	require.NoError(t, ls.Save(context.Background(), rec))

	got, err := ls.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	records, err := ls.List(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, listed, records)

	assert.ErrorIs(t, ls.Save(context.Background(), rec), failure)
}
