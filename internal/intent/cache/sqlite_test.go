package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "intent_index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testArtifact() *Artifact {
	return &Artifact{
		Model:     "all-MiniLM-L6-v2",
		Dimension: 3,
		Rows: []Row{
			{Intent: "greet", Reply: "Hallo!", Example: "Hi", Vector: []float64{1, 0, 0}},
			{Intent: "greet", Reply: "Hallo!", Example: "Guten Tag", Vector: []float64{0.6, 0.8, 0}},
			{Intent: "bye", Reply: "Tschüss!", Example: "Ciao", Vector: []float64{0, 0, 1}},
		},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()

	t.Run("Save then Load preserves rows, order and vectors", func(t *testing.T) {
		s := openTestStore(t)
		want := testArtifact()
		require.NoError(t, s.Save(ctx, want))

		got, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, want.Model, got.Model)
		assert.Equal(t, want.Dimension, got.Dimension)
		require.Len(t, got.Rows, len(want.Rows))
		for i := range want.Rows {
			assert.Equal(t, want.Rows[i], got.Rows[i])
		}
	})

	t.Run("Load on an empty store reports not found", func(t *testing.T) {
		s := openTestStore(t)
		_, err := s.Load(ctx)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("Save replaces a previous artifact", func(t *testing.T) {
		s := openTestStore(t)
		require.NoError(t, s.Save(ctx, testArtifact()))

		replacement := &Artifact{
			Model:     "other-model",
			Dimension: 2,
			Rows:      []Row{{Intent: "thanks", Reply: "Gerne!", Example: "Danke", Vector: []float64{1, 0}}},
		}
		require.NoError(t, s.Save(ctx, replacement))

		got, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "other-model", got.Model)
		require.Len(t, got.Rows, 1)
		assert.Equal(t, "Danke", got.Rows[0].Example)
	})

	t.Run("Save rejects vectors of the wrong width", func(t *testing.T) {
		s := openTestStore(t)
		bad := testArtifact()
		bad.Rows[1].Vector = []float64{1}
		assert.Error(t, s.Save(ctx, bad))
	})

	t.Run("Save rejects a missing model identifier", func(t *testing.T) {
		s := openTestStore(t)
		bad := testArtifact()
		bad.Model = ""
		assert.Error(t, s.Save(ctx, bad))
	})
}
