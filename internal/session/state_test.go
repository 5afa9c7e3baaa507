package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var assets = []string{"Apple", "Gold", "Bitcoin", "US Long-Term Treasury"}

func TestNew_DefaultWeights(t *testing.T) {
	s := New(42, assets)
	assert.Equal(t, int64(42), s.ChatID)
	for _, a := range assets {
		assert.Equal(t, 25, s.Weights[a])
	}
	assert.True(t, s.Complete())

	three := New(1, []string{"A", "B", "C"})
	assert.Equal(t, 33, three.Weights["A"])
	assert.Equal(t, 99, three.Total())
	assert.False(t, three.Complete())

	assert.Equal(t, 0, New(1, nil).Total())
}

func TestSetWeight(t *testing.T) {
	s := New(1, assets)

	next, err := s.SetWeight("gold", 40, 5)
	require.NoError(t, err)
	assert.Equal(t, 40, next.Weights["Gold"])
	assert.Equal(t, 25, s.Weights["Gold"], "receiver is not mutated")

	next, err = next.SetWeight("US Long", 10, 5)
	require.NoError(t, err)
	assert.Equal(t, 10, next.Weights["US Long-Term Treasury"])
	assert.Equal(t, 100, next.Total())

	_, err = s.SetWeight("Tesla", 10, 5)
	assert.ErrorIs(t, err, ErrUnknownAsset)
	_, err = s.SetWeight("Apple", 101, 5)
	assert.ErrorIs(t, err, ErrWeightRange)
	_, err = s.SetWeight("Apple", -5, 5)
	assert.ErrorIs(t, err, ErrWeightRange)
	_, err = s.SetWeight("Apple", 33, 5)
	assert.ErrorIs(t, err, ErrWeightStep)

	_, err = s.SetWeight("Apple", 33, 0)
	assert.NoError(t, err, "step 0 disables the check")
}

func TestSetWeight_AmbiguousPrefix(t *testing.T) {
	s := New(1, []string{"Samsung Electronics", "Samsung Biologics"})
	_, err := s.SetWeight("Samsung", 50, 5)
	assert.ErrorIs(t, err, ErrUnknownAsset)
}

func TestEqualAndClear(t *testing.T) {
	s, err := New(1, assets).SetWeight("Apple", 100, 5)
	require.NoError(t, err)

	cleared := s.ClearWeights()
	assert.Equal(t, 0, cleared.Total())
	assert.Empty(t, cleared.Held())

	eq := cleared.EqualWeights()
	assert.Equal(t, 100, eq.Total())
}

func TestHeldAndWeightVector(t *testing.T) {
	s := New(1, assets).ClearWeights()
	s, _ = s.SetWeight("Bitcoin", 60, 5)
	s, _ = s.SetWeight("Apple", 40, 5)

	assert.Equal(t, []Holding{{"Apple", 40}, {"Bitcoin", 60}}, s.Held())
	assert.Equal(t, []float64{0.6, 0, 0.4}, s.WeightVector([]string{"Bitcoin", "Unknown", "Apple"}))
}

func TestSaveLoadDelete(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := New(1, assets)

	saved, err := s.Save("  Balanced ", now)
	require.NoError(t, err)
	require.Len(t, saved.Saved, 1)
	assert.Equal(t, "Balanced", saved.Saved[0].Name)
	assert.NotEmpty(t, saved.Saved[0].ID)
	assert.Equal(t, now, saved.Saved[0].SavedAt)
	assert.Empty(t, s.Saved, "receiver is not mutated")

	changed := saved.ClearWeights()
	changed, _ = changed.SetWeight("Gold", 100, 5)
	resaved, err := changed.Save("balanced", now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, resaved.Saved, 1, "same name replaces")
	assert.Equal(t, saved.Saved[0].ID, resaved.Saved[0].ID)

	loaded, err := saved.ClearWeights().Load("BALANCED")
	require.NoError(t, err)
	assert.Equal(t, 25, loaded.Weights["Apple"])

	deleted, err := resaved.Delete("Balanced")
	require.NoError(t, err)
	assert.Empty(t, deleted.Saved)

	_, err = deleted.Load("Balanced")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = deleted.Delete("Balanced")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSave_Rejects(t *testing.T) {
	s := New(1, assets)
	_, err := s.Save(" ", time.Now())
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = s.ClearWeights().Save("x", time.Now())
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestLoad_IgnoresRemovedAssets(t *testing.T) {
	s, err := New(1, assets).Save("p", time.Now())
	require.NoError(t, err)

	shrunk := s.WithAssets([]string{"Apple", "Tesla"})
	assert.Equal(t, 25, shrunk.Weights["Apple"])
	assert.Equal(t, 0, shrunk.Weights["Tesla"])

	loaded, err := shrunk.Load("p")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Apple": 25, "Tesla": 0}, loaded.Weights)
}

func TestSavedNames(t *testing.T) {
	s := New(1, assets)
	s, _ = s.Save("zeta", time.Now())
	s, _ = s.Save("alpha", time.Now())
	assert.Equal(t, []string{"alpha", "zeta"}, s.SavedNames())
}
