package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioDashboard/internal/session"
)

func openTestDB(t *testing.T) DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, InitSchema(context.Background(), db))
	return db
}

func TestSessionStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(openTestDB(t))

	_, ok, err := store.Load(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	st, err := session.New(7, []string{"Apple", "Gold"}).Save("mine", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, st))

	got, ok, err := store.Load(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, st.Weights, got.Weights)
	assert.Equal(t, st.Assets, got.Assets)
	require.Len(t, got.Saved, 1)
	assert.Equal(t, "mine", got.Saved[0].Name)
	assert.True(t, st.Saved[0].SavedAt.Equal(got.Saved[0].SavedAt))

	st = st.ClearWeights()
	require.NoError(t, store.Save(ctx, st))
	got, _, err = store.Load(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Total(), "save overwrites")
}

func TestSessionStore_Update(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(openTestDB(t))
	fresh := func() session.State { return session.New(0, []string{"Apple", "Gold"}) }

	st, err := store.Update(ctx, 3, fresh, func(s session.State) (session.State, error) {
		return s.SetWeight("Apple", 70, 5)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.ChatID)
	assert.Equal(t, 70, st.Weights["Apple"])

	boom := errors.New("boom")
	_, err = store.Update(ctx, 3, fresh, func(s session.State) (session.State, error) {
		return s.ClearWeights(), boom
	})
	assert.ErrorIs(t, err, boom)

	got, _, err := store.Load(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 70, got.Weights["Apple"], "failed transition is not saved")
}

func TestSessionStore_UpdateSerializesPerChat(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(openTestDB(t))
	fresh := func() session.State { return session.New(0, []string{"Apple"}).ClearWeights() }

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, 1, fresh, func(s session.State) (session.State, error) {
				return s.SetWeight("Apple", s.Weights["Apple"]+5, 5)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, _, err := store.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 100, got.Weights["Apple"])
}

func TestUsageLog(t *testing.T) {
	ctx := context.Background()
	log := NewUsageLog(openTestDB(t))

	day := int64(1_700_000_000 / 86400 * 86400)
	require.NoError(t, log.Record(ctx, 1, 1, "/perf", "analysis", day+10))
	require.NoError(t, log.Record(ctx, 1, 1, "/perf", "analysis", day+20))
	require.NoError(t, log.Record(ctx, 1, 1, "/bench", "analysis", day+86400+5))
	require.NoError(t, log.Record(ctx, 2, 2, "/set", "session", day+30))
	require.NoError(t, log.Record(ctx, 2, 2, "/set", "session", day-86400))

	stats, err := log.Stats(ctx, day)
	require.NoError(t, err)
	require.Contains(t, stats, "analysis")
	assert.Equal(t, 3, stats["analysis"].Count)
	assert.Equal(t, 2, stats["analysis"].Commands["/perf"])
	assert.Equal(t, 1, stats["session"].Count)

	series, err := log.TimeSeries(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, []TimeSeriesPoint{{day, 2}, {day + 86400, 1}}, series["analysis"])
}
