package section

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, counts map[ID]*int) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, id := range []ID{Overview, Containers, Items, Placement, SearchRetrieve, Waste, Simulation, ImportExport, Logs} {
		n := new(int)
		if counts != nil {
			counts[id] = n
		}
		require.NoError(t, r.Register(id, string(id), func() { *n++ }))
	}
	return r
}

func activeCount(r *Registry) int {
	count := 0
	for _, id := range r.IDs() {
		if r.IsActive(id) {
			count++
		}
	}
	return count
}

func TestRegistry_ExactlyOneActiveAcrossActivations(t *testing.T) {
	r := newTestRegistry(t, nil)
	assert.Equal(t, 0, activeCount(r))

	ids := r.IDs()
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		id := ids[rng.Intn(len(ids))]
		tok, err := r.Activate(id)
		require.NoError(t, err)
		assert.Equal(t, 1, activeCount(r), "after activating %s", id)
		assert.Equal(t, id, r.Active())
		r.Finish(tok, nil)
	}
}

func TestRegistry_InitRunsAtMostOnce(t *testing.T) {
	counts := map[ID]*int{}
	r := newTestRegistry(t, counts)

	for i := 0; i < 5; i++ {
		for _, id := range r.IDs() {
			tok, err := r.Activate(id)
			require.NoError(t, err)
			r.Finish(tok, nil)
		}
	}
	for id, n := range counts {
		assert.Equal(t, 1, *n, "init count for %s", id)
		assert.True(t, r.Initialized(id))
	}
}

func TestRegistry_InitMayReenterRegistry(t *testing.T) {
	r := NewRegistry()
	var seenActive ID
	require.NoError(t, r.Register(Items, "Items", func() { seenActive = r.Active() }))

	tok, err := r.Activate(Items)
	require.NoError(t, err)
	r.Finish(tok, nil)
	assert.Equal(t, Items, seenActive)
}

func TestRegistry_TokenReleasedExactlyOnce(t *testing.T) {
	r := newTestRegistry(t, nil)

	tok, err := r.Activate(Containers)
	require.NoError(t, err)
	assert.True(t, r.Loading(Containers), "indicator attached before any request")
	assert.Equal(t, StatusLoading, r.Status(Containers))

	assert.True(t, r.Finish(tok, errors.New("boom")))
	assert.False(t, r.Loading(Containers))
	assert.Equal(t, StatusError, r.Status(Containers))
	assert.EqualError(t, r.LastError(Containers), "boom")

	assert.False(t, r.Finish(tok, nil), "second release is a no-op")
	assert.Equal(t, 0, r.InFlight(Containers))
	assert.Equal(t, StatusError, r.Status(Containers))

	assert.False(t, r.Finish(nil, nil))
}

func TestRegistry_OverlappingLoadsKeepNewestGeneration(t *testing.T) {
	r := newTestRegistry(t, nil)

	first, err := r.Activate(Items)
	require.NoError(t, err)
	second, err := r.Activate(Items)
	require.NoError(t, err)
	assert.Equal(t, 2, r.InFlight(Items))
	assert.Greater(t, second.Generation(), first.Generation())

	assert.True(t, r.Finish(second, nil), "newest generation is fresh")
	assert.True(t, r.Loading(Items), "older load still holds the indicator")

	assert.False(t, r.Finish(first, errors.New("late failure")), "stale generation is not rendered")
	assert.False(t, r.Loading(Items))
	assert.Equal(t, StatusSuccess, r.Status(Items), "stale failure does not overwrite status")
	assert.NoError(t, r.LastError(Items))
}

func TestRegistry_BackgroundLoadSurvivesSwitch(t *testing.T) {
	r := newTestRegistry(t, nil)

	tok, err := r.Activate(Logs)
	require.NoError(t, err)
	other, err := r.Activate(Waste)
	require.NoError(t, err)

	assert.True(t, r.Finish(tok, nil), "hidden section still records its result")
	assert.Equal(t, StatusSuccess, r.Status(Logs))
	assert.Equal(t, Waste, r.Active())
	r.Finish(other, nil)
}

func TestRegistry_RandomizedTokensNeverLeak(t *testing.T) {
	r := newTestRegistry(t, nil)
	ids := r.IDs()
	rng := rand.New(rand.NewSource(42))

	var open []*Token
	for i := 0; i < 500; i++ {
		switch rng.Intn(3) {
		case 0:
			tok, err := r.Activate(ids[rng.Intn(len(ids))])
			require.NoError(t, err)
			open = append(open, tok)
		case 1:
			tok, err := r.Begin(ids[rng.Intn(len(ids))])
			require.NoError(t, err)
			open = append(open, tok)
		default:
			if len(open) == 0 {
				continue
			}
			idx := rng.Intn(len(open))
			var failure error
			if rng.Intn(2) == 0 {
				failure = errors.New("x")
			}
			r.Finish(open[idx], failure)
			r.Finish(open[idx], nil)
			open = append(open[:idx], open[idx+1:]...)
		}
	}
	for _, tok := range open {
		r.Finish(tok, nil)
	}
	for _, id := range ids {
		assert.Equal(t, 0, r.InFlight(id), "section %s", id)
		assert.NotEqual(t, StatusLoading, r.Status(id), "section %s", id)
	}
}

func TestRegistry_UnknownSection(t *testing.T) {
	r := newTestRegistry(t, nil)
	tok, err := r.Activate(Containers)
	require.NoError(t, err)
	r.Finish(tok, nil)

	_, err = r.Activate("bogus")
	require.ErrorIs(t, err, ErrUnknownSection)
	assert.Equal(t, Containers, r.Active(), "failed activation leaves router usable")

	_, err = r.Begin("bogus")
	require.ErrorIs(t, err, ErrUnknownSection)
}

func TestRegistry_RegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Items, "", nil))
	require.Error(t, r.Register(Items, "Items", nil))
	assert.Equal(t, "items", r.Title(Items))
}

func TestRegistry_NextWraps(t *testing.T) {
	r := newTestRegistry(t, nil)
	assert.Equal(t, Overview, r.Next(0))

	tok, err := r.Activate(Logs)
	require.NoError(t, err)
	r.Finish(tok, nil)
	assert.Equal(t, Overview, r.Next(1))
	assert.Equal(t, ImportExport, r.Next(-1))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "idle", StatusIdle.String())
	assert.Equal(t, "loading", StatusLoading.String())
	assert.Equal(t, "success", StatusSuccess.String())
	assert.Equal(t, "error", StatusError.String())
}
