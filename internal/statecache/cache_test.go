package statecache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRowFetcher counts calls per (state, kind) and serves canned rows.
type fakeRowFetcher struct {
	mu    sync.Mutex
	calls map[string]int
	rows  map[string][]Row
	fail  map[string]bool
}

func newFakeRowFetcher() *fakeRowFetcher {
	return &fakeRowFetcher{
		calls: make(map[string]int),
		rows:  make(map[string][]Row),
		fail:  make(map[string]bool),
	}
}

func (f *fakeRowFetcher) key(state string, kind Kind) string {
	return state + "/" + string(kind)
}

func (f *fakeRowFetcher) FetchRows(_ context.Context, state string, kind Kind) ([]Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.key(state, kind)
	f.calls[k]++
	if f.fail[k] {
		return nil, eris.New("boom")
	}
	return f.rows[k], nil
}

func (f *fakeRowFetcher) callCount(state string, kind Kind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[f.key(state, kind)]
}

func TestLoadCachesOnce(t *testing.T) {
	fake := newFakeRowFetcher()
	fake.rows["NV/county"] = []Row{{"county_fips": int64(32031)}}
	fake.rows["NV/zip"] = []Row{{"zipcode": int64(89501)}}

	cache := New(fake)

	ok, err := cache.Load(context.Background(), "NV")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cache.Load(context.Background(), "NV")
	require.NoError(t, err)
	assert.True(t, ok)

	// Exactly one underlying fetch per file despite two Load calls.
	assert.Equal(t, 1, fake.callCount("NV", KindCounty))
	assert.Equal(t, 1, fake.callCount("NV", KindZip))
	assert.Equal(t, 1, fake.callCount("NV", KindTract))
}

func TestLoadLowercaseStateNormalized(t *testing.T) {
	fake := newFakeRowFetcher()
	cache := New(fake)

	_, err := cache.Load(context.Background(), "nv")
	require.NoError(t, err)

	_, ok := cache.Get("NV")
	assert.True(t, ok)
	assert.Equal(t, 1, fake.callCount("NV", KindCounty))
}

func TestLoadUnknownGeography(t *testing.T) {
	cache := New(newFakeRowFetcher())

	_, err := cache.Load(context.Background(), "Nevada")
	assert.Error(t, err)

	_, err = cache.Load(context.Background(), "")
	assert.Error(t, err)
}

func TestLoadPartialFileFailure(t *testing.T) {
	fake := newFakeRowFetcher()
	fake.rows["CA/county"] = []Row{{"county_fips": int64(6037)}}
	fake.fail["CA/tract"] = true

	cache := New(fake)
	ok, err := cache.Load(context.Background(), "CA")
	require.NoError(t, err)
	assert.True(t, ok)

	entry, found := cache.Get("CA")
	require.True(t, found)
	assert.Len(t, entry.Counties, 1)
	assert.Empty(t, entry.Tracts) // failed file degrades to empty, entry still cached

	// The failed file is not refetched until eviction.
	_, err = cache.Load(context.Background(), "CA")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.callCount("CA", KindTract))
}

func TestConcurrentLoadsShareOneFetch(t *testing.T) {
	fake := newFakeRowFetcher()
	cache := New(fake)

	var wg sync.WaitGroup
	var errs atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(context.Background(), "TX"); err != nil {
				errs.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, errs.Load())
	assert.Equal(t, 1, fake.callCount("TX", KindCounty))
	assert.Equal(t, 1, fake.callCount("TX", KindZip))
	assert.Equal(t, 1, fake.callCount("TX", KindTract))
}

func TestClearAllowsRefetch(t *testing.T) {
	fake := newFakeRowFetcher()
	cache := New(fake)

	_, err := cache.Load(context.Background(), "NV")
	require.NoError(t, err)
	cache.Clear("NV")

	_, err = cache.Load(context.Background(), "NV")
	require.NoError(t, err)
	assert.Equal(t, 2, fake.callCount("NV", KindCounty))
}

func TestClearAll(t *testing.T) {
	fake := newFakeRowFetcher()
	cache := New(fake)

	_, _ = cache.Load(context.Background(), "NV")
	_, _ = cache.Load(context.Background(), "CA")
	cache.ClearAll()

	_, ok := cache.Get("NV")
	assert.False(t, ok)
	_, ok = cache.Get("CA")
	assert.False(t, ok)
}

func TestStats(t *testing.T) {
	fake := newFakeRowFetcher()
	fake.rows["NV/county"] = []Row{{"a": "1"}, {"a": "2"}}
	fake.rows["NV/zip"] = []Row{{"zipcode": int64(89501)}}

	cache := New(fake)
	_, err := cache.Load(context.Background(), "NV")
	require.NoError(t, err)

	stats := cache.Stats()
	require.Contains(t, stats, "NV")
	assert.Equal(t, 2, stats["NV"].Counties)
	assert.Equal(t, 1, stats["NV"].Zips)
	assert.Zero(t, stats["NV"].Tracts)
	assert.False(t, stats["NV"].LoadedAt.IsZero())
}
