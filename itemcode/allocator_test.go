package itemcode

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock Code Store ---

// MockCodeStore lists and records codes in memory.
type MockCodeStore struct {
	mu      sync.Mutex
	Codes   []string
	ListErr error

	lastPrefix string
}

func (m *MockCodeStore) ListCodesWithPrefix(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastPrefix = prefix
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []string
	for _, c := range m.Codes {
		if strings.HasPrefix(c, prefix+"-") {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MockCodeStore) Commit(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Codes = append(m.Codes, code)
	return nil
}

// --- Helpers ---

func newTestAllocator(store *MockCodeStore, opts ...Option) (*Allocator, *Metrics) {
	lookup := newMockLookup(
		Category{Name: "Electrical", DisplayName: "Electrical Supplies", Parent: DefaultRoot},
		Category{Name: "Cables", DisplayName: "Cables", Parent: "Electrical"},
		Category{Name: "Blank", DisplayName: "  "},
		Category{Name: "Loop", DisplayName: "Loop", Parent: "Loop"},
	)
	metrics := NewMetrics(prometheus.NewRegistry())
	opts = append([]Option{WithMetrics(metrics)}, opts...)
	return NewAllocator(NewResolver(lookup, nil), store, nil, opts...), metrics
}

// --- Tests ---

func TestAllocate(t *testing.T) {
	testCases := []struct {
		name             string
		store            func() *MockCodeStore
		request          Request
		expected         Allocation
		expectedErr      error
		expectedCommits  []string
		expectedFallback float64
	}{
		{
			name:            "First code of a prefix",
			store:           func() *MockCodeStore { return &MockCodeStore{} },
			request:         Request{ItemGroup: "Cables"},
			expected:        Allocation{Prefix: "ELCA", Code: "ELCA-0001"},
			expectedCommits: []string{"ELCA-0001"},
		},
		{
			name: "Fills a gap",
			store: func() *MockCodeStore {
				return &MockCodeStore{Codes: []string{"EL-0001", "EL-0003", "ELCA-0002"}}
			},
			request:         Request{ItemGroup: "Electrical"},
			expected:        Allocation{Prefix: "EL", Code: "EL-0002"},
			expectedCommits: []string{"EL-0001", "EL-0003", "ELCA-0002", "EL-0002"},
		},
		{
			name: "Own code is not counted",
			store: func() *MockCodeStore {
				return &MockCodeStore{Codes: []string{"EL-0001", "EL-0002"}}
			},
			request:         Request{ItemGroup: "Electrical", ExcludeCode: "EL-0001"},
			expected:        Allocation{Prefix: "EL", Code: "EL-0001"},
			expectedCommits: []string{"EL-0001", "EL-0002", "EL-0001"},
		},
		{
			name: "Listing failure falls back to the first code",
			store: func() *MockCodeStore {
				return &MockCodeStore{ListErr: errors.New("timeout"), Codes: []string{"EL-0001"}}
			},
			request:          Request{ItemGroup: "Electrical"},
			expected:         Allocation{Prefix: "EL", Code: "EL-0001", Fallback: true},
			expectedCommits:  []string{"EL-0001", "EL-0001"},
			expectedFallback: 1,
		},
		{
			name:            "Blank display names use the default prefix",
			store:           func() *MockCodeStore { return &MockCodeStore{} },
			request:         Request{ItemGroup: "Blank"},
			expected:        Allocation{Prefix: DefaultPrefix, Code: "ITEM-0001"},
			expectedCommits: []string{"ITEM-0001"},
		},
		{
			name:        "Unknown item group",
			store:       func() *MockCodeStore { return &MockCodeStore{} },
			request:     Request{ItemGroup: "Nope"},
			expectedErr: ErrCategoryNotFound,
		},
		{
			name:        "Cyclic item group",
			store:       func() *MockCodeStore { return &MockCodeStore{} },
			request:     Request{ItemGroup: "Loop"},
			expectedErr: ErrCategoryCycle,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			store := tc.store()
			allocator, metrics := newTestAllocator(store)

			// Act
			alloc, err := allocator.Allocate(context.Background(), tc.request, store.Commit)

			// Assert
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				assert.Empty(t, store.Codes)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, alloc)
			assert.Equal(t, tc.expectedCommits, store.Codes)
			assert.Equal(t, tc.expectedFallback, testutil.ToFloat64(metrics.Fallbacks))
		})
	}
}

func TestAllocateCommitError(t *testing.T) {
	store := &MockCodeStore{}
	allocator, metrics := newTestAllocator(store)
	commitErr := errors.New("duplicate key")

	alloc, err := allocator.Allocate(context.Background(), Request{ItemGroup: "Electrical"},
		func(context.Context, string) error { return commitErr })

	assert.ErrorIs(t, err, commitErr)
	assert.Equal(t, "EL-0001", alloc.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Allocations.WithLabelValues("commit_failed")))
}

func TestAllocateSequentialCallsAreDistinct(t *testing.T) {
	store := &MockCodeStore{}
	allocator, _ := newTestAllocator(store)

	for range 3 {
		_, err := allocator.Allocate(context.Background(), Request{ItemGroup: "Electrical"}, store.Commit)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"EL-0001", "EL-0002", "EL-0003"}, store.Codes)
}

func TestPreview(t *testing.T) {
	store := &MockCodeStore{Codes: []string{"ELCA-0001"}}
	allocator, _ := newTestAllocator(store)

	first, err := allocator.Preview(context.Background(), Request{ItemGroup: "Cables"})
	require.NoError(t, err)
	second, err := allocator.Preview(context.Background(), Request{ItemGroup: "Cables"})
	require.NoError(t, err)

	assert.Equal(t, "ELCA-0002", first.Code)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"ELCA-0001"}, store.Codes)
	assert.Equal(t, "ELCA", store.lastPrefix)
}

// raceStore lets both allocations list codes before either commits.
type raceStore struct {
	MockCodeStore
	listed *sync.WaitGroup
}

func (r *raceStore) ListCodesWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	codes, err := r.MockCodeStore.ListCodesWithPrefix(ctx, prefix)
	r.listed.Done()
	r.listed.Wait()
	return codes, err
}

func TestAllocateWithoutSerializationRaces(t *testing.T) {
	listed := &sync.WaitGroup{}
	listed.Add(2)
	store := &raceStore{listed: listed}
	allocator, _ := newTestAllocator(&store.MockCodeStore)
	allocator.codes = store

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := allocator.Allocate(context.Background(), Request{ItemGroup: "Electrical"}, store.Commit)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{"EL-0001", "EL-0001"}, store.Codes)
}

func TestAllocateWithPrefixLockerIsDistinct(t *testing.T) {
	store := &MockCodeStore{}
	allocator, _ := newTestAllocator(store, WithSerializer(NewPrefixLocker()))

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := allocator.Allocate(context.Background(), Request{ItemGroup: "Electrical"}, store.Commit)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, store.Codes, 20)
	seen := map[string]bool{}
	for _, c := range store.Codes {
		assert.False(t, seen[c], "code %s allocated twice", c)
		seen[c] = true
	}
	assert.True(t, seen["EL-0020"])
}
