package engine

import (
	"context"
	"sync"
	"time"
)

// fakeStore answers searches from fixed per-token tables
type fakeStore struct {
	mu sync.Mutex

	mohallas map[string][]MohallaCandidate
	wards    map[string][]WardCandidate
	byID     map[int64]Ward

	mohallaErr map[string]error
	wardErr    map[string]error
	getErr     error

	mohallaCalls []string
	wardCalls    []string
	cities       []string
	getCalls     []int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		mohallas:   map[string][]MohallaCandidate{},
		wards:      map[string][]WardCandidate{},
		byID:       map[int64]Ward{},
		mohallaErr: map[string]error{},
		wardErr:    map[string]error{},
	}
}

func (f *fakeStore) SearchMohallasFuzzy(_ context.Context, query, city string) ([]MohallaCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mohallaCalls = append(f.mohallaCalls, query)
	f.cities = append(f.cities, city)
	if err := f.mohallaErr[query]; err != nil {
		return nil, err
	}
	return f.mohallas[query], nil
}

func (f *fakeStore) SearchWardsPhonetic(_ context.Context, query, city string) ([]WardCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wardCalls = append(f.wardCalls, query)
	f.cities = append(f.cities, city)
	if err := f.wardErr[query]; err != nil {
		return nil, err
	}
	return f.wards[query], nil
}

func (f *fakeStore) GetWardByID(_ context.Context, id int64) (Ward, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls = append(f.getCalls, id)
	if f.getErr != nil {
		return Ward{}, false, f.getErr
	}
	w, ok := f.byID[id]
	return w, ok, nil
}

type recordingObserver struct {
	mu         sync.Mutex
	queries    map[string]int
	resolved   []Basis
	failures   []string
	unresolved int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{queries: map[string]int{}}
}

func (o *recordingObserver) ObserveQueries(collection string, n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queries[collection] += n
}

func (o *recordingObserver) ObserveResolution(basis Basis, resolved bool, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !resolved {
		o.unresolved++
		return
	}
	o.resolved = append(o.resolved, basis)
}

func (o *recordingObserver) ObserveFailure(kind string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures = append(o.failures, kind)
}
