package engine

import "time"

// Failure kinds passed to Observer.ObserveFailure
const (
	FailureUpstream      = "upstream"
	FailureDataIntegrity = "data_integrity"
)

// Observer receives measurements from the lookup and the resolver
type Observer interface {
	ObserveQueries(collection string, n int)
	ObserveResolution(basis Basis, resolved bool, elapsed time.Duration)
	ObserveFailure(kind string)
}

type noopObserver struct{}

func (noopObserver) ObserveQueries(string, int) {}
func (noopObserver) ObserveResolution(Basis, bool, time.Duration) {}
func (noopObserver) ObserveFailure(string) {}
