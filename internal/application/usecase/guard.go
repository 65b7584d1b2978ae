package usecase

import "golang.org/x/sync/semaphore"

// inFlight admits one mutating sequence at a time and rejects the rest.
type inFlight struct {
	sem *semaphore.Weighted
}

func newInFlight() *inFlight {
	return &inFlight{sem: semaphore.NewWeighted(1)}
}

// enter returns a release func, or ErrOperationInProgress when busy.
func (g *inFlight) enter() (func(), error) {
	if !g.sem.TryAcquire(1) {
		return nil, ErrOperationInProgress
	}
	return func() { g.sem.Release(1) }, nil
}
