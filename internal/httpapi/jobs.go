package httpapi

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// jobStatus is the lifecycle of an async /processing/process-async
// invocation. The spec's 202 contract only promises a job handle; this
// in-memory tracker is the minimal store backing a later status
// lookup, not a durable queue.
type jobStatus struct {
	Status string
	Error  string
}

type jobRegistry struct {
	mu   sync.Mutex
	jobs map[string]jobStatus
}

func newJobRegistry() *jobRegistry {
	return &jobRegistry{jobs: make(map[string]jobStatus)}
}

func (j *jobRegistry) create(id string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jobs[id] = jobStatus{Status: "running"}
}

func (j *jobRegistry) complete(id string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jobs[id] = jobStatus{Status: "completed"}
}

func (j *jobRegistry) fail(id string, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jobs[id] = jobStatus{Status: "failed", Error: err.Error()}
}

func (j *jobRegistry) get(id string) (jobStatus, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	s, ok := j.jobs[id]
	return s, ok
}

func newJobID() string { return uuid.NewString() }

// contextWithoutCancel detaches ctx's values from its cancellation, so
// an async job started from an HTTP request keeps running after the
// request's own context is canceled on response flush.
func contextWithoutCancel(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
