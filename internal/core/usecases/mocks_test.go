// internal/core/usecases/mocks_test.go
package usecases

import (
	"context"
	"errors"
	"sync"
	"time"

	"recondragon/internal/core/domain"
	"recondragon/internal/core/ports"
)

// mockModule es un mock de ports.Module para tests del orchestrator.
type mockModule struct {
	name       string
	version    string
	invokeFunc func(ctx context.Context, inv domain.Invocation) (*domain.Result, error)

	mu          sync.Mutex
	invocations []domain.Invocation
}

func newMockModule(name string) *mockModule {
	return &mockModule{name: name, version: "1.0.0"}
}

func (m *mockModule) Name() string    { return m.name }
func (m *mockModule) Version() string { return m.version }
func (m *mockModule) Close() error    { return nil }

func (m *mockModule) Invoke(ctx context.Context, inv domain.Invocation) (*domain.Result, error) {
	m.mu.Lock()
	m.invocations = append(m.invocations, inv)
	m.mu.Unlock()

	if m.invokeFunc != nil {
		return m.invokeFunc(ctx, inv)
	}

	if !inv.Execute {
		return domain.NewPlannedResult(m.name, m.version, inv.Target, []string{m.name, inv.Target}, "scan "+inv.Target), nil
	}
	res := domain.NewResult(m.name, m.version, inv.Target)
	res.Summary["hosts"] = 1
	return res.Finish(true), nil
}

func (m *mockModule) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.invocations)
}

func (m *mockModule) lastInvocation() domain.Invocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.invocations) == 0 {
		return domain.Invocation{}
	}
	return m.invocations[len(m.invocations)-1]
}

// failingModule retorna un mock que siempre falla con el error dado.
func failingModule(name string, err error) *mockModule {
	m := newMockModule(name)
	m.invokeFunc = func(ctx context.Context, inv domain.Invocation) (*domain.Result, error) {
		res := domain.NewResult(name, m.version, inv.Target)
		res.SetError(err.Error())
		return res.Finish(false), err
	}
	return m
}

// memoryStore es un JobStore en memoria para tests.
type memoryStore struct {
	mu      sync.Mutex
	jobs    map[string]*domain.Job
	records map[string]map[string]*domain.ModuleExecutionRecord
	upserts int

	failCreate bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		jobs:    make(map[string]*domain.Job),
		records: make(map[string]map[string]*domain.ModuleExecutionRecord),
	}
}

func (s *memoryStore) CreateJob(ctx context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return errors.New("store unavailable")
	}
	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

func (s *memoryStore) UpdateJobStatus(ctx context.Context, jobID string, status domain.JobStatus, startedAt, endedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[jobID]; ok {
		job.Status = status
		job.StartedAt = startedAt
		job.EndedAt = endedAt
	}
	return nil
}

func (s *memoryStore) UpsertModuleRecord(ctx context.Context, jobID string, rec *domain.ModuleExecutionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[jobID]; !ok {
		s.records[jobID] = make(map[string]*domain.ModuleExecutionRecord)
	}
	copied := *rec
	s.records[jobID][rec.Module] = &copied
	s.upserts++
	return nil
}

func (s *memoryStore) ReadJob(ctx context.Context, jobID string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[jobID]; ok {
		copied := *job
		return &copied, nil
	}
	return nil, errors.New("job not found")
}

func (s *memoryStore) ReadModuleRecords(ctx context.Context, jobID string) ([]*domain.ModuleExecutionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.ModuleExecutionRecord
	for _, rec := range s.records[jobID] {
		copied := *rec
		out = append(out, &copied)
	}
	return out, nil
}

func (s *memoryStore) Close() error { return nil }

func (s *memoryStore) record(jobID, module string) *domain.ModuleExecutionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if recs, ok := s.records[jobID]; ok {
		return recs[module]
	}
	return nil
}

func (s *memoryStore) jobStatus(jobID string) domain.JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[jobID]; ok {
		return job.Status
	}
	return ""
}

// memorySink es un ArtifactSink en memoria que prefija los locators.
type memorySink struct {
	mu     sync.Mutex
	stored []string
}

func (s *memorySink) Store(ctx context.Context, jobID, module, name string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	locator := "mem://" + jobID + "/" + module + "/" + name
	s.stored = append(s.stored, locator)
	return locator, nil
}

func (s *memorySink) StoreFile(ctx context.Context, jobID, module, path string) (string, error) {
	return s.Store(ctx, jobID, module, path, nil)
}

// recordingNotifier captura todos los eventos emitidos. Con delay > 0 simula
// un observer lento.
type recordingNotifier struct {
	mu     sync.Mutex
	events []ports.Event
	delay  time.Duration
}

func (n *recordingNotifier) Notify(ctx context.Context, event ports.Event) error {
	if n.delay > 0 {
		time.Sleep(n.delay)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) Close() error { return nil }

func (n *recordingNotifier) all() []ports.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]ports.Event, len(n.events))
	copy(out, n.events)
	return out
}

func (n *recordingNotifier) eventsOfType(t ports.EventType) []ports.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []ports.Event
	for _, e := range n.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
