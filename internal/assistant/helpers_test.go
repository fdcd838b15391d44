package assistant

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spennies/spennies/internal/domain"
	"github.com/spennies/spennies/internal/jobs"
	"github.com/spennies/spennies/internal/store"
)

// fakeCompleter serves canned responses in order, repeating the last one.
// A non-nil err fails every call.
type fakeCompleter struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", nil
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakePublisher records published jobs.
type fakePublisher struct {
	mu   sync.Mutex
	jobs []*jobs.RefreshInsightsJob
}

func (p *fakePublisher) PublishRefreshInsights(ctx context.Context, job *jobs.RefreshInsightsJob) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, job)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) published() []*jobs.RefreshInsightsJob {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*jobs.RefreshInsightsJob(nil), p.jobs...)
}

// mapCache is an in-process ResponseCache for tests.
type mapCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]string)}
}

func (c *mapCache) Get(ctx context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *mapCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

func (c *mapCache) Delete(ctx context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestUser(t *testing.T, s *store.SQLiteStore) *domain.User {
	t.Helper()
	now := time.Now().UTC()
	u := &domain.User{
		ID:            uuid.NewString(),
		Email:         uuid.NewString() + "@example.com",
		Name:          "Ravi",
		JobType:       "driver",
		Language:      "en",
		AITone:        "friendly",
		SavingsTarget: 5000,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return u
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func newTestDispatcher(s *store.SQLiteStore, gw *fakeCompleter) *Dispatcher {
	log := testLogger()
	return NewDispatcher(s, NewCategorizer(gw, log), NewChatResponder(gw, log), log)
}
