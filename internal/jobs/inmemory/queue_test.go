package inmemory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spennies/spennies/internal/jobs"
)

func TestQueuePublishAndConsume(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	seen := make(map[string]string)
	done := make(chan struct{})

	handler := func(ctx context.Context, job jobs.Job) error {
		refresh := job.(*jobs.RefreshInsightsJob)
		mu.Lock()
		seen[refresh.JobID] = refresh.UserID
		mu.Unlock()
		close(done)
		return nil
	}
	if err := q.Start(ctx, handler); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	job := &jobs.RefreshInsightsJob{UserID: "user-1", Trigger: "transaction_added"}
	if err := q.PublishRefreshInsights(ctx, job); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if job.JobID == "" {
		t.Fatal("Publish must assign a job ID")
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("job was never handled")
	}

	mu.Lock()
	if seen[job.JobID] != "user-1" {
		t.Errorf("handler saw %q, want user-1", seen[job.JobID])
	}
	mu.Unlock()

	// Job status converges to completed in the store.
	deadline := time.Now().Add(2 * time.Second)
	for {
		stored, err := store.GetJob(ctx, job.JobID)
		if err != nil {
			t.Fatalf("GetJob failed: %v", err)
		}
		if stored.Status == jobs.JobStatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in status %s", stored.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestQueueRejectsAfterClose(t *testing.T) {
	q := NewQueue(1, NewStore())
	if err := q.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	err := q.PublishRefreshInsights(context.Background(), &jobs.RefreshInsightsJob{UserID: "u"})
	if err == nil {
		t.Error("expected publish to fail on a closed queue")
	}
}

func TestStoreFiltersByUser(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	for i, userID := range []string{"a", "a", "b"} {
		job := &jobs.RefreshInsightsJob{
			JobID:  string(rune('1' + i)),
			UserID: userID,
			Status: jobs.JobStatusPending,
		}
		if err := s.SaveJob(ctx, job); err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}
	}

	got, err := s.ListJobs(ctx, jobs.JobFilter{UserID: "a"})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d jobs for user a, want 2", len(got))
	}
}
