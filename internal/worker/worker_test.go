package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestQueue(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestJobQueue_Enqueue(t *testing.T) {
	client, _ := setupTestQueue(t)
	queue := NewJobQueue(client)

	if err := queue.Enqueue(CleanupQueueName, JobTypeBlobCleanup, map[string]interface{}{"handle": "ab/cd.bin"}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	size, err := queue.GetQueueSize(CleanupQueueName)
	if err != nil {
		t.Fatalf("GetQueueSize failed: %v", err)
	}
	if size != 1 {
		t.Errorf("expected queue size 1, got %d", size)
	}

	ctx := context.Background()
	raw, err := client.LPop(ctx, CleanupQueueName).Result()
	if err != nil {
		t.Fatalf("LPop failed: %v", err)
	}
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		t.Fatalf("unmarshal job: %v", err)
	}
	if job.Type != JobTypeBlobCleanup {
		t.Errorf("expected job type %s, got %s", JobTypeBlobCleanup, job.Type)
	}
	if job.Payload["handle"] != "ab/cd.bin" {
		t.Errorf("unexpected payload: %v", job.Payload)
	}
	if job.MaxTries != 3 {
		t.Errorf("expected 3 max tries, got %d", job.MaxTries)
	}
}

func TestJobQueue_EnqueueBlobCleanup(t *testing.T) {
	client, _ := setupTestQueue(t)
	queue := NewJobQueue(client)

	if err := queue.EnqueueBlobCleanup("ef/gh.dat"); err != nil {
		t.Fatalf("EnqueueBlobCleanup failed: %v", err)
	}

	size, err := queue.GetQueueSize(CleanupQueueName)
	if err != nil {
		t.Fatalf("GetQueueSize failed: %v", err)
	}
	if size != 1 {
		t.Errorf("expected queue size 1, got %d", size)
	}
}

func TestJobQueue_GetQueueSizeEmpty(t *testing.T) {
	client, _ := setupTestQueue(t)
	queue := NewJobQueue(client)

	size, err := queue.GetQueueSize("nonexistent")
	if err != nil {
		t.Fatalf("GetQueueSize failed: %v", err)
	}
	if size != 0 {
		t.Errorf("expected empty queue, got %d", size)
	}
}

type fakeBlobStore struct {
	mu      sync.Mutex
	deleted []string
	fail    bool
}

func (f *fakeBlobStore) Store(handle string, r io.Reader) error { return nil }
func (f *fakeBlobStore) Open(handle string) (io.ReadCloser, error) {
	return nil, errors.New("not stored")
}
func (f *fakeBlobStore) Delete(handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("disk unavailable")
	}
	f.deleted = append(f.deleted, handle)
	return nil
}

func (f *fakeBlobStore) deletedHandles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func TestWorker_ProcessesBlobCleanup(t *testing.T) {
	client, _ := setupTestQueue(t)
	blobs := &fakeBlobStore{}

	w := NewWorker(client, []string{CleanupQueueName})
	w.RegisterBlobCleanup(blobs)

	queue := NewJobQueue(client)
	if err := queue.EnqueueBlobCleanup("ij/kl.png"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	w.Start(1)
	defer w.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(blobs.deletedHandles()) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	deleted := blobs.deletedHandles()
	if len(deleted) != 1 || deleted[0] != "ij/kl.png" {
		t.Errorf("expected blob ij/kl.png deleted, got %v", deleted)
	}
}

func TestWorker_BlobCleanupMissingHandle(t *testing.T) {
	client, _ := setupTestQueue(t)
	blobs := &fakeBlobStore{}

	w := NewWorker(client, []string{CleanupQueueName})
	w.RegisterBlobCleanup(blobs)

	job := &Job{
		ID:       "test-job",
		Type:     JobTypeBlobCleanup,
		Payload:  map[string]interface{}{},
		MaxTries: 3,
	}
	if err := w.executeJob(job); err == nil {
		t.Error("expected error for job without handle")
	}
	if len(blobs.deletedHandles()) != 0 {
		t.Error("no blob should have been deleted")
	}
}

func TestWorker_FailedJobGoesToRetryQueue(t *testing.T) {
	client, _ := setupTestQueue(t)
	blobs := &fakeBlobStore{fail: true}

	w := NewWorker(client, []string{CleanupQueueName})
	w.RegisterBlobCleanup(blobs)

	job := &Job{
		ID:       "retry-job",
		Type:     JobTypeBlobCleanup,
		Payload:  map[string]interface{}{"handle": "mn/op.bin"},
		Attempts: 0,
		MaxTries: 3,
	}
	if err := w.executeJob(job); err != nil {
		t.Fatalf("executeJob should requeue, not fail: %v", err)
	}

	size, err := client.LLen(context.Background(), retryQueueName).Result()
	if err != nil {
		t.Fatalf("LLen: %v", err)
	}
	if size != 1 {
		t.Errorf("expected 1 job in retry queue, got %d", size)
	}

	raw, _ := client.LPop(context.Background(), retryQueueName).Result()
	var requeued Job
	if err := json.Unmarshal([]byte(raw), &requeued); err != nil {
		t.Fatalf("unmarshal requeued job: %v", err)
	}
	if requeued.Attempts != 1 {
		t.Errorf("expected 1 attempt recorded, got %d", requeued.Attempts)
	}
	if !requeued.ProcessAt.After(time.Now()) {
		t.Error("requeued job should be scheduled for the future")
	}
}

func TestWorker_ExhaustedJobGoesToDeadQueue(t *testing.T) {
	client, _ := setupTestQueue(t)
	blobs := &fakeBlobStore{fail: true}

	w := NewWorker(client, []string{CleanupQueueName})
	w.RegisterBlobCleanup(blobs)

	job := &Job{
		ID:       "doomed-job",
		Type:     JobTypeBlobCleanup,
		Payload:  map[string]interface{}{"handle": "qr/st.bin"},
		Attempts: 2,
		MaxTries: 3,
	}
	if err := w.executeJob(job); err != nil {
		t.Fatalf("executeJob should park the job, not fail: %v", err)
	}

	size, err := client.LLen(context.Background(), deadQueueName).Result()
	if err != nil {
		t.Fatalf("LLen: %v", err)
	}
	if size != 1 {
		t.Errorf("expected 1 job in dead queue, got %d", size)
	}
}

func TestWorker_UnknownJobType(t *testing.T) {
	client, _ := setupTestQueue(t)

	w := NewWorker(client, []string{CleanupQueueName})

	job := &Job{ID: "mystery", Type: "compact_segments", MaxTries: 1}
	if err := w.executeJob(job); err == nil {
		t.Error("expected error for unregistered job type")
	}
}
