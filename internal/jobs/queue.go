package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scribeflow/scribeflow/pkg/log"
)

// Executor runs one processing attempt and returns its outputs. It borrows
// the work item for the duration of the attempt; the durable record stays
// with the queue.
type Executor func(ctx context.Context, item WorkItem) (*Result, error)

// Queue owns the job map and a fixed worker pool. Each enqueued job is
// picked up by exactly one worker execution; a job that already reached a
// terminal state is never re-run.
type Queue struct {
	workerCount int
	store       Store

	mu         sync.RWMutex
	jobs       map[string]*Job
	started    bool
	pendingIDs chan string
	stopCh     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

func NewQueue(workerCount int, store Store) *Queue {
	if workerCount <= 0 {
		workerCount = 1
	}
	q := &Queue{
		workerCount: workerCount,
		store:       store,
		jobs:        make(map[string]*Job),
		pendingIDs:  make(chan string, 1024),
		stopCh:      make(chan struct{}),
	}
	q.hydrateFromStore(context.Background())
	return q
}

// Enqueue creates the durable job record in pending state and schedules a
// work item for it. The returned snapshot carries the generated job ID.
func (q *Queue) Enqueue(req EnqueueRequest) (*Job, error) {
	now := time.Now()
	job := &Job{
		ID:         uuid.NewString(),
		Status:     StatusPending,
		SourcePath: req.SourcePath,
		MediaKind:  KindFromMime(req.MimeKind),
		MimeKind:   req.MimeKind,
		SizeBytes:  req.SizeBytes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if q.store != nil {
		if err := q.store.UpsertJob(context.Background(), job); err != nil {
			return nil, fmt.Errorf("persist job record: %w", err)
		}
	}

	q.mu.Lock()
	q.jobs[job.ID] = job
	started := q.started
	snapshot := cloneJob(job)
	q.mu.Unlock()

	if started {
		q.enqueuePendingID(job.ID)
	}
	return snapshot, nil
}

func (q *Queue) Get(id string) (*Job, bool) {
	q.mu.RLock()
	job, ok := q.jobs[id]
	q.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return cloneJob(job), true
}

func (q *Queue) List() []*Job {
	q.mu.RLock()
	defer q.mu.RUnlock()

	ret := make([]*Job, 0, len(q.jobs))
	for _, job := range q.jobs {
		ret = append(ret, cloneJob(job))
	}
	return ret
}

// Start launches the worker pool and schedules any pending jobs loaded
// from the store.
func (q *Queue) Start(exec Executor) {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true

	pending := make([]string, 0)
	for id, job := range q.jobs {
		if job.Status == StatusPending {
			pending = append(pending, id)
		}
	}
	q.mu.Unlock()

	for _, id := range pending {
		q.enqueuePendingID(id)
	}

	for i := 0; i < q.workerCount; i++ {
		q.wg.Add(1)
		go q.worker(exec)
	}
}

// Stop waits for in-flight jobs to finish. Pending jobs stay pending and
// are rescheduled on the next start.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		close(q.stopCh)
		q.wg.Wait()
	})
}

func (q *Queue) worker(exec Executor) {
	defer q.wg.Done()

	for {
		select {
		case <-q.stopCh:
			return
		case id := <-q.pendingIDs:
			job, ok := q.markProcessing(id)
			if !ok {
				continue
			}

			res, err := exec(context.Background(), job.WorkItem())
			if err != nil {
				q.markFailed(id, err)
				continue
			}
			q.markCompleted(id, res)
		}
	}
}

func (q *Queue) enqueuePendingID(id string) {
	select {
	case q.pendingIDs <- id:
	default:
		go func() { q.pendingIDs <- id }()
	}
}

// markProcessing transitions pending → processing. Any other current
// status makes the dequeue a no-op, which keeps duplicate work items from
// re-running terminal jobs.
func (q *Queue) markProcessing(id string) (*Job, bool) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok || job.Status != StatusPending {
		q.mu.Unlock()
		return nil, false
	}
	job.Status = StatusProcessing
	job.UpdatedAt = time.Now()
	snapshot := cloneJob(job)
	q.mu.Unlock()

	q.persistJob(snapshot)
	return snapshot, true
}

func (q *Queue) markCompleted(id string, res *Result) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok || job.Status != StatusProcessing {
		q.mu.Unlock()
		return
	}
	job.Status = StatusCompleted
	if res != nil {
		job.Transcript = res.Transcript
		job.Summary = res.Summary
		job.Language = res.Language
	}
	job.UpdatedAt = time.Now()
	snapshot := cloneJob(job)
	q.mu.Unlock()

	q.persistJob(snapshot)
}

func (q *Queue) markFailed(id string, err error) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok || job.Status != StatusProcessing {
		q.mu.Unlock()
		return
	}
	job.Status = StatusFailed
	if err != nil {
		job.ErrorMessage = err.Error()
	}
	job.UpdatedAt = time.Now()
	snapshot := cloneJob(job)
	q.mu.Unlock()

	q.persistJob(snapshot)
}

// hydrateFromStore reloads records on startup. Jobs caught mid-processing
// by a crash are marked failed instead of being requeued, so status stays
// monotonic for every job ID.
func (q *Queue) hydrateFromStore(ctx context.Context) {
	if q.store == nil {
		return
	}
	loaded, err := q.store.LoadJobs(ctx)
	if err != nil {
		log.Error("Failed to load jobs from store: %v", err)
		return
	}

	now := time.Now()
	toPersist := make([]*Job, 0)
	q.mu.Lock()
	for _, raw := range loaded {
		if raw == nil || raw.ID == "" {
			continue
		}
		job := cloneJob(raw)
		if job.Status == StatusProcessing {
			job.Status = StatusFailed
			job.ErrorMessage = "processing interrupted by restart"
			job.UpdatedAt = now
			toPersist = append(toPersist, cloneJob(job))
		}
		q.jobs[job.ID] = job
	}
	q.mu.Unlock()

	for _, job := range toPersist {
		q.persistJob(job)
	}
}

func (q *Queue) persistJob(job *Job) {
	if q.store == nil || job == nil {
		return
	}
	if err := q.store.UpsertJob(context.Background(), job); err != nil {
		log.Error("Failed to persist job %s: %v", job.ID, err)
	}
}

func cloneJob(job *Job) *Job {
	if job == nil {
		return nil
	}
	tmp := *job
	return &tmp
}
