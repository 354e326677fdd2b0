package fanout

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jbbc/jbbc-api/internal/model"
)

// JobStatus は配信ジョブの状態を表す。
type JobStatus string

const (
	// JobStatusQueued はワーカーによる取り出し待ち。
	JobStatusQueued JobStatus = "queued"
	// JobStatusRunning は配信実行中。
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted は配信完了（部分失敗を含む）。
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed はジョブを継続できないエラーで中断。
	JobStatusFailed JobStatus = "failed"
)

// Job は配信ジョブの観測可能なスナップショット。
type Job struct {
	ID          string
	ContentType model.ContentType
	ContentID   string
	Title       string
	Status      JobStatus
	EnqueuedAt  time.Time
	StartedAt   *time.Time
	FinishedAt  *time.Time
	Result      *RunResult
	Error       string
}

// maxFinishedJobs は照会用に保持する終了済みジョブ数の上限。
// 超過分は新規登録時に古いものから削除される。
const maxFinishedJobs = 100

// queuedJob はキュー内部で保持するジョブ実体。
type queuedJob struct {
	job     *Job
	payload *model.NotificationPayload
}

// Queue はプロセス内の配信ジョブキュー。
// 単一ワーカーが順番にジョブを実行するため、同時に走る配信は最大1つ。
// ジョブの状態はAPI経由で照会できる。プロセス再起動でキューは失われる。
type Queue struct {
	runner *Runner

	mu   sync.RWMutex
	jobs map[string]*Job

	jobCh  chan *queuedJob
	stopCh chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQueue はQueueを生成する。sizeは待機できるジョブ数の上限。
func NewQueue(runner *Runner, size int) *Queue {
	return &Queue{
		runner: runner,
		jobs:   make(map[string]*Job),
		jobCh:  make(chan *queuedJob, size),
		stopCh: make(chan struct{}),
	}
}

// Start はワーカーゴルーチンを起動する。
func (q *Queue) Start(ctx context.Context) {
	ctx, q.cancel = context.WithCancel(ctx)
	q.wg.Add(1)
	go q.worker(ctx)
}

// Stop はワーカーを停止する。実行中のジョブにはコンテキストの
// キャンセルで中断を通知し、ページ境界で打ち切られるのを待つ。
// 待機中のジョブは実行されずに残る。
func (q *Queue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	close(q.stopCh)
	q.wg.Wait()
}

// Enqueue は配信ジョブを登録する。キューが満杯の場合はエラーを返す。
func (q *Queue) Enqueue(payload *model.NotificationPayload) (*Job, error) {
	job := &Job{
		ID:          uuid.NewString(),
		ContentType: payload.ContentType,
		ContentID:   payload.ContentID,
		Title:       payload.Title,
		Status:      JobStatusQueued,
		EnqueuedAt:  time.Now(),
	}

	q.mu.Lock()
	q.jobs[job.ID] = job
	q.evictFinishedLocked()
	q.mu.Unlock()

	select {
	case q.jobCh <- &queuedJob{job: job, payload: payload}:
	default:
		q.mu.Lock()
		delete(q.jobs, job.ID)
		q.mu.Unlock()
		return nil, fmt.Errorf("配信キューが満杯です")
	}

	slog.Info("fanout job enqueued",
		slog.String("job_id", job.ID),
		slog.String("content_type", string(payload.ContentType)),
		slog.String("content_id", payload.ContentID),
	)

	return q.snapshot(job.ID), nil
}

// Get は指定IDのジョブのスナップショットを返す。見つからない場合はnil。
func (q *Queue) Get(id string) *Job {
	return q.snapshot(id)
}

// List は全ジョブのスナップショットを登録時刻の降順で返す。
func (q *Queue) List() []*Job {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]*Job, 0, len(q.jobs))
	for _, job := range q.jobs {
		copied := *job
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EnqueuedAt.After(out[j].EnqueuedAt)
	})
	return out
}

// snapshot はジョブのコピーを返す。
func (q *Queue) snapshot(id string) *Job {
	q.mu.RLock()
	defer q.mu.RUnlock()

	job, ok := q.jobs[id]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}

// worker はキューからジョブを取り出して順番に実行する。
func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()

	for {
		select {
		case <-q.stopCh:
			return
		case <-ctx.Done():
			return
		case qj := <-q.jobCh:
			q.execute(ctx, qj)
		}
	}
}

// execute は1ジョブを実行し、状態遷移を記録する。
func (q *Queue) execute(ctx context.Context, qj *queuedJob) {
	now := time.Now()
	q.update(qj.job.ID, func(job *Job) {
		job.Status = JobStatusRunning
		job.StartedAt = &now
	})

	result, err := q.runner.Run(ctx, qj.payload)

	finished := time.Now()
	q.update(qj.job.ID, func(job *Job) {
		job.FinishedAt = &finished
		if err != nil {
			job.Status = JobStatusFailed
			job.Error = err.Error()
			return
		}
		job.Status = JobStatusCompleted
		job.Result = result
	})

	if err != nil {
		slog.Error("fanout job failed",
			slog.String("job_id", qj.job.ID),
			slog.String("error", err.Error()),
		)
	}
}

// evictFinishedLocked は終了済みジョブが上限を超えた場合に
// 古いものから削除する。待機中・実行中のジョブは対象外。
// 呼び出し元がq.muを保持していること。
func (q *Queue) evictFinishedLocked() {
	finished := make([]*Job, 0, len(q.jobs))
	for _, job := range q.jobs {
		if job.Status == JobStatusCompleted || job.Status == JobStatusFailed {
			finished = append(finished, job)
		}
	}
	if len(finished) <= maxFinishedJobs {
		return
	}
	sort.Slice(finished, func(i, j int) bool {
		return finished[i].EnqueuedAt.Before(finished[j].EnqueuedAt)
	})
	for _, job := range finished[:len(finished)-maxFinishedJobs] {
		delete(q.jobs, job.ID)
	}
}

// update はロック下でジョブを更新する。
func (q *Queue) update(id string, fn func(job *Job)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if job, ok := q.jobs[id]; ok {
		fn(job)
	}
}
