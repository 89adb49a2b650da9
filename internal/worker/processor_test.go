package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityawrm/voiceguard/internal/worker/domain"
	"github.com/adityawrm/voiceguard/internal/worker/inference"
)

type fakeJobStore struct {
	jobs map[string]*domain.Job

	getErr      error
	markErr     error
	completeErr error
	failErr     error

	completedWith []byte
	failedWith    string
}

func (s *fakeJobStore) GetJobByID(_ context.Context, analysisID string) (*domain.Job, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	job, ok := s.jobs[analysisID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return job, nil
}

func (s *fakeJobStore) MarkProcessing(_ context.Context, analysisID string) (bool, error) {
	if s.markErr != nil {
		return false, s.markErr
	}
	job := s.jobs[analysisID]
	if domain.IsTerminal(job.Status) {
		return false, nil
	}
	job.Status = domain.StatusProcessing
	return true, nil
}

func (s *fakeJobStore) Complete(_ context.Context, analysisID string, result []byte) error {
	if s.completeErr != nil {
		return s.completeErr
	}
	s.jobs[analysisID].Status = domain.StatusCompleted
	s.completedWith = result
	return nil
}

func (s *fakeJobStore) Fail(_ context.Context, analysisID, errorMessage string) error {
	if s.failErr != nil {
		return s.failErr
	}
	if job, ok := s.jobs[analysisID]; ok {
		job.Status = domain.StatusFailed
	}
	s.failedWith = errorMessage
	return nil
}

type fakeObjectStore struct {
	content   []byte
	getErr    error
	deleteErr error

	deletedKeys []string
}

func (o *fakeObjectStore) Get(_ context.Context, key string) ([]byte, error) {
	if o.getErr != nil {
		return nil, o.getErr
	}
	return o.content, nil
}

func (o *fakeObjectStore) Delete(_ context.Context, key string) error {
	o.deletedKeys = append(o.deletedKeys, key)
	return o.deleteErr
}

type fakeEngine struct {
	result *inference.Result
	raw    []byte
	err    error
	panics bool

	gotContentType string
}

func (e *fakeEngine) Infer(_ context.Context, _ []byte, contentType string) (*inference.Result, []byte, error) {
	if e.panics {
		panic("engine exploded")
	}
	e.gotContentType = contentType
	return e.result, e.raw, e.err
}

func newTestWorker(store *fakeJobStore, objects *fakeObjectStore, engine *fakeEngine) *Worker {
	return &Worker{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		store:   store,
		objects: objects,
		engine:  engine,
	}
}

func pendingJob() *domain.Job {
	return &domain.Job{
		AnalysisID:   "a1",
		UserID:       "u1",
		Status:       domain.StatusPending,
		AnalysisType: "AUDIO",
		StorageKey:   "audio/u1/a1.wav",
	}
}

func TestHandleJobSuccess(t *testing.T) {
	store := &fakeJobStore{jobs: map[string]*domain.Job{"a1": pendingJob()}}
	objects := &fakeObjectStore{content: []byte("riff")}
	raw := []byte(`{"model_used":"m1","prediction":"FAKE","probability_fake":0.9,"probability_real":0.1,"confidence_score":0.9}`)
	engine := &fakeEngine{
		result: &inference.Result{ModelUsed: "m1", Prediction: "FAKE"},
		raw:    raw,
	}

	w := newTestWorker(store, objects, engine)
	require.NoError(t, w.handleJob(context.Background(), "a1"))

	assert.Equal(t, domain.StatusCompleted, store.jobs["a1"].Status)
	assert.Equal(t, raw, store.completedWith)
	assert.Equal(t, "audio/wav", engine.gotContentType)
	assert.Equal(t, []string{"audio/u1/a1.wav"}, objects.deletedKeys)
}

func TestHandleJobUnknownID(t *testing.T) {
	store := &fakeJobStore{jobs: map[string]*domain.Job{}}
	objects := &fakeObjectStore{}
	engine := &fakeEngine{}

	w := newTestWorker(store, objects, engine)

	// a missing ticket never resolves, so the delivery must be spent
	require.NoError(t, w.handleJob(context.Background(), "missing"))

	assert.Empty(t, store.failedWith)
	assert.Empty(t, objects.deletedKeys)
}

func TestHandleJobDuplicateDeliveryOfSettledJob(t *testing.T) {
	job := pendingJob()
	job.Status = domain.StatusCompleted
	store := &fakeJobStore{jobs: map[string]*domain.Job{"a1": job}}
	objects := &fakeObjectStore{content: []byte("riff")}
	engine := &fakeEngine{}

	w := newTestWorker(store, objects, engine)
	require.NoError(t, w.handleJob(context.Background(), "a1"))

	// the settled job is untouched and no work ran
	assert.Equal(t, domain.StatusCompleted, store.jobs["a1"].Status)
	assert.Empty(t, engine.gotContentType)
	assert.Empty(t, objects.deletedKeys)
}

func TestHandleJobStoreUnreachableOnLookupRequeues(t *testing.T) {
	store := &fakeJobStore{
		jobs:   map[string]*domain.Job{"a1": pendingJob()},
		getErr: errors.New("db gone"),
	}
	objects := &fakeObjectStore{}
	engine := &fakeEngine{}

	w := newTestWorker(store, objects, engine)

	// the job is still live, so the delivery must go back to the queue
	require.Error(t, w.handleJob(context.Background(), "a1"))

	assert.Equal(t, domain.StatusPending, store.jobs["a1"].Status)
	assert.Empty(t, store.failedWith)
	assert.Empty(t, objects.deletedKeys)
}

func TestHandleJobStoreUnreachableOnClaimRequeues(t *testing.T) {
	store := &fakeJobStore{
		jobs:    map[string]*domain.Job{"a1": pendingJob()},
		markErr: errors.New("db gone"),
	}
	objects := &fakeObjectStore{}
	engine := &fakeEngine{}

	w := newTestWorker(store, objects, engine)
	require.Error(t, w.handleJob(context.Background(), "a1"))

	assert.Equal(t, domain.StatusPending, store.jobs["a1"].Status)
	assert.Empty(t, engine.gotContentType)
}

func TestHandleJobFailCommitFailureRequeues(t *testing.T) {
	store := &fakeJobStore{
		jobs:    map[string]*domain.Job{"a1": pendingJob()},
		failErr: errors.New("db gone"),
	}
	objects := &fakeObjectStore{getErr: errors.New("bucket unreachable")}
	engine := &fakeEngine{}

	w := newTestWorker(store, objects, engine)

	// the FAILED commit itself failed: nothing settled the job, requeue
	require.Error(t, w.handleJob(context.Background(), "a1"))

	assert.Equal(t, domain.StatusProcessing, store.jobs["a1"].Status)
}

func TestHandleJobFetchFailure(t *testing.T) {
	store := &fakeJobStore{jobs: map[string]*domain.Job{"a1": pendingJob()}}
	objects := &fakeObjectStore{getErr: errors.New("bucket unreachable")}
	engine := &fakeEngine{}

	w := newTestWorker(store, objects, engine)
	require.NoError(t, w.handleJob(context.Background(), "a1"))

	assert.Equal(t, domain.StatusFailed, store.jobs["a1"].Status)
	assert.Contains(t, store.failedWith, "failed to fetch audio file")
	assert.Empty(t, objects.deletedKeys)
}

func TestHandleJobInferenceFailure(t *testing.T) {
	store := &fakeJobStore{jobs: map[string]*domain.Job{"a1": pendingJob()}}
	objects := &fakeObjectStore{content: []byte("riff")}
	engine := &fakeEngine{err: errors.New("model timed out")}

	w := newTestWorker(store, objects, engine)
	require.NoError(t, w.handleJob(context.Background(), "a1"))

	require.Equal(t, domain.StatusFailed, store.jobs["a1"].Status)
	assert.Contains(t, store.failedWith, "inference failed")
	assert.Contains(t, store.failedWith, "model timed out")
	assert.Nil(t, store.completedWith)
	assert.Empty(t, objects.deletedKeys)
}

func TestHandleJobCompleteCommitFailure(t *testing.T) {
	store := &fakeJobStore{
		jobs:        map[string]*domain.Job{"a1": pendingJob()},
		completeErr: errors.New("db gone"),
	}
	objects := &fakeObjectStore{content: []byte("riff")}
	engine := &fakeEngine{result: &inference.Result{Prediction: "REAL"}, raw: []byte(`{}`)}

	w := newTestWorker(store, objects, engine)
	require.NoError(t, w.handleJob(context.Background(), "a1"))

	assert.Equal(t, domain.StatusFailed, store.jobs["a1"].Status)
	assert.Contains(t, store.failedWith, "failed to store result")
}

func TestHandleJobCleanupFailureKeepsCompleted(t *testing.T) {
	store := &fakeJobStore{jobs: map[string]*domain.Job{"a1": pendingJob()}}
	objects := &fakeObjectStore{content: []byte("riff"), deleteErr: errors.New("denied")}
	engine := &fakeEngine{result: &inference.Result{Prediction: "REAL"}, raw: []byte(`{}`)}

	w := newTestWorker(store, objects, engine)
	require.NoError(t, w.handleJob(context.Background(), "a1"))

	assert.Equal(t, domain.StatusCompleted, store.jobs["a1"].Status)
	assert.Empty(t, store.failedWith)
}

func TestHandleJobPanicIsContained(t *testing.T) {
	store := &fakeJobStore{jobs: map[string]*domain.Job{"a1": pendingJob()}}
	objects := &fakeObjectStore{content: []byte("riff")}
	engine := &fakeEngine{panics: true}

	w := newTestWorker(store, objects, engine)
	var err error
	require.NotPanics(t, func() {
		err = w.handleJob(context.Background(), "a1")
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusFailed, store.jobs["a1"].Status)
	assert.Contains(t, store.failedWith, "internal worker error")
}

func TestContentTypeForKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"audio/u1/a.mp3", "audio/mpeg"},
		{"audio/u1/a.wav", "audio/wav"},
		{"audio/u1/a.m4a", "audio/mp4"},
		{"audio/u1/a.flac", "audio/flac"},
		{"audio/u1/a.ogg", "audio/ogg"},
		{"audio/u1/a.bin", "application/octet-stream"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, contentTypeForKey(tt.key), tt.key)
	}
}
