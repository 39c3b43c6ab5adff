package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/reslab/paperlens/internal/domain"
)

// MockJobProcessor is a mock implementation of JobProcessor
type MockJobProcessor struct {
	mock.Mock
}

func (m *MockJobProcessor) ProcessJobs(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockRunQueue is a mock implementation of RunQueue
type MockRunQueue struct {
	mock.Mock
}

func (m *MockRunQueue) ListPending(ctx context.Context, limit int) ([]*domain.AnalysisRun, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AnalysisRun), args.Error(1)
}

// MockRunExecutor is a mock implementation of RunExecutor
type MockRunExecutor struct {
	mock.Mock
}

func (m *MockRunExecutor) Execute(ctx context.Context, run *domain.AnalysisRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

// TestWorker_StartStop tests the worker start and stop functionality
func TestWorker_StartStop(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start worker in goroutine
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	// Let it run for a bit
	time.Sleep(250 * time.Millisecond)

	// Stop worker
	worker.Stop()
	wg.Wait()

	// Verify ProcessJobs was called at least once
	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestWorker_ContextCancellation tests worker stops on context cancellation
func TestWorker_ContextCancellation(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	// Start worker in goroutine
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	// Let it run for a bit
	time.Sleep(150 * time.Millisecond)

	// Cancel context
	cancel()
	wg.Wait()

	// Verify ProcessJobs was called
	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestAnalysisWorker_ProcessJobs_NoPendingRuns tests when there are no queued runs
func TestAnalysisWorker_ProcessJobs_NoPendingRuns(t *testing.T) {
	mockQueue := new(MockRunQueue)
	mockExecutor := new(MockRunExecutor)

	mockQueue.On("ListPending", mock.Anything, PendingBatchSize).Return([]*domain.AnalysisRun{}, nil)

	worker := NewAnalysisWorker(mockQueue, mockExecutor)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockQueue.AssertExpectations(t)
	mockExecutor.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

// TestAnalysisWorker_ProcessJobs_ExecutesInOrder tests that queued runs execute oldest first
func TestAnalysisWorker_ProcessJobs_ExecutesInOrder(t *testing.T) {
	mockQueue := new(MockRunQueue)
	mockExecutor := new(MockRunExecutor)

	runs := []*domain.AnalysisRun{
		{ID: "run-1", PaperID: "paper-1", Status: domain.RunStatusPending},
		{ID: "run-2", PaperID: "paper-2", Status: domain.RunStatusPending},
	}

	mockQueue.On("ListPending", mock.Anything, PendingBatchSize).Return(runs, nil)

	var order []string
	mockExecutor.On("Execute", mock.Anything, mock.MatchedBy(func(r *domain.AnalysisRun) bool {
		order = append(order, r.ID)
		return true
	})).Return(nil)

	worker := NewAnalysisWorker(mockQueue, mockExecutor)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, []string{"run-1", "run-2"}, order)
	mockExecutor.AssertNumberOfCalls(t, "Execute", 2)
}

// TestAnalysisWorker_ProcessJobs_ExecutorErrorDoesNotStopBatch tests that one failing run does not block the rest
func TestAnalysisWorker_ProcessJobs_ExecutorErrorDoesNotStopBatch(t *testing.T) {
	mockQueue := new(MockRunQueue)
	mockExecutor := new(MockRunExecutor)

	runs := []*domain.AnalysisRun{
		{ID: "run-1", PaperID: "paper-1", Status: domain.RunStatusPending},
		{ID: "run-2", PaperID: "paper-2", Status: domain.RunStatusPending},
	}

	mockQueue.On("ListPending", mock.Anything, PendingBatchSize).Return(runs, nil)
	mockExecutor.On("Execute", mock.Anything, runs[0]).Return(errors.New("collaborator unavailable"))
	mockExecutor.On("Execute", mock.Anything, runs[1]).Return(nil)

	worker := NewAnalysisWorker(mockQueue, mockExecutor)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockExecutor.AssertExpectations(t)
}

// TestAnalysisWorker_ProcessJobs_QueueError tests queue error handling
func TestAnalysisWorker_ProcessJobs_QueueError(t *testing.T) {
	mockQueue := new(MockRunQueue)
	mockExecutor := new(MockRunExecutor)

	mockQueue.On("ListPending", mock.Anything, PendingBatchSize).Return(nil, errors.New("database error"))

	worker := NewAnalysisWorker(mockQueue, mockExecutor)
	err := worker.ProcessJobs(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch pending runs")
	mockQueue.AssertExpectations(t)
}
