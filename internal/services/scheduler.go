package services

import (
	"context"
	"sync"
	"time"
)

// WakeFunc is invoked each time a reminder task wakes. Returning true ends
// the task (record gone or deadline enforced); returning false sleeps for
// another interval.
type WakeFunc func(ctx context.Context, challengedID int64) bool

// ReminderScheduler owns one suspended timer task per challenged-user key.
// A task is alive exactly while that user has a pending challenge: Start is
// a no-op when a task for the key is already live, Stop is safe to call at
// any point of the task's life, including after it has finished.
type ReminderScheduler struct {
	mu       sync.Mutex
	tasks    map[int64]*reminderTask
	baseCtx  context.Context
	interval time.Duration
	wake     WakeFunc
}

type reminderTask struct {
	cancel context.CancelFunc
}

func NewReminderScheduler(ctx context.Context, interval time.Duration, wake WakeFunc) *ReminderScheduler {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ReminderScheduler{
		tasks:    make(map[int64]*reminderTask),
		baseCtx:  ctx,
		interval: interval,
		wake:     wake,
	}
}

// Start launches a reminder task for the key unless one is already live.
func (s *ReminderScheduler) Start(challengedID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, live := s.tasks[challengedID]; live {
		return
	}

	ctx, cancel := context.WithCancel(s.baseCtx)
	task := &reminderTask{cancel: cancel}
	s.tasks[challengedID] = task

	go s.run(ctx, challengedID, task)
}

// Stop cancels the task for the key. Calling it for an absent or finished
// key is a no-op.
func (s *ReminderScheduler) Stop(challengedID int64) {
	s.mu.Lock()
	task, ok := s.tasks[challengedID]
	if ok {
		delete(s.tasks, challengedID)
	}
	s.mu.Unlock()

	if ok {
		task.cancel()
	}
}

// StopAll cancels every live task.
func (s *ReminderScheduler) StopAll() {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = make(map[int64]*reminderTask)
	s.mu.Unlock()

	for _, task := range tasks {
		task.cancel()
	}
}

// Running reports whether a task for the key is live.
func (s *ReminderScheduler) Running(challengedID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, live := s.tasks[challengedID]
	return live
}

func (s *ReminderScheduler) run(ctx context.Context, challengedID int64, task *reminderTask) {
	defer func() {
		s.mu.Lock()
		// A replacement task may already occupy the key; only clear our own.
		if s.tasks[challengedID] == task {
			delete(s.tasks, challengedID)
		}
		s.mu.Unlock()
		task.cancel()
	}()

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if s.wake(ctx, challengedID) {
			return
		}

		timer.Reset(s.interval)
	}
}
