package utils

import (
	"sync"
)

// WorkerPool runs submitted tasks on a fixed number of goroutines.
type WorkerPool struct {
	tasks     chan func()
	waitGroup sync.WaitGroup
	closeOnce sync.Once
}

// NewWorkerPool starts a pool with the given number of workers (at least one).
func NewWorkerPool(workers int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	pool := &WorkerPool{
		tasks: make(chan func(), workers),
	}

	pool.waitGroup.Add(workers)
	for i := 0; i < workers; i++ {
		go pool.worker()
	}

	return pool
}

func (wp *WorkerPool) worker() {
	defer wp.waitGroup.Done()
	for task := range wp.tasks {
		task()
	}
}

// Submit queues a task, blocking while every worker is busy and the queue is full.
// Submitting after Shutdown panics.
func (wp *WorkerPool) Submit(task func()) {
	wp.tasks <- task
}

// Shutdown stops accepting tasks and waits for queued ones to finish.
func (wp *WorkerPool) Shutdown() {
	wp.closeOnce.Do(func() { close(wp.tasks) })
	wp.waitGroup.Wait()
}
