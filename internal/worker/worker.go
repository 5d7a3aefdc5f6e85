package worker

import (
	"context"
	"sort"
	"sync"
)

type ProcessFunc[T, R any] func(ctx context.Context, job T) R

type task[T any] struct {
	seq int
	job T
}

type result[R any] struct {
	seq int
	val R
}

// WorkerPool runs jobs concurrently and hands results back in submission
// order. Submit must be called from a single goroutine.
type WorkerPool[T, R any] struct {
	numWorkers int
	jobs       chan task[T]
	processor  ProcessFunc[T, R]
	wg         sync.WaitGroup

	next    int
	mu      sync.Mutex
	results []result[R]
}

func NewWorkerPool[T, R any](numWorkers int, bufferSize int, processor ProcessFunc[T, R]) *WorkerPool[T, R] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &WorkerPool[T, R]{
		numWorkers: numWorkers,
		jobs:       make(chan task[T], bufferSize),
		processor:  processor,
	}
}

func (wp *WorkerPool[T, R]) Start(ctx context.Context) {
	for i := 1; i <= wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool[T, R]) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-wp.jobs:
			if !ok {
				return
			}
			val := wp.processor(ctx, t.job)
			wp.mu.Lock()
			wp.results = append(wp.results, result[R]{seq: t.seq, val: val})
			wp.mu.Unlock()
		}
	}
}

// Submit queues a job. It gives up when ctx is done so a cancelled pool
// cannot block the producer.
func (wp *WorkerPool[T, R]) Submit(ctx context.Context, job T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := task[T]{seq: wp.next, job: job}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case wp.jobs <- t:
		wp.next++
		return nil
	}
}

// Stop waits for in-flight jobs and returns the results of every job that
// ran, ordered by submission.
func (wp *WorkerPool[T, R]) Stop() []R {
	close(wp.jobs)
	wp.wg.Wait()

	wp.mu.Lock()
	defer wp.mu.Unlock()
	sort.Slice(wp.results, func(i, j int) bool {
		return wp.results[i].seq < wp.results[j].seq
	})
	out := make([]R, len(wp.results))
	for i, r := range wp.results {
		out[i] = r.val
	}
	return out
}
