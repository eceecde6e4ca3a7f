package pipeline

/*
certfisk — phishing domain detection over Certificate Transparency streams
Copyright (C) 2026  certfisk authors

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/zeebo/xxh3"
	"golang.org/x/time/rate"

	"github.com/certfisk/certfisk/internal/metrics"
)

// Scheduler manages a pool of scoring workers. Work is sharded by hashing the
// raw domain, so repeated submissions of the same domain within a message
// batch land on the same worker and queue behind each other instead of racing.
type Scheduler struct {
	numWorkers   int
	workers      []*worker
	ctx          context.Context
	cancel       context.CancelFunc
	shutdown     atomic.Bool
	workItemPool sync.Pool
	activeWork   sync.WaitGroup
}

// worker is one goroutine with a dedicated queue and intake limiter. On linux
// it is pinned to a CPU core; elsewhere affinity is a no-op (see affinity_*.go).
type worker struct {
	id          int
	cpuAffinity int
	queue       chan *WorkItem
	scheduler   *Scheduler
	ctx         context.Context
	limiter     *rate.Limiter
}

// NewScheduler creates and starts the worker pool.
func NewScheduler(parentCtx context.Context, numWorkers int) (*Scheduler, error) {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU() * WorkerMultiplier
	}
	if numWorkers > MaxWorkers {
		numWorkers = MaxWorkers
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}

	sctx, cancel := context.WithCancel(parentCtx)

	s := &Scheduler{
		numWorkers: numWorkers,
		workers:    make([]*worker, numWorkers),
		ctx:        sctx,
		cancel:     cancel,
		workItemPool: sync.Pool{
			New: func() interface{} {
				return &WorkItem{}
			},
		},
	}

	for i := 0; i < numWorkers; i++ {
		w := &worker{
			id:          i,
			cpuAffinity: i % runtime.NumCPU(),
			queue:       make(chan *WorkItem, MaxShardQueueSize),
			scheduler:   s,
			ctx:         sctx,
			limiter:     rate.NewLimiter(rate.Limit(workerRateLimit), MaxShardQueueSize),
		}
		s.workers[i] = w
		go w.run()
	}

	logrus.Debugf("Scoring scheduler initialized with %d workers", numWorkers)
	return s, nil
}

// run is a worker's main loop: pull an item, execute the scoring callback,
// recycle the item. A panicking callback is recovered and counted; it must not
// take the stream down.
func (w *worker) run() {
	setAffinity(w.id, w.cpuAffinity)
	workerLabel := strconv.Itoa(w.id)

	for {
		select {
		case <-w.ctx.Done():
			w.drain()
			return
		case item := <-w.queue:
			if item == nil {
				continue
			}

			func() {
				defer w.scheduler.activeWork.Done()
				defer func() {
					if r := recover(); r != nil {
						logrus.Errorf("Panic recovered in worker %d scoring %q: %v", w.id, item.RawDomain, r)
						if metrics.IsMetricsEnabled() {
							metrics.GetMetrics().WorkerPanics.WithLabelValues(workerLabel).Inc()
						}
					}
				}()

				if err := item.Callback(item); err != nil {
					logrus.WithError(err).Debugf("Worker %d failed scoring %q", w.id, item.RawDomain)
					if metrics.IsMetricsEnabled() {
						metrics.GetMetrics().WorkerErrors.WithLabelValues(workerLabel).Inc()
					}
					return
				}
				if metrics.IsMetricsEnabled() {
					metrics.GetMetrics().WorkerProcessed.WithLabelValues(workerLabel).Inc()
				}
			}()

			// Reset before pooling to avoid leaking fields between uses.
			item.Callback = nil
			item.RawDomain = ""
			w.scheduler.workItemPool.Put(item)
		}
	}
}

// drain releases items still queued at shutdown without running them. Every
// queued item carries an activeWork count added in Submit; abandoning the
// queue without releasing those counts would block Wait forever.
func (w *worker) drain() {
	for {
		select {
		case item := <-w.queue:
			if item == nil {
				continue
			}
			item.Callback = nil
			item.RawDomain = ""
			w.scheduler.activeWork.Done()
			w.scheduler.workItemPool.Put(item)
		default:
			return
		}
	}
}

// Submit routes one raw domain to its shard's worker. It waits on the target
// worker's intake limiter, then attempts a non-blocking enqueue; a full queue
// surfaces as ErrQueueFull so the caller can apply its own retry policy.
func (s *Scheduler) Submit(ctx context.Context, rawDomain string, callback WorkCallback) error {
	if s.shutdown.Load() {
		return ErrWorkerShutdown
	}

	shardIndex := int(xxh3.HashString(rawDomain) % uint64(s.numWorkers))
	targetWorker := s.workers[shardIndex]

	if err := targetWorker.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting on worker %d limiter: %w", targetWorker.id, err)
	}

	item := s.workItemPool.Get().(*WorkItem)
	item.RawDomain = rawDomain
	item.Callback = callback
	s.activeWork.Add(1)

	select {
	case targetWorker.queue <- item:
		return nil
	default:
		s.activeWork.Done()
		s.workItemPool.Put(item)
		if metrics.IsMetricsEnabled() {
			metrics.GetMetrics().QueueBackpressureHit.WithLabelValues(strconv.Itoa(targetWorker.id)).Inc()
		}
		return fmt.Errorf("worker %d for domain %q: %w", targetWorker.id, rawDomain, ErrQueueFull)
	}
}

// Wait blocks until every submitted item has been processed.
func (s *Scheduler) Wait() {
	s.activeWork.Wait()
}

// Shutdown stops accepting work and cancels the workers. Idempotent.
func (s *Scheduler) Shutdown() {
	if s.shutdown.CompareAndSwap(false, true) {
		s.cancel()
	}
}
