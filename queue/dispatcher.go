// Copyright 2025 Crestdesk Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package queue

import (
	"context"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/crestdesk/crestdesk/core"
	"github.com/crestdesk/crestdesk/storage"
)

// Worker pool bounds.
const (
	DefaultConcurrency = 4
	MaxConcurrency     = 32
)

// Processor executes one persisted job. It owns the job's state
// transitions; the dispatcher only schedules.
type Processor interface {
	Process(ctx context.Context, jobID string) error
}

// Dispatcher schedules persisted jobs onto a bounded worker pool.
// Durability lives in the job rows; the dispatcher itself holds no
// queue state beyond the in-flight set that guards against double
// delivery of the same job.
type Dispatcher struct {
	jobs      storage.JobRepository
	processor Processor
	pool      *ants.Pool
	logger    *slog.Logger

	mu       sync.Mutex
	inFlight map[string]bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher) error

// WithConcurrency sets the worker pool size, clamped to [1, 32].
// Default is 4.
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) error {
		n = clampConcurrency(n)
		if d.pool != nil {
			d.pool.Release()
		}
		pool, err := ants.NewPool(n)
		if err != nil {
			return err
		}
		d.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
		return nil
	}
}

// NewDispatcher creates a dispatcher executing jobs with the given
// processor.
func NewDispatcher(jobs storage.JobRepository, processor Processor, opts ...Option) (*Dispatcher, error) {
	pool, err := ants.NewPool(DefaultConcurrency)
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{
		jobs:      jobs,
		processor: processor,
		pool:      pool,
		logger:    slog.Default().With("component", "queue"),
		inFlight:  make(map[string]bool),
	}
	for _, opt := range opts {
		if optErr := opt(d); optErr != nil {
			d.Release()
			return nil, optErr
		}
	}
	return d, nil
}

// Submit schedules the persisted job for execution. A job already in
// flight is not scheduled twice; the call is a no-op then.
func (d *Dispatcher) Submit(ctx context.Context, jobID string) error {
	d.mu.Lock()
	if d.inFlight[jobID] {
		d.mu.Unlock()
		d.logger.Debug("job already in flight", "job", jobID)
		return nil
	}
	d.inFlight[jobID] = true
	d.mu.Unlock()

	err := d.pool.Submit(func() {
		defer func() {
			d.mu.Lock()
			delete(d.inFlight, jobID)
			d.mu.Unlock()
		}()

		if err := d.processor.Process(context.Background(), jobID); err != nil {
			d.logger.Error("job failed", "job", jobID, "err", err)
		}
	})
	if err != nil {
		d.mu.Lock()
		delete(d.inFlight, jobID)
		d.mu.Unlock()
		return err
	}
	return nil
}

// ResubmitQueued sweeps the job table for rows still QUEUED and not in
// flight and schedules them. This is the recovery path for jobs whose
// process died between the enqueue write and execution; it runs only
// when explicitly invoked.
func (d *Dispatcher) ResubmitQueued(ctx context.Context) (int, error) {
	queued, err := d.jobs.ListJobsByStatus(ctx, core.JobQueued)
	if err != nil {
		return 0, err
	}

	resubmitted := 0
	for _, job := range queued {
		d.mu.Lock()
		skip := d.inFlight[job.ID]
		d.mu.Unlock()
		if skip {
			continue
		}
		if err := d.Submit(ctx, job.ID); err != nil {
			return resubmitted, err
		}
		resubmitted++
	}

	if resubmitted > 0 {
		d.logger.Info("resubmitted queued jobs", "count", resubmitted)
	}
	return resubmitted, nil
}

// InFlight returns the number of jobs currently scheduled or running.
func (d *Dispatcher) InFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.inFlight)
}

// Release stops the worker pool. Queued jobs stay in storage and can be
// picked up by a later ResubmitQueued.
func (d *Dispatcher) Release() {
	if d.pool != nil {
		d.pool.Release()
	}
}

func clampConcurrency(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxConcurrency {
		return MaxConcurrency
	}
	return n
}
