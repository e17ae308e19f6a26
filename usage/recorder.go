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


// Package usage records metering events. Writes are always best-effort:
// a tenant action never fails because its usage row could not be stored.
package usage

import (
	"context"
	"log/slog"
	"time"

	"github.com/crestdesk/crestdesk/core"
	"github.com/crestdesk/crestdesk/storage"
)

// Recorder writes and aggregates usage events.
type Recorder struct {
	events storage.UsageRepository
	logger *slog.Logger
}

// NewRecorder creates a usage recorder over the given repository.
func NewRecorder(events storage.UsageRepository) *Recorder {
	return &Recorder{
		events: events,
		logger: slog.Default().With("component", "usage"),
	}
}

// Log stores the event, swallowing any storage error. Metering must
// never break the operation being metered.
func (r *Recorder) Log(ctx context.Context, event *core.UsageEvent) {
	if r == nil || r.events == nil {
		return
	}
	if _, err := r.events.AddEvent(ctx, event); err != nil {
		r.logger.Warn("failed to record usage event",
			"tenant", event.TenantID, "type", event.Type, "err", err)
	}
}

// Sum totals event amounts of one type for the tenant within [start, end).
func (r *Recorder) Sum(ctx context.Context, tenantID, eventType string, start, end time.Time) (int64, error) {
	return r.events.SumAmount(ctx, tenantID, eventType, start, end)
}

// MonthWindow returns the UTC calendar month containing now as a
// half-open [start, end) interval. Quota checks bill per calendar month.
func MonthWindow(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
