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


// Package entitlements enforces per-tenant plan limits: how many
// knowledge sources a tenant may keep and how many AI assist calls it
// may make per calendar month.
package entitlements

import (
	"context"
	"fmt"
	"time"

	"github.com/crestdesk/crestdesk/core"
	"github.com/crestdesk/crestdesk/storage"
	"github.com/crestdesk/crestdesk/usage"
)

// Limits holds one tenant plan's ceilings. Zero means unlimited.
type Limits struct {
	MaxKbSources      int
	MaxAiMsgsPerMonth int64
}

// Plans maps tenants to their limits. Tenants without an entry get the
// default limits.
type Plans struct {
	Default  Limits
	ByTenant map[string]Limits
}

// LimitsFor returns the tenant's limits, falling back to the default.
func (p *Plans) LimitsFor(tenantID string) Limits {
	if p == nil {
		return Limits{}
	}
	if limits, ok := p.ByTenant[tenantID]; ok {
		return limits
	}
	return p.Default
}

// timeNow is swapped out in tests.
var timeNow = time.Now

// Service answers quota questions for the ingestion and assist paths.
type Service struct {
	plans   *Plans
	sources storage.SourceRepository
	usage   *usage.Recorder
}

// NewService creates an entitlements service.
func NewService(plans *Plans, sources storage.SourceRepository, recorder *usage.Recorder) *Service {
	return &Service{
		plans:   plans,
		sources: sources,
		usage:   recorder,
	}
}

// AssertCanAddSource fails with a quota fault when the tenant already
// holds its maximum number of knowledge sources.
func (s *Service) AssertCanAddSource(ctx context.Context, tenantID string) error {
	limits := s.plans.LimitsFor(tenantID)
	if limits.MaxKbSources <= 0 {
		return nil
	}

	count, err := s.sources.CountSources(ctx, tenantID)
	if err != nil {
		return err
	}
	if count >= limits.MaxKbSources {
		return core.NewFault(core.FaultQuota,
			fmt.Sprintf("knowledge source limit reached (%d of %d)", count, limits.MaxKbSources))
	}
	return nil
}

// AssertCanUseAI fails with a quota fault when the tenant has exhausted
// its AI assist calls for the current UTC calendar month.
func (s *Service) AssertCanUseAI(ctx context.Context, tenantID string) error {
	limits := s.plans.LimitsFor(tenantID)
	if limits.MaxAiMsgsPerMonth <= 0 {
		return nil
	}

	start, end := usage.MonthWindow(timeNow())
	used, err := s.usage.Sum(ctx, tenantID, core.UsageAiAssistCall, start, end)
	if err != nil {
		return err
	}
	if used >= limits.MaxAiMsgsPerMonth {
		return core.NewFault(core.FaultQuota,
			fmt.Sprintf("monthly AI assist limit reached (%d of %d)", used, limits.MaxAiMsgsPerMonth))
	}
	return nil
}
