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

package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestFault_Error(t *testing.T) {
	plain := NewFault(FaultInput, "filename is required")
	if got := plain.Error(); got != "filename is required" {
		t.Errorf("Error() = %q, want %q", got, "filename is required")
	}

	cause := errors.New("connection refused")
	wrapped := WrapFault(FaultUnavailable, "embedding failed", cause)
	if got := wrapped.Error(); got != "embedding failed: connection refused" {
		t.Errorf("Error() = %q, want %q", got, "embedding failed: connection refused")
	}
}

func TestWrapFault_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	fault := WrapFault(FaultInternal, "write failed", cause)

	if !errors.Is(fault, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}

	var f *Fault
	if !errors.As(fmt.Errorf("outer: %w", fault), &f) {
		t.Fatal("errors.As should find the fault through further wrapping")
	}
	if f.Kind != FaultInternal {
		t.Errorf("Kind = %v, want FaultInternal", f.Kind)
	}
}

func TestFaultf(t *testing.T) {
	cause := errors.New("boom")
	fault := Faultf(FaultTimeout, "call to %s failed: %w", "host-a", cause)

	if fault.Kind != FaultTimeout {
		t.Errorf("Kind = %v, want FaultTimeout", fault.Kind)
	}
	if fault.Message != "call to host-a failed: boom" {
		t.Errorf("Message = %q", fault.Message)
	}
	if !errors.Is(fault, cause) {
		t.Error("%w verb should wrap the cause")
	}

	noCause := Faultf(FaultInput, "top-k %d out of range", 99)
	if noCause.Err != nil {
		t.Errorf("Err = %v, want nil without %%w", noCause.Err)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FaultKind
	}{
		{"nil", nil, 0},
		{"plain fault", NewFault(FaultQuota, "limit reached"), FaultQuota},
		{"wrapped fault", fmt.Errorf("outer: %w", NewFault(FaultNotFound, "gone")), FaultNotFound},
		{"unclassified", errors.New("something odd"), FaultInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsFault(t *testing.T) {
	err := NewFault(FaultPayloadTooLarge, "prompt too long")
	if !IsFault(err, FaultPayloadTooLarge) {
		t.Error("IsFault should match the fault's own kind")
	}
	if IsFault(err, FaultTimeout) {
		t.Error("IsFault should not match a different kind")
	}
	if IsFault(nil, FaultInternal) {
		t.Error("IsFault(nil) should be false for every kind")
	}
}

func TestFaultKind_String(t *testing.T) {
	if got := FaultUnavailable.String(); got != "unavailable" {
		t.Errorf("String() = %q, want %q", got, "unavailable")
	}
	if got := FaultKind(99).String(); got != "unknown" {
		t.Errorf("String() = %q, want %q", got, "unknown")
	}
}
