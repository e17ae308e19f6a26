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
)

// FaultKind is the closed set of error classifications the pipeline reports.
type FaultKind int

const (
	// FaultInput is a problem with caller-supplied data. Never retried.
	FaultInput FaultKind = iota + 1
	// FaultQuota means an entitlement limit is exhausted. Fatal, no retry.
	FaultQuota
	// FaultNotFound means the referenced entity does not exist for the tenant.
	FaultNotFound
	// FaultUnavailable means an external service stayed unreachable after all
	// configured hosts and retries were exhausted.
	FaultUnavailable
	// FaultPayloadTooLarge means the model rejected the prompt for exceeding
	// its context limit. Immediate, not a connectivity problem.
	FaultPayloadTooLarge
	// FaultTimeout means the last failure across all hosts was a deadline.
	FaultTimeout
	// FaultInternal covers everything else.
	FaultInternal
)

// String returns a stable name for the kind.
func (k FaultKind) String() string {
	switch k {
	case FaultInput:
		return "input"
	case FaultQuota:
		return "quota"
	case FaultNotFound:
		return "not_found"
	case FaultUnavailable:
		return "unavailable"
	case FaultPayloadTooLarge:
		return "payload_too_large"
	case FaultTimeout:
		return "timeout"
	case FaultInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Fault is a classified pipeline error. It carries a human-readable message
// and optionally wraps the underlying cause.
type Fault struct {
	Kind    FaultKind
	Message string
	Err     error
}

// Error implements the error interface.
func (f *Fault) Error() string {
	if f.Err != nil {
		return f.Message + ": " + f.Err.Error()
	}
	return f.Message
}

// Unwrap exposes the wrapped cause for errors.Is/As.
func (f *Fault) Unwrap() error {
	return f.Err
}

// NewFault creates a fault with the given kind and message.
func NewFault(kind FaultKind, message string) *Fault {
	return &Fault{Kind: kind, Message: message}
}

// Faultf creates a fault with a formatted message. An %w verb wraps a cause.
func Faultf(kind FaultKind, format string, args ...any) *Fault {
	wrapped := fmt.Errorf(format, args...)
	return &Fault{Kind: kind, Message: wrapped.Error(), Err: errors.Unwrap(wrapped)}
}

// WrapFault wraps err as a fault of the given kind.
func WrapFault(kind FaultKind, message string, err error) *Fault {
	return &Fault{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the classification of err. Unclassified errors report
// FaultInternal; nil reports zero.
func KindOf(err error) FaultKind {
	if err == nil {
		return 0
	}
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return FaultInternal
}

// IsFault reports whether err is classified as the given kind.
func IsFault(err error, kind FaultKind) bool {
	return KindOf(err) == kind
}
