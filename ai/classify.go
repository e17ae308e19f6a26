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


package ai

import (
	"context"
	"errors"
	"net"
	"strings"
)

// ErrorClass categorizes a model call failure for the failover loop.
type ErrorClass int

const (
	// ClassNetwork means the host is unreachable; try the next host.
	ClassNetwork ErrorClass = iota + 1

	// ClassTimeout means the call timed out; try the next host.
	ClassTimeout

	// ClassContextLength means the prompt exceeds the model's context
	// window. Retrying cannot help on any host.
	ClassContextLength

	// ClassTerminal means the host answered with a definitive failure.
	// Retrying cannot help.
	ClassTerminal
)

func (c ErrorClass) String() string {
	switch c {
	case ClassNetwork:
		return "network"
	case ClassTimeout:
		return "timeout"
	case ClassContextLength:
		return "context-length"
	case ClassTerminal:
		return "terminal"
	}
	return "unknown"
}

// Retryable reports whether the failover loop should move to the next
// attempt or host.
func (c ErrorClass) Retryable() bool {
	return c == ClassNetwork || c == ClassTimeout
}

// Phrases models use to report an exceeded context window. Matched
// case-insensitively against the full error text.
var contextLengthPhrases = []string{
	"context length",
	"exceeds the context",
	"context window",
	"input length exceeds",
	"too many tokens",
	"maximum context",
	"prompt is too long",
}

// Substrings indicating the host itself is unreachable rather than the
// request being bad.
var networkPhrases = []string{
	"connection refused",
	"no such host",
	"network is unreachable",
	"host is unreachable",
	"connection reset",
	"broken pipe",
	"temporary failure in name resolution",
}

// ClassifyModelError maps a model call error to the failover action:
// context-length overflows are terminal everywhere, timeouts and network
// failures move on to the next host, and anything else is a definitive
// failure from a live host.
func ClassifyModelError(err error) ErrorClass {
	if err == nil {
		return ClassTerminal
	}

	msg := strings.ToLower(err.Error())
	for _, phrase := range contextLengthPhrases {
		if strings.Contains(msg, phrase) {
			return ClassContextLength
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTimeout
	}
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") {
		return ClassTimeout
	}

	for _, phrase := range networkPhrases {
		if strings.Contains(msg, phrase) {
			return ClassNetwork
		}
	}

	return ClassTerminal
}
