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

import "errors"

// Domain validation errors
var (
	// ErrInvalidSource indicates a Source failed validation.
	ErrInvalidSource = errors.New("invalid knowledge source")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid knowledge chunk")

	// ErrInvalidJob indicates a Job failed validation.
	ErrInvalidJob = errors.New("invalid job")

	// ErrEmptyTenant indicates the TenantID field is empty.
	ErrEmptyTenant = errors.New("tenant id cannot be empty")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidStatus indicates a status value outside the allowed set.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrReadyWithoutTimestamp indicates a READY source without IndexedAt.
	ErrReadyWithoutTimestamp = errors.New("ready source must carry an indexed timestamp")

	// ErrReadyWithError indicates a READY source still carrying an error.
	ErrReadyWithError = errors.New("ready source cannot carry an error")

	// ErrFailedWithoutError indicates a FAILED source/job without an error message.
	ErrFailedWithoutError = errors.New("failed state requires an error message")
)
