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


// Package assist drafts ticket replies grounded in the knowledge base.
//
// A Suggest call runs the full pipeline: quota gate, comment dedupe,
// retrieval with topic-aware hit filtering, a strict-JSON model call,
// question post-processing, and finally either a posted ticket comment
// or a cached preview.
//
// # Caching
//
// Two layers prevent duplicate model calls. Posted assist comments
// embed a marker block with the structured reply; a new call within the
// dedupe window reuses it. Dry-run previews go into an owned in-memory
// ReplyCache keyed by the full request shape, bounded in size and TTL.
//
// # Degradation
//
// When the model's output does not parse as the expected JSON, the raw
// text is returned flagged as unparsed instead of failing the call; no
// comment is posted in that case.
package assist
