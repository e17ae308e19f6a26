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


// Package kb implements the knowledge base: source ingestion, text
// extraction and chunking, embedding-backed chunk storage, and vector
// retrieval.
//
// # Lifecycle
//
// A source moves QUEUED -> INDEXING -> READY, or to FAILED from any
// non-terminal state. Ingestion creates the source and its first
// indexing job atomically with the queue submission compensated on
// failure; the worker package drives the rest of the lifecycle.
//
// # Chunking
//
// Two splitting strategies are provided. SplitParagraphs packs whole
// paragraphs up to the size limit and carries an overlap tail between
// chunks; it is the default for indexing. SplitWindow slides a fixed
// window with overlap and serves as the fallback for text without
// paragraph structure.
//
// # Retrieval
//
// Query embeds the query text and ranks the tenant's chunks by cosine
// similarity. Chunks without a stored vector are invisible to retrieval.
package kb
