// Copyright 2026 Quarry Systems
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


// Package retrieve provides tenant-scoped retrieval over stored chunks and
// grounded answer synthesis.
//
// The Engine embeds the query, runs a similarity search against the store,
// and falls back to a case-insensitive substring scan when vector search is
// unavailable. Fallback results are explicitly marked degraded and carry one
// fixed nominal score. The optional Synthesizer turns the ranked hits into a
// natural-language answer constrained to the retrieved context; if generation
// fails the engine returns the raw chunks with a note instead of failing the
// request.
package retrieve
