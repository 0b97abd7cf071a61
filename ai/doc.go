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


// Package ai provides abstractions for the AI services Quarry consumes.
//
// The pipeline never talks to a vendor API directly; it depends on two
// narrow interfaces:
//
//   - Embedder: text -> fixed-dimensionality vector, single or batched
//   - Generator: grounded text generation for the answer synthesizer
//
// Provider aggregates both behind one lifecycle so the facade can
// initialize and close them together.
//
// # Implementation Packages
//
//   - ai/openai: production implementation over OpenAI-compatible APIs
//     (Ollama, LocalAI, vLLM, api.openai.com) via langchaingo
//   - ai/mock: deterministic test doubles with behavior injection
//
// Public constructors in ai/openai return interface types to prevent
// coupling to the concrete client; mock constructors return concrete
// types so tests can inject behavior and assert call counts.
package ai
