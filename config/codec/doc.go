// Copyright 2025 The Rivaas Authors
// Copyright 2025 Company.info B.V.
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

// Package codec converts httpmetrics configuration documents between bytes
// and generic maps.
//
// Each format registers itself under a [Type] at init time and is looked
// up by the config package when a source is added:
//
//   - [TypeJSON]: encoding/json
//   - [TypeYAML]: github.com/goccy/go-yaml
//   - [TypeTOML]: github.com/BurntSushi/toml
//   - [TypeEnvVar]: KEY=value lines, underscores nesting keys
//
// Caster decoders (for example [TypeCasterDuration]) turn a single raw value
// into a typed scalar. They are used for Consul keys that hold one setting
// instead of a whole document.
//
// Additional formats can be plugged in with [RegisterDecoder] and
// [RegisterEncoder].
package codec
