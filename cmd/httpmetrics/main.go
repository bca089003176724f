// Copyright 2025 The Rivaas Authors
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

// Command httpmetrics runs and checks the HTTP metrics add-on.
//
// Usage:
//
//	# Serve a demo API instrumented with the recorder
//	httpmetrics serve --config httpmetrics.yaml --addr :8080
//
//	# Print the effective configuration after merging file and environment
//	httpmetrics validate --config httpmetrics.yaml --output yaml
//
//	# Show version information
//	httpmetrics version
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
