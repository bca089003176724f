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

package metrics

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// routeFilter decides which resolved routes are recorded.
// Exclusions are checked first and win over inclusions.
type routeFilter struct {
	exclude  []string
	patterns []*regexp.Regexp
	include  []string
}

func newRouteFilter(exclude, include, patterns []string) (*routeFilter, error) {
	f := &routeFilter{
		exclude: nonEmpty(exclude),
		include: nonEmpty(include),
	}

	var errs []error
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid route exclusion pattern %q: %w", p, err))
			continue
		}
		f.patterns = append(f.patterns, re)
	}

	return f, errors.Join(errs...)
}

// allows reports whether route should be recorded.
func (f *routeFilter) allows(route string) bool {
	if f == nil {
		return true
	}

	for _, s := range f.exclude {
		if strings.Contains(route, s) {
			return false
		}
	}
	for _, re := range f.patterns {
		if re.MatchString(route) {
			return false
		}
	}

	if len(f.include) == 0 {
		return true
	}
	for _, s := range f.include {
		if strings.Contains(route, s) {
			return true
		}
	}

	return false
}

// nonEmpty drops empty strings, which would otherwise match every route.
func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
