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
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	dto "github.com/prometheus/client_model/go"
)

// FamilyJSON is the JSON form of one metric family.
type FamilyJSON struct {
	Name    string       `json:"name"`
	Help    string       `json:"help"`
	Type    string       `json:"type"`
	Metrics []SeriesJSON `json:"metrics"`
}

// SeriesJSON is the JSON form of one labeled series. Only the fields
// relevant to the family type are set; NaN and infinite values are omitted.
type SeriesJSON struct {
	Labels    map[string]string  `json:"labels,omitempty"`
	Value     *float64           `json:"value,omitempty"`
	Count     *uint64            `json:"count,omitempty"`
	Sum       *float64           `json:"sum,omitempty"`
	Buckets   map[string]uint64  `json:"buckets,omitempty"`
	Quantiles map[string]float64 `json:"quantiles,omitempty"`
}

// JSON renders every registered family as a JSON array of [FamilyJSON].
func (r *Registry) JSON() ([]byte, error) {
	families, err := r.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	out := make([]FamilyJSON, 0, len(families))
	for _, mf := range families {
		f := FamilyJSON{
			Name:    mf.GetName(),
			Help:    mf.GetHelp(),
			Type:    strings.ToLower(mf.GetType().String()),
			Metrics: make([]SeriesJSON, 0, len(mf.GetMetric())),
		}
		for _, m := range mf.GetMetric() {
			f.Metrics = append(f.Metrics, seriesJSON(mf.GetType(), m))
		}
		out = append(out, f)
	}

	return json.Marshal(out)
}

func seriesJSON(t dto.MetricType, m *dto.Metric) SeriesJSON {
	s := SeriesJSON{Labels: labelPairs(m.GetLabel())}

	switch t {
	case dto.MetricType_COUNTER:
		s.Value = finite(m.GetCounter().GetValue())
	case dto.MetricType_GAUGE:
		s.Value = finite(m.GetGauge().GetValue())
	case dto.MetricType_UNTYPED:
		s.Value = finite(m.GetUntyped().GetValue())
	case dto.MetricType_HISTOGRAM, dto.MetricType_GAUGE_HISTOGRAM:
		h := m.GetHistogram()
		count := h.GetSampleCount()
		s.Count = &count
		s.Sum = finite(h.GetSampleSum())
		s.Buckets = make(map[string]uint64, len(h.GetBucket()))
		for _, b := range h.GetBucket() {
			s.Buckets[formatBound(b.GetUpperBound())] = b.GetCumulativeCount()
		}
	case dto.MetricType_SUMMARY:
		sm := m.GetSummary()
		count := sm.GetSampleCount()
		s.Count = &count
		s.Sum = finite(sm.GetSampleSum())
		s.Quantiles = make(map[string]float64, len(sm.GetQuantile()))
		for _, q := range sm.GetQuantile() {
			if v := finite(q.GetValue()); v != nil {
				s.Quantiles[formatBound(q.GetQuantile())] = *v
			}
		}
	}

	return s
}

func labelPairs(pairs []*dto.LabelPair) map[string]string {
	if len(pairs) == 0 {
		return nil
	}
	m := make(map[string]string, len(pairs))
	for _, lp := range pairs {
		m[lp.GetName()] = lp.GetValue()
	}
	return m
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func formatBound(v float64) string {
	if math.IsInf(v, 1) {
		return "+Inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
