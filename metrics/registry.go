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
	"bytes"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

var (
	metricNameRegex = regexp.MustCompile(`^[a-zA-Z_:][a-zA-Z0-9_:]*$`)
	labelNameRegex  = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// maxMetricNameLength is the maximum allowed length for metric names.
const maxMetricNameLength = 255

var (
	// ErrMetricExists is returned when registering a name that is already taken.
	ErrMetricExists = errors.New("metric already registered")

	// ErrMetricNotFound is returned when no primitive of the requested name and kind exists.
	ErrMetricNotFound = errors.New("metric not found")
)

func validateMetricName(name string) error {
	if name == "" {
		return fmt.Errorf("metric name cannot be empty")
	}
	if len(name) > maxMetricNameLength {
		return fmt.Errorf("metric name too long: %d characters (max %d)", len(name), maxMetricNameLength)
	}
	if !metricNameRegex.MatchString(name) {
		return fmt.Errorf("invalid metric name %q: must match %s", name, metricNameRegex)
	}
	if strings.HasPrefix(name, "__") {
		return fmt.Errorf("metric name %q uses the reserved prefix \"__\"", name)
	}

	return nil
}

func validateLabelName(name string) error {
	if !labelNameRegex.MatchString(name) || strings.HasPrefix(name, "__") {
		return fmt.Errorf("invalid label name %q", name)
	}
	return nil
}

// validateLabelNameFor also rejects the label names client_golang reserves
// for a kind: "le" on histograms and "quantile" on summaries.
func validateLabelNameFor(kind MetricType, name string) error {
	if err := validateLabelName(name); err != nil {
		return err
	}
	if (kind == Histogram && name == "le") || (kind == Summary && name == "quantile") {
		return fmt.Errorf("label name %q is reserved for %s metrics", name, kind)
	}
	return nil
}

// primitive is a registered metric vector with its declared label names.
type primitive struct {
	kind      MetricType
	labels    []string
	collector prometheus.Collector
}

// values projects labels onto the declared label names. Missing names
// become "" and names that were not declared are ignored.
func (p *primitive) values(labels map[string]string) []string {
	vals := make([]string, len(p.labels))
	for i, name := range p.labels {
		vals[i] = labels[name]
	}
	return vals
}

// Registry owns a private Prometheus registry and the primitives registered
// in it by name. Default labels are attached to every collector as constant
// labels. All methods are safe for concurrent use.
type Registry struct {
	prom          *prometheus.Registry
	registerer    prometheus.Registerer
	defaultLabels map[string]string

	mu         sync.RWMutex
	primitives map[string]*primitive
	collectors []prometheus.Collector // registered via RegisterCollector
}

// NewRegistry creates a registry backed by a new [prometheus.Registry].
func NewRegistry(defaultLabels map[string]string) *Registry {
	return newRegistry(prometheus.NewRegistry(), defaultLabels)
}

func newRegistry(prom *prometheus.Registry, defaultLabels map[string]string) *Registry {
	var registerer prometheus.Registerer = prom
	if len(defaultLabels) > 0 {
		registerer = prometheus.WrapRegistererWith(prometheus.Labels(defaultLabels), prom)
	}

	return &Registry{
		prom:          prom,
		registerer:    registerer,
		defaultLabels: maps.Clone(defaultLabels),
		primitives:    make(map[string]*primitive),
	}
}

// Prometheus returns the underlying registry, e.g. for promhttp.HandlerFor.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.prom
}

// Registerer returns the registerer that applies the default labels.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registerer
}

// Register creates and registers a primitive for def. Label names that are
// also default labels are dropped from the declaration since the registry
// already attaches them.
//
// Errors:
//   - Returns error if def is invalid
//   - Returns [ErrMetricExists] if the name is taken
//   - Returns error if Prometheus rejects the collector
func (r *Registry) Register(def MetricDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	labels := make([]string, 0, len(def.Labels))
	for _, l := range def.Labels {
		if _, isDefault := r.defaultLabels[l]; !isDefault && !slices.Contains(labels, l) {
			labels = append(labels, l)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.primitives[def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrMetricExists, def.Name)
	}

	c := newCollector(def, labels)
	if err := r.registerer.Register(c); err != nil {
		return fmt.Errorf("register %s: %w", def.Name, err)
	}
	r.primitives[def.Name] = &primitive{kind: def.Type, labels: labels, collector: c}

	return nil
}

func newCollector(def MetricDefinition, labels []string) prometheus.Collector {
	switch def.Type {
	case Counter:
		return prometheus.NewCounterVec(prometheus.CounterOpts{Name: def.Name, Help: help(def)}, labels)
	case Gauge:
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: def.Name, Help: help(def)}, labels)
	case Histogram:
		buckets := def.Config.Buckets
		if len(buckets) == 0 {
			buckets = prometheus.DefBuckets
		}
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    def.Name,
			Help:    help(def),
			Buckets: buckets,
		}, labels)
	default:
		return prometheus.NewSummaryVec(summaryOpts(def), labels)
	}
}

func summaryOpts(def MetricDefinition) prometheus.SummaryOpts {
	percentiles := def.Config.Percentiles
	if len(percentiles) == 0 {
		percentiles = DefaultPercentiles
	}
	objectives := make(map[float64]float64, len(percentiles))
	for _, p := range percentiles {
		// Allowed rank error shrinks towards the tails.
		objectives[p] = min(0.01, (1-p)/10, p/10)
	}

	maxAge := def.Config.MaxAge
	if maxAge == 0 {
		maxAge = defaultSummaryMaxAge
	}
	ageBuckets := def.Config.AgeBuckets
	if ageBuckets == 0 {
		ageBuckets = defaultSummaryAgeBuckets
	}

	return prometheus.SummaryOpts{
		Name:       def.Name,
		Help:       help(def),
		Objectives: objectives,
		MaxAge:     maxAge,
		AgeBuckets: ageBuckets,
	}
}

// help returns the help text, falling back to the name since Prometheus
// requires a non-empty help string.
func help(def MetricDefinition) string {
	if def.Help != "" {
		return def.Help
	}
	return def.Name
}

// RegisterCollector registers an arbitrary collector (Go runtime metrics, an
// exporter's own metrics). It is removed again by [Registry.Clear].
func (r *Registry) RegisterCollector(c prometheus.Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.registerer.Register(c); err != nil {
		return err
	}
	r.collectors = append(r.collectors, c)

	return nil
}

// Unregister removes the named primitive. It reports whether one existed.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.primitives[name]
	if !ok {
		return false
	}
	r.registerer.Unregister(p.collector)
	delete(r.primitives, name)

	return true
}

// Clear unregisters every primitive and collector.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, p := range r.primitives {
		r.registerer.Unregister(p.collector)
		delete(r.primitives, name)
	}
	for _, c := range r.collectors {
		r.registerer.Unregister(c)
	}
	r.collectors = nil
}

// Reset drops all recorded series while keeping the registrations.
func (r *Registry) Reset() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.primitives {
		if v, ok := p.collector.(interface{ Reset() }); ok {
			v.Reset()
		}
	}
}

// Has reports whether a primitive named name exists.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.primitives[name]
	return ok
}

// Kind returns the kind of the named primitive.
func (r *Registry) Kind(name string) (MetricType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.primitives[name]
	if !ok {
		return "", false
	}
	return p.kind, true
}

// Names returns the registered primitive names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.primitives))
}

func (r *Registry) lookup(name string, kind MetricType) (*primitive, error) {
	r.mu.RLock()
	p, ok := r.primitives[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMetricNotFound, name)
	}
	if p.kind != kind {
		return nil, fmt.Errorf("%w: %s is a %s, not a %s", ErrMetricNotFound, name, p.kind, kind)
	}

	return p, nil
}

// Add adds value to a counter. value must not be negative.
func (r *Registry) Add(name string, value float64, labels map[string]string) error {
	if value < 0 {
		return fmt.Errorf("counter %s cannot decrease (value %v)", name, value)
	}
	p, err := r.lookup(name, Counter)
	if err != nil {
		return err
	}
	c, err := p.collector.(*prometheus.CounterVec).GetMetricWithLabelValues(p.values(labels)...)
	if err != nil {
		return fmt.Errorf("counter %s: %w", name, err)
	}
	c.Add(value)

	return nil
}

// Set sets a gauge.
func (r *Registry) Set(name string, value float64, labels map[string]string) error {
	p, err := r.lookup(name, Gauge)
	if err != nil {
		return err
	}
	g, err := p.collector.(*prometheus.GaugeVec).GetMetricWithLabelValues(p.values(labels)...)
	if err != nil {
		return fmt.Errorf("gauge %s: %w", name, err)
	}
	g.Set(value)

	return nil
}

// Observe records value in a histogram or summary, depending on kind.
func (r *Registry) Observe(kind MetricType, name string, value float64, labels map[string]string) error {
	p, err := r.lookup(name, kind)
	if err != nil {
		return err
	}

	var o prometheus.Observer
	switch vec := p.collector.(type) {
	case *prometheus.HistogramVec:
		o, err = vec.GetMetricWithLabelValues(p.values(labels)...)
	case *prometheus.SummaryVec:
		o, err = vec.GetMetricWithLabelValues(p.values(labels)...)
	default:
		return fmt.Errorf("%w: %s is a %s", ErrMetricNotFound, name, p.kind)
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", kind, name, err)
	}
	o.Observe(value)

	return nil
}

// Gather collects all registered metric families.
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {
	return r.prom.Gather()
}

// Text renders the registry in the Prometheus text exposition format.
func (r *Registry) Text() (string, error) {
	families, err := r.Gather()
	if err != nil {
		return "", fmt.Errorf("gather metrics: %w", err)
	}

	var buf bytes.Buffer
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return "", fmt.Errorf("render %s: %w", mf.GetName(), err)
		}
	}

	return buf.String(), nil
}
