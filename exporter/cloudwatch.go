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

package exporter

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	// DefaultRegion is the AWS region used when none is configured.
	DefaultRegion = "us-east-1"

	// maxDatumsPerRequest is the PutMetricData limit on metric data per call.
	maxDatumsPerRequest = 1000

	// maxDimensions is the CloudWatch limit on dimensions per datum.
	maxDimensions = 30
)

// ErrNoNamespace is returned when a CloudWatch configuration has no namespace.
var ErrNoNamespace = errors.New("exporter: cloudwatch namespace is required")

// Credentials are static AWS credentials. When absent the default AWS
// credential chain (environment, shared config, instance role) is used.
type Credentials struct {
	AccessKeyID     string `config:"accessKeyId" json:"accessKeyId"`
	SecretAccessKey string `config:"secretAccessKey" json:"secretAccessKey"`
	SessionToken    string `config:"sessionToken" json:"sessionToken,omitempty"`
}

// CloudWatchConfig configures a CloudWatch-backed exporter.
// Namespace is mandatory; everything else has a default.
type CloudWatchConfig struct {
	Region        string        `config:"region" json:"region,omitempty"`
	Namespace     string        `config:"namespace" json:"namespace"`
	BatchSize     int           `config:"batchSize" json:"batchSize,omitempty"`
	FlushInterval time.Duration `config:"flushInterval" json:"flushInterval,omitempty"`
	Endpoint      string        `config:"endpoint" json:"endpoint,omitempty"`
	Credentials   *Credentials  `config:"credentials" json:"credentials,omitempty"`
}

// WithDefaults returns a copy of c with unset fields filled in.
func (c CloudWatchConfig) WithDefaults() CloudWatchConfig {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.FlushInterval == 0 {
		c.FlushInterval = DefaultFlushInterval
	}

	return c
}

// Validate reports configuration problems.
func (c CloudWatchConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Namespace) == "" {
		errs = append(errs, ErrNoNamespace)
	}
	if c.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("batch size cannot be negative, got %d", c.BatchSize))
	}
	if c.FlushInterval < 0 {
		errs = append(errs, fmt.Errorf("flush interval cannot be negative, got %v", c.FlushInterval))
	}
	if c.Credentials != nil && (c.Credentials.AccessKeyID == "") != (c.Credentials.SecretAccessKey == "") {
		errs = append(errs, errors.New("credentials need both accessKeyId and secretAccessKey"))
	}

	return errors.Join(errs...)
}

// Options returns the exporter options carried by the configuration.
func (c CloudWatchConfig) Options() []Option {
	c = c.WithDefaults()
	return []Option{
		WithBatchSize(c.BatchSize),
		WithFlushInterval(c.FlushInterval),
		WithName("cloudwatch"),
	}
}

// PutMetricDataAPI is the part of the CloudWatch client the sender uses.
type PutMetricDataAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchSender publishes batches with PutMetricData.
// Labels become dimensions, sorted by name; empty label values are skipped.
type CloudWatchSender struct {
	client    PutMetricDataAPI
	namespace string

	// UnitResolver maps a metric name to a CloudWatch unit.
	// If nil, uses [DefaultUnit].
	UnitResolver func(name string) types.StandardUnit
}

// NewCloudWatchSender builds a CloudWatch client from cfg and wraps it.
//
// Errors:
//   - Returns [ErrNoNamespace] if cfg has no namespace
//   - Returns error if the AWS configuration cannot be loaded
func NewCloudWatchSender(ctx context.Context, cfg CloudWatchConfig) (*CloudWatchSender, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if c := cfg.Credentials; c != nil && c.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, c.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return NewCloudWatchSenderWithClient(client, cfg.Namespace), nil
}

// NewCloudWatchSenderWithClient wraps an existing client.
func NewCloudWatchSenderWithClient(client PutMetricDataAPI, namespace string) *CloudWatchSender {
	return &CloudWatchSender{
		client:    client,
		namespace: namespace,
	}
}

// Namespace returns the CloudWatch namespace metrics are published under.
func (s *CloudWatchSender) Namespace() string {
	return s.namespace
}

// Send implements [Sender]. Batches larger than the PutMetricData limit are
// split into several calls; a failing call fails the whole batch.
func (s *CloudWatchSender) Send(ctx context.Context, batch []Observation) error {
	data := make([]types.MetricDatum, 0, len(batch))
	for _, o := range batch {
		data = append(data, s.datum(o))
	}

	for chunk := range slices.Chunk(data, maxDatumsPerRequest) {
		_, err := s.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(s.namespace),
			MetricData: chunk,
		})
		if err != nil {
			return fmt.Errorf("cloudwatch PutMetricData: %w", err)
		}
	}

	return nil
}

func (s *CloudWatchSender) datum(o Observation) types.MetricDatum {
	unit := DefaultUnit
	if s.UnitResolver != nil {
		unit = s.UnitResolver
	}

	return types.MetricDatum{
		MetricName: aws.String(o.Name),
		Value:      aws.Float64(o.Value),
		Timestamp:  aws.Time(o.Timestamp),
		Dimensions: dimensions(o.Labels),
		Unit:       unit(o.Name),
	}
}

func dimensions(labels map[string]string) []types.Dimension {
	if len(labels) == 0 {
		return nil
	}

	keys := make([]string, 0, len(labels))
	for k, v := range labels {
		if k != "" && v != "" {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	if len(keys) > maxDimensions {
		keys = keys[:maxDimensions]
	}

	dims := make([]types.Dimension, 0, len(keys))
	for _, k := range keys {
		dims = append(dims, types.Dimension{
			Name:  aws.String(k),
			Value: aws.String(labels[k]),
		})
	}

	return dims
}

// DefaultUnit picks a unit from the metric name suffix:
// "_ms" is milliseconds, "_seconds" is seconds, "_bytes" is bytes, anything
// else is a count.
func DefaultUnit(name string) types.StandardUnit {
	switch {
	case strings.HasSuffix(name, "_ms"):
		return types.StandardUnitMilliseconds
	case strings.HasSuffix(name, "_seconds"):
		return types.StandardUnitSeconds
	case strings.HasSuffix(name, "_bytes"):
		return types.StandardUnitBytes
	default:
		return types.StandardUnitCount
	}
}
