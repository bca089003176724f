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

package config

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync"

	"dario.cat/mergo"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"rivaas.dev/httpmetrics/config/codec"
	"rivaas.dev/httpmetrics/config/source"
	"rivaas.dev/httpmetrics/metrics"
)

//go:embed schema.json
var defaultSchema []byte

var builtinSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return compileSchema(defaultSchema)
})

// Loader builds a [metrics.Config] from layered sources. A Loader holds no
// state between calls, so Load may be called concurrently and repeatedly.
type Loader struct {
	sources    []Source
	schema     *jsonschema.Schema
	validators []func(map[string]any) error
}

// Option configures a [Loader].
type Option func(*Loader) error

// WithSource adds a source to the configuration loader.
func WithSource(src Source) Option {
	return func(l *Loader) error {
		if src == nil {
			return errors.New("source cannot be nil")
		}
		l.sources = append(l.sources, src)
		return nil
	}
}

// WithFile adds a configuration file. The format is detected from the
// extension (.yaml, .yml, .json, .toml). Environment variables in path are
// expanded, so "${CONFIG_DIR}/httpmetrics.yaml" works.
func WithFile(path string) Option {
	return func(l *Loader) error {
		path = os.ExpandEnv(path)
		format, err := detectFormat(path)
		if err != nil {
			return err
		}
		return WithFileAs(path, format)(l)
	}
}

// WithFileAs adds a configuration file decoded as format.
func WithFileAs(path string, format codec.Type) Option {
	return func(l *Loader) error {
		decoder, err := codec.GetDecoder(format)
		if err != nil {
			return err
		}
		l.sources = append(l.sources, source.NewFile(os.ExpandEnv(path), decoder))
		return nil
	}
}

// WithContent adds an in-memory configuration document.
func WithContent(data []byte, format codec.Type) Option {
	return func(l *Loader) error {
		decoder, err := codec.GetDecoder(format)
		if err != nil {
			return err
		}
		l.sources = append(l.sources, source.NewFileContent(data, decoder))
		return nil
	}
}

// WithEnv adds the environment variables starting with prefix, for
// example WithEnv("HTTPMETRICS") picks up HTTPMETRICS_ENDPOINT.
func WithEnv(prefix string) Option {
	return func(l *Loader) error {
		l.sources = append(l.sources, source.NewOSEnvVar(prefix))
		return nil
	}
}

// WithConsul adds a Consul key holding a configuration document whose
// format is detected from the key's extension. The option does nothing
// when CONSUL_HTTP_ADDR is not set, so the same code runs in development
// without Consul.
func WithConsul(path string) Option {
	return func(l *Loader) error {
		if os.Getenv("CONSUL_HTTP_ADDR") == "" {
			return nil
		}
		format, err := detectFormat(path)
		if err != nil {
			return err
		}
		return WithConsulAs(path, format)(l)
	}
}

// WithConsulAs adds a Consul key decoded as format. Like [WithConsul] it
// is skipped when CONSUL_HTTP_ADDR is not set.
func WithConsulAs(path string, format codec.Type, opts ...source.ConsulOption) Option {
	return func(l *Loader) error {
		if os.Getenv("CONSUL_HTTP_ADDR") == "" {
			return nil
		}
		decoder, err := codec.GetDecoder(format)
		if err != nil {
			return err
		}
		src, err := source.NewConsul(os.ExpandEnv(path), decoder, nil, opts...)
		if err != nil {
			return err
		}
		l.sources = append(l.sources, src)
		return nil
	}
}

// WithJSONSchema replaces the built-in schema. Keys in the merged document
// are lowercase, so the schema must use lowercase property names.
func WithJSONSchema(schema []byte) Option {
	return func(l *Loader) error {
		compiled, err := compileSchema(schema)
		if err != nil {
			return err
		}
		l.schema = compiled
		return nil
	}
}

// WithValidator adds a check run on the merged document after schema
// validation. A panicking validator is reported as an error.
func WithValidator(fn func(map[string]any) error) Option {
	return func(l *Loader) error {
		if fn == nil {
			return errors.New("validator cannot be nil")
		}
		l.validators = append(l.validators, fn)
		return nil
	}
}

// New returns a loader configured by opts.
func New(opts ...Option) (*Loader, error) {
	l := &Loader{}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}

	if l.schema == nil {
		compiled, err := builtinSchema()
		if err != nil {
			return nil, err
		}
		l.schema = compiled
	}

	return l, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Loader {
	l, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return l
}

// Load reads every source, merges them, validates the result and decodes
// it onto [metrics.DefaultConfig]. Settings absent from every source keep
// their defaults.
func (l *Loader) Load(ctx context.Context) (metrics.Config, error) {
	values, err := l.Values(ctx)
	if err != nil {
		return metrics.Config{}, err
	}

	cfg := metrics.DefaultConfig()
	if err := decode(values, &cfg); err != nil {
		return metrics.Config{}, NewError("binding", "decode", err)
	}
	if err := cfg.Validate(); err != nil {
		return metrics.Config{}, NewError("metrics", "validate", err)
	}

	return cfg, nil
}

// Values returns the merged and validated document before it is decoded.
// Keys are lowercase.
func (l *Loader) Values(ctx context.Context) (map[string]any, error) {
	if ctx == nil {
		return nil, errors.New("context cannot be nil")
	}

	values := make(map[string]any)
	for i, src := range l.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := sourceName(i, src)
		conf, err := src.Load(ctx)
		if err != nil {
			return nil, NewError(name, "load", err)
		}
		if err := mergo.Map(&values, normalizeMapKeys(conf), mergo.WithOverride); err != nil {
			return nil, NewError(name, "merge", err)
		}
	}

	if err := l.schema.Validate(values); err != nil {
		return nil, NewError("json-schema", "validate", err)
	}

	for i, fn := range l.validators {
		if err := runValidator(fn, values); err != nil {
			return nil, NewError(fmt.Sprintf("validator[%d]", i), "validate", err)
		}
	}

	return values, nil
}

// Load is a shorthand for New followed by [Loader.Load].
func Load(ctx context.Context, opts ...Option) (metrics.Config, error) {
	l, err := New(opts...)
	if err != nil {
		return metrics.Config{}, err
	}
	return l.Load(ctx)
}

func runValidator(fn func(map[string]any) error, values map[string]any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("validator panicked: %v", r)
		}
	}()
	return fn(values)
}

func sourceName(i int, src Source) string {
	if s, ok := src.(fmt.Stringer); ok {
		return fmt.Sprintf("source[%d] (%s)", i, s.String())
	}
	return fmt.Sprintf("source[%d]", i)
}

func compileSchema(schema []byte) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schema))
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON schema: %w", err)
	}

	const name = "httpmetrics.schema.json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		return nil, fmt.Errorf("failed to add JSON schema resource: %w", err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to compile JSON schema: %w", err)
	}
	return compiled, nil
}
