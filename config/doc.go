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

// Package config loads the httpmetrics plugin configuration from files,
// environment variables and Consul.
//
// Sources are read in the order they are given and merged, later sources
// overriding earlier ones key by key. Keys are case-insensitive. The
// merged document is checked against an embedded JSON Schema, then decoded
// on top of [metrics.DefaultConfig], so anything not configured keeps its
// default.
//
// # Quick Start
//
//	cfg, err := config.Load(ctx,
//	    config.WithFile("httpmetrics.yaml"),
//	    config.WithEnv("HTTPMETRICS"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	recorder, err := metrics.New(metrics.WithConfig(cfg))
//
// # Sources
//
//	config.WithFile("httpmetrics.yaml")                // format from extension
//	config.WithFileAs("httpmetrics.conf", codec.TypeTOML)
//	config.WithContent(data, codec.TypeJSON)
//	config.WithEnv("HTTPMETRICS")                      // HTTPMETRICS_AWSCLOUDWATCH_NAMESPACE=Shop
//	config.WithConsul("services/httpmetrics.json")     // only when CONSUL_HTTP_ADDR is set
//
// # Value Formats
//
// Durations accept Go duration strings ("30s") or numbers of milliseconds
// (30000). Lists accept arrays or comma separated strings, which is how
// environment variables provide them:
//
//	HTTPMETRICS_EXCLUDEROUTES=/health,/ready
//	HTTPMETRICS_HTTPMETRICS_REQUESTDURATION_BUCKETS=5,50,500
//
// Label names under defaultLabels keep their case.
//
// # Errors
//
// Every failure is an [*Error] naming the stage that failed, for example
// "config error in json-schema during validate: ...".
package config
