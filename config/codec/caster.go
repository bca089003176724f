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

package codec

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// Caster decoders turn one raw value into a typed scalar. They exist for
// key/value stores where a key holds a single setting, such as a Consul
// key "httpmetrics/awscloudwatch/flushinterval" with the body "30s".
const (
	TypeCasterBool     Type = "caster-bool"
	TypeCasterDuration Type = "caster-duration"
	TypeCasterFloat64  Type = "caster-float64"
	TypeCasterInt      Type = "caster-int"
	TypeCasterString   Type = "caster-string"
)

// CastType names the Go type a [CasterCodec] produces.
type CastType string

// Supported cast targets.
const (
	CastTypeBool     CastType = "bool"
	CastTypeDuration CastType = "duration"
	CastTypeFloat64  CastType = "float64"
	CastTypeInt      CastType = "int"
	CastTypeString   CastType = "string"
)

func init() {
	RegisterDecoder(TypeCasterBool, NewCaster(CastTypeBool))
	RegisterDecoder(TypeCasterDuration, NewCaster(CastTypeDuration))
	RegisterDecoder(TypeCasterFloat64, NewCaster(CastTypeFloat64))
	RegisterDecoder(TypeCasterInt, NewCaster(CastTypeInt))
	RegisterDecoder(TypeCasterString, NewCaster(CastTypeString))
}

// CasterCodec decodes a single value into the Go type selected by its
// [CastType]. Surrounding whitespace is ignored.
type CasterCodec struct {
	castType CastType
}

// NewCaster returns a caster producing castType.
func NewCaster(castType CastType) *CasterCodec {
	return &CasterCodec{castType: castType}
}

// Decode implements [Decoder]. v must be a *any.
func (c *CasterCodec) Decode(data []byte, v any) error {
	out, ok := v.(*any)
	if !ok {
		return fmt.Errorf("CasterCodec.Decode: expected *any, got %T", v)
	}
	value := strings.TrimSpace(string(data))

	var (
		result any
		err    error
	)
	switch c.castType {
	case CastTypeBool:
		result, err = cast.ToBoolE(value)
	case CastTypeDuration:
		result, err = cast.ToDurationE(value)
	case CastTypeFloat64:
		result, err = cast.ToFloat64E(value)
	case CastTypeInt:
		result, err = cast.ToIntE(value)
	case CastTypeString:
		result = value
	default:
		return fmt.Errorf("unsupported cast type: %s", c.castType)
	}
	if err != nil {
		return fmt.Errorf("cast %q to %s: %w", value, c.castType, err)
	}

	*out = result
	return nil
}
