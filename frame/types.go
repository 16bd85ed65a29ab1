// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// Copyright 2024 FeatureForm Inc.
//

package frame

import (
	"fmt"
	"time"
)

// LocalType is the in-memory type of a column.
type LocalType int

const (
	Unknown LocalType = iota
	String
	Int32
	Int64
	Float32
	Float64
	Bool
	// Datetime holds naive timestamps, stored as UTC.
	Datetime
	// DatetimeTZ holds timezone aware timestamps.
	DatetimeTZ
)

var localTypeNames = map[LocalType]string{
	Unknown:    "unknown",
	String:     "string",
	Int32:      "int32",
	Int64:      "int64",
	Float32:    "float32",
	Float64:    "float64",
	Bool:       "bool",
	Datetime:   "datetime",
	DatetimeTZ: "datetimetz",
}

func (t LocalType) String() string {
	if name, ok := localTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("LocalType(%d)", int(t))
}

// SemanticType is the class of values a column holds, independent of width or timezone.
type SemanticType int

const (
	Unsupported SemanticType = iota
	Text
	Integer
	Float
	Date
)

func (s SemanticType) String() string {
	switch s {
	case Text:
		return "Text"
	case Integer:
		return "Integer"
	case Float:
		return "Float"
	case Date:
		return "Date"
	default:
		return "Unsupported"
	}
}

func (t LocalType) Semantic() SemanticType {
	switch t {
	case String:
		return Text
	case Int32, Int64:
		return Integer
	case Float32, Float64:
		return Float
	case Datetime, DatetimeTZ:
		return Date
	default:
		return Unsupported
	}
}

func (t LocalType) accepts(v any) bool {
	if v == nil {
		return true
	}
	switch t {
	case String:
		_, ok := v.(string)
		return ok
	case Int32:
		_, ok := v.(int32)
		return ok
	case Int64:
		_, ok := v.(int64)
		return ok
	case Float32:
		_, ok := v.(float32)
		return ok
	case Float64:
		_, ok := v.(float64)
		return ok
	case Bool:
		_, ok := v.(bool)
		return ok
	case Datetime, DatetimeTZ:
		_, ok := v.(time.Time)
		return ok
	default:
		return true
	}
}
