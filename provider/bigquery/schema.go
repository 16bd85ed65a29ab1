// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// Copyright 2025 FeatureForm Inc.
//

package bigquery

import (
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"

	"github.com/stormlab/stockstore/frame"
	"github.com/stormlab/stockstore/wherr"
)

// InferSchema translates every column of batch into a warehouse field, in
// column order. Column types cannot be altered once a table exists, so an
// unmapped type fails instead of being coerced.
func InferSchema(batch *frame.Frame) (bigquery.Schema, error) {
	schema := make(bigquery.Schema, 0, len(batch.Columns()))
	for _, col := range batch.Columns() {
		fieldType, ok := LocalToField[col.Type]
		if !ok {
			return nil, wherr.NewUnmappableTypeError(col.Name, col.Type.String())
		}
		schema = append(schema, &bigquery.FieldSchema{
			Name: col.Name,
			Type: fieldType,
		})
	}
	return schema, nil
}

// InferLocalTypes returns the local type for each field of a table schema.
func InferLocalTypes(schema bigquery.Schema) (map[string]frame.LocalType, error) {
	types := make(map[string]frame.LocalType, len(schema))
	for _, field := range schema {
		localType, ok := FieldToLocal[field.Type]
		if !ok {
			return nil, wherr.NewUnmappableTypeError(field.Name, string(field.Type))
		}
		types[field.Name] = localType
	}
	return types, nil
}

// SchemasEqual compares field names and types in order.
func SchemasEqual(a, b bigquery.Schema) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Type != b[i].Type {
			return false
		}
	}
	return true
}

func DescribeSchema(schema bigquery.Schema) string {
	fields := make([]string, len(schema))
	for i, field := range schema {
		fields[i] = fmt.Sprintf("%s %s", field.Name, field.Type)
	}
	return strings.Join(fields, ", ")
}

func fieldNames(schema bigquery.Schema) []string {
	names := make([]string, len(schema))
	for i, field := range schema {
		names[i] = field.Name
	}
	return names
}
