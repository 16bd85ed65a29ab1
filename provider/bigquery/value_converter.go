// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// Copyright 2025 FeatureForm Inc.
//

package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/stormlab/stockstore/frame"
	"github.com/stormlab/stockstore/wherr"
)

var bqConverter = Converter{}

type Converter struct{}

// ToLocal converts a value read from the warehouse into the representation
// frame uses for localType.
func (c Converter) ToLocal(localType frame.LocalType, value bigquery.Value) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch localType {
	case frame.String:
		if v, ok := value.(string); ok {
			return v, nil
		}
	case frame.Int64:
		switch v := value.(type) {
		case int64:
			return v, nil
		case int:
			return int64(v), nil
		case int32:
			return int64(v), nil
		}
	case frame.Float64:
		switch v := value.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int64:
			return float64(v), nil
		}
	case frame.Datetime:
		switch v := value.(type) {
		case civil.Date:
			return v.In(time.UTC), nil
		case civil.DateTime:
			return v.In(time.UTC), nil
		case time.Time:
			return v.UTC(), nil
		}
	}
	return nil, wherr.NewInternalErrorf("cannot convert %T to %s", value, localType)
}

// ToWarehouse converts a frame value into the value stored for fieldType.
// Timezone aware timestamps keep the calendar date of their own zone.
func (c Converter) ToWarehouse(fieldType bigquery.FieldType, value any) (bigquery.Value, error) {
	if value == nil {
		return nil, nil
	}
	switch fieldType {
	case STRING:
		if v, ok := value.(string); ok {
			return v, nil
		}
	case INTEGER:
		switch v := value.(type) {
		case int64:
			return v, nil
		case int32:
			return int64(v), nil
		case int:
			return int64(v), nil
		}
	case FLOAT:
		switch v := value.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		}
	case DATE:
		switch v := value.(type) {
		case time.Time:
			return civil.DateOf(v), nil
		case civil.Date:
			return v, nil
		}
	}
	return nil, wherr.NewInternalErrorf("cannot store %T as %s", value, fieldType)
}

// DecodeResult builds a frame from warehouse rows using the inverse type map.
func DecodeResult(rs *ResultSet) (*frame.Frame, error) {
	types, err := InferLocalTypes(rs.Schema)
	if err != nil {
		return nil, err
	}
	columns := make([]frame.Column, len(rs.Schema))
	for i, field := range rs.Schema {
		columns[i] = frame.Column{
			Name:   field.Name,
			Type:   types[field.Name],
			Values: make([]any, len(rs.Rows)),
		}
	}
	for r, row := range rs.Rows {
		if len(row) != len(rs.Schema) {
			return nil, wherr.NewInternalErrorf("column count mismatch: schema has %d, row has %d", len(rs.Schema), len(row))
		}
		for i, value := range row {
			converted, err := bqConverter.ToLocal(columns[i].Type, value)
			if err != nil {
				return nil, err
			}
			columns[i].Values[r] = converted
		}
	}
	return frame.New(columns...)
}

// encodeRows lays the batch out in the field order of schema. Fields the
// batch lacks are stored as null.
func encodeRows(batch *frame.Frame, schema bigquery.Schema) ([][]bigquery.Value, error) {
	sources := make([][]any, len(schema))
	for i, field := range schema {
		if col, ok := batch.Column(field.Name); ok {
			sources[i] = col.Values
		}
	}
	for _, name := range batch.ColumnNames() {
		found := false
		for _, field := range schema {
			if field.Name == name {
				found = true
				break
			}
		}
		if !found {
			return nil, wherr.NewInvalidArgumentErrorf("column %q is not in the table schema", name)
		}
	}
	rows := make([][]bigquery.Value, batch.NumRows())
	for r := range rows {
		row := make([]bigquery.Value, len(schema))
		for i, field := range schema {
			if sources[i] == nil {
				continue
			}
			value, err := bqConverter.ToWarehouse(field.Type, sources[i][r])
			if err != nil {
				return nil, err
			}
			row[i] = value
		}
		rows[r] = row
	}
	return rows, nil
}
