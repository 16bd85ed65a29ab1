// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// Copyright 2025 FeatureForm Inc.
//

package bigquery

import (
	"bytes"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/parquet-go/parquet-go"

	"github.com/stormlab/stockstore/frame"
	"github.com/stormlab/stockstore/wherr"
)

var epoch = civil.Date{Year: 1970, Month: 1, Day: 1}

func parquetNode(fieldType bigquery.FieldType) (parquet.Node, error) {
	switch fieldType {
	case STRING:
		return parquet.String(), nil
	case INTEGER:
		return parquet.Int(64), nil
	case FLOAT:
		return parquet.Leaf(parquet.DoubleType), nil
	case DATE:
		return parquet.Date(), nil
	default:
		return nil, wherr.NewUnmappableTypeError("", string(fieldType))
	}
}

// ParquetSchema builds a schema of optional columns matching the table schema.
func ParquetSchema(schema bigquery.Schema) (*parquet.Schema, error) {
	group := parquet.Group{}
	for _, field := range schema {
		node, err := parquetNode(field.Type)
		if err != nil {
			return nil, wherr.NewUnmappableTypeError(field.Name, string(field.Type))
		}
		group[field.Name] = parquet.Optional(node)
	}
	return parquet.NewSchema("batch", group), nil
}

func parquetValue(value bigquery.Value) (parquet.Value, error) {
	switch v := value.(type) {
	case nil:
		return parquet.Value{}, nil
	case string:
		return parquet.ByteArrayValue([]byte(v)), nil
	case int64:
		return parquet.Int64Value(v), nil
	case float64:
		return parquet.DoubleValue(v), nil
	case civil.Date:
		return parquet.Int32Value(int32(v.DaysSince(epoch))), nil
	default:
		return parquet.Value{}, wherr.NewInternalErrorf("unsupported parquet value %T", value)
	}
}

// EncodeParquet serialises the batch as a parquet file laid out by schema.
// Load jobs read this file, so every frame value is converted first.
func EncodeParquet(batch *frame.Frame, schema bigquery.Schema) ([]byte, error) {
	pqSchema, err := ParquetSchema(schema)
	if err != nil {
		return nil, err
	}
	rows, err := encodeRows(batch, schema)
	if err != nil {
		return nil, err
	}
	indexes := make([]int, len(schema))
	for i, field := range schema {
		leaf, ok := pqSchema.Lookup(field.Name)
		if !ok {
			return nil, wherr.NewInternalErrorf("parquet column %q missing", field.Name)
		}
		indexes[i] = leaf.ColumnIndex
	}
	pqRows := make([]parquet.Row, len(rows))
	for r, row := range rows {
		pqRow := make(parquet.Row, len(schema))
		for i, value := range row {
			pv, err := parquetValue(value)
			if err != nil {
				return nil, err
			}
			def := 1
			if value == nil {
				def = 0
			}
			pqRow[indexes[i]] = pv.Level(0, def, indexes[i])
		}
		pqRows[r] = pqRow
	}
	buf := new(bytes.Buffer)
	w := parquet.NewWriter(buf, pqSchema)
	if _, err := w.WriteRows(pqRows); err != nil {
		return nil, wherr.NewInternalError(err)
	}
	if err := w.Close(); err != nil {
		return nil, wherr.NewInternalError(err)
	}
	return buf.Bytes(), nil
}
