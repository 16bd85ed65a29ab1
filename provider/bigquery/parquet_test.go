// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// Copyright 2025 FeatureForm Inc.
//

package bigquery

import (
	"bytes"
	"io"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stormlab/stockstore/frame"
)

func TestEncodeParquet(t *testing.T) {
	batch := frame.MustNew(
		frame.NewColumn("date", frame.Datetime,
			time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)),
		frame.NewColumn("itemname", frame.String, "A", nil),
		frame.NewColumn("close", frame.Float64, 10.5, 11.0),
		frame.NewColumn("volume", frame.Int64, int64(100), int64(200)),
	)
	schema, err := InferSchema(batch)
	require.NoError(t, err)

	data, err := EncodeParquet(batch, schema)
	require.NoError(t, err)

	reader := parquet.NewReader(bytes.NewReader(data))
	defer reader.Close()
	assert.Equal(t, int64(2), reader.NumRows())

	var names []string
	for _, field := range reader.Schema().Fields() {
		names = append(names, field.Name())
	}
	assert.ElementsMatch(t, []string{"date", "itemname", "close", "volume"}, names)

	rows := []map[string]interface{}{}
	for {
		row := map[string]interface{}{}
		if err := reader.Read(&row); err != nil {
			require.ErrorIs(t, err, io.EOF)
			break
		}
		rows = append(rows, row)
	}
	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0]["itemname"])
	assert.Nil(t, rows[1]["itemname"])
	assert.Equal(t, int64(200), rows[1]["volume"])
	assert.Equal(t, 10.5, rows[0]["close"])
}

func TestEncodeParquetUnknownFieldType(t *testing.T) {
	batch := frame.MustNew(frame.NewColumn("flag", frame.String, "x"))
	_, err := EncodeParquet(batch, bigquery.Schema{{Name: "flag", Type: bigquery.BooleanFieldType}})
	assert.Error(t, err)
}
