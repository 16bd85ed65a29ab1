// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// Copyright 2025 FeatureForm Inc.
//

// Package bigquery maps in-memory batches onto BigQuery tables and builds
// the SQL this module runs against them.
package bigquery

import (
	"cloud.google.com/go/bigquery"

	"github.com/stormlab/stockstore/frame"
)

// Field types this package creates. The API reports tables created with
// standard SQL names (INT64, FLOAT64) under these legacy names as well.
const (
	STRING  = bigquery.StringFieldType
	INTEGER = bigquery.IntegerFieldType
	FLOAT   = bigquery.FloatFieldType
	DATE    = bigquery.DateFieldType
)

// LocalToField is the forward type translation used when creating tables.
// A local type missing from this map cannot be stored.
var LocalToField = map[frame.LocalType]bigquery.FieldType{
	frame.String:     STRING,
	frame.Int32:      INTEGER,
	frame.Int64:      INTEGER,
	frame.Float64:    FLOAT,
	frame.Datetime:   DATE,
	frame.DatetimeTZ: DATE,
}

// FieldToLocal is the inverse translation used when reading rows back.
var FieldToLocal = map[bigquery.FieldType]frame.LocalType{
	STRING:  frame.String,
	INTEGER: frame.Int64,
	FLOAT:   frame.Float64,
	DATE:    frame.Datetime,
}
