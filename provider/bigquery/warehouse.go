// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// Copyright 2025 FeatureForm Inc.
//

package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"

	"github.com/stormlab/stockstore/frame"
)

// WriteDisposition decides what a load does when the target already holds rows.
type WriteDisposition int

const (
	// AppendOnlyIfEmpty rejects the load with a conflict when the table has data.
	AppendOnlyIfEmpty WriteDisposition = iota
	// TruncateAndReplace overwrites the table contents.
	TruncateAndReplace
	// Append adds rows regardless of existing contents.
	Append
)

func (d WriteDisposition) String() string {
	switch d {
	case AppendOnlyIfEmpty:
		return "AppendOnlyIfEmpty"
	case TruncateAndReplace:
		return "TruncateAndReplace"
	case Append:
		return "Append"
	default:
		return fmt.Sprintf("WriteDisposition(%d)", int(d))
	}
}

func (d WriteDisposition) Native() bigquery.TableWriteDisposition {
	switch d {
	case TruncateAndReplace:
		return bigquery.WriteTruncate
	case Append:
		return bigquery.WriteAppend
	default:
		return bigquery.WriteEmpty
	}
}

type Table struct {
	Name    string
	Schema  bigquery.Schema
	NumRows uint64
}

type ResultSet struct {
	Schema bigquery.Schema
	Rows   [][]bigquery.Value
}

type LoadResult struct {
	Table      string
	RowsLoaded int64
}

// Warehouse is the remote service this module drives. Implementations report
// a missing table with wherr.TableNotFoundError, a create race with
// wherr.TableAlreadyExistsError and a rejected duplicate load with
// wherr.LoadConflictError. All other failures are returned as-is.
type Warehouse interface {
	DescribeTable(ctx context.Context, name string) (*Table, error)
	CreateTable(ctx context.Context, name string, schema bigquery.Schema) (*Table, error)
	ListTables(ctx context.Context) ([]string, error)
	LoadRows(ctx context.Context, name string, batch *frame.Frame, schema bigquery.Schema, disposition WriteDisposition) (*LoadResult, error)
	RunQuery(ctx context.Context, stmt Statement) (*ResultSet, error)
	RunQueryInto(ctx context.Context, stmt Statement, destination string, disposition WriteDisposition) (*Table, error)
	DeleteRows(ctx context.Context, stmt Statement) (int64, error)
}
