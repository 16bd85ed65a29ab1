// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// Copyright 2025 FeatureForm Inc.
//

package store

import (
	"context"
	"errors"
	"time"

	"github.com/stormlab/stockstore/frame"
	"github.com/stormlab/stockstore/logging"
	"github.com/stormlab/stockstore/metrics"
	bq "github.com/stormlab/stockstore/provider/bigquery"
	"github.com/stormlab/stockstore/wherr"
)

type Outcome int

const (
	Loaded Outcome = iota
	Skipped
)

func (o Outcome) String() string {
	if o == Skipped {
		return "Skipped"
	}
	return "Loaded"
}

type LoadResult struct {
	Outcome    Outcome
	Table      *bq.Table
	RowsLoaded int64
	// Reason is the warehouse message for a Skipped load.
	Reason string
	// StartDate and EndDate span the batch's date column when HasDateRange is set.
	StartDate    time.Time
	EndDate      time.Time
	HasDateRange bool
}

type Loader struct {
	wh      bq.Warehouse
	tables  *TableManager
	metrics metrics.MetricsHandler
	logger  logging.Logger
}

func NewLoader(wh bq.Warehouse, tables *TableManager, m metrics.MetricsHandler, logger logging.Logger) *Loader {
	return &Loader{wh: wh, tables: tables, metrics: m, logger: logger}
}

// Load infers the batch schema, ensures the table exists and submits the
// batch under disposition. A conflict reported by the warehouse yields a
// Skipped result rather than an error.
func (l *Loader) Load(ctx context.Context, infoType, table string, batch *frame.Frame, disposition bq.WriteDisposition) (*LoadResult, error) {
	logger := logging.GetLoggerFromContext(ctx, l.logger).WithTable(table).WithInfoType(infoType)
	obs := l.metrics.BeginObservingLoad(infoType, table)

	schema, err := bq.InferSchema(batch)
	if err != nil {
		obs.SetError()
		var unmappable *wherr.UnmappableTypeError
		if errors.As(err, &unmappable) {
			unmappable.AddDetail("table", table)
			unmappable.AddDetail("operation", bq.OpLoad)
		}
		return nil, err
	}
	target, err := l.tables.EnsureCreated(ctx, table, schema)
	if err != nil {
		obs.SetError()
		return nil, err
	}
	loaded, err := l.wh.LoadRows(ctx, table, batch, target.Schema, disposition)
	if wherr.IsLoadConflict(err) {
		obs.SetSkipped()
		logger.Infow("Table already holds data, skipping load", "reason", err.Error(), "disposition", disposition.String())
		return &LoadResult{Outcome: Skipped, Table: target, Reason: err.Error()}, nil
	}
	if err != nil {
		obs.SetError()
		return nil, err
	}
	obs.AddRows(int(loaded.RowsLoaded))
	obs.Finish()

	result := &LoadResult{Outcome: Loaded, Table: target, RowsLoaded: loaded.RowsLoaded}
	logger.Infow("Saved batch", "rows", loaded.RowsLoaded, "disposition", disposition.String())
	if start, end, ok := batch.DateRange(bq.DefaultDateColumn); ok {
		result.StartDate, result.EndDate, result.HasDateRange = start, end, true
		logger.Infow("Saved date range", "start_date", start.Format(time.DateOnly), "end_date", end.Format(time.DateOnly))
	}
	return result, nil
}
