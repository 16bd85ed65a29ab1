// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// Copyright 2025 FeatureForm Inc.
//

package store

import (
	"context"
	"time"

	"github.com/stormlab/stockstore/frame"
	"github.com/stormlab/stockstore/logging"
	"github.com/stormlab/stockstore/metrics"
	bq "github.com/stormlab/stockstore/provider/bigquery"
)

// Worker is the entry point used by the ingestion pipeline. It holds one
// long-lived warehouse handle shared by every component.
type Worker struct {
	wh         bq.Warehouse
	logger     logging.Logger
	metrics    metrics.MetricsHandler
	queries    *bq.QueryBuilder
	tables     *TableManager
	loader     *Loader
	reader     *Reader
	maintainer *Maintainer
}

type Option func(*Worker)

func WithLogger(logger logging.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

func WithMetrics(m metrics.MetricsHandler) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

// NewWorker builds a Worker whose queries address project.dataset.
func NewWorker(wh bq.Warehouse, project, dataset string, opts ...Option) *Worker {
	w := &Worker{
		wh:      wh,
		logger:  logging.NewNopLogger(),
		metrics: &metrics.NoOpMetricsHandler{},
		queries: bq.NewQueryBuilder(project, dataset),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.tables = NewTableManager(wh, w.logger)
	w.loader = NewLoader(wh, w.tables, w.metrics, w.logger)
	w.reader = NewReader(wh, w.tables, w.queries, w.metrics, w.logger)
	w.maintainer = NewMaintainer(wh, w.tables, w.queries, w.logger)
	return w
}

func (w *Worker) Tables() *TableManager   { return w.tables }
func (w *Worker) Loader() *Loader         { return w.loader }
func (w *Worker) Reader() *Reader         { return w.reader }
func (w *Worker) Maintainer() *Maintainer { return w.maintainer }

type saveConfig struct {
	disposition bq.WriteDisposition
}

type SaveOption func(*saveConfig)

// WithDisposition overrides the default write disposition of a save.
func WithDisposition(d bq.WriteDisposition) SaveOption {
	return func(c *saveConfig) {
		c.disposition = d
	}
}

func resolveSave(def bq.WriteDisposition, opts []SaveOption) bq.WriteDisposition {
	c := saveConfig{disposition: def}
	for _, opt := range opts {
		opt(&c)
	}
	return c.disposition
}

// SaveItemcodesInfo replaces the reference table unless told otherwise.
func (w *Worker) SaveItemcodesInfo(ctx context.Context, batch *frame.Frame, opts ...SaveOption) (*LoadResult, error) {
	return w.loader.Load(ctx, Itemcode, ReferenceTable, batch, resolveSave(bq.TruncateAndReplace, opts))
}

func (w *Worker) GetItemcodesInfo(ctx context.Context) (*frame.Frame, error) {
	return w.reader.ReadTable(ctx, Itemcode, ReferenceTable)
}

func (w *Worker) saveDaily(ctx context.Context, infoType string, id InstrumentIdentity, batch *frame.Frame, opts []SaveOption) (*LoadResult, error) {
	table, err := ShardTable(infoType, id)
	if err != nil {
		return nil, err
	}
	ctx = w.logger.WithInstrument(id.Code, id.Name, id.Market).AttachToContext(ctx)
	return w.loader.Load(ctx, infoType, table, batch, resolveSave(bq.AppendOnlyIfEmpty, opts))
}

func (w *Worker) getDaily(ctx context.Context, infoType string, id InstrumentIdentity, start, end *time.Time) (*frame.Frame, error) {
	table, err := ShardTable(infoType, id)
	if err != nil {
		return nil, err
	}
	return w.reader.ReadShard(ctx, infoType, table, start, end)
}

// SaveDailyItemInfo loads an instrument's daily prices. By default the load
// is skipped when the shard already holds data.
func (w *Worker) SaveDailyItemInfo(ctx context.Context, id InstrumentIdentity, batch *frame.Frame, opts ...SaveOption) (*LoadResult, error) {
	return w.saveDaily(ctx, DailyItems, id, batch, opts)
}

func (w *Worker) GetDailyItemInfo(ctx context.Context, id InstrumentIdentity, start, end *time.Time) (*frame.Frame, error) {
	return w.getDaily(ctx, DailyItems, id, start, end)
}

func (w *Worker) SaveDailyItemIndicatorInfo(ctx context.Context, id InstrumentIdentity, batch *frame.Frame, opts ...SaveOption) (*LoadResult, error) {
	return w.saveDaily(ctx, DailyItemsIndicator, id, batch, opts)
}

func (w *Worker) GetDailyItemIndicatorInfo(ctx context.Context, id InstrumentIdentity, start, end *time.Time) (*frame.Frame, error) {
	return w.getDaily(ctx, DailyItemsIndicator, id, start, end)
}

// GetLastDateOfDailyInfo returns the latest date in table, limited to the
// instruments named in reference when it is non-nil.
func (w *Worker) GetLastDateOfDailyInfo(ctx context.Context, table string, reference *frame.Frame) (time.Time, bool, error) {
	names, err := namesOf(reference)
	if err != nil {
		return time.Time{}, false, err
	}
	return w.reader.LastDate(ctx, table, names)
}

// GetDailyInfoAll reads the union of the reference instruments' shards.
func (w *Worker) GetDailyInfoAll(ctx context.Context, infoType string, reference *frame.Frame, start, end *time.Time) (*frame.Frame, error) {
	instruments, err := InstrumentsFromFrame(reference)
	if err != nil {
		return nil, err
	}
	return w.reader.GetDailyInfoAll(ctx, infoType, instruments, start, end)
}

// SaveDailyInfoAll writes the union of the reference instruments' shards to
// the aggregate table, refusing to overwrite a populated one by default.
func (w *Worker) SaveDailyInfoAll(ctx context.Context, infoType string, reference *frame.Frame, start, end *time.Time, opts ...SaveOption) (*bq.Table, error) {
	instruments, err := InstrumentsFromFrame(reference)
	if err != nil {
		return nil, err
	}
	return w.reader.SaveDailyInfoAll(ctx, infoType, instruments, start, end, resolveSave(bq.AppendOnlyIfEmpty, opts))
}

// ReadDailyInfoAll reads the aggregate table of infoType. A nil or empty
// reference applies no name filter.
func (w *Worker) ReadDailyInfoAll(ctx context.Context, infoType string, reference *frame.Frame, start, end *time.Time) (*frame.Frame, error) {
	table, err := AggregateTable(infoType)
	if err != nil {
		return nil, err
	}
	var names []string
	if reference != nil && reference.NumRows() > 0 {
		if names, err = namesOf(reference); err != nil {
			return nil, err
		}
	}
	return w.reader.ReadFiltered(ctx, infoType, table, start, end, names)
}

// DeleteDuplicatedRows clears rows from watermark onwards so the window can
// be loaded again. A non-nil reference restricts the delete to its names.
func (w *Worker) DeleteDuplicatedRows(ctx context.Context, table, watermark string, reference *frame.Frame) (int64, error) {
	names, err := namesOf(reference)
	if err != nil {
		return 0, err
	}
	return w.maintainer.DeleteFromString(ctx, table, watermark, names)
}
