// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// Copyright 2025 FeatureForm Inc.
//

package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/stormlab/stockstore/frame"
	"github.com/stormlab/stockstore/logging"
	"github.com/stormlab/stockstore/metrics"
	bq "github.com/stormlab/stockstore/provider/bigquery"
	"github.com/stormlab/stockstore/wherr"
)

type Reader struct {
	wh      bq.Warehouse
	tables  *TableManager
	queries *bq.QueryBuilder
	metrics metrics.MetricsHandler
	logger  logging.Logger
}

func NewReader(wh bq.Warehouse, tables *TableManager, queries *bq.QueryBuilder, m metrics.MetricsHandler, logger logging.Logger) *Reader {
	return &Reader{wh: wh, tables: tables, queries: queries, metrics: m, logger: logger}
}

func (r *Reader) run(ctx context.Context, infoType, table string, stmt bq.Statement) (*frame.Frame, error) {
	obs := r.metrics.BeginObservingRead(infoType, table)
	rs, err := r.wh.RunQuery(ctx, stmt)
	if err != nil {
		obs.SetError()
		return nil, err
	}
	decoded, err := bq.DecodeResult(rs)
	if err != nil {
		obs.SetError()
		return nil, err
	}
	obs.AddRows(decoded.NumRows())
	obs.Finish()
	return decoded, nil
}

// ReadTable returns every row of a table. The table must exist.
func (r *Reader) ReadTable(ctx context.Context, infoType, table string) (*frame.Frame, error) {
	stmt, err := r.queries.Select(table, nil, r.queries.Build(nil, nil, nil))
	if err != nil {
		return nil, err
	}
	return r.run(ctx, infoType, table, stmt)
}

// ReadShard reads a whole shard, orders it by date and keeps rows whose date
// lies in [start, end]. Either bound may be nil.
func (r *Reader) ReadShard(ctx context.Context, infoType, table string, start, end *time.Time) (*frame.Frame, error) {
	rows, err := r.ReadTable(ctx, infoType, table)
	if err != nil {
		return nil, err
	}
	sorted, err := rows.SortBy(bq.DefaultDateColumn)
	if err != nil {
		return nil, err
	}
	return sorted.Between(bq.DefaultDateColumn, truncate(start), truncate(end))
}

// ReadFiltered reads a table with the shared predicate applied by the warehouse.
func (r *Reader) ReadFiltered(ctx context.Context, infoType, table string, start, end *time.Time, names []string) (*frame.Frame, error) {
	stmt, err := r.queries.Select(table, nil, r.queries.Build(start, end, names))
	if err != nil {
		return nil, err
	}
	return r.run(ctx, infoType, table, stmt)
}

// UnionStatement selects from every existing shard of infoType among
// instruments. Shards missing from the dataset are skipped. With none left it
// fails with NoDataError. All shards must share the first shard's schema.
func (r *Reader) UnionStatement(ctx context.Context, infoType string, instruments []InstrumentIdentity, start, end *time.Time) (bq.Statement, error) {
	logger := logging.GetLoggerFromContext(ctx, r.logger).WithInfoType(infoType)
	listed, err := r.wh.ListTables(ctx)
	if err != nil {
		return bq.Statement{}, err
	}
	existing := mapset.NewThreadUnsafeSet[string](listed...)
	var shards []string
	for _, id := range instruments {
		name, err := ShardTable(infoType, id)
		if err != nil {
			return bq.Statement{}, err
		}
		if !existing.Contains(name) {
			logger.Debugw("Shard missing, skipping", "table", name)
			continue
		}
		shards = append(shards, name)
	}
	if len(shards) == 0 {
		return bq.Statement{}, wherr.NewNoDataError(infoType, fmt.Errorf("none of %d instruments has a %s shard", len(instruments), infoType))
	}

	var schema bigquery.Schema
	for _, name := range shards {
		table, ok, err := r.tables.GetIfExists(ctx, name)
		if err != nil {
			return bq.Statement{}, err
		}
		if !ok {
			return bq.Statement{}, wherr.NewTableNotFoundError(name, nil)
		}
		if schema == nil {
			schema = table.Schema
			continue
		}
		if !bq.SchemasEqual(schema, table.Schema) {
			return bq.Statement{}, wherr.NewSchemaMismatchError(name, bq.DescribeSchema(schema), bq.DescribeSchema(table.Schema))
		}
	}
	columns := make([]string, len(schema))
	for i, field := range schema {
		columns[i] = field.Name
	}
	return r.queries.Union(shards, columns, r.queries.Build(start, end, nil))
}

// GetDailyInfoAll reads the union of the instruments' shards.
func (r *Reader) GetDailyInfoAll(ctx context.Context, infoType string, instruments []InstrumentIdentity, start, end *time.Time) (*frame.Frame, error) {
	stmt, err := r.UnionStatement(ctx, infoType, instruments, start, end)
	if err != nil {
		return nil, err
	}
	aggregate, _ := AggregateTable(infoType)
	return r.run(ctx, infoType, aggregate, stmt)
}

// SaveDailyInfoAll materializes the union of the instruments' shards into
// the aggregate table of infoType.
func (r *Reader) SaveDailyInfoAll(ctx context.Context, infoType string, instruments []InstrumentIdentity, start, end *time.Time, disposition bq.WriteDisposition) (*bq.Table, error) {
	aggregate, err := AggregateTable(infoType)
	if err != nil {
		return nil, err
	}
	stmt, err := r.UnionStatement(ctx, infoType, instruments, start, end)
	if err != nil {
		return nil, err
	}
	obs := r.metrics.BeginObservingLoad(infoType, aggregate)
	table, err := r.wh.RunQueryInto(ctx, stmt, aggregate, disposition)
	if err != nil {
		obs.SetError()
		return nil, err
	}
	obs.AddRows(int(table.NumRows))
	obs.Finish()
	logging.GetLoggerFromContext(ctx, r.logger).WithTable(aggregate).Infow("Saved aggregate", "shards", len(stmt.Tables), "rows", table.NumRows, "disposition", disposition.String())
	return table, nil
}

// LastDate returns the latest date in table among rows whose name is in
// names. ok is false when no row matches.
func (r *Reader) LastDate(ctx context.Context, table string, names []string) (time.Time, bool, error) {
	stmt, err := r.queries.MaxDate(table, r.queries.Build(nil, nil, names))
	if err != nil {
		return time.Time{}, false, err
	}
	rs, err := r.wh.RunQuery(ctx, stmt)
	if err != nil {
		return time.Time{}, false, err
	}
	if len(rs.Rows) == 0 || len(rs.Rows[0]) == 0 || rs.Rows[0][0] == nil {
		return time.Time{}, false, nil
	}
	d, ok := rs.Rows[0][0].(civil.Date)
	if !ok {
		return time.Time{}, false, wherr.NewInternalErrorf("unexpected %s value %T", bq.LastDateColumn, rs.Rows[0][0])
	}
	return d.In(time.UTC), true, nil
}

// truncate drops the time of day so bounds compare as calendar dates.
func truncate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := civil.DateOf(*t).In(time.UTC)
	return &d
}
