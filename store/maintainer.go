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

	"github.com/araddon/dateparse"

	"github.com/stormlab/stockstore/logging"
	bq "github.com/stormlab/stockstore/provider/bigquery"
	"github.com/stormlab/stockstore/wherr"
)

type Maintainer struct {
	wh      bq.Warehouse
	tables  *TableManager
	queries *bq.QueryBuilder
	logger  logging.Logger
}

func NewMaintainer(wh bq.Warehouse, tables *TableManager, queries *bq.QueryBuilder, logger logging.Logger) *Maintainer {
	return &Maintainer{wh: wh, tables: tables, queries: queries, logger: logger}
}

// DeleteFrom removes rows dated on or after watermark, restricted to names
// when names is non-nil. A missing table is left alone and reports zero rows.
func (m *Maintainer) DeleteFrom(ctx context.Context, table string, watermark time.Time, names []string) (int64, error) {
	logger := logging.GetLoggerFromContext(ctx, m.logger).WithTable(table)
	_, ok, err := m.tables.GetIfExists(ctx, table)
	if err != nil {
		return 0, err
	}
	if !ok {
		logger.Debugw("Table missing, nothing to delete")
		return 0, nil
	}
	stmt, err := m.queries.Delete(table, m.queries.Build(&watermark, nil, names))
	if err != nil {
		return 0, err
	}
	deleted, err := m.wh.DeleteRows(ctx, stmt)
	if err != nil {
		return 0, err
	}
	logger.Infow("Deleted rows from watermark", "watermark", watermark.Format(time.DateOnly), "names", names, "rows", deleted)
	return deleted, nil
}

// DeleteFromString parses watermark in any common date layout, as UTC.
func (m *Maintainer) DeleteFromString(ctx context.Context, table, watermark string, names []string) (int64, error) {
	parsed, err := dateparse.ParseIn(watermark, time.UTC)
	if err != nil {
		return 0, wherr.NewInvalidArgumentErrorf("invalid watermark %q: %v", watermark, err)
	}
	return m.DeleteFrom(ctx, table, parsed, names)
}
