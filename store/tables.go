// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// Copyright 2025 FeatureForm Inc.
//

package store

import (
	"context"

	"cloud.google.com/go/bigquery"

	"github.com/stormlab/stockstore/logging"
	bq "github.com/stormlab/stockstore/provider/bigquery"
	"github.com/stormlab/stockstore/wherr"
)

type TableManager struct {
	wh     bq.Warehouse
	logger logging.Logger
}

func NewTableManager(wh bq.Warehouse, logger logging.Logger) *TableManager {
	return &TableManager{wh: wh, logger: logger}
}

// GetIfExists reports a missing table as ok=false. Other failures are returned.
func (m *TableManager) GetIfExists(ctx context.Context, name string) (*bq.Table, bool, error) {
	table, err := m.wh.DescribeTable(ctx, name)
	if wherr.IsTableNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return table, true, nil
}

// EnsureCreated creates the table when it is absent. An existing table is
// returned unchanged, without comparing schemas. Losing a creation race to
// another caller counts as success.
func (m *TableManager) EnsureCreated(ctx context.Context, name string, schema bigquery.Schema) (*bq.Table, error) {
	logger := logging.GetLoggerFromContext(ctx, m.logger).WithTable(name)
	table, ok, err := m.GetIfExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if ok {
		return table, nil
	}
	table, err = m.wh.CreateTable(ctx, name, schema)
	if wherr.IsTableAlreadyExists(err) {
		logger.Debugw("Table created concurrently", "err", err)
		return m.wh.DescribeTable(ctx, name)
	}
	if err != nil {
		return nil, err
	}
	logger.Infow("Created table", "schema", bq.DescribeSchema(schema))
	return table, nil
}
