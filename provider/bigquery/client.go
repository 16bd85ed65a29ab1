// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// Copyright 2025 FeatureForm Inc.
//

package bigquery

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/stormlab/stockstore/config"
	"github.com/stormlab/stockstore/frame"
	"github.com/stormlab/stockstore/logging"
	"github.com/stormlab/stockstore/wherr"
)

const jobPollInterval = 500 * time.Millisecond

// Operation names used in errors, metrics and MemoryWarehouse call counts.
const (
	OpDescribe  = "describe"
	OpCreate    = "create"
	OpList      = "list"
	OpLoad      = "load"
	OpQuery     = "query"
	OpQueryInto = "query_into"
	OpDelete    = "delete"
)

// Client is the Warehouse backed by a BigQuery dataset.
type Client struct {
	client  *bigquery.Client
	dataset *bigquery.Dataset
	config  config.BigQueryConfig
	logger  logging.Logger
}

func NewClient(ctx context.Context, cfg config.BigQueryConfig, logger logging.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, wherr.NewInvalidArgumentError(err)
	}
	var opts []option.ClientOption
	switch {
	case len(cfg.CredentialsJSON) > 0:
		opts = append(opts, option.WithCredentialsJSON(cfg.CredentialsJSON))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, wherr.NewExecutionError(cfg.ProjectID, "connect", err)
	}
	client.Location = cfg.Location
	logger.Infow("Connected to BigQuery", "project", cfg.ProjectID, "dataset", cfg.DatasetID, "location", cfg.Location)
	return &Client{
		client:  client,
		dataset: client.Dataset(cfg.DatasetID),
		config:  cfg,
		logger:  logger,
	}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Project() string {
	return c.config.ProjectID
}

func (c *Client) Dataset() string {
	return c.config.DatasetID
}

func (c *Client) DescribeTable(ctx context.Context, name string) (*Table, error) {
	md, err := c.dataset.Table(name).Metadata(ctx)
	if err != nil {
		return nil, classify(name, OpDescribe, err)
	}
	return &Table{Name: name, Schema: md.Schema, NumRows: md.NumRows}, nil
}

func (c *Client) CreateTable(ctx context.Context, name string, schema bigquery.Schema) (*Table, error) {
	if err := c.dataset.Table(name).Create(ctx, &bigquery.TableMetadata{Schema: schema}); err != nil {
		return nil, classify(name, OpCreate, err)
	}
	c.logger.Debugw("Created table", "table", name, "schema", DescribeSchema(schema))
	return &Table{Name: name, Schema: schema}, nil
}

func (c *Client) ListTables(ctx context.Context) ([]string, error) {
	it := c.dataset.Tables(ctx)
	var names []string
	for {
		t, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, classify(c.config.DatasetID, OpList, err)
		}
		names = append(names, t.TableID)
	}
	return names, nil
}

func (c *Client) LoadRows(ctx context.Context, name string, batch *frame.Frame, schema bigquery.Schema, disposition WriteDisposition) (*LoadResult, error) {
	data, err := EncodeParquet(batch, schema)
	if err != nil {
		return nil, err
	}
	src := bigquery.NewReaderSource(bytes.NewReader(data))
	src.SourceFormat = bigquery.Parquet
	loader := c.dataset.Table(name).LoaderFrom(src)
	loader.WriteDisposition = disposition.Native()
	loader.CreateDisposition = bigquery.CreateNever
	job, err := loader.Run(ctx)
	if err != nil {
		return nil, classify(name, OpLoad, err)
	}
	status, err := c.monitorJob(ctx, job)
	if err != nil {
		return nil, classify(name, OpLoad, err)
	}
	result := &LoadResult{Table: name, RowsLoaded: int64(batch.NumRows())}
	if stats, ok := status.Statistics.Details.(*bigquery.LoadStatistics); ok {
		result.RowsLoaded = stats.OutputRows
	}
	return result, nil
}

func (c *Client) query(stmt Statement) *bigquery.Query {
	q := c.client.Query(stmt.SQL)
	q.Parameters = stmt.Parameters
	q.DefaultProjectID = c.config.ProjectID
	q.DefaultDatasetID = c.config.DatasetID
	return q
}

func (c *Client) run(ctx context.Context, q *bigquery.Query, table, operation string) (*bigquery.Job, *bigquery.JobStatus, error) {
	job, err := q.Run(ctx)
	if err != nil {
		return nil, nil, classify(table, operation, err)
	}
	status, err := c.monitorJob(ctx, job)
	if err != nil {
		return nil, nil, classify(table, operation, err)
	}
	return job, status, nil
}

func (c *Client) RunQuery(ctx context.Context, stmt Statement) (*ResultSet, error) {
	table := statementTable(stmt)
	job, _, err := c.run(ctx, c.query(stmt), table, OpQuery)
	if err != nil {
		return nil, err
	}
	it, err := job.Read(ctx)
	if err != nil {
		return nil, classify(table, OpQuery, err)
	}
	rs := &ResultSet{}
	for {
		var row []bigquery.Value
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, classify(table, OpQuery, err)
		}
		rs.Rows = append(rs.Rows, row)
	}
	rs.Schema = it.Schema
	return rs, nil
}

func (c *Client) RunQueryInto(ctx context.Context, stmt Statement, destination string, disposition WriteDisposition) (*Table, error) {
	q := c.query(stmt)
	q.Dst = c.dataset.Table(destination)
	q.CreateDisposition = bigquery.CreateIfNeeded
	q.WriteDisposition = disposition.Native()
	if _, _, err := c.run(ctx, q, destination, OpQueryInto); err != nil {
		return nil, err
	}
	return c.DescribeTable(ctx, destination)
}

func (c *Client) DeleteRows(ctx context.Context, stmt Statement) (int64, error) {
	table := statementTable(stmt)
	_, status, err := c.run(ctx, c.query(stmt), table, OpDelete)
	if err != nil {
		return 0, err
	}
	if stats, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
		return stats.NumDMLAffectedRows, nil
	}
	return 0, nil
}

// monitorJob polls until the job finishes or ctx is done.
func (c *Client) monitorJob(ctx context.Context, job *bigquery.Job) (*bigquery.JobStatus, error) {
	ticker := time.NewTicker(jobPollInterval)
	defer ticker.Stop()
	for {
		status, err := job.Status(ctx)
		if err != nil {
			return nil, err
		}
		if status.Err() != nil {
			return nil, status.Err()
		}
		if status.State == bigquery.Done {
			return status, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func statementTable(stmt Statement) string {
	if len(stmt.Tables) == 1 {
		return stmt.Tables[0]
	}
	return ""
}

// classify maps service failures onto the error taxonomy. A conflict on
// create means the table exists; anywhere else it means a rejected load.
func classify(table, operation string, err error) error {
	if err == nil {
		return nil
	}
	notFound, conflict := false, false
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			notFound = true
		case http.StatusConflict:
			conflict = true
		}
	}
	var bqErr *bigquery.Error
	if errors.As(err, &bqErr) {
		switch bqErr.Reason {
		case "notFound":
			notFound = true
		case "duplicate":
			conflict = true
		}
	}
	switch {
	case notFound:
		return wherr.NewTableNotFoundError(table, err)
	case conflict && operation == OpCreate:
		return wherr.NewTableAlreadyExistsError(table, err)
	case conflict:
		return wherr.NewLoadConflictError(table, err)
	default:
		return wherr.NewExecutionError(table, operation, err)
	}
}
