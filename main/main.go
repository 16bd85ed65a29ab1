// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// Copyright 2024 FeatureForm Inc.
//

package main

import (
	"context"
	"io"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/stormlab/stockstore/config"
	"github.com/stormlab/stockstore/frame"
	"github.com/stormlab/stockstore/logging"
	"github.com/stormlab/stockstore/metrics"
	bq "github.com/stormlab/stockstore/provider/bigquery"
	"github.com/stormlab/stockstore/store"
	"github.com/stormlab/stockstore/wherr"
)

// closeWithLog defers closing c until the returned func runs.
func closeWithLog(logger logging.Logger, msg string, c io.Closer) func() {
	return func() {
		logger.LogIfErr(msg, c.Close())
	}
}

func main() {
	logger := logging.NewLogger("stockstore")
	defer logger.Sync()
	logger.Info("Parsing stockstore config")
	cfg, err := config.Get(logger)
	if err != nil {
		logger.Errorw("Invalid config", "err", err)
		panic(err)
	}
	_, ctx, logger := logger.InitializeRequestID(context.Background())

	client, err := bq.NewClient(ctx, cfg.BigQuery, logger)
	if err != nil {
		logger.Errorw("Failed to connect to BigQuery", "err", err)
		panic(err)
	}
	defer closeWithLog(logger, "Failed to close BigQuery client", client)()

	var handler metrics.MetricsHandler = &metrics.NoOpMetricsHandler{}
	if cfg.MetricsPort != "" {
		handler = metrics.NewMetrics("stockstore", prometheus.DefaultRegisterer)
		go func() {
			logger.LogIfErr("Metrics server stopped", handler.ExposePort(cfg.MetricsPort))
		}()
	}

	worker := store.NewWorker(client, cfg.BigQuery.ProjectID, cfg.BigQuery.DatasetID,
		store.WithLogger(logger),
		store.WithMetrics(handler),
	)
	if err := refreshAll(ctx, worker, cfg, logger); err != nil {
		logger.Errorw("Aggregate refresh failed", "err", err)
		panic(err)
	}
	logger.Info("Aggregate refresh finished")
}

// refreshAll rebuilds the aggregate table of every configured info type,
// cfg.Workers at a time.
func refreshAll(ctx context.Context, worker *store.Worker, cfg config.Config, logger logging.Logger) error {
	readCtx, cancel := context.WithTimeout(ctx, cfg.JobTimeout)
	reference, err := worker.GetItemcodesInfo(readCtx)
	cancel()
	if err != nil {
		return errors.Wrap(err, "read reference instruments")
	}
	logger.Infow("Loaded reference instruments", "count", reference.NumRows())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, infoType := range cfg.InfoTypes {
		infoType := infoType
		g.Go(func() error {
			err := retry.Do(
				func() error {
					jobCtx, cancel := context.WithTimeout(gctx, cfg.JobTimeout)
					defer cancel()
					return refresh(jobCtx, worker, infoType, reference, cfg.StartDate, cfg.EndDate)
				},
				retry.Context(gctx),
				retry.Attempts(cfg.RetryAttempts),
				retry.Delay(time.Second),
				retry.RetryIf(retryable),
				retry.LastErrorOnly(true),
				retry.OnRetry(func(n uint, err error) {
					logger.WithInfoType(infoType).Warnw("Retrying aggregate refresh", "attempt", n+1, "err", err)
				}),
			)
			if wherr.IsNoData(err) {
				logger.WithInfoType(infoType).Infow("No shards to aggregate", "err", err)
				return nil
			}
			return errors.Wrapf(err, "refresh %s", infoType)
		})
	}
	return g.Wait()
}

// refresh rewrites the aggregate table. With a start date only the window
// from that date is replaced: rows from it onwards are deleted and the
// union of the window appended.
func refresh(ctx context.Context, worker *store.Worker, infoType string, reference *frame.Frame, start, end *time.Time) error {
	if start == nil {
		_, err := worker.SaveDailyInfoAll(ctx, infoType, reference, nil, end, store.WithDisposition(bq.TruncateAndReplace))
		return err
	}
	aggregate, err := store.AggregateTable(infoType)
	if err != nil {
		return err
	}
	if _, err := worker.Maintainer().DeleteFrom(ctx, aggregate, *start, nil); err != nil {
		return err
	}
	_, err = worker.SaveDailyInfoAll(ctx, infoType, reference, start, end, store.WithDisposition(bq.Append))
	return err
}

// retryable rejects failures that repeat identically on every attempt.
func retryable(err error) bool {
	var invalid *wherr.InvalidArgumentError
	switch {
	case wherr.IsLoadConflict(err), wherr.IsUnmappableType(err), wherr.IsNoData(err), wherr.IsSchemaMismatch(err):
		return false
	case errors.As(err, &invalid):
		return false
	}
	return true
}
