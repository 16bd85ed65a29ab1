// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// Copyright 2024 FeatureForm Inc.
//

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	handler := NewMetrics("test", reg)

	obs := handler.BeginObservingLoad("daily_items", "daily_items_info_005930_KS")
	obs.AddRows(5)
	obs.Finish()

	prom := obs.(*PromWarehouseObserver)
	rows, err := prom.GetObservedRowCount()
	require.NoError(t, err)
	assert.Equal(t, 5, rows)
	errs, err := prom.GetObservedErrorCount()
	require.NoError(t, err)
	assert.Zero(t, errs)
	assert.Equal(t, SUCCESS, prom.Status)

	success := handler.Count.WithLabelValues("test", "load", "daily_items", "daily_items_info_005930_KS", string(SUCCESS))
	assert.Equal(t, float64(1), testutil.ToFloat64(success))
}

func TestReadObserverError(t *testing.T) {
	reg := prometheus.NewRegistry()
	handler := NewMetrics("test", reg)

	obs := handler.BeginObservingRead("daily_items", "t")
	obs.SetError()

	errs, err := obs.(*PromWarehouseObserver).GetObservedErrorCount()
	require.NoError(t, err)
	assert.Equal(t, 1, errs)
	assert.Equal(t, 1, testutil.CollectAndCount(handler.Hist))
}

func TestSkippedObserver(t *testing.T) {
	handler := NewMetrics("test", prometheus.NewRegistry())
	obs := handler.BeginObservingLoad("daily_items", "t")
	obs.SetSkipped()
	skipped := handler.Count.WithLabelValues("test", "load", "daily_items", "t", string(SKIPPED))
	assert.Equal(t, float64(1), testutil.ToFloat64(skipped))
}

func TestNoOpHandler(t *testing.T) {
	var handler MetricsHandler = &NoOpMetricsHandler{}
	obs := handler.BeginObservingLoad("x", "y")
	obs.AddRows(3)
	obs.SetSkipped()
	obs.Finish()
	assert.NoError(t, handler.ExposePort(":0"))
}
