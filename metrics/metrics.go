// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// Copyright 2024 FeatureForm Inc.
//

package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

type Observation string

const (
	LOADED_ROW Observation = "loaded_row"
	READ_ROW   Observation = "read_row"
	SKIPPED    Observation = "skipped"
	ERROR      Observation = "error"
	SUCCESS    Observation = "success"
)

type MetricsHandler interface {
	BeginObservingLoad(infoType string, table string) WarehouseObserver
	BeginObservingRead(infoType string, table string) WarehouseObserver
	ExposePort(port string) error
}

type WarehouseObserver interface {
	SetError()
	SetSkipped()
	AddRows(n int)
	Finish()
}

type PromMetricsHandler struct {
	Hist     *prometheus.HistogramVec
	Count    *prometheus.CounterVec
	Name     string
	gatherer prometheus.Gatherer
}

// PromWarehouseObserver records one load or read. Exactly one of SetError,
// SetSkipped or Finish should be called to close it.
type PromWarehouseObserver struct {
	Timer    *prometheus.Timer
	Count    *prometheus.CounterVec
	Name     string
	Kind     string
	InfoType string
	Table    string
	Status   Observation
}

// NewMetrics registers the load and read collectors with reg. A nil reg
// uses the default registry.
func NewMetrics(name string, reg prometheus.Registerer) *PromMetricsHandler {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	count := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_operations_total", name),
			Help: "Counter for warehouse loads and reads, labeled by kind, info type, table and status",
		},
		[]string{"instance", "kind", "info_type", "table", "status"},
	)
	latency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    fmt.Sprintf("%s_operation_duration_seconds", name),
			Help:    "Latency for warehouse loads and reads, labeled by kind, info type and status",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"instance", "kind", "info_type", "status"},
	)
	reg.MustRegister(count, latency)
	gatherer, ok := reg.(prometheus.Gatherer)
	if !ok {
		gatherer = prometheus.DefaultGatherer
	}
	return &PromMetricsHandler{
		Hist:     latency,
		Count:    count,
		Name:     name,
		gatherer: gatherer,
	}
}

func (p *PromMetricsHandler) begin(kind, infoType, table string) WarehouseObserver {
	obs := &PromWarehouseObserver{
		Count:    p.Count,
		Name:     p.Name,
		Kind:     kind,
		InfoType: infoType,
		Table:    table,
		Status:   "running",
	}
	obs.Timer = prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		p.Hist.WithLabelValues(p.Name, kind, infoType, string(obs.Status)).Observe(v)
	}))
	return obs
}

func (p *PromMetricsHandler) BeginObservingLoad(infoType string, table string) WarehouseObserver {
	return p.begin("load", infoType, table)
}

func (p *PromMetricsHandler) BeginObservingRead(infoType string, table string) WarehouseObserver {
	return p.begin("read", infoType, table)
}

// ExposePort serves /metrics and blocks until the server fails.
func (p *PromMetricsHandler) ExposePort(port string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{}))
	return http.ListenAndServe(port, mux)
}

func (p *PromWarehouseObserver) inc(status Observation, n float64) {
	p.Count.WithLabelValues(p.Name, p.Kind, p.InfoType, p.Table, string(status)).Add(n)
}

func (p *PromWarehouseObserver) close(status Observation) {
	p.Status = status
	p.Timer.ObserveDuration()
	p.inc(status, 1)
}

func (p *PromWarehouseObserver) SetError() {
	p.close(ERROR)
}

func (p *PromWarehouseObserver) SetSkipped() {
	p.close(SKIPPED)
}

func (p *PromWarehouseObserver) AddRows(n int) {
	row := READ_ROW
	if p.Kind == "load" {
		row = LOADED_ROW
	}
	p.inc(row, float64(n))
}

func (p *PromWarehouseObserver) Finish() {
	p.close(SUCCESS)
}

func (p *PromWarehouseObserver) observed(status Observation) (int, error) {
	var m = &dto.Metric{}
	if err := p.Count.WithLabelValues(p.Name, p.Kind, p.InfoType, p.Table, string(status)).Write(m); err != nil {
		return 0, err
	}
	return int(m.Counter.GetValue()), nil
}

func (p *PromWarehouseObserver) GetObservedRowCount() (int, error) {
	if p.Kind == "load" {
		return p.observed(LOADED_ROW)
	}
	return p.observed(READ_ROW)
}

func (p *PromWarehouseObserver) GetObservedErrorCount() (int, error) {
	return p.observed(ERROR)
}
