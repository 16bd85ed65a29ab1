// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// Copyright 2024 FeatureForm Inc.
//

package metrics

type NoOpMetricsHandler struct{}

func (nop *NoOpMetricsHandler) BeginObservingLoad(infoType string, table string) WarehouseObserver {
	return &NoOpWarehouseObserver{}
}

func (nop *NoOpMetricsHandler) BeginObservingRead(infoType string, table string) WarehouseObserver {
	return &NoOpWarehouseObserver{}
}
func (nop *NoOpMetricsHandler) ExposePort(port string) error { return nil }

type NoOpWarehouseObserver struct{}

func (nop *NoOpWarehouseObserver) SetError()     {}
func (nop *NoOpWarehouseObserver) SetSkipped()   {}
func (nop *NoOpWarehouseObserver) AddRows(n int) {}
func (nop *NoOpWarehouseObserver) Finish()       {}
