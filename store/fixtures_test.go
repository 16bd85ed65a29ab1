// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// Copyright 2025 FeatureForm Inc.
//

package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stormlab/stockstore/frame"
	bq "github.com/stormlab/stockstore/provider/bigquery"
)

const (
	testProject = "storm-0809"
	testDataset = "stock"
)

var (
	samsung = InstrumentIdentity{Code: "005930", Name: "Samsung", Market: "KS"}
	kakao   = InstrumentIdentity{Code: "035720", Name: "Kakao", Market: "KS"}
)

var kst = time.FixedZone("KST", 9*60*60)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// kstDate is midnight in Seoul, which is the previous day in UTC.
func kstDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, kst)
}

func ptr(t time.Time) *time.Time {
	return &t
}

// dailyFrame holds one row per day for [from, to] of a single instrument.
func dailyFrame(name string, from, to time.Time) *frame.Frame {
	return dailyFrameOf(frame.Datetime, name, from, to)
}

func dailyFrameOf(dateType frame.LocalType, name string, from, to time.Time) *frame.Frame {
	var dates, names, closes, volumes []any
	for d, i := from, 0; !d.After(to); d, i = d.AddDate(0, 0, 1), i+1 {
		dates = append(dates, d)
		names = append(names, name)
		closes = append(closes, 100.0+float64(i))
		volumes = append(volumes, int64(1000+i))
	}
	return frame.MustNew(
		frame.NewColumn("date", dateType, dates...),
		frame.NewColumn("itemname", frame.String, names...),
		frame.NewColumn("close", frame.Float64, closes...),
		frame.NewColumn("volume", frame.Int64, volumes...),
	)
}

func referenceFrame(ids ...InstrumentIdentity) *frame.Frame {
	var codes, names, markets []any
	for _, id := range ids {
		codes = append(codes, id.Code)
		names = append(names, id.Name)
		markets = append(markets, id.Market)
	}
	return frame.MustNew(
		frame.NewColumn(CodeColumn, frame.String, codes...),
		frame.NewColumn(NameColumn, frame.String, names...),
		frame.NewColumn(MarketColumn, frame.String, markets...),
	)
}

func newTestWorker() (*Worker, *bq.MemoryWarehouse) {
	wh := bq.NewMemoryWarehouse()
	return NewWorker(wh, testProject, testDataset), wh
}

func dates(t *testing.T, f *frame.Frame) []time.Time {
	col, ok := f.Column("date")
	require.True(t, ok)
	out := make([]time.Time, len(col.Values))
	for i, v := range col.Values {
		out[i] = v.(time.Time)
	}
	return out
}

func dayRange(from, to time.Time) []time.Time {
	var out []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}
