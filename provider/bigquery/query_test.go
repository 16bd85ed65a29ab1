// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// Copyright 2025 FeatureForm Inc.
//

package bigquery

import (
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stormlab/stockstore/wherr"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestPredicateClauses(t *testing.T) {
	qb := NewQueryBuilder("proj", "stock")
	tests := []struct {
		name     string
		start    *time.Time
		end      *time.Time
		names    []string
		expected string
	}{
		{"Unconditional", nil, nil, nil, ""},
		{"StartOnly", day(2023, 1, 1), nil, nil, "WHERE `date` >= @start_date"},
		{"EndOnly", nil, day(2023, 1, 31), nil, "WHERE `date` <= @end_date"},
		{"NamesOnly", nil, nil, []string{"A"}, "WHERE `itemname` IN UNNEST(@names)"},
		{"All", day(2023, 1, 1), day(2023, 1, 31), []string{"A", "B"},
			"WHERE `date` >= @start_date AND `date` <= @end_date AND `itemname` IN UNNEST(@names)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := qb.Build(tt.start, tt.end, tt.names)
			assert.Equal(t, tt.expected, p.Where())
			assert.Equal(t, tt.expected == "", p.IsUnconditional())
			assert.Len(t, p.Parameters(), len(p.Clauses()))
		})
	}
}

func TestPredicateParametersCarryValues(t *testing.T) {
	p := NewQueryBuilder("proj", "stock").Build(day(2023, 1, 1), day(2023, 1, 31), []string{"B", "A", "B"})
	params := p.Parameters()
	require.Len(t, params, 3)
	assert.Equal(t, bigquery.QueryParameter{Name: "start_date", Value: civil.Date{Year: 2023, Month: 1, Day: 1}}, params[0])
	assert.Equal(t, bigquery.QueryParameter{Name: "end_date", Value: civil.Date{Year: 2023, Month: 1, Day: 31}}, params[1])
	assert.Equal(t, bigquery.QueryParameter{Name: "names", Value: []string{"A", "B"}}, params[2])
}

func TestEmptyNameSetMatchesNothing(t *testing.T) {
	p := NewQueryBuilder("proj", "stock").Build(nil, nil, []string{})
	assert.False(t, p.IsUnconditional())
	assert.Equal(t, "WHERE `itemname` IN UNNEST(@names)", p.Where())
	assert.Equal(t, []string{}, p.SortedNames())
	assert.False(t, p.Matches(nil, "A"))
}

func TestPredicateMatchesInclusiveBounds(t *testing.T) {
	p := NewQueryBuilder("proj", "stock").Build(day(2023, 1, 2), day(2023, 1, 4), []string{"A"})
	tests := []struct {
		date     civil.Date
		name     string
		expected bool
	}{
		{civil.Date{Year: 2023, Month: 1, Day: 1}, "A", false},
		{civil.Date{Year: 2023, Month: 1, Day: 2}, "A", true},
		{civil.Date{Year: 2023, Month: 1, Day: 4}, "A", true},
		{civil.Date{Year: 2023, Month: 1, Day: 5}, "A", false},
		{civil.Date{Year: 2023, Month: 1, Day: 3}, "B", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, p.Matches(tt.date, tt.name), "%s %s", tt.date, tt.name)
	}
	assert.False(t, p.Matches(nil, "A"))
}

func TestSelectStatement(t *testing.T) {
	qb := NewQueryBuilder("proj", "stock")
	stmt, err := qb.Select("daily_items_info_005930_KS", nil, qb.Build(day(2023, 1, 1), nil, nil))
	require.NoError(t, err)
	assert.Equal(t, SelectStatement, stmt.Kind)
	assert.Equal(t, "SELECT * FROM `proj.stock.daily_items_info_005930_KS` WHERE `date` >= @start_date", stmt.SQL)
	assert.Equal(t, []string{"daily_items_info_005930_KS"}, stmt.Tables)
}

func TestSelectRejectsBadIdentifiers(t *testing.T) {
	qb := NewQueryBuilder("proj", "stock")
	_, err := qb.Select("t`; DROP TABLE x; --", nil, qb.Build(nil, nil, nil))
	assert.Error(t, err)
	_, err = qb.Select("t", []string{"close`"}, qb.Build(nil, nil, nil))
	assert.Error(t, err)
}

func TestNameValuesNeverReachSQL(t *testing.T) {
	qb := NewQueryBuilder("proj", "stock")
	hostile := "A') OR 1=1 --"
	stmt, err := qb.Delete("t", qb.Build(nil, nil, []string{hostile}))
	require.NoError(t, err)
	assert.NotContains(t, stmt.SQL, hostile)
	assert.Equal(t, []string{hostile}, stmt.Parameters[0].Value)
}

func TestUnionStatement(t *testing.T) {
	qb := NewQueryBuilder("proj", "stock")
	p := qb.Build(day(2023, 1, 1), nil, nil)
	stmt, err := qb.Union([]string{"a", "b"}, []string{"date", "close"}, p)
	require.NoError(t, err)
	expected := "SELECT `date`, `close` FROM `proj.stock.a` WHERE `date` >= @start_date\n" +
		"UNION ALL\n" +
		"SELECT `date`, `close` FROM `proj.stock.b` WHERE `date` >= @start_date"
	assert.Equal(t, expected, stmt.SQL)
	assert.Len(t, stmt.Parameters, 1)
}

func TestUnionWithoutTables(t *testing.T) {
	qb := NewQueryBuilder("proj", "stock")
	_, err := qb.Union(nil, []string{"date"}, qb.Build(nil, nil, nil))
	assert.True(t, wherr.IsNoData(err))
}

func TestDeleteStatement(t *testing.T) {
	qb := NewQueryBuilder("proj", "stock")
	stmt, err := qb.Delete("t", qb.Build(nil, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM `proj.stock.t` WHERE TRUE", stmt.SQL)

	stmt, err = qb.Delete("t", qb.Build(day(2023, 1, 1), nil, []string{"A"}))
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM `proj.stock.t` WHERE `date` >= @start_date AND `itemname` IN UNNEST(@names)", stmt.SQL)
}

func TestMaxDateStatement(t *testing.T) {
	qb := NewQueryBuilder("proj", "stock")
	stmt, err := qb.MaxDate("t", qb.Build(nil, nil, []string{"A"}))
	require.NoError(t, err)
	assert.Equal(t, "SELECT MAX(`date`) AS lastdate FROM `proj.stock.t` WHERE `itemname` IN UNNEST(@names)", stmt.SQL)
}

func TestWriteDispositionNative(t *testing.T) {
	assert.Equal(t, bigquery.WriteEmpty, AppendOnlyIfEmpty.Native())
	assert.Equal(t, bigquery.WriteTruncate, TruncateAndReplace.Native())
	assert.Equal(t, bigquery.WriteAppend, Append.Native())
	assert.Equal(t, "Append", Append.String())
}
