// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// Copyright 2025 FeatureForm Inc.
//

package bigquery

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/stormlab/stockstore/provider/location"
	"github.com/stormlab/stockstore/wherr"
)

const (
	DefaultDateColumn = "date"
	DefaultNameColumn = "itemname"

	startDateParam = "start_date"
	endDateParam   = "end_date"
	namesParam     = "names"
)

type StatementKind int

const (
	SelectStatement StatementKind = iota
	UnionStatement
	DeleteStatement
	MaxDateStatement
)

// Statement is rendered SQL plus the structured form it was rendered from.
// Values never appear in SQL; they travel as named parameters.
type Statement struct {
	Kind       StatementKind
	SQL        string
	Parameters []bigquery.QueryParameter
	Tables     []string
	Columns    []string
	Filter     Predicate
}

// Predicate is a conjunction of optional date bounds and an optional set of
// instrument names. Build it once and reuse it so reads, deletes and unions
// filter identically.
type Predicate struct {
	DateColumn string
	NameColumn string
	Start      *civil.Date
	End        *civil.Date
	// Names is nil when no name filter applies. An empty set matches nothing.
	Names mapset.Set[string]
}

func (p Predicate) IsUnconditional() bool {
	return p.Start == nil && p.End == nil && p.Names == nil
}

func (p Predicate) Clauses() []string {
	var clauses []string
	if p.Start != nil {
		clauses = append(clauses, fmt.Sprintf("%s >= @%s", quoteIdentifier(p.DateColumn), startDateParam))
	}
	if p.End != nil {
		clauses = append(clauses, fmt.Sprintf("%s <= @%s", quoteIdentifier(p.DateColumn), endDateParam))
	}
	if p.Names != nil {
		clauses = append(clauses, fmt.Sprintf("%s IN UNNEST(@%s)", quoteIdentifier(p.NameColumn), namesParam))
	}
	return clauses
}

// Where renders "WHERE ..." or an empty string for the unconditional predicate.
func (p Predicate) Where() string {
	clauses := p.Clauses()
	if len(clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(clauses, " AND ")
}

func (p Predicate) Parameters() []bigquery.QueryParameter {
	var params []bigquery.QueryParameter
	if p.Start != nil {
		params = append(params, bigquery.QueryParameter{Name: startDateParam, Value: *p.Start})
	}
	if p.End != nil {
		params = append(params, bigquery.QueryParameter{Name: endDateParam, Value: *p.End})
	}
	if p.Names != nil {
		params = append(params, bigquery.QueryParameter{Name: namesParam, Value: p.SortedNames()})
	}
	return params
}

func (p Predicate) SortedNames() []string {
	if p.Names == nil {
		return nil
	}
	names := p.Names.ToSlice()
	sort.Strings(names)
	if names == nil {
		names = []string{}
	}
	return names
}

// Matches evaluates the predicate against a single row's date and name.
func (p Predicate) Matches(date bigquery.Value, name bigquery.Value) bool {
	if p.Start != nil || p.End != nil {
		d, ok := date.(civil.Date)
		if !ok {
			return false
		}
		if p.Start != nil && d.Before(*p.Start) {
			return false
		}
		if p.End != nil && d.After(*p.End) {
			return false
		}
	}
	if p.Names != nil {
		n, ok := name.(string)
		if !ok || !p.Names.Contains(n) {
			return false
		}
	}
	return true
}

// QueryBuilder renders statements against tables of one dataset.
type QueryBuilder struct {
	project    string
	dataset    string
	dateColumn string
	nameColumn string
}

func NewQueryBuilder(project, dataset string) *QueryBuilder {
	return &QueryBuilder{
		project:    project,
		dataset:    dataset,
		dateColumn: DefaultDateColumn,
		nameColumn: DefaultNameColumn,
	}
}

// Build creates the shared predicate. Bounds are truncated to calendar dates.
// names == nil applies no name filter.
func (b *QueryBuilder) Build(start, end *time.Time, names []string) Predicate {
	p := Predicate{DateColumn: b.dateColumn, NameColumn: b.nameColumn}
	if start != nil {
		d := civil.DateOf(*start)
		p.Start = &d
	}
	if end != nil {
		d := civil.DateOf(*end)
		p.End = &d
	}
	if names != nil {
		p.Names = mapset.NewThreadUnsafeSet[string](names...)
	}
	return p
}

func (b *QueryBuilder) table(name string) (string, error) {
	loc, err := location.NewSQLLocation(b.project, b.dataset, name)
	if err != nil {
		return "", err
	}
	return loc.Sanitized(), nil
}

func (b *QueryBuilder) projection(columns []string) (string, error) {
	if len(columns) == 0 {
		return "*", nil
	}
	quoted := make([]string, len(columns))
	for i, col := range columns {
		if err := location.ValidateIdentifier(col); err != nil {
			return "", err
		}
		quoted[i] = quoteIdentifier(col)
	}
	return strings.Join(quoted, ", "), nil
}

func (b *QueryBuilder) selectFrom(table string, columns []string, p Predicate) (string, error) {
	from, err := b.table(table)
	if err != nil {
		return "", err
	}
	proj, err := b.projection(columns)
	if err != nil {
		return "", err
	}
	sql := fmt.Sprintf("SELECT %s FROM %s", proj, from)
	if where := p.Where(); where != "" {
		sql = fmt.Sprintf("%s %s", sql, where)
	}
	return sql, nil
}

// Select reads columns (all when empty) of one table.
func (b *QueryBuilder) Select(table string, columns []string, p Predicate) (Statement, error) {
	sql, err := b.selectFrom(table, columns, p)
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		Kind:       SelectStatement,
		SQL:        sql,
		Parameters: p.Parameters(),
		Tables:     []string{table},
		Columns:    columns,
		Filter:     p,
	}, nil
}

// Union reads the same columns from every table, each filtered by p.
// An empty table list has no valid rendering and fails with NoDataError.
func (b *QueryBuilder) Union(tables []string, columns []string, p Predicate) (Statement, error) {
	if len(tables) == 0 {
		return Statement{}, wherr.NewNoDataError("", fmt.Errorf("union over zero tables"))
	}
	if len(columns) == 0 {
		return Statement{}, wherr.NewInvalidArgumentErrorf("union requires an explicit column list")
	}
	selects := make([]string, len(tables))
	for i, table := range tables {
		sql, err := b.selectFrom(table, columns, p)
		if err != nil {
			return Statement{}, err
		}
		selects[i] = sql
	}
	return Statement{
		Kind:       UnionStatement,
		SQL:        strings.Join(selects, "\nUNION ALL\n"),
		Parameters: p.Parameters(),
		Tables:     tables,
		Columns:    columns,
		Filter:     p,
	}, nil
}

// Delete removes matching rows. BigQuery requires a WHERE clause on DELETE,
// so the unconditional predicate renders as WHERE TRUE.
func (b *QueryBuilder) Delete(table string, p Predicate) (Statement, error) {
	from, err := b.table(table)
	if err != nil {
		return Statement{}, err
	}
	where := p.Where()
	if where == "" {
		where = "WHERE TRUE"
	}
	return Statement{
		Kind:       DeleteStatement,
		SQL:        fmt.Sprintf("DELETE FROM %s %s", from, where),
		Parameters: p.Parameters(),
		Tables:     []string{table},
		Filter:     p,
	}, nil
}

const LastDateColumn = "lastdate"

// MaxDate selects the latest date among matching rows as a single lastdate column.
func (b *QueryBuilder) MaxDate(table string, p Predicate) (Statement, error) {
	from, err := b.table(table)
	if err != nil {
		return Statement{}, err
	}
	sql := fmt.Sprintf("SELECT MAX(%s) AS %s FROM %s", quoteIdentifier(p.DateColumn), LastDateColumn, from)
	if where := p.Where(); where != "" {
		sql = fmt.Sprintf("%s %s", sql, where)
	}
	return Statement{
		Kind:       MaxDateStatement,
		SQL:        sql,
		Parameters: p.Parameters(),
		Tables:     []string{table},
		Filter:     p,
	}, nil
}

func quoteIdentifier(name string) string {
	return "`" + name + "`"
}
