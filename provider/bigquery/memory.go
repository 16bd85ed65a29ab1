// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// Copyright 2025 FeatureForm Inc.
//

package bigquery

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/stormlab/stockstore/frame"
	"github.com/stormlab/stockstore/wherr"
)

type memTable struct {
	schema bigquery.Schema
	rows   [][]bigquery.Value
}

func (t *memTable) index(column string) int {
	for i, field := range t.schema {
		if field.Name == column {
			return i
		}
	}
	return -1
}

// MemoryWarehouse is an in-process Warehouse. It evaluates the structured
// form of each Statement instead of its SQL and counts calls per operation.
type MemoryWarehouse struct {
	mu       sync.Mutex
	tables   map[string]*memTable
	calls    map[string]int
	failures map[string]error
}

func NewMemoryWarehouse() *MemoryWarehouse {
	return &MemoryWarehouse{
		tables:   map[string]*memTable{},
		calls:    map[string]int{},
		failures: map[string]error{},
	}
}

// Calls reports how many times op was invoked.
func (m *MemoryWarehouse) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// InjectError makes every later call of op fail with err. A nil err clears it.
func (m *MemoryWarehouse) InjectError(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// Rows returns a copy of the stored rows of a table.
func (m *MemoryWarehouse) Rows(name string) [][]bigquery.Value {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[name]
	if !ok {
		return nil
	}
	rows := make([][]bigquery.Value, len(t.rows))
	for i, row := range t.rows {
		rows[i] = append([]bigquery.Value(nil), row...)
	}
	return rows
}

// enter must be called with mu held.
func (m *MemoryWarehouse) enter(op string) error {
	m.calls[op]++
	return m.failures[op]
}

func (m *MemoryWarehouse) table(name string) (*memTable, error) {
	t, ok := m.tables[name]
	if !ok {
		return nil, wherr.NewTableNotFoundError(name, fmt.Errorf("not found: table %s", name))
	}
	return t, nil
}

func (m *MemoryWarehouse) DescribeTable(ctx context.Context, name string) (*Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpDescribe); err != nil {
		return nil, err
	}
	t, err := m.table(name)
	if err != nil {
		return nil, err
	}
	return &Table{Name: name, Schema: t.schema, NumRows: uint64(len(t.rows))}, nil
}

func (m *MemoryWarehouse) CreateTable(ctx context.Context, name string, schema bigquery.Schema) (*Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpCreate); err != nil {
		return nil, err
	}
	if _, ok := m.tables[name]; ok {
		return nil, wherr.NewTableAlreadyExistsError(name, fmt.Errorf("already exists: table %s", name))
	}
	m.tables[name] = &memTable{schema: schema}
	return &Table{Name: name, Schema: schema}, nil
}

func (m *MemoryWarehouse) ListTables(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpList); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemoryWarehouse) LoadRows(ctx context.Context, name string, batch *frame.Frame, schema bigquery.Schema, disposition WriteDisposition) (*LoadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpLoad); err != nil {
		return nil, err
	}
	t, err := m.table(name)
	if err != nil {
		return nil, err
	}
	// Loads go through the same file encoding as the remote client.
	if _, err := EncodeParquet(batch, schema); err != nil {
		return nil, err
	}
	rows, err := encodeRows(batch, t.schema)
	if err != nil {
		return nil, err
	}
	if err := m.write(t, name, rows, disposition); err != nil {
		return nil, err
	}
	return &LoadResult{Table: name, RowsLoaded: int64(len(rows))}, nil
}

func (m *MemoryWarehouse) write(t *memTable, name string, rows [][]bigquery.Value, disposition WriteDisposition) error {
	switch disposition {
	case AppendOnlyIfEmpty:
		if len(t.rows) > 0 {
			return wherr.NewLoadConflictError(name, fmt.Errorf("already exists: table %s is not empty", name))
		}
		t.rows = rows
	case TruncateAndReplace:
		t.rows = rows
	default:
		t.rows = append(t.rows, rows...)
	}
	return nil
}

func (m *MemoryWarehouse) RunQuery(ctx context.Context, stmt Statement) (*ResultSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpQuery); err != nil {
		return nil, err
	}
	return m.evaluate(stmt)
}

func (m *MemoryWarehouse) RunQueryInto(ctx context.Context, stmt Statement, destination string, disposition WriteDisposition) (*Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpQueryInto); err != nil {
		return nil, err
	}
	rs, err := m.evaluate(stmt)
	if err != nil {
		return nil, err
	}
	t, ok := m.tables[destination]
	if !ok {
		t = &memTable{schema: rs.Schema}
		m.tables[destination] = t
	} else if disposition == TruncateAndReplace {
		t.schema = rs.Schema
	} else if !SchemasEqual(t.schema, rs.Schema) {
		return nil, wherr.NewSchemaMismatchError(destination, DescribeSchema(t.schema), DescribeSchema(rs.Schema))
	}
	if err := m.write(t, destination, rs.Rows, disposition); err != nil {
		return nil, err
	}
	return &Table{Name: destination, Schema: t.schema, NumRows: uint64(len(t.rows))}, nil
}

func (m *MemoryWarehouse) DeleteRows(ctx context.Context, stmt Statement) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpDelete); err != nil {
		return 0, err
	}
	if stmt.Kind != DeleteStatement || len(stmt.Tables) != 1 {
		return 0, wherr.NewInvalidArgumentErrorf("not a delete statement: %s", stmt.SQL)
	}
	name := stmt.Tables[0]
	t, err := m.table(name)
	if err != nil {
		return 0, err
	}
	match, err := matcher(t, name, stmt.Filter)
	if err != nil {
		return 0, err
	}
	kept := t.rows[:0:0]
	var deleted int64
	for _, row := range t.rows {
		if match(row) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	t.rows = kept
	return deleted, nil
}

func (m *MemoryWarehouse) evaluate(stmt Statement) (*ResultSet, error) {
	switch stmt.Kind {
	case SelectStatement, UnionStatement:
		if len(stmt.Tables) == 0 {
			return nil, wherr.NewInvalidArgumentErrorf("statement reads no tables")
		}
		rs := &ResultSet{}
		for _, name := range stmt.Tables {
			part, err := m.selectRows(name, stmt.Columns, stmt.Filter)
			if err != nil {
				return nil, err
			}
			if rs.Schema == nil {
				rs.Schema = part.Schema
			}
			rs.Rows = append(rs.Rows, part.Rows...)
		}
		return rs, nil
	case MaxDateStatement:
		if len(stmt.Tables) != 1 {
			return nil, wherr.NewInvalidArgumentErrorf("max date reads exactly one table")
		}
		return m.maxDate(stmt.Tables[0], stmt.Filter)
	default:
		return nil, wherr.NewInvalidArgumentErrorf("unsupported query: %s", stmt.SQL)
	}
}

func (m *MemoryWarehouse) selectRows(name string, columns []string, p Predicate) (*ResultSet, error) {
	t, err := m.table(name)
	if err != nil {
		return nil, err
	}
	match, err := matcher(t, name, p)
	if err != nil {
		return nil, err
	}
	projection := make([]int, 0, len(t.schema))
	var schema bigquery.Schema
	if len(columns) == 0 {
		for i := range t.schema {
			projection = append(projection, i)
		}
		schema = t.schema
	} else {
		for _, col := range columns {
			idx := t.index(col)
			if idx < 0 {
				return nil, wherr.NewExecutionError(name, OpQuery, fmt.Errorf("unrecognized name: %s", col))
			}
			projection = append(projection, idx)
			schema = append(schema, t.schema[idx])
		}
	}
	rs := &ResultSet{Schema: schema}
	for _, row := range t.rows {
		if !match(row) {
			continue
		}
		out := make([]bigquery.Value, len(projection))
		for i, idx := range projection {
			out[i] = row[idx]
		}
		rs.Rows = append(rs.Rows, out)
	}
	return rs, nil
}

func (m *MemoryWarehouse) maxDate(name string, p Predicate) (*ResultSet, error) {
	t, err := m.table(name)
	if err != nil {
		return nil, err
	}
	match, err := matcher(t, name, p)
	if err != nil {
		return nil, err
	}
	dateIdx := t.index(p.DateColumn)
	if dateIdx < 0 {
		return nil, wherr.NewExecutionError(name, OpQuery, fmt.Errorf("unrecognized name: %s", p.DateColumn))
	}
	var latest bigquery.Value
	for _, row := range t.rows {
		if !match(row) {
			continue
		}
		d, ok := row[dateIdx].(civil.Date)
		if !ok {
			continue
		}
		if latest == nil || d.After(latest.(civil.Date)) {
			latest = d
		}
	}
	return &ResultSet{
		Schema: bigquery.Schema{{Name: LastDateColumn, Type: DATE}},
		Rows:   [][]bigquery.Value{{latest}},
	}, nil
}

func matcher(t *memTable, name string, p Predicate) (func([]bigquery.Value) bool, error) {
	dateIdx, nameIdx := -1, -1
	if p.Start != nil || p.End != nil {
		if dateIdx = t.index(p.DateColumn); dateIdx < 0 {
			return nil, wherr.NewExecutionError(name, OpQuery, fmt.Errorf("unrecognized name: %s", p.DateColumn))
		}
	}
	if p.Names != nil {
		if nameIdx = t.index(p.NameColumn); nameIdx < 0 {
			return nil, wherr.NewExecutionError(name, OpQuery, fmt.Errorf("unrecognized name: %s", p.NameColumn))
		}
	}
	return func(row []bigquery.Value) bool {
		var date, item bigquery.Value
		if dateIdx >= 0 {
			date = row[dateIdx]
		}
		if nameIdx >= 0 {
			item = row[nameIdx]
		}
		return p.Matches(date, item)
	}, nil
}
