// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// Copyright 2024 FeatureForm Inc.
//

// Package frame is a small column-oriented table used to move batches of
// rows in and out of the warehouse.
package frame

import (
	"fmt"
	"sort"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/stormlab/stockstore/wherr"
)

type Column struct {
	Name   string
	Type   LocalType
	Values []any
}

func NewColumn(name string, t LocalType, values ...any) Column {
	return Column{Name: name, Type: t, Values: values}
}

// Frame is immutable once built; every transformation returns a new Frame.
type Frame struct {
	columns []Column
	rows    int
}

func New(columns ...Column) (*Frame, error) {
	names := mapset.NewThreadUnsafeSet[string]()
	rows := -1
	for _, col := range columns {
		if col.Name == "" {
			return nil, wherr.NewInvalidArgumentErrorf("column name cannot be empty")
		}
		if !names.Add(col.Name) {
			return nil, wherr.NewInvalidArgumentErrorf("duplicate column %q", col.Name)
		}
		if rows != -1 && len(col.Values) != rows {
			return nil, wherr.NewInvalidArgumentErrorf("column %q has %d values, expected %d", col.Name, len(col.Values), rows)
		}
		rows = len(col.Values)
		for i, v := range col.Values {
			if !col.Type.accepts(v) {
				return nil, wherr.NewInvalidArgumentErrorf("column %q row %d: %T is not a %s", col.Name, i, v, col.Type)
			}
		}
	}
	if rows == -1 {
		rows = 0
	}
	copied := make([]Column, len(columns))
	for i, col := range columns {
		values := make([]any, len(col.Values))
		copy(values, col.Values)
		copied[i] = Column{Name: col.Name, Type: col.Type, Values: values}
	}
	return &Frame{columns: copied, rows: rows}, nil
}

// MustNew panics on invalid input. Intended for fixtures.
func MustNew(columns ...Column) *Frame {
	f, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Frame) NumRows() int {
	return f.rows
}

func (f *Frame) Columns() []Column {
	return f.columns
}

func (f *Frame) ColumnNames() []string {
	names := make([]string, len(f.columns))
	for i, col := range f.columns {
		names[i] = col.Name
	}
	return names
}

func (f *Frame) Column(name string) (Column, bool) {
	for _, col := range f.columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

func (f *Frame) HasColumn(name string) bool {
	_, ok := f.Column(name)
	return ok
}

// Types returns the local type of every column keyed by name.
func (f *Frame) Types() map[string]LocalType {
	types := make(map[string]LocalType, len(f.columns))
	for _, col := range f.columns {
		types[col.Name] = col.Type
	}
	return types
}

func (f *Frame) Row(i int) []any {
	row := make([]any, len(f.columns))
	for c, col := range f.columns {
		row[c] = col.Values[i]
	}
	return row
}

// Take builds a new frame from the given row indices, in order.
func (f *Frame) Take(indices []int) *Frame {
	columns := make([]Column, len(f.columns))
	for c, col := range f.columns {
		values := make([]any, len(indices))
		for i, idx := range indices {
			values[i] = col.Values[idx]
		}
		columns[c] = Column{Name: col.Name, Type: col.Type, Values: values}
	}
	return &Frame{columns: columns, rows: len(indices)}
}

func (f *Frame) Filter(keep func(row int) bool) *Frame {
	var indices []int
	for i := 0; i < f.rows; i++ {
		if keep(i) {
			indices = append(indices, i)
		}
	}
	return f.Take(indices)
}

func (f *Frame) timeColumn(name string) (Column, error) {
	col, ok := f.Column(name)
	if !ok {
		return Column{}, wherr.NewInvalidArgumentErrorf("column %q not found", name)
	}
	if col.Type.Semantic() != Date {
		return Column{}, wherr.NewInvalidArgumentErrorf("column %q is %s, not a date", name, col.Type)
	}
	return col, nil
}

// DateRange returns the min and max of a date column, ignoring nulls.
// ok is false when the column is missing or holds no values.
func (f *Frame) DateRange(name string) (min, max time.Time, ok bool) {
	col, err := f.timeColumn(name)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	for _, v := range col.Values {
		if v == nil {
			continue
		}
		t := v.(time.Time)
		if !ok {
			min, max, ok = t, t, true
			continue
		}
		if t.Before(min) {
			min = t
		}
		if t.After(max) {
			max = t
		}
	}
	return min, max, ok
}

// SortBy stably sorts rows ascending by the named column. Nulls sort first.
func (f *Frame) SortBy(name string) (*Frame, error) {
	col, ok := f.Column(name)
	if !ok {
		return nil, wherr.NewInvalidArgumentErrorf("column %q not found", name)
	}
	indices := make([]int, f.rows)
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return less(col.Values[indices[a]], col.Values[indices[b]])
	})
	return f.Take(indices), nil
}

// Between keeps rows whose date column lies within [start, end]. A nil bound
// is open. Rows with a null date are dropped when any bound is set.
func (f *Frame) Between(name string, start, end *time.Time) (*Frame, error) {
	col, err := f.timeColumn(name)
	if err != nil {
		return nil, err
	}
	if start == nil && end == nil {
		return f, nil
	}
	return f.Filter(func(row int) bool {
		v := col.Values[row]
		if v == nil {
			return false
		}
		t := v.(time.Time)
		if start != nil && t.Before(*start) {
			return false
		}
		if end != nil && t.After(*end) {
			return false
		}
		return true
	}), nil
}

// Unique returns the distinct non-null string values of a column in first-seen order.
func (f *Frame) Unique(name string) ([]string, error) {
	col, ok := f.Column(name)
	if !ok {
		return nil, wherr.NewInvalidArgumentErrorf("column %q not found", name)
	}
	if col.Type != String {
		return nil, wherr.NewInvalidArgumentErrorf("column %q is %s, not a string", name, col.Type)
	}
	seen := mapset.NewThreadUnsafeSet[string]()
	var unique []string
	for _, v := range col.Values {
		if v == nil {
			continue
		}
		s := v.(string)
		if seen.Add(s) {
			unique = append(unique, s)
		}
	}
	return unique, nil
}

func (f *Frame) String() string {
	var sb strings.Builder
	sb.WriteString(strings.Join(f.ColumnNames(), "\t"))
	for i := 0; i < f.rows; i++ {
		sb.WriteString("\n")
		for c, v := range f.Row(i) {
			if c > 0 {
				sb.WriteString("\t")
			}
			if t, ok := v.(time.Time); ok {
				sb.WriteString(t.Format(time.DateOnly))
				continue
			}
			fmt.Fprintf(&sb, "%v", v)
		}
	}
	return sb.String()
}

func less(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b != nil
	}
	switch av := a.(type) {
	case time.Time:
		return av.Before(b.(time.Time))
	case string:
		return av < b.(string)
	case int32:
		return av < b.(int32)
	case int64:
		return av < b.(int64)
	case float32:
		return av < b.(float32)
	case float64:
		return av < b.(float64)
	case bool:
		return !av && b.(bool)
	default:
		return false
	}
}
