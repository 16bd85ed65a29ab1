// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// Copyright 2025 FeatureForm Inc.
//

// Package store manages the per-instrument time-series tables of the stock
// dataset: naming, creation, idempotent loads, range reads and the
// deletes that precede re-ingestion.
package store

import (
	"fmt"
	"regexp"

	"github.com/stormlab/stockstore/frame"
	"github.com/stormlab/stockstore/provider/location"
	"github.com/stormlab/stockstore/wherr"
)

const (
	ReferenceTable = "itemcodes_info"

	Itemcode            = "itemcode"
	DailyItems          = "daily_items"
	DailyItemsIndicator = "daily_items_indicator"

	CodeColumn   = "itemcode"
	NameColumn   = "itemname"
	MarketColumn = "market"
)

var shardPartPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// InstrumentIdentity identifies one shard per info type.
type InstrumentIdentity struct {
	Code   string
	Name   string
	Market string
}

func NewInstrumentIdentity(code, name, market string) (InstrumentIdentity, error) {
	id := InstrumentIdentity{Code: code, Name: name, Market: market}
	if err := id.Validate(); err != nil {
		return InstrumentIdentity{}, err
	}
	return id, nil
}

// Validate requires an alphanumeric code and market. Underscores are the
// shard name separator, so allowing them would let two triples share a name.
func (i InstrumentIdentity) Validate() error {
	if !shardPartPattern.MatchString(i.Code) {
		return wherr.NewInvalidArgumentErrorf("invalid instrument code %q", i.Code)
	}
	if !shardPartPattern.MatchString(i.Market) {
		return wherr.NewInvalidArgumentErrorf("invalid market %q", i.Market)
	}
	return nil
}

func (i InstrumentIdentity) String() string {
	return fmt.Sprintf("%s(%s.%s)", i.Name, i.Code, i.Market)
}

// ShardTable names the table holding one instrument's rows for infoType.
func ShardTable(infoType string, id InstrumentIdentity) (string, error) {
	if err := location.ValidateIdentifier(infoType); err != nil {
		return "", err
	}
	if err := id.Validate(); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_info_%s_%s", infoType, id.Code, id.Market), nil
}

// AggregateTable names the union of every shard of infoType.
func AggregateTable(infoType string) (string, error) {
	if err := location.ValidateIdentifier(infoType); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_all", infoType), nil
}

// InstrumentsFromFrame reads the reference set from the itemcode, itemname
// and market columns. Rows with a null code or market are rejected.
func InstrumentsFromFrame(reference *frame.Frame) ([]InstrumentIdentity, error) {
	codes, err := stringColumn(reference, CodeColumn)
	if err != nil {
		return nil, err
	}
	names, err := stringColumn(reference, NameColumn)
	if err != nil {
		return nil, err
	}
	markets, err := stringColumn(reference, MarketColumn)
	if err != nil {
		return nil, err
	}
	ids := make([]InstrumentIdentity, 0, reference.NumRows())
	for i := 0; i < reference.NumRows(); i++ {
		code, _ := codes[i].(string)
		name, _ := names[i].(string)
		market, _ := markets[i].(string)
		id, err := NewInstrumentIdentity(code, name, market)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func stringColumn(f *frame.Frame, name string) ([]any, error) {
	col, ok := f.Column(name)
	if !ok {
		return nil, wherr.NewInvalidArgumentErrorf("reference frame has no %q column", name)
	}
	if col.Type != frame.String {
		return nil, wherr.NewInvalidArgumentErrorf("reference column %q is %s, not a string", name, col.Type)
	}
	return col.Values, nil
}

// namesOf returns the distinct instrument names of a reference frame. A nil
// frame yields nil (no filter); a frame without names yields an empty,
// non-nil slice so the filter matches nothing.
func namesOf(reference *frame.Frame) ([]string, error) {
	if reference == nil {
		return nil, nil
	}
	names, err := reference.Unique(NameColumn)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}
