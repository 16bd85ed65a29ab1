// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// Copyright 2024 FeatureForm Inc.
//

package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLLocation_TableLocation(t *testing.T) {
	tests := []struct {
		name           string
		project        string
		dataset        string
		table          string
		expectedResult string
	}{
		{"All components present", "storm-0809", "stock", "itemcodes_info", "storm-0809.stock.itemcodes_info"},
		{"Project missing", "", "stock", "itemcodes_info", "stock.itemcodes_info"},
		{"Only table present", "", "", "itemcodes_info", "itemcodes_info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := NewSQLLocation(tt.project, tt.dataset, tt.table)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedResult, loc.Location())
			assert.Equal(t, "`"+tt.expectedResult+"`", loc.Sanitized())
		})
	}
}

func TestSQLLocationRejectsUnsafeNames(t *testing.T) {
	tests := []struct {
		name    string
		project string
		dataset string
		table   string
	}{
		{"backtick in table", "p", "stock", "items`; DROP TABLE x"},
		{"space in table", "p", "stock", "daily items"},
		{"empty table", "p", "stock", ""},
		{"dash in dataset", "p", "st-ock", "t"},
		{"quote in project", "p'", "stock", "t"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSQLLocation(tt.project, tt.dataset, tt.table)
			assert.Error(t, err)
		})
	}
}

func TestSQLLocationSerialization(t *testing.T) {
	loc, err := NewSQLLocation("storm-0809", "stock", "daily_items_all")
	require.NoError(t, err)
	serialized, err := loc.Serialize()
	require.NoError(t, err)

	var decoded SQLLocation
	require.NoError(t, decoded.Deserialize([]byte(serialized)))
	assert.Equal(t, *loc, decoded)

	assert.Error(t, decoded.Deserialize([]byte(`{"outputLocation":"a.b","locationType":"filestore"}`)))
}

func TestWithTable(t *testing.T) {
	loc, err := NewSQLLocation("storm-0809", "stock", "itemcodes_info")
	require.NoError(t, err)
	other, err := loc.WithTable("daily_items_all")
	require.NoError(t, err)
	assert.Equal(t, "storm-0809.stock.daily_items_all", other.Location())
	_, err = loc.WithTable("bad-name")
	assert.Error(t, err)
}
