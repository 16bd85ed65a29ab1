// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// Copyright 2024 FeatureForm Inc.
//

package wherr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestNewError(t *testing.T) {
	tests := []struct {
		name      string
		err       Error
		errorType string
		errorCode codes.Code
		details   map[string]string
	}{
		{"Table Not Found", NewTableNotFoundError("daily_items_info_005930_KOSPI", fmt.Errorf("test error")), TABLE_NOT_FOUND, codes.NotFound, map[string]string{"table": "daily_items_info_005930_KOSPI"}},
		{"Table Already Exists", NewTableAlreadyExistsError("itemcodes_info", nil), TABLE_ALREADY_EXISTS, codes.AlreadyExists, map[string]string{"table": "itemcodes_info"}},
		{"Load Conflict", NewLoadConflictError("itemcodes_info", nil), LOAD_CONFLICT, codes.AlreadyExists, map[string]string{"table": "itemcodes_info"}},
		{"Execution Error", NewExecutionError("itemcodes_info", "load", fmt.Errorf("quota")), EXECUTION_ERROR, codes.Internal, map[string]string{"table": "itemcodes_info", "operation": "load"}},
		{"Unmappable Type", NewUnmappableTypeError("flag", "bool"), UNMAPPABLE_TYPE, codes.InvalidArgument, map[string]string{"column": "flag", "local_type": "bool"}},
		{"Schema Mismatch", NewSchemaMismatchError("t", "a", "b"), SCHEMA_MISMATCH, codes.FailedPrecondition, map[string]string{"table": "t", "expected": "a", "actual": "b"}},
		{"No Data", NewNoDataError("daily_items", nil), NO_DATA, codes.FailedPrecondition, map[string]string{"info_type": "daily_items"}},
		{"Internal", NewInternalErrorf("boom %d", 1), INTERNAL_ERROR, codes.Internal, map[string]string{}},
		{"Invalid Argument", NewInvalidArgumentErrorf("bad"), INVALID_ARGUMENT, codes.InvalidArgument, map[string]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.errorType, tt.err.GetType())
			assert.Equal(t, tt.errorCode, tt.err.GetCode())
			assert.Equal(t, tt.details, tt.err.Details())
			assert.NotEmpty(t, tt.err.Stack())
		})
	}
}

func TestErrorRoundTripsThroughStatus(t *testing.T) {
	original := NewLoadConflictError("daily_items_info_005930_KOSPI", fmt.Errorf("duplicate"))
	recovered := FromErr(original.ToErr())

	require.True(t, IsLoadConflict(recovered))
	assert.Equal(t, codes.AlreadyExists, recovered.GetCode())
	assert.Equal(t, "daily_items_info_005930_KOSPI", recovered.Details()["table"])
}

func TestFromErrPassesTypedErrorsThrough(t *testing.T) {
	err := NewNoDataError("daily_items", nil)
	assert.Same(t, err, FromErr(fmt.Errorf("wrapped: %w", err)))
	assert.Nil(t, FromErr(nil))
	assert.Equal(t, INTERNAL_ERROR, FromErr(fmt.Errorf("plain")).GetType())
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := fmt.Errorf("permission denied")
	err := NewExecutionError("itemcodes_info", "query", cause)
	assert.True(t, errors.Is(err, cause))
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsTableNotFound(NewTableNotFoundError("t", nil)))
	assert.True(t, IsTableAlreadyExists(fmt.Errorf("ctx: %w", NewTableAlreadyExistsError("t", nil))))
	assert.True(t, IsUnmappableType(NewUnmappableTypeError("c", "bool")))
	assert.True(t, IsNoData(NewNoDataError("x", nil)))
	assert.False(t, IsLoadConflict(NewTableNotFoundError("t", nil)))
}

func TestErrorMessageListsDetails(t *testing.T) {
	err := NewExecutionError("itemcodes_info", "delete", fmt.Errorf("quota exceeded"))
	assert.Equal(t, "quota exceeded\noperation: delete\ntable: itemcodes_info\n", err.Error())
}
