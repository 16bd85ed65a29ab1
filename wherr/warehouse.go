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

	"google.golang.org/grpc/codes"
)

func NewTableNotFoundError(table string, err error) *TableNotFoundError {
	if err == nil {
		err = fmt.Errorf("table not found")
	}
	baseError := newBaseError(err, TABLE_NOT_FOUND, codes.NotFound)
	baseError.AddDetail("table", table)

	return &TableNotFoundError{
		baseError,
	}
}

type TableNotFoundError struct {
	baseError
}

func NewTableAlreadyExistsError(table string, err error) *TableAlreadyExistsError {
	if err == nil {
		err = fmt.Errorf("table already exists")
	}
	baseError := newBaseError(err, TABLE_ALREADY_EXISTS, codes.AlreadyExists)
	baseError.AddDetail("table", table)

	return &TableAlreadyExistsError{
		baseError,
	}
}

type TableAlreadyExistsError struct {
	baseError
}

// NewLoadConflictError reports a load the warehouse rejected because the
// same data was already written or is being written.
func NewLoadConflictError(table string, err error) *LoadConflictError {
	if err == nil {
		err = fmt.Errorf("load conflicts with existing data")
	}
	baseError := newBaseError(err, LOAD_CONFLICT, codes.AlreadyExists)
	baseError.AddDetail("table", table)

	return &LoadConflictError{
		baseError,
	}
}

type LoadConflictError struct {
	baseError
}

func NewExecutionError(table, operation string, err error) *ExecutionError {
	if err == nil {
		err = fmt.Errorf("initial execution error")
	}
	baseError := newBaseError(err, EXECUTION_ERROR, codes.Internal)
	baseError.AddDetail("table", table)
	baseError.AddDetail("operation", operation)

	return &ExecutionError{
		baseError,
	}
}

type ExecutionError struct {
	baseError
}

func NewUnmappableTypeError(column, localType string) *UnmappableTypeError {
	err := fmt.Errorf("column %q has type %s which has no warehouse field type", column, localType)
	baseError := newBaseError(err, UNMAPPABLE_TYPE, codes.InvalidArgument)
	baseError.AddDetail("column", column)
	baseError.AddDetail("local_type", localType)

	return &UnmappableTypeError{
		baseError,
	}
}

type UnmappableTypeError struct {
	baseError
}

func NewSchemaMismatchError(table, expected, actual string) *SchemaMismatchError {
	err := fmt.Errorf("table %s schema does not match the other shards", table)
	baseError := newBaseError(err, SCHEMA_MISMATCH, codes.FailedPrecondition)
	baseError.AddDetail("table", table)
	baseError.AddDetail("expected", expected)
	baseError.AddDetail("actual", actual)

	return &SchemaMismatchError{
		baseError,
	}
}

type SchemaMismatchError struct {
	baseError
}

func NewNoDataError(infoType string, err error) *NoDataError {
	if err == nil {
		err = fmt.Errorf("no shard tables contribute to the query")
	}
	baseError := newBaseError(err, NO_DATA, codes.FailedPrecondition)
	baseError.AddDetail("info_type", infoType)

	return &NoDataError{
		baseError,
	}
}

type NoDataError struct {
	baseError
}

func IsTableNotFound(err error) bool {
	var target *TableNotFoundError
	return errors.As(err, &target)
}

func IsTableAlreadyExists(err error) bool {
	var target *TableAlreadyExistsError
	return errors.As(err, &target)
}

func IsLoadConflict(err error) bool {
	var target *LoadConflictError
	return errors.As(err, &target)
}

func IsUnmappableType(err error) bool {
	var target *UnmappableTypeError
	return errors.As(err, &target)
}

func IsNoData(err error) bool {
	var target *NoDataError
	return errors.As(err, &target)
}

func IsSchemaMismatch(err error) bool {
	var target *SchemaMismatchError
	return errors.As(err, &target)
}

func IsExecutionError(err error) bool {
	var target *ExecutionError
	return errors.As(err, &target)
}
