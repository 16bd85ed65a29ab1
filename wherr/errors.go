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
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	// WAREHOUSE:
	TABLE_NOT_FOUND      = "Table Not Found"
	TABLE_ALREADY_EXISTS = "Table Already Exists"
	LOAD_CONFLICT        = "Load Conflict"
	EXECUTION_ERROR      = "Execution Error"

	// SCHEMA:
	UNMAPPABLE_TYPE = "Unmappable Type"
	SCHEMA_MISMATCH = "Schema Mismatch"

	// QUERIES:
	NO_DATA = "No Data"

	// MISCELLANEOUS:
	INTERNAL_ERROR   = "Internal Error"
	INVALID_ARGUMENT = "Invalid Argument"
)

const ENABLE_STACK_TRACE = true

type JSONStackTrace map[string]interface{}

// Error is implemented by every error in this package.
type Error interface {
	GetCode() codes.Code
	GetType() string
	ToErr() error
	AddDetail(key, value string)
	Details() map[string]string
	Stack() JSONStackTrace
	Error() string
}

func newBaseError(err error, errorType string, code codes.Code) baseError {
	if err == nil {
		err = fmt.Errorf("initial error")
	}
	return baseError{
		code:         code,
		errorType:    errorType,
		GenericError: NewGenericError(err),
	}
}

type baseError struct {
	code      codes.Code
	errorType string
	GenericError
}

func (e *baseError) GetCode() codes.Code {
	return e.code
}

func (e *baseError) GetType() string {
	return e.errorType
}

// ToErr converts the error into a gRPC status carrying the type and details.
func (e *baseError) ToErr() error {
	st := status.New(e.code, e.msg)
	ef := &errdetails.ErrorInfo{
		Reason:   e.errorType,
		Metadata: e.details,
	}
	statusWithDetails, err := st.WithDetails(ef)
	if err == nil {
		return statusWithDetails.Err()
	}
	return st.Err()
}

func (e *baseError) Error() string {
	return e.GenericError.Error()
}

func NewGenericError(err error) GenericError {
	msg := err.Error()
	return GenericError{
		msg:     msg,
		cause:   err,
		err:     eris.New(msg),
		details: map[string]string{},
	}
}

type GenericError struct {
	msg     string
	cause   error
	err     error
	details map[string]string
}

func (e *GenericError) Error() string {
	if len(e.details) == 0 {
		return e.msg
	}
	keys := make([]string, 0, len(e.details))
	for key := range e.details {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteString(e.msg)
	sb.WriteString("\n")
	for _, key := range keys {
		fmt.Fprintf(&sb, "%s: %s\n", key, e.details[key])
	}
	return sb.String()
}

// Unwrap exposes the error this one was built from so callers can still
// inspect the warehouse's own error types.
func (e *GenericError) Unwrap() error {
	return e.cause
}

func (e *GenericError) Stack() JSONStackTrace {
	return eris.ToJSON(e.err, ENABLE_STACK_TRACE)
}

func (e *GenericError) Details() map[string]string {
	return e.details
}

func (e *GenericError) AddDetail(key, value string) {
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ToLower(key)
	e.details[key] = value
}

func (e *GenericError) SetMessage(msg string) {
	e.msg = fmt.Sprintf("%s: %s", msg, e.msg)
}

// FromErr recovers a typed error from a gRPC status produced by ToErr.
func FromErr(err error) Error {
	if err == nil {
		return nil
	}
	var typed Error
	if errors.As(err, &typed) {
		return typed
	}
	st, ok := status.FromError(err)
	if !ok {
		return NewInternalError(err)
	}
	for _, detail := range st.Details() {
		errorInfo, ok := detail.(*errdetails.ErrorInfo)
		if !ok {
			continue
		}
		base := baseError{
			code:      st.Code(),
			errorType: errorInfo.Reason,
			GenericError: GenericError{
				msg:     st.Message(),
				cause:   err,
				err:     eris.New(st.Message()),
				details: map[string]string{},
			},
		}
		for k, v := range errorInfo.Metadata {
			base.details[k] = v
		}
		switch errorInfo.Reason {
		case TABLE_NOT_FOUND:
			return &TableNotFoundError{base}
		case TABLE_ALREADY_EXISTS:
			return &TableAlreadyExistsError{base}
		case LOAD_CONFLICT:
			return &LoadConflictError{base}
		case EXECUTION_ERROR:
			return &ExecutionError{base}
		case UNMAPPABLE_TYPE:
			return &UnmappableTypeError{base}
		case SCHEMA_MISMATCH:
			return &SchemaMismatchError{base}
		case NO_DATA:
			return &NoDataError{base}
		case INVALID_ARGUMENT:
			return &InvalidArgumentError{base}
		default:
			return &InternalError{base}
		}
	}
	return NewInternalError(err)
}
