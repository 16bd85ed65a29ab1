// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// Copyright 2025 FeatureForm Inc.
//

package logging

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request-id"
)

type RequestID string

func (r RequestID) String() string {
	return string(r)
}

func NewRequestID() RequestID {
	return RequestID(uuid.New().String())
}

type Logger struct {
	*zap.SugaredLogger
	id     RequestID
	values map[string]interface{}
}

func NewLogger(service string) Logger {
	baseLogger, err := zap.NewDevelopment(
		zap.AddStacktrace(zap.ErrorLevel),
	)
	if err != nil {
		panic(err)
	}
	return Logger{
		SugaredLogger: baseLogger.Sugar().Named(service),
		values:        map[string]interface{}{},
	}
}

// NewNopLogger discards everything; used by tests and as the zero-config default.
func NewNopLogger() Logger {
	return Logger{
		SugaredLogger: zap.NewNop().Sugar(),
		values:        map[string]interface{}{},
	}
}

func (logger Logger) with(key string, value interface{}) Logger {
	values := make(map[string]interface{}, len(logger.values)+1)
	for k, v := range logger.values {
		values[k] = v
	}
	values[key] = value
	return Logger{
		SugaredLogger: logger.SugaredLogger.With(key, value),
		id:            logger.id,
		values:        values,
	}
}

func (logger Logger) WithRequestID(id RequestID) Logger {
	l := logger.with("request-id", id)
	l.id = id
	return l
}

func (logger Logger) WithTable(table string) Logger {
	return logger.with("table", table)
}

func (logger Logger) WithInfoType(infoType string) Logger {
	return logger.with("info-type", infoType)
}

func (logger Logger) WithInstrument(code, name, market string) Logger {
	return logger.with("itemcode", code).with("itemname", name).with("market", market)
}

func (logger Logger) GetValue(key string) interface{} {
	return logger.values[key]
}

func (logger Logger) RequestID() RequestID {
	return logger.id
}

// LogIfErr logs err at error level when it is non-nil.
func (logger Logger) LogIfErr(msg string, err error) {
	if err != nil {
		logger.Errorw(msg, "err", err)
	}
}

func (logger Logger) AttachToContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// InitializeRequestID creates a request id and returns it along with a context
// carrying both the id and a logger tagged with it.
func (logger Logger) InitializeRequestID(ctx context.Context) (RequestID, context.Context, Logger) {
	id := NewRequestID()
	ctx = AttachRequestID(id, ctx, logger)
	return id, ctx, GetLoggerFromContext(ctx)
}

func AttachRequestID(id RequestID, ctx context.Context, logger Logger) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, id)
	return logger.WithRequestID(id).AttachToContext(ctx)
}

func GetRequestIDFromContext(ctx context.Context) RequestID {
	id, ok := ctx.Value(requestIDKey).(RequestID)
	if !ok {
		return ""
	}
	return id
}

// GetLoggerFromContext falls back to fallback when no logger is attached.
func GetLoggerFromContext(ctx context.Context, fallback ...Logger) Logger {
	if logger, ok := ctx.Value(loggerKey).(Logger); ok {
		return logger
	}
	if len(fallback) > 0 {
		return fallback[0]
	}
	return NewNopLogger()
}
