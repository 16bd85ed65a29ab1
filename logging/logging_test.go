// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// Copyright 2024 FeatureForm Inc.
//

package logging

import (
	"context"
	"fmt"
	"testing"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger("test-logger")
	if logger.id != "" || logger.SugaredLogger == nil {
		t.Fatalf("Logger created incorrectly.")
	}
}

func TestWithTable(t *testing.T) {
	logger := NewNopLogger().WithTable("daily_items_info_005930_KOSPI").WithInfoType("daily_items")
	if logger.GetValue("table") != "daily_items_info_005930_KOSPI" {
		t.Fatalf("Incorrect table value, got %v", logger.GetValue("table"))
	}
	if logger.GetValue("info-type") != "daily_items" {
		t.Fatalf("Incorrect info type value, got %v", logger.GetValue("info-type"))
	}
}

func TestWithInstrumentDoesNotMutateParent(t *testing.T) {
	parent := NewNopLogger()
	child := parent.WithInstrument("005930", "Samsung", "KOSPI")
	if parent.GetValue("itemcode") != nil {
		t.Fatalf("parent logger was mutated")
	}
	if child.GetValue("market") != "KOSPI" {
		t.Fatalf("Incorrect market, got %v", child.GetValue("market"))
	}
}

func TestInitializeRequestID(t *testing.T) {
	logger := NewNopLogger()
	requestID, updatedContext, newLogger := logger.InitializeRequestID(context.Background())
	if newLogger.id != requestID {
		t.Fatalf("Logger Request ID not set correctly. Expected %s, got %s", requestID, newLogger.id)
	}
	if got := GetRequestIDFromContext(updatedContext); got != requestID {
		t.Fatalf("Request ID not found in context. Expected %s, got %s", requestID, got)
	}
	if got := GetLoggerFromContext(updatedContext); got.id != requestID {
		t.Fatalf("Logger not found in context. Expected %s, got %s", requestID, got.id)
	}
}

func TestGetLoggerFromContextFallback(t *testing.T) {
	fallback := NewNopLogger().WithTable("fallback")
	got := GetLoggerFromContext(context.Background(), fallback)
	if got.GetValue("table") != "fallback" {
		t.Fatalf("expected fallback logger, got %v", got.GetValue("table"))
	}
	if GetRequestIDFromContext(context.Background()) != "" {
		t.Fatalf("expected empty request id")
	}
}

func TestLogIfErr(t *testing.T) {
	logger := NewNopLogger()
	logger.LogIfErr("ignored", nil)
	logger.LogIfErr("logged", fmt.Errorf("boom"))
}
