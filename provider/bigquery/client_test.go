// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// Copyright 2025 FeatureForm Inc.
//

package bigquery

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"

	"github.com/stormlab/stockstore/wherr"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		err       error
		check     func(error) bool
	}{
		{"Api404", OpDescribe, &googleapi.Error{Code: http.StatusNotFound}, wherr.IsTableNotFound},
		{"Api409OnCreate", OpCreate, &googleapi.Error{Code: http.StatusConflict}, wherr.IsTableAlreadyExists},
		{"Api409OnLoad", OpLoad, &googleapi.Error{Code: http.StatusConflict}, wherr.IsLoadConflict},
		{"JobNotFound", OpQuery, &bigquery.Error{Reason: "notFound"}, wherr.IsTableNotFound},
		{"JobDuplicate", OpLoad, &bigquery.Error{Reason: "duplicate"}, wherr.IsLoadConflict},
		{"Wrapped404", OpDelete, fmt.Errorf("wrapped: %w", &googleapi.Error{Code: http.StatusNotFound}), wherr.IsTableNotFound},
		{"Other", OpQuery, &googleapi.Error{Code: http.StatusBadRequest}, wherr.IsExecutionError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("t", tt.operation, tt.err)
			assert.True(t, tt.check(err), "%v", err)
		})
	}
}

func TestClassifyKeepsCause(t *testing.T) {
	cause := errors.New("quota exceeded")
	err := classify("t", OpLoad, cause)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, classify("t", OpLoad, nil))
}
