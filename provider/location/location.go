// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// Copyright 2024 FeatureForm Inc.
//

package location

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/stormlab/stockstore/wherr"
)

var (
	// BigQuery project ids may contain dashes, and domain-scoped ones a colon and dots.
	projectPattern    = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9\-.:]*$`)
	identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

type FullyQualifiedObject struct {
	Project string
	Dataset string
	Table   string
}

func (f FullyQualifiedObject) String() string {
	parts := []string{}
	if f.Project != "" {
		parts = append(parts, f.Project)
	}
	if f.Dataset != "" {
		parts = append(parts, f.Dataset)
	}
	parts = append(parts, f.Table)
	return strings.Join(parts, ".")
}

type JSONLocation struct {
	OutputLocation string `json:"outputLocation"`
	LocationType   string `json:"locationType"`
}

const SQLLocationType = "sql"

// SQLLocation names a table inside a dataset. Every component is validated
// so that it can be embedded in query text as a quoted identifier.
type SQLLocation struct {
	project string
	dataset string
	table   string
}

func NewSQLLocation(project, dataset, table string) (*SQLLocation, error) {
	if project != "" && !projectPattern.MatchString(project) {
		return nil, wherr.NewInvalidArgumentErrorf("invalid project id %q", project)
	}
	if dataset != "" {
		if err := ValidateIdentifier(dataset); err != nil {
			return nil, err
		}
	}
	if err := ValidateIdentifier(table); err != nil {
		return nil, err
	}
	return &SQLLocation{project: project, dataset: dataset, table: table}, nil
}

// ValidateIdentifier accepts dataset and table names made of letters,
// digits and underscores.
func ValidateIdentifier(name string) error {
	if name == "" || len(name) > 1024 || !identifierPattern.MatchString(name) {
		return wherr.NewInvalidArgumentErrorf("invalid identifier %q", name)
	}
	return nil
}

func (l *SQLLocation) GetProject() string {
	return l.project
}

func (l *SQLLocation) GetDataset() string {
	return l.dataset
}

func (l *SQLLocation) GetTable() string {
	return l.table
}

func (l *SQLLocation) Location() string {
	return l.TableLocation().String()
}

func (l *SQLLocation) TableLocation() FullyQualifiedObject {
	return FullyQualifiedObject{
		Project: l.project,
		Dataset: l.dataset,
		Table:   l.table,
	}
}

// Sanitized returns the location quoted for use in a FROM clause.
func (l *SQLLocation) Sanitized() string {
	return "`" + l.Location() + "`"
}

// WithTable returns a location for another table in the same dataset.
func (l *SQLLocation) WithTable(table string) (*SQLLocation, error) {
	return NewSQLLocation(l.project, l.dataset, table)
}

func (l *SQLLocation) MarshalJSON() ([]byte, error) {
	return json.Marshal(JSONLocation{
		OutputLocation: l.Location(),
		LocationType:   SQLLocationType,
	})
}

func (l *SQLLocation) Serialize() (string, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return "", wherr.NewInternalErrorf("failed to serialize SQLLocation: %v", err)
	}
	return string(data), nil
}

func (l *SQLLocation) Deserialize(config []byte) error {
	var jsonLoc JSONLocation
	if err := json.Unmarshal(config, &jsonLoc); err != nil {
		return wherr.NewInternalErrorf("failed to deserialize SQLLocation: %v", err)
	}
	if jsonLoc.LocationType != SQLLocationType {
		return wherr.NewInternalErrorf("invalid location type for SQLLocation: %s", jsonLoc.LocationType)
	}
	parts := strings.Split(jsonLoc.OutputLocation, ".")
	var project, dataset, table string
	switch len(parts) {
	case 1:
		table = parts[0]
	case 2:
		dataset, table = parts[0], parts[1]
	default:
		project = strings.Join(parts[:len(parts)-2], ".")
		dataset, table = parts[len(parts)-2], parts[len(parts)-1]
	}
	loc, err := NewSQLLocation(project, dataset, table)
	if err != nil {
		return err
	}
	*l = *loc
	return nil
}
