// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// Copyright 2024 FeatureForm Inc.
//

package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/araddon/dateparse"
	"github.com/pkg/errors"

	"github.com/stormlab/stockstore/helpers"
	"github.com/stormlab/stockstore/logging"
)

const (
	DefaultProjectID = "storm-0809"
	DefaultDatasetID = "stock"
	DefaultLocation  = "asia-northeast3"
)

type BigQueryConfig struct {
	ProjectID       string
	DatasetID       string
	Location        string
	CredentialsFile string `json:",omitempty"`
	CredentialsJSON []byte `json:",omitempty"`
}

func (bq *BigQueryConfig) Deserialize(config []byte) error {
	if err := json.Unmarshal(config, bq); err != nil {
		return errors.Wrap(err, "invalid bigquery config")
	}
	return nil
}

func (bq *BigQueryConfig) Serialize() []byte {
	conf, err := json.Marshal(bq)
	if err != nil {
		panic(err)
	}
	return conf
}

func (bq BigQueryConfig) Validate() error {
	if bq.ProjectID == "" {
		return errors.New("bigquery project id is required")
	}
	if bq.DatasetID == "" {
		return errors.New("bigquery dataset id is required")
	}
	return nil
}

type Config struct {
	BigQuery      BigQueryConfig
	JobTimeout    time.Duration
	Workers       int
	RetryAttempts uint
	MetricsPort   string
	InfoTypes     []string
	StartDate     *time.Time
	EndDate       *time.Time
}

// Get builds the process configuration from the environment, loading a
// local .env file first when one exists.
func Get(logger logging.Logger) (Config, error) {
	if err := helpers.LoadDotEnv(".env"); err != nil {
		logger.Warnw("Could not load .env file", "err", err)
	}
	cfg := Config{
		BigQuery: BigQueryConfig{
			ProjectID:       helpers.GetEnv("BIGQUERY_PROJECT_ID", DefaultProjectID),
			DatasetID:       helpers.GetEnv("BIGQUERY_DATASET_ID", DefaultDatasetID),
			Location:        helpers.GetEnv("BIGQUERY_LOCATION", DefaultLocation),
			CredentialsFile: helpers.GetEnv("BIGQUERY_CREDENTIALS", ""),
		},
		JobTimeout:    helpers.GetEnvDuration("JOB_TIMEOUT", 10*time.Minute),
		Workers:       helpers.GetEnvInt("WORKERS", 4),
		RetryAttempts: uint(helpers.GetEnvInt("RETRY_ATTEMPTS", 3)),
		MetricsPort:   helpers.GetEnv("METRICS_PORT", ""),
		InfoTypes:     helpers.GetEnvList("INFO_TYPES", []string{"daily_items", "daily_items_indicator"}),
	}
	if raw, ok := os.LookupEnv("BIGQUERY_CREDENTIALS_JSON"); ok {
		cfg.BigQuery.CredentialsJSON = []byte(raw)
	}
	var err error
	if cfg.StartDate, err = parseOptionalDate("START_DATE"); err != nil {
		return Config{}, err
	}
	if cfg.EndDate, err = parseOptionalDate("END_DATE"); err != nil {
		return Config{}, err
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if err := cfg.BigQuery.Validate(); err != nil {
		return Config{}, err
	}
	logger.Debugw("Loaded config", "project", cfg.BigQuery.ProjectID, "dataset", cfg.BigQuery.DatasetID, "info_types", cfg.InfoTypes)
	return cfg, nil
}

func parseOptionalDate(key string) (*time.Time, error) {
	raw := helpers.GetEnv(key, "")
	if raw == "" {
		return nil, nil
	}
	parsed, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s", key)
	}
	return &parsed, nil
}
