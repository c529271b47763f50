// Package config holds environment-driven settings for the Lambdas and the
// loader CLI.
package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v6"
)

// Resolver configures the sequence-resolver Lambda.
type Resolver struct {
	EnsemblBaseURL string        `env:"ENSEMBL_BASE_URL" envDefault:"https://rest.ensembl.org"`
	Concurrency    int           `env:"RESOLVER_CONCURRENCY" envDefault:"4"`
	LookupTimeout  time.Duration `env:"LOOKUP_TIMEOUT" envDefault:"25s"`
}

// Loader configures the load-rsem CLI. Bucket and Athena output are required;
// everything else has a workable default.
type Loader struct {
	AnalyticsBucket string `env:"ANALYTICS_BUCKET"`
	RSEMPrefix      string `env:"RSEM_PREFIX" envDefault:"rsem/"`
	AthenaWorkgroup string `env:"ATHENA_WORKGROUP" envDefault:"primary"`
	AthenaOutput    string `env:"ATHENA_OUTPUT"`
	AuditTable      string `env:"LOAD_AUDIT_TABLE"`
	AlertsTopicARN  string `env:"LOAD_ALERTS_TOPIC_ARN"`
}

func LoadResolver() (*Resolver, error) {
	cfg := &Resolver{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse resolver env: %w", err)
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return cfg, nil
}

func LoadLoader() (*Loader, error) {
	cfg := &Loader{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse loader env: %w", err)
	}
	if cfg.AnalyticsBucket == "" {
		return nil, fmt.Errorf("missing env ANALYTICS_BUCKET")
	}
	if cfg.AthenaOutput == "" {
		return nil, fmt.Errorf("missing env ATHENA_OUTPUT")
	}
	return cfg, nil
}
