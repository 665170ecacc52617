package config

import (
	"fmt"

	"github.com/block/qualitychecker/pkg/dbconn"
	"github.com/block/qualitychecker/pkg/dialect"
)

// ConnParams merges the credentials file with the values set in the
// connection block. Values set in the block win.
func (c ConnectionConfig) ConnParams(d dialect.Dialect) (dialect.ConnParams, error) {
	creds, err := dbconn.LoadConfParams(c.CredentialsFile)
	if err != nil {
		return dialect.ConnParams{}, fmt.Errorf("failed to load credentials file: %w", err)
	}
	p := creds.ConnParams(d)
	if c.Host != "" {
		p.Host = c.Host
	}
	if c.Port != 0 {
		p.Port = c.Port
	}
	if c.Database != "" {
		p.Database = c.Database
	}
	if c.User != "" {
		p.User = c.User
	}
	if c.Password != "" {
		p.Password = c.Password
	}
	if c.TLSMode != "" {
		p.TLSMode = c.TLSMode
	}
	return p, nil
}

// DBConfig returns the execution settings for the configured performance
// block. The pool holds one connection per thread plus headroom.
func (p PerformanceConfig) DBConfig() *dbconn.DBConfig {
	cfg := dbconn.NewDBConfig()
	if p.MaxRetries > 0 {
		cfg.MaxRetries = p.MaxRetries
	}
	if p.Threads > 0 {
		cfg.MaxOpenConnections = p.Threads + 2
	}
	cfg.QueryTimeout = p.QueryTimeout
	return cfg
}
