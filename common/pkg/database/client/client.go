/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/klog/v2"

	"github.com/labforge/homeops/common/pkg/database/utils"
	commonerrors "github.com/labforge/homeops/common/pkg/errors"
	"github.com/labforge/homeops/utils/pkg/backoff"
)

const (
	connectMaxElapsedTime = 30 * time.Second
	connectMaxInterval    = 5 * time.Second
)

// Client wraps the sqlx connection pool together with its settings.
// Every consumer receives it at construction time; there is no process
// global.
type Client struct {
	db              *sqlx.DB // sqlx database instance
	*utils.DBConfig          // Embedded database configuration
}

// NewClient validates the connection settings, connects with a bounded
// retry so a database finishing its own startup does not fail the
// process, and pings before returning.
func NewClient(cfg *utils.DBConfig) (*Client, error) {
	if err := checkParams(cfg); err != nil {
		return nil, err
	}
	var db *sqlx.DB
	err := backoff.Retry(func() error {
		var connErr error
		db, connErr = utils.Connect(cfg, utils.PgDriver)
		if connErr != nil {
			return connErr
		}
		return db.Ping()
	}, connectMaxElapsedTime, connectMaxInterval)
	if err != nil {
		return nil, fmt.Errorf("failed to connect db %s: %v", cfg.DBName, err)
	}
	klog.Infof("init db-client successfully! conn-timeout: %d(s), request-timeout: %v",
		cfg.ConnectTimeout, cfg.RequestTimeout)
	return &Client{db: db, DBConfig: cfg}, nil
}

// Close performs the Close operation.
func (c *Client) Close() {
	err := c.db.Close()
	if err != nil {
		klog.ErrorS(err, "failed to close db connection")
	}
}

// Ping reports database reachability for health checks.
func (c *Client) Ping(ctx context.Context) error {
	db, err := c.getDB()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// getDB retrieves DB for internal use.
func (c *Client) getDB() (*sqlx.DB, error) {
	if c.db == nil {
		return nil, commonerrors.NewInternalError("The client of db has not been initialized")
	}
	return c.db.Unsafe(), nil
}

// requestCtx bounds a statement with the configured request timeout.
func (c *Client) requestCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.RequestTimeout > 0 {
		return context.WithTimeout(ctx, c.RequestTimeout)
	}
	return ctx, func() {}
}

// isUniqueViolation reports whether err is the Postgres unique
// constraint violation (23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// checkParams checks Params and returns the result.
func checkParams(cfg *utils.DBConfig) error {
	var errs []error
	if cfg.DBName == "" {
		errs = append(errs, fmt.Errorf("dbname not found"))
	}
	if cfg.Username == "" {
		errs = append(errs, fmt.Errorf("username not found"))
	}
	if cfg.Password == "" {
		errs = append(errs, fmt.Errorf("password not found"))
	}
	if cfg.Host == "" {
		errs = append(errs, fmt.Errorf("host not found"))
	}
	if cfg.SSLMode == "" {
		errs = append(errs, fmt.Errorf("ssl_mode not found"))
	}
	if cfg.Port == 0 {
		errs = append(errs, fmt.Errorf("port not found"))
	}
	return utilerrors.NewAggregate(errs)
}
