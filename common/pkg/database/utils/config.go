/*
 * Copyright (c) 2025, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package utils

import (
	"fmt"
	"time"

	commonconfig "github.com/labforge/homeops/common/pkg/config"
)

type DBConfig struct {
	DBName         string
	Username       string
	Password       string
	Host           string
	SSLMode        string
	Port           int
	MaxIdleConns   int
	MaxOpenConns   int
	MaxIdleTime    time.Duration
	MaxLifetime    time.Duration
	ConnectTimeout int
	RequestTimeout time.Duration
}

// FromConfig maps the typed application configuration onto the
// connection settings used by the pool.
func FromConfig(cfg *commonconfig.DBConfig) *DBConfig {
	return &DBConfig{
		DBName:         cfg.Name,
		Username:       cfg.User,
		Password:       cfg.Password,
		Host:           cfg.Host,
		Port:           cfg.Port,
		SSLMode:        cfg.SslMode,
		MaxOpenConns:   cfg.MaxOpenConns,
		MaxIdleConns:   cfg.MaxIdleConns,
		MaxLifetime:    time.Duration(cfg.MaxLifetimeSecond) * time.Second,
		MaxIdleTime:    time.Duration(cfg.MaxIdleTimeSecond) * time.Second,
		ConnectTimeout: cfg.ConnectTimeoutSecond,
		RequestTimeout: time.Duration(cfg.RequestTimeoutSecond) * time.Second,
	}
}

func (c *DBConfig) SourceName() string {
	return fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%d sslmode=%s connect_timeout=%d",
		c.Username, c.Password, c.DBName, c.Host, c.Port, c.SSLMode, c.ConnectTimeout)
}
