/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package config

const (
	// server
	serverPrefix = "server."
	serverPort   = serverPrefix + "port"

	// auth
	authPrefix     = "auth."
	authEnable     = authPrefix + "enable"
	authToken      = authPrefix + "token"
	authSecretPath = authPrefix + "secret_path"

	// db
	dbPrefix               = "db."
	dbSecretPath           = dbPrefix + "secret_path"
	dbHost                 = dbPrefix + "host"
	dbPort                 = dbPrefix + "port"
	dbName                 = dbPrefix + "dbname"
	dbUser                 = dbPrefix + "user"
	dbPassword             = dbPrefix + "password"
	dbSslMode              = dbPrefix + "ssl_mode"
	dbMaxOpenConns         = dbPrefix + "max_open_conns"
	dbMaxIdleConns         = dbPrefix + "max_idle_conns"
	dbMaxLifetime          = dbPrefix + "max_life_time_second"
	dbMaxIdleTimeSecond    = dbPrefix + "max_idle_time_second"
	dbConnectTimeoutSecond = dbPrefix + "connect_timeout_second"
	dbRequestTimeoutSecond = dbPrefix + "request_timeout_second"

	// redis
	redisPrefix     = "redis."
	redisAddr       = redisPrefix + "addr"
	redisPassword   = redisPrefix + "password"
	redisSecretPath = redisPrefix + "secret_path"
	redisDB         = redisPrefix + "db"

	// worker
	workerPrefix = "worker."
	workerSlots  = workerPrefix + "slots"

	// ansible
	ansiblePrefix          = "ansible."
	ansibleRunnerPath      = ansiblePrefix + "runner_path"
	ansibleActionDir       = ansiblePrefix + "action_dir"
	ansibleSSHUser         = ansiblePrefix + "ssh_user"
	ansibleHostKeyChecking = ansiblePrefix + "host_key_checking"
	ansibleIdentityFile    = ansiblePrefix + "identity_file"
	ansibleExtensions      = ansiblePrefix + "extensions"

	// vault
	vaultPrefix     = "vault."
	vaultKey        = vaultPrefix + "key"
	vaultSecretPath = vaultPrefix + "secret_path"

	// audit
	auditPrefix = "audit."
	auditEnable = auditPrefix + "enable"

	// janitor
	janitorPrefix   = "janitor."
	janitorSchedule = janitorPrefix + "schedule"

	// tracing
	tracingPrefix        = "tracing."
	tracingEnable        = tracingPrefix + "enable"
	tracingMode          = tracingPrefix + "mode"
	tracingSamplingRatio = tracingPrefix + "sampling_ratio"
	tracingOtlpEndpoint  = tracingPrefix + "otlp_endpoint"
)
