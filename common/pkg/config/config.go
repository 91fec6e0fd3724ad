/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/crypto/ssh"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/labforge/homeops/utils/pkg/timeutil"
)

// ServerConfig holds the API server listen settings.
type ServerConfig struct {
	Port int
}

// AuthConfig holds the static bearer token settings for the API.
type AuthConfig struct {
	Enable bool
	Token  string
}

// DBConfig holds the PostgreSQL connection and pool settings.
type DBConfig struct {
	Host                 string
	Port                 int
	Name                 string
	User                 string
	Password             string
	SslMode              string
	MaxOpenConns         int
	MaxIdleConns         int
	MaxLifetimeSecond    int
	MaxIdleTimeSecond    int
	ConnectTimeoutSecond int
	RequestTimeoutSecond int
}

// RedisConfig holds the redis connection settings shared by the task
// queue and the log pub/sub bus.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// WorkerConfig holds the worker runtime settings.
type WorkerConfig struct {
	Slots int
}

// AnsibleConfig holds the executor settings for the ansible plugin.
type AnsibleConfig struct {
	RunnerPath      string
	ActionDir       string
	SSHUser         string
	HostKeyChecking string
	IdentityFile    string
	Extensions      []string
}

// VaultConfig holds the key material for secret encryption.
type VaultConfig struct {
	Key string
}

// AuditConfig holds the audit middleware settings.
type AuditConfig struct {
	Enable bool
}

// JanitorConfig holds the background sweep settings.
type JanitorConfig struct {
	Schedule string
}

// TracingConfig holds the OpenTelemetry exporter settings.
type TracingConfig struct {
	Enable        bool
	Mode          string
	SamplingRatio float64
	OtlpEndpoint  string
}

// Config is the single typed configuration shared by the apiserver and
// the worker. Components receive the slice they need at construction
// time; nothing reads viper after New returns.
type Config struct {
	Server  ServerConfig
	Auth    AuthConfig
	DB      DBConfig
	Redis   RedisConfig
	Worker  WorkerConfig
	Ansible AnsibleConfig
	Vault   VaultConfig
	Audit   AuditConfig
	Janitor JanitorConfig
	Tracing TracingConfig
}

// New loads the YAML file at path, materializes the typed Config and
// validates it. Secret-valued fields fall back to files under the
// section's secret_path when not set inline.
func New(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := &Config{
		Server: ServerConfig{
			Port: getInt(serverPort, 8080),
		},
		Auth: AuthConfig{
			Enable: getBool(authEnable, false),
			Token:  getSecret(authToken, authSecretPath, "token"),
		},
		DB: DBConfig{
			Host:                 getSecret(dbHost, dbSecretPath, "host"),
			Port:                 getSecretInt(dbPort, dbSecretPath, "port"),
			Name:                 getSecret(dbName, dbSecretPath, "dbname"),
			User:                 getSecret(dbUser, dbSecretPath, "user"),
			Password:             getSecret(dbPassword, dbSecretPath, "password"),
			SslMode:              getString(dbSslMode, "disable"),
			MaxOpenConns:         getInt(dbMaxOpenConns, 50),
			MaxIdleConns:         getInt(dbMaxIdleConns, 10),
			MaxLifetimeSecond:    getInt(dbMaxLifetime, 600),
			MaxIdleTimeSecond:    getInt(dbMaxIdleTimeSecond, 60),
			ConnectTimeoutSecond: getInt(dbConnectTimeoutSecond, 10),
			RequestTimeoutSecond: getInt(dbRequestTimeoutSecond, 20),
		},
		Redis: RedisConfig{
			Addr:     getString(redisAddr, "127.0.0.1:6379"),
			Password: getSecret(redisPassword, redisSecretPath, "password"),
			DB:       getInt(redisDB, 0),
		},
		Worker: WorkerConfig{
			Slots: getInt(workerSlots, 4),
		},
		Ansible: AnsibleConfig{
			RunnerPath:      getString(ansibleRunnerPath, "ansible-playbook"),
			ActionDir:       getString(ansibleActionDir, ""),
			SSHUser:         getString(ansibleSSHUser, ""),
			HostKeyChecking: getString(ansibleHostKeyChecking, "accept-new"),
			IdentityFile:    getString(ansibleIdentityFile, ""),
			Extensions:      getExtensions(),
		},
		Vault: VaultConfig{
			Key: getSecret(vaultKey, vaultSecretPath, "key"),
		},
		Audit: AuditConfig{
			Enable: getBool(auditEnable, true),
		},
		Janitor: JanitorConfig{
			Schedule: getString(janitorSchedule, "@every 1m"),
		},
		Tracing: TracingConfig{
			Enable:        getBool(tracingEnable, false),
			Mode:          getString(tracingMode, "error_only"),
			SamplingRatio: getFloat(tracingSamplingRatio, 1.0),
			OtlpEndpoint:  getString(tracingOtlpEndpoint, ""),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field a process depends on at startup and
// aggregates all failures so a broken file is reported in one pass.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	if c.Auth.Enable && c.Auth.Token == "" {
		errs = append(errs, fmt.Errorf("auth.token is required when auth is enabled"))
	}
	if c.DB.Host == "" {
		errs = append(errs, fmt.Errorf("db.host is required"))
	}
	if c.DB.Port <= 0 {
		errs = append(errs, fmt.Errorf("db.port is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, fmt.Errorf("db.dbname is required"))
	}
	if c.DB.User == "" {
		errs = append(errs, fmt.Errorf("db.user is required"))
	}
	if c.Redis.Addr == "" {
		errs = append(errs, fmt.Errorf("redis.addr is required"))
	}
	if c.Worker.Slots < 1 {
		errs = append(errs, fmt.Errorf("worker.slots must be at least 1"))
	}
	if c.Ansible.RunnerPath == "" {
		errs = append(errs, fmt.Errorf("ansible.runner_path is required"))
	}
	errs = append(errs, c.validateActionDir()...)
	errs = append(errs, c.validateIdentityFile()...)
	if c.Vault.Key == "" {
		errs = append(errs, fmt.Errorf("vault.key is required"))
	}
	if _, err := timeutil.ParseCronStandard(c.Janitor.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("janitor.schedule %q is invalid: %w", c.Janitor.Schedule, err))
	}
	if c.Tracing.Enable && c.Tracing.OtlpEndpoint == "" {
		errs = append(errs, fmt.Errorf("tracing.otlp_endpoint is required when tracing is enabled"))
	}
	return utilerrors.NewAggregate(errs)
}

func (c *Config) validateActionDir() []error {
	if c.Ansible.ActionDir == "" {
		return []error{fmt.Errorf("ansible.action_dir is required")}
	}
	info, err := os.Stat(c.Ansible.ActionDir)
	if err != nil {
		return []error{fmt.Errorf("ansible.action_dir: %w", err)}
	}
	if !info.IsDir() {
		return []error{fmt.Errorf("ansible.action_dir %s is not a directory", c.Ansible.ActionDir)}
	}
	return nil
}

// validateIdentityFile parses the configured private key so a worker
// does not start with credentials every execution would fail on.
func (c *Config) validateIdentityFile() []error {
	if c.Ansible.IdentityFile == "" {
		return nil
	}
	data, err := os.ReadFile(c.Ansible.IdentityFile)
	if err != nil {
		return []error{fmt.Errorf("ansible.identity_file: %w", err)}
	}
	if _, err := ssh.ParsePrivateKey(data); err != nil {
		return []error{fmt.Errorf("ansible.identity_file %s is not a valid private key: %w", c.Ansible.IdentityFile, err)}
	}
	return nil
}

func getString(key, defaultValue string) string {
	if !viper.IsSet(key) {
		return defaultValue
	}
	return viper.GetString(key)
}

func getBool(key string, defaultValue bool) bool {
	if !viper.IsSet(key) {
		return defaultValue
	}
	return viper.GetBool(key)
}

func getInt(key string, defaultValue int) int {
	if !viper.IsSet(key) {
		return defaultValue
	}
	return viper.GetInt(key)
}

func getFloat(key string, defaultValue float64) float64 {
	if !viper.IsSet(key) {
		return defaultValue
	}
	return viper.GetFloat64(key)
}

// getSecret returns the inline value when set, otherwise the content of
// the named file under the section's secret_path.
func getSecret(key, pathKey, item string) string {
	if val := getString(key, ""); len(val) > 0 {
		return val
	}
	return getFromFile(pathKey, item)
}

func getSecretInt(key, pathKey, item string) int {
	if val := getInt(key, 0); val != 0 {
		return val
	}
	n, err := strconv.Atoi(getFromFile(pathKey, item))
	if err != nil {
		return 0
	}
	return n
}

func getFromFile(configPath, item string) string {
	path := getString(configPath, "")
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(path, item))
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(data), "\r\n")
}

func getExtensions() []string {
	val := getString(ansibleExtensions, ".yml,.yaml")
	var result []string
	for _, ext := range strings.Split(val, ",") {
		if trim := strings.TrimSpace(ext); trim != "" {
			result = append(result, trim)
		}
	}
	return result
}
