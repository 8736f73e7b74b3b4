// Package config provides configuration management for the gateway.
// Configuration is loaded from a YAML file with ${VAR:-default} environment
// substitution; registered backend services may additionally be discovered
// from {SERVICE}_URL environment variables.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Default configuration values.
const (
	DefaultHTTPPort          = 8000
	DefaultReadTimeout       = 30 * time.Second
	DefaultWriteTimeout      = 60 * time.Second
	DefaultIdleTimeout       = 120 * time.Second
	DefaultShutdownTimeout   = 30 * time.Second
	DefaultProxyTimeout      = 30 * time.Second
	DefaultRootProxyTimeout  = 5 * time.Second
	DefaultProbeTimeout      = 5 * time.Second
	DefaultServiceTokenTTL   = time.Hour
	DefaultMetricsPath       = "/metrics"
	DefaultHealthPath        = "/health"
	DefaultRateLimitRPS      = 100
	DefaultRateLimitBurst    = 200
	DefaultTracingSampleRate = 0.1
)

// Config holds all configuration settings for the gateway.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	Proxy     ProxyConfig     `yaml:"proxy"`
	Health    HealthConfig    `yaml:"health"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Services  []ServiceConfig `yaml:"services"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	Address         string   `yaml:"address"`
	ReadTimeout     Duration `yaml:"readTimeout"`
	WriteTimeout    Duration `yaml:"writeTimeout"`
	IdleTimeout     Duration `yaml:"idleTimeout"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// AuthConfig holds token verification settings.
type AuthConfig struct {
	// UserTokenSecret verifies end-user bearer tokens.
	UserTokenSecret string `yaml:"userTokenSecret"`

	// ServiceTokenSecret signs and verifies service-to-service tokens.
	// Distinct from the user secret so a leaked user token can never be
	// replayed as a service credential.
	ServiceTokenSecret string `yaml:"serviceTokenSecret"`

	// ServiceTokenTTL is the default lifetime of issued service tokens.
	ServiceTokenTTL Duration `yaml:"serviceTokenTTL"`

	// RoutePermissions maps a service name to the permissions a principal
	// must carry to reach it through the proxy.
	RoutePermissions map[string][]string `yaml:"routePermissions"`

	// TenantRequired enforces tenant-context extraction on proxied routes.
	TenantRequired bool `yaml:"tenantRequired"`
}

// ProxyConfig holds outbound call settings.
type ProxyConfig struct {
	// RequestTimeout bounds sub-resource forwards.
	RequestTimeout Duration `yaml:"requestTimeout"`

	// RootTimeout bounds root-call GET discovery probes.
	RootTimeout Duration `yaml:"rootTimeout"`
}

// HealthConfig holds backend health probing settings.
type HealthConfig struct {
	// ProbeTimeout bounds each per-service health probe.
	ProbeTimeout Duration `yaml:"probeTimeout"`
}

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerSecond int  `yaml:"requestsPerSecond"`
	Burst             int  `yaml:"burst"`
	PerClient         bool `yaml:"perClient"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	OTLPEndpoint string  `yaml:"otlpEndpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
}

// ServiceConfig describes a registered backend service.
type ServiceConfig struct {
	Name       string `yaml:"name"`
	URL        string `yaml:"url"`
	HealthPath string `yaml:"healthPath"`
}

// DefaultConfig returns a Config populated with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            DefaultHTTPPort,
			ReadTimeout:     Duration{DefaultReadTimeout},
			WriteTimeout:    Duration{DefaultWriteTimeout},
			IdleTimeout:     Duration{DefaultIdleTimeout},
			ShutdownTimeout: Duration{DefaultShutdownTimeout},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Auth: AuthConfig{
			ServiceTokenTTL: Duration{DefaultServiceTokenTTL},
			TenantRequired:  true,
		},
		Proxy: ProxyConfig{
			RequestTimeout: Duration{DefaultProxyTimeout},
			RootTimeout:    Duration{DefaultRootProxyTimeout},
		},
		Health: HealthConfig{
			ProbeTimeout: Duration{DefaultProbeTimeout},
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: DefaultRateLimitRPS,
			Burst:             DefaultRateLimitBurst,
			PerClient:         true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
		Tracing: TracingConfig{
			SamplingRate: DefaultTracingSampleRate,
		},
	}
}

// applyDefaults fills zero values with defaults after unmarshaling.
func (c *Config) applyDefaults() {
	d := DefaultConfig()

	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.ReadTimeout.Duration == 0 {
		c.Server.ReadTimeout = d.Server.ReadTimeout
	}
	if c.Server.WriteTimeout.Duration == 0 {
		c.Server.WriteTimeout = d.Server.WriteTimeout
	}
	if c.Server.IdleTimeout.Duration == 0 {
		c.Server.IdleTimeout = d.Server.IdleTimeout
	}
	if c.Server.ShutdownTimeout.Duration == 0 {
		c.Server.ShutdownTimeout = d.Server.ShutdownTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Log.Output == "" {
		c.Log.Output = d.Log.Output
	}
	if c.Auth.ServiceTokenTTL.Duration == 0 {
		c.Auth.ServiceTokenTTL = d.Auth.ServiceTokenTTL
	}
	if c.Proxy.RequestTimeout.Duration == 0 {
		c.Proxy.RequestTimeout = d.Proxy.RequestTimeout
	}
	if c.Proxy.RootTimeout.Duration == 0 {
		c.Proxy.RootTimeout = d.Proxy.RootTimeout
	}
	if c.Health.ProbeTimeout.Duration == 0 {
		c.Health.ProbeTimeout = d.Health.ProbeTimeout
	}
	if c.RateLimit.RequestsPerSecond == 0 {
		c.RateLimit.RequestsPerSecond = d.RateLimit.RequestsPerSecond
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = d.RateLimit.Burst
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = d.Metrics.Path
	}
	if c.Tracing.SamplingRate == 0 {
		c.Tracing.SamplingRate = d.Tracing.SamplingRate
	}

	for i := range c.Services {
		if c.Services[i].HealthPath == "" {
			c.Services[i].HealthPath = DefaultHealthPath
		}
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Auth.UserTokenSecret == "" {
		return fmt.Errorf("auth.userTokenSecret is required")
	}
	if c.Auth.ServiceTokenSecret == "" {
		return fmt.Errorf("auth.serviceTokenSecret is required")
	}
	if c.Auth.UserTokenSecret == c.Auth.ServiceTokenSecret {
		return fmt.Errorf("user and service token secrets must differ")
	}
	if c.Auth.ServiceTokenTTL.Duration <= 0 {
		return fmt.Errorf("auth.serviceTokenTTL must be positive")
	}
	if c.Proxy.RequestTimeout.Duration <= 0 {
		return fmt.Errorf("proxy.requestTimeout must be positive")
	}
	if c.Health.ProbeTimeout.Duration <= 0 {
		return fmt.Errorf("health.probeTimeout must be positive")
	}

	seen := make(map[string]bool, len(c.Services))
	for _, svc := range c.Services {
		if svc.Name == "" {
			return fmt.Errorf("service entry with empty name")
		}
		if seen[svc.Name] {
			return fmt.Errorf("duplicate service %q", svc.Name)
		}
		seen[svc.Name] = true

		u, err := url.Parse(svc.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("service %q has invalid URL %q", svc.Name, svc.URL)
		}
	}

	return nil
}
