package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromReader_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromReader(strings.NewReader("{}"))
	require.NoError(t, err)

	assert.Equal(t, DefaultHTTPPort, cfg.Server.Port)
	assert.Equal(t, DefaultProxyTimeout, cfg.Proxy.RequestTimeout.Duration)
	assert.Equal(t, DefaultRootProxyTimeout, cfg.Proxy.RootTimeout.Duration)
	assert.Equal(t, DefaultProbeTimeout, cfg.Health.ProbeTimeout.Duration)
	assert.Equal(t, DefaultServiceTokenTTL, cfg.Auth.ServiceTokenTTL.Duration)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, DefaultMetricsPath, cfg.Metrics.Path)
}

func TestLoadFromReader_Full(t *testing.T) {
	t.Parallel()

	yaml := `
server:
  port: 9000
  readTimeout: 10s
auth:
  userTokenSecret: user-secret
  serviceTokenSecret: service-secret
  serviceTokenTTL: 30m
  tenantRequired: true
  routePermissions:
    fees:
      - fees:access
proxy:
  requestTimeout: 15s
  rootTimeout: 2s
services:
  - name: students
    url: http://students:8002
  - name: fees
    url: http://fees:8005
    healthPath: /healthz
`

	cfg, err := LoadFromReader(strings.NewReader(yaml))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "10s", cfg.Server.ReadTimeout.String())
	assert.Equal(t, "15s", cfg.Proxy.RequestTimeout.String())
	assert.Equal(t, "2s", cfg.Proxy.RootTimeout.String())
	assert.Equal(t, []string{"fees:access"}, cfg.Auth.RoutePermissions["fees"])
	assert.True(t, cfg.Auth.TenantRequired)

	require.Len(t, cfg.Services, 2)
	assert.Equal(t, DefaultHealthPath, cfg.Services[0].HealthPath)
	assert.Equal(t, "/healthz", cfg.Services[1].HealthPath)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromReader_EnvSubstitution(t *testing.T) {
	t.Setenv("TEST_GATEWAY_SECRET", "from-env")

	yaml := `
auth:
  userTokenSecret: ${TEST_GATEWAY_SECRET}
  serviceTokenSecret: ${TEST_GATEWAY_MISSING:-fallback}
`

	cfg, err := LoadFromReader(strings.NewReader(yaml))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Auth.UserTokenSecret)
	assert.Equal(t, "fallback", cfg.Auth.ServiceTokenSecret)
}

func TestLoadFromReader_InvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := LoadFromReader(strings.NewReader("server: [broken"))
	assert.Error(t, err)
}

func TestServicesFromEnviron(t *testing.T) {
	t.Parallel()

	environ := []string{
		"STUDENTS_URL=http://students:8002",
		"FEES_URL=http://fees:8005",
		"FEES_HEALTH_PATH=/healthz",
		"STAFF_ATTENDANCE_URL=http://staff-attendance:8010",
		"PATH=/usr/bin",
		"EMPTY_URL=",
	}

	services := ServicesFromEnviron(environ)
	require.Len(t, services, 3)

	assert.Equal(t, "fees", services[0].Name)
	assert.Equal(t, "http://fees:8005", services[0].URL)
	assert.Equal(t, "/healthz", services[0].HealthPath)

	assert.Equal(t, "staff_attendance", services[1].Name)
	assert.Equal(t, DefaultHealthPath, services[1].HealthPath)

	assert.Equal(t, "students", services[2].Name)
}

func TestMergeServices_FileWins(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Services: []ServiceConfig{
			{Name: "students", URL: "http://declared:1", HealthPath: "/health"},
		},
	}

	cfg.MergeServices([]ServiceConfig{
		{Name: "students", URL: "http://discovered:2", HealthPath: "/health"},
		{Name: "fees", URL: "http://fees:8005", HealthPath: "/health"},
	})

	require.Len(t, cfg.Services, 2)
	assert.Equal(t, "http://declared:1", cfg.Services[0].URL)
	assert.Equal(t, "fees", cfg.Services[1].Name)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	base := func() *Config {
		cfg := DefaultConfig()
		cfg.Auth.UserTokenSecret = "user-secret"
		cfg.Auth.ServiceTokenSecret = "service-secret"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "missing user secret",
			mutate:  func(c *Config) { c.Auth.UserTokenSecret = "" },
			wantErr: "userTokenSecret",
		},
		{
			name:    "missing service secret",
			mutate:  func(c *Config) { c.Auth.ServiceTokenSecret = "" },
			wantErr: "serviceTokenSecret",
		},
		{
			name:    "identical secrets",
			mutate:  func(c *Config) { c.Auth.ServiceTokenSecret = "user-secret" },
			wantErr: "must differ",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = -1 },
			wantErr: "port",
		},
		{
			name: "duplicate service",
			mutate: func(c *Config) {
				c.Services = []ServiceConfig{
					{Name: "students", URL: "http://a:1"},
					{Name: "students", URL: "http://b:2"},
				}
			},
			wantErr: "duplicate",
		},
		{
			name: "invalid service URL",
			mutate: func(c *Config) {
				c.Services = []ServiceConfig{{Name: "students", URL: "not-a-url"}}
			},
			wantErr: "invalid URL",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := base()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
