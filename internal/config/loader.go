package config

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// Load loads configuration from a file path, applies defaults, and merges
// services discovered from the process environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}

	cfg.MergeServices(ServicesFromEnviron(os.Environ()))
	return cfg, nil
}

// LoadFromReader loads configuration from an io.Reader. Environment-based
// service discovery is not applied; callers merge explicitly if needed.
func LoadFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return parse(data)
}

// parse parses YAML data into a Config after environment substitution.
func parse(data []byte) (*Config, error) {
	content := substituteEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// substituteEnvVars replaces ${VAR} and ${VAR:-default} patterns with
// environment variable values.
func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		defaultValue := ""
		if len(submatches) >= 3 {
			defaultValue = submatches[2]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return defaultValue
	})
}

// urlEnvSuffix marks environment variables declaring a backend service.
const urlEnvSuffix = "_URL"

// healthPathEnvSuffix marks environment variables overriding a service's
// health probe path.
const healthPathEnvSuffix = "_HEALTH_PATH"

// ServicesFromEnviron discovers backend services from {SERVICE}_URL
// environment entries, with optional {SERVICE}_HEALTH_PATH overrides.
// STUDENTS_URL=http://students:8002 registers a "students" service.
func ServicesFromEnviron(environ []string) []ServiceConfig {
	healthPaths := make(map[string]string)
	urls := make(map[string]string)

	for _, entry := range environ {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || value == "" {
			continue
		}

		switch {
		case strings.HasSuffix(key, healthPathEnvSuffix):
			name := serviceNameFromEnvKey(key, healthPathEnvSuffix)
			if name != "" {
				healthPaths[name] = value
			}
		case strings.HasSuffix(key, urlEnvSuffix):
			name := serviceNameFromEnvKey(key, urlEnvSuffix)
			if name != "" {
				urls[name] = value
			}
		}
	}

	names := make([]string, 0, len(urls))
	for name := range urls {
		names = append(names, name)
	}
	sort.Strings(names)

	services := make([]ServiceConfig, 0, len(names))
	for _, name := range names {
		healthPath := healthPaths[name]
		if healthPath == "" {
			healthPath = DefaultHealthPath
		}
		services = append(services, ServiceConfig{
			Name:       name,
			URL:        urls[name],
			HealthPath: healthPath,
		})
	}

	return services
}

// serviceNameFromEnvKey converts STUDENT_FEES_URL to "student_fees".
func serviceNameFromEnvKey(key, suffix string) string {
	name := strings.TrimSuffix(key, suffix)
	if name == "" {
		return ""
	}
	return strings.ToLower(name)
}

// MergeServices appends discovered services that are not already declared
// in the config file. File entries win on name collisions.
func (c *Config) MergeServices(discovered []ServiceConfig) {
	declared := make(map[string]bool, len(c.Services))
	for _, svc := range c.Services {
		declared[svc.Name] = true
	}

	for _, svc := range discovered {
		if !declared[svc.Name] {
			c.Services = append(c.Services, svc)
		}
	}
}
