// Package registry resolves backend service names to network addresses.
// The registry is built once at startup and immutable afterwards, so it is
// safe for concurrent use without locking.
package registry

import (
	"errors"
	"fmt"
	"net/url"
	"sort"

	"github.com/campushub/gateway/internal/config"
)

// ErrServiceNotFound indicates that a service name is not registered.
var ErrServiceNotFound = errors.New("service not found")

// NotFoundError carries the unresolved service name.
type NotFoundError struct {
	Service string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("service %q not found", e.Service)
}

// Is reports whether the target matches ErrServiceNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrServiceNotFound
}

// Entry describes a registered backend service.
type Entry struct {
	// Name is the unique service name used in proxy paths.
	Name string

	// BaseURL is the service's base address.
	BaseURL *url.URL

	// HealthPath is the probe path relative to BaseURL.
	HealthPath string
}

// Registry is an immutable service name to address mapping.
type Registry struct {
	entries map[string]Entry
	names   []string
}

// New builds a registry from configured services. Later duplicates of the
// same name overwrite earlier ones (idempotent upsert at boot).
func New(services []config.ServiceConfig) (*Registry, error) {
	entries := make(map[string]Entry, len(services))

	for _, svc := range services {
		if svc.Name == "" {
			return nil, fmt.Errorf("service entry with empty name")
		}

		baseURL, err := url.Parse(svc.URL)
		if err != nil {
			return nil, fmt.Errorf("service %q has invalid URL %q: %w", svc.Name, svc.URL, err)
		}
		if baseURL.Scheme == "" || baseURL.Host == "" {
			return nil, fmt.Errorf("service %q has invalid URL %q", svc.Name, svc.URL)
		}

		healthPath := svc.HealthPath
		if healthPath == "" {
			healthPath = config.DefaultHealthPath
		}

		entries[svc.Name] = Entry{
			Name:       svc.Name,
			BaseURL:    baseURL,
			HealthPath: healthPath,
		}
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	return &Registry{entries: entries, names: names}, nil
}

// Resolve looks up a service by name.
func (r *Registry) Resolve(name string) (Entry, error) {
	entry, ok := r.entries[name]
	if !ok {
		return Entry{}, &NotFoundError{Service: name}
	}
	return entry, nil
}

// Entries returns all registered services in name order.
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, 0, len(r.names))
	for _, name := range r.names {
		entries = append(entries, r.entries[name])
	}
	return entries
}

// Names returns all registered service names in order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Len returns the number of registered services.
func (r *Registry) Len() int {
	return len(r.entries)
}
