package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/gateway/internal/config"
)

func TestNew(t *testing.T) {
	t.Parallel()

	reg, err := New([]config.ServiceConfig{
		{Name: "students", URL: "http://students:8002", HealthPath: "/health"},
		{Name: "fees", URL: "http://fees:8005"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, []string{"fees", "students"}, reg.Names())

	entry, err := reg.Resolve("students")
	require.NoError(t, err)
	assert.Equal(t, "students", entry.Name)
	assert.Equal(t, "http://students:8002", entry.BaseURL.String())
	assert.Equal(t, "/health", entry.HealthPath)

	entry, err = reg.Resolve("fees")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultHealthPath, entry.HealthPath)
}

func TestNew_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		services []config.ServiceConfig
	}{
		{
			name:     "empty name",
			services: []config.ServiceConfig{{Name: "", URL: "http://a:1"}},
		},
		{
			name:     "missing scheme",
			services: []config.ServiceConfig{{Name: "students", URL: "students:8002"}},
		},
		{
			name:     "missing host",
			services: []config.ServiceConfig{{Name: "students", URL: "http://"}},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := New(tt.services)
			assert.Error(t, err)
		})
	}
}

func TestNew_DuplicateOverwrites(t *testing.T) {
	t.Parallel()

	reg, err := New([]config.ServiceConfig{
		{Name: "students", URL: "http://old:1"},
		{Name: "students", URL: "http://new:2"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, reg.Len())
	entry, err := reg.Resolve("students")
	require.NoError(t, err)
	assert.Equal(t, "http://new:2", entry.BaseURL.String())
}

func TestResolve_NotFound(t *testing.T) {
	t.Parallel()

	reg, err := New(nil)
	require.NoError(t, err)

	_, err = reg.Resolve("ghosts")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServiceNotFound)

	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "ghosts", notFound.Service)
}

func TestEntries_Ordered(t *testing.T) {
	t.Parallel()

	reg, err := New([]config.ServiceConfig{
		{Name: "timetable", URL: "http://timetable:8007"},
		{Name: "admissions", URL: "http://admissions:8001"},
		{Name: "fees", URL: "http://fees:8005"},
	})
	require.NoError(t, err)

	entries := reg.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "admissions", entries[0].Name)
	assert.Equal(t, "fees", entries[1].Name)
	assert.Equal(t, "timetable", entries[2].Name)
}
