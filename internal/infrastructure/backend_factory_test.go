package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/vidgrab-go/internal/domain"
)

func TestNewBackends(t *testing.T) {
	store := newTestStore(t)

	tests := []struct {
		backend  string
		endpoint string
		name     string
	}{
		{"extractor", "", "extractor"},
		{"remote", "https://api.example/", "remote"},
		{"direct", "", "direct"},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := domain.DefaultConfig()
			cfg.Fetch.Backend = tt.backend
			cfg.Remote.Endpoint = tt.endpoint

			backends, err := NewBackends(cfg, store, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.name, backends.Primary.Name())
			assert.NotNil(t, backends.Stream)
		})
	}
}

func TestNewBackends_Errors(t *testing.T) {
	store := newTestStore(t)

	cfg := domain.DefaultConfig()
	cfg.Fetch.Backend = "remote"
	_, err := NewBackends(cfg, store, nil)
	assert.Error(t, err)

	cfg.Fetch.Backend = "carrier-pigeon"
	_, err = NewBackends(cfg, store, nil)
	assert.Error(t, err)
}
