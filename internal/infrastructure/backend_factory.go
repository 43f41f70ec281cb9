package infrastructure

import (
	"fmt"

	"github.com/yourusername/vidgrab-go/internal/domain"
	"github.com/yourusername/vidgrab-go/pkg/logger"
)

// Backends is the fetch wiring chosen at startup
type Backends struct {
	Primary domain.FetchBackend
	Stream  *DirectBackend
}

// NewBackends selects the configured FetchBackend. The direct backend is
// always built as well because redirect and picker outcomes are streamed with it.
func NewBackends(config *domain.Config, store *StagingStore, eventLogger *logger.MultiLogger) (*Backends, error) {
	client := NewHTTPClient(&config.Fetch)
	direct := NewDirectBackend(client, config.Fetch.UserAgent)

	var primary domain.FetchBackend
	switch config.Fetch.Backend {
	case "extractor", "":
		primary = NewExtractorBackend(&config.Extractor, &config.Fetch, store, config.Logging.Dir, eventLogger)
	case "remote":
		if config.Remote.Endpoint == "" {
			return nil, fmt.Errorf("remote backend requires remote.endpoint")
		}
		primary = NewRemoteAPIBackend(&config.Remote, client, config.Fetch.UserAgent)
	case "direct":
		primary = direct
	default:
		return nil, fmt.Errorf("unknown fetch backend: %s", config.Fetch.Backend)
	}

	return &Backends{Primary: primary, Stream: direct}, nil
}
