package upload

import (
	"context"
	"os"
	"strings"

	apperrors "github.com/nurlan6812/food-agent/internal/common/errors"
	"github.com/nurlan6812/food-agent/internal/common/logger"
	"github.com/nurlan6812/food-agent/internal/common/metrics"
)

// ErrNoUploadURL matches (via errors.Is) the error returned when every backend failed.
var ErrNoUploadURL = apperrors.NewUploadFailedError("")

// Cascade tries each backend once, in order, and returns the first URL.
type Cascade struct {
	normalizer Normalizer
	backends   []Backend
	logger     logger.Logger
}

func NewCascade(normalizer Normalizer, backends []Backend, log logger.Logger) *Cascade {
	return &Cascade{
		normalizer: normalizer,
		backends:   backends,
		logger:     log.With(map[string]interface{}{"component": "upload"}),
	}
}

// IsRemote reports whether source is already an http(s) URL.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Resolve returns a public URL for source. Remote sources come back unchanged.
// When every backend fails the error is an UPLOAD_FAILED StandardError.
func (c *Cascade) Resolve(ctx context.Context, source string) (string, error) {
	if IsRemote(source) {
		return source, nil
	}
	if _, err := os.Stat(source); err != nil {
		return "", apperrors.NewImageNotFoundError(source)
	}

	path, cleanup, err := c.normalizer.Normalize(source)
	defer cleanup()
	if err != nil {
		c.logger.Warn("orientation fix failed, uploading original", map[string]interface{}{
			"path":  source,
			"error": err.Error(),
		})
		path = source
	}

	var failures []string
	for _, b := range c.backends {
		link, err := b.Upload(ctx, path)
		if err != nil {
			c.logger.Warn("upload backend failed", map[string]interface{}{
				"backend": b.Name(),
				"error":   err.Error(),
			})
			metrics.ProviderRequests.WithLabelValues(b.Name(), "error").Inc()
			failures = append(failures, b.Name()+": "+apperrors.MessageOf(err))
			continue
		}

		metrics.ProviderRequests.WithLabelValues(b.Name(), "success").Inc()
		metrics.UploadBackendSelected.WithLabelValues(b.Name()).Inc()
		c.logger.Debug("image uploaded", map[string]interface{}{"backend": b.Name()})
		return link, nil
	}

	return "", apperrors.NewUploadFailedError(strings.Join(failures, "; "))
}
