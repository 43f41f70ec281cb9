package infrastructure

import (
	"strings"

	"github.com/yourusername/vidgrab-go/internal/domain"
)

// failure patterns shared by the backends, matched against lower-cased text.
// The dotted forms are conversion API error codes.
var (
	accessDeniedPatterns = []string{
		"private video",
		"this video is private",
		"is private",
		"login required",
		"sign in to confirm",
		"members-only",
		"restricted",
		"requested content is not available",
		"http error 403",
		"content.video.private",
		"content.post.private",
		"content.video.age",
	}
	unavailablePatterns = []string{
		"video unavailable",
		"copyright",
		"has been removed",
		"no longer available",
		"not available in your country",
		"http error 404",
		"does not exist",
		"content.video.unavailable",
		"content.post.unavailable",
	}
)

// classifyMessage maps a failure message to AccessDenied or Unavailable.
// ok is false when neither pattern set matches.
func classifyMessage(message string) (kind domain.ErrorKind, ok bool) {
	lower := strings.ToLower(message)
	switch {
	case containsAny(lower, accessDeniedPatterns):
		return domain.ErrorKindAccessDenied, true
	case containsAny(lower, unavailablePatterns):
		return domain.ErrorKindUnavailable, true
	}
	return "", false
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
