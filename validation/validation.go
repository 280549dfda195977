package validation

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	shortHost         = "youtu.be"
	watchPath         = "/watch"
	InvalidURLMessage = "Invalid YouTube URL. Please provide a valid link."
)

var (
	canonicalHosts = map[string]bool{
		"youtube.com":     true,
		"www.youtube.com": true,
	}
	videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ExtractVideoID returns the video ID embedded in a youtu.be short link or a
// youtube.com/watch URL. Blank v values are skipped and the first non-blank
// one wins. Anything else, including a watch URL without a v parameter,
// reports ok=false.
func ExtractVideoID(rawURL string) (id string, ok bool) {
	parsedURL, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}

	host := strings.ToLower(parsedURL.Hostname())
	switch {
	case host == shortHost:
		id, _, _ = strings.Cut(strings.TrimPrefix(parsedURL.Path, "/"), "/")
	case canonicalHosts[host]:
		if parsedURL.Path != watchPath {
			return "", false
		}
		for _, v := range parsedURL.Query()["v"] {
			if v != "" {
				id = v
				break
			}
		}
	default:
		return "", false
	}

	if !IsVideoID(id) {
		return "", false
	}
	return id, true
}

// IsVideoID reports whether s has the shape of a YouTube video ID.
func IsVideoID(s string) bool {
	return videoIDPattern.MatchString(s)
}

// ValidateVideoURL is ExtractVideoID in error-returning form.
func ValidateVideoURL(rawURL string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", &ValidationError{Message: InvalidURLMessage}
	}
	id, ok := ExtractVideoID(rawURL)
	if !ok {
		return "", &ValidationError{Message: InvalidURLMessage}
	}
	return id, nil
}
