package transcript

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/nijaru/yt-summary/config"
	"github.com/nijaru/yt-summary/scripts"
)

// ErrUnavailable reports that a video cannot be played or has no transcript
// in any of the preferred languages.
var ErrUnavailable = errors.New("transcript unavailable")

type Segment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

type Fetcher interface {
	Fetch(ctx context.Context, videoID string) ([]Segment, error)
}

// Join concatenates segment text with single spaces, in order.
func Join(segments []Segment) string {
	parts := make([]string, len(segments))
	for i, s := range segments {
		parts[i] = s.Text
	}
	return strings.Join(parts, " ")
}

// New builds the fetcher selected by cfg.Source.
func New(cfg config.TranscriptConfig) (Fetcher, error) {
	switch cfg.Source {
	case "youtube", "":
		return NewYouTubeFetcher(cfg.BaseURL, cfg.Languages, &http.Client{}, cfg.FetchTimeout), nil
	case "script":
		runner, err := scripts.NewScriptRunner(scripts.Config{
			UVPath:      cfg.UVPath,
			ScriptsPath: cfg.ScriptsPath,
			Required:    []string{transcriptScript},
		})
		if err != nil {
			return nil, errors.Wrap(err, "creating script runner")
		}
		return NewScriptFetcher(runner, cfg.Languages, cfg.FetchTimeout), nil
	default:
		return nil, errors.Errorf("unknown transcript source %q", cfg.Source)
	}
}
