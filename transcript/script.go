package transcript

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/nijaru/yt-summary/scripts"
)

const transcriptScript = "transcript.py"

type scriptRunner interface {
	RunScript(ctx context.Context, scriptName string, args map[string]string, flags []string) ([]byte, error)
}

// ScriptFetcher delegates to transcript.py, run through uv.
type ScriptFetcher struct {
	runner    scriptRunner
	languages []string
	timeout   time.Duration
}

type scriptResult struct {
	Segments    []Segment `json:"segments"`
	Unavailable bool      `json:"unavailable"`
	Error       string    `json:"error"`
}

func NewScriptFetcher(runner scriptRunner, languages []string, timeout time.Duration) *ScriptFetcher {
	if len(languages) == 0 {
		languages = []string{"en"}
	}
	return &ScriptFetcher{runner: runner, languages: languages, timeout: timeout}
}

func (f *ScriptFetcher) Fetch(ctx context.Context, videoID string) ([]Segment, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	output, err := f.runner.RunScript(ctx, transcriptScript, map[string]string{
		"video_id":  videoID,
		"languages": strings.Join(f.languages, ","),
	}, []string{"json"})
	if err != nil {
		return nil, errors.Wrap(err, "running transcript script")
	}

	var result scriptResult
	if err := scripts.Unmarshal(output, &result); err != nil {
		return nil, err
	}

	switch {
	case result.Error != "":
		return nil, errors.Errorf("transcript script: %s", result.Error)
	case result.Unavailable, len(result.Segments) == 0:
		return nil, errors.Wrap(ErrUnavailable, "reported by transcript script")
	}
	return result.Segments, nil
}
