package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	clientName    = "ANDROID"
	clientVersion = "20.10.38"
	userAgent     = "com.google.android.youtube/" + clientVersion + " (Linux; U; Android 14)"

	generatedKind   = "asr"
	maxResponseSize = 10 << 20
)

var (
	apiKeyPattern = regexp.MustCompile(`"INNERTUBE_API_KEY":\s*"([^"]+)"`)
	tagPattern    = regexp.MustCompile(`<[^>]*>`)
)

// YouTubeFetcher reads captions through YouTube's innertube player API.
type YouTubeFetcher struct {
	baseURL   string
	languages []string
	client    *http.Client
	timeout   time.Duration
}

func NewYouTubeFetcher(baseURL string, languages []string, client *http.Client, timeout time.Duration) *YouTubeFetcher {
	if len(languages) == 0 {
		languages = []string{"en"}
	}
	return &YouTubeFetcher{
		baseURL:   strings.TrimRight(baseURL, "/"),
		languages: languages,
		client:    client,
		timeout:   timeout,
	}
}

type playerRequest struct {
	Context struct {
		Client struct {
			ClientName    string `json:"clientName"`
			ClientVersion string `json:"clientVersion"`
		} `json:"client"`
	} `json:"context"`
	VideoID string `json:"videoId"`
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions struct {
		Renderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

type timedText struct {
	Texts []struct {
		Start    float64 `xml:"start,attr"`
		Duration float64 `xml:"dur,attr"`
		Body     string  `xml:",chardata"`
	} `xml:"text"`
}

func (f *YouTubeFetcher) Fetch(ctx context.Context, videoID string) ([]Segment, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	logger := logrus.WithField("video_id", videoID)

	apiKey, err := f.fetchAPIKey(ctx, videoID)
	if err != nil {
		return nil, err
	}

	player, err := f.fetchPlayer(ctx, videoID, apiKey)
	if err != nil {
		return nil, err
	}

	switch status := player.PlayabilityStatus.Status; status {
	case "OK":
	case "ERROR", "UNPLAYABLE":
		logger.WithFields(logrus.Fields{
			"status": status,
			"reason": player.PlayabilityStatus.Reason,
		}).Info("Video is not playable")
		return nil, errors.Wrapf(ErrUnavailable, "playability status %s", status)
	default:
		// LOGIN_REQUIRED and the rest are upstream refusals.
		return nil, errors.Errorf("playability status %s: %s", status, player.PlayabilityStatus.Reason)
	}

	track := selectTrack(player.Captions.Renderer.CaptionTracks, f.languages)
	if track == nil {
		logger.WithField("languages", f.languages).Info("No caption track in preferred languages")
		return nil, errors.Wrap(ErrUnavailable, "no caption track")
	}

	segments, err := f.fetchSegments(ctx, track.BaseURL)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, errors.Wrap(ErrUnavailable, "empty transcript")
	}

	logger.WithFields(logrus.Fields{
		"language": track.LanguageCode,
		"kind":     track.Kind,
		"segments": len(segments),
	}).Debug("Fetched transcript")
	return segments, nil
}

func (f *YouTubeFetcher) fetchAPIKey(ctx context.Context, videoID string) (string, error) {
	watchURL := f.baseURL + "/watch?v=" + url.QueryEscape(videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, watchURL, nil)
	if err != nil {
		return "", errors.Wrap(err, "creating watch page request")
	}
	req.Header.Set("Accept-Language", "en-US")

	body, err := f.do(req)
	if err != nil {
		return "", errors.Wrap(err, "fetching watch page")
	}

	match := apiKeyPattern.FindSubmatch(body)
	if match == nil {
		if bytes.Contains(body, []byte(`class="g-recaptcha"`)) {
			return "", errors.New("watch page is blocked by a captcha")
		}
		return "", errors.New("innertube API key not found in watch page")
	}
	return string(match[1]), nil
}

func (f *YouTubeFetcher) fetchPlayer(ctx context.Context, videoID, apiKey string) (*playerResponse, error) {
	var payload playerRequest
	payload.Context.Client.ClientName = clientName
	payload.Context.Client.ClientVersion = clientVersion
	payload.VideoID = videoID

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "encoding player request")
	}

	playerURL := f.baseURL + "/youtubei/v1/player?key=" + url.QueryEscape(apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, playerURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, errors.Wrap(err, "creating player request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	body, err := f.do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetching player response")
	}

	var player playerResponse
	if err := json.Unmarshal(body, &player); err != nil {
		return nil, errors.Wrap(err, "decoding player response")
	}
	return &player, nil
}

func (f *YouTubeFetcher) fetchSegments(ctx context.Context, baseURL string) ([]Segment, error) {
	trackURL := strings.Replace(baseURL, "&fmt=srv3", "", 1)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trackURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating transcript request")
	}

	body, err := f.do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetching transcript")
	}
	return parseTimedText(body)
}

func (f *YouTubeFetcher) do(req *http.Request) ([]byte, error) {
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, errors.Wrap(err, "reading response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Path)
	}
	return body, nil
}

// selectTrack walks the preferred languages in order. Within a language a
// manually created track wins over a generated one.
func selectTrack(tracks []captionTrack, languages []string) *captionTrack {
	for _, lang := range languages {
		var generated *captionTrack
		for i := range tracks {
			if tracks[i].LanguageCode != lang {
				continue
			}
			if tracks[i].Kind != generatedKind {
				return &tracks[i]
			}
			if generated == nil {
				generated = &tracks[i]
			}
		}
		if generated != nil {
			return generated
		}
	}
	return nil
}

func parseTimedText(data []byte) ([]Segment, error) {
	var doc timedText
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing transcript XML")
	}

	segments := make([]Segment, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		text := strings.TrimSpace(tagPattern.ReplaceAllString(html.UnescapeString(t.Body), ""))
		if text == "" {
			continue
		}
		segments = append(segments, Segment{Text: text, Start: t.Start, Duration: t.Duration})
	}
	return segments, nil
}
