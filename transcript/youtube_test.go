package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
)

const sampleTimedText = `<?xml version="1.0" encoding="utf-8" ?><transcript>` +
	`<text start="0" dur="1.5">hello</text>` +
	`<text start="1.5" dur="2.25">&lt;font color=&quot;#E5E5E5&quot;&gt;world&lt;/font&gt;</text>` +
	`<text start="3.75" dur="1"></text>` +
	`<text start="4.75" dur="1">it&amp;#39;s here</text>` +
	`</transcript>`

type fakeYouTube struct {
	status      string
	tracks      []captionTrack
	transcript  string
	watchPage   string
	gotTrackURL string
	gotPlayer   playerRequest
}

func (y *fakeYouTube) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /watch", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("v") == "" {
			t.Errorf("watch request without video ID")
		}
		fmt.Fprint(w, y.watchPage)
	})
	mux.HandleFunc("POST /youtubei/v1/player", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("expected key=test-key, got %q", r.URL.Query().Get("key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&y.gotPlayer); err != nil {
			t.Errorf("invalid player request: %v", err)
		}

		tracks := make([]captionTrack, len(y.tracks))
		for i, track := range y.tracks {
			track.BaseURL = "http://" + r.Host + track.BaseURL
			tracks[i] = track
		}
		var resp playerResponse
		resp.PlayabilityStatus.Status = y.status
		resp.Captions.Renderer.CaptionTracks = tracks
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("GET /api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		y.gotTrackURL = r.URL.String()
		fmt.Fprint(w, y.transcript)
	})
	return mux
}

func newFakeYouTube() *fakeYouTube {
	return &fakeYouTube{
		status:     "OK",
		watchPage:  `<html><script>ytcfg.set({"INNERTUBE_API_KEY":"test-key","OTHER":1})</script></html>`,
		transcript: sampleTimedText,
		tracks: []captionTrack{
			{BaseURL: "/api/timedtext?v=dQw4w9WgXcQ&lang=en&kind=asr&fmt=srv3", LanguageCode: "en", Kind: "asr"},
			{BaseURL: "/api/timedtext?v=dQw4w9WgXcQ&lang=en&fmt=srv3", LanguageCode: "en"},
		},
	}
}

func TestYouTubeFetcher_Fetch(t *testing.T) {
	yt := newFakeYouTube()
	server := httptest.NewServer(yt.handler(t))
	defer server.Close()

	fetcher := NewYouTubeFetcher(server.URL, []string{"en"}, server.Client(), time.Second)
	segments, err := fetcher.Fetch(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := []Segment{
		{Text: "hello", Start: 0, Duration: 1.5},
		{Text: "world", Start: 1.5, Duration: 2.25},
		{Text: "it's here", Start: 4.75, Duration: 1},
	}
	if len(segments) != len(want) {
		t.Fatalf("expected %d segments, got %d: %+v", len(want), len(segments), segments)
	}
	for i := range want {
		if segments[i] != want[i] {
			t.Errorf("segment %d: expected %+v, got %+v", i, want[i], segments[i])
		}
	}

	if strings.Contains(yt.gotTrackURL, "fmt=srv3") {
		t.Errorf("expected fmt=srv3 to be stripped, got %s", yt.gotTrackURL)
	}
	if strings.Contains(yt.gotTrackURL, "kind=asr") {
		t.Errorf("expected manual track to be preferred, got %s", yt.gotTrackURL)
	}
	if yt.gotPlayer.VideoID != "dQw4w9WgXcQ" || yt.gotPlayer.Context.Client.ClientName != clientName {
		t.Errorf("unexpected player request %+v", yt.gotPlayer)
	}
}

func TestYouTubeFetcher_Unavailable(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*fakeYouTube)
	}{
		{"not playable", func(y *fakeYouTube) { y.status = "ERROR" }},
		{"unplayable", func(y *fakeYouTube) { y.status = "UNPLAYABLE" }},
		{"no captions", func(y *fakeYouTube) { y.tracks = nil }},
		{"no preferred language", func(y *fakeYouTube) {
			y.tracks = []captionTrack{{BaseURL: "/api/timedtext?lang=fr", LanguageCode: "fr"}}
		}},
		{"empty transcript", func(y *fakeYouTube) { y.transcript = `<transcript></transcript>` }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yt := newFakeYouTube()
			tt.mutate(yt)
			server := httptest.NewServer(yt.handler(t))
			defer server.Close()

			_, err := NewYouTubeFetcher(server.URL, nil, server.Client(), 0).Fetch(context.Background(), "dQw4w9WgXcQ")
			if !errors.Is(err, ErrUnavailable) {
				t.Errorf("expected ErrUnavailable, got %v", err)
			}
		})
	}
}

func TestYouTubeFetcher_Faults(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*fakeYouTube)
	}{
		{"missing api key", func(y *fakeYouTube) { y.watchPage = "<html></html>" }},
		{"captcha", func(y *fakeYouTube) { y.watchPage = `<div class="g-recaptcha"></div>` }},
		{"login required", func(y *fakeYouTube) { y.status = "LOGIN_REQUIRED" }},
		{"malformed transcript", func(y *fakeYouTube) { y.transcript = "<transcript><text>" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yt := newFakeYouTube()
			tt.mutate(yt)
			server := httptest.NewServer(yt.handler(t))
			defer server.Close()

			_, err := NewYouTubeFetcher(server.URL, nil, server.Client(), 0).Fetch(context.Background(), "dQw4w9WgXcQ")
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrUnavailable) {
				t.Errorf("expected a fault, got ErrUnavailable: %v", err)
			}
		})
	}
}

func TestYouTubeFetcher_UpstreamStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewYouTubeFetcher(server.URL, nil, server.Client(), 0).Fetch(context.Background(), "dQw4w9WgXcQ")
	if err == nil || errors.Is(err, ErrUnavailable) {
		t.Errorf("expected fault for upstream 503, got %v", err)
	}
}

func TestSelectTrack(t *testing.T) {
	tracks := []captionTrack{
		{LanguageCode: "de", Kind: "asr"},
		{LanguageCode: "en", Kind: "asr"},
		{LanguageCode: "en"},
	}

	if got := selectTrack(tracks, []string{"de", "en"}); got != &tracks[0] {
		t.Errorf("expected generated de track to win by language order, got %+v", got)
	}
	if got := selectTrack(tracks, []string{"en"}); got != &tracks[2] {
		t.Errorf("expected manual en track, got %+v", got)
	}
	if got := selectTrack(tracks, []string{"fr"}); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}
