package models

import (
	"time"

	"github.com/google/uuid"
)

// SummaryRecord is one produced summary, as archived.
type SummaryRecord struct {
	ID         string    `json:"id"`
	VideoID    string    `json:"video_id"`
	VideoURL   string    `json:"video_url"`
	Transcript string    `json:"transcript"`
	Summary    string    `json:"summary"`
	Checkpoint string    `json:"checkpoint"`
	Provider   string    `json:"provider"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewSummaryRecord(videoID, videoURL, transcript, summary, checkpoint, provider string) *SummaryRecord {
	return &SummaryRecord{
		ID:         uuid.New().String(),
		VideoID:    videoID,
		VideoURL:   videoURL,
		Transcript: transcript,
		Summary:    summary,
		Checkpoint: checkpoint,
		Provider:   provider,
		CreatedAt:  time.Now().UTC(),
	}
}

// Result is what the result page and the JSON API render.
type Result struct {
	VideoID    string `json:"video_id"`
	Transcript string `json:"transcript"`
	Summary    string `json:"summary"`
	Checkpoint string `json:"checkpoint,omitempty"`
}

// NewResult creates a response from a summary record
func NewResult(r *SummaryRecord) *Result {
	return &Result{
		VideoID:    r.VideoID,
		Transcript: r.Transcript,
		Summary:    r.Summary,
		Checkpoint: r.Checkpoint,
	}
}
