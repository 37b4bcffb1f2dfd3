package domain

import "time"

// Video is an uploaded media record. Transcription stays nil until the
// transcription stage succeeds for it.
type Video struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Path          string    `json:"path"`
	Transcription *string   `json:"transcription"`
	CreatedAt     time.Time `json:"createdAt"`
}

// HasTranscription reports whether a usable transcription is stored.
func (v Video) HasTranscription() bool {
	return v.Transcription != nil && *v.Transcription != ""
}

type Prompt struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Template string `json:"template"`
}
