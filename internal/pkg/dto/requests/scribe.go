package requests

import "github.com/goccy/go-json"

type CreateScribe struct {
	EncounterID string          `json:"encounter_id"`
	FormData    json.RawMessage `json:"form_data" validate:"required"`
	Text        string          `json:"text"`
	Transcript  string          `json:"transcript"`
	Prompt      string          `json:"prompt"`

	// Privileged-only overrides; rejected for non-admin sessions.
	ChatModel   string   `json:"chat_model"`
	AudioModel  string   `json:"audio_model"`
	Temperature *float32 `json:"temperature"`
	Benchmark   bool     `json:"benchmark"`
}

type ScribeFeedback struct {
	Positive bool   `json:"positive"`
	Comments string `json:"comments" validate:"max=2000"`
}

type AcceptTerms struct {
	TermsHash string `json:"terms_hash" validate:"required"`
}
