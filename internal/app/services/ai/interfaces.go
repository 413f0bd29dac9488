package ai

import (
	"context"
	"errors"
)

type MessageRole string

const (
	RoleSystem MessageRole = "system"
	RoleUser   MessageRole = "user"
)

type FileKind string

const (
	FileKindAudio FileKind = "audio"
	FileKindImage FileKind = "image"
)

// FilePayload is an evidence file already pulled out of object storage.
type FilePayload struct {
	Kind   FileKind
	Format string // extension without the dot, e.g. "mp3", "png"
	Data   []byte
}

// Message is the provider-neutral content block. Each backend converts it to
// its own wire shape: inline bytes for native multimodal backends, base64 data
// URIs for the OpenAI family.
type Message struct {
	Role MessageRole
	Text string
	File *FilePayload
}

type TokenUsage struct {
	Input  int
	Output int
	Cached int
}

type ExtractInput struct {
	Messages  []Message
	ChatModel string
	// Schema is the anonymized target object schema; keys q0..qN plus the
	// optional transcription property.
	Schema      map[string]interface{}
	Temperature float32
	// CacheKey is a stable hash of (schema, model) used by backends with
	// server-side reusable context. Empty disables caching.
	CacheKey string
}

type ExtractResult struct {
	// Values holds the anonymized keys returned by the model. The
	// transcription property, when present, is moved to Transcription.
	Values        map[string]interface{}
	Transcription string
	CompletionID  string
	CacheName     string
	Thinking      string
	Usage         TokenUsage
	// Retries counts re-issued calls after a malformed structured response.
	Retries int
}

// ErrRefused marks a backend that declined to answer at all (content filter,
// safety block). The orchestrator maps it to the REFUSED terminal state.
var ErrRefused = errors.New("ai backend refused to answer")

// Provider is one AI backend family. Implementations are constructed per job
// invocation by the Factory, never held as ambient globals.
type Provider interface {
	Name() string
	// NativeAudio reports whether audio evidence is folded directly into the
	// extraction content instead of a dedicated speech-to-text round trip.
	NativeAudio() bool
	// FieldBudget is the max leaf fields per extraction call for this backend.
	FieldBudget() int
	Transcribe(ctx context.Context, audio FilePayload, audioModel string) (string, error)
	Extract(ctx context.Context, in ExtractInput) (*ExtractResult, error)
}
