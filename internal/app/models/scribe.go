package models

import "time"

type ScribeStatus string

const (
	ScribeStatusCreated              ScribeStatus = "CREATED"
	ScribeStatusReady                ScribeStatus = "READY"
	ScribeStatusGeneratingTranscript ScribeStatus = "GENERATING_TRANSCRIPT"
	ScribeStatusGeneratingAIResponse ScribeStatus = "GENERATING_AI_RESPONSE"
	ScribeStatusCompleted            ScribeStatus = "COMPLETED"
	ScribeStatusRefused              ScribeStatus = "REFUSED"
	ScribeStatusFailed               ScribeStatus = "FAILED"
)

// scribeTransitions is the forward-only transition graph. FAILED is reachable
// from every non-terminal state; nothing ever moves back to CREATED.
var scribeTransitions = map[ScribeStatus][]ScribeStatus{
	ScribeStatusCreated:              {ScribeStatusReady, ScribeStatusFailed},
	ScribeStatusReady:                {ScribeStatusGeneratingTranscript, ScribeStatusFailed},
	ScribeStatusGeneratingTranscript: {ScribeStatusGeneratingAIResponse, ScribeStatusFailed},
	ScribeStatusGeneratingAIResponse: {ScribeStatusCompleted, ScribeStatusRefused, ScribeStatusFailed},
}

func (s ScribeStatus) CanTransitionTo(next ScribeStatus) bool {
	for _, allowed := range scribeTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s ScribeStatus) IsTerminal() bool {
	switch s {
	case ScribeStatusCompleted, ScribeStatusRefused, ScribeStatusFailed:
		return true
	}
	return false
}

// ProcessingRecord is an immutable per-attempt entry in the scribe processing
// log. It exists for observability only and is never read back to drive
// control flow.
type ProcessingRecord struct {
	ChunkIndex      int                    `json:"chunkIndex" bson:"chunkIndex"`
	Provider        string                 `json:"provider" bson:"provider"`
	ChatModel       string                 `json:"chatModel" bson:"chatModel"`
	Prompt          string                 `json:"prompt,omitempty" bson:"prompt,omitempty"`
	TargetSchema    map[string]interface{} `json:"targetSchema,omitempty" bson:"targetSchema,omitempty"`
	InputTokens     int                    `json:"inputTokens" bson:"inputTokens"`
	OutputTokens    int                    `json:"outputTokens" bson:"outputTokens"`
	CachedTokens    int                    `json:"cachedTokens" bson:"cachedTokens"`
	CompletionID    string                 `json:"completionId,omitempty" bson:"completionId,omitempty"`
	Retries         int                    `json:"retries" bson:"retries"`
	DurationSeconds float64                `json:"durationSeconds" bson:"durationSeconds"`
	Error           string                 `json:"error,omitempty" bson:"error,omitempty"`
	RecordedAt      time.Time              `json:"recordedAt" bson:"recordedAt"`
}

// ScribeMeta is the append-only processing log on a Scribe.
type ScribeMeta struct {
	Provider             string             `json:"provider,omitempty" bson:"provider,omitempty"`
	ChatModel            string             `json:"chatModel,omitempty" bson:"chatModel,omitempty"`
	AudioModel           string             `json:"audioModel,omitempty" bson:"audioModel,omitempty"`
	Error                string             `json:"error,omitempty" bson:"error,omitempty"`
	Benchmark            bool               `json:"benchmark,omitempty" bson:"benchmark,omitempty"`
	CacheName            string             `json:"cacheName,omitempty" bson:"cacheName,omitempty"`
	Thinking             string             `json:"thinking,omitempty" bson:"thinking,omitempty"`
	Retries              int                `json:"retries,omitempty" bson:"retries,omitempty"`
	TranscriptionSeconds float64            `json:"transcriptionSeconds,omitempty" bson:"transcriptionSeconds,omitempty"`
	CompletionSeconds    float64            `json:"completionSeconds,omitempty" bson:"completionSeconds,omitempty"`
	Records              []ProcessingRecord `json:"records,omitempty" bson:"records,omitempty"`
}

// Scribe is the unit of work: one request to fill one form from the attached
// evidence. It is created in CREATED, becomes processable in READY and is then
// exclusively owned by the processor until a terminal state.
type Scribe struct {
	ID          string `json:"id" bson:"_id"`
	RequestedBy string `json:"requestedBy" bson:"requestedBy"`
	FacilityID  string `json:"facilityId" bson:"facilityId"`
	EncounterID string `json:"encounterId,omitempty" bson:"encounterId,omitempty"`

	FormData   FormSchema             `json:"formData" bson:"formData"`
	Text       string                 `json:"text,omitempty" bson:"text,omitempty"`
	Transcript string                 `json:"transcript,omitempty" bson:"transcript,omitempty"`
	Prompt     string                 `json:"prompt,omitempty" bson:"prompt,omitempty"`
	AIResponse map[string]interface{} `json:"aiResponse,omitempty" bson:"aiResponse,omitempty"`

	Status ScribeStatus `json:"status" bson:"status"`
	Meta   ScribeMeta   `json:"meta" bson:"meta"`

	// Privileged overrides; empty means the configured defaults apply.
	ChatModel   string   `json:"chatModel,omitempty" bson:"chatModel,omitempty"`
	AudioModel  string   `json:"audioModel,omitempty" bson:"audioModel,omitempty"`
	Temperature *float32 `json:"temperature,omitempty" bson:"temperature,omitempty"`

	FeedbackPositive *bool  `json:"feedbackPositive,omitempty" bson:"feedbackPositive,omitempty"`
	FeedbackComments string `json:"feedbackComments,omitempty" bson:"feedbackComments,omitempty"`

	ChatInputTokens  int `json:"chatInputTokens" bson:"chatInputTokens"`
	ChatOutputTokens int `json:"chatOutputTokens" bson:"chatOutputTokens"`

	TimeModel `bson:",inline"`
}

func (s *Scribe) IsBenchmark() bool {
	return s.Meta.Benchmark
}

func (s *Scribe) AppendRecord(record ProcessingRecord) {
	record.RecordedAt = time.Now()
	s.Meta.Records = append(s.Meta.Records, record)
}
