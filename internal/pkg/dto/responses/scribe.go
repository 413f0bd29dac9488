package responses

import "time"

type Scribe struct {
	ID               string                 `json:"id"`
	Status           string                 `json:"status"`
	Transcript       string                 `json:"transcript,omitempty"`
	AIResponse       map[string]interface{} `json:"ai_response,omitempty"`
	Error            string                 `json:"error,omitempty"`
	Provider         string                 `json:"provider,omitempty"`
	ChatModel        string                 `json:"chat_model,omitempty"`
	ChatInputTokens  int                    `json:"chat_input_tokens"`
	ChatOutputTokens int                    `json:"chat_output_tokens"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

type ScribeCreated struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type QuotaSnapshot struct {
	UserTokensUsed      int        `json:"user_tokens_used"`
	UserTokensAllowed   int        `json:"user_tokens_allowed"`
	FacilityTokensUsed  int        `json:"facility_tokens_used"`
	FacilityTokens      int        `json:"facility_tokens"`
	AllowOCR            bool       `json:"allow_ocr"`
	TermsAccepted       bool       `json:"terms_accepted"`
	TermsAcceptedAt     *time.Time `json:"terms_accepted_at,omitempty"`
}
