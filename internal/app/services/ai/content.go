package ai

// ContentInput is everything the assembler needs to lay out one extraction
// conversation. Audio payloads are only passed for backends with native audio
// understanding; speech-endpoint backends transcribe out-of-band and their
// text arrives through Transcript instead.
type ContentInput struct {
	Prompt        string
	Text          string
	Transcript    string
	AudioFiles    []FilePayload
	DocumentFiles []FilePayload
}

// AssembleMessages is pure construction: system prompt, optional free text,
// inline audio, inline document images, trailing transcript.
func AssembleMessages(in ContentInput) []Message {
	messages := []Message{{Role: RoleSystem, Text: in.Prompt}}

	if in.Text != "" {
		messages = append(messages, Message{Role: RoleUser, Text: in.Text})
	}

	for i := range in.AudioFiles {
		messages = append(messages, Message{Role: RoleUser, File: &in.AudioFiles[i]})
	}

	for i := range in.DocumentFiles {
		messages = append(messages, Message{Role: RoleUser, File: &in.DocumentFiles[i]})
	}

	if in.Transcript != "" {
		messages = append(messages, Message{Role: RoleUser, Text: in.Transcript})
	}

	return messages
}
