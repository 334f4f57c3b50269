package transcription

// Request holds parameters for a transcription call.
type Request struct {
	// Audio is the raw audio content to transcribe.
	Audio []byte `json:"-"`
	// Language is the expected language of the audio (e.g. "en-US").
	Language string `json:"language"`
	// ContentType describes the audio encoding. Defaults to WAV.
	ContentType string `json:"content_type,omitempty"`
}

// Response holds the result of a transcription call.
type Response struct {
	// Text is the full transcription text.
	Text string `json:"text"`
	// Language is the language the transcription was produced for.
	Language string `json:"language,omitempty"`
	// Duration is the audio duration in seconds, when reported.
	Duration float64 `json:"duration,omitempty"`
}
