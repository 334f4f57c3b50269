// Package pipeline processes one candidate audio file end to end:
// eligibility checks, transcription, and metadata patch-back.
package pipeline

// OutcomeKind discriminates the Outcome variants.
type OutcomeKind int

const (
	// OutcomeSkipped means a policy check deliberately declined the item.
	OutcomeSkipped OutcomeKind = iota
	// OutcomeSucceeded means the transcript was produced and patched back.
	OutcomeSucceeded
	// OutcomeFailed means a step failed; the failure is isolated to this item.
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SkipReason names why an item was deliberately not processed.
type SkipReason string

const (
	// SkipBadFormat: filename is not baseName.languageCode.extension.
	SkipBadFormat SkipReason = "bad-format"
	// SkipAlreadyProcessed: the item already carries transcription metadata.
	SkipAlreadyProcessed SkipReason = "already-processed"
	// SkipTooLarge: the item exceeds the content byte ceiling.
	SkipTooLarge SkipReason = "too-large"
	// SkipUnknownLanguage: the language segment is not in the table.
	SkipUnknownLanguage SkipReason = "unknown-language"
)

// Outcome is the tagged result of attempting one candidate item.
type Outcome struct {
	Kind         OutcomeKind
	Reason       SkipReason // set when Kind == OutcomeSkipped
	LanguageCode string     // set when Kind == OutcomeSucceeded
	Transcript   string     // set when Kind == OutcomeSucceeded
	Err          error      // set when Kind == OutcomeFailed
}

// Skipped builds a policy-skip outcome.
func Skipped(reason SkipReason) Outcome {
	return Outcome{Kind: OutcomeSkipped, Reason: reason}
}

// Succeeded builds a success outcome.
func Succeeded(languageCode, transcript string) Outcome {
	return Outcome{Kind: OutcomeSucceeded, LanguageCode: languageCode, Transcript: transcript}
}

// Failed builds an isolated failure outcome.
func Failed(err error) Outcome {
	return Outcome{Kind: OutcomeFailed, Err: err}
}
