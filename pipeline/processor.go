package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/skillsenselab/drivescribe/feed"
	"github.com/skillsenselab/drivescribe/logger"
	"github.com/skillsenselab/drivescribe/transcription"
)

// ItemClient is the slice of the drive API the pipeline needs.
type ItemClient interface {
	// ItemFields reads an item's custom metadata fields.
	ItemFields(ctx context.Context, containerID, itemID string) (map[string]string, error)
	// DownloadContent fetches the item's full byte content.
	DownloadContent(ctx context.Context, containerID, itemID string, maxBytes int64) ([]byte, error)
	// PatchItemFields writes custom metadata fields in one update call.
	PatchItemFields(ctx context.Context, containerID, itemID string, fields map[string]string) error
}

// Config holds pipeline policy.
type Config struct {
	// MaxContentBytes is the content size ceiling. Defaults to 4 MiB.
	MaxContentBytes int64 `yaml:"max_content_bytes" mapstructure:"max_content_bytes"`
	// LanguageField is the metadata column holding the resolved language
	// display name; a non-empty value marks the item as already processed.
	LanguageField string `yaml:"language_field" mapstructure:"language_field"`
	// TranscriptField is the metadata column receiving the transcript.
	TranscriptField string `yaml:"transcript_field" mapstructure:"transcript_field"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.MaxContentBytes == 0 {
		c.MaxContentBytes = 4 << 20
	}
	if c.LanguageField == "" {
		c.LanguageField = "TranscriptionLanguage"
	}
	if c.TranscriptField == "" {
		c.TranscriptField = "Transcription"
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.MaxContentBytes < 1 {
		return fmt.Errorf("pipeline.max_content_bytes must be positive (got: %d)", c.MaxContentBytes)
	}
	return nil
}

// Processor runs one candidate item through the processing steps.
type Processor struct {
	items  ItemClient
	speech transcription.Provider
	cfg    Config
	log    *logger.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(items ItemClient, speech transcription.Provider, cfg Config, log *logger.Logger) *Processor {
	cfg.ApplyDefaults()
	return &Processor{
		items:  items,
		speech: speech,
		cfg:    cfg,
		log:    log.WithComponent("pipeline"),
	}
}

// Process decides eligibility, transcribes, and patches metadata for one
// item. Every failure is contained in the returned Outcome; Process never
// lets one item's error reach its caller.
func (p *Processor) Process(ctx context.Context, item feed.CandidateItem) Outcome {
	outcome := p.process(ctx, item)

	fields := map[string]interface{}{
		logger.FieldItemID:  item.ItemID,
		"name":              item.Name,
		logger.FieldOutcome: outcome.Kind.String(),
	}
	switch outcome.Kind {
	case OutcomeSkipped:
		fields["reason"] = string(outcome.Reason)
		p.log.Info("Item skipped", fields)
	case OutcomeSucceeded:
		fields["language"] = outcome.LanguageCode
		p.log.Info("Item transcribed", fields)
	case OutcomeFailed:
		fields[logger.FieldError] = outcome.Err.Error()
		p.log.Error("Item processing failed", fields)
	}
	return outcome
}

func (p *Processor) process(ctx context.Context, item feed.CandidateItem) Outcome {
	// 1. Naming validation: baseName.languageCode.extension.
	langCode, ok := languageSegment(item.Name)
	if !ok {
		return Skipped(SkipBadFormat)
	}

	// 2. Idempotency check: a fresh metadata read every time, since another
	// instance may have processed the item between feed walks.
	existing, err := p.items.ItemFields(ctx, item.ParentID, item.ItemID)
	if err != nil {
		return Failed(fmt.Errorf("read item fields: %w", err))
	}
	if existing[p.cfg.LanguageField] != "" {
		return Skipped(SkipAlreadyProcessed)
	}

	// 3. Size guard.
	if item.Size > p.cfg.MaxContentBytes {
		return Skipped(SkipTooLarge)
	}

	// 4. Language resolution.
	lang, ok := ResolveLanguage(langCode)
	if !ok {
		return Skipped(SkipUnknownLanguage)
	}

	// 5. Content fetch.
	audio, err := p.items.DownloadContent(ctx, item.ParentID, item.ItemID, p.cfg.MaxContentBytes)
	if err != nil {
		return Failed(fmt.Errorf("fetch content: %w", err))
	}

	// 6. Transcription.
	result, err := p.speech.Transcribe(ctx, transcription.Request{
		Audio:    audio,
		Language: lang.Code,
	})
	if err != nil {
		return Failed(fmt.Errorf("transcribe: %w", err))
	}

	// 7. Metadata patch-back. A failure here loses the transcript for this
	// pass; the item fails the idempotency check next time and is retried.
	patch := map[string]string{
		p.cfg.LanguageField:   lang.DisplayName,
		p.cfg.TranscriptField: result.Text,
	}
	if err := p.items.PatchItemFields(ctx, item.ParentID, item.ItemID, patch); err != nil {
		return Failed(fmt.Errorf("patch metadata: %w", err))
	}

	return Succeeded(lang.Code, result.Text)
}

// languageSegment extracts the middle segment of a three-part filename.
func languageSegment(name string) (string, bool) {
	parts := strings.Split(name, ".")
	if len(parts) != 3 {
		return "", false
	}
	for _, part := range parts {
		if part == "" {
			return "", false
		}
	}
	return parts[1], true
}
