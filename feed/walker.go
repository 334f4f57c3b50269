package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/skillsenselab/drivescribe/logger"
	"github.com/skillsenselab/drivescribe/subscription"
)

// ErrCursorInvalid is returned by a Source when the remote service reports
// that the supplied cursor is expired or otherwise unusable. Any other error
// from a Source is treated as transient.
var ErrCursorInvalid = errors.New("feed: cursor invalid or expired")

// Page is one fetch's worth of the change feed. Exactly one of NextToken and
// DeltaToken is set in a well-formed response.
type Page struct {
	Items []CandidateItem
	// NextToken continues the walk on the following page.
	NextToken string
	// DeltaToken marks the end of the feed and is the cursor for the next pass.
	DeltaToken string
}

// Source fetches change feed pages from the remote service.
type Source interface {
	// FetchPage retrieves the page addressed by token.
	FetchPage(ctx context.Context, token string) (Page, error)
	// LatestToken synthesizes a "start from latest" token for a resource.
	LatestToken(resourceID string) string
}

// TerminalState names how a walk ended.
type TerminalState int

const (
	// EndOfFeed means the feed was drained and a delta token was returned.
	EndOfFeed TerminalState = iota
	// CeilingReached means the page ceiling was hit before the feed ended;
	// the cursor was reset to latest and unreachable backlog was dropped.
	CeilingReached
	// CursorInvalid means the remote service rejected the cursor; same
	// reset behavior as CeilingReached.
	CursorInvalid
)

func (s TerminalState) String() string {
	switch s {
	case EndOfFeed:
		return "end_of_feed"
	case CeilingReached:
		return "ceiling_reached"
	case CursorInvalid:
		return "cursor_invalid"
	default:
		return fmt.Sprintf("terminal(%d)", int(s))
	}
}

// Result is the product of one completed pass over the feed.
type Result struct {
	// Matches are the filter-passing items in page order.
	Matches []CandidateItem
	// Cursor is the token to persist for the next pass.
	Cursor string
	// Terminal records which exit condition ended the walk.
	Terminal TerminalState
	// Pages is the number of pages fetched.
	Pages int
}

// Config holds walker tuning.
type Config struct {
	// PageCeiling bounds how many pages one pass may fetch.
	PageCeiling int `yaml:"page_ceiling" mapstructure:"page_ceiling"`
	// AudioExtension overrides the accepted audio filename suffix.
	AudioExtension string `yaml:"audio_extension" mapstructure:"audio_extension"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.PageCeiling == 0 {
		c.PageCeiling = 50
	}
	if c.AudioExtension == "" {
		c.AudioExtension = DefaultAudioExtension
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.PageCeiling < 1 {
		return fmt.Errorf("walker.page_ceiling must be positive (got: %d)", c.PageCeiling)
	}
	return nil
}

// Walker drains a change feed from a subscription's stored cursor.
type Walker struct {
	source Source
	filter Filter
	cfg    Config
	log    *logger.Logger
}

// NewWalker creates a Walker over the given source.
func NewWalker(source Source, cfg Config, log *logger.Logger) *Walker {
	cfg.ApplyDefaults()
	return &Walker{
		source: source,
		filter: Filter{AudioExtension: cfg.AudioExtension},
		cfg:    cfg,
		log:    log.WithComponent("walker"),
	}
}

// Walk fetches pages from the record's cursor (or the latest marker when the
// cursor is empty) until a terminal state is reached. On a transient fetch
// error it returns a nil result and the error; the caller must not persist
// any cursor in that case, so the next delivery re-walks from the previous
// position. The three terminal states are the only ways a walk completes:
//
//	EndOfFeed      — delta token found; Cursor advances permanently.
//	CeilingReached — page ceiling hit; Cursor resets to the latest marker.
//	CursorInvalid  — remote rejected the cursor; same reset as the ceiling.
func (w *Walker) Walk(ctx context.Context, rec *subscription.Record) (*Result, error) {
	token := rec.Cursor
	if token == "" {
		token = w.source.LatestToken(rec.ResourceID)
	}

	result := &Result{}
	for result.Pages < w.cfg.PageCeiling {
		page, err := w.source.FetchPage(ctx, token)
		if err != nil {
			if errors.Is(err, ErrCursorInvalid) {
				w.log.Warn("Cursor rejected by remote, resetting to latest", map[string]interface{}{
					logger.FieldSubscriptionID: rec.SubscriptionID,
					"pages_walked":             result.Pages,
				})
				result.Cursor = w.source.LatestToken(rec.ResourceID)
				result.Terminal = CursorInvalid
				return result, nil
			}
			return nil, fmt.Errorf("feed: fetch page %d: %w", result.Pages+1, err)
		}
		result.Pages++

		for _, item := range page.Items {
			if w.filter.Matches(item) {
				result.Matches = append(result.Matches, item)
			}
		}

		if page.DeltaToken != "" {
			result.Cursor = page.DeltaToken
			result.Terminal = EndOfFeed
			return result, nil
		}
		if page.NextToken == "" {
			// Malformed page: neither continuation nor delta token.
			return nil, fmt.Errorf("feed: page %d carries no continuation or delta token", result.Pages)
		}
		token = page.NextToken
	}

	w.log.Warn("Page ceiling reached, resetting cursor to latest", map[string]interface{}{
		logger.FieldSubscriptionID: rec.SubscriptionID,
		"page_ceiling":             w.cfg.PageCeiling,
		"matches_so_far":           len(result.Matches),
	})
	result.Cursor = w.source.LatestToken(rec.ResourceID)
	result.Terminal = CeilingReached
	return result, nil
}
