// Package feed walks a remote change feed from a stored cursor to a
// terminal state, collecting audio file candidates along the way.
package feed

import "strings"

// DefaultAudioExtension is the filename suffix accepted by the filter.
const DefaultAudioExtension = ".wav"

// CandidateItem is a file-like entry from the change feed, pre-filter.
type CandidateItem struct {
	ItemID    string
	Name      string
	Size      int64
	ParentID  string
	IsFile    bool
	IsDeleted bool
	// HasAudio is the service-reported audio facet hint.
	HasAudio bool
}

// Filter decides whether a candidate item qualifies for processing.
type Filter struct {
	// AudioExtension is the accepted filename suffix, compared
	// case-insensitively. Defaults to DefaultAudioExtension when empty.
	AudioExtension string
}

// Matches reports whether the item is a live audio file.
func (f Filter) Matches(item CandidateItem) bool {
	if !item.IsFile || item.IsDeleted {
		return false
	}
	if item.Name == "" {
		return false
	}
	ext := f.AudioExtension
	if ext == "" {
		ext = DefaultAudioExtension
	}
	if strings.HasSuffix(strings.ToLower(item.Name), strings.ToLower(ext)) {
		return true
	}
	return item.HasAudio
}
