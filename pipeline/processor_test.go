package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/skillsenselab/drivescribe/feed"
	"github.com/skillsenselab/drivescribe/logger"
	"github.com/skillsenselab/drivescribe/transcription"
)

// fakeItems is an in-memory ItemClient recording calls.
type fakeItems struct {
	fields    map[string]string
	fieldsErr error

	content     []byte
	downloadErr error
	downloads   int

	patched  map[string]string
	patchErr error
	patches  int
}

func (f *fakeItems) ItemFields(_ context.Context, _, _ string) (map[string]string, error) {
	if f.fieldsErr != nil {
		return nil, f.fieldsErr
	}
	return f.fields, nil
}

func (f *fakeItems) DownloadContent(_ context.Context, _, _ string, _ int64) ([]byte, error) {
	f.downloads++
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	return f.content, nil
}

func (f *fakeItems) PatchItemFields(_ context.Context, _, _ string, fields map[string]string) error {
	f.patches++
	if f.patchErr != nil {
		return f.patchErr
	}
	f.patched = fields
	return nil
}

// fakeSpeech returns a canned transcript.
type fakeSpeech struct {
	text     string
	language string
	err      error
}

func (f *fakeSpeech) Name() string { return "fake" }
func (f *fakeSpeech) IsAvailable(_ context.Context) bool { return true }
func (f *fakeSpeech) Transcribe(_ context.Context, req transcription.Request) (*transcription.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.language = req.Language
	return &transcription.Response{Text: f.text, Language: req.Language}, nil
}

func newTestProcessor(t *testing.T, items *fakeItems, speech *fakeSpeech) *Processor {
	t.Helper()
	return NewProcessor(items, speech, Config{}, logger.NewDefault("pipeline-test"))
}

func wavItem(name string, size int64) feed.CandidateItem {
	return feed.CandidateItem{ItemID: "item1", Name: name, Size: size, ParentID: "drv", IsFile: true}
}

func TestProcess_Success(t *testing.T) {
	items := &fakeItems{fields: map[string]string{}, content: []byte("RIFFdata")}
	speech := &fakeSpeech{text: "hello world"}
	p := newTestProcessor(t, items, speech)

	outcome := p.Process(context.Background(), wavItem("Audio.en-US.wav", 1024))
	if outcome.Kind != OutcomeSucceeded {
		t.Fatalf("expected success, got %v (%v)", outcome.Kind, outcome.Err)
	}
	if outcome.Transcript != "hello world" {
		t.Fatalf("unexpected transcript %q", outcome.Transcript)
	}
	if speech.language != "en-US" {
		t.Fatalf("expected canonical code en-US, got %q", speech.language)
	}
	if items.patches != 1 {
		t.Fatalf("expected one patch call, got %d", items.patches)
	}
	if items.patched["TranscriptionLanguage"] != "English" {
		t.Fatalf("expected language display name patch, got %v", items.patched)
	}
	if items.patched["Transcription"] != "hello world" {
		t.Fatalf("expected transcript patch, got %v", items.patched)
	}
}

func TestProcess_BadFormatSkips(t *testing.T) {
	items := &fakeItems{fields: map[string]string{}}
	p := newTestProcessor(t, items, &fakeSpeech{})

	for _, name := range []string{"audio.wav", "a.b.c.wav", ".en-us.wav", "audio..wav"} {
		outcome := p.Process(context.Background(), wavItem(name, 10))
		if outcome.Kind != OutcomeSkipped || outcome.Reason != SkipBadFormat {
			t.Fatalf("%q: expected bad-format skip, got %+v", name, outcome)
		}
	}
	if items.downloads != 0 {
		t.Fatal("bad-format items must not be downloaded")
	}
}

func TestProcess_AlreadyProcessedSkips(t *testing.T) {
	items := &fakeItems{fields: map[string]string{"TranscriptionLanguage": "English"}}
	p := newTestProcessor(t, items, &fakeSpeech{})

	outcome := p.Process(context.Background(), wavItem("Audio.en-US.wav", 10))
	if outcome.Kind != OutcomeSkipped || outcome.Reason != SkipAlreadyProcessed {
		t.Fatalf("expected already-processed skip, got %+v", outcome)
	}
	if items.downloads != 0 || items.patches != 0 {
		t.Fatal("already-processed items must not be touched again")
	}
}

func TestProcess_TooLargeSkips(t *testing.T) {
	items := &fakeItems{fields: map[string]string{}}
	p := newTestProcessor(t, items, &fakeSpeech{})

	outcome := p.Process(context.Background(), wavItem("Audio.en-US.wav", 5<<20))
	if outcome.Kind != OutcomeSkipped || outcome.Reason != SkipTooLarge {
		t.Fatalf("expected too-large skip, got %+v", outcome)
	}
}

func TestProcess_ExactLimitAccepted(t *testing.T) {
	items := &fakeItems{fields: map[string]string{}, content: []byte("x")}
	p := newTestProcessor(t, items, &fakeSpeech{text: "ok"})

	outcome := p.Process(context.Background(), wavItem("Audio.en-US.wav", 4<<20))
	if outcome.Kind != OutcomeSucceeded {
		t.Fatalf("items at exactly the limit must be processed, got %+v", outcome)
	}
}

func TestProcess_UnknownLanguageSkips(t *testing.T) {
	items := &fakeItems{fields: map[string]string{}}
	p := newTestProcessor(t, items, &fakeSpeech{})

	outcome := p.Process(context.Background(), wavItem("Audio.xx-YY.wav", 10))
	if outcome.Kind != OutcomeSkipped || outcome.Reason != SkipUnknownLanguage {
		t.Fatalf("expected unknown-language skip, got %+v", outcome)
	}
}

func TestProcess_MetadataReadFailure(t *testing.T) {
	items := &fakeItems{fieldsErr: errors.New("boom")}
	p := newTestProcessor(t, items, &fakeSpeech{})

	outcome := p.Process(context.Background(), wavItem("Audio.en-US.wav", 10))
	if outcome.Kind != OutcomeFailed {
		t.Fatalf("expected failure, got %+v", outcome)
	}
}

func TestProcess_TranscribeFailure(t *testing.T) {
	items := &fakeItems{fields: map[string]string{}, content: []byte("x")}
	p := newTestProcessor(t, items, &fakeSpeech{err: errors.New("service down")})

	outcome := p.Process(context.Background(), wavItem("Audio.en-US.wav", 10))
	if outcome.Kind != OutcomeFailed {
		t.Fatalf("expected failure, got %+v", outcome)
	}
	if items.patches != 0 {
		t.Fatal("failed transcription must not patch metadata")
	}
}

func TestProcess_PatchFailure(t *testing.T) {
	items := &fakeItems{fields: map[string]string{}, content: []byte("x"), patchErr: errors.New("conflict")}
	p := newTestProcessor(t, items, &fakeSpeech{text: "lost"})

	outcome := p.Process(context.Background(), wavItem("Audio.en-US.wav", 10))
	if outcome.Kind != OutcomeFailed {
		t.Fatalf("expected failure, got %+v", outcome)
	}
}

func TestResolveLanguage(t *testing.T) {
	lang, ok := ResolveLanguage("EN-US")
	if !ok || lang.Code != "en-US" || lang.DisplayName != "English" {
		t.Fatalf("expected case-insensitive lookup, got %+v ok=%v", lang, ok)
	}
	if _, ok := ResolveLanguage("sv-SE"); ok {
		t.Fatal("expected unsupported code to miss")
	}
	if len(SupportedLanguages()) != 10 {
		t.Fatalf("expected 10 supported languages, got %d", len(SupportedLanguages()))
	}
}
