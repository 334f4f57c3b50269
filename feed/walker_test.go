package feed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/skillsenselab/drivescribe/logger"
	"github.com/skillsenselab/drivescribe/subscription"
)

// fakeSource serves a scripted sequence of pages keyed by token.
type fakeSource struct {
	pages   map[string]Page
	errs    map[string]error
	fetched []string
}

func (f *fakeSource) FetchPage(_ context.Context, token string) (Page, error) {
	f.fetched = append(f.fetched, token)
	if err, ok := f.errs[token]; ok {
		return Page{}, err
	}
	page, ok := f.pages[token]
	if !ok {
		return Page{}, fmt.Errorf("unexpected token %q", token)
	}
	return page, nil
}

func (f *fakeSource) LatestToken(resourceID string) string {
	return "latest:" + resourceID
}

func audioItem(id string) CandidateItem {
	return CandidateItem{ItemID: id, Name: id + ".en-US.wav", IsFile: true}
}

func newTestWalker(t *testing.T, source Source) *Walker {
	t.Helper()
	return NewWalker(source, Config{}, logger.NewDefault("walker-test"))
}

func TestWalk_MultiPageToDelta(t *testing.T) {
	source := &fakeSource{pages: map[string]Page{
		"t1": {Items: []CandidateItem{audioItem("a"), audioItem("b")}, NextToken: "t2"},
		"t2": {Items: []CandidateItem{audioItem("c"), {ItemID: "d", Name: "notes.txt", IsFile: true}, audioItem("e")}, NextToken: "t3"},
		"t3": {Items: []CandidateItem{audioItem("f")}, DeltaToken: "delta-1"},
	}}
	walker := newTestWalker(t, source)

	result, err := walker.Walk(context.Background(), &subscription.Record{
		SubscriptionID: "s1", ResourceID: "drv", Cursor: "t1",
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if result.Terminal != EndOfFeed {
		t.Fatalf("expected EndOfFeed, got %v", result.Terminal)
	}
	if result.Cursor != "delta-1" {
		t.Fatalf("expected cursor delta-1, got %q", result.Cursor)
	}
	if result.Pages != 3 {
		t.Fatalf("expected 3 pages, got %d", result.Pages)
	}
	if len(result.Matches) != 4 {
		t.Fatalf("expected 4 matches, got %d", len(result.Matches))
	}
	// Matches arrive in page order.
	want := []string{"a", "b", "c", "e"}
	for i, id := range want {
		if result.Matches[i].ItemID != id {
			t.Fatalf("match %d: expected %s, got %s", i, id, result.Matches[i].ItemID)
		}
	}
}

func TestWalk_EmptyCursorStartsFromLatest(t *testing.T) {
	source := &fakeSource{pages: map[string]Page{
		"latest:drv": {Items: []CandidateItem{audioItem("a")}, DeltaToken: "delta-1"},
	}}
	walker := newTestWalker(t, source)

	result, err := walker.Walk(context.Background(), &subscription.Record{
		SubscriptionID: "s1", ResourceID: "drv",
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if len(source.fetched) != 1 || source.fetched[0] != "latest:drv" {
		t.Fatalf("expected single fetch from latest marker, got %v", source.fetched)
	}
	if result.Cursor != "delta-1" {
		t.Fatalf("expected cursor delta-1, got %q", result.Cursor)
	}
}

func TestWalk_CeilingResetsToLatest(t *testing.T) {
	// Every page points to the next one; the feed never ends.
	pages := make(map[string]Page)
	for i := 0; i < 100; i++ {
		pages[fmt.Sprintf("t%d", i)] = Page{
			Items:     []CandidateItem{audioItem(fmt.Sprintf("item%d", i))},
			NextToken: fmt.Sprintf("t%d", i+1),
		}
	}
	source := &fakeSource{pages: pages}
	walker := NewWalker(source, Config{PageCeiling: 5}, logger.NewDefault("walker-test"))

	result, err := walker.Walk(context.Background(), &subscription.Record{
		SubscriptionID: "s1", ResourceID: "drv", Cursor: "t0",
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if result.Terminal != CeilingReached {
		t.Fatalf("expected CeilingReached, got %v", result.Terminal)
	}
	if result.Pages != 5 {
		t.Fatalf("expected 5 pages, got %d", result.Pages)
	}
	if result.Cursor != "latest:drv" {
		t.Fatalf("expected reset cursor, got %q", result.Cursor)
	}
	// Items seen before the ceiling are still reported.
	if len(result.Matches) != 5 {
		t.Fatalf("expected 5 matches, got %d", len(result.Matches))
	}
}

func TestWalk_InvalidCursorResetsToLatest(t *testing.T) {
	source := &fakeSource{errs: map[string]error{
		"stale": ErrCursorInvalid,
	}}
	walker := newTestWalker(t, source)

	result, err := walker.Walk(context.Background(), &subscription.Record{
		SubscriptionID: "s1", ResourceID: "drv", Cursor: "stale",
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if result.Terminal != CursorInvalid {
		t.Fatalf("expected CursorInvalid, got %v", result.Terminal)
	}
	if result.Cursor != "latest:drv" {
		t.Fatalf("expected reset cursor, got %q", result.Cursor)
	}
	if len(result.Matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(result.Matches))
	}
}

func TestWalk_TransientErrorAborts(t *testing.T) {
	boom := errors.New("connection refused")
	source := &fakeSource{
		pages: map[string]Page{
			"t1": {Items: []CandidateItem{audioItem("a")}, NextToken: "t2"},
		},
		errs: map[string]error{"t2": boom},
	}
	walker := newTestWalker(t, source)

	result, err := walker.Walk(context.Background(), &subscription.Record{
		SubscriptionID: "s1", ResourceID: "drv", Cursor: "t1",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped transient error, got %v", err)
	}
	if result != nil {
		t.Fatalf("expected nil result on transient error, got %+v", result)
	}
}

func TestWalk_MalformedPage(t *testing.T) {
	source := &fakeSource{pages: map[string]Page{
		"t1": {Items: []CandidateItem{audioItem("a")}},
	}}
	walker := newTestWalker(t, source)

	_, err := walker.Walk(context.Background(), &subscription.Record{
		SubscriptionID: "s1", ResourceID: "drv", Cursor: "t1",
	})
	if err == nil {
		t.Fatal("expected error for page with no continuation or delta token")
	}
}
