package domain

import (
	"testing"
	"time"
)

func testContent(text string) RawContent {
	return RawContent{
		ID:        "content-1",
		AccountID: "account-1",
		UserID:    "user-1",
		Platform:  "twitter",
		Text:      text,
		PostedAt:  time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestMatchContentPlatformRuleBeatsEverything(t *testing.T) {
	t.Parallel()

	project := CreatorProject{
		ID:             "proj-1",
		AllContentRule: true,
		Cashtags:       []string{"$alpha"},
	}
	attr, ok := MatchContent(project, testContent("nothing relevant here"))
	if !ok {
		t.Fatalf("all-content projects must attribute every post")
	}
	if attr.Reason != ContentReasonPlatformRule || attr.Confidence != 1.00 {
		t.Fatalf("expected platform-rule at 1.00, got %s at %v", attr.Reason, attr.Confidence)
	}
}

func TestMatchContentBroadcastAll(t *testing.T) {
	t.Parallel()

	project := CreatorProject{ID: "proj-1", BroadcastMode: BroadcastModeAll}
	attr, ok := MatchContent(project, testContent("anything at all"))
	if !ok || attr.Reason != ContentReasonBroadcast || attr.Confidence != 1.00 {
		t.Fatalf("broadcast all should match at 1.00, got ok=%v reason=%s conf=%v", ok, attr.Reason, attr.Confidence)
	}
}

func TestMatchContentBroadcastKeywordSubmatch(t *testing.T) {
	t.Parallel()

	project := CreatorProject{
		ID:                "proj-1",
		BroadcastMode:     BroadcastModeKeyword,
		BroadcastKeywords: []string{"launch"},
	}
	attr, ok := MatchContent(project, testContent("big LAUNCH day"))
	if !ok || attr.Reason != ContentReasonBroadcastSub {
		t.Fatalf("expected broadcast-submatch, got ok=%v reason=%s", ok, attr.Reason)
	}
	if attr.Confidence != 0.75 {
		t.Fatalf("keyword submatch should score 0.75, got %v", attr.Confidence)
	}
	if len(attr.MatchedKeywords) != 1 || attr.MatchedKeywords[0] != "launch" {
		t.Fatalf("unexpected matched keywords %v", attr.MatchedKeywords)
	}
}

func TestMatchContentPrecedenceCashtagOverHashtag(t *testing.T) {
	t.Parallel()

	project := CreatorProject{
		ID:          "proj-1",
		Cashtags:    []string{"alpha"},
		Hashtags:    []string{"alphaarmy"},
		NameAliases: []string{"alpha protocol"},
	}
	attr, ok := MatchContent(project, testContent("buying $ALPHA today #alphaarmy, alpha protocol forever"))
	if !ok {
		t.Fatalf("expected a match")
	}
	if attr.Reason != ContentReasonCashtag || attr.Confidence != 1.00 {
		t.Fatalf("cashtag must win, got %s at %v", attr.Reason, attr.Confidence)
	}
}

func TestMatchContentHashtagAndNameTiers(t *testing.T) {
	t.Parallel()

	project := CreatorProject{
		ID:          "proj-1",
		Cashtags:    []string{"alpha"},
		Hashtags:    []string{"alphaarmy"},
		NameAliases: []string{"alpha protocol"},
	}

	attr, ok := MatchContent(project, testContent("join the movement #alphaarmy"))
	if !ok || attr.Reason != ContentReasonHashtag || attr.Confidence != 0.90 {
		t.Fatalf("expected hashtag at 0.90, got ok=%v reason=%s conf=%v", ok, attr.Reason, attr.Confidence)
	}

	attr, ok = MatchContent(project, testContent("I love Alpha Protocol so much"))
	if !ok || attr.Reason != ContentReasonNameMention || attr.Confidence != 0.50 {
		t.Fatalf("expected name-mention at 0.50, got ok=%v reason=%s conf=%v", ok, attr.Reason, attr.Confidence)
	}
}

func TestMatchContentNoMatchDiscards(t *testing.T) {
	t.Parallel()

	project := CreatorProject{ID: "proj-1", Cashtags: []string{"alpha"}}
	if _, ok := MatchContent(project, testContent("unrelated post about lunch")); ok {
		t.Fatalf("unmatched content must be discarded, not attributed at zero")
	}
}

func TestMatchContentTokenBoundaries(t *testing.T) {
	t.Parallel()

	project := CreatorProject{ID: "proj-1", Cashtags: []string{"abc"}}

	if _, ok := MatchContent(project, testContent("watch $abcd moon")); ok {
		t.Fatalf("$abc must not match inside $abcd")
	}
	if _, ok := MatchContent(project, testContent("watch $abc moon")); !ok {
		t.Fatalf("$abc as a whole token must match")
	}
	if _, ok := MatchContent(project, testContent("($abc)")); !ok {
		t.Fatalf("punctuation counts as a token boundary")
	}
}

func TestMatchContentProjectsAreIndependent(t *testing.T) {
	t.Parallel()

	content := testContent("$alpha and #betafam in one post")
	first := CreatorProject{ID: "proj-a", Cashtags: []string{"alpha"}}
	second := CreatorProject{ID: "proj-b", Hashtags: []string{"betafam"}}

	attrA, okA := MatchContent(first, content)
	attrB, okB := MatchContent(second, content)
	if !okA || !okB {
		t.Fatalf("one post should attribute to both projects, got %v/%v", okA, okB)
	}
	if attrA.Reason != ContentReasonCashtag || attrB.Reason != ContentReasonHashtag {
		t.Fatalf("per-project reasons diverged: %s / %s", attrA.Reason, attrB.Reason)
	}
	if attrA.ProjectID == attrB.ProjectID {
		t.Fatalf("attributions must carry their own project ids")
	}
}
