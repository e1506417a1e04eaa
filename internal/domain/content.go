package domain

import (
	"strings"
	"time"
	"unicode"
)

// Attribution reasons for the deterministic content engine. Each reason maps
// to exactly one confidence tier; confidence is discrete by construction.
const (
	ContentReasonPlatformRule = "platform-rule"
	ContentReasonBroadcast    = "broadcast"
	ContentReasonBroadcastSub = "broadcast-submatch"
	ContentReasonCashtag      = "cashtag"
	ContentReasonHashtag      = "hashtag"
	ContentReasonNameMention  = "name-mention"
	ContentReasonManual       = "manual"
)

// Broadcast modes configured on a project<->account link.
const (
	BroadcastModeOff     = ""
	BroadcastModeAll     = "all"
	BroadcastModeKeyword = "keyword"
)

// EngagementSnapshot captures engagement metrics at ingest time.
type EngagementSnapshot struct {
	Views    int `json:"views"`
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
	Shares   int `json:"shares"`
}

// RawContent is a social post delivered by the social-content collaborator.
type RawContent struct {
	ID         string             `json:"id"`
	AccountID  string             `json:"account_id"`
	UserID     string             `json:"user_id"`
	Platform   string             `json:"platform"`
	Type       string             `json:"type,omitempty"`
	URL        string             `json:"url,omitempty"`
	Text       string             `json:"text,omitempty"`
	PostedAt   time.Time          `json:"posted_at"`
	Engagement EngagementSnapshot `json:"engagement"`
}

// CreatorProject holds the matching configuration for one creator project.
// AllContentRule covers pump.fun / creator-coin style platforms where every
// post by the linked account counts for the project.
type CreatorProject struct {
	ID                string   `json:"id"`
	UserID            string   `json:"user_id"`
	Name              string   `json:"name"`
	AllContentRule    bool     `json:"all_content_rule"`
	BroadcastMode     string   `json:"broadcast_mode,omitempty"`
	BroadcastKeywords []string `json:"broadcast_keywords,omitempty"`
	Cashtags          []string `json:"cashtags,omitempty"`
	Hashtags          []string `json:"hashtags,omitempty"`
	NameAliases       []string `json:"name_aliases,omitempty"`
}

// ContentAttribution links a raw social post to a creator project. Upserted
// on (project, content); only engagement and manual-review fields mutate.
type ContentAttribution struct {
	ID              string             `json:"id"`
	ProjectID       string             `json:"project_id"`
	AccountID       string             `json:"account_id"`
	ContentID       string             `json:"content_id"`
	ContentType     string             `json:"content_type,omitempty"`
	ContentURL      string             `json:"content_url,omitempty"`
	ContentText     string             `json:"content_text,omitempty"`
	PostedAt        time.Time          `json:"posted_at"`
	Reason          string             `json:"reason"`
	MatchedKeywords []string           `json:"matched_keywords,omitempty"`
	Confidence      float64            `json:"confidence"`
	Engagement      EngagementSnapshot `json:"engagement"`
	ManualOverride  bool               `json:"manual_override,omitempty"`
	OverrideAuthor  string             `json:"override_author,omitempty"`
	OverrideNote    string             `json:"override_note,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// MatchContent evaluates the fixed rule precedence for one project against
// one content item. Only the first applicable rule fires; ok is false when no
// rule applies so the caller can discard the zero-confidence case. Distinct
// projects are evaluated independently, so one post can attribute to several
// projects at once.
func MatchContent(project CreatorProject, content RawContent) (ContentAttribution, bool) {
	reason, keywords, confidence := "", []string(nil), 0.0

	switch {
	case project.AllContentRule:
		reason, confidence = ContentReasonPlatformRule, 1.00
	case project.BroadcastMode == BroadcastModeAll:
		reason, confidence = ContentReasonBroadcast, 1.00
	case project.BroadcastMode == BroadcastModeKeyword:
		if matched := matchKeywords(content.Text, project.BroadcastKeywords, ""); len(matched) > 0 {
			reason, keywords, confidence = ContentReasonBroadcastSub, matched, 0.75
		}
	}

	if reason == "" {
		if matched := matchKeywords(content.Text, project.Cashtags, "$"); len(matched) > 0 {
			reason, keywords, confidence = ContentReasonCashtag, matched, 1.00
		} else if matched := matchKeywords(content.Text, project.Hashtags, "#"); len(matched) > 0 {
			reason, keywords, confidence = ContentReasonHashtag, matched, 0.90
		} else if matched := matchKeywords(content.Text, project.NameAliases, ""); len(matched) > 0 {
			reason, keywords, confidence = ContentReasonNameMention, matched, 0.50
		}
	}

	if reason == "" {
		return ContentAttribution{}, false
	}
	return ContentAttribution{
		ProjectID:       project.ID,
		AccountID:       content.AccountID,
		ContentID:       content.ID,
		ContentType:     content.Type,
		ContentURL:      content.URL,
		ContentText:     content.Text,
		PostedAt:        content.PostedAt,
		Reason:          reason,
		MatchedKeywords: keywords,
		Confidence:      confidence,
		Engagement:      content.Engagement,
	}, true
}

// matchKeywords finds which configured keywords appear in the text as whole
// tokens, case-insensitively. The sigil ("$" or "#") is prepended when the
// configured keyword does not already carry it.
func matchKeywords(text string, keywords []string, sigil string) []string {
	if text == "" || len(keywords) == 0 {
		return nil
	}
	lowered := strings.ToLower(text)
	var matched []string
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if sigil != "" && !strings.HasPrefix(kw, sigil) {
			kw = sigil + kw
		}
		if containsToken(lowered, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

// containsToken reports whether needle occurs in haystack bounded by
// non-alphanumeric runes, so "$abc" does not match "$abcd".
func containsToken(haystack, needle string) bool {
	for start := 0; ; {
		idx := strings.Index(haystack[start:], needle)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(needle)
		beforeOK := idx == 0 || !isWordRune(rune(haystack[idx-1]))
		afterOK := end == len(haystack) || !isWordRune(rune(haystack[end]))
		if beforeOK && afterOK {
			return true
		}
		start = idx + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
