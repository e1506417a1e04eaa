package postgres

import (
	"encoding/json"

	"github.com/viralforge/attribution-engine/internal/domain"
)

func toClickModel(click domain.ClickEvent) clickModel {
	return clickModel{
		ClickID:     click.ID,
		LinkID:      click.LinkID,
		UserID:      click.UserID,
		Platform:    click.Platform,
		IPAddress:   click.IPAddress,
		Fingerprint: click.Fingerprint,
		TrackerID:   click.TrackerID,
		Country:     click.Country,
		Region:      click.Region,
		City:        click.City,
		Referrer:    click.Referrer,
		UTMSource:   click.UTMSource,
		UTMMedium:   click.UTMMedium,
		UTMCampaign: click.UTMCampaign,
		ClickedAt:   click.ClickedAt,
		Attributed:  click.Attributed,
		SaleID:      click.SaleID,
		Inferred:    click.Inferred,
		CreatedAt:   click.ClickedAt,
		UpdatedAt:   click.ClickedAt,
	}
}

func toDomainClick(row clickModel) domain.ClickEvent {
	return domain.ClickEvent{
		ID:          row.ClickID,
		LinkID:      row.LinkID,
		UserID:      row.UserID,
		Platform:    row.Platform,
		IPAddress:   row.IPAddress,
		Fingerprint: row.Fingerprint,
		TrackerID:   row.TrackerID,
		Country:     row.Country,
		Region:      row.Region,
		City:        row.City,
		Referrer:    row.Referrer,
		UTMSource:   row.UTMSource,
		UTMMedium:   row.UTMMedium,
		UTMCampaign: row.UTMCampaign,
		ClickedAt:   row.ClickedAt,
		Attributed:  row.Attributed,
		SaleID:      row.SaleID,
		Inferred:    row.Inferred,
	}
}

func toDomainAttribution(row attributionModel) domain.Attribution {
	return domain.Attribution{
		ID:               row.AttributionID,
		UserID:           row.UserID,
		ClickID:          row.ClickID,
		SaleID:           row.SaleID,
		LinkID:           row.LinkID,
		Confidence:       row.Confidence,
		Status:           row.Status,
		MatchType:        row.MatchType,
		Tier:             row.Tier,
		TimeDeltaMinutes: row.TimeDeltaMinutes,
		MatchedSignals:   decodeStrings(row.MatchedSignals),
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}

func toDomainLink(row trackedLinkModel) domain.TrackedLink {
	return domain.TrackedLink{
		ID:        row.LinkID,
		UserID:    row.UserID,
		Slug:      row.Slug,
		TargetURL: row.TargetURL,
		Platform:  row.Platform,
		Synthetic: row.Synthetic,
		CreatedAt: row.CreatedAt,
	}
}

func toDomainContent(row rawContentModel) domain.RawContent {
	return domain.RawContent{
		ID:        row.ContentID,
		AccountID: row.AccountID,
		UserID:    row.UserID,
		Platform:  row.Platform,
		Type:      row.Type,
		URL:       row.URL,
		Text:      row.Text,
		PostedAt:  row.PostedAt,
		Engagement: domain.EngagementSnapshot{
			Views:    row.Views,
			Likes:    row.Likes,
			Comments: row.Comments,
			Shares:   row.Shares,
		},
	}
}

func toDomainProject(row creatorProjectModel) domain.CreatorProject {
	return domain.CreatorProject{
		ID:                row.ProjectID,
		UserID:            row.UserID,
		Name:              row.Name,
		AllContentRule:    row.AllContentRule,
		BroadcastMode:     row.BroadcastMode,
		BroadcastKeywords: decodeStrings(row.BroadcastKeywords),
		Cashtags:          decodeStrings(row.Cashtags),
		Hashtags:          decodeStrings(row.Hashtags),
		NameAliases:       decodeStrings(row.NameAliases),
	}
}

func toDomainContentAttribution(row contentAttributionModel) domain.ContentAttribution {
	return domain.ContentAttribution{
		ID:              row.ID,
		ProjectID:       row.ProjectID,
		AccountID:       row.AccountID,
		ContentID:       row.ContentID,
		ContentType:     row.ContentType,
		ContentURL:      row.ContentURL,
		ContentText:     row.ContentText,
		PostedAt:        row.PostedAt,
		Reason:          row.Reason,
		MatchedKeywords: decodeStrings(row.MatchedKeywords),
		Confidence:      row.Confidence,
		Engagement: domain.EngagementSnapshot{
			Views:    row.Views,
			Likes:    row.Likes,
			Comments: row.Comments,
			Shares:   row.Shares,
		},
		ManualOverride: row.ManualOverride,
		OverrideAuthor: row.OverrideAuthor,
		OverrideNote:   row.OverrideNote,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

// encodeStrings serializes slices into text columns as JSON arrays. Empty
// slices become "[]" rather than NULL to keep decoding unconditional.
func encodeStrings(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func decodeStrings(raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	return values
}

func encodeJSONMap(values map[string]any) string {
	if len(values) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func decodeJSONMap(raw string) map[string]any {
	if raw == "" || raw == "{}" {
		return nil
	}
	var values map[string]any
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	return values
}
