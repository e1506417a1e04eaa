package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/viralforge/attribution-engine/internal/application"
	"github.com/viralforge/attribution-engine/internal/domain"
	"github.com/viralforge/attribution-engine/internal/engine"
	"github.com/viralforge/attribution-engine/internal/ports"
)

var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeClickRepo struct {
	clicks map[string]domain.ClickEvent
}

func newFakeClickRepo() *fakeClickRepo {
	return &fakeClickRepo{clicks: map[string]domain.ClickEvent{}}
}

func (f *fakeClickRepo) Create(_ context.Context, click domain.ClickEvent) error {
	if _, ok := f.clicks[click.ID]; ok {
		return domain.ErrConflict
	}
	f.clicks[click.ID] = click
	return nil
}

func (f *fakeClickRepo) GetByID(_ context.Context, id string) (domain.ClickEvent, error) {
	click, ok := f.clicks[id]
	if !ok {
		return domain.ClickEvent{}, domain.ErrNotFound
	}
	return click, nil
}

func (f *fakeClickRepo) FindByIPWithinWindow(_ context.Context, userID, ip string, saleTime time.Time, window time.Duration) ([]domain.ClickEvent, error) {
	var out []domain.ClickEvent
	for _, click := range f.clicks {
		if click.UserID == userID && click.IPAddress == ip && !click.Attributed && !click.Inferred &&
			domain.InWindow(click.ClickedAt, saleTime, window) {
			out = append(out, click)
		}
	}
	return out, nil
}

func (f *fakeClickRepo) FindByGeoWithinWindow(_ context.Context, userID, country, city string, saleTime time.Time, window time.Duration) ([]domain.ClickEvent, error) {
	var out []domain.ClickEvent
	for _, click := range f.clicks {
		if click.UserID == userID && click.Country == country && click.City == city &&
			!click.Attributed && !click.Inferred && domain.InWindow(click.ClickedAt, saleTime, window) {
			out = append(out, click)
		}
	}
	return out, nil
}

func (f *fakeClickRepo) MarkAttributed(_ context.Context, clickID, saleID string, _ time.Time) error {
	click, ok := f.clicks[clickID]
	if !ok {
		return domain.ErrNotFound
	}
	if click.Attributed {
		if click.SaleID != saleID {
			return domain.ErrConflict
		}
		return nil
	}
	click.Attributed = true
	click.SaleID = saleID
	f.clicks[clickID] = click
	return nil
}

type fakeSaleRepo struct {
	sales map[string]domain.SaleEvent
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{sales: map[string]domain.SaleEvent{}}
}

func (f *fakeSaleRepo) Upsert(_ context.Context, sale domain.SaleEvent) error {
	if _, ok := f.sales[sale.ID]; ok {
		return nil
	}
	f.sales[sale.ID] = sale
	return nil
}

func (f *fakeSaleRepo) GetByID(_ context.Context, id string) (domain.SaleEvent, error) {
	sale, ok := f.sales[id]
	if !ok {
		return domain.SaleEvent{}, domain.ErrNotFound
	}
	return sale, nil
}

type fakeAttributionRepo struct {
	byID   map[string]domain.Attribution
	bySale map[string]string
}

func newFakeAttributionRepo() *fakeAttributionRepo {
	return &fakeAttributionRepo{byID: map[string]domain.Attribution{}, bySale: map[string]string{}}
}

func (f *fakeAttributionRepo) Create(_ context.Context, attribution domain.Attribution) error {
	if _, ok := f.bySale[attribution.SaleID]; ok {
		return domain.ErrConflict
	}
	f.byID[attribution.ID] = attribution
	f.bySale[attribution.SaleID] = attribution.ID
	return nil
}

func (f *fakeAttributionRepo) GetByID(_ context.Context, id string) (domain.Attribution, error) {
	attribution, ok := f.byID[id]
	if !ok {
		return domain.Attribution{}, domain.ErrNotFound
	}
	return attribution, nil
}

func (f *fakeAttributionRepo) GetBySaleID(_ context.Context, saleID string) (domain.Attribution, error) {
	id, ok := f.bySale[saleID]
	if !ok {
		return domain.Attribution{}, domain.ErrNotFound
	}
	return f.byID[id], nil
}

func (f *fakeAttributionRepo) UpdateStatus(_ context.Context, id, status string, at time.Time) error {
	attribution, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	attribution.Status = status
	attribution.UpdatedAt = at
	f.byID[id] = attribution
	return nil
}

type fakeLinkRepo struct {
	links map[string]domain.TrackedLink
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{links: map[string]domain.TrackedLink{}}
}

func (f *fakeLinkRepo) GetByID(_ context.Context, id string) (domain.TrackedLink, error) {
	link, ok := f.links[id]
	if !ok {
		return domain.TrackedLink{}, domain.ErrNotFound
	}
	return link, nil
}

func (f *fakeLinkRepo) CreateSynthetic(_ context.Context, link domain.TrackedLink) error {
	link.Synthetic = true
	f.links[link.ID] = link
	return nil
}

type fakeContentRepo struct {
	contents map[string]domain.RawContent
	projects map[string][]domain.CreatorProject
	attrs    map[string]domain.ContentAttribution
}

func newFakeContentRepo() *fakeContentRepo {
	return &fakeContentRepo{
		contents: map[string]domain.RawContent{},
		projects: map[string][]domain.CreatorProject{},
		attrs:    map[string]domain.ContentAttribution{},
	}
}

func (f *fakeContentRepo) SaveContent(_ context.Context, content domain.RawContent) error {
	f.contents[content.ID] = content
	return nil
}

func (f *fakeContentRepo) ListRecentByUser(_ context.Context, userID string, saleTime time.Time, window time.Duration) ([]domain.RawContent, error) {
	var out []domain.RawContent
	for _, content := range f.contents {
		if content.UserID == userID && domain.InWindow(content.PostedAt, saleTime, window) {
			out = append(out, content)
		}
	}
	return out, nil
}

func (f *fakeContentRepo) ListProjectsByAccount(_ context.Context, accountID string) ([]domain.CreatorProject, error) {
	return f.projects[accountID], nil
}

func (f *fakeContentRepo) UpsertAttribution(_ context.Context, attribution domain.ContentAttribution) (domain.ContentAttribution, error) {
	key := attribution.ProjectID + "|" + attribution.ContentID
	if existing, ok := f.attrs[key]; ok {
		existing.Engagement = attribution.Engagement
		existing.UpdatedAt = attribution.UpdatedAt
		f.attrs[key] = existing
		return existing, nil
	}
	f.attrs[key] = attribution
	return attribution, nil
}

type fakeGroundTruthRepo struct {
	samples []domain.GroundTruthSample
}

func (f *fakeGroundTruthRepo) Append(_ context.Context, sample domain.GroundTruthSample) error {
	f.samples = append(f.samples, sample)
	return nil
}

type fakeSnapshotRepo struct {
	saved []domain.ModelWeights
}

func (f *fakeSnapshotRepo) Save(_ context.Context, weights domain.ModelWeights) error {
	f.saved = append(f.saved, weights)
	return nil
}

func (f *fakeSnapshotRepo) Latest(context.Context) (domain.ModelWeights, error) {
	if len(f.saved) == 0 {
		return domain.ModelWeights{}, domain.ErrNotFound
	}
	return f.saved[len(f.saved)-1], nil
}

type fakeOutbox struct {
	records []ports.OutboxRecord
}

func (f *fakeOutbox) Enqueue(_ context.Context, record ports.OutboxRecord) error {
	f.records = append(f.records, record)
	return nil
}

func (f *fakeOutbox) ClaimUnpublished(context.Context, int, string, time.Time) ([]ports.OutboxRecord, error) {
	return nil, nil
}

func (f *fakeOutbox) MarkPublished(context.Context, string, string, time.Time) error { return nil }

func (f *fakeOutbox) MarkDeadLettered(context.Context, string, string, string, time.Time) error {
	return nil
}

func (f *fakeOutbox) RecordFailure(context.Context, string, string, string) error { return nil }

func (f *fakeOutbox) countByType(eventType string) int {
	n := 0
	for _, record := range f.records {
		if record.EventType == eventType {
			n++
		}
	}
	return n
}

type fixture struct {
	svc          *application.Service
	clickStore   *engine.ClickStore
	model        *engine.AdaptiveModel
	clicks       *fakeClickRepo
	sales        *fakeSaleRepo
	attributions *fakeAttributionRepo
	links        *fakeLinkRepo
	content      *fakeContentRepo
	groundTruth  *fakeGroundTruthRepo
	snapshots    *fakeSnapshotRepo
	outbox       *fakeOutbox
}

func newFixture() *fixture {
	f := &fixture{
		clickStore:   engine.NewClickStore(engine.ClickStoreConfig{Window: 24 * time.Hour}),
		model:        engine.NewAdaptiveModel(engine.ModelConfig{MinTrainingSamples: 50, RetrainEvery: 10}),
		clicks:       newFakeClickRepo(),
		sales:        newFakeSaleRepo(),
		attributions: newFakeAttributionRepo(),
		links:        newFakeLinkRepo(),
		content:      newFakeContentRepo(),
		groundTruth:  &fakeGroundTruthRepo{},
		snapshots:    &fakeSnapshotRepo{},
		outbox:       &fakeOutbox{},
	}
	f.model.SetNow(func() time.Time { return fixedNow })
	f.svc = application.NewService(application.Dependencies{
		Config: application.Config{
			AttributionWindow: 24 * time.Hour,
			MinConfidence:     0.5,
			TierTimeout:       time.Second,
		},
		ClickStore:   f.clickStore,
		Model:        f.model,
		Clicks:       f.clicks,
		Sales:        f.sales,
		Attributions: f.attributions,
		Links:        f.links,
		Content:      f.content,
		GroundTruth:  f.groundTruth,
		Snapshots:    f.snapshots,
		Outbox:       f.outbox,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	f.svc.SetNow(func() time.Time { return fixedNow })
	return f
}

func testSale() domain.SaleEvent {
	return domain.SaleEvent{
		ID:          "sale-1",
		UserID:      "user-1",
		AmountCents: 4999,
		Currency:    "USD",
		IPAddress:   "203.0.113.9",
		CreatedAt:   fixedNow,
	}
}

func recordTestClick(t *testing.T, f *fixture) domain.ClickEvent {
	t.Helper()
	click, err := f.svc.RecordClick(context.Background(), domain.ClickEvent{
		LinkID:    "link-1",
		UserID:    "user-1",
		Platform:  "twitter",
		IPAddress: "203.0.113.9",
		ClickedAt: fixedNow.Add(-30 * time.Minute),
	})
	if err != nil {
		t.Fatalf("record click failed: %v", err)
	}
	return click
}

func TestRecordClickValidation(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.RecordClick(ctx, domain.ClickEvent{LinkID: "link-1"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("missing user id should be invalid input, got %v", err)
	}
	if _, err := f.svc.RecordClick(ctx, domain.ClickEvent{UserID: "user-1"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("missing link id should be invalid input, got %v", err)
	}
}

func TestRecordClickStripsPreAttribution(t *testing.T) {
	t.Parallel()
	f := newFixture()

	click, err := f.svc.RecordClick(context.Background(), domain.ClickEvent{
		LinkID:     "link-1",
		UserID:     "user-1",
		Attributed: true,
		SaleID:     "smuggled-sale",
	})
	if err != nil {
		t.Fatalf("record click failed: %v", err)
	}
	if click.Attributed || click.SaleID != "" {
		t.Fatalf("ingested clicks must never arrive pre-attributed: %+v", click)
	}
	if click.ID == "" || click.ClickedAt.IsZero() {
		t.Fatalf("id and clicked_at must be defaulted: %+v", click)
	}
}

func TestAttributeSaleExactIPMatch(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	click := recordTestClick(t, f)

	result, err := f.svc.AttributeSale(ctx, testSale(), application.AttributeOptions{})
	if err != nil {
		t.Fatalf("attribute sale failed: %v", err)
	}
	if !result.Attributed {
		t.Fatalf("expected an attribution")
	}
	if result.Tier != domain.TierEngine || result.MatchType != domain.MatchTypeIP {
		t.Fatalf("expected engine-tier ip match, got tier=%s type=%s", result.Tier, result.MatchType)
	}
	if result.Confidence < 0.95 {
		t.Fatalf("ip match within the hour should score at least 0.95, got %v", result.Confidence)
	}
	if result.Attribution.Status != domain.AttributionStatusMatched {
		t.Fatalf("expected MATCHED, got %s", result.Attribution.Status)
	}
	if result.MatchedClick == nil || result.MatchedClick.ID != click.ID {
		t.Fatalf("result should carry the matched click")
	}

	stored, err := f.clicks.GetByID(ctx, click.ID)
	if err != nil {
		t.Fatalf("click lookup failed: %v", err)
	}
	if !stored.Attributed || stored.SaleID != "sale-1" {
		t.Fatalf("durable click must be marked attributed: %+v", stored)
	}
	if len(f.groundTruth.samples) != 1 || !f.groundTruth.samples[0].DidConvert {
		t.Fatalf("exact match must append one positive ground truth sample, got %+v", f.groundTruth.samples)
	}
	if f.outbox.countByType("attribution.created") != 1 {
		t.Fatalf("expected one attribution.created event")
	}
}

func TestAttributeSaleIsIdempotent(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	recordTestClick(t, f)

	first, err := f.svc.AttributeSale(ctx, testSale(), application.AttributeOptions{})
	if err != nil {
		t.Fatalf("first attribution failed: %v", err)
	}
	second, err := f.svc.AttributeSale(ctx, testSale(), application.AttributeOptions{})
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if second.Attribution.ID != first.Attribution.ID {
		t.Fatalf("replay must return the existing attribution, got %s vs %s", second.Attribution.ID, first.Attribution.ID)
	}
	if len(f.attributions.byID) != 1 {
		t.Fatalf("a sale gets exactly one attribution row, got %d", len(f.attributions.byID))
	}
	if f.outbox.countByType("attribution.created") != 1 {
		t.Fatalf("replay must not emit a second event")
	}
}

func TestAttributeSaleTier1BeatsDatabase(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	// Same IP in both tiers under different IDs; the warm tier must win.
	f.clickStore.Record(domain.ClickEvent{
		ID: "click-warm", LinkID: "link-1", UserID: "user-1",
		IPAddress: "203.0.113.9", ClickedAt: fixedNow.Add(-time.Hour),
	})
	if err := f.clicks.Create(ctx, domain.ClickEvent{
		ID: "click-cold", LinkID: "link-1", UserID: "user-1",
		IPAddress: "203.0.113.9", ClickedAt: fixedNow.Add(-2 * time.Hour),
	}); err != nil {
		t.Fatalf("seed click failed: %v", err)
	}

	result, err := f.svc.AttributeSale(ctx, testSale(), application.AttributeOptions{})
	if err != nil {
		t.Fatalf("attribute sale failed: %v", err)
	}
	if result.Tier != domain.TierEngine || result.MatchedClick.ID != "click-warm" {
		t.Fatalf("tier 1 must win, got tier=%s click=%s", result.Tier, result.MatchedClick.ID)
	}
}

func TestAttributeSaleDatabaseBackstop(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	// Cold start: the click exists only in the durable store.
	if err := f.clicks.Create(ctx, domain.ClickEvent{
		ID: "click-cold", LinkID: "link-1", UserID: "user-1",
		IPAddress: "203.0.113.9", ClickedAt: fixedNow.Add(-time.Hour),
	}); err != nil {
		t.Fatalf("seed click failed: %v", err)
	}

	result, err := f.svc.AttributeSale(ctx, testSale(), application.AttributeOptions{})
	if err != nil {
		t.Fatalf("attribute sale failed: %v", err)
	}
	if !result.Attributed || result.Tier != domain.TierDatabase {
		t.Fatalf("expected a database-tier match, got %+v", result)
	}
	stored, _ := f.clicks.GetByID(ctx, "click-cold")
	if !stored.Attributed {
		t.Fatalf("backstop match must still mark the click attributed")
	}
}

func TestAttributeSaleNoSignalsNoContent(t *testing.T) {
	t.Parallel()
	f := newFixture()

	sale := testSale()
	sale.IPAddress = ""
	result, err := f.svc.AttributeSale(context.Background(), sale, application.AttributeOptions{})
	if err != nil {
		t.Fatalf("attribute sale failed: %v", err)
	}
	if result.Attributed || result.Confidence != 0 || result.MatchType != domain.MatchTypeNone {
		t.Fatalf("no signals and no content must produce a clean no-match, got %+v", result)
	}
	if len(f.attributions.byID) != 0 {
		t.Fatalf("no attribution row may be written for a no-match")
	}
}

func TestAttributeSaleValidation(t *testing.T) {
	t.Parallel()
	f := newFixture()

	if _, err := f.svc.AttributeSale(context.Background(), domain.SaleEvent{UserID: "user-1"}, application.AttributeOptions{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("missing sale id should be invalid input, got %v", err)
	}
	if _, err := f.svc.AttributeSale(context.Background(), domain.SaleEvent{ID: "sale-1"}, application.AttributeOptions{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("missing user id should be invalid input, got %v", err)
	}
}

func TestAttributeSaleProbabilisticFallback(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	f.content.contents["post-1"] = domain.RawContent{
		ID:        "post-1",
		AccountID: "account-1",
		UserID:    "user-1",
		Platform:  "twitter",
		URL:       "https://twitter.com/u/status/1",
		PostedAt:  fixedNow.Add(-time.Hour),
	}

	sale := testSale()
	sale.IPAddress = ""
	result, err := f.svc.AttributeSale(ctx, sale, application.AttributeOptions{})
	if err != nil {
		t.Fatalf("attribute sale failed: %v", err)
	}
	if !result.Attributed || result.MatchType != domain.MatchTypeInferred {
		t.Fatalf("expected an inferred attribution, got %+v", result)
	}

	// Default weights, twitter lambda 0.15, 1h old, neutral sentiment:
	// 0.5·e^(−0.15) + 0.2·0.5 ≈ 0.53
	want := 0.5*math.Exp(-0.15) + 0.1
	if math.Abs(result.Confidence-want) > 1e-9 {
		t.Fatalf("expected confidence %v, got %v", want, result.Confidence)
	}
	if result.Attribution.Status != domain.AttributionStatusUncertain {
		t.Fatalf("mid-band confidence must be UNCERTAIN, got %s", result.Attribution.Status)
	}

	if result.MatchedLink == nil || !result.MatchedLink.Synthetic {
		t.Fatalf("probabilistic attributions must carry a synthetic link")
	}
	if result.MatchedClick == nil || !result.MatchedClick.Inferred || !result.MatchedClick.Attributed {
		t.Fatalf("the materialized click must be inferred and attributed: %+v", result.MatchedClick)
	}
	stored, err := f.clicks.GetByID(ctx, result.MatchedClick.ID)
	if err != nil {
		t.Fatalf("inferred click must be persisted: %v", err)
	}
	if !stored.ClickedAt.Equal(f.content.contents["post-1"].PostedAt) {
		t.Fatalf("inferred click must be backdated to the posting moment, got %v", stored.ClickedAt)
	}
}

func TestAttributeSaleProbabilisticBelowFloor(t *testing.T) {
	t.Parallel()
	f := newFixture()

	f.content.contents["post-1"] = domain.RawContent{
		ID:       "post-1",
		UserID:   "user-1",
		Platform: "twitter",
		PostedAt: fixedNow.Add(-time.Hour),
	}

	sale := testSale()
	sale.IPAddress = ""
	result, err := f.svc.AttributeSale(context.Background(), sale, application.AttributeOptions{MinConfidence: 0.9})
	if err != nil {
		t.Fatalf("attribute sale failed: %v", err)
	}
	if result.Attributed {
		t.Fatalf("candidates below the confidence floor must be discarded, got %+v", result)
	}
}

func TestProcessAttributionFeedbackReject(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	recordTestClick(t, f)

	result, err := f.svc.AttributeSale(ctx, testSale(), application.AttributeOptions{})
	if err != nil {
		t.Fatalf("attribute sale failed: %v", err)
	}

	rejected, err := f.svc.ProcessAttributionFeedback(ctx, result.Attribution.ID, false)
	if err != nil {
		t.Fatalf("feedback failed: %v", err)
	}
	if rejected.Status != domain.AttributionStatusRejected {
		t.Fatalf("expected REJECTED, got %s", rejected.Status)
	}

	// One positive sample from the exact match, one negative from the reject.
	if len(f.groundTruth.samples) != 2 {
		t.Fatalf("expected two ground truth samples, got %d", len(f.groundTruth.samples))
	}
	if f.groundTruth.samples[1].DidConvert {
		t.Fatalf("a rejection must record a negative label")
	}
	if f.outbox.countByType("attribution.rejected") != 1 {
		t.Fatalf("expected one attribution.rejected event")
	}

	if _, err := f.svc.ProcessAttributionFeedback(ctx, result.Attribution.ID, true); !errors.Is(err, domain.ErrFeedbackFinalized) {
		t.Fatalf("finalized attributions must refuse further feedback, got %v", err)
	}
}

func TestProcessAttributionFeedbackConfirm(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	recordTestClick(t, f)

	result, err := f.svc.AttributeSale(ctx, testSale(), application.AttributeOptions{})
	if err != nil {
		t.Fatalf("attribute sale failed: %v", err)
	}
	confirmed, err := f.svc.ProcessAttributionFeedback(ctx, result.Attribution.ID, true)
	if err != nil {
		t.Fatalf("feedback failed: %v", err)
	}
	if confirmed.Status != domain.AttributionStatusConfirmed {
		t.Fatalf("expected CONFIRMED, got %s", confirmed.Status)
	}
	if f.outbox.countByType("attribution.confirmed") != 1 {
		t.Fatalf("expected one attribution.confirmed event")
	}
}

func TestProcessAttributionFeedbackUnknownID(t *testing.T) {
	t.Parallel()
	f := newFixture()

	if _, err := f.svc.ProcessAttributionFeedback(context.Background(), "missing", true); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown attribution should be not found, got %v", err)
	}
	if _, err := f.svc.ProcessAttributionFeedback(context.Background(), "  ", true); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("blank id should be invalid input, got %v", err)
	}
}

func TestIngestContentMatchesProjectsIndependently(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	f.content.projects["account-1"] = []domain.CreatorProject{
		{ID: "proj-cash", UserID: "user-1", Cashtags: []string{"alpha"}},
		{ID: "proj-tag", UserID: "user-1", Hashtags: []string{"alphaarmy"}},
		{ID: "proj-quiet", UserID: "user-1", Cashtags: []string{"omega"}},
	}

	attributed, err := f.svc.IngestContent(ctx, domain.RawContent{
		ID:        "post-1",
		AccountID: "account-1",
		UserID:    "user-1",
		Platform:  "twitter",
		Text:      "$ALPHA to the moon #alphaarmy",
		PostedAt:  fixedNow.Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("ingest content failed: %v", err)
	}
	if len(attributed) != 2 {
		t.Fatalf("expected matches for two projects, got %d", len(attributed))
	}
	if f.outbox.countByType("content.attributed") != 2 {
		t.Fatalf("each content attribution emits an event")
	}
	if _, ok := f.content.contents["post-1"]; !ok {
		t.Fatalf("ingested content must be persisted")
	}
}

func TestIngestContentValidation(t *testing.T) {
	t.Parallel()
	f := newFixture()

	if _, err := f.svc.IngestContent(context.Background(), domain.RawContent{AccountID: "account-1"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("missing content id should be invalid input, got %v", err)
	}
	if _, err := f.svc.IngestContent(context.Background(), domain.RawContent{ID: "post-1"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("missing account id should be invalid input, got %v", err)
	}
}

func TestIngestContentRefreshKeepsAttributionIdentity(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()

	f.content.projects["account-1"] = []domain.CreatorProject{
		{ID: "proj-1", UserID: "user-1", Cashtags: []string{"alpha"}},
	}
	post := domain.RawContent{
		ID:        "post-1",
		AccountID: "account-1",
		UserID:    "user-1",
		Platform:  "twitter",
		Text:      "$alpha launch",
		PostedAt:  fixedNow.Add(-time.Minute),
	}

	first, err := f.svc.IngestContent(ctx, post)
	if err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}
	post.Engagement = domain.EngagementSnapshot{Views: 5000, Likes: 100}
	second, err := f.svc.IngestContent(ctx, post)
	if err != nil {
		t.Fatalf("re-ingest failed: %v", err)
	}
	if second[0].ID != first[0].ID {
		t.Fatalf("re-ingest must update the existing attribution, not mint a new one")
	}
	if second[0].Engagement.Views != 5000 {
		t.Fatalf("re-ingest must refresh engagement, got %+v", second[0].Engagement)
	}
}

func TestGetModelStateReflectsSamples(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	recordTestClick(t, f)

	if _, err := f.svc.AttributeSale(ctx, testSale(), application.AttributeOptions{}); err != nil {
		t.Fatalf("attribute sale failed: %v", err)
	}
	state := f.svc.GetModelState(ctx)
	if state.SampleCount != 1 {
		t.Fatalf("expected one recorded sample, got %d", state.SampleCount)
	}
	if state.Weights.Lambda[domain.DefaultLambdaKey] <= 0 {
		t.Fatalf("model state must always carry a default lambda")
	}
}

func TestGetClickStats(t *testing.T) {
	t.Parallel()
	f := newFixture()
	recordTestClick(t, f)

	stats := f.svc.GetClickStats(context.Background())
	if stats.TrackedClicks != 1 || stats.UsersIndexed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
