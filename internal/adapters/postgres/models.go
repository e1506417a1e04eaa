package postgres

import "time"

type clickModel struct {
	ClickID     string    `gorm:"column:click_id;primaryKey"`
	LinkID      string    `gorm:"column:link_id"`
	UserID      string    `gorm:"column:user_id"`
	Platform    string    `gorm:"column:platform"`
	IPAddress   string    `gorm:"column:ip_address"`
	Fingerprint string    `gorm:"column:fingerprint"`
	TrackerID   string    `gorm:"column:tracker_id"`
	Country     string    `gorm:"column:country"`
	Region      string    `gorm:"column:region"`
	City        string    `gorm:"column:city"`
	Referrer    string    `gorm:"column:referrer"`
	UTMSource   string    `gorm:"column:utm_source"`
	UTMMedium   string    `gorm:"column:utm_medium"`
	UTMCampaign string    `gorm:"column:utm_campaign"`
	ClickedAt   time.Time `gorm:"column:clicked_at"`
	Attributed  bool      `gorm:"column:attributed"`
	SaleID      string    `gorm:"column:sale_id"`
	Inferred    bool      `gorm:"column:inferred"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (clickModel) TableName() string { return "clicks" }

type saleModel struct {
	SaleID        string    `gorm:"column:sale_id;primaryKey"`
	UserID        string    `gorm:"column:user_id"`
	AmountCents   int64     `gorm:"column:amount_cents"`
	Currency      string    `gorm:"column:currency"`
	CustomerEmail string    `gorm:"column:customer_email"`
	CustomerName  string    `gorm:"column:customer_name"`
	IPAddress     string    `gorm:"column:ip_address"`
	TrackerID     string    `gorm:"column:tracker_id"`
	Fingerprint   string    `gorm:"column:fingerprint"`
	Country       string    `gorm:"column:country"`
	City          string    `gorm:"column:city"`
	Product       string    `gorm:"column:product"`
	Description   string    `gorm:"column:description"`
	Provider      string    `gorm:"column:provider"`
	Metadata      string    `gorm:"column:metadata"`
	OccurredAt    time.Time `gorm:"column:occurred_at"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (saleModel) TableName() string { return "sales" }

type attributionModel struct {
	AttributionID    string    `gorm:"column:attribution_id;primaryKey"`
	UserID           string    `gorm:"column:user_id"`
	ClickID          string    `gorm:"column:click_id"`
	SaleID           string    `gorm:"column:sale_id"`
	LinkID           string    `gorm:"column:link_id"`
	Confidence       float64   `gorm:"column:confidence"`
	Status           string    `gorm:"column:status"`
	MatchType        string    `gorm:"column:match_type"`
	Tier             string    `gorm:"column:tier"`
	TimeDeltaMinutes float64   `gorm:"column:time_delta_minutes"`
	MatchedSignals   string    `gorm:"column:matched_signals"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (attributionModel) TableName() string { return "attributions" }

type trackedLinkModel struct {
	LinkID    string    `gorm:"column:link_id;primaryKey"`
	UserID    string    `gorm:"column:user_id"`
	Slug      string    `gorm:"column:slug"`
	TargetURL string    `gorm:"column:target_url"`
	Platform  string    `gorm:"column:platform"`
	Synthetic bool      `gorm:"column:synthetic"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (trackedLinkModel) TableName() string { return "tracked_links" }

type groundTruthModel struct {
	SampleID         string    `gorm:"column:sample_id;primaryKey"`
	ClickID          string    `gorm:"column:click_id"`
	SaleID           string    `gorm:"column:sale_id"`
	TimeDeltaMinutes float64   `gorm:"column:time_delta_minutes"`
	GeoScore         float64   `gorm:"column:geo_score"`
	SentimentScore   float64   `gorm:"column:sentiment_score"`
	Platform         string    `gorm:"column:platform"`
	DidConvert       bool      `gorm:"column:did_convert"`
	RecordedAt       time.Time `gorm:"column:recorded_at"`
}

func (groundTruthModel) TableName() string { return "ground_truth_samples" }

type modelSnapshotModel struct {
	Version       string    `gorm:"column:version;primaryKey"`
	Weights       string    `gorm:"column:weights"`
	Accuracy      float64   `gorm:"column:accuracy"`
	TrainingCount int       `gorm:"column:training_count"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (modelSnapshotModel) TableName() string { return "model_snapshots" }

type rawContentModel struct {
	ContentID string    `gorm:"column:content_id;primaryKey"`
	AccountID string    `gorm:"column:account_id"`
	UserID    string    `gorm:"column:user_id"`
	Platform  string    `gorm:"column:platform"`
	Type      string    `gorm:"column:content_type"`
	URL       string    `gorm:"column:content_url"`
	Text      string    `gorm:"column:content_text"`
	PostedAt  time.Time `gorm:"column:posted_at"`
	Views     int       `gorm:"column:views"`
	Likes     int       `gorm:"column:likes"`
	Comments  int       `gorm:"column:comments"`
	Shares    int       `gorm:"column:shares"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (rawContentModel) TableName() string { return "raw_contents" }

type creatorProjectModel struct {
	ProjectID         string    `gorm:"column:project_id;primaryKey"`
	UserID            string    `gorm:"column:user_id"`
	AccountID         string    `gorm:"column:account_id"`
	Name              string    `gorm:"column:name"`
	AllContentRule    bool      `gorm:"column:all_content_rule"`
	BroadcastMode     string    `gorm:"column:broadcast_mode"`
	BroadcastKeywords string    `gorm:"column:broadcast_keywords"`
	Cashtags          string    `gorm:"column:cashtags"`
	Hashtags          string    `gorm:"column:hashtags"`
	NameAliases       string    `gorm:"column:name_aliases"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (creatorProjectModel) TableName() string { return "creator_projects" }

type contentAttributionModel struct {
	ID              string    `gorm:"column:id;primaryKey"`
	ProjectID       string    `gorm:"column:project_id"`
	ContentID       string    `gorm:"column:content_id"`
	AccountID       string    `gorm:"column:account_id"`
	ContentType     string    `gorm:"column:content_type"`
	ContentURL      string    `gorm:"column:content_url"`
	ContentText     string    `gorm:"column:content_text"`
	PostedAt        time.Time `gorm:"column:posted_at"`
	Reason          string    `gorm:"column:reason"`
	MatchedKeywords string    `gorm:"column:matched_keywords"`
	Confidence      float64   `gorm:"column:confidence"`
	Views           int       `gorm:"column:views"`
	Likes           int       `gorm:"column:likes"`
	Comments        int       `gorm:"column:comments"`
	Shares          int       `gorm:"column:shares"`
	ManualOverride  bool      `gorm:"column:manual_override"`
	OverrideAuthor  string    `gorm:"column:override_author"`
	OverrideNote    string    `gorm:"column:override_note"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (contentAttributionModel) TableName() string { return "content_attributions" }

type outboxModel struct {
	OutboxID       string     `gorm:"column:outbox_id;primaryKey"`
	EventType      string     `gorm:"column:event_type"`
	PartitionKey   string     `gorm:"column:partition_key"`
	Payload        string     `gorm:"column:payload"`
	RetryCount     int        `gorm:"column:retry_count"`
	ClaimToken     string     `gorm:"column:claim_token"`
	ClaimUntil     *time.Time `gorm:"column:claim_until"`
	PublishedAt    *time.Time `gorm:"column:published_at"`
	DeadLetteredAt *time.Time `gorm:"column:dead_lettered_at"`
	LastError      string     `gorm:"column:last_error"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
}

func (outboxModel) TableName() string { return "attribution_outbox" }
