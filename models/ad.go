package models

// ScrapedAd represents one row of the source table as the scraper wrote it.
// Everything except the primary key is stored as text; absent values are
// read back as empty strings. The id is unique and strictly increasing, which
// is what the migration cursor relies on.
type ScrapedAd struct {
	ID           int64  `json:"id" db:"id"`
	Keyword      string `json:"keyword" db:"keyword"`
	AdID         string `json:"ad_id" db:"ad_id"`
	AdURL        string `json:"ad_url" db:"ad_url"`
	PageURL      string `json:"page_url" db:"page_url"`
	AdProfileURL string `json:"ad_profile_url" db:"ad_profile_url"`
	AdDate       string `json:"ad_date" db:"ad_date"` // free text, e.g. "Started running on 5 Jan 2023. Total active time 48 hrs."
	AdName       string `json:"ad_name" db:"ad_name"`
	AdCaption    string `json:"ad_caption" db:"ad_caption"`
	AdRiskReason string `json:"ad_risk_reason" db:"ad_risk_reason"`
	AdLinks      string `json:"ad_links" db:"ad_links"`
	ImageURLs    string `json:"image_urls" db:"image_urls"`
	VideoURLs    string `json:"video_urls" db:"video_urls"`
	CollectedAt  string `json:"collected_at" db:"collected_at"`
	AdRiskLevel  string `json:"ad_risk_level" db:"ad_risk_level"`
	RequestID    string `json:"request_id" db:"request_id"`
}

// LiveAd is the denormalized destination row. Pointer fields are nullable:
// nil means the source value was absent or did not parse. OpensearchSync is
// false on every write so the indexer picks the row up again.
type LiveAd struct {
	ID             int64   `json:"id" db:"id"`
	Keyword        *string `json:"keyword" db:"keyword"`
	AdID           *int64  `json:"ad_id" db:"ad_id"`
	AdURL          *string `json:"ad_url" db:"ad_url"`
	PageURL        *string `json:"page_url" db:"page_url"`
	AdProfileURL   *string `json:"ad_profile_url" db:"ad_profile_url"`
	AdDate         *string `json:"ad_date" db:"ad_date"` // calendar date, "2006-01-02"
	ActiveTimeHr   *int64  `json:"active_time_hr" db:"active_time_hr"`
	AdName         *string `json:"ad_name" db:"ad_name"`
	AdCaption      *string `json:"ad_caption" db:"ad_caption"`
	AdRiskReason   *string `json:"ad_risk_reason" db:"ad_risk_reason"`
	AdLinks        *string `json:"ad_links" db:"ad_links"`
	ImageURLs      *string `json:"image_urls" db:"image_urls"`
	VideoURLs      *string `json:"video_urls" db:"video_urls"`
	CollectedAt    *string `json:"collected_at" db:"collected_at"`
	AdRiskLevel    *int64  `json:"ad_risk_level" db:"ad_risk_level"`
	RequestID      *int64  `json:"request_id" db:"request_id"`
	OpensearchSync bool    `json:"opensearch_sync" db:"opensearch_sync"`
}
