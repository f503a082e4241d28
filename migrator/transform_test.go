package migrator

import (
	"testing"

	"ads_migrator/models"
)

func TestParseAdDate_Empty(t *testing.T) {
	date, hrs := ParseAdDate("")
	if date != nil || hrs != nil {
		t.Fatalf("expected nil/nil for empty input, got %v/%v", date, hrs)
	}
}

func TestParseAdDate_DateOnly(t *testing.T) {
	date, hrs := ParseAdDate("Started running on 5 Jan 2023")
	if date == nil || *date != "2023-01-05" {
		t.Fatalf("expected 2023-01-05, got %v", date)
	}
	if hrs != nil {
		t.Fatalf("expected no active time, got %d", *hrs)
	}
}

func TestParseAdDate_DurationOnly(t *testing.T) {
	date, hrs := ParseAdDate("Total active time 48 hrs")
	if date != nil {
		t.Fatalf("expected no date, got %s", *date)
	}
	if hrs == nil || *hrs != 48 {
		t.Fatalf("expected 48 hrs, got %v", hrs)
	}
}

func TestParseAdDate_Both(t *testing.T) {
	date, hrs := ParseAdDate("Started running on 5 Jan 2023. Total active time 48 hrs.")
	if date == nil || *date != "2023-01-05" {
		t.Fatalf("expected 2023-01-05, got %v", date)
	}
	if hrs == nil || *hrs != 48 {
		t.Fatalf("expected 48 hrs, got %v", hrs)
	}
}

func TestParseAdDate_TwoDigitDay(t *testing.T) {
	date, _ := ParseAdDate("Started running on 17 Nov 2024")
	if date == nil || *date != "2024-11-17" {
		t.Fatalf("expected 2024-11-17, got %v", date)
	}
}

func TestParseAdDate_MalformedDate(t *testing.T) {
	cases := []string{
		"Started running on 35 Foo 2023",
		"Started running on 31 Feb 2023",
		"Started running on  Jan 2023",
		"running on 5 Jan 2023",
	}
	for _, raw := range cases {
		date, _ := ParseAdDate(raw)
		if date != nil {
			t.Fatalf("expected nil date for %q, got %s", raw, *date)
		}
	}
}

func TestParseAdDate_MalformedDateKeepsDuration(t *testing.T) {
	date, hrs := ParseAdDate("Started running on 35 Foo 2023. Total active time 10 hrs.")
	if date != nil {
		t.Fatalf("expected nil date, got %s", *date)
	}
	if hrs == nil || *hrs != 10 {
		t.Fatalf("expected 10 hrs, got %v", hrs)
	}
}

func TestTransformAd_FullRow(t *testing.T) {
	src := models.ScrapedAd{
		ID:           42,
		Keyword:      "crypto",
		AdID:         "123456",
		AdURL:        "https://example.com/ad",
		PageURL:      "https://example.com/page",
		AdProfileURL: "https://example.com/profile",
		AdDate:       "Started running on 1 Feb 2024. Total active time 10 hrs.",
		AdName:       "Big Promo",
		AdCaption:    "buy now",
		AdRiskReason: "investment scam",
		AdLinks:      "https://a.example,https://b.example",
		ImageURLs:    "https://img.example/1.jpg",
		VideoURLs:    "https://vid.example/1.mp4",
		CollectedAt:  "2024-03-01T10:00:00Z",
		AdRiskLevel:  "3",
		RequestID:    "987",
	}

	live := TransformAd(&src)

	if live.ID != 42 {
		t.Fatalf("expected id 42, got %d", live.ID)
	}
	if live.AdID == nil || *live.AdID != 123456 {
		t.Fatalf("expected ad_id 123456, got %v", live.AdID)
	}
	if live.AdDate == nil || *live.AdDate != "2024-02-01" {
		t.Fatalf("expected ad_date 2024-02-01, got %v", live.AdDate)
	}
	if live.ActiveTimeHr == nil || *live.ActiveTimeHr != 10 {
		t.Fatalf("expected active_time_hr 10, got %v", live.ActiveTimeHr)
	}
	if live.AdRiskLevel == nil || *live.AdRiskLevel != 3 {
		t.Fatalf("expected ad_risk_level 3, got %v", live.AdRiskLevel)
	}
	if live.RequestID == nil || *live.RequestID != 987 {
		t.Fatalf("expected request_id 987, got %v", live.RequestID)
	}
	if live.Keyword == nil || *live.Keyword != "crypto" {
		t.Fatalf("expected keyword carried through, got %v", live.Keyword)
	}
	if live.OpensearchSync {
		t.Fatal("expected opensearch_sync false")
	}
}

func TestTransformAd_EmptyAndUnparsable(t *testing.T) {
	src := models.ScrapedAd{
		ID:          7,
		AdID:        "not-a-number",
		AdRiskLevel: "NaN",
		RequestID:   "",
		AdDate:      "some unrelated text",
	}

	live := TransformAd(&src)

	if live.AdID != nil {
		t.Fatalf("expected nil ad_id for unparsable text, got %d", *live.AdID)
	}
	if live.AdRiskLevel != nil {
		t.Fatalf("expected nil ad_risk_level, got %d", *live.AdRiskLevel)
	}
	if live.RequestID != nil {
		t.Fatalf("expected nil request_id, got %d", *live.RequestID)
	}
	if live.AdDate != nil || live.ActiveTimeHr != nil {
		t.Fatalf("expected nil date fields, got %v/%v", live.AdDate, live.ActiveTimeHr)
	}
	if live.Keyword != nil {
		t.Fatalf("expected nil keyword for empty source, got %q", *live.Keyword)
	}
	if live.OpensearchSync {
		t.Fatal("expected opensearch_sync false")
	}
}
