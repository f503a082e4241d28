package migrator

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"ads_migrator/models"
)

var (
	startedRunningRe = regexp.MustCompile(`Started running on (\d{1,2}) ([A-Za-z]{3}) (\d{4})`)
	activeTimeRe     = regexp.MustCompile(`Total active time (\d+) hrs`)
)

// ParseAdDate pulls a start date and an active-time duration out of the
// scraper's free-text ad_date field, e.g.
// "Started running on 5 Jan 2023. Total active time 48 hrs."
// The two extractions are independent; anything that does not parse comes
// back nil. It never fails.
func ParseAdDate(raw string) (date *string, activeHrs *int64) {
	if raw == "" {
		return nil, nil
	}

	if m := startedRunningRe.FindStringSubmatch(raw); m != nil {
		// time.Parse validates the calendar, so "35 Foo 2023" and
		// "31 Feb 2023" both fall through to nil.
		t, err := time.Parse("2 Jan 2006", fmt.Sprintf("%s %s %s", m[1], m[2], m[3]))
		if err == nil {
			d := t.Format("2006-01-02")
			date = &d
		}
	}

	if m := activeTimeRe.FindStringSubmatch(raw); m != nil {
		if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			activeHrs = &n
		}
	}

	return date, activeHrs
}

// TransformAd maps one source row to its destination shape. It is pure and
// never fails: unparsable numerics and empty strings become nil fields, and
// opensearch_sync is unconditionally false so the row is re-indexed.
func TransformAd(src *models.ScrapedAd) models.LiveAd {
	adDate, activeHrs := ParseAdDate(src.AdDate)

	return models.LiveAd{
		ID:             src.ID,
		Keyword:        textOrNil(src.Keyword),
		AdID:           intOrNil(src.AdID),
		AdURL:          textOrNil(src.AdURL),
		PageURL:        textOrNil(src.PageURL),
		AdProfileURL:   textOrNil(src.AdProfileURL),
		AdDate:         adDate,
		ActiveTimeHr:   activeHrs,
		AdName:         textOrNil(src.AdName),
		AdCaption:      textOrNil(src.AdCaption),
		AdRiskReason:   textOrNil(src.AdRiskReason),
		AdLinks:        textOrNil(src.AdLinks),
		ImageURLs:      textOrNil(src.ImageURLs),
		VideoURLs:      textOrNil(src.VideoURLs),
		CollectedAt:    textOrNil(src.CollectedAt),
		AdRiskLevel:    intOrNil(src.AdRiskLevel),
		RequestID:      intOrNil(src.RequestID),
		OpensearchSync: false,
	}
}

func textOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func intOrNil(s string) *int64 {
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}
