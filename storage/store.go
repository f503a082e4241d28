package storage

import (
	"context"

	"ads_migrator/models"
)

// AdStore is the data-access handle the migrator runs against. Both the
// direct Postgres backend and the Supabase REST backend implement it; the
// migrator never touches a connection itself.
type AdStore interface {
	// CountScrapedAds returns the number of rows in the source table.
	CountScrapedAds(ctx context.Context) (int64, error)

	// ScrapedAdsAfter returns up to limit source rows with id > lastID,
	// ordered ascending by id. An empty slice means the source is exhausted.
	ScrapedAdsAfter(ctx context.Context, lastID int64, limit int) ([]models.ScrapedAd, error)

	// UpsertLiveAds writes a batch to the destination table, inserting new
	// rows and fully replacing existing ones matched on id.
	UpsertLiveAds(ctx context.Context, ads []models.LiveAd) error

	// ExistingLiveAdIDs reports which of the given ids are already present
	// in the destination table.
	ExistingLiveAdIDs(ctx context.Context, ids []int64) (map[int64]bool, error)
}
