package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ads_migrator/models"
)

// PostgresStore talks to the database directly over pgx. This is the primary
// backend; the Supabase REST backend exists for environments where only the
// PostgREST gateway is reachable.
type PostgresStore struct {
	pool        *pgxpool.Pool
	sourceTable string
	destTable   string
}

func NewPostgresStore(ctx context.Context, connString, sourceTable, destTable string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &PostgresStore{
		pool:        pool,
		sourceTable: sourceTable,
		destTable:   destTable,
	}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) CountScrapedAds(ctx context.Context) (int64, error) {
	var count int64
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.sourceTable)
	if err := s.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", s.sourceTable, err)
	}
	return count, nil
}

func (s *PostgresStore) ScrapedAdsAfter(ctx context.Context, lastID int64, limit int) ([]models.ScrapedAd, error) {
	query := fmt.Sprintf(`
		SELECT id, COALESCE(keyword, ''), COALESCE(ad_id, ''), COALESCE(ad_url, ''),
			COALESCE(page_url, ''), COALESCE(ad_profile_url, ''), COALESCE(ad_date, ''),
			COALESCE(ad_name, ''), COALESCE(ad_caption, ''), COALESCE(ad_risk_reason, ''),
			COALESCE(ad_links, ''), COALESCE(image_urls, ''), COALESCE(video_urls, ''),
			COALESCE(collected_at, ''), COALESCE(ad_risk_level, ''), COALESCE(request_id, '')
		FROM %s
		WHERE id > $1
		ORDER BY id
		LIMIT $2`, s.sourceTable)

	rows, err := s.pool.Query(ctx, query, lastID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ads []models.ScrapedAd
	for rows.Next() {
		var a models.ScrapedAd
		if err := rows.Scan(
			&a.ID, &a.Keyword, &a.AdID, &a.AdURL, &a.PageURL, &a.AdProfileURL, &a.AdDate,
			&a.AdName, &a.AdCaption, &a.AdRiskReason, &a.AdLinks, &a.ImageURLs, &a.VideoURLs,
			&a.CollectedAt, &a.AdRiskLevel, &a.RequestID,
		); err != nil {
			return nil, err
		}
		ads = append(ads, a)
	}
	return ads, rows.Err()
}

func (s *PostgresStore) UpsertLiveAds(ctx context.Context, ads []models.LiveAd) error {
	if len(ads) == 0 {
		return nil
	}

	// Full-field replace on conflict, not a merge: re-migrating a row means it
	// needs re-indexing, so opensearch_sync goes back to false every time.
	query := fmt.Sprintf(`
		INSERT INTO %s (
			id, keyword, ad_id, ad_url, page_url, ad_profile_url, ad_date, active_time_hr,
			ad_name, ad_caption, ad_risk_reason, ad_links, image_urls, video_urls,
			collected_at, ad_risk_level, request_id, opensearch_sync
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, FALSE
		)
		ON CONFLICT (id) DO UPDATE SET
			keyword = EXCLUDED.keyword,
			ad_id = EXCLUDED.ad_id,
			ad_url = EXCLUDED.ad_url,
			page_url = EXCLUDED.page_url,
			ad_profile_url = EXCLUDED.ad_profile_url,
			ad_date = EXCLUDED.ad_date,
			active_time_hr = EXCLUDED.active_time_hr,
			ad_name = EXCLUDED.ad_name,
			ad_caption = EXCLUDED.ad_caption,
			ad_risk_reason = EXCLUDED.ad_risk_reason,
			ad_links = EXCLUDED.ad_links,
			image_urls = EXCLUDED.image_urls,
			video_urls = EXCLUDED.video_urls,
			collected_at = EXCLUDED.collected_at,
			ad_risk_level = EXCLUDED.ad_risk_level,
			request_id = EXCLUDED.request_id,
			opensearch_sync = FALSE`, s.destTable)

	batch := &pgx.Batch{}
	for i := range ads {
		a := &ads[i]
		batch.Queue(query,
			a.ID, a.Keyword, a.AdID, a.AdURL, a.PageURL, a.AdProfileURL, a.AdDate, a.ActiveTimeHr,
			a.AdName, a.AdCaption, a.AdRiskReason, a.AdLinks, a.ImageURLs, a.VideoURLs,
			a.CollectedAt, a.AdRiskLevel, a.RequestID,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	var firstErr error
	for range ads {
		if _, err := br.Exec(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := br.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil {
		return fmt.Errorf("upsert %s: %w", s.destTable, firstErr)
	}
	return nil
}

func (s *PostgresStore) ExistingLiveAdIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	existing := make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	query := fmt.Sprintf(`SELECT id FROM %s WHERE id = ANY($1)`, s.destTable)
	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		existing[id] = true
	}
	return existing, rows.Err()
}
