package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ads_migrator/models"
)

// SupabaseStore implements AdStore against the PostgREST gateway. Used when
// the database itself is not reachable and only the service-role REST API is.
type SupabaseStore struct {
	url         string
	serviceKey  string
	sourceTable string
	destTable   string
	client      *http.Client
}

func NewSupabaseStore(baseURL, serviceKey, sourceTable, destTable string) *SupabaseStore {
	return &SupabaseStore{
		url:         strings.TrimRight(baseURL, "/"),
		serviceKey:  serviceKey,
		sourceTable: sourceTable,
		destTable:   destTable,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *SupabaseStore) newRequest(ctx context.Context, method, table string, query url.Values, body io.Reader) (*http.Request, error) {
	u := s.url + "/rest/v1/" + table
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", s.serviceKey)
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	return req, nil
}

// checkStatus converts an error response into an error, marking gateway-side
// failures as transient so the fetch/upsert retry policies kick in.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	err := fmt.Errorf("supabase error %d: %s", resp.StatusCode, string(body))
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return &TransientError{Err: err}
	}
	return err
}

func (s *SupabaseStore) CountScrapedAds(ctx context.Context) (int64, error) {
	query := url.Values{}
	query.Set("select", "id")

	req, err := s.newRequest(ctx, http.MethodGet, s.sourceTable, query, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Prefer", "count=exact")
	req.Header.Set("Range", "0-0")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return 0, err
	}

	// Content-Range looks like "0-0/1234" ("*/0" for an empty table).
	contentRange := resp.Header.Get("Content-Range")
	idx := strings.LastIndex(contentRange, "/")
	if idx < 0 {
		return 0, fmt.Errorf("missing count in Content-Range %q", contentRange)
	}

	count, err := strconv.ParseInt(contentRange[idx+1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse Content-Range %q: %w", contentRange, err)
	}
	return count, nil
}

func (s *SupabaseStore) ScrapedAdsAfter(ctx context.Context, lastID int64, limit int) ([]models.ScrapedAd, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("id", "gt."+strconv.FormatInt(lastID, 10))
	query.Set("order", "id.asc")
	query.Set("limit", strconv.Itoa(limit))

	req, err := s.newRequest(ctx, http.MethodGet, s.sourceTable, query, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var ads []models.ScrapedAd
	if err := json.NewDecoder(resp.Body).Decode(&ads); err != nil {
		return nil, fmt.Errorf("decode %s page: %w", s.sourceTable, err)
	}
	return ads, nil
}

func (s *SupabaseStore) UpsertLiveAds(ctx context.Context, ads []models.LiveAd) error {
	if len(ads) == 0 {
		return nil
	}

	data, err := json.Marshal(ads)
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	query := url.Values{}
	query.Set("on_conflict", "id")

	req, err := s.newRequest(ctx, http.MethodPost, s.destTable, query, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

func (s *SupabaseStore) ExistingLiveAdIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	existing := make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}

	query := url.Values{}
	query.Set("select", "id")
	query.Set("id", "in.("+strings.Join(parts, ",")+")")

	req, err := s.newRequest(ctx, http.MethodGet, s.destTable, query, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var rows []struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode existing ids: %w", err)
	}

	for _, r := range rows {
		existing[r.ID] = true
	}
	return existing, nil
}
