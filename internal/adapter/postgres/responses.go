package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/Principal/internal/domain"
	"github.com/Strob0t/Principal/internal/domain/response"
	"github.com/Strob0t/Principal/internal/port/recorder"
)

// ResponseStore implements recorder.Store using PostgreSQL.
type ResponseStore struct {
	pool *pgxpool.Pool
}

var _ recorder.Store = (*ResponseStore)(nil)

// NewResponseStore creates a store backed by the given connection pool.
func NewResponseStore(pool *pgxpool.Pool) *ResponseStore {
	return &ResponseStore{pool: pool}
}

// Record inserts resp and one row per dispatched domain in a single transaction.
func (s *ResponseStore) Record(ctx context.Context, resp *response.Response) error {
	body, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response %s: %w", resp.RequestID, err)
	}
	sum := resp.Summarize()

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx,
			`INSERT INTO responses (request_id, request_type, user_id, publication_status, approved, final_score, dispatched, failed, processing_ms, body, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 RETURNING id`,
			resp.RequestID, string(resp.RequestType), resp.UserID, string(resp.PublicationStatus),
			resp.ApprovedForPublication, sum.FinalScore, sum.Dispatched, sum.Failed,
			resp.ProcessingTime.Milliseconds(), body, createdAt(resp)).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert response %s: %w", resp.RequestID, err)
		}

		batch := &pgx.Batch{}
		for _, d := range resp.Dispatched {
			// Domains without a report store a NULL score.
			var (
				score    *float64
				approved bool
			)
			if rep, ok := resp.QualityAssessments[d]; ok {
				score = &rep.OverallScore
				approved = rep.ApprovedForPublication
			}
			batch.Queue(
				`INSERT INTO response_domains (response_id, domain, quality_score, approved, failure_reason)
				 VALUES ($1, $2, $3, $4, $5)`,
				id, d, score, approved, resp.FailedExperts[d])
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert response domains %s: %w", resp.RequestID, err)
		}
		return nil
	})
}

// Recent returns up to limit responses, newest first.
func (s *ResponseStore) Recent(ctx context.Context, limit int) ([]*response.Response, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT request_id, body FROM responses ORDER BY created_at DESC, id DESC LIMIT $1`,
		recorder.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	out := []*response.Response{}
	for rows.Next() {
		var (
			requestID string
			body      []byte
		)
		if err := rows.Scan(&requestID, &body); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		var resp response.Response
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decode response %s: %w", requestID, err)
		}
		out = append(out, &resp)
	}
	return out, rows.Err()
}

// Get returns the newest response recorded for requestID.
func (s *ResponseStore) Get(ctx context.Context, requestID string) (*response.Response, error) {
	var body []byte
	err := s.pool.QueryRow(ctx,
		`SELECT body FROM responses WHERE request_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`,
		requestID).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("response %s: %w", requestID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get response %s: %w", requestID, err)
	}
	var resp response.Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode response %s: %w", requestID, err)
	}
	return &resp, nil
}

// DomainStats is the per-domain approval record over stored responses.
type DomainStats struct {
	Domain       string  `json:"domain"`
	Dispatched   int     `json:"dispatched"`
	Approved     int     `json:"approved"`
	Failed       int     `json:"failed"`
	AverageScore float64 `json:"average_score"`
}

// DomainStats aggregates response_domains since the given time.
func (s *ResponseStore) DomainStats(ctx context.Context, since time.Time) ([]DomainStats, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT d.domain,
		        COUNT(*),
		        COUNT(*) FILTER (WHERE d.approved),
		        COUNT(*) FILTER (WHERE d.failure_reason <> ''),
		        COALESCE(AVG(d.quality_score), 0)
		 FROM response_domains d JOIN responses r ON r.id = d.response_id
		 WHERE r.created_at >= $1
		 GROUP BY d.domain ORDER BY d.domain`, since)
	if err != nil {
		return nil, fmt.Errorf("domain stats: %w", err)
	}
	defer rows.Close()

	var out []DomainStats
	for rows.Next() {
		var st DomainStats
		if err := rows.Scan(&st.Domain, &st.Dispatched, &st.Approved, &st.Failed, &st.AverageScore); err != nil {
			return nil, fmt.Errorf("scan domain stats: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func createdAt(resp *response.Response) time.Time {
	if resp.CreatedAt.IsZero() {
		return time.Now().UTC()
	}
	return resp.CreatedAt
}
