package poi

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-vibes-recommender/app/observability/metrics"
	"github.com/FACorreiaa/go-vibes-recommender/internal/types"
)

// DB is the part of *pgxpool.Pool the repository uses.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Record is one indexed POI: the document, its metadata and its embedding.
type Record struct {
	ID        uuid.UUID
	Document  string
	Metadata  types.POIMetadata
	Embedding []float32
}

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	// FindSimilarByZone returns the zone's POIs closest to embedding by cosine distance, nearest first.
	FindSimilarByZone(ctx context.Context, embedding []float32, zone string, limit int) ([]types.POICandidate, error)
	InsertPOIs(ctx context.Context, records []Record) (int, error)
	Count(ctx context.Context) (int, error)
	CountByZone(ctx context.Context) (map[string]int, error)
}

type RepositoryImpl struct {
	logger  *slog.Logger
	pgpool  DB
	metrics *metrics.AppMetrics
}

// NewRepository takes a *pgxpool.Pool or any DB. m may be nil.
func NewRepository(pgpool DB, m *metrics.AppMetrics, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger:  logger,
		pgpool:  pgpool,
		metrics: m,
	}
}

func (r *RepositoryImpl) observe(ctx context.Context, operation string, start time.Time, err error) {
	if r.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("db.operation", operation))
	r.metrics.DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		r.metrics.DbQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}

func (r *RepositoryImpl) FindSimilarByZone(ctx context.Context, embedding []float32, zone string, limit int) (pois []types.POICandidate, err error) {
	ctx, span := otel.Tracer("POIRepository").Start(ctx, "FindSimilarByZone", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("zone", zone),
		attribute.Int("embedding.dimension", len(embedding)),
		attribute.Int("limit", limit),
	))
	defer span.End()
	defer func(start time.Time) { r.observe(ctx, "find_similar_by_zone", start, err) }(time.Now())

	l := r.logger.With(slog.String("method", "FindSimilarByZone"))

	query := `
        SELECT
            id,
            document,
            zone,
            categories,
            address,
            latitude,
            longitude,
            name,
            price_tier,
            bayesian_rating,
            embedding <=> $1 AS distance
        FROM pois
        WHERE zone = $2
        ORDER BY embedding <=> $1
        LIMIT $3
    `

	rows, err := r.pgpool.Query(ctx, query, pgvector.NewVector(embedding), zone, limit)
	if err != nil {
		l.ErrorContext(ctx, "Failed to query similar POIs by zone", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database query failed")
		return nil, fmt.Errorf("failed to search similar POIs in zone %q: %w", zone, err)
	}
	defer rows.Close()

	pois = make([]types.POICandidate, 0, limit)
	for rows.Next() {
		var (
			poi       types.POICandidate
			id        uuid.UUID
			address   sql.NullString
			priceTier sql.NullString
		)
		err = rows.Scan(
			&id,
			&poi.Document,
			&poi.Zone,
			&poi.Categories,
			&address,
			&poi.Latitude,
			&poi.Longitude,
			&poi.Name,
			&priceTier,
			&poi.BayesianRating,
			&poi.Distance,
		)
		if err != nil {
			l.ErrorContext(ctx, "Failed to scan similar POI row", slog.Any("error", err))
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan similar POI row: %w", err)
		}
		poi.ID = id.String()
		if address.Valid {
			poi.Address = address.String
		}
		if priceTier.Valid {
			poi.PriceTier = types.PriceTier(priceTier.String)
		}
		pois = append(pois, poi)
	}

	if err = rows.Err(); err != nil {
		l.ErrorContext(ctx, "Error iterating similar POI rows", slog.Any("error", err))
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating similar POI rows: %w", err)
	}

	l.DebugContext(ctx, "Similar POIs by zone found",
		slog.String("zone", zone),
		slog.Int("count", len(pois)))
	span.SetAttributes(attribute.Int("results.count", len(pois)))
	span.SetStatus(codes.Ok, "Similar POIs by zone found")
	return pois, nil
}

// InsertPOIs stores records in one transaction and returns how many were inserted.
func (r *RepositoryImpl) InsertPOIs(ctx context.Context, records []Record) (inserted int, err error) {
	ctx, span := otel.Tracer("POIRepository").Start(ctx, "InsertPOIs", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.Int("records.count", len(records)),
	))
	defer span.End()
	defer func(start time.Time) { r.observe(ctx, "insert_pois", start, err) }(time.Now())

	l := r.logger.With(slog.String("method", "InsertPOIs"))

	tx, err := r.pgpool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to begin transaction")
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				l.WarnContext(ctx, "Failed to rollback transaction", slog.Any("error", rbErr))
			}
		}
	}()

	query := `
        INSERT INTO pois (id, document, name, address, categories, zone, latitude, longitude, price_tier, bayesian_rating, embedding)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `
	for _, rec := range records {
		m := rec.Metadata
		if _, err = tx.Exec(ctx, query,
			rec.ID,
			rec.Document,
			m.Name,
			m.Address,
			m.Categories,
			m.Zone,
			m.Latitude,
			m.Longitude,
			string(m.PriceTier),
			m.BayesianRating,
			pgvector.NewVector(rec.Embedding),
		); err != nil {
			l.ErrorContext(ctx, "Failed to insert POI", slog.String("name", m.Name), slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "Insert failed")
			return 0, fmt.Errorf("failed to insert POI %q: %w", m.Name, err)
		}
		inserted++
	}

	if err = tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Commit failed")
		return 0, fmt.Errorf("failed to commit POI insert: %w", err)
	}

	l.InfoContext(ctx, "POIs inserted", slog.Int("count", inserted))
	span.SetStatus(codes.Ok, "POIs inserted")
	return inserted, nil
}

func (r *RepositoryImpl) Count(ctx context.Context) (count int, err error) {
	ctx, span := otel.Tracer("POIRepository").Start(ctx, "Count", trace.WithAttributes(semconv.DBSystemPostgreSQL))
	defer span.End()
	defer func(start time.Time) { r.observe(ctx, "count", start, err) }(time.Now())

	if err = r.pgpool.QueryRow(ctx, `SELECT COUNT(*) FROM pois`).Scan(&count); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Count failed")
		return 0, fmt.Errorf("failed to count POIs: %w", err)
	}
	span.SetStatus(codes.Ok, "Counted")
	return count, nil
}

func (r *RepositoryImpl) CountByZone(ctx context.Context) (counts map[string]int, err error) {
	ctx, span := otel.Tracer("POIRepository").Start(ctx, "CountByZone", trace.WithAttributes(semconv.DBSystemPostgreSQL))
	defer span.End()
	defer func(start time.Time) { r.observe(ctx, "count_by_zone", start, err) }(time.Now())

	rows, err := r.pgpool.Query(ctx, `SELECT zone, COUNT(*) FROM pois GROUP BY zone ORDER BY zone`)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Count by zone failed")
		return nil, fmt.Errorf("failed to count POIs by zone: %w", err)
	}
	defer rows.Close()

	counts = make(map[string]int)
	for rows.Next() {
		var zone string
		var n int
		if err = rows.Scan(&zone, &n); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan zone count: %w", err)
		}
		counts[zone] = n
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating zone counts: %w", err)
	}
	span.SetStatus(codes.Ok, "Counted by zone")
	return counts, nil
}
