package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	derr "github.com/ozzus/fan-stay/internal/domain/errors"
	"github.com/ozzus/fan-stay/internal/domain/models"
)

type Repository struct {
	db *pgxpool.Pool
}

func New(ctx context.Context, dsn string) (*Repository, error) {
	poolCfg, err := buildPoolConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Repository{db: pool}, nil
}

func buildPoolConfig(dsn string) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx pool config: %w", err)
	}
	poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	poolCfg.ConnConfig.StatementCacheCapacity = 0
	poolCfg.ConnConfig.DescriptionCacheCapacity = 0

	return poolCfg, nil
}

func (r *Repository) Close() {
	r.db.Close()
}

// Ping reports whether the pool can reach the database.
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// SaveSession stores the latest snapshot of a booking session. The full
// session is kept as jsonb next to the columns used for lookups.
func (r *Repository) SaveSession(ctx context.Context, session models.BookingSession) error {
	payload, err := sessionPayload(session)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO booking_sessions (session_id, user_id, property_id, order_id, state, payload, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6::jsonb, $7)
		ON CONFLICT (session_id) DO UPDATE SET
			order_id   = EXCLUDED.order_id,
			state      = EXCLUDED.state,
			payload    = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.PropertyID,
		session.OrderID,
		session.State.String(),
		string(payload),
		session.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert booking session: %w", err)
	}
	return nil
}

// LoadSession reads a stored session back, for instance after a restart.
func (r *Repository) LoadSession(ctx context.Context, sessionID string) (models.BookingSession, error) {
	const query = `SELECT payload FROM booking_sessions WHERE session_id = $1`

	var payload []byte
	if err := r.db.QueryRow(ctx, query, sessionID).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.BookingSession{}, derr.ErrSessionNotFound
		}
		return models.BookingSession{}, fmt.Errorf("query booking session: %w", err)
	}

	return decodeSessionPayload(payload)
}

func (r *Repository) UpsertOrder(ctx context.Context, order models.Order) error {
	if strings.TrimSpace(order.ID) == "" {
		return fmt.Errorf("upsert order: empty order id")
	}

	const query = `
		INSERT INTO orders (order_id, user_id, property_id, status, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (order_id) DO UPDATE SET
			status     = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.Exec(ctx, query, order.ID, order.UserID, order.PropertyID, string(order.Status), order.UpdatedAt.UTC()); err != nil {
		return fmt.Errorf("upsert order: %w", err)
	}
	return nil
}

func (r *Repository) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	const query = `
		SELECT order_id, user_id, property_id, status, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]models.Order, 0)
	for rows.Next() {
		var (
			order  models.Order
			status string
		)
		if err := rows.Scan(&order.ID, &order.UserID, &order.PropertyID, &status, &order.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		order.Status = models.OrderStatus(status)
		order.UpdatedAt = order.UpdatedAt.UTC()
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	return orders, nil
}

func decodeSessionPayload(payload []byte) (models.BookingSession, error) {
	var session models.BookingSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return models.BookingSession{}, fmt.Errorf("unmarshal booking session: %w", err)
	}
	session.Loading = false
	return session, nil
}

// sessionPayload drops the transient loading flag before storing.
func sessionPayload(session models.BookingSession) ([]byte, error) {
	session.Loading = false
	payload, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("marshal booking session: %w", err)
	}
	return payload, nil
}
