package control_panel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	log "github.com/sirupsen/logrus"
)

// queryer is satisfied by *pgx.Conn, *pgxpool.Pool and pgx.Tx.
type queryer interface {
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
}

// PostgresStorage keeps each value as JSON in the calendar_state table. Reads
// return the raw JSON document, which calendar.Revive turns back into a calendar.
type PostgresStorage struct {
	db queryer
}

func NewPostgresStorage(db queryer) *PostgresStorage {
	return &PostgresStorage{db: db}
}

func (s *PostgresStorage) Read(ctx context.Context, id string) (any, error) {
	query := `SELECT snapshot FROM calendar_state WHERE id = $1`

	var snapshot []byte
	err := s.db.QueryRow(ctx, query, id).Scan(&snapshot)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		err := fmt.Errorf("failed when trying to read calendar state: %w", err)
		log.Error(err)
		return nil, err
	}
	return json.RawMessage(snapshot), nil
}

func (s *PostgresStorage) Write(ctx context.Context, id string, value any) error {
	var snapshot []byte
	switch v := value.(type) {
	case json.RawMessage:
		snapshot = v
	case []byte:
		snapshot = v
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("could not encode calendar state: %w", err)
		}
		snapshot = encoded
	}

	query := `INSERT INTO calendar_state (id, snapshot, updated_at)
				VALUES ($1, $2, now())
				ON CONFLICT (id) DO UPDATE SET
					snapshot = EXCLUDED.snapshot,
					updated_at = EXCLUDED.updated_at`

	_, err := s.db.Exec(ctx, query, id, string(snapshot))
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

func (s *PostgresStorage) Delete(ctx context.Context, id string) error {
	query := "DELETE FROM calendar_state WHERE id = $1"
	_, err := s.db.Exec(ctx, query, id)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return err
	}
	return nil
}
