// Package store provides the durable backends for team state, the prize
// ledger, and the game-active flag. DocStore keeps schemaless JSON documents
// in SQLite tables and rewrites whole records on every mutation.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stadtaev/cityquest/internal/quest"
)

// DocStore implements quest.TeamStore, quest.PrizeLedger, and quest.StatusStore
// over per-model tables with JSONB data columns.
type DocStore struct {
	db *sql.DB
}

// NewDocStore creates the tables if needed.
func NewDocStore(ctx context.Context, db *sql.DB) (*DocStore, error) {
	for _, ddl := range []string{
		`CREATE TABLE IF NOT EXISTS teams (
			chat_id INTEGER PRIMARY KEY,
			name    TEXT UNIQUE NOT NULL,
			data    JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS prizes (
			threshold INTEGER PRIMARY KEY,
			data      JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS status (
			id     INTEGER PRIMARY KEY CHECK (id = 1),
			active INTEGER NOT NULL
		)`,
	} {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return nil, fmt.Errorf("creating table: %w", err)
		}
	}
	return &DocStore{db: db}, nil
}

func (s *DocStore) putTeam(ctx context.Context, tx *sql.Tx, team quest.Team) error {
	data, err := json.Marshal(team)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO teams (chat_id, name, data) VALUES (?, ?, jsonb(?))
		 ON CONFLICT(chat_id) DO UPDATE SET name = excluded.name, data = excluded.data`,
		team.ChatID, team.Name, string(data),
	)
	return err
}

// Register inserts the team unless the chat id is already known, in which case
// the existing record is returned unchanged. A taken name is ErrDuplicate.
func (s *DocStore) Register(ctx context.Context, team quest.Team) (quest.Team, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return quest.Team{}, err
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx,
		`SELECT json(data) FROM teams WHERE chat_id = ?`, team.ChatID,
	).Scan(&data)
	if err == nil {
		var existing quest.Team
		if err := json.Unmarshal([]byte(data), &existing); err != nil {
			return quest.Team{}, err
		}
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return quest.Team{}, err
	}

	var taken int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM teams WHERE name = ?`, team.Name,
	).Scan(&taken)
	if err != nil {
		return quest.Team{}, err
	}
	if taken > 0 {
		return quest.Team{}, fmt.Errorf("team name %q: %w", team.Name, quest.ErrDuplicate)
	}

	if err := s.putTeam(ctx, tx, team); err != nil {
		return quest.Team{}, err
	}
	if err := tx.Commit(); err != nil {
		return quest.Team{}, err
	}
	return team, nil
}

// Get loads a team by chat id.
func (s *DocStore) Get(ctx context.Context, chatID int64) (quest.Team, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM teams WHERE chat_id = ?`, chatID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return quest.Team{}, fmt.Errorf("team %d: %w", chatID, quest.ErrNotFound)
	}
	if err != nil {
		return quest.Team{}, err
	}
	var team quest.Team
	if err := json.Unmarshal([]byte(data), &team); err != nil {
		return quest.Team{}, err
	}
	return team, nil
}

// Save rewrites the whole team record in a transaction.
func (s *DocStore) Save(ctx context.Context, team quest.Team) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var n int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM teams WHERE chat_id = ?`, team.ChatID,
	).Scan(&n)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("team %d: %w", team.ChatID, quest.ErrNotFound)
	}

	if err := s.putTeam(ctx, tx, team); err != nil {
		return err
	}
	return tx.Commit()
}

// List returns all teams ordered by chat id.
func (s *DocStore) List(ctx context.Context) ([]quest.Team, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT json(data) FROM teams ORDER BY chat_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []quest.Team
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var t quest.Team
		if err := json.Unmarshal([]byte(data), &t); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// DeleteAll wipes the collection and returns the chat ids of teams that had
// any progress to show for it.
func (s *DocStore) DeleteAll(ctx context.Context) ([]int64, error) {
	teams, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var affected []int64
	for _, t := range teams {
		if t.Score > 0 || len(t.CompletedPoints) > 0 {
			affected = append(affected, t.ChatID)
		}
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM teams`); err != nil {
		return nil, err
	}
	return affected, nil
}

// Claim writes the prize record unless the threshold row already exists. The
// conflict clause makes the check-and-set a single statement, so concurrent
// claims for one threshold resolve to exactly one winner.
func (s *DocStore) Claim(ctx context.Context, rec quest.PrizeRecord) (bool, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO prizes (threshold, data) VALUES (?, jsonb(?))
		 ON CONFLICT(threshold) DO NOTHING`,
		rec.Threshold, string(data),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Awards returns the claimed ledger entries ordered by threshold.
func (s *DocStore) Awards(ctx context.Context) ([]quest.PrizeRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT json(data) FROM prizes ORDER BY threshold`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []quest.PrizeRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r quest.PrizeRecord
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// Clear empties the prize ledger.
func (s *DocStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM prizes`)
	return err
}

// Active reads the game flag; absent row means inactive.
func (s *DocStore) Active(ctx context.Context) (bool, error) {
	var active int
	err := s.db.QueryRowContext(ctx,
		`SELECT active FROM status WHERE id = 1`,
	).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return active != 0, nil
}

// SetActive persists the game flag.
func (s *DocStore) SetActive(ctx context.Context, active bool) error {
	v := 0
	if active {
		v = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO status (id, active) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET active = excluded.active`,
		v,
	)
	return err
}

var (
	_ quest.TeamStore   = (*DocStore)(nil)
	_ quest.PrizeLedger = (*DocStore)(nil)
	_ quest.StatusStore = (*DocStore)(nil)
)
