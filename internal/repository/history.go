package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Record is one finished-match outcome from a single participant's point of
// view. Every finished match produces one record per participant, including
// draws and forfeits.
type Record struct {
	PlayerID     string    `json:"player_id"`
	PlayerName   string    `json:"player_name"`
	OpponentName string    `json:"opponent_name"`
	GridSize     int       `json:"grid_size"`
	Result       string    `json:"result"`
	FinishedAt   time.Time `json:"finished_at"`
}

type HistoryRepository interface {
	Save(ctx context.Context, record *Record) error
	ListByPlayer(ctx context.Context, playerID string, limit int) ([]*Record, error)
}

type historyRepository struct {
	conn *sql.DB
}

func NewHistoryRepository(conn *sql.DB) HistoryRepository {
	return &historyRepository{
		conn: conn,
	}
}

func (that *historyRepository) Save(ctx context.Context, record *Record) error {
	query := `INSERT INTO match_history (player_id, player_name, opponent_name, grid_size, result, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := that.conn.ExecContext(ctx, query,
		record.PlayerID, record.PlayerName, record.OpponentName,
		record.GridSize, record.Result, record.FinishedAt)
	if err != nil {
		return fmt.Errorf("can't save match record: %w", err)
	}

	return nil
}

func (that *historyRepository) ListByPlayer(ctx context.Context, playerID string, limit int) ([]*Record, error) {
	query := `SELECT player_id, player_name, opponent_name, grid_size, result, finished_at
		FROM match_history WHERE player_id = ? ORDER BY finished_at DESC LIMIT ?`

	rows, err := that.conn.QueryContext(ctx, query, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("can't list match records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var record Record
		if err = rows.Scan(&record.PlayerID, &record.PlayerName, &record.OpponentName,
			&record.GridSize, &record.Result, &record.FinishedAt); err != nil {
			return nil, fmt.Errorf("can't scan match record: %w", err)
		}
		records = append(records, &record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't read match records: %w", err)
	}

	return records, nil
}
