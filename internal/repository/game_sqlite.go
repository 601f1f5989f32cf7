package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/infinite-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/entity"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/snapshot"
)

type sqliteGame struct {
	db *sql.DB
}

// NewSQLiteGameRepository - repository on top of a database prepared with storage.Storage.Init.
func NewSQLiteGameRepository(db *sql.DB) GameRepository {
	return &sqliteGame{
		db: db,
	}
}

func (that *sqliteGame) CreateOrUpdate(ctx context.Context, id string, game entity.Snapshot) error {
	gameJSON, err := snapshot.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	query := `INSERT INTO games (id, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`

	if _, err = that.db.ExecContext(ctx, query, id, string(gameJSON), time.Now().UTC().UnixMilli()); err != nil {
		return fmt.Errorf("failed to save game: %w", err)
	}

	return nil
}

func (that *sqliteGame) GetByID(ctx context.Context, id string) (entity.Snapshot, error) {
	var state string

	err := that.db.QueryRowContext(ctx, `SELECT state FROM games WHERE id = ?`, id).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Snapshot{}, apperror.ErrGameNotFound
	}

	if err != nil {
		return entity.Snapshot{}, fmt.Errorf("failed to get game by id: %w", err)
	}

	game, err := snapshot.Unmarshal([]byte(state))
	if err != nil {
		return entity.Snapshot{}, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return game, nil
}

func (that *sqliteGame) DeleteByID(ctx context.Context, id string) error {
	result, err := that.db.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete game by id: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to count deleted games: %w", err)
	}

	if affected == 0 {
		return apperror.ErrGameNotFound
	}

	return nil
}
