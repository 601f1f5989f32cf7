package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/entity"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/snapshot"
)

const gameKeyPrefix = "game:"

// GameRepository - stores game snapshots by game ID. GetByID returns apperror.ErrGameNotFound
// for unknown IDs and an error wrapping snapshot.ErrMalformed for unreadable data.
type GameRepository interface {
	CreateOrUpdate(ctx context.Context, id string, game entity.Snapshot) error
	GetByID(ctx context.Context, id string) (entity.Snapshot, error)
	DeleteByID(ctx context.Context, id string) error
}

type dbGame struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGameRepository - Redis backed repository. A zero ttl keeps games forever.
func NewGameRepository(client *redis.Client, ttl time.Duration) GameRepository {
	return &dbGame{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbGame) CreateOrUpdate(ctx context.Context, id string, game entity.Snapshot) error {
	gameJSON, err := snapshot.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	err = that.client.Set(ctx, gameKeyPrefix+id, gameJSON, that.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set game: %w", err)
	}

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, id string) (entity.Snapshot, error) {
	response, err := that.client.Get(ctx, gameKeyPrefix+id).Bytes()

	if errors.Is(err, redis.Nil) {
		return entity.Snapshot{}, apperror.ErrGameNotFound
	}

	if err != nil {
		return entity.Snapshot{}, fmt.Errorf("failed to get game by id: %w", err)
	}

	game, err := snapshot.Unmarshal(response)
	if err != nil {
		return entity.Snapshot{}, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return game, nil
}

func (that *dbGame) DeleteByID(ctx context.Context, id string) error {
	deleted, err := that.client.Del(ctx, gameKeyPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete game by id: %w", err)
	}

	if deleted == 0 {
		return apperror.ErrGameNotFound
	}

	return nil
}
