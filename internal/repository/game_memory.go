package repository

import (
	"context"
	"sync"

	"github.com/rocketscienceinc/infinite-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/entity"
)

// memoryGame keeps snapshots in process. Snapshots are immutable, so they are stored as is.
type memoryGame struct {
	mu    sync.RWMutex
	games map[string]entity.Snapshot
}

func NewMemoryGameRepository() GameRepository {
	return &memoryGame{
		games: make(map[string]entity.Snapshot),
	}
}

func (that *memoryGame) CreateOrUpdate(_ context.Context, id string, game entity.Snapshot) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.games[id] = game

	return nil
}

func (that *memoryGame) GetByID(_ context.Context, id string) (entity.Snapshot, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	game, ok := that.games[id]
	if !ok {
		return entity.Snapshot{}, apperror.ErrGameNotFound
	}

	return game, nil
}

func (that *memoryGame) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.games[id]; !ok {
		return apperror.ErrGameNotFound
	}

	delete(that.games, id)

	return nil
}
