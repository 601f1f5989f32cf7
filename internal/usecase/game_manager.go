package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/entity"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/snapshot"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/tictactoe"
)

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, id string, game entity.Snapshot) error
	GetByID(ctx context.Context, id string) (entity.Snapshot, error)
	DeleteByID(ctx context.Context, id string) error
}

// GameManager - hosts games by ID. Operations on one game run one at a time,
// so a move is validated and applied as a single unit.
type GameManager struct {
	logger   *slog.Logger
	gameRepo gameRepo
	rules    tictactoe.Rules

	mu    sync.Mutex
	locks map[string]*gameLock
}

type gameLock struct {
	sync.Mutex
	refs int
}

func NewGameManager(logger *slog.Logger, gameRepo gameRepo, rules tictactoe.Rules) *GameManager {
	return &GameManager{
		logger:   logger.With("component", "game_manager"),
		gameRepo: gameRepo,
		rules:    rules,
		locks:    make(map[string]*gameLock),
	}
}

// CreateGame - starts a new game and returns its ID.
func (that *GameManager) CreateGame(ctx context.Context) (string, entity.Snapshot, error) {
	gameID := uuid.NewString()
	game := tictactoe.NewGameController(that.rules).Snapshot()

	if err := that.gameRepo.CreateOrUpdate(ctx, gameID, game); err != nil {
		return "", entity.Snapshot{}, fmt.Errorf("failed to create game: %w", err)
	}

	that.logger.Debug("game created", "game_id", gameID)

	return gameID, game, nil
}

func (that *GameManager) GetGame(ctx context.Context, gameID string) (entity.Snapshot, error) {
	unlock := that.lock(gameID)
	defer unlock()

	controller, err := that.load(ctx, gameID)
	if err != nil {
		return entity.Snapshot{}, err
	}

	return controller.Snapshot(), nil
}

// OccupantAt - mark at coord in the given game, false for an empty cell.
func (that *GameManager) OccupantAt(ctx context.Context, gameID string, coord entity.Coordinate) (entity.Mark, bool, error) {
	game, err := that.GetGame(ctx, gameID)
	if err != nil {
		return "", false, err
	}

	mark, ok := game.OccupantAt(coord)

	return mark, ok, nil
}

// MakeMove - places the mark of the player to move. Rejected moves return
// apperror.ErrCellOccupied or apperror.ErrGameFinished and store nothing.
func (that *GameManager) MakeMove(ctx context.Context, gameID string, coord entity.Coordinate) (entity.Snapshot, error) {
	log := that.logger.With("method", "MakeMove", "game_id", gameID)

	unlock := that.lock(gameID)
	defer unlock()

	controller, err := that.load(ctx, gameID)
	if err != nil {
		return entity.Snapshot{}, err
	}

	game, err := controller.MakeTurn(coord)
	if err != nil {
		return entity.Snapshot{}, fmt.Errorf("failed make turn: %w", err)
	}

	if err = that.updateGame(ctx, gameID, game); err != nil {
		return entity.Snapshot{}, err
	}

	if record, ok := game.Win(); ok {
		log.Info("game won", "winner", record.Mark, "moves", game.MoveCount())
	}

	return game, nil
}

// ResetGame - replaces the game with a new one under the same ID.
func (that *GameManager) ResetGame(ctx context.Context, gameID string) (entity.Snapshot, error) {
	unlock := that.lock(gameID)
	defer unlock()

	controller, err := that.load(ctx, gameID)
	if err != nil {
		return entity.Snapshot{}, err
	}

	game := controller.Reset()
	if err = that.updateGame(ctx, gameID, game); err != nil {
		return entity.Snapshot{}, err
	}

	return game, nil
}

func (that *GameManager) DeleteGame(ctx context.Context, gameID string) error {
	unlock := that.lock(gameID)
	defer unlock()

	if err := that.gameRepo.DeleteByID(ctx, gameID); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	return nil
}

// load - reads a stored game. Unreadable data is replaced by a new game instead of failing the call.
func (that *GameManager) load(ctx context.Context, gameID string) (*tictactoe.GameController, error) {
	log := that.logger.With("method", "load", "game_id", gameID)

	game, err := that.gameRepo.GetByID(ctx, gameID)
	switch {
	case err == nil:
	case errors.Is(err, apperror.ErrGameNotFound):
		return nil, fmt.Errorf("%w: %s", apperror.ErrGameNotFound, gameID)
	case errors.Is(err, snapshot.ErrMalformed):
		log.Warn("stored game is malformed, starting a new one", "error", err)
		return that.replaceWithNewGame(ctx, gameID)
	default:
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	controller, err := tictactoe.RestoreGameController(that.rules, game)
	if err != nil {
		log.Warn("stored game can't be restored, starting a new one", "error", err)
		return that.replaceWithNewGame(ctx, gameID)
	}

	return controller, nil
}

func (that *GameManager) replaceWithNewGame(ctx context.Context, gameID string) (*tictactoe.GameController, error) {
	controller := tictactoe.NewGameController(that.rules)

	if err := that.updateGame(ctx, gameID, controller.Snapshot()); err != nil {
		return nil, err
	}

	return controller, nil
}

func (that *GameManager) updateGame(ctx context.Context, gameID string, game entity.Snapshot) error {
	if err := that.gameRepo.CreateOrUpdate(ctx, gameID, game); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	return nil
}

// lock - serializes operations on one game. Locks of idle games are dropped.
func (that *GameManager) lock(gameID string) func() {
	that.mu.Lock()
	l, ok := that.locks[gameID]
	if !ok {
		l = &gameLock{}
		that.locks[gameID] = l
	}
	l.refs++
	that.mu.Unlock()

	l.Lock()

	return func() {
		l.Unlock()

		that.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(that.locks, gameID)
		}
		that.mu.Unlock()
	}
}
