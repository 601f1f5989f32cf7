package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rocketscienceinc/infinite-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/entity"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/repository"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/snapshot"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/tictactoe"
	mockedUseCase "github.com/rocketscienceinc/infinite-tictactoe/mocks/usecase"
	"github.com/rocketscienceinc/infinite-tictactoe/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errRedisDown = errors.New("redis down")

func newGame() entity.Snapshot {
	return tictactoe.NewGameController(tictactoe.DefaultRules()).Snapshot()
}

func gameAfter(t *testing.T, moves ...entity.Coordinate) entity.Snapshot {
	t.Helper()

	controller := tictactoe.NewGameController(tictactoe.DefaultRules())
	for _, move := range moves {
		_, err := controller.MakeTurn(move)
		require.NoError(t, err)
	}

	return controller.Snapshot()
}

func xWins() []entity.Coordinate {
	return []entity.Coordinate{
		{X: 0, Y: 0}, {X: 0, Y: 1},
		{X: 1, Y: 0}, {X: 1, Y: 1},
		{X: 2, Y: 0}, {X: 2, Y: 1},
		{X: 3, Y: 0}, {X: 3, Y: 1},
		{X: 4, Y: 0},
	}
}

func TestGameManager_CreateGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Stores a new game under a fresh id", func(t *testing.T) {
		// Given: a repository accepting the new game
		repo := mockedUseCase.NewMockgameRepo(t)
		manager := NewGameManager(suite.NewLogger(), repo, tictactoe.DefaultRules())

		repo.EXPECT().CreateOrUpdate(ctx, mock.AnythingOfType("string"), newGame()).
			Return(nil).
			Once()

		// When: creating a game
		gameID, game, err := manager.CreateGame(ctx)

		// Then: the new game is returned with an id
		require.NoError(t, err)
		assert.NotEmpty(t, gameID)
		assert.Equal(t, newGame(), game)
	})

	t.Run("Returns error if the repository fails", func(t *testing.T) {
		repo := mockedUseCase.NewMockgameRepo(t)
		manager := NewGameManager(suite.NewLogger(), repo, tictactoe.DefaultRules())

		repo.EXPECT().CreateOrUpdate(ctx, mock.AnythingOfType("string"), mock.Anything).
			Return(errRedisDown).
			Once()

		gameID, _, err := manager.CreateGame(ctx)

		require.ErrorIs(t, err, errRedisDown)
		assert.Empty(t, gameID)
	})
}

func TestGameManager_GetGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Returns the stored game", func(t *testing.T) {
		repo := mockedUseCase.NewMockgameRepo(t)
		manager := NewGameManager(suite.NewLogger(), repo, tictactoe.DefaultRules())
		stored := gameAfter(t, entity.Coordinate{X: 3, Y: 3})

		repo.EXPECT().GetByID(ctx, "g1").Return(stored, nil).Once()

		game, err := manager.GetGame(ctx, "g1")

		require.NoError(t, err)
		assert.Equal(t, stored, game)
	})

	t.Run("Returns ErrGameNotFound for unknown id", func(t *testing.T) {
		repo := mockedUseCase.NewMockgameRepo(t)
		manager := NewGameManager(suite.NewLogger(), repo, tictactoe.DefaultRules())

		repo.EXPECT().GetByID(ctx, "nope").Return(entity.Snapshot{}, apperror.ErrGameNotFound).Once()

		_, err := manager.GetGame(ctx, "nope")

		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})

	t.Run("Returns storage errors", func(t *testing.T) {
		repo := mockedUseCase.NewMockgameRepo(t)
		manager := NewGameManager(suite.NewLogger(), repo, tictactoe.DefaultRules())

		repo.EXPECT().GetByID(ctx, "g1").Return(entity.Snapshot{}, errRedisDown).Once()

		_, err := manager.GetGame(ctx, "g1")

		require.ErrorIs(t, err, errRedisDown)
	})

	t.Run("Falls back to a new game when the stored one is malformed", func(t *testing.T) {
		// Given: a repository holding unreadable data
		repo := mockedUseCase.NewMockgameRepo(t)
		manager := NewGameManager(suite.NewLogger(), repo, tictactoe.DefaultRules())

		repo.EXPECT().GetByID(ctx, "g1").
			Return(entity.Snapshot{}, fmt.Errorf("failed to unmarshal game: %w", snapshot.ErrMalformed)).
			Once()
		repo.EXPECT().CreateOrUpdate(ctx, "g1", newGame()).Return(nil).Once()

		// When: reading the game
		game, err := manager.GetGame(ctx, "g1")

		// Then: a new game is returned and stored in place of the broken one
		require.NoError(t, err)
		assert.Equal(t, newGame(), game)
	})

	t.Run("Falls back to a new game when the stored one can't be restored", func(t *testing.T) {
		repo := mockedUseCase.NewMockgameRepo(t)
		manager := NewGameManager(suite.NewLogger(), repo, tictactoe.DefaultRules())

		broken := entity.NewSnapshot([]entity.Placement{
			{Coordinate: entity.Coordinate{X: 1, Y: 1}, Mark: entity.PlayerX},
			{Coordinate: entity.Coordinate{X: 1, Y: 1}, Mark: entity.PlayerO},
		}, entity.PlayerX, nil, entity.DefaultBounds(10))

		repo.EXPECT().GetByID(ctx, "g1").Return(broken, nil).Once()
		repo.EXPECT().CreateOrUpdate(ctx, "g1", newGame()).Return(nil).Once()

		game, err := manager.GetGame(ctx, "g1")

		require.NoError(t, err)
		assert.Equal(t, newGame(), game)
	})

	t.Run("Falls back to a new game when the stored win is not a full line", func(t *testing.T) {
		// Given: a stored game whose win is a single cell
		repo := mockedUseCase.NewMockgameRepo(t)
		manager := NewGameManager(suite.NewLogger(), repo, tictactoe.DefaultRules())

		broken := entity.NewSnapshot([]entity.Placement{
			{Coordinate: entity.Coordinate{X: 0, Y: 0}, Mark: entity.PlayerX},
		}, entity.PlayerO, &entity.WinRecord{
			Mark: entity.PlayerX,
			Line: []entity.Coordinate{{X: 0, Y: 0}},
		}, entity.DefaultBounds(10))

		repo.EXPECT().GetByID(ctx, "g1").Return(broken, nil).Once()
		repo.EXPECT().CreateOrUpdate(ctx, "g1", newGame()).Return(nil).Once()

		// When: reading the game
		game, err := manager.GetGame(ctx, "g1")

		// Then: a new, unfinished game replaces it
		require.NoError(t, err)
		assert.Equal(t, newGame(), game)
		assert.False(t, game.IsOver())
	})
}

func TestGameManager_OccupantAt(t *testing.T) {
	ctx := context.Background()
	repo := mockedUseCase.NewMockgameRepo(t)
	manager := NewGameManager(suite.NewLogger(), repo, tictactoe.DefaultRules())

	repo.EXPECT().GetByID(ctx, "g1").Return(gameAfter(t, entity.Coordinate{X: -5, Y: 8}), nil).Twice()

	mark, ok, err := manager.OccupantAt(ctx, "g1", entity.Coordinate{X: -5, Y: 8})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, entity.PlayerX, mark)

	_, ok, err = manager.OccupantAt(ctx, "g1", entity.Coordinate{X: 0, Y: 0})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGameManager_MakeMove(t *testing.T) {
	ctx := context.Background()

	t.Run("Successful move is stored", func(t *testing.T) {
		// Given: a stored new game
		repo := mockedUseCase.NewMockgameRepo(t)
		manager := NewGameManager(suite.NewLogger(), repo, tictactoe.DefaultRules())
		expected := gameAfter(t, entity.Coordinate{X: 2, Y: -2})

		repo.EXPECT().GetByID(ctx, "g1").Return(newGame(), nil).Once()
		repo.EXPECT().CreateOrUpdate(ctx, "g1", expected).Return(nil).Once()

		// When: X moves
		game, err := manager.MakeMove(ctx, "g1", entity.Coordinate{X: 2, Y: -2})

		// Then: the new state is returned and stored
		require.NoError(t, err)
		assert.Equal(t, expected, game)
		assert.Equal(t, entity.PlayerO, game.Turn())
	})

	t.Run("Occupied cell is rejected and nothing is stored", func(t *testing.T) {
		repo := mockedUseCase.NewMockgameRepo(t)
		manager := NewGameManager(suite.NewLogger(), repo, tictactoe.DefaultRules())

		repo.EXPECT().GetByID(ctx, "g1").Return(gameAfter(t, entity.Coordinate{X: 0, Y: 0}), nil).Once()

		_, err := manager.MakeMove(ctx, "g1", entity.Coordinate{X: 0, Y: 0})

		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		repo.AssertNotCalled(t, "CreateOrUpdate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Move after the game is won is rejected", func(t *testing.T) {
		repo := mockedUseCase.NewMockgameRepo(t)
		manager := NewGameManager(suite.NewLogger(), repo, tictactoe.DefaultRules())

		repo.EXPECT().GetByID(ctx, "g1").Return(gameAfter(t, xWins()...), nil).Once()

		_, err := manager.MakeMove(ctx, "g1", entity.Coordinate{X: 50, Y: 50})

		require.ErrorIs(t, err, apperror.ErrGameFinished)
		repo.AssertNotCalled(t, "CreateOrUpdate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Winning move is stored with the win", func(t *testing.T) {
		repo := mockedUseCase.NewMockgameRepo(t)
		manager := NewGameManager(suite.NewLogger(), repo, tictactoe.DefaultRules())
		moves := xWins()

		repo.EXPECT().GetByID(ctx, "g1").Return(gameAfter(t, moves[:len(moves)-1]...), nil).Once()
		repo.EXPECT().CreateOrUpdate(ctx, "g1", gameAfter(t, moves...)).Return(nil).Once()

		game, err := manager.MakeMove(ctx, "g1", moves[len(moves)-1])

		require.NoError(t, err)
		record, ok := game.Win()
		require.True(t, ok)
		assert.Equal(t, entity.PlayerX, record.Mark)
	})

	t.Run("Returns error if the game can't be saved", func(t *testing.T) {
		repo := mockedUseCase.NewMockgameRepo(t)
		manager := NewGameManager(suite.NewLogger(), repo, tictactoe.DefaultRules())

		repo.EXPECT().GetByID(ctx, "g1").Return(newGame(), nil).Once()
		repo.EXPECT().CreateOrUpdate(ctx, "g1", mock.Anything).Return(errRedisDown).Once()

		_, err := manager.MakeMove(ctx, "g1", entity.Coordinate{X: 0, Y: 0})

		require.ErrorIs(t, err, errRedisDown)
	})

	t.Run("Unknown game", func(t *testing.T) {
		repo := mockedUseCase.NewMockgameRepo(t)
		manager := NewGameManager(suite.NewLogger(), repo, tictactoe.DefaultRules())

		repo.EXPECT().GetByID(ctx, "nope").Return(entity.Snapshot{}, apperror.ErrGameNotFound).Once()

		_, err := manager.MakeMove(ctx, "nope", entity.Coordinate{X: 0, Y: 0})

		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})
}

func TestGameManager_ResetGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Finished game is replaced by a new one", func(t *testing.T) {
		// Given: a won game
		repo := mockedUseCase.NewMockgameRepo(t)
		manager := NewGameManager(suite.NewLogger(), repo, tictactoe.DefaultRules())

		repo.EXPECT().GetByID(ctx, "g1").Return(gameAfter(t, xWins()...), nil).Once()
		repo.EXPECT().CreateOrUpdate(ctx, "g1", newGame()).Return(nil).Once()

		// When: resetting it
		game, err := manager.ResetGame(ctx, "g1")

		// Then: a new game is stored and returned
		require.NoError(t, err)
		assert.Equal(t, newGame(), game)
	})
}

func TestGameManager_DeleteGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Deletes the stored game", func(t *testing.T) {
		repo := mockedUseCase.NewMockgameRepo(t)
		manager := NewGameManager(suite.NewLogger(), repo, tictactoe.DefaultRules())

		repo.EXPECT().DeleteByID(ctx, "g1").Return(nil).Once()

		require.NoError(t, manager.DeleteGame(ctx, "g1"))
	})

	t.Run("Unknown game", func(t *testing.T) {
		repo := mockedUseCase.NewMockgameRepo(t)
		manager := NewGameManager(suite.NewLogger(), repo, tictactoe.DefaultRules())

		repo.EXPECT().DeleteByID(ctx, "nope").Return(apperror.ErrGameNotFound).Once()

		require.ErrorIs(t, manager.DeleteGame(ctx, "nope"), apperror.ErrGameNotFound)
	})
}

func TestGameManager_ConcurrentMoves(t *testing.T) {
	ctx := context.Background()

	// Given: a game in a shared repository
	manager := NewGameManager(suite.NewLogger(), repository.NewMemoryGameRepository(), tictactoe.DefaultRules())
	gameID, _, err := manager.CreateGame(ctx)
	require.NoError(t, err)

	// When: many callers race for the same cell
	const callers = 32

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		occupied int
		failures []error
	)

	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := manager.MakeMove(ctx, gameID, entity.Coordinate{X: 7, Y: 7})

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				accepted++
			case errors.Is(err, apperror.ErrCellOccupied):
				occupied++
			default:
				failures = append(failures, err)
			}
		}()
	}
	wg.Wait()

	// Then: exactly one move is accepted
	assert.Empty(t, failures)
	assert.Equal(t, 1, accepted)
	assert.Equal(t, callers-1, occupied)

	game, err := manager.GetGame(ctx, gameID)
	require.NoError(t, err)
	assert.Equal(t, 1, game.MoveCount())

	// And: no per-game lock is left behind
	manager.mu.Lock()
	defer manager.mu.Unlock()
	assert.Empty(t, manager.locks)
}
