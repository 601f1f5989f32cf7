package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/entity"
	"github.com/rocketscienceinc/infinite-tictactoe/internal/snapshot"
)

const maxBodyBytes = 1 << 10

type gameManager interface {
	CreateGame(ctx context.Context) (string, entity.Snapshot, error)
	GetGame(ctx context.Context, gameID string) (entity.Snapshot, error)
	OccupantAt(ctx context.Context, gameID string, coord entity.Coordinate) (entity.Mark, bool, error)
	MakeMove(ctx context.Context, gameID string, coord entity.Coordinate) (entity.Snapshot, error)
	ResetGame(ctx context.Context, gameID string) (entity.Snapshot, error)
	DeleteGame(ctx context.Context, gameID string) error
}

type gameResponse struct {
	ID    string         `json:"id"`
	State snapshot.State `json:"state"`
}

type cellResponse struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Player *string `json:"player"`
}

type moveRequest struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type handlers struct {
	logger *slog.Logger
	games  gameManager
}

func newHandlers(logger *slog.Logger, games gameManager) *handlers {
	return &handlers{
		logger: logger.With("component", "rest_handlers"),
		games:  games,
	}
}

func (that *handlers) ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		that.logger.Error("failed to write ping response", "error", err)
	}
}

func (that *handlers) createGame(w http.ResponseWriter, r *http.Request) {
	gameID, game, err := that.games.CreateGame(r.Context())
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusCreated, gameResponse{ID: gameID, State: snapshot.Encode(game)})
}

func (that *handlers) getGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")

	game, err := that.games.GetGame(r.Context(), gameID)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, gameResponse{ID: gameID, State: snapshot.Encode(game)})
}

func (that *handlers) getCell(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.Atoi(chi.URLParam(r, "x"))
	y, errY := strconv.Atoi(chi.URLParam(r, "y"))
	if errX != nil || errY != nil {
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "coordinates must be integers", Code: "bad_request"})
		return
	}

	mark, ok, err := that.games.OccupantAt(r.Context(), chi.URLParam(r, "id"), entity.NewCoordinate(x, y))
	if err != nil {
		that.writeError(w, err)
		return
	}

	response := cellResponse{X: x, Y: y}
	if ok {
		player := string(mark)
		response.Player = &player
	}

	that.writeJSON(w, http.StatusOK, response)
}

func (that *handlers) makeMove(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")

	var req moveRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil || req.X == nil || req.Y == nil {
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: `body must be {"x": int, "y": int}`, Code: "bad_request"})
		return
	}

	game, err := that.games.MakeMove(r.Context(), gameID, entity.NewCoordinate(*req.X, *req.Y))
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, gameResponse{ID: gameID, State: snapshot.Encode(game)})
}

func (that *handlers) resetGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")

	game, err := that.games.ResetGame(r.Context(), gameID)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, gameResponse{ID: gameID, State: snapshot.Encode(game)})
}

func (that *handlers) deleteGame(w http.ResponseWriter, r *http.Request) {
	if err := that.games.DeleteGame(r.Context(), chi.URLParam(r, "id")); err != nil {
		that.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeError - maps domain errors to HTTP statuses.
func (that *handlers) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperror.ErrCellOccupied):
		that.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "cell_occupied"})
	case errors.Is(err, apperror.ErrGameFinished):
		that.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "game_over"})
	case errors.Is(err, apperror.ErrGameNotFound):
		that.writeJSON(w, http.StatusNotFound, errorResponse{Error: "game not found", Code: "not_found"})
	default:
		that.logger.Error("request failed", "error", err)
		that.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func (that *handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
