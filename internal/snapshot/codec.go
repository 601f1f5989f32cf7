// Package snapshot converts game snapshots to and from their stored JSON form.
//
// The layout is the one the browser client keeps in local storage:
//
//	{
//	  "cells": [{"position": {"x": 0, "y": 0}, "player": "X"}],
//	  "currentPlayer": "O",
//	  "winner": null,
//	  "winningCells": [],
//	  "gridBounds": {"minX": -10, "maxX": 10, "minY": -10, "maxY": 10}
//	}
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rocketscienceinc/infinite-tictactoe/internal/entity"
)

var ErrMalformed = errors.New("malformed snapshot")

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Cell struct {
	Position Position `json:"position"`
	Player   string   `json:"player"`
}

type GridBounds struct {
	MinX int `json:"minX"`
	MaxX int `json:"maxX"`
	MinY int `json:"minY"`
	MaxY int `json:"maxY"`
}

// State - wire form of entity.Snapshot.
type State struct {
	Cells         []Cell      `json:"cells"`
	CurrentPlayer string      `json:"currentPlayer"`
	Winner        *string     `json:"winner"`
	WinningCells  []Position  `json:"winningCells"`
	GridBounds    *GridBounds `json:"gridBounds"`
}

// Encode - converts a snapshot into its wire form.
func Encode(snap entity.Snapshot) State {
	placements := snap.Placements()

	state := State{
		Cells:         make([]Cell, 0, len(placements)),
		CurrentPlayer: string(snap.Turn()),
		WinningCells:  []Position{},
	}

	for _, placement := range placements {
		state.Cells = append(state.Cells, Cell{
			Position: Position(placement.Coordinate),
			Player:   string(placement.Mark),
		})
	}

	if record, ok := snap.Win(); ok {
		winner := string(record.Mark)
		state.Winner = &winner
		for _, coord := range record.Line {
			state.WinningCells = append(state.WinningCells, Position(coord))
		}
	}

	bounds := GridBounds(snap.Bounds())
	state.GridBounds = &bounds

	return state
}

// Decode - validates the wire form and converts it into a snapshot.
func Decode(state State) (entity.Snapshot, error) {
	turn, err := entity.ParseMark(state.CurrentPlayer)
	if err != nil {
		return entity.Snapshot{}, fmt.Errorf("%w: current player: %w", ErrMalformed, err)
	}

	if state.GridBounds == nil {
		return entity.Snapshot{}, fmt.Errorf("%w: grid bounds are missing", ErrMalformed)
	}

	bounds := entity.Bounds(*state.GridBounds)
	if !bounds.Valid() {
		return entity.Snapshot{}, fmt.Errorf("%w: grid bounds %+v are inverted", ErrMalformed, bounds)
	}

	placements := make([]entity.Placement, 0, len(state.Cells))
	occupied := make(map[entity.Coordinate]entity.Mark, len(state.Cells))

	for i, cell := range state.Cells {
		mark, err := entity.ParseMark(cell.Player)
		if err != nil {
			return entity.Snapshot{}, fmt.Errorf("%w: cell %d: %w", ErrMalformed, i, err)
		}

		coord := entity.Coordinate(cell.Position)
		if _, ok := occupied[coord]; ok {
			return entity.Snapshot{}, fmt.Errorf("%w: cell (%d, %d) appears twice", ErrMalformed, coord.X, coord.Y)
		}

		occupied[coord] = mark
		placements = append(placements, entity.Placement{Coordinate: coord, Mark: mark})
	}

	win, err := decodeWin(state, occupied)
	if err != nil {
		return entity.Snapshot{}, err
	}

	return entity.NewSnapshot(placements, turn, win, bounds), nil
}

func decodeWin(state State, occupied map[entity.Coordinate]entity.Mark) (*entity.WinRecord, error) {
	if state.Winner == nil {
		if len(state.WinningCells) > 0 {
			return nil, fmt.Errorf("%w: winning cells without a winner", ErrMalformed)
		}
		return nil, nil
	}

	mark, err := entity.ParseMark(*state.Winner)
	if err != nil {
		return nil, fmt.Errorf("%w: winner: %w", ErrMalformed, err)
	}

	if len(state.WinningCells) == 0 {
		return nil, fmt.Errorf("%w: winner without winning cells", ErrMalformed)
	}

	line := make([]entity.Coordinate, 0, len(state.WinningCells))
	for _, position := range state.WinningCells {
		coord := entity.Coordinate(position)
		if occupied[coord] != mark {
			return nil, fmt.Errorf("%w: winning cell (%d, %d) is not held by %s", ErrMalformed, coord.X, coord.Y, mark)
		}
		line = append(line, coord)
	}

	return &entity.WinRecord{Mark: mark, Line: line}, nil
}

// Marshal - serializes a snapshot.
func Marshal(snap entity.Snapshot) ([]byte, error) {
	data, err := json.Marshal(Encode(snap))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return data, nil
}

// Unmarshal - parses a serialized snapshot. Every failure wraps ErrMalformed.
func Unmarshal(data []byte) (entity.Snapshot, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	var state State
	if err := decoder.Decode(&state); err != nil {
		return entity.Snapshot{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return entity.Snapshot{}, fmt.Errorf("%w: trailing data", ErrMalformed)
	}

	return Decode(state)
}
