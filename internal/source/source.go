// Package source fetches raw spreadsheet grids. Every implementation returns
// the grid with the header as row 0; failures are reported as *Error.
package source

import (
	"context"
	"fmt"
)

// Source supplies a raw grid of string cells, first row = column headers.
type Source interface {
	Fetch(ctx context.Context) ([][]string, error)
}

// Error indicates the grid could not be fetched (auth, network, missing file).
type Error struct {
	Source string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "source error"
	}
	if e.Source != "" {
		return fmt.Sprintf("%s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("%v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Static is a fixed in-memory grid.
type Static [][]string

// Fetch returns a copy of the grid.
func (s Static) Fetch(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Source: "static", Err: err}
	}
	out := make([][]string, len(s))
	for i, row := range s {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}
