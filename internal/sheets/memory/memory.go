// Package memory is an in-process sheet mirror for tests and dry runs.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ports "manicash/internal/sheets"
)

type Mirror struct {
	mu   sync.Mutex
	rows []ports.Row
}

var _ ports.Mirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{}
}

// Append stores the row and returns a synthetic row reference.
func (m *Mirror) Append(_ context.Context, r ports.Row) (string, error) {
	if r.ID == "" {
		return "", errors.New("row has no transaction id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, r)
	return fmt.Sprintf("mem:%d", len(m.rows)), nil
}

func (m *Mirror) Contains(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// Rows returns a copy of the mirrored rows.
func (m *Mirror) Rows() []ports.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.Row(nil), m.rows...)
}
