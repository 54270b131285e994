package mirror

import (
	"context"
	"sync"
)

// Memory is an in-process RowWriter for tests and local development
// without Google credentials.
type Memory struct {
	mu   sync.Mutex
	rows [][]any
	err  error
}

var _ RowWriter = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{}
}

// Fail makes every subsequent append return err. Pass nil to recover.
func (m *Memory) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *Memory) AppendRow(_ context.Context, row []any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, row)
	return nil
}

// Rows returns a copy of everything appended so far.
func (m *Memory) Rows() [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]any, len(m.rows))
	copy(out, m.rows)
	return out
}
