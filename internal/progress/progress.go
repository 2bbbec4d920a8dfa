// Package progress defines the persisted hunt record and the store boundary.
package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// DefaultNamespace is the key the record is stored under.
const DefaultNamespace = "ctf6_progress_v3"

// Record is the persisted session state.
type Record struct {
	Index   int            `json:"index"`
	Answers map[int]string `json:"answers"`
	Solved  map[int]bool   `json:"solved"`
	Muted   bool           `json:"muted"`
}

// NewRecord returns an empty record at the first challenge.
func NewRecord() Record {
	return Record{Answers: map[int]string{}, Solved: map[int]bool{}}
}

// SolvedCount counts challenges marked solved.
func (r Record) SolvedCount() int {
	n := 0
	for _, ok := range r.Solved {
		if ok {
			n++
		}
	}
	return n
}

// Encode serializes r as JSON.
func Encode(r Record) ([]byte, error) {
	if r.Answers == nil {
		r.Answers = map[int]string{}
	}
	if r.Solved == nil {
		r.Solved = map[int]bool{}
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode progress: %w", err)
	}
	return data, nil
}

// Decode parses a stored record. Anything that is not a well-formed record
// reports false.
func Decode(data []byte) (Record, bool) {
	if len(data) == 0 {
		return Record{}, false
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, false
	}
	if r.Index < 0 {
		return Record{}, false
	}
	if r.Answers == nil {
		r.Answers = map[int]string{}
	}
	if r.Solved == nil {
		r.Solved = map[int]bool{}
	}
	return r, true
}

// Store is a durable key-value home for one Record.
type Store interface {
	// Load returns the stored record, or false when there is none or it is unreadable.
	Load(ctx context.Context) (Record, bool)
	// Save replaces the stored record.
	Save(ctx context.Context, r Record) error
	// Clear removes the stored record.
	Clear(ctx context.Context) error
}

// Memory is an in-process Store.
type Memory struct {
	mu   sync.Mutex
	data []byte
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Load implements Store.
func (m *Memory) Load(_ context.Context) (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Decode(m.data)
}

// Save implements Store.
func (m *Memory) Save(_ context.Context, r Record) error {
	data, err := Encode(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}

// Clear implements Store.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.data = nil
	m.mu.Unlock()
	return nil
}

// Raw returns the stored bytes, nil when cleared.
func (m *Memory) Raw() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil
	}
	return append([]byte(nil), m.data...)
}

// SetRaw replaces the stored bytes as-is.
func (m *Memory) SetRaw(data []byte) {
	m.mu.Lock()
	m.data = append([]byte(nil), data...)
	m.mu.Unlock()
}
