package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
)

// JSONMap is an opaque JSON object column, stored as serialized text so the
// same model works on both PostgreSQL (jsonb) and SQLite (text).
type JSONMap map[string]any

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported JSONMap source type %T", src)
	}
	if len(data) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(data, m)
}

// ChunkSet is a sorted set of received chunk indexes, serialized as a JSON
// array.
type ChunkSet []int

// Value implements driver.Valuer.
func (s ChunkSet) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]int(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (s *ChunkSet) Scan(src any) error {
	if src == nil {
		*s = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported ChunkSet source type %T", src)
	}
	if len(data) == 0 {
		*s = nil
		return nil
	}
	return json.Unmarshal(data, (*[]int)(s))
}

// Add inserts an index keeping the set sorted and free of duplicates.
// It returns the updated set; re-adding an existing index is a no-op.
func (s ChunkSet) Add(index int) ChunkSet {
	i := sort.SearchInts([]int(s), index)
	if i < len(s) && s[i] == index {
		return s
	}
	out := make(ChunkSet, 0, len(s)+1)
	out = append(out, s[:i]...)
	out = append(out, index)
	out = append(out, s[i:]...)
	return out
}

// Contains reports whether the index is part of the set.
func (s ChunkSet) Contains(index int) bool {
	i := sort.SearchInts([]int(s), index)
	return i < len(s) && s[i] == index
}
