package control_panel

import (
	"context"
)

// stubStorage records calls and can be told to fail, for exercising error paths.
type stubStorage struct {
	values   map[string]any
	reads    int
	writes   int
	deletes  int
	readErr  error
	writeErr error
}

func newStubStorage() *stubStorage {
	return &stubStorage{values: map[string]any{}}
}

func (s *stubStorage) Read(ctx context.Context, id string) (any, error) {
	s.reads++
	if s.readErr != nil {
		return nil, s.readErr
	}
	return s.values[id], nil
}

func (s *stubStorage) Write(ctx context.Context, id string, value any) error {
	s.writes++
	if s.writeErr != nil {
		return s.writeErr
	}
	s.values[id] = value
	return nil
}

func (s *stubStorage) Delete(ctx context.Context, id string) error {
	s.deletes++
	delete(s.values, id)
	return nil
}
