package housekeepers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fentz26/roster/internal/gateway"
	"github.com/fentz26/roster/internal/models"
)

type stubLoader struct {
	mu    sync.Mutex
	hks   []models.Housekeeper
	err   error
	calls int
}

func (l *stubLoader) FetchHousekeepers(ctx context.Context) ([]models.Housekeeper, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return models.CloneHousekeepers(l.hks), nil
}

func (l *stubLoader) set(hks []models.Housekeeper, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hks = hks
	l.err = err
}

func fetch(t *testing.T, s *Store) ([]models.Housekeeper, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.FetchAll().Wait(ctx)
}

func TestFetchAll(t *testing.T) {
	l := &stubLoader{hks: []models.Housekeeper{{ID: 1, Name: "Maria"}, {ID: 2, Name: "Ana"}}}
	s := New(l)
	defer s.Close()

	hks, err := fetch(t, s)
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(hks) != 2 {
		t.Errorf("Expected 2 housekeepers, got %d", len(hks))
	}

	st := s.Snapshot()
	if st.Loading || st.Error {
		t.Errorf("Unexpected flags: %+v", st)
	}
	if st.Housekeepers[1].Name != "Ana" {
		t.Errorf("Expected Ana second, got %s", st.Housekeepers[1].Name)
	}
}

func TestFetchAllReplacesRoster(t *testing.T) {
	l := &stubLoader{hks: []models.Housekeeper{{ID: 1, Name: "Maria"}}}
	s := New(l)
	defer s.Close()

	if _, err := fetch(t, s); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	l.set([]models.Housekeeper{{ID: 3, Name: "Joana"}, {ID: 4, Name: "Rita"}}, nil)
	if _, err := fetch(t, s); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}

	hks := s.Housekeepers()
	if len(hks) != 2 || hks[0].ID != 3 {
		t.Errorf("Expected roster fully replaced, got %+v", hks)
	}
}

func TestFetchAllFailureKeepsRoster(t *testing.T) {
	l := &stubLoader{hks: []models.Housekeeper{{ID: 1, Name: "Maria"}}}
	s := New(l)
	defer s.Close()

	if _, err := fetch(t, s); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}

	l.set(nil, gateway.ErrSimulatedFailure)
	_, err := fetch(t, s)
	if !errors.Is(err, ErrFetchHousekeepers) || !errors.Is(err, gateway.ErrSimulatedFailure) {
		t.Errorf("Expected wrapped fetch error, got %v", err)
	}

	st := s.Snapshot()
	if !st.Error || st.ErrorMessage == "" {
		t.Errorf("Expected error flag and message, got %+v", st)
	}
	if st.Loading {
		t.Error("Expected loading cleared after failure")
	}
	if len(st.Housekeepers) != 1 {
		t.Errorf("Expected previous roster kept, got %+v", st.Housekeepers)
	}

	// Success clears the error.
	l.set([]models.Housekeeper{{ID: 2, Name: "Ana"}}, nil)
	if _, err := fetch(t, s); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if st := s.Snapshot(); st.Error || st.ErrorMessage != "" {
		t.Errorf("Expected error cleared, got %+v", st)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	s := New(&stubLoader{hks: []models.Housekeeper{{ID: 1, Name: "Maria"}}})
	defer s.Close()
	if _, err := fetch(t, s); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}

	hks := s.Housekeepers()
	hks[0].Name = "changed"
	if s.Housekeepers()[0].Name != "Maria" {
		t.Error("Caller mutation leaked into roster")
	}
}

func TestLoadingWhileInFlight(t *testing.T) {
	s := New(gateway.NewMock(gateway.WithDelays(0, 100*time.Millisecond, 0)))
	defer s.Close()

	f := s.FetchAll()
	if !s.Snapshot().Loading {
		t.Error("Expected loading while in flight")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := f.Wait(ctx); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if s.Snapshot().Loading {
		t.Error("Expected loading cleared")
	}
}
