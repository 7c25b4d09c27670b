package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fentz26/roster/internal/config"
	"github.com/fentz26/roster/internal/models"
)

func newFastMock(opts ...MockOption) *Mock {
	return NewMock(append([]MockOption{WithDelays(0, 0, 0)}, opts...)...)
}

func TestMockFetch(t *testing.T) {
	m := newFastMock()
	ctx := context.Background()

	tasks, err := m.FetchTasks(ctx)
	if err != nil {
		t.Fatalf("FetchTasks failed: %v", err)
	}
	if len(tasks) != len(FixtureTasks()) {
		t.Errorf("Expected %d tasks, got %d", len(FixtureTasks()), len(tasks))
	}

	hks, err := m.FetchHousekeepers(ctx)
	if err != nil {
		t.Fatalf("FetchHousekeepers failed: %v", err)
	}
	if len(hks) != 4 || hks[0].ID != 1 {
		t.Errorf("Unexpected roster: %+v", hks)
	}

	// Mutating a fetched slice must not leak into the mock.
	*tasks[0].AssignedTo = 99
	again, _ := m.FetchTasks(ctx)
	if *again[0].AssignedTo != 1 {
		t.Errorf("Expected mock state isolated from callers, got %d", *again[0].AssignedTo)
	}
}

func TestMockForcedFailures(t *testing.T) {
	m := newFastMock(WithFailures(true, true, true))
	ctx := context.Background()

	if _, err := m.FetchTasks(ctx); !errors.Is(err, ErrSimulatedFailure) {
		t.Errorf("Expected simulated failure, got %v", err)
	}
	if _, err := m.FetchHousekeepers(ctx); !errors.Is(err, ErrSimulatedFailure) {
		t.Errorf("Expected simulated failure, got %v", err)
	}
	if _, err := m.SubmitTasks(ctx, nil); !errors.Is(err, ErrSimulatedFailure) {
		t.Errorf("Expected simulated failure, got %v", err)
	}

	m.SetFailSubmit(false)
	if _, err := m.SubmitTasks(ctx, nil); err != nil {
		t.Errorf("Expected submit to succeed after clearing switch, got %v", err)
	}
}

func TestMockSubmitEchoesAndPersists(t *testing.T) {
	m := newFastMock(WithTasks([]models.Task{{ID: "a"}, {ID: "b"}}))
	ctx := context.Background()

	in := []models.Task{{ID: "b", AssignedTo: models.HousekeeperID(2)}, {ID: "a"}}
	out, err := m.SubmitTasks(ctx, in)
	if err != nil {
		t.Fatalf("SubmitTasks failed: %v", err)
	}
	if len(out) != 2 || out[0].ID != "b" || !out[0].AssignedToID(2) {
		t.Errorf("Expected echoed payload, got %+v", out)
	}
	if out[0].AssignedTo == in[0].AssignedTo {
		t.Error("Echoed payload must not alias the argument")
	}
	if m.Submits() != 1 {
		t.Errorf("Expected 1 submit, got %d", m.Submits())
	}

	fetched, _ := m.FetchTasks(ctx)
	if fetched[0].ID != "b" {
		t.Errorf("Expected submitted order to persist, got %+v", fetched)
	}
}

func TestMockHonorsDelay(t *testing.T) {
	m := NewMock(WithDelays(50*time.Millisecond, 0, 0))
	start := time.Now()
	if _, err := m.FetchTasks(context.Background()); err != nil {
		t.Fatalf("FetchTasks failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("Expected at least 50ms delay, got %v", elapsed)
	}
}

func TestNewSelectsImplementation(t *testing.T) {
	gw, err := New(config.DefaultConfig().Gateway)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := gw.(*Mock); !ok {
		t.Errorf("Expected *Mock, got %T", gw)
	}

	gw, err = New(config.GatewayConfig{Mode: config.GatewayHTTP, APIAddr: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := gw.(*HTTPClient); !ok {
		t.Errorf("Expected *HTTPClient, got %T", gw)
	}

	if _, err := New(config.GatewayConfig{Mode: "fax"}); err == nil {
		t.Error("Expected error for unknown mode")
	}
}

func TestHTTPClient(t *testing.T) {
	var submitted []models.Task
	mux := http.NewServeMux()
	mux.HandleFunc("/tasks", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`[{"id":"t1","title":"Full clean","duration":90,"deadline":"2025-05-12T11:00:00Z","hotelApartment":"Apt 101","assignedTo":null}]`))
		case http.MethodPost:
			if err := json.NewDecoder(r.Body).Decode(&submitted); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
			json.NewEncoder(w).Encode(submitted)
		}
	})
	mux.HandleFunc("/housekeepers", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"name":"Maria"}]`))
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/", time.Second)
	ctx := context.Background()

	tasks, err := c.FetchTasks(ctx)
	if err != nil {
		t.Fatalf("FetchTasks failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].HotelApartment != "Apt 101" || tasks[0].AssignedTo != nil {
		t.Errorf("Unexpected tasks: %+v", tasks)
	}

	hks, err := c.FetchHousekeepers(ctx)
	if err != nil {
		t.Fatalf("FetchHousekeepers failed: %v", err)
	}
	if len(hks) != 1 || hks[0].Name != "Maria" {
		t.Errorf("Unexpected roster: %+v", hks)
	}

	tasks[0].AssignedTo = models.HousekeeperID(1)
	echoed, err := c.SubmitTasks(ctx, tasks)
	if err != nil {
		t.Fatalf("SubmitTasks failed: %v", err)
	}
	if len(submitted) != 1 || !submitted[0].AssignedToID(1) {
		t.Errorf("Server received %+v", submitted)
	}
	if len(echoed) != 1 || !echoed[0].AssignedToID(1) {
		t.Errorf("Unexpected echo: %+v", echoed)
	}

	if !c.CheckHealth(ctx) {
		t.Error("Expected backend to be healthy")
	}
}

func TestHTTPClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database unavailable", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	_, err := c.FetchTasks(context.Background())
	if err == nil {
		t.Fatal("Expected error from failing backend")
	}
	if !strings.Contains(err.Error(), "database unavailable") {
		t.Errorf("Expected server message in error, got %v", err)
	}
}
