package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestNewMonitor(t *testing.T) {
	monitor := NewMonitor()

	if monitor == nil {
		t.Fatal("NewMonitor() returned nil")
	}

	if monitor.Count() != 0 {
		t.Errorf("New monitor should have 0 components, got %d", monitor.Count())
	}
}

func TestMonitor_Update(t *testing.T) {
	monitor := NewMonitor()

	monitor.Update("bus", Status{Status: "healthy", Message: "connected"})

	retrieved, exists := monitor.Get("bus")
	if !exists {
		t.Fatal("Component should exist after update")
	}
	if retrieved.Component != "bus" {
		t.Errorf("Update should force component name, got %s", retrieved.Component)
	}
	if retrieved.Timestamp.IsZero() {
		t.Error("Update should set timestamp if not provided")
	}
}

func TestMonitor_ConvenienceUpdates(t *testing.T) {
	monitor := NewMonitor()

	monitor.UpdateHealthy("store", "loaded")
	monitor.UpdateDegraded("bus", "reconnecting")
	monitor.UpdateUnhealthy("preprocessor", "cpp not found")

	if monitor.Count() != 3 {
		t.Fatalf("Expected 3 components, got %d", monitor.Count())
	}

	overall := monitor.Overall("daemon")
	if !overall.IsUnhealthy() {
		t.Errorf("Overall should be unhealthy, got %s", overall.Status)
	}
}

func TestMonitor_Overall_Empty(t *testing.T) {
	monitor := NewMonitor()

	overall := monitor.Overall("daemon")
	if !overall.IsHealthy() {
		t.Errorf("Empty monitor should aggregate healthy, got %s", overall.Status)
	}
}

func TestMonitor_Handler(t *testing.T) {
	monitor := NewMonitor()
	monitor.UpdateHealthy("bus", "connected")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	monitor.Handler("daemon").ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Healthy aggregate should answer 200, got %d", rec.Code)
	}

	var status Status
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("Handler should serve valid JSON: %v", err)
	}
	if status.Component != "daemon" {
		t.Errorf("Expected component 'daemon', got %s", status.Component)
	}

	monitor.UpdateUnhealthy("bus", "connection lost")

	rec = httptest.NewRecorder()
	monitor.Handler("daemon").ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Unhealthy aggregate should answer 503, got %d", rec.Code)
	}
}

func TestMonitor_ConcurrentAccess(t *testing.T) {
	monitor := NewMonitor()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			monitor.UpdateHealthy("bus", "ok")
		}()
		go func() {
			defer wg.Done()
			_ = monitor.Overall("daemon")
		}()
	}
	wg.Wait()

	if monitor.Count() != 1 {
		t.Errorf("Expected 1 component after concurrent updates, got %d", monitor.Count())
	}
}
