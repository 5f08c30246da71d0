package health

import (
	"testing"
)

func TestStatus_IsHealthy(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{
			name:   "healthy status returns true",
			status: Status{Status: "healthy"},
			want:   true,
		},
		{
			name:   "unhealthy status returns false",
			status: Status{Status: "unhealthy"},
			want:   false,
		},
		{
			name:   "degraded status returns false",
			status: Status{Status: "degraded"},
			want:   false,
		},
		{
			name:   "empty status returns false",
			status: Status{Status: ""},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.IsHealthy(); got != tt.want {
				t.Errorf("Status.IsHealthy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatus_IsDegraded(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{
			name:   "degraded status returns true",
			status: Status{Status: "degraded"},
			want:   true,
		},
		{
			name:   "healthy status returns false",
			status: Status{Status: "healthy"},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.IsDegraded(); got != tt.want {
				t.Errorf("Status.IsDegraded() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewHealthy(t *testing.T) {
	status := NewHealthy("bus", "connected")

	if !status.IsHealthy() {
		t.Error("NewHealthy() should produce a healthy status")
	}
	if !status.Healthy {
		t.Error("NewHealthy() should set Healthy to true")
	}
	if status.Component != "bus" {
		t.Errorf("Expected component 'bus', got %s", status.Component)
	}
	if status.Message != "connected" {
		t.Errorf("Expected message 'connected', got %s", status.Message)
	}
	if status.Timestamp.IsZero() {
		t.Error("NewHealthy() should set a timestamp")
	}
}

func TestNewUnhealthy(t *testing.T) {
	status := NewUnhealthy("bus", "connection lost")

	if !status.IsUnhealthy() {
		t.Error("NewUnhealthy() should produce an unhealthy status")
	}
	if status.Healthy {
		t.Error("NewUnhealthy() should set Healthy to false")
	}
}

func TestNewDegraded(t *testing.T) {
	status := NewDegraded("bus", "reconnecting")

	if !status.IsDegraded() {
		t.Error("NewDegraded() should produce a degraded status")
	}
	if status.Healthy {
		t.Error("NewDegraded() should set Healthy to false")
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name string
		subs []Status
		want string
	}{
		{
			name: "no sub-components yields healthy",
			subs: nil,
			want: "healthy",
		},
		{
			name: "all healthy yields healthy",
			subs: []Status{
				NewHealthy("bus", "ok"),
				NewHealthy("store", "ok"),
			},
			want: "healthy",
		},
		{
			name: "any degraded yields degraded",
			subs: []Status{
				NewHealthy("store", "ok"),
				NewDegraded("bus", "reconnecting"),
			},
			want: "degraded",
		},
		{
			name: "unhealthy wins over degraded",
			subs: []Status{
				NewDegraded("store", "slow"),
				NewUnhealthy("bus", "gone"),
			},
			want: "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate("daemon", tt.subs)
			if got.Status != tt.want {
				t.Errorf("Aggregate() status = %s, want %s", got.Status, tt.want)
			}
			if got.Component != "daemon" {
				t.Errorf("Aggregate() component = %s, want daemon", got.Component)
			}
			if len(got.SubStatuses) != len(tt.subs) {
				t.Errorf("Aggregate() kept %d sub-statuses, want %d", len(got.SubStatuses), len(tt.subs))
			}
		})
	}
}

func TestAggregate_CopiesSubStatuses(t *testing.T) {
	subs := []Status{NewHealthy("bus", "ok")}
	got := Aggregate("daemon", subs)

	subs[0].Status = "unhealthy"
	if got.SubStatuses[0].Status != "healthy" {
		t.Error("Aggregate() should copy sub-statuses, not alias the input slice")
	}
}
