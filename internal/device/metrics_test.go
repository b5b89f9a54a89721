package device

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetricsFromDifferentOrientationsRegisterWithoutCollision(t *testing.T) {
	reg := prometheus.NewRegistry()
	north := NewMetrics("n")
	east := NewMetrics("e")

	for _, c := range north.Collectors() {
		if err := reg.Register(c); err != nil {
			t.Fatalf("register north collector: %v", err)
		}
	}
	for _, c := range east.Collectors() {
		if err := reg.Register(c); err != nil {
			t.Fatalf("register east collector: %v", err)
		}
	}
}

func TestMetricsFromSameOrientationCollide(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := NewMetrics("n")
	b := NewMetrics("n")

	for _, c := range a.Collectors() {
		if err := reg.Register(c); err != nil {
			t.Fatalf("register first set: %v", err)
		}
	}
	collided := false
	for _, c := range b.Collectors() {
		if err := reg.Register(c); err != nil {
			collided = true
		}
	}
	if !collided {
		t.Fatal("expected registering a second identically-labeled metric set to collide")
	}
}
