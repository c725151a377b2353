package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func fail() (interface{}, error)    { return nil, errBoom }
func succeed() (interface{}, error) { return "ok", nil }

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cb := New(2, 1, time.Hour)

	for i := 0; i < 2; i++ {
		if _, err := cb.Execute(fail); !errors.Is(err, errBoom) {
			t.Fatalf("Execute() error = %v, want the handler error", err)
		}
	}
	if cb.State() != Open {
		t.Fatalf("State = %v, want Open", cb.State())
	}

	if _, err := cb.Execute(succeed); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Open circuit executed the request, err = %v", err)
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := New(2, 1, time.Hour)

	cb.Execute(fail)
	cb.Execute(succeed)
	cb.Execute(fail)

	if cb.State() != Closed {
		t.Errorf("Interleaved failures tripped the circuit, state = %v", cb.State())
	}
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	cb := New(1, 2, 10*time.Millisecond)

	cb.Execute(fail)
	if cb.State() != Open {
		t.Fatalf("State = %v, want Open", cb.State())
	}

	time.Sleep(20 * time.Millisecond)

	// Two successful probes close the circuit again.
	for i := 0; i < 2; i++ {
		if _, err := cb.Execute(succeed); err != nil {
			t.Fatalf("Probe %d failed: %v", i+1, err)
		}
	}
	if cb.State() != Closed {
		t.Errorf("State = %v, want Closed after recovery", cb.State())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := New(1, 2, 10*time.Millisecond)

	cb.Execute(fail)
	time.Sleep(20 * time.Millisecond)

	if _, err := cb.Execute(fail); !errors.Is(err, errBoom) {
		t.Fatalf("Probe error = %v, want the handler error", err)
	}
	if cb.State() != Open {
		t.Errorf("State = %v, want Open after a failed probe", cb.State())
	}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		Closed:   "Closed",
		Open:     "Open",
		HalfOpen: "Half-Open",
		State(9): "Unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
