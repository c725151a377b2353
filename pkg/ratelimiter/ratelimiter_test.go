package ratelimiter

import (
	"testing"
	"time"
)

func TestTokenBucketAllowsUpToCapacity(t *testing.T) {
	tb := NewTokenBucket(0.001, 3)

	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("Request %d within capacity was denied", i+1)
		}
	}
	if tb.Allow() {
		t.Errorf("Request over capacity was allowed")
	}
}

func TestTokenBucketRefills(t *testing.T) {
	tb := NewTokenBucket(100, 1)

	if !tb.Allow() {
		t.Fatalf("First request was denied")
	}
	if tb.Allow() {
		t.Fatalf("Empty bucket allowed a request")
	}

	time.Sleep(50 * time.Millisecond)
	if !tb.Allow() {
		t.Errorf("Bucket did not refill after waiting")
	}
}

func TestFixedWindowCounterLimitsPerWindow(t *testing.T) {
	fwc := NewFixedWindowCounter(2, time.Hour)

	if !fwc.Allow() || !fwc.Allow() {
		t.Fatalf("Requests within the limit were denied")
	}
	if fwc.Allow() {
		t.Errorf("Request over the limit was allowed")
	}
}

func TestFixedWindowCounterResets(t *testing.T) {
	fwc := NewFixedWindowCounter(1, 20*time.Millisecond)

	if !fwc.Allow() {
		t.Fatalf("First request was denied")
	}
	if fwc.Allow() {
		t.Fatalf("Request over the limit was allowed")
	}

	time.Sleep(30 * time.Millisecond)
	if !fwc.Allow() {
		t.Errorf("Counter did not reset after the window elapsed")
	}
}
