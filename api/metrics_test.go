package api

import (
	"errors"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
)

func TestCardRequestMetricsLogFields(t *testing.T) {
	logger, hook := logtest.NewNullLogger()

	m := newCardRequestMetrics(logger)
	m.ObserveFilter(3 * time.Millisecond)
	m.ObserveEncode(time.Millisecond)
	m.SetCardsReturned(7)
	m.Log(200, nil)

	if len(hook.Entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(hook.Entries))
	}
	entry := hook.LastEntry()
	if entry.Message != "cards.request.metrics" {
		t.Fatalf("unexpected message: %s", entry.Message)
	}
	if entry.Data["cards_returned"] != 7 || entry.Data["status"] != 200 {
		t.Fatalf("unexpected fields: %#v", entry.Data)
	}
	if _, ok := entry.Data["filter_ms"]; !ok {
		t.Fatal("expected filter_ms field")
	}
	if _, ok := entry.Data["error"]; ok {
		t.Fatal("error field must be absent on success")
	}
}

func TestCardRequestMetricsErrorPath(t *testing.T) {
	logger, hook := logtest.NewNullLogger()

	m := newCardRequestMetrics(logger)
	m.SetErrorStage("encode_response")
	m.Log(500, errors.New("boom"))

	entry := hook.LastEntry()
	if entry.Data["error_stage"] != "encode_response" {
		t.Fatalf("unexpected fields: %#v", entry.Data)
	}
	if entry.Data["error"] != "boom" {
		t.Fatalf("expected error field, got %#v", entry.Data)
	}
}

func TestMetricsNilReceiverSafe(t *testing.T) {
	var m *cardRequestMetrics
	m.Log(200, nil) // must not panic

	m2 := &cardRequestMetrics{}
	m2.Log(200, nil)
}

func TestDurationToMillis(t *testing.T) {
	if got := durationToMillis(1500 * time.Microsecond); got != 1.5 {
		t.Fatalf("expected 1.5, got %v", got)
	}
	if got := durationToMillis(-time.Second); got != 0 {
		t.Fatalf("expected 0 for negative duration, got %v", got)
	}
}
