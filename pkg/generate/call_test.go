package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/formulaspark/formulaspark/pkg/ollama"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func respondFormula(w http.ResponseWriter, formulaText string) {
	json.NewEncoder(w).Encode(map[string]string{"response": formulaText})
}

func collectEvents(events <-chan Event) []Event {
	var got []Event
	for ev := range events {
		got = append(got, ev)
	}
	return got
}

func TestCallRetriesThenSucceeds(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			time.Sleep(500 * time.Millisecond)
			return
		}
		respondFormula(w, "  =SUM(A1:A10)\n")
	}))
	defer srv.Close()

	call := &Call{
		Transport:   ollama.New(srv.URL, 100*time.Millisecond, nil),
		Request:     ollama.GenerateRequest{Model: "llama3.1", Prompt: "sum the amounts"},
		MaxRetries:  3,
		BackoffUnit: 10 * time.Millisecond,
	}
	got := collectEvents(call.Start(context.Background()))

	want := []Event{
		{Type: EventProgress, Message: "Attempt 1/3"},
		{Type: EventProgress, Message: "Timeout, retrying in 10ms..."},
		{Type: EventProgress, Message: "Attempt 2/3"},
		{Type: EventProgress, Message: "Timeout, retrying in 20ms..."},
		{Type: EventProgress, Message: "Attempt 3/3"},
		{Type: EventSucceeded, Formula: "=SUM(A1:A10)"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("event mismatch (-want +got):\n%s", diff)
	}
	if n := hits.Load(); n != 3 {
		t.Fatalf("endpoint hits = %d, want 3", n)
	}
}

func TestCallTimeoutExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	call := &Call{
		Transport:   ollama.New(srv.URL, 50*time.Millisecond, nil),
		Request:     ollama.GenerateRequest{Model: "llama3.1", Prompt: "sum the amounts"},
		MaxRetries:  2,
		BackoffUnit: 10 * time.Millisecond,
	}
	got := collectEvents(call.Start(context.Background()))

	want := []Event{
		{Type: EventProgress, Message: "Attempt 1/2"},
		{Type: EventProgress, Message: "Timeout, retrying in 10ms..."},
		{Type: EventProgress, Message: "Attempt 2/2"},
		{Type: EventFailed, Kind: FailTimeout, Message: "request timed out after 2 attempts"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("event mismatch (-want +got):\n%s", diff)
	}
}

func TestCallConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	call := &Call{
		Transport:   ollama.New(srv.URL, time.Second, nil),
		Request:     ollama.GenerateRequest{Model: "llama3.1", Prompt: "sum the amounts"},
		MaxRetries:  2,
		BackoffUnit: time.Millisecond,
	}
	got := collectEvents(call.Start(context.Background()))

	if len(got) != 4 {
		t.Fatalf("got %d events, want 4: %+v", len(got), got)
	}
	if got[1].Message != "Connection error, retrying in 1ms..." {
		t.Fatalf("wait message = %q", got[1].Message)
	}
	last := got[3]
	if last.Type != EventFailed || last.Kind != FailTransport {
		t.Fatalf("terminal event = %+v, want transport failure", last)
	}
	if !strings.HasPrefix(last.Message, "could not reach the endpoint after 2 attempts:") {
		t.Fatalf("failure message = %q", last.Message)
	}
}

func TestCallRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "model failed to load", http.StatusInternalServerError)
	}))
	defer srv.Close()

	call := &Call{
		Transport:   ollama.New(srv.URL, time.Second, nil),
		Request:     ollama.GenerateRequest{Model: "llama3.1", Prompt: "sum the amounts"},
		MaxRetries:  2,
		BackoffUnit: time.Millisecond,
	}
	got := collectEvents(call.Start(context.Background()))

	last := got[len(got)-1]
	if last.Type != EventFailed || last.Kind != FailTransport {
		t.Fatalf("terminal event = %+v, want transport failure", last)
	}
	if n := hits.Load(); n != 2 {
		t.Fatalf("endpoint hits = %d, want 2", n)
	}
}

func TestCallDoesNotRetryBadPayload(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, "not json")
	}))
	defer srv.Close()

	call := &Call{
		Transport:   ollama.New(srv.URL, time.Second, nil),
		Request:     ollama.GenerateRequest{Model: "llama3.1", Prompt: "sum the amounts"},
		MaxRetries:  3,
		BackoffUnit: time.Millisecond,
	}
	got := collectEvents(call.Start(context.Background()))

	if len(got) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(got), got)
	}
	last := got[1]
	if last.Type != EventFailed || last.Kind != FailUnexpected {
		t.Fatalf("terminal event = %+v, want unexpected failure", last)
	}
	if !strings.HasPrefix(last.Message, "unexpected error:") {
		t.Fatalf("failure message = %q", last.Message)
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("endpoint hits = %d, want 1", n)
	}
}

func TestCallCancelDuringBackoff(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	call := &Call{
		Transport:   ollama.New(srv.URL, time.Second, nil),
		Request:     ollama.GenerateRequest{Model: "llama3.1", Prompt: "sum the amounts"},
		MaxRetries:  3,
		BackoffUnit: 10 * time.Second,
	}
	events := call.Start(ctx)

	if ev := <-events; ev.Type != EventProgress || ev.Message != "Attempt 1/3" {
		t.Fatalf("first event = %+v, want attempt progress", ev)
	}
	if ev := <-events; !strings.HasPrefix(ev.Message, "Connection error, retrying") {
		t.Fatalf("second event = %+v, want retry wait", ev)
	}
	cancel()

	// The channel must close without a terminal event.
	for ev := range events {
		if ev.Type != EventProgress {
			t.Fatalf("got terminal event %+v after cancellation", ev)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("endpoint hits = %d, want 1", n)
	}
}

func TestCallCancelledBeforeStart(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		respondFormula(w, "=A1")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	call := &Call{
		Transport:  ollama.New(srv.URL, time.Second, nil),
		Request:    ollama.GenerateRequest{Model: "llama3.1", Prompt: "sum the amounts"},
		MaxRetries: 3,
	}
	got := collectEvents(call.Start(ctx))

	if len(got) != 0 {
		t.Fatalf("got %d events, want none: %+v", len(got), got)
	}
	if n := hits.Load(); n != 0 {
		t.Fatalf("endpoint hits = %d, want 0", n)
	}
}

func TestCallNormalizesFencedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondFormula(w, "```excel\n=AVERAGE(B2:B10)\n```")
	}))
	defer srv.Close()

	call := &Call{
		Transport:  ollama.New(srv.URL, time.Second, nil),
		Request:    ollama.GenerateRequest{Model: "llama3.1", Prompt: "average the scores"},
		MaxRetries: 1,
	}
	got := collectEvents(call.Start(context.Background()))

	want := []Event{
		{Type: EventProgress, Message: "Attempt 1/1"},
		{Type: EventSucceeded, Formula: "=AVERAGE(B2:B10)"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("event mismatch (-want +got):\n%s", diff)
	}
}

func TestCallClampsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondFormula(w, "=A1")
	}))
	defer srv.Close()

	call := &Call{
		Transport:  ollama.New(srv.URL, time.Second, nil),
		Request:    ollama.GenerateRequest{Model: "llama3.1", Prompt: "first cell"},
		MaxRetries: 0,
	}
	got := collectEvents(call.Start(context.Background()))

	if len(got) != 2 || got[0].Message != "Attempt 1/1" {
		t.Fatalf("events = %+v, want single clamped attempt", got)
	}
	if got[1].Type != EventSucceeded {
		t.Fatalf("terminal event = %+v, want success", got[1])
	}
}

func TestBackoffDoubles(t *testing.T) {
	unit := 2 * time.Second
	for attempt, want := range map[int]time.Duration{
		1: 2 * time.Second,
		2: 4 * time.Second,
		3: 8 * time.Second,
		4: 16 * time.Second,
	} {
		if got := backoff(unit, attempt); got != want {
			t.Errorf("backoff(2s, %d) = %s, want %s", attempt, got, want)
		}
	}
}
