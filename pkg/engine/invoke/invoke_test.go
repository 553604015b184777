package invoke

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/iamoneai/laneflow/pkg/engine"
	flowerrors "github.com/iamoneai/laneflow/pkg/errors"
	"github.com/iamoneai/laneflow/pkg/flow"
)

// fixedPorts is a PortSource returning a fixed port set per template.
type fixedPorts map[string][]flow.Port

func (f fixedPorts) OutputPorts(templateID string) []flow.Port { return f[templateID] }

func TestSimulatedDeterminism(t *testing.T) {
	ctx := context.Background()
	sim := &Simulated{}
	inputs := map[string]any{"a": 1, "b": "x"}

	first, err := sim.Invoke(ctx, "rules.condition", engine.ModeSimulated, inputs)
	if err != nil {
		t.Fatalf("Invoke error: %v", err)
	}
	second, err := sim.Invoke(ctx, "rules.condition", engine.ModeSimulated, inputs)
	if err != nil {
		t.Fatalf("Invoke error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Same template and inputs should fabricate the same outputs: %v vs %v", first, second)
	}

	// A different template produces different payloads
	other, _ := sim.Invoke(ctx, "llm.prompt", engine.ModeSimulated, inputs)
	if reflect.DeepEqual(first, other) {
		t.Error("Different templates should fabricate different outputs")
	}

	// Wiring changes upstream (different input keys) change the payload
	rewired, _ := sim.Invoke(ctx, "rules.condition", engine.ModeSimulated, map[string]any{"c": 1})
	if reflect.DeepEqual(first, rewired) {
		t.Error("Different input keys should fabricate different outputs")
	}
}

func TestSimulatedDefaultPort(t *testing.T) {
	sim := &Simulated{}
	out, err := sim.Invoke(context.Background(), "unknown.tpl", engine.ModeSimulated, nil)
	if err != nil {
		t.Fatalf("Invoke error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("Default shape should be one port: %v", out)
	}
	if _, ok := out["result"]; !ok {
		t.Errorf("Default port should be named result: %v", out)
	}
}

func TestSimulatedPortShaping(t *testing.T) {
	sim := &Simulated{Ports: fixedPorts{
		"db.query": {
			{Key: "rows", DataType: flow.TypeArray},
			{Key: "count", DataType: flow.TypeNumber},
			{Key: "ok", DataType: flow.TypeBoolean},
			{Key: "meta", DataType: flow.TypeObject},
			{Key: "note", DataType: flow.TypeText},
		},
	}}

	out, err := sim.Invoke(context.Background(), "db.query", engine.ModeSimulated, nil)
	if err != nil {
		t.Fatalf("Invoke error: %v", err)
	}
	if len(out) != 5 {
		t.Fatalf("Every declared port should appear: %v", out)
	}
	if _, ok := out["rows"].([]any); !ok {
		t.Errorf("Array port should fabricate a slice: %T", out["rows"])
	}
	if _, ok := out["count"].(float64); !ok {
		t.Errorf("Number port should fabricate a float64: %T", out["count"])
	}
	if _, ok := out["ok"].(bool); !ok {
		t.Errorf("Boolean port should fabricate a bool: %T", out["ok"])
	}
	if _, ok := out["meta"].(map[string]any); !ok {
		t.Errorf("Object port should fabricate a map: %T", out["meta"])
	}
	if _, ok := out["note"].(string); !ok {
		t.Errorf("Text port should fabricate a string: %T", out["note"])
	}
}

func TestSimulatedLatencyCancellation(t *testing.T) {
	sim := &Simulated{Latency: time.Minute}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Invoke(ctx, "tpl", engine.ModeSimulated, nil)
	if err != context.Canceled {
		t.Errorf("Cancelled latency sleep should return the context error: %v", err)
	}
}

func TestRemoteInvoke(t *testing.T) {
	var gotAuth string
	var gotReq remoteRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(remoteResponse{Outputs: map[string]any{"result": "ok"}})
	}))
	defer srv.Close()

	rem := &Remote{BaseURL: srv.URL, APIKey: "secret"}
	out, err := rem.Invoke(context.Background(), "llm.prompt", engine.ModeLive, map[string]any{"prompt": "hi"})
	if err != nil {
		t.Fatalf("Invoke error: %v", err)
	}
	if out["result"] != "ok" {
		t.Errorf("Outputs unexpected: %v", out)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("API key should be sent as bearer auth: %s", gotAuth)
	}
	if gotReq.TemplateID != "llm.prompt" || gotReq.Mode != "live" {
		t.Errorf("Request payload unexpected: %+v", gotReq)
	}
}

func TestRemoteFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(remoteResponse{Fault: "model unavailable"})
	}))
	defer srv.Close()

	rem := &Remote{BaseURL: srv.URL}
	_, err := rem.Invoke(context.Background(), "llm.prompt", engine.ModeLive, nil)
	if !flowerrors.Is(err, flowerrors.ErrCodeExecutionFault) {
		t.Errorf("Service fault should surface as an execution fault: %v", err)
	}
}

func TestRemoteRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(remoteResponse{Outputs: map[string]any{"result": "recovered"}})
	}))
	defer srv.Close()

	rem := &Remote{BaseURL: srv.URL, Attempts: 3, Backoff: time.Millisecond}
	out, err := rem.Invoke(context.Background(), "tpl", engine.ModeLive, nil)
	if err != nil {
		t.Fatalf("Invoke should recover after retries: %v", err)
	}
	if calls != 3 {
		t.Errorf("Server errors should be retried: %d calls", calls)
	}
	if out["result"] != "recovered" {
		t.Errorf("Outputs unexpected: %v", out)
	}
}

func TestRemoteExhaustedRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rem := &Remote{BaseURL: srv.URL, Attempts: 2, Backoff: time.Millisecond}
	_, err := rem.Invoke(context.Background(), "tpl", engine.ModeLive, nil)
	if !flowerrors.Is(err, flowerrors.ErrCodeNetwork) {
		t.Errorf("Exhausted retries should surface as a network error: %v", err)
	}
}

func TestRemoteRequiresBaseURL(t *testing.T) {
	rem := &Remote{}
	_, err := rem.Invoke(context.Background(), "tpl", engine.ModeLive, nil)
	if !flowerrors.Is(err, flowerrors.ErrCodeInvalidInput) {
		t.Errorf("Missing base URL should be an input error: %v", err)
	}
}

func TestRemoteNilOutputs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(remoteResponse{})
	}))
	defer srv.Close()

	rem := &Remote{BaseURL: srv.URL}
	out, err := rem.Invoke(context.Background(), "tpl", engine.ModeLive, nil)
	if err != nil {
		t.Fatalf("Invoke error: %v", err)
	}
	if out == nil {
		t.Error("Nil outputs should be normalized to an empty map")
	}
}
