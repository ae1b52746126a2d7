package healthprobe

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func probe(t *testing.T, handler http.HandlerFunc, path string) (*httptest.ResponseRecorder, HealthResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	handler(w, req)

	var body HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s response: %v", path, err)
	}

	return w, body
}

func TestHealth_AlwaysOK(t *testing.T) {
	hc := New()

	for _, ready := range []bool{false, true} {
		hc.SetReady(ready)

		w, body := probe(t, hc.Health(), "/health")

		if w.Code != http.StatusOK {
			t.Errorf("health status = %d with ready=%v, want 200", w.Code, ready)
		}

		if body.Status != "healthy" {
			t.Errorf("status = %q, want healthy", body.Status)
		}

		if body.Uptime == "" {
			t.Error("uptime is empty")
		}
	}
}

func TestReady_FollowsReadyState(t *testing.T) {
	hc := New()

	w, body := probe(t, hc.Ready(), "/ready")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("initial ready status = %d, want 503", w.Code)
	}

	if body.Status != "not_ready" || body.Message == "" {
		t.Errorf("not-ready body = %+v", body)
	}

	hc.SetReady(true)

	w, body = probe(t, hc.Ready(), "/ready")
	if w.Code != http.StatusOK {
		t.Errorf("ready status = %d, want 200", w.Code)
	}

	if body.Status != "ready" {
		t.Errorf("status = %q, want ready", body.Status)
	}

	// Shutdown flips it back, the readiness probe must follow.
	hc.SetReady(false)

	w, _ = probe(t, hc.Ready(), "/ready")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("ready status after SetReady(false) = %d, want 503", w.Code)
	}
}

func TestUptime_Grows(t *testing.T) {
	hc := New()

	first := hc.Uptime()
	time.Sleep(10 * time.Millisecond)

	if second := hc.Uptime(); second <= first {
		t.Errorf("uptime did not grow: %v then %v", first, second)
	}
}

func TestSetReady_ConcurrentWithProbes(t *testing.T) {
	hc := New()
	handler := hc.Ready()

	done := make(chan struct{})

	go func() {
		defer close(done)

		for i := 0; i < 100; i++ {
			hc.SetReady(i%2 == 0)
		}
	}()

	for i := 0; i < 100; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		handler(httptest.NewRecorder(), req)
	}

	<-done
}
