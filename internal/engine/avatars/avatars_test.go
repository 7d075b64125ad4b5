package avatars

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"spaces/internal/platform/config"
)

const uploadID = "5b1e4a1c-42a4-4a43-93c3-1f3f1a8f0c2d"

// fakeProvider serves the provider API. The image stays a draft until the
// readyAfter-th poll; a zero readyAfter keeps it a draft forever.
type fakeProvider struct {
	mu         sync.Mutex
	clock      clockwork.Clock
	readyAfter int
	polls      []time.Time
	metadata   string
	auth       string
}

func (f *fakeProvider) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/accounts/acc/images/v2/direct_upload", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.auth = r.Header.Get("Authorization")
		f.metadata = r.FormValue("metadata")
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"result":  map[string]string{"id": uploadID, "uploadURL": "https://upload.example.com/" + uploadID},
		})
	})
	mux.HandleFunc("/accounts/acc/images/v1/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/accounts/acc/images/v1/")
		if id != uploadID {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{
				"success": false,
				"errors":  []map[string]interface{}{{"code": 5404, "message": "Image not found"}},
			})
			return
		}

		f.mu.Lock()
		f.polls = append(f.polls, f.clock.Now())
		n := len(f.polls)
		f.mu.Unlock()

		draft := f.readyAfter == 0 || n < f.readyAfter
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"result":  map[string]interface{}{"id": id, "draft": draft},
		})
	})
	return mux
}

func (f *fakeProvider) pollTimes() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.polls...)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func newClient(url string) *Client {
	return NewClient(config.ImagesConfig{BaseURL: url, AccountID: "acc", Token: "tok", RequestTimeout: 5 * time.Second})
}

func TestClient_DirectUpload(t *testing.T) {
	provider := &fakeProvider{clock: clockwork.NewRealClock()}
	srv := httptest.NewServer(provider.handler())
	defer srv.Close()

	up, err := newClient(srv.URL).DirectUpload(context.Background(), "usr_1")
	if err != nil {
		t.Fatalf("DirectUpload() error = %v", err)
	}
	if up.ID != uploadID || !strings.HasSuffix(up.UploadURL, uploadID) {
		t.Errorf("Unexpected upload %+v", up)
	}
	if provider.auth != "Bearer tok" {
		t.Errorf("Expected bearer credential, got %q", provider.auth)
	}
	if provider.metadata != `{"userId":"usr_1"}` {
		t.Errorf("Unexpected metadata %q", provider.metadata)
	}
}

func TestClient_UpstreamErrors(t *testing.T) {
	provider := &fakeProvider{clock: clockwork.NewRealClock()}
	srv := httptest.NewServer(provider.handler())
	defer srv.Close()

	_, err := newClient(srv.URL).Image(context.Background(), "missing")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("Expected ErrUpstream, got %v", err)
	}
	if !strings.Contains(err.Error(), "Image not found") {
		t.Errorf("Expected provider message in error, got %v", err)
	}

	unsuccessful := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": false})
	}))
	defer unsuccessful.Close()
	if _, err := newClient(unsuccessful.URL).Image(context.Background(), uploadID); !errors.Is(err, ErrUpstream) {
		t.Errorf("Expected ErrUpstream for success=false, got %v", err)
	}
}

type awaitResult struct {
	res *Result
	err error
}

func startAwait(ctx context.Context, p *Poller) <-chan awaitResult {
	done := make(chan awaitResult, 1)
	go func() {
		res, err := p.Await(ctx, uploadID)
		done <- awaitResult{res, err}
	}()
	return done
}

// tick lets the poller finish n waits on the fake clock.
func tick(clock clockwork.FakeClock, n int, interval time.Duration) {
	for i := 0; i < n; i++ {
		clock.BlockUntil(1)
		clock.Advance(interval)
	}
}

func TestPoller_ReadyAfterNPolls(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		clock := clockwork.NewFakeClock()
		provider := &fakeProvider{clock: clock, readyAfter: n}
		srv := httptest.NewServer(provider.handler())

		p := NewPoller(newClient(srv.URL), PollConfig{Interval: time.Second, MaxWait: time.Minute, MaxAttempts: 30}, clock)
		done := startAwait(context.Background(), p)
		tick(clock, n-1, time.Second)

		out := <-done
		srv.Close()

		if out.err != nil {
			t.Fatalf("n=%d: Await() error = %v", n, out.err)
		}
		if out.res.State != StateReady || out.res.ImageID != uploadID {
			t.Errorf("n=%d: unexpected result %+v", n, out.res)
		}
		if out.res.Attempts != n {
			t.Errorf("n=%d: expected %d attempts, got %d", n, n, out.res.Attempts)
		}

		polls := provider.pollTimes()
		if len(polls) != n {
			t.Fatalf("n=%d: expected %d polls, got %d", n, n, len(polls))
		}
		for i := 1; i < len(polls); i++ {
			if gap := polls[i].Sub(polls[i-1]); gap < time.Second {
				t.Errorf("n=%d: polls %d and %d only %v apart", n, i-1, i, gap)
			}
		}
	}
}

func TestPoller_TimesOutOnMaxWait(t *testing.T) {
	clock := clockwork.NewFakeClock()
	provider := &fakeProvider{clock: clock}
	srv := httptest.NewServer(provider.handler())
	defer srv.Close()

	p := NewPoller(newClient(srv.URL), PollConfig{Interval: time.Second, MaxWait: 3 * time.Second, MaxAttempts: 100}, clock)
	done := startAwait(context.Background(), p)
	tick(clock, 3, time.Second)

	out := <-done
	if !errors.Is(out.err, ErrTimedOut) {
		t.Fatalf("Expected ErrTimedOut, got %v", out.err)
	}
	if out.res.State != StateTimedOut || out.res.Attempts != 3 {
		t.Errorf("Unexpected result %+v", out.res)
	}
	if out.res.Elapsed < 3*time.Second {
		t.Errorf("Expected at least 3s elapsed, got %v", out.res.Elapsed)
	}
}

func TestPoller_TimesOutOnMaxAttempts(t *testing.T) {
	clock := clockwork.NewFakeClock()
	provider := &fakeProvider{clock: clock}
	srv := httptest.NewServer(provider.handler())
	defer srv.Close()

	p := NewPoller(newClient(srv.URL), PollConfig{Interval: time.Second, MaxWait: time.Hour, MaxAttempts: 4}, clock)
	done := startAwait(context.Background(), p)
	tick(clock, 3, time.Second)

	out := <-done
	if !errors.Is(out.err, ErrTimedOut) {
		t.Fatalf("Expected ErrTimedOut, got %v", out.err)
	}
	if got := len(provider.pollTimes()); got != 4 {
		t.Errorf("Expected 4 polls, got %d", got)
	}
}

func TestPoller_Cancelled(t *testing.T) {
	clock := clockwork.NewFakeClock()
	provider := &fakeProvider{clock: clock}
	srv := httptest.NewServer(provider.handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	p := NewPoller(newClient(srv.URL), PollConfig{Interval: time.Second, MaxWait: time.Minute}, clock)
	done := startAwait(ctx, p)

	clock.BlockUntil(1)
	cancel()

	out := <-done
	if !errors.Is(out.err, ErrCancelled) {
		t.Fatalf("Expected ErrCancelled, got %v", out.err)
	}
	if out.res.State != StateCancelled || out.res.Attempts != 1 {
		t.Errorf("Unexpected result %+v", out.res)
	}
}

func TestPoller_UpstreamErrorStops(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewPoller(newClient(srv.URL), PollConfig{Interval: time.Second, MaxWait: time.Minute}, clockwork.NewFakeClock())
	res, err := p.Await(context.Background(), uploadID)
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("Expected ErrUpstream, got %v", err)
	}
	if res.Attempts != 1 {
		t.Errorf("Expected a single attempt, got %d", res.Attempts)
	}
}

func TestNewPoller_ClampsInterval(t *testing.T) {
	p := NewPoller(nil, PollConfig{Interval: 10 * time.Millisecond}, nil)
	if p.cfg.Interval != time.Second {
		t.Errorf("Expected interval clamped to 1s, got %v", p.cfg.Interval)
	}
	if p.cfg.MaxAttempts <= 0 || p.cfg.MaxWait <= 0 {
		t.Errorf("Expected bounded defaults, got %+v", p.cfg)
	}
}
