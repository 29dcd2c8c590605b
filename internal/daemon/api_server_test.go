package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"subgen/internal/beacon"
	"subgen/internal/blacklist"
	"subgen/internal/catalog"
	"subgen/internal/lexicon"
	"subgen/internal/logging"
	"subgen/internal/logs"
	"subgen/internal/priority"
	"subgen/internal/progress"
	"subgen/internal/scheduler"
	"subgen/internal/services"
	"subgen/internal/testsupport"
)

type stubSched struct{ stats scheduler.Stats }

func (s stubSched) Running() bool             { return true }
func (s stubSched) Snapshot() scheduler.Stats { return s.stats }

type stubLane struct {
	queued     []string
	reprocess  []string
	cancelled  []string
	enqueueErr error
}

func (s *stubLane) Enqueue(ctx context.Context, author, permlink string) error {
	if s.enqueueErr != nil {
		return s.enqueueErr
	}
	s.queued = append(s.queued, author+"/"+permlink)
	return nil
}

func (s *stubLane) EnqueueReprocess(ctx context.Context, author, permlink string) error {
	s.reprocess = append(s.reprocess, author+"/"+permlink)
	return nil
}

func (s *stubLane) List(ctx context.Context) ([]priority.Request, error) {
	return []priority.Request{{Author: "alice", Permlink: "video-1", RequestedAt: time.Now().UTC()}}, nil
}

func (s *stubLane) Cancel(ctx context.Context, id string) error {
	s.cancelled = append(s.cancelled, id)
	return nil
}

func (s *stubLane) Size(ctx context.Context) (int64, error) {
	return int64(len(s.queued)), nil
}

type stubGuard struct {
	items  []string
	addErr error
}

func (s *stubGuard) AddItem(ctx context.Context, author, permlink, reason string) error {
	if s.addErr != nil {
		return s.addErr
	}
	s.items = append(s.items, author+"/"+permlink)
	return nil
}
func (s *stubGuard) RemoveItem(ctx context.Context, author, permlink string) error { return nil }
func (s *stubGuard) AddAuthor(ctx context.Context, author, reason string) error    { return s.addErr }
func (s *stubGuard) RemoveAuthor(ctx context.Context, author string) error         { return nil }
func (s *stubGuard) ListItems(ctx context.Context) ([]blacklist.ItemEntry, error) {
	return []blacklist.ItemEntry{{Author: "spammer", Permlink: "junk"}}, nil
}
func (s *stubGuard) ListAuthors(ctx context.Context) ([]blacklist.AuthorEntry, error) {
	return nil, nil
}

type stubLexicon struct {
	hotwords []string
	addErr   error
}

func (s *stubLexicon) AddHotword(ctx context.Context, word string) error {
	if s.addErr != nil {
		return s.addErr
	}
	s.hotwords = append(s.hotwords, word)
	return nil
}
func (s *stubLexicon) RemoveHotword(ctx context.Context, word string) error { return nil }
func (s *stubLexicon) ListHotwords(ctx context.Context) ([]lexicon.Hotword, error) {
	return []lexicon.Hotword{{Word: "Hive"}}, nil
}
func (s *stubLexicon) AddCorrection(ctx context.Context, from, to string) error { return nil }
func (s *stubLexicon) RemoveCorrection(ctx context.Context, from string) error  { return nil }
func (s *stubLexicon) Corrections(ctx context.Context) []lexicon.Correction     { return nil }

type stubLedger struct{}

func (stubLedger) Stats(ctx context.Context) (progress.Stats, error) {
	return progress.Stats{Items: 3, Subtitles: 6}, nil
}

func (stubLedger) Recent(ctx context.Context, limit int64) ([]progress.Record, error) {
	return []progress.Record{{Owner: "alice", Permlink: "video-1"}}, nil
}

type stubBeacon struct{ current *beacon.Status }

func (s stubBeacon) Current(ctx context.Context) (*beacon.Status, error) { return s.current, nil }

type stubBacklog struct{}

func (stubBacklog) EligibleCounts(ctx context.Context, since time.Time) (catalog.Counts, error) {
	return catalog.Counts{Legacy: 10, Embed: 4, Audio: 1}, nil
}

func newTestServer(t *testing.T, lane *stubLane) (*httptest.Server, *stubGuard, *stubLexicon) {
	t.Helper()
	guard := &stubGuard{}
	lex := &stubLexicon{}
	api := &apiServer{
		logger:  logging.NewNop(),
		cfg:     testsupport.NewConfig(t),
		sched:   stubSched{stats: scheduler.Stats{ItemsProcessed: 7}},
		lane:    lane,
		guard:   guard,
		lexicon: lex,
		ledger:  stubLedger{},
		beacon:  stubBeacon{current: &beacon.Status{Author: "alice", Permlink: "video-1"}},
		backlog: stubBacklog{},
	}
	server := httptest.NewServer(api.routes())
	t.Cleanup(server.Close)
	return server, guard, lex
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url string, payload any) int {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestStatusEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t, &stubLane{})

	var payload struct {
		Running        bool `json:"running"`
		Scheduler      scheduler.Stats
		Processing     *beacon.Status `json:"processing"`
		BlockedItems   int            `json:"blocked_items"`
		PriorityQueued int64          `json:"priority_queued"`
	}
	if code := getJSON(t, server.URL+"/api/status", &payload); code != http.StatusOK {
		t.Fatalf("status code = %d", code)
	}
	if !payload.Running {
		t.Fatal("running = false")
	}
	if payload.Processing == nil || payload.Processing.Author != "alice" {
		t.Fatalf("processing = %+v", payload.Processing)
	}
	if payload.BlockedItems != 1 {
		t.Fatalf("blocked_items = %d", payload.BlockedItems)
	}
}

func TestStatsEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t, &stubLane{})

	var payload struct {
		Ledger  progress.Stats `json:"ledger"`
		Backlog catalog.Counts `json:"backlog"`
	}
	if code := getJSON(t, server.URL+"/api/stats", &payload); code != http.StatusOK {
		t.Fatalf("status code = %d", code)
	}
	if payload.Ledger.Items != 3 || payload.Backlog.Legacy != 10 {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestPriorityEnqueueAndConflict(t *testing.T) {
	lane := &stubLane{}
	server, _, _ := newTestServer(t, lane)

	code := postJSON(t, server.URL+"/api/priority", map[string]string{"author": "alice", "permlink": "video-1"})
	if code != http.StatusCreated {
		t.Fatalf("status = %d", code)
	}
	if len(lane.queued) != 1 || lane.queued[0] != "alice/video-1" {
		t.Fatalf("queued = %v", lane.queued)
	}

	lane.enqueueErr = services.Wrap(services.ErrConflict, "priority", "enqueue", "already queued", nil)
	code = postJSON(t, server.URL+"/api/priority", map[string]string{"author": "alice", "permlink": "video-1"})
	if code != http.StatusConflict {
		t.Fatalf("conflict status = %d", code)
	}
}

func TestPriorityRejectsMissingFields(t *testing.T) {
	server, _, _ := newTestServer(t, &stubLane{})
	if code := postJSON(t, server.URL+"/api/priority", map[string]string{"author": "alice"}); code != http.StatusBadRequest {
		t.Fatalf("status = %d", code)
	}
}

func TestReprocessEndpoint(t *testing.T) {
	lane := &stubLane{}
	server, _, _ := newTestServer(t, lane)

	if code := postJSON(t, server.URL+"/api/reprocess", map[string]string{"author": "alice", "permlink": "video-1"}); code != http.StatusCreated {
		t.Fatalf("status = %d", code)
	}
	if len(lane.reprocess) != 1 {
		t.Fatalf("reprocess = %v", lane.reprocess)
	}
}

func TestBlacklistAddAndList(t *testing.T) {
	server, guard, _ := newTestServer(t, &stubLane{})

	if code := postJSON(t, server.URL+"/api/blacklist", map[string]string{"author": "spammer", "permlink": "junk"}); code != http.StatusCreated {
		t.Fatalf("status = %d", code)
	}
	if len(guard.items) != 1 {
		t.Fatalf("items = %v", guard.items)
	}

	var payload struct {
		Items []blacklist.ItemEntry `json:"items"`
	}
	if code := getJSON(t, server.URL+"/api/blacklist", &payload); code != http.StatusOK {
		t.Fatalf("list status = %d", code)
	}
	if len(payload.Items) != 1 || payload.Items[0].Author != "spammer" {
		t.Fatalf("items = %+v", payload.Items)
	}
}

func TestBlacklistDuplicateAddConflicts(t *testing.T) {
	server, guard, _ := newTestServer(t, &stubLane{})
	guard.addErr = services.Wrap(services.ErrConflict, "blacklist", "add item", "spammer/junk already blacklisted", nil)

	if code := postJSON(t, server.URL+"/api/blacklist", map[string]string{"author": "spammer", "permlink": "junk"}); code != http.StatusConflict {
		t.Fatalf("item status = %d", code)
	}
	if code := postJSON(t, server.URL+"/api/blacklist/authors", map[string]string{"author": "spammer"}); code != http.StatusConflict {
		t.Fatalf("author status = %d", code)
	}
}

func TestHotwordsEndpoint(t *testing.T) {
	server, _, lex := newTestServer(t, &stubLane{})

	if code := postJSON(t, server.URL+"/api/hotwords", map[string]string{"word": "Hive"}); code != http.StatusCreated {
		t.Fatalf("status = %d", code)
	}
	if len(lex.hotwords) != 1 {
		t.Fatalf("hotwords = %v", lex.hotwords)
	}
}

func TestHotwordDuplicateAddConflicts(t *testing.T) {
	server, _, lex := newTestServer(t, &stubLane{})
	lex.addErr = services.Wrap(services.ErrConflict, "lexicon", "add hotword", "Hive already stored", nil)

	if code := postJSON(t, server.URL+"/api/hotwords", map[string]string{"word": "Hive"}); code != http.StatusConflict {
		t.Fatalf("status = %d", code)
	}
}

func TestLogsEndpoint(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("make log dir: %v", err)
	}
	logPath := logging.FilePath(cfg.Paths.LogDir)
	if err := os.WriteFile(logPath, []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	api := &apiServer{logger: logging.NewNop(), cfg: cfg}
	server := httptest.NewServer(api.routes())
	defer server.Close()

	var payload logs.TailResult
	if code := getJSON(t, server.URL+"/api/logs?limit=2", &payload); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(payload.Lines) != 2 || payload.Lines[1] != "third" {
		t.Fatalf("lines = %v", payload.Lines)
	}
	if payload.Offset == 0 {
		t.Fatal("expected resume offset")
	}

	if code := getJSON(t, server.URL+"/api/logs?offset=abc", nil); code != http.StatusBadRequest {
		t.Fatalf("bad offset status = %d", code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	server, _, _ := newTestServer(t, &stubLane{})
	if code := postJSON(t, server.URL+"/api/status", map[string]string{}); code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", code)
	}
}
