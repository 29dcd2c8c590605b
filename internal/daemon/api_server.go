package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"subgen/internal/beacon"
	"subgen/internal/blacklist"
	"subgen/internal/catalog"
	"subgen/internal/config"
	"subgen/internal/lexicon"
	"subgen/internal/logging"
	"subgen/internal/logs"
	"subgen/internal/priority"
	"subgen/internal/progress"
	"subgen/internal/scheduler"
	"subgen/internal/services"
)

type schedulerView interface {
	Running() bool
	Snapshot() scheduler.Stats
}

type laneAdmin interface {
	Enqueue(ctx context.Context, author, permlink string) error
	EnqueueReprocess(ctx context.Context, author, permlink string) error
	List(ctx context.Context) ([]priority.Request, error)
	Cancel(ctx context.Context, id string) error
	Size(ctx context.Context) (int64, error)
}

type guardAdmin interface {
	AddItem(ctx context.Context, author, permlink, reason string) error
	RemoveItem(ctx context.Context, author, permlink string) error
	AddAuthor(ctx context.Context, author, reason string) error
	RemoveAuthor(ctx context.Context, author string) error
	ListItems(ctx context.Context) ([]blacklist.ItemEntry, error)
	ListAuthors(ctx context.Context) ([]blacklist.AuthorEntry, error)
}

type lexiconAdmin interface {
	AddHotword(ctx context.Context, word string) error
	RemoveHotword(ctx context.Context, word string) error
	ListHotwords(ctx context.Context) ([]lexicon.Hotword, error)
	AddCorrection(ctx context.Context, from, to string) error
	RemoveCorrection(ctx context.Context, from string) error
	Corrections(ctx context.Context) []lexicon.Correction
}

type ledgerView interface {
	Stats(ctx context.Context) (progress.Stats, error)
	Recent(ctx context.Context, limit int64) ([]progress.Record, error)
}

type beaconView interface {
	Current(ctx context.Context) (*beacon.Status, error)
}

type backlogView interface {
	EligibleCounts(ctx context.Context, since time.Time) (catalog.Counts, error)
}

type apiServer struct {
	bind    string
	logger  *slog.Logger
	cfg     *config.Config
	sched   schedulerView
	lane    laneAdmin
	guard   guardAdmin
	lexicon lexiconAdmin
	ledger  ledgerView
	beacon  beaconView
	backlog backlogView

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}
	srv := &apiServer{
		bind:    bind,
		logger:  logging.WithComponent(logger, "api"),
		cfg:     cfg,
		sched:   d.comps.Scheduler,
		lane:    d.comps.Lane,
		guard:   d.comps.Guard,
		lexicon: d.comps.Lexicon,
		ledger:  d.comps.Ledger,
		beacon:  d.comps.Beacon,
		backlog: d.comps.Catalog,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/processed", s.handleProcessed)
	mux.HandleFunc("/api/priority", s.handlePriority)
	mux.HandleFunc("/api/priority/", s.handlePriorityItem)
	mux.HandleFunc("/api/reprocess", s.handleReprocess)
	mux.HandleFunc("/api/blacklist", s.handleBlacklist)
	mux.HandleFunc("/api/blacklist/authors", s.handleBlacklistAuthors)
	mux.HandleFunc("/api/hotwords", s.handleHotwords)
	mux.HandleFunc("/api/corrections", s.handleCorrections)
	mux.HandleFunc("/api/logs", s.handleLogs)
	return mux
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

type statusResponse struct {
	Running        bool            `json:"running"`
	Scheduler      scheduler.Stats `json:"scheduler"`
	Processing     *beacon.Status  `json:"processing,omitempty"`
	PriorityQueued int64           `json:"priority_queued"`
	BlockedItems   int             `json:"blocked_items"`
	BlockedAuthors int             `json:"blocked_authors"`
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	payload := statusResponse{
		Running:   s.sched.Running(),
		Scheduler: s.sched.Snapshot(),
	}
	if current, err := s.beacon.Current(r.Context()); err == nil {
		payload.Processing = current
	}
	if size, err := s.lane.Size(r.Context()); err == nil {
		payload.PriorityQueued = size
	}
	if items, err := s.guard.ListItems(r.Context()); err == nil {
		payload.BlockedItems = len(items)
	}
	if authors, err := s.guard.ListAuthors(r.Context()); err == nil {
		payload.BlockedAuthors = len(authors)
	}
	s.writeJSON(w, http.StatusOK, payload)
}

type statsResponse struct {
	Ledger  progress.Stats `json:"ledger"`
	Backlog catalog.Counts `json:"backlog"`
}

func (s *apiServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	stats, err := s.ledger.Stats(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	var since time.Time
	if start, ok := s.cfg.StartDate(); ok {
		since = start
	}
	counts, err := s.backlog.EligibleCounts(r.Context(), since)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, statsResponse{Ledger: stats, Backlog: counts})
}

func (s *apiServer) handleProcessed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit := int64(50)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}
	records, err := s.ledger.Recent(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"items": records})
}

type itemRequest struct {
	Author   string `json:"author"`
	Permlink string `json:"permlink"`
	Reason   string `json:"reason,omitempty"`
}

func (s *apiServer) decodeItemRequest(w http.ResponseWriter, r *http.Request, requirePermlink bool) (itemRequest, bool) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json body")
		return req, false
	}
	req.Author = strings.TrimSpace(req.Author)
	req.Permlink = strings.TrimSpace(req.Permlink)
	if req.Author == "" || (requirePermlink && req.Permlink == "") {
		s.writeError(w, http.StatusBadRequest, "author and permlink are required")
		return req, false
	}
	return req, true
}

func (s *apiServer) handlePriority(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		requests, err := s.lane.List(r.Context())
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"requests": requests})
	case http.MethodPost:
		req, ok := s.decodeItemRequest(w, r, true)
		if !ok {
			return
		}
		if err := s.lane.Enqueue(r.Context(), req.Author, req.Permlink); err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, map[string]string{"status": "queued"})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handlePriorityItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/priority/")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "request id required")
		return
	}
	if err := s.lane.Cancel(r.Context(), id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *apiServer) handleReprocess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	req, ok := s.decodeItemRequest(w, r, true)
	if !ok {
		return
	}
	if err := s.lane.EnqueueReprocess(r.Context(), req.Author, req.Permlink); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"status": "queued"})
}

func (s *apiServer) handleBlacklist(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		entries, err := s.guard.ListItems(r.Context())
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"items": entries})
	case http.MethodPost:
		req, ok := s.decodeItemRequest(w, r, true)
		if !ok {
			return
		}
		if err := s.guard.AddItem(r.Context(), req.Author, req.Permlink, req.Reason); err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, map[string]string{"status": "blocked"})
	case http.MethodDelete:
		req, ok := s.decodeItemRequest(w, r, true)
		if !ok {
			return
		}
		if err := s.guard.RemoveItem(r.Context(), req.Author, req.Permlink); err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "unblocked"})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleBlacklistAuthors(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		entries, err := s.guard.ListAuthors(r.Context())
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"authors": entries})
	case http.MethodPost:
		req, ok := s.decodeItemRequest(w, r, false)
		if !ok {
			return
		}
		if err := s.guard.AddAuthor(r.Context(), req.Author, req.Reason); err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, map[string]string{"status": "blocked"})
	case http.MethodDelete:
		req, ok := s.decodeItemRequest(w, r, false)
		if !ok {
			return
		}
		if err := s.guard.RemoveAuthor(r.Context(), req.Author); err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "unblocked"})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type wordRequest struct {
	Word string `json:"word"`
	From string `json:"from"`
	To   string `json:"to"`
}

func (s *apiServer) handleHotwords(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		words, err := s.lexicon.ListHotwords(r.Context())
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"hotwords": words})
	case http.MethodPost, http.MethodDelete:
		var req wordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Word) == "" {
			s.writeError(w, http.StatusBadRequest, "word is required")
			return
		}
		var err error
		status := http.StatusCreated
		if r.Method == http.MethodPost {
			err = s.lexicon.AddHotword(r.Context(), req.Word)
		} else {
			err = s.lexicon.RemoveHotword(r.Context(), req.Word)
			status = http.StatusOK
		}
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, status, map[string]string{"status": "ok"})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleCorrections(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, map[string]any{"corrections": s.lexicon.Corrections(r.Context())})
	case http.MethodPost:
		var req wordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if err := s.lexicon.AddCorrection(r.Context(), req.From, req.To); err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
	case http.MethodDelete:
		var req wordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if err := s.lexicon.RemoveCorrection(r.Context(), req.From); err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	opts := logs.TailOptions{Offset: -1, Limit: 100}
	query := r.URL.Query()
	if raw := query.Get("offset"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		opts.Offset = parsed
	}
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		opts.Limit = parsed
	}
	if raw := query.Get("wait_ms"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid wait_ms")
			return
		}
		// Cap below the server write timeout.
		if parsed > 10_000 {
			parsed = 10_000
		}
		opts.Wait = time.Duration(parsed) * time.Millisecond
	}

	result, err := logs.Tail(r.Context(), logging.FilePath(s.cfg.Paths.LogDir), opts)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) writeServiceError(w http.ResponseWriter, err error) {
	s.writeError(w, services.HTTPStatus(err), err.Error())
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
