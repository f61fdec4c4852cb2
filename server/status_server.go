package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"cosmossdk.io/log"
	"github.com/cosmos/cosmos-sdk/telemetry"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/spf13/cast"

	"github.com/MANTRA-Chain/feemarket/audit"
	"github.com/MANTRA-Chain/feemarket/indexer"
	"github.com/MANTRA-Chain/feemarket/rpc/backend"
	"github.com/MANTRA-Chain/feemarket/server/config"
	"github.com/MANTRA-Chain/feemarket/types"
)

const (
	// DefaultRecordsWindow is the number of records returned when no range is requested.
	DefaultRecordsWindow = 100

	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
	wsWriteWait       = 10 * time.Second
	wsPongWait        = 60 * time.Second
	wsPingPeriod      = wsPongWait * 9 / 10
)

// Status is the response of GET /v1/status.
type Status struct {
	Ready        bool   `json:"ready"`
	FirstAudited int64  `json:"first_audited"`
	LastAudited  int64  `json:"last_audited"`
	Head         *int64 `json:"head,omitempty"`
	Subscribers  int    `json:"subscribers"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// StatusServer serves the audit records over HTTP.
type StatusServer struct {
	logger   log.Logger
	indexer  types.AuditIndexer
	backend  backend.EVMBackend
	hub      *RecordHub
	metrics  *telemetry.Metrics
	cfg      config.HTTPConfig
	upgrader websocket.Upgrader
}

// NewStatusServer creates the server. evmBackend is optional, it is used to report the chain head.
func NewStatusServer(
	logger log.Logger,
	idx types.AuditIndexer,
	evmBackend backend.EVMBackend,
	hub *RecordHub,
	cfg config.HTTPConfig,
) *StatusServer {
	s := &StatusServer{
		logger:  logger.With("server", "status"),
		indexer: idx,
		backend: evmBackend,
		hub:     hub,
		cfg:     cfg,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// SetMetrics enables GET /v1/metrics.
func (s *StatusServer) SetMetrics(m *telemetry.Metrics) {
	s.metrics = m
}

// Router returns the routes of the status API.
func (s *StatusServer) Router() *mux.Router {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	v1.HandleFunc("/records/{height:[0-9]+}", s.handleRecord).Methods(http.MethodGet)
	v1.HandleFunc("/records", s.handleRecords).Methods(http.MethodGet)
	v1.HandleFunc("/stream", s.handleStream).Methods(http.MethodGet)
	v1.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
	return r
}

// Handler returns the routes wrapped by the CORS middleware.
func (s *StatusServer) Handler() http.Handler {
	origins := s.cfg.CORS
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}).Handler(s.Router())
}

// Start serves the API until ctx is done, then shuts the server down.
func (s *StatusServer) Start(ctx context.Context) error {
	ln, err := Listen(s.cfg.Address, s.cfg.MaxOpenConnections)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves the API on ln until ctx is done.
func (s *StatusServer) Serve(ctx context.Context, ln net.Listener) error {
	httpSrv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting status server", "address", ln.Addr().String())
		errCh <- httpSrv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		s.logger.Error("failed to serve status API", "error", err.Error())
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancelFn := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelFn()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("status server shutdown produced a warning", "error", err.Error())
	} else {
		s.logger.Info("status server shut down")
	}
	return nil
}

func (s *StatusServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	first, err := s.indexer.FirstIndexedBlock()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	last, err := s.indexer.LastIndexedBlock()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	status := Status{
		Ready:        s.indexer.IsReady(),
		FirstAudited: first,
		LastAudited:  last,
	}
	if s.hub != nil {
		status.Subscribers = s.hub.Len()
	}
	if s.backend != nil {
		if head, err := s.backend.BlockNumber(r.Context()); err == nil {
			status.Head = &head
		} else {
			s.logger.Debug("failed to fetch chain head", "error", err.Error())
		}
	}

	s.writeJSON(w, http.StatusOK, status)
}

func (s *StatusServer) handleRecord(w http.ResponseWriter, r *http.Request) {
	height, err := cast.ToInt64E(mux.Vars(r)["height"])
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	record, err := s.indexer.GetByHeight(height)
	if err != nil {
		if errors.Is(err, indexer.ErrRecordNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, record)
}

func (s *StatusServer) handleRecords(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	last, err := s.indexer.LastIndexedBlock()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	to := last
	if v := query.Get("to"); v != "" {
		if to, err = cast.ToInt64E(v); err != nil {
			s.writeError(w, http.StatusBadRequest, errors.New("invalid to"))
			return
		}
	}
	from := to - DefaultRecordsWindow + 1
	if from < 0 {
		from = 0
	}
	if v := query.Get("from"); v != "" {
		if from, err = cast.ToInt64E(v); err != nil {
			s.writeError(w, http.StatusBadRequest, errors.New("invalid from"))
			return
		}
	}
	mismatchOnly := false
	if v := query.Get("mismatch"); v != "" {
		if mismatchOnly, err = cast.ToBoolE(v); err != nil {
			s.writeError(w, http.StatusBadRequest, errors.New("invalid mismatch"))
			return
		}
	}

	records := []audit.Record{}
	if last >= 0 {
		if from < 0 || to < from {
			s.writeError(w, http.StatusBadRequest, errors.New("invalid range"))
			return
		}
		found, err := s.indexer.Records(from, to, mismatchOnly)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		records = append(records, found...)
	}

	s.writeJSON(w, http.StatusOK, records)
}

func (s *StatusServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		s.writeError(w, http.StatusNotImplemented, errors.New("telemetry is not enabled"))
		return
	}

	gr, err := s.metrics.Gather(r.URL.Query().Get("format"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	w.Header().Set("Content-Type", gr.ContentType)
	_, _ = w.Write(gr.Metrics)
}

func (s *StatusServer) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		s.writeError(w, http.StatusNotImplemented, errors.New("stream is not enabled"))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already replied
		s.logger.Debug("websocket upgrade failed", "error", err.Error())
		return
	}
	defer conn.Close()

	id, records := s.hub.Subscribe()
	defer s.hub.Unsubscribe(id)
	logger := s.logger.With("subscriber", id.String())
	logger.Debug("stream subscriber connected")

	// the read loop only serves the control frames and detects the close
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			logger.Debug("stream subscriber disconnected")
			return
		case <-r.Context().Done():
			return
		case record, ok := <-records:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(record); err != nil {
				logger.Debug("failed to write record", "error", err.Error())
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

func (s *StatusServer) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.cfg.CORS) == 0 {
		return true
	}
	for _, allowed := range s.cfg.CORS {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func (s *StatusServer) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", "error", err.Error())
	}
}

func (s *StatusServer) writeError(w http.ResponseWriter, code int, err error) {
	s.writeJSON(w, code, errorResponse{Error: err.Error()})
}
