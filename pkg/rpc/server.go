// Package rpc exposes the node-facing HTTP API consumed by wallet, faucet
// and CLI collaborators, plus the peer endpoints (/events, /chain) other
// nodes talk to.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/CipherCoRetech/SypherLang/pkg/core"
	"github.com/CipherCoRetech/SypherLang/pkg/mempool"
	"github.com/CipherCoRetech/SypherLang/pkg/network"
	"github.com/CipherCoRetech/SypherLang/pkg/node"
)

// Server serves the HTTP API for one node.
type Server struct {
	listenAddr string
	node       *node.Node
	router     *mux.Router
	hub        *wsHub
	httpServer *http.Server
	log        *slog.Logger
}

// NewServer creates a server for the given node.
func NewServer(listenAddr string, n *node.Node) *Server {
	s := &Server{
		listenAddr: listenAddr,
		node:       n,
		router:     mux.NewRouter(),
		hub:        newWSHub(n),
		log:        slog.With("component", "rpc"),
	}
	s.registerRoutes()
	return s
}

// Handler returns the route handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving in a background goroutine.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.listenAddr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go s.hub.run()
	go func() {
		s.log.Info("rpc server listening", "addr", s.listenAddr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("rpc server stopped", "err", err)
		}
	}()
	return nil
}

// Shutdown stops the server and closes websocket subscribers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.stop()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)

	// Node-facing API.
	s.router.HandleFunc("/chain", s.getChainHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/transactions", s.submitTransactionHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/mine", s.mineHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/resolve", s.resolveHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/peers", s.registerPeerHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/peers", s.listPeersHandler).Methods(http.MethodGet)

	// Peer wire endpoints.
	s.router.HandleFunc("/events", s.eventsHandler).Methods(http.MethodPost)

	// Subscription feed.
	s.router.HandleFunc("/ws", s.hub.handleWebSocket).Methods(http.MethodGet)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

func (s *Server) getChainHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, s.node.GetChain())
}

type submitTransactionRequest struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Amount    int64  `json:"amount"`
}

func (s *Server) submitTransactionHandler(w http.ResponseWriter, r *http.Request) {
	var req submitTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, "invalid transaction format", http.StatusBadRequest)
		return
	}

	tx, err := s.node.SubmitTransaction(req.Sender, req.Recipient, req.Amount)
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		errorResponse(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, mempool.ErrDuplicateTransaction):
		errorResponse(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		errorResponse(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, http.StatusCreated, map[string]any{
		"hash":    tx.Hash,
		"pending": s.node.PendingCount(),
	})
}

func (s *Server) mineHandler(w http.ResponseWriter, r *http.Request) {
	// Client disconnect cancels the proof-of-work search.
	block, err := s.node.Mine(r.Context())
	switch {
	case err != nil && r.Context().Err() != nil:
		errorResponse(w, "mining cancelled", http.StatusServiceUnavailable)
		return
	case err != nil:
		errorResponse(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, http.StatusCreated, block)
}

func (s *Server) resolveHandler(w http.ResponseWriter, r *http.Request) {
	changed, err := s.node.ResolveConflicts(r.Context())
	if err != nil {
		s.log.Error("persisting resolved chain failed", "err", err)
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"changed": changed,
		"length":  s.node.ChainLength(),
	})
}

type registerPeerRequest struct {
	Address string `json:"address"`
}

func (s *Server) registerPeerHandler(w http.ResponseWriter, r *http.Request) {
	var req registerPeerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Address == "" {
		errorResponse(w, "peer address is required", http.StatusBadRequest)
		return
	}
	s.node.Peers().Register(req.Address)
	jsonResponse(w, http.StatusCreated, map[string]any{
		"peers": s.node.Peers().Peers(),
	})
}

func (s *Server) listPeersHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, s.node.Peers().Peers())
}

// eventsHandler receives out-of-band broadcasts from other nodes. Unknown
// events are acknowledged and dropped so peers running newer software
// don't see delivery failures.
func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	var env network.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		errorResponse(w, "invalid event envelope", http.StatusBadRequest)
		return
	}

	switch env.Event {
	case network.EventChainUpdate:
		var blocks []*core.Block
		if err := json.Unmarshal(env.Payload, &blocks); err != nil {
			errorResponse(w, "invalid chain payload", http.StatusBadRequest)
			return
		}
		adopted := s.node.OfferChain(core.FromBlocks(blocks))
		jsonResponse(w, http.StatusOK, map[string]any{"adopted": adopted})
	default:
		s.log.Debug("ignoring unknown event", "event", env.Event)
		jsonResponse(w, http.StatusAccepted, map[string]any{"ignored": env.Event})
	}
}

// jsonResponse sends a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding rpc response failed", "err", err)
	}
}

// errorResponse sends a JSON error response.
func errorResponse(w http.ResponseWriter, message string, status int) {
	jsonResponse(w, status, map[string]any{"error": message})
}
