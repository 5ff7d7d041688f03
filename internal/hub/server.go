package hub

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"runtime"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/EvanTenenbaum/terp-live/internal/auth"
	"github.com/EvanTenenbaum/terp-live/internal/cart"
	"github.com/EvanTenenbaum/terp-live/internal/config"
	"github.com/EvanTenenbaum/terp-live/internal/live"
	"github.com/EvanTenenbaum/terp-live/internal/room"
)

// Server exposes the HTTP surface: the credential exchange, the viewer
// websocket endpoint, the staff control API, and a health probe.
//
// Session tokens arrive only in POST bodies and the staff token only in
// headers. Neither is ever logged or accepted as a query parameter; the
// only credential that rides a URL is the single-use channel handle.
type Server struct {
	cfg            *config.Config
	store          *room.Store
	hub            *Hub
	handles        *auth.HandleRegistry
	tokens         *auth.TokenIssuer
	allowedOrigins map[string]bool
	allowedHosts   map[string]bool
}

func NewServer(cfg *config.Config, store *room.Store, hub *Hub) *Server {
	s := &Server{
		cfg:            cfg,
		store:          store,
		hub:            hub,
		handles:        auth.NewHandleRegistry(cfg.Auth.HandleTTL),
		tokens:         auth.NewTokenIssuer(cfg.Auth.TokenSecret),
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
	}

	for _, origin := range cfg.Server.AllowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}

	return s
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/live/exchange", s.handleExchange)
	mux.HandleFunc("/ws/live/", s.handleChannel)
	mux.HandleFunc("/api/rooms", s.handleRooms)
	mux.HandleFunc("/api/rooms/", s.handleRoomRoutes)
	mux.HandleFunc("/api/healthz", s.handleHealth)
}

// handleExchange trades a session token for a single-use channel handle.
// The token stays in the request body and out of every log line.
func (s *Server) handleExchange(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req live.ExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Token == "" || req.RoomCode == "" {
		writeError(w, http.StatusBadRequest, "token and roomCode are required")
		return
	}

	if _, ok := s.store.Get(req.RoomCode); !ok {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}

	if err := s.tokens.Verify(req.Token, req.RoomCode); err != nil {
		log.Printf("hub: exchange rejected for room %s: %v", req.RoomCode, err)
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	handle := s.handles.Issue(req.RoomCode)
	writeJSON(w, http.StatusOK, live.ExchangeResponse{SSESessionID: handle})
}

// handleChannel upgrades GET /ws/live/{roomCode}?session={handle} to a
// websocket. The handle is burned on first presentation, valid or not.
func (s *Server) handleChannel(w http.ResponseWriter, r *http.Request) {
	roomCode, err := url.PathUnescape(strings.TrimPrefix(r.URL.Path, "/ws/live/"))
	if err != nil || roomCode == "" || strings.Contains(roomCode, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	handle := r.URL.Query().Get("session")
	if handle == "" || !s.handles.Redeem(handle, roomCode) {
		writeError(w, http.StatusUnauthorized, "invalid or expired session")
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("hub: ws upgrade error: %v", err)
		return
	}

	log.Printf("hub: viewer connected to room %s: %s", roomCode, r.RemoteAddr)
	c := s.hub.Join(roomCode, conn)

	go func() {
		defer func() {
			s.hub.Remove(c)
			log.Printf("hub: viewer left room %s: %s", roomCode, r.RemoteAddr)
		}()
		for {
			// The channel is one-way; reads only detect disconnect.
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

type createRoomRequest struct {
	RoomCode string `json:"roomCode"`
	Title    string `json:"title"`
	HostName string `json:"hostName"`
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RoomCode == "" {
		writeError(w, http.StatusBadRequest, "roomCode is required")
		return
	}

	sess, err := s.store.Create(req.RoomCode, req.Title, req.HostName)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	log.Printf("hub: room %s created", req.RoomCode)
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleRoomRoutes(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	// Parse: /api/rooms/{code} or /api/rooms/{code}/{action}
	path := strings.TrimPrefix(r.URL.Path, "/api/rooms/")
	parts := strings.SplitN(path, "/", 2)
	roomCode, err := url.PathUnescape(parts[0])
	if err != nil || roomCode == "" {
		writeError(w, http.StatusBadRequest, "invalid room code")
		return
	}

	if len(parts) == 1 {
		s.handleGetRoom(w, r, roomCode)
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	switch parts[1] {
	case "status":
		s.handleStatus(w, r, roomCode)
	case "highlight":
		s.handleHighlight(w, r, roomCode)
	case "cart":
		s.handleCart(w, r, roomCode)
	case "invite":
		s.handleInvite(w, r, roomCode)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request, roomCode string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sess, ok := s.store.Get(roomCode)
	if !ok {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request, roomCode string) {
	var req live.StatusPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !room.KnownStatus(req.Status) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", req.Status))
		return
	}

	if err := s.store.SetStatus(roomCode, req.Status); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	s.hub.BroadcastStatus(roomCode, req.Status)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request, roomCode string) {
	var req live.HighlightPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.store.SetHighlight(roomCode, req.BatchID); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	s.hub.BroadcastHighlight(roomCode, req.BatchID)
	w.WriteHeader(http.StatusNoContent)
}

// handleCart accepts either a bare item list or a full snapshot with
// totals. The list form is the common one; carts built by external
// tooling may arrive pre-aggregated.
func (s *Server) handleCart(w http.ResponseWriter, r *http.Request, roomCode string) {
	var body bytes.Buffer
	if _, err := body.ReadFrom(http.MaxBytesReader(w, r.Body, 1<<20)); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snap, err := decodeCartBody(body.Bytes())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.SetCart(roomCode, snap); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	// Broadcast the stored form so viewers see the highlight projection.
	sess, ok := s.store.Get(roomCode)
	if !ok {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	s.hub.BroadcastCart(roomCode, sess.Cart)
	w.WriteHeader(http.StatusNoContent)
}

func decodeCartBody(raw []byte) (cart.Snapshot, error) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return cart.Snapshot{}, fmt.Errorf("empty cart body")
	}

	if trimmed[0] == '[' {
		var items []cart.Item
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return cart.Snapshot{}, fmt.Errorf("invalid item list: %w", err)
		}
		return cart.FromItems(items), nil
	}

	var snap cart.Snapshot
	if err := json.Unmarshal(trimmed, &snap); err != nil {
		return cart.Snapshot{}, fmt.Errorf("invalid cart snapshot: %w", err)
	}
	return snap, nil
}

type inviteResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

// handleInvite mints a viewer session token for the room. The token is
// returned to the caller and never logged.
func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request, roomCode string) {
	if _, ok := s.store.Get(roomCode); !ok {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}

	token, err := s.tokens.Mint(roomCode, s.cfg.Auth.TokenTTL)
	if err != nil {
		log.Printf("hub: invite mint failed for room %s: %v", roomCode, err)
		writeError(w, http.StatusInternalServerError, "could not mint token")
		return
	}

	writeJSON(w, http.StatusOK, inviteResponse{
		Token:     token,
		ExpiresIn: int64(s.cfg.Auth.TokenTTL.Seconds()),
	})
}

type healthResponse struct {
	Status      string  `json:"status"`
	ActiveRooms int     `json:"activeRooms"`
	Viewers     int     `json:"viewers"`
	Goroutines  int     `json:"goroutines"`
	RSSBytes    uint64  `json:"rssBytes,omitempty"`
	CPUPercent  float64 `json:"cpuPercent,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:      "ok",
		ActiveRooms: s.store.ActiveCount(),
		Viewers:     s.hub.TotalViewers(),
		Goroutines:  runtime.NumGoroutine(),
	}

	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfo(); err == nil {
			resp.RSSBytes = mi.RSS
		}
		if pct, err := p.CPUPercent(); err == nil {
			resp.CPUPercent = pct
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// authorize checks the staff token. Header only; a token in a query
// string would end up in access logs.
func (s *Server) authorize(r *http.Request) bool {
	token := s.cfg.Auth.StaffToken
	if token == "" {
		return true
	}

	if r.Header.Get("X-Live-Staff-Token") == token {
		return true
	}

	header := r.Header.Get("Authorization")
	return strings.HasPrefix(header, "Bearer ") && strings.TrimPrefix(header, "Bearer ") == token
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := parsed.Host
	if host == "" {
		return false
	}

	if host == r.Host {
		return true
	}

	if strings.HasPrefix(host, "localhost:") || host == "localhost" {
		return true
	}
	if strings.HasPrefix(host, "127.0.0.1:") || host == "127.0.0.1" {
		return true
	}
	if strings.HasPrefix(host, "[::1]:") || host == "::1" {
		return true
	}

	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, live.ErrorResponse{Error: msg})
}

// ListenAndServe starts the HTTP server on host:port.
func ListenAndServe(host string, port int, mux *http.ServeMux) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	log.Printf("Server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
