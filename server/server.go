// Package server provides an HTTP/WebSocket play server for cave episodes.
package server

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cavecrawl/go-cavecrawl/agent"
	"github.com/cavecrawl/go-cavecrawl/cache"
	"github.com/cavecrawl/go-cavecrawl/mdp"
	"github.com/cavecrawl/go-cavecrawl/storage"
)

// Server handles HTTP and WebSocket connections. Each client runs one
// episode at a time; planning results are shared across sessions through a
// common policy cache.
type Server struct {
	mu sync.RWMutex

	sessions map[string]*EpisodeSession
	clients  map[*Client]bool

	upgrader websocket.Upgrader

	cfg   mdp.Config
	cache *cache.PolicyCache

	// SQLite storage for session logging (optional)
	store *storage.Store
}

// EpisodeSession represents one client's active episode.
type EpisodeSession struct {
	ID        string
	Episode   *agent.Episode
	Client    *Client
	CreatedAt time.Time
	MapHash   string
	mu        sync.Mutex
}

// Client represents a connected player.
type Client struct {
	ID       string
	Conn     *websocket.Conn
	Session  *EpisodeSession
	sendChan chan []byte
}

// Message types
type MessageType string

const (
	MsgTypeJoin    MessageType = "join"
	MsgTypeDecide  MessageType = "decide"
	MsgTypeOutcome MessageType = "outcome"
	MsgTypeState   MessageType = "state"
	MsgTypeError   MessageType = "error"
	MsgTypePing    MessageType = "ping"
	MsgTypePong    MessageType = "pong"
	MsgTypeLeave   MessageType = "leave"
)

// Message envelope
type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// JoinPayload starts an episode on a map.
type JoinPayload struct {
	Map   string `json:"map"`
	Skill int    `json:"skill"`
	Seed  int64  `json:"seed,omitempty"`
}

// StatePayload reports the episode state after join or a step.
type StatePayload struct {
	SessionID string  `json:"session_id"`
	Map       string  `json:"map"`
	Tick      int     `json:"tick"`
	Gold      int     `json:"gold"`
	Reward    float64 `json:"total_reward"`
	Exited    bool    `json:"exited"`
	Died      bool    `json:"died"`
}

// OutcomePayload reports one executed step.
type OutcomePayload struct {
	Step  agent.StepRecord `json:"step"`
	State StatePayload     `json:"state"`
}

// ErrorPayload for errors
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// New creates a play server planning with the given config.
func New(cfg mdp.Config) *Server {
	return &Server{
		sessions: make(map[string]*EpisodeSession),
		clients:  make(map[*Client]bool),
		cfg:      cfg,
		cache:    cache.NewPolicyCache(64),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// SetStore sets the SQLite storage for session logging.
func (s *Server) SetStore(store *storage.Store) {
	s.store = store
	if store != nil {
		log.Println("SQLite session logging enabled")
	}
}

// ServeHTTP handles HTTP requests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/ws":
		s.handleWebSocket(w, r)
	case "/health":
		s.handleHealth(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	sessions, clients := len(s.sessions), len(s.clients)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"game":     "cavecrawl",
		"sessions": sessions,
		"clients":  clients,
		"cache":    s.cache.Stats(),
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		ID:       storage.NewSessionID(),
		Conn:     conn,
		sendChan: make(chan []byte, 256),
	}

	s.mu.Lock()
	s.clients[client] = true
	s.mu.Unlock()

	log.Printf("Client %s connected", client.ID)

	go client.writePump()
	s.handleClient(client)
}

func (s *Server) handleClient(client *Client) {
	defer func() {
		s.removeClient(client)
		client.Conn.Close()
		close(client.sendChan)
	}()

	client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, msgBytes, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Client %s read error: %v", client.ID, err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(msgBytes, &msg); err != nil {
			s.sendError(client, "invalid_message", "Could not parse message")
			continue
		}

		s.handleMessage(client, &msg)
	}
}

func (s *Server) handleMessage(client *Client, msg *Message) {
	switch msg.Type {
	case MsgTypeJoin:
		s.handleJoin(client, msg.Payload)

	case MsgTypeDecide:
		s.handleDecide(client)

	case MsgTypePing:
		s.sendMessage(client, MsgTypePong, nil)

	case MsgTypeLeave:
		s.handleLeave(client)

	default:
		s.sendError(client, "unknown_type", fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (s *Server) handleJoin(client *Client, payload json.RawMessage) {
	var join JoinPayload
	if err := json.Unmarshal(payload, &join); err != nil {
		s.sendError(client, "invalid_payload", fmt.Sprintf("Invalid join payload: %v", err))
		return
	}

	ep, err := agent.NewEpisode(join.Map, s.cfg, join.Skill, join.Seed)
	if err != nil {
		s.sendError(client, "bad_map", err.Error())
		return
	}
	ep.WithAgent(agent.New(s.cfg.WithSkill(join.Skill)).WithCache(s.cache))

	session := &EpisodeSession{
		ID:        storage.NewSessionID(),
		Episode:   ep,
		Client:    client,
		CreatedAt: time.Now(),
		MapHash:   fmt.Sprintf("%x", sha256.Sum256([]byte(join.Map)))[:16],
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	client.Session = session

	if s.store != nil {
		if err := s.store.CreateSession(session.ID, session.MapHash, join.Skill, join.Seed); err != nil {
			log.Printf("Failed to log session to SQLite: %v", err)
		}
	}

	log.Printf("Client %s started session %s (skill=%d)", client.ID, session.ID, join.Skill)
	s.sendMessage(client, MsgTypeState, s.statePayload(session, join.Map))
}

func (s *Server) handleDecide(client *Client) {
	if client.Session == nil {
		s.sendError(client, "no_session", "Not in an episode")
		return
	}

	session := client.Session
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.Episode.Done() {
		s.sendError(client, "episode_over", "Episode already terminated")
		return
	}

	step, err := session.Episode.Step()
	if err != nil {
		s.sendError(client, "decide_error", err.Error())
		return
	}

	s.logDecisionToStore(session, step)
	if session.Episode.Done() {
		s.endSessionInStore(session)
	}

	s.sendMessage(client, MsgTypeOutcome, OutcomePayload{
		Step:  step,
		State: s.statePayload(session, ""),
	})
}

func (s *Server) statePayload(session *EpisodeSession, mapText string) StatePayload {
	res := session.Episode.Result()
	return StatePayload{
		SessionID: session.ID,
		Map:       mapText,
		Tick:      res.Ticks,
		Gold:      res.Gold,
		Reward:    res.TotalReward,
		Exited:    res.Exited,
		Died:      res.Died,
	}
}

func (s *Server) handleLeave(client *Client) {
	if client.Session != nil {
		s.endSessionInStore(client.Session)

		s.mu.Lock()
		delete(s.sessions, client.Session.ID)
		s.mu.Unlock()
		client.Session = nil
	}
}

func (s *Server) removeClient(client *Client) {
	s.handleLeave(client)

	s.mu.Lock()
	delete(s.clients, client)
	s.mu.Unlock()

	log.Printf("Client %s disconnected", client.ID)
}

func (s *Server) logDecisionToStore(session *EpisodeSession, step agent.StepRecord) {
	if s.store == nil {
		return
	}

	d := &storage.Decision{
		SessionID: session.ID,
		Tick:      step.Tick,
		Col:       step.Next.Col,
		Row:       step.Next.Row,
		Gold:      step.Gold,
		Action:    step.Name,
		Reward:    step.Reward,
	}
	if step.Bridge != nil {
		d.BridgeAttempt = true
		d.BridgeSuccess = step.Bridge.Success
	}

	if err := s.store.LogDecision(d); err != nil {
		log.Printf("Failed to log decision to SQLite: %v", err)
	}
}

func (s *Server) endSessionInStore(session *EpisodeSession) {
	if s.store == nil {
		return
	}

	res := session.Episode.Result()
	if err := s.store.EndSession(session.ID, res.Ticks, res.Gold, res.TotalReward, res.Exited, res.Died); err != nil {
		log.Printf("Failed to end session in SQLite: %v", err)
	}
}

func (s *Server) sendMessage(client *Client, msgType MessageType, payload any) {
	var payloadBytes json.RawMessage
	if payload != nil {
		var err error
		payloadBytes, err = json.Marshal(payload)
		if err != nil {
			log.Printf("Error marshaling payload: %v", err)
			return
		}
	}

	msg := Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}

	msgBytes, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}

	select {
	case client.sendChan <- msgBytes:
	default:
		log.Printf("Client %s send buffer full", client.ID)
	}
}

func (s *Server) sendError(client *Client, code, message string) {
	s.sendMessage(client, MsgTypeError, ErrorPayload{
		Code:    code,
		Message: message,
	})
}

func (client *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.sendChan:
			if !ok {
				return
			}

			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Client %s write error: %v", client.ID, err)
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
