package render

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/san-kum/tentview/internal/view"
)

//go:embed assets/index.html
var assets embed.FS

const writeWait = 5 * time.Second

// message is the envelope sent to browsers over the websocket.
type message struct {
	Type  string          `json:"type"`
	Scene json.RawMessage `json:"scene,omitempty"`
	Error string          `json:"error,omitempty"`
}

type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WebTarget serves the viewer page over HTTP and pushes each drawn scene
// to connected browsers over a websocket. Control changes made in the page
// come back as mutations.
type WebTarget struct {
	addr     string
	title    string
	log      *slog.Logger
	page     *template.Template
	upgrader websocket.Upgrader
	handle   view.Handler

	mu      sync.RWMutex
	scene   *Scene
	payload []byte
	clients map[*client]struct{}
	server  *http.Server
}

// WebOption configures a WebTarget.
type WebOption func(*WebTarget)

// WithLogger sets the logger used for connection events.
func WithLogger(l *slog.Logger) WebOption {
	return func(t *WebTarget) { t.log = l }
}

// WithTitle sets the page title.
func WithTitle(title string) WebOption {
	return func(t *WebTarget) { t.title = title }
}

// WithMutationHandler sets the function that receives control changes.
func WithMutationHandler(h view.Handler) WebOption {
	return func(t *WebTarget) { t.handle = h }
}

// NewWebTarget creates a target that will serve on addr once started.
func NewWebTarget(addr string, opts ...WebOption) (*WebTarget, error) {
	page, err := template.ParseFS(assets, "assets/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	t := &WebTarget{
		addr:    addr,
		title:   "tentview",
		log:     slog.Default(),
		page:    page,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 1 << 16,
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Name implements Target.
func (t *WebTarget) Name() string {
	return fmt.Sprintf("WebTarget(%s)", t.addr)
}

// Draw implements Target. The scene is kept for new clients and
// broadcast to the connected ones.
func (t *WebTarget) Draw(ctx context.Context, s *Scene) error {
	scene, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	payload, err := json.Marshal(message{Type: "scene", Scene: scene})
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.scene = s
	t.payload = payload
	clients := make([]*client, 0, len(t.clients))
	for c := range t.clients {
		clients = append(clients, c)
	}
	t.mu.Unlock()

	for _, c := range clients {
		if err := c.write(payload); err != nil {
			t.log.Debug("websocket write failed", "err", err)
			t.drop(c)
		}
	}
	return nil
}

// Clients returns the number of connected websocket clients.
func (t *WebTarget) Clients() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.clients)
}

// Handler returns the HTTP handler for embedding in existing servers.
func (t *WebTarget) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", t.handleIndex)
	mux.HandleFunc("GET /api/scene", t.handleScene)
	mux.HandleFunc("GET /api/state", t.handleState)
	mux.HandleFunc("POST /api/state", t.handleMutate)
	mux.HandleFunc("GET /ws", t.handleWebSocket)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

func (t *WebTarget) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.page.Execute(w, struct{ Title string }{t.title}); err != nil {
		t.log.Error("render page", "err", err)
	}
}

func (t *WebTarget) handleScene(w http.ResponseWriter, r *http.Request) {
	t.mu.RLock()
	s := t.scene
	t.mu.RUnlock()
	if s == nil {
		http.Error(w, "no scene drawn yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (t *WebTarget) handleState(w http.ResponseWriter, r *http.Request) {
	t.mu.RLock()
	s := t.scene
	t.mu.RUnlock()
	if s == nil {
		http.Error(w, "no scene drawn yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, s.State)
}

func (t *WebTarget) handleMutate(w http.ResponseWriter, r *http.Request) {
	var m view.Mutation
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := t.apply(r.Context(), m); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, view.ErrConfiguration) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, m)
}

func (t *WebTarget) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.log.Warn("websocket upgrade", "err", err)
		return
	}
	c := &client{conn: conn}

	t.mu.Lock()
	t.clients[c] = struct{}{}
	payload := t.payload
	t.mu.Unlock()
	t.log.Debug("websocket client connected", "remote", r.RemoteAddr)

	if payload != nil {
		if err := c.write(payload); err != nil {
			t.drop(c)
			return
		}
	}
	defer t.drop(c)

	for {
		var m view.Mutation
		if err := conn.ReadJSON(&m); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.log.Debug("websocket read", "err", err)
			}
			return
		}
		if err := t.apply(r.Context(), m); err != nil {
			data, _ := json.Marshal(message{Type: "error", Error: err.Error()})
			if c.write(data) != nil {
				return
			}
		}
	}
}

func (t *WebTarget) apply(ctx context.Context, m view.Mutation) error {
	if t.handle == nil {
		return fmt.Errorf("%w: viewer is read-only", view.ErrConfiguration)
	}
	return t.handle(ctx, m)
}

func (t *WebTarget) drop(c *client) {
	t.mu.Lock()
	_, ok := t.clients[c]
	delete(t.clients, c)
	t.mu.Unlock()
	if ok {
		c.conn.Close()
	}
}

// Start serves until ctx is cancelled or Close is called.
func (t *WebTarget) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", t.addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: t.Handler(), ReadHeaderTimeout: 10 * time.Second}

	t.mu.Lock()
	t.server = srv
	t.addr = ln.Addr().String()
	t.mu.Unlock()
	t.log.Info("serving viewer", "url", t.URL())

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Close implements Target.
func (t *WebTarget) Close() error {
	t.mu.Lock()
	srv := t.server
	clients := t.clients
	t.clients = make(map[*client]struct{})
	t.mu.Unlock()

	for c := range clients {
		c.conn.Close()
	}
	if srv != nil {
		return srv.Shutdown(context.Background())
	}
	return nil
}

// URL returns the address the target is serving on.
func (t *WebTarget) URL() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	host, port, err := net.SplitHostPort(t.addr)
	if err != nil {
		return "http://" + t.addr
	}
	if host == "" || host == "::" || host == "0.0.0.0" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
