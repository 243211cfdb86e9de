package display

import (
	"context"
	_ "embed"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/boriwo/blockplay/ascii"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

//go:embed page.html
var page []byte

const clientQueue = 8

// WebOptions configure the browser display. Width and Height are the
// page area in pixels frames are fitted to.
type WebOptions struct {
	Address string
	Width   float64
	Height  float64
}

type message struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type command struct {
	Action string `json:"action"`
	Manual bool   `json:"manual"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Path   string `json:"path"`
}

type webClient struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
}

// Web serves a page that shows frames pushed over a websocket and sends the
// page controls back.
type Web struct {
	opts     WebOptions
	glyphs   ascii.Glyphs
	upgrader websocket.Upgrader

	mu        sync.Mutex
	clients   map[uuid.UUID]*webClient
	last      []byte
	lastLines []string
	controls  Controls
}

func NewWeb(opts WebOptions, glyphs ascii.Glyphs) *Web {
	return &Web{
		opts:   opts,
		glyphs: glyphs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[uuid.UUID]*webClient),
	}
}

// Attach sets where browser commands go.
func (w *Web) Attach(controls Controls) {
	w.mu.Lock()
	w.controls = controls
	w.mu.Unlock()
}

func (w *Web) Area() (float64, float64) {
	return w.opts.Width, w.opts.Height
}

func (w *Web) ShowStatus(msg string) {
	w.broadcast(message{Type: "status", Text: msg}, nil)
}

func (w *Web) ShowFrame(f ascii.Frame) {
	lines := f.Lines(w.glyphs)
	w.broadcast(message{Type: "frame", Text: f.Text(w.glyphs)}, lines)
}

// broadcast queues msg for every client. Clients that fall behind miss
// frames.
func (w *Web) broadcast(msg message, lines []string) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("event=web_encode error=%q", err)
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.last = data
	if lines != nil {
		w.lastLines = lines
	}
	for _, c := range w.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}

// Handler serves the page, the websocket and an html snapshot of the
// latest frame.
func (w *Web) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(rw http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(rw, r)
			return
		}
		rw.Header().Set("Content-Type", "text/html; charset=utf-8")
		rw.Write(page)
	})
	mux.HandleFunc("/frame.html", func(rw http.ResponseWriter, r *http.Request) {
		w.mu.Lock()
		lines := w.lastLines
		w.mu.Unlock()
		rw.Header().Set("Content-Type", "text/html; charset=utf-8")
		ascii.PrintHTML(rw, lines, true)
	})
	mux.HandleFunc("/ws", w.serveWS)
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		log.Print(r.RemoteAddr + " " + r.Method + " " + r.URL.String())
		mux.ServeHTTP(rw, r)
	})
}

func (w *Web) serveWS(rw http.ResponseWriter, r *http.Request) {
	conn, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		if _, ok := err.(websocket.HandshakeError); !ok {
			log.Println(err)
		}
		return
	}
	c := &webClient{id: uuid.New(), conn: conn, send: make(chan []byte, clientQueue)}
	w.mu.Lock()
	w.clients[c.id] = c
	if w.last != nil {
		c.send <- w.last
	}
	w.mu.Unlock()
	log.Printf("event=web_client_joined client=%s", c.id)
	go w.writeSocket(c)
	w.readSocket(c)
}

// readSocket forwards browser commands until the connection closes.
func (w *Web) readSocket(c *webClient) {
	defer func() {
		w.mu.Lock()
		delete(w.clients, c.id)
		close(c.send)
		w.mu.Unlock()
		c.conn.Close()
		log.Printf("event=web_client_left client=%s", c.id)
	}()
	for {
		var cmd command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("event=web_read client=%s error=%q", c.id, err)
			}
			return
		}
		w.apply(cmd)
	}
}

func (w *Web) apply(cmd command) {
	w.mu.Lock()
	controls := w.controls
	w.mu.Unlock()
	if controls == nil {
		return
	}
	switch cmd.Action {
	case "toggle":
		controls.TogglePlayback()
	case "invert":
		controls.ToggleInvert()
	case "resolution":
		controls.SetResolution(cmd.Manual, cmd.Width, cmd.Height)
	case "load":
		if cmd.Path == "" {
			log.Printf("event=web_command error=%q", "load without path")
			return
		}
		controls.Load(cmd.Path)
	default:
		log.Printf("event=web_command error=%q", "unknown action "+cmd.Action)
	}
}

func (w *Web) writeSocket(c *webClient) {
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("event=web_write client=%s error=%q", c.id, err)
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
}

// Serve listens on the configured address until ctx is done.
func (w *Web) Serve(ctx context.Context) error {
	server := &http.Server{Addr: w.opts.Address, Handler: w.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()
	log.Printf("event=web_listen address=%s", w.opts.Address)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrapf(err, "serve %s", w.opts.Address)
	}
	return nil
}
