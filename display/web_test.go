package display

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/boriwo/blockplay/ascii"
	"github.com/gorilla/websocket"
)

func dialWeb(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

// waitClients blocks until n browsers are connected.
func waitClients(t *testing.T, w *Web, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		w.mu.Lock()
		got := len(w.clients)
		w.mu.Unlock()
		if got == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d clients", n)
}

func TestWebBroadcastsStatusAndFrames(t *testing.T) {
	web := NewWeb(WebOptions{Width: 640, Height: 480}, ascii.Glyphs{Filled: '#', Empty: '.'})
	server := httptest.NewServer(web.Handler())
	defer server.Close()

	web.ShowStatus("Loading...")
	conn := dialWeb(t, server)
	if msg := readMessage(t, conn); msg.Type != "status" || msg.Text != "Loading..." {
		t.Fatalf("expected replay of last status, got %+v", msg)
	}
	waitClients(t, web, 1)

	web.ShowFrame(checkerFrame())
	if msg := readMessage(t, conn); msg.Type != "frame" || msg.Text != "#.#\n.#.\n" {
		t.Fatalf("unexpected frame message %+v", msg)
	}

	resp, err := http.Get(server.URL + "/frame.html")
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "#.#\n.#.\n") {
		t.Fatalf("snapshot missing frame: %s", body)
	}
}

func TestWebForwardsCommands(t *testing.T) {
	web := NewWeb(WebOptions{}, ascii.DefaultGlyphs)
	controls := newRecordedControls()
	web.Attach(controls)
	server := httptest.NewServer(web.Handler())
	defer server.Close()
	conn := dialWeb(t, server)

	cmds := []struct {
		cmd  command
		want string
	}{
		{command{Action: "toggle"}, "toggle"},
		{command{Action: "invert"}, "invert"},
		{command{Action: "resolution", Manual: true, Width: 40, Height: 20}, "manual"},
		{command{Action: "resolution"}, "auto"},
		{command{Action: "load"}, ""},
		{command{Action: "load", Path: "clips/second"}, "load clips/second"},
	}
	for _, c := range cmds {
		if err := conn.WriteJSON(c.cmd); err != nil {
			t.Fatalf("write: %v", err)
		}
		if c.want == "" {
			continue
		}
		select {
		case got := <-controls.calls:
			if got != c.want {
				t.Fatalf("expected %s, got %s", c.want, got)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %s", c.want)
		}
	}
}

func TestWebServesPage(t *testing.T) {
	web := NewWeb(WebOptions{}, ascii.DefaultGlyphs)
	server := httptest.NewServer(web.Handler())
	defer server.Close()
	resp, err := http.Get(server.URL + "/")
	if err != nil {
		t.Fatalf("get page: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "new WebSocket") {
		t.Fatalf("unexpected page %d", resp.StatusCode)
	}
	missing, err := http.Get(server.URL + "/nope")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.StatusCode)
	}
}
