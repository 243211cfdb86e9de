package display

import (
	"testing"
	"time"

	"github.com/boriwo/blockplay/ascii"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type doneToken struct {
	mqtt.Token
}

func (doneToken) Wait() bool                     { return true }
func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (doneToken) Error() error                   { return nil }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  string
}

type fakeClient struct {
	mqtt.Client
	published []published
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.published = append(c.published, published{topic, qos, retained, string(payload.([]byte))})
	return doneToken{}
}

func TestMQTTPublishes(t *testing.T) {
	client := &fakeClient{}
	m := NewMQTT(client, MQTTOptions{
		FrameTopic:  "tv/frame",
		StatusTopic: "tv/status",
		Columns:     80,
		Rows:        24,
	}, ascii.Glyphs{Filled: '#', Empty: '.'})

	if w, h := m.Area(); w != 80 || h != 24 {
		t.Fatalf("unexpected area %vx%v", w, h)
	}
	m.ShowStatus("End of Video")
	m.ShowFrame(checkerFrame())
	if len(client.published) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(client.published))
	}
	status, frame := client.published[0], client.published[1]
	if status.topic != "tv/status" || !status.retained || status.payload != "End of Video" {
		t.Fatalf("unexpected status message %+v", status)
	}
	if frame.topic != "tv/frame" || frame.retained || frame.payload != "#.#\n.#.\n" {
		t.Fatalf("unexpected frame message %+v", frame)
	}
}

// stuckToken never completes, like a publish to an unreachable broker.
type stuckToken struct {
	mqtt.Token
	release chan struct{}
}

func (t stuckToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.release:
		return true
	case <-time.After(d):
		return false
	}
}

func (stuckToken) Error() error { return nil }

type stuckClient struct {
	mqtt.Client
	release chan struct{}
}

func (c *stuckClient) Publish(string, byte, bool, interface{}) mqtt.Token {
	return stuckToken{release: c.release}
}

func TestMQTTDoesNotWaitForBroker(t *testing.T) {
	client := &stuckClient{release: make(chan struct{})}
	defer close(client.release)
	m := NewMQTT(client, MQTTOptions{FrameTopic: "tv/frame", StatusTopic: "tv/status"}, ascii.DefaultGlyphs)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			m.ShowFrame(checkerFrame())
		}
		m.ShowStatus("Loading...")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publishing blocked on the broker")
	}
}
