package display

import (
	"log"
	"time"

	"github.com/boriwo/blockplay/ascii"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
)

const publishTimeout = 5 * time.Second

// MQTTOptions configure the broker connection and topics.
type MQTTOptions struct {
	URL         string
	ClientID    string
	Username    string
	Password    string
	FrameTopic  string
	StatusTopic string
	// Columns and Rows are the size of the remote text display.
	Columns int
	Rows    int
}

// MQTT publishes frame text and status messages to a broker.
type MQTT struct {
	client mqtt.Client
	opts   MQTTOptions
	glyphs ascii.Glyphs
}

// DialMQTT connects to the broker.
func DialMQTT(opts MQTTOptions, glyphs ascii.Glyphs) (*MQTT, error) {
	options := mqtt.NewClientOptions().
		AddBroker(opts.URL).
		SetClientID(opts.ClientID).
		SetUsername(opts.Username).
		SetPassword(opts.Password).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second).
		SetAutoReconnect(true).
		SetOnConnectHandler(func(mqtt.Client) {
			log.Printf("event=mqtt_connected broker=%s", opts.URL)
		})
	client := mqtt.NewClient(options)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, errors.Wrapf(token.Error(), "connect %s", opts.URL)
	}
	return NewMQTT(client, opts, glyphs), nil
}

// NewMQTT publishes through an already configured client.
func NewMQTT(client mqtt.Client, opts MQTTOptions, glyphs ascii.Glyphs) *MQTT {
	return &MQTT{client: client, opts: opts, glyphs: glyphs}
}

func (m *MQTT) Area() (float64, float64) {
	return float64(m.opts.Columns), float64(m.opts.Rows)
}

func (m *MQTT) ShowStatus(msg string) {
	// status is retained so late subscribers see the current state
	m.publish(m.opts.StatusTopic, 1, true, []byte(msg))
}

func (m *MQTT) ShowFrame(f ascii.Frame) {
	m.publish(m.opts.FrameTopic, 0, false, []byte(f.Text(m.glyphs)))
}

// publish does not wait for delivery; report logs the outcome.
func (m *MQTT) publish(topic string, qos byte, retained bool, payload []byte) {
	token := m.client.Publish(topic, qos, retained, payload)
	go report(topic, token)
}

func report(topic string, token mqtt.Token) {
	if !token.WaitTimeout(publishTimeout) {
		log.Printf("event=mqtt_publish topic=%s error=timeout", topic)
		return
	}
	if err := token.Error(); err != nil {
		log.Printf("event=mqtt_publish topic=%s error=%q", topic, err)
	}
}

// Close disconnects from the broker.
func (m *MQTT) Close() {
	m.client.Disconnect(250)
}
