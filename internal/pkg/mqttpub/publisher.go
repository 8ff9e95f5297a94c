package mqttpub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/jake-scott/gira-x1/internal/pkg/callback"
	"github.com/jake-scott/gira-x1/internal/pkg/logging"
	"github.com/pkg/errors"
)

const (
	DefaultTopicRoot = "gira-x1"

	publishTimeout    = 5 * time.Second
	disconnectQuiesce = 250
)

var ErrNotConnected = errors.New("mqtt: not connected")

// Message is the payload published for each value event
type Message struct {
	UID      string    `json:"uid"`
	Value    string    `json:"value"`
	Received time.Time `json:"received"`
}

// Publisher republishes gateway value events to an MQTT broker under
// <topic root>/values/<data point uid>
type Publisher struct {
	topicRoot string
	opts      *paho.ClientOptions
	client    paho.Client
}

// NewPublisher prepares a publisher; nothing is sent until Connect.  The
// client ID gets a random suffix so several listeners can share a broker.
func NewPublisher(brokerURL string, clientID string, topicRoot string) *Publisher {
	if topicRoot == "" {
		topicRoot = DefaultTopicRoot
	}

	opts := paho.NewClientOptions().AddBroker(brokerURL)
	opts.SetClientID(clientID + "-" + strings.Split(uuid.New().String(), "-")[0])
	opts.SetAutoReconnect(true)

	return &Publisher{
		topicRoot: strings.TrimRight(topicRoot, "/"),
		opts:      opts,
	}
}

func (p *Publisher) ClientID() string {
	return p.opts.ClientID
}

func (p *Publisher) Connect(ctx context.Context) error {
	p.client = paho.NewClient(p.opts)

	token := p.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		p.client = nil
		return errors.Wrap(err, "connecting to mqtt broker")
	}

	logging.Logger(ctx).Infof("connected to mqtt broker as %s", p.opts.ClientID)
	return nil
}

func (p *Publisher) Disconnect() {
	if p.client == nil {
		return
	}

	p.client.Disconnect(disconnectQuiesce)
	p.client = nil
}

func (p *Publisher) Topic(uid string) string {
	return fmt.Sprintf("%s/values/%s", p.topicRoot, uid)
}

// Publish sends one event and waits for the broker to accept it
func (p *Publisher) Publish(ctx context.Context, ev callback.Event) error {
	if p.client == nil || !p.client.IsConnected() {
		return ErrNotConnected
	}
	if ev.UID == "" {
		return errors.New("mqtt: event without a uid")
	}

	payload, err := json.Marshal(Message{
		UID:      ev.UID,
		Value:    ev.Value,
		Received: time.Now().UTC(),
	})
	if err != nil {
		return errors.Wrap(err, "encoding mqtt payload")
	}

	topic := p.Topic(ev.UID)
	token := p.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return errors.Errorf("publishing to %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return errors.Wrapf(err, "publishing to %s", topic)
	}

	logging.Logger(ctx).Debugf("published %s = %s to %s", ev.UID, ev.Value, topic)
	return nil
}
