package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSPublisher publishes JSON-encoded events to NATS subjects.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to the NATS server at url (HK_NATS_URL).
func NewNATSPublisher(url string, opts ...nats.Option) (*NATSPublisher, error) {
	defaults := []nats.Option{
		nats.Name("hackops-publisher"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSPublisher{conn: nc}, nil
}

// Publish encodes event as JSON and publishes it on topic. The hackathon ID,
// when the event carries one, is sent as a message header so consumers can
// filter without decoding the body.
func (p *NATSPublisher) Publish(ctx context.Context, topic string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	msg := nats.NewMsg(topic)
	msg.Data = data
	if id := hackathonOf(event); id != "" {
		msg.Header.Set(HeaderHackathon, id)
	}
	return p.conn.PublishMsg(msg)
}

// HeaderHackathon is the NATS header carrying the event's hackathon ID.
const HeaderHackathon = "Hackops-Hackathon"

func hackathonOf(event any) string {
	switch e := event.(type) {
	case HackathonCreated:
		if e.Hackathon != nil {
			return e.Hackathon.ID
		}
	case ParticipantRegistered:
		if e.Participant != nil {
			return e.Participant.HackathonID
		}
	case ParticipantStatusChanged:
		return e.HackathonID
	case BulkStatusApplied:
		return e.HackathonID
	case RulesUpdated:
		if e.RuleSet != nil {
			return e.RuleSet.HackathonID
		}
	case FormFieldsUpdated:
		return e.HackathonID
	case TeamCreated:
		if e.Team != nil {
			return e.Team.HackathonID
		}
	case TeamUpdated:
		if e.Team != nil {
			return e.Team.HackathonID
		}
	case TeamDeleted:
		return e.HackathonID
	case TransferStaged:
		return e.HackathonID
	case TransfersSettled:
		return e.HackathonID
	}
	return ""
}

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}

// NATSSubscriber subscribes to events from NATS subjects.
type NATSSubscriber struct {
	conn *nats.Conn
}

// NewNATSSubscriber connects to NATS with automatic reconnection support.
// Extra nats.Option values (e.g. disconnect/reconnect handlers) can be appended.
func NewNATSSubscriber(url string, opts ...nats.Option) (*NATSSubscriber, error) {
	defaults := []nats.Option{
		nats.Name("hackops-subscriber"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSSubscriber{conn: nc}, nil
}

// Subscribe returns a channel that receives events for the given topic
// (supports NATS wildcards like "hackops.>"). Call the returned cancel
// function to unsubscribe and close the channel.
func (s *NATSSubscriber) Subscribe(topic string) (<-chan Message, func(), error) {
	return s.subscribe(topic, nil)
}

// SubscribeHackathon is Subscribe restricted to events tagged with the
// given hackathon ID. Events without a hackathon header are dropped.
func (s *NATSSubscriber) SubscribeHackathon(topic, hackathonID string) (<-chan Message, func(), error) {
	return s.subscribe(topic, func(msg *nats.Msg) bool {
		return msg.Header.Get(HeaderHackathon) == hackathonID
	})
}

func (s *NATSSubscriber) subscribe(topic string, keep func(*nats.Msg) bool) (<-chan Message, func(), error) {
	ch := make(chan Message, 64)

	var (
		mu     sync.Mutex
		closed bool
		once   sync.Once
	)

	sub, err := s.conn.Subscribe(topic, func(msg *nats.Msg) {
		if keep != nil && !keep(msg) {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		m := Message{Topic: msg.Subject, Data: msg.Data}
		if msg.Header != nil {
			m.HackathonID = msg.Header.Get(HeaderHackathon)
		}
		select {
		case ch <- m:
		default:
			// Full channel: drop rather than block the NATS client.
		}
	})
	if err != nil {
		close(ch)
		return nil, nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	// The subscription must be registered on the server before returning
	// so messages published on other connections are routed to it.
	if err := s.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		close(ch)
		return nil, nil, fmt.Errorf("flushing subscription: %w", err)
	}

	cancel := func() {
		once.Do(func() {
			_ = sub.Unsubscribe()
			mu.Lock()
			closed = true
			mu.Unlock()
			for {
				select {
				case <-ch:
				default:
					close(ch)
					return
				}
			}
		})
	}

	return ch, cancel, nil
}

func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}
