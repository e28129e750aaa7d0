package pubsub

import (
	"encoding/json"
	"sync"

	"github.com/coding-arena/arena/internal/standings"
	"go.uber.org/zap"
)

const subscriberBuffer = 8

// Broker a simple in-memory pub/sub system. Each topic remembers its latest
// message so late subscribers start from the current state.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[string][]chan []byte // topic -> list of subscriber channels
	latest      map[string][]byte        // topic -> last published message
}

type WsMessage struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

var (
	once   sync.Once
	broker *Broker
)

func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[string][]chan []byte),
		latest:      make(map[string][]byte),
	}
}

// GetBroker returns the singleton instance of the Broker.
func GetBroker() *Broker {
	once.Do(func() {
		broker = NewBroker()
	})
	return broker
}

// Subscribe subscribes to a topic. The latest message, if any, is the first
// one the subscriber receives.
func (b *Broker) Subscribe(topic string) (<-chan []byte, func()) {
	b.mu.Lock()
	ch := make(chan []byte, subscriberBuffer)
	if msg, ok := b.latest[topic]; ok {
		ch <- msg
	}
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	b.mu.Unlock()

	var unsubOnce sync.Once
	unsubscribe := func() {
		unsubOnce.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			subscribers := b.subscribers[topic]
			for i, sub := range subscribers {
				if sub == ch {
					b.subscribers[topic] = append(subscribers[:i:i], subscribers[i+1:]...)
					close(ch)
					break
				}
			}
			zap.S().Debugf("unsubscribed from topic %s", topic)
		})
	}

	zap.S().Debugf("new subscription to topic %s", topic)
	return ch, unsubscribe
}

// Publish publishes a message to all subscribers of a topic and remembers it.
// A subscriber whose buffer is full loses its oldest pending message.
func (b *Broker) Publish(topic string, msg []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.latest[topic] = msg
	for _, ch := range b.subscribers[topic] {
		select {
		case ch <- msg:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- msg:
			default:
			}
		}
	}
}

// Latest returns the last message published to topic.
func (b *Broker) Latest(topic string) ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	msg, ok := b.latest[topic]
	return msg, ok
}

// CloseTopic closes all subscriber channels and forgets the latest message for a given topic.
func (b *Broker) CloseTopic(topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subscribers[topic] {
		close(ch)
	}
	delete(b.subscribers, topic)
	delete(b.latest, topic)
	zap.S().Infof("closed pubsub topic %s", topic)
}

// Helper to format stream messages
func FormatMessage(streamType string, data any) []byte {
	raw, err := json.Marshal(data)
	if err != nil {
		return []byte(`{"stream": "error", "data": "json format error"}`)
	}
	bytes, err := json.Marshal(WsMessage{Stream: streamType, Data: raw})
	if err != nil {
		return []byte(`{"stream": "error", "data": "json format error"}`)
	}
	return bytes
}

// StandingsTopic is the topic a contest's snapshots are published on.
func StandingsTopic(contestID string) string {
	return "standings:" + contestID
}

// StandingsPublisher publishes standings snapshots on a Broker.
type StandingsPublisher struct {
	Broker *Broker
}

func (p StandingsPublisher) PublishStandings(s *standings.Standings) {
	p.Broker.Publish(StandingsTopic(s.ContestID), FormatMessage("standings", s))
}

var _ standings.Publisher = StandingsPublisher{}
