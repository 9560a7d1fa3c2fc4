package stream

import (
	"context"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Hub fans realtime events out to WebSocket subscribers. Topics take
// the place of the managed platform's change-feed channels:
//
//	walk:{walkID}     per-walk location inserts
//	walker:{walkerID} live walker position updates
//	user:{userID}     request and walk-start notices
//
// Events are mirrored through redis pub/sub so every instance sees them.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	Topic string
	Send  chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(topic string) *Client {
	client := &Client{
		Topic: topic,
		Send:  make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[topic] == nil {
		h.clients[topic] = map[*Client]struct{}{}
	}
	h.clients[topic][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if topicClients, ok := h.clients[client.Topic]; ok {
		delete(topicClients, client)
		if len(topicClients) == 0 {
			delete(h.clients, client.Topic)
		}
	}
	close(client.Send)
}

// Broadcast delivers payload to local subscribers and publishes it to
// redis for other instances. Slow consumers drop the message.
func (h *Hub) Broadcast(topic string, payload []byte) {
	h.deliver(topic, payload)

	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(topic), payload).Err()
		if err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

// deliver sends under the read lock. Unregister closes Send behind the
// write lock, so a client can never be closed mid-send; the
// non-blocking sends keep the hold time bounded.
func (h *Hub) deliver(topic string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[topic] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "doggy:*:events")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.deliver(topicFromChannel(msg.Channel), []byte(msg.Payload))
	}
}

func redisChannel(topic string) string {
	return "doggy:" + topic + ":events"
}

func topicFromChannel(ch string) string {
	// doggy:{topic}:events
	const prefix = "doggy:"
	const suffix = ":events"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}

// WalkTopic is the feed of location points for one walk.
func WalkTopic(walkID string) string { return "walk:" + walkID }

// WalkerTopic is the feed of a walker's live position.
func WalkerTopic(walkerID string) string { return "walker:" + walkerID }

// UserTopic is the per-user notification feed.
func UserTopic(userID string) string { return "user:" + userID }
