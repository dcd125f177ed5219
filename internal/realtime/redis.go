package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisBridge: replica los cambios entre instancias usando pub/sub de Redis
type RedisBridge struct {
	client  *redis.Client
	channel string
	origin  string
	hub     *Hub
	log     *logrus.Logger

	// colecciones pendientes de publicar; varios cambios de la misma colección se envían una vez
	mu      sync.Mutex
	pending map[string]bool
	wake    chan struct{}
}

// NewRedisClient: conecta y verifica con PING
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

// NewRedisBridge: registra el reenvío de cambios locales en el hub
func NewRedisBridge(client *redis.Client, channel string, hub *Hub, log *logrus.Logger) *RedisBridge {
	b := &RedisBridge{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		hub:     hub,
		log:     log,
		pending: make(map[string]bool),
		wake:    make(chan struct{}, 1),
	}
	hub.Forward(b.forward)
	return b
}

// forward: encola el cambio local; la publicación en Redis ocurre en publishLoop
func (b *RedisBridge) forward(c Change) {
	if c.Origin != "" {
		return
	}
	b.mu.Lock()
	b.pending[c.Collection] = true
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

func (b *RedisBridge) takePending() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.pending))
	for c := range b.pending {
		out = append(out, c)
	}
	b.pending = make(map[string]bool)
	sort.Strings(out)
	return out
}

func (b *RedisBridge) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.wake:
			for _, collection := range b.takePending() {
				b.publish(ctx, Change{Collection: collection, Origin: b.origin})
			}
		}
	}
}

func (b *RedisBridge) publish(ctx context.Context, c Change) {
	payload, err := encodeChange(c)
	if err != nil {
		b.log.WithError(err).Error("realtime: change could not be encoded")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.log.WithError(err).WithField("collection", c.Collection).Warn("realtime: redis publish failed")
	}
}

// Run: escucha el canal hasta que ctx se cancele y entrega los cambios remotos al hub
func (b *RedisBridge) Run(ctx context.Context) error {
	go b.publishLoop(ctx)

	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", b.channel, err)
	}
	b.log.WithField("channel", b.channel).Info("realtime: redis bridge listening")

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			c, err := decodeChange(msg.Payload)
			if err != nil {
				b.log.WithError(err).Warn("realtime: ignoring malformed change")
				continue
			}
			if c.Origin == b.origin {
				continue
			}
			b.hub.Deliver(c)
		}
	}
}

func encodeChange(c Change) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeChange(payload string) (Change, error) {
	var c Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return Change{}, err
	}
	if c.Collection == "" {
		return Change{}, fmt.Errorf("change without collection")
	}
	return c, nil
}
