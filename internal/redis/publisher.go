package redis

import (
	"context"
	"encoding/json"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-dashboard/internal/config"
	"github.com/fakhrymubarak/weather-dashboard/internal/state"
)

// publishTimeout bounds a single PUBLISH so a slow Redis cannot stall state commits.
const publishTimeout = 2 * time.Second

// Publisher is the subset of the Redis client the snapshot publisher needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redisv9.IntCmd
}

// SnapshotPublisher forwards every state snapshot to a Redis pub/sub channel so
// out-of-process views can follow the dashboard. Nothing is stored in Redis.
type SnapshotPublisher struct {
	client  Publisher
	channel string
	logger  *zap.SugaredLogger
}

func NewSnapshotPublisher(client Publisher, channel string) *SnapshotPublisher {
	if channel == "" {
		channel = config.GetRedisChannel()
	}
	return &SnapshotPublisher{
		client:  client,
		channel: channel,
		logger:  config.GetLogger(),
	}
}

func (p *SnapshotPublisher) Channel() string {
	return p.channel
}

// StateChanged implements state.Observer. Publish failures are logged and dropped.
func (p *SnapshotPublisher) StateChanged(s state.Snapshot) {
	payload, err := json.Marshal(s)
	if err != nil {
		p.logger.Errorw("Error encoding state snapshot", "version", s.Version, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(GetContext(), publishTimeout)
	defer cancel()
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		p.logger.Errorw("Error publishing state snapshot", "channel", p.channel, "version", s.Version, "error", err)
	}
}
