package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	platformredis "tramita/internal/platform/redis"
)

// RedisDispatcher publishes notifications to per-company pub/sub channels
// that delivery frontends subscribe to. Internally async with a bounded
// buffer so the engine call never blocks; a full buffer drops the notice.
type RedisDispatcher struct {
	client *platformredis.Client
	logger *slog.Logger

	inbox  chan Notification
	closed chan struct{}
	wg     sync.WaitGroup
}

const channelPrefix = "tramita:notifications:"

func NewRedisDispatcher(client *platformredis.Client, logger *slog.Logger, buffer int) *RedisDispatcher {
	d := &RedisDispatcher{
		client: client,
		logger: logger,
		inbox:  make(chan Notification, buffer),
		closed: make(chan struct{}),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *RedisDispatcher) Dispatch(_ context.Context, n Notification) {
	select {
	case d.inbox <- n:
	default:
		d.logger.Warn("notification buffer full, notice dropped",
			"user_id", n.UserID,
			"company_id", n.CompanyID,
			"process_id", n.ProcessID,
		)
	}
}

// Close drains pending notifications and stops the worker.
func (d *RedisDispatcher) Close() {
	close(d.closed)
	d.wg.Wait()
}

func (d *RedisDispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case n := <-d.inbox:
			d.publish(n)
		case <-d.closed:
			for {
				select {
				case n := <-d.inbox:
					d.publish(n)
				default:
					return
				}
			}
		}
	}
}

func (d *RedisDispatcher) publish(n Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		d.logger.Error("notification marshal failed", "error", err)
		return
	}
	channel := channelPrefix + n.CompanyID.String()
	if err := d.client.Publish(context.Background(), channel, payload).Err(); err != nil {
		d.logger.Error("notification publish failed",
			"channel", channel,
			"process_id", n.ProcessID,
			"error", err,
		)
	}
}
