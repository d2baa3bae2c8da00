package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/campusconnect/internal/core/domain"
)

// PushStream is the stream consumed by the push delivery worker.
const PushStream = "cc:push:outbox"

// pushStreamMaxLen bounds the outbox; trimming is approximate.
const pushStreamMaxLen = 100000

// PushMessage is one outbound push notification
type PushMessage struct {
	UserID string
	Token  string
	Notif  *domain.Notification
}

// EnqueuePush appends a push message to the outbox stream and returns its stream ID.
func (c *Client) EnqueuePush(ctx context.Context, msg PushMessage) (string, error) {
	data, err := json.Marshal(msg.Notif.Data)
	if err != nil {
		return "", fmt.Errorf("encode push data: %w", err)
	}

	id, err := c.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: PushStream,
		MaxLen: pushStreamMaxLen,
		Approx: true,
		Values: map[string]any{
			"user_id":         msg.UserID,
			"token":           msg.Token,
			"notification_id": msg.Notif.ID,
			"type":            string(msg.Notif.Type),
			"title":           msg.Notif.Title,
			"body":            msg.Notif.Body,
			"data":            string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd failed: %w", translate(err))
	}
	return id, nil
}

// PendingPushes returns the outbox length.
func (c *Client) PendingPushes(ctx context.Context) (int64, error) {
	n, err := c.rdb.XLen(ctx, PushStream).Result()
	if err != nil {
		return 0, fmt.Errorf("xlen failed: %w", translate(err))
	}
	return n, nil
}
