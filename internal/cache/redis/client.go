package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sipadu-ai/evidence-service/internal/evidence"
	"github.com/sipadu-ai/evidence-service/pkg/circuitbreaker"
	"github.com/sipadu-ai/evidence-service/pkg/logger"
)

// ResponseSnapshot is the cross-replica copy of a conversation's current
// response. It lets any replica serve a selection without holding the
// in-process registry entry.
type ResponseSnapshot struct {
	ResponseID string           `json:"response_id"`
	Panels     []evidence.Panel `json:"panels"`
}

type Client struct {
	client *redis.Client
	cb     *circuitbreaker.CircuitBreaker
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	cb := circuitbreaker.NewCircuitBreaker("redis", circuitbreaker.Config{
		MaxRequests:      5,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client, cb: cb}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func responseKey(sessionID, conversationID string) string {
	return fmt.Sprintf("session:%s:conv:%s", sessionID, conversationID)
}

func (c *Client) SetResponse(ctx context.Context, sessionID, conversationID string, snapshot ResponseSnapshot, ttl time.Duration) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal response snapshot: %w", err)
	}

	err = c.cb.Execute(ctx, func() error {
		return c.client.Set(ctx, responseKey(sessionID, conversationID), data, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to set response snapshot: %w", err)
	}

	logger.Debug("Response snapshot cached",
		zap.String("session_id", sessionID),
		zap.String("conversation_id", conversationID),
	)
	return nil
}

func (c *Client) GetResponse(ctx context.Context, sessionID, conversationID string) (*ResponseSnapshot, bool, error) {
	var data []byte
	found := false

	// A cache miss is not a failure as far as the breaker is concerned.
	err := c.cb.Execute(ctx, func() error {
		b, err := c.client.Get(ctx, responseKey(sessionID, conversationID)).Bytes()
		if err == redis.Nil {
			return nil
		}
		if err != nil {
			return err
		}
		data = b
		found = true
		return nil
	})

	if err != nil {
		return nil, false, fmt.Errorf("failed to get response snapshot: %w", err)
	}
	if !found {
		return nil, false, nil
	}

	var snapshot ResponseSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal response snapshot: %w", err)
	}

	return &snapshot, true, nil
}

// ClearSession deletes every key belonging to a session. Mirrors the
// dashboard-side logout, which wipes all cached state for the user.
func (c *Client) ClearSession(ctx context.Context, sessionID string) (int, error) {
	deleted := 0

	err := c.cb.Execute(ctx, func() error {
		iter := c.client.Scan(ctx, 0, fmt.Sprintf("session:%s:*", sessionID), 0).Iterator()
		for iter.Next(ctx) {
			if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
				logger.Warn("Failed to delete cache key", zap.Error(err))
				continue
			}
			deleted++
		}
		return iter.Err()
	})

	if err != nil {
		return deleted, fmt.Errorf("failed to clear session cache: %w", err)
	}

	logger.Info("Session cache cleared",
		zap.String("session_id", sessionID),
		zap.Int("keys", deleted),
	)
	return deleted, nil
}
