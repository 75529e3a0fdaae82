package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "presence:"

// Live is the cached real-time view of one employee, refreshed on every
// heartbeat and expired by TTL when heartbeats stop.
type Live struct {
	EmployeeID      string     `json:"employee_id"`
	SessionID       string     `json:"session_id"`
	LastSeenAt      time.Time  `json:"last_seen_at"`
	InsideArea      bool       `json:"inside_area"`
	SignalUsable    bool       `json:"signal_usable"`
	ProblemReason   *string    `json:"problem_reason,omitempty"`
	CountdownEndsAt *time.Time `json:"countdown_ends_at,omitempty"`
}

// Cache is a Redis-backed live presence view for dashboards. It is strictly
// best-effort: the database rows stay authoritative and callers log, not
// propagate, cache errors.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func key(tenantID, employeeID string) string {
	return keyPrefix + tenantID + ":" + employeeID
}

// Set overwrites the live view for one employee.
func (c *Cache) Set(ctx context.Context, tenantID string, live Live) error {
	payload, err := json.Marshal(live)
	if err != nil {
		return fmt.Errorf("marshal live presence: %w", err)
	}

	if err := c.client.Set(ctx, key(tenantID, live.EmployeeID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("set live presence: %w", err)
	}

	return nil
}

// Get returns the live view for one employee, or (nil, nil) when the key
// has expired or was never written.
func (c *Cache) Get(ctx context.Context, tenantID, employeeID string) (*Live, error) {
	payload, err := c.client.Get(ctx, key(tenantID, employeeID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get live presence: %w", err)
	}

	var live Live
	if err := json.Unmarshal(payload, &live); err != nil {
		return nil, fmt.Errorf("unmarshal live presence: %w", err)
	}

	return &live, nil
}

// Delete removes the live view, called when a session closes.
func (c *Cache) Delete(ctx context.Context, tenantID, employeeID string) error {
	if err := c.client.Del(ctx, key(tenantID, employeeID)).Err(); err != nil {
		return fmt.Errorf("delete live presence: %w", err)
	}
	return nil
}

// ListByTenant scans all live views for one tenant.
func (c *Cache) ListByTenant(ctx context.Context, tenantID string) ([]Live, error) {
	var (
		cursor uint64
		result []Live
	)

	match := keyPrefix + tenantID + ":*"
	for {
		keys, next, err := c.client.Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scan live presence: %w", err)
		}

		for _, k := range keys {
			payload, err := c.client.Get(ctx, k).Bytes()
			if err == redis.Nil {
				continue // expired between scan and get
			}
			if err != nil {
				return nil, fmt.Errorf("get live presence: %w", err)
			}

			var live Live
			if err := json.Unmarshal(payload, &live); err != nil {
				continue // skip unreadable entries
			}
			result = append(result, live)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return result, nil
}
