package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"adaptiveCreative/business/whitespace"
	"adaptiveCreative/domain"

	"github.com/redis/go-redis/v9"
)

// whitespaceEntry is what the cache stores per brand.
type whitespaceEntry struct {
	BrandID    string                       `json:"brand_id"`
	Candidates []domain.WhitespaceCandidate `json:"candidates"`
	ComputedAt time.Time                    `json:"computed_at"`
}

type WhitespaceCache struct {
	client *redis.Client
}

var _ whitespace.Cache = (*WhitespaceCache)(nil)

func NewWhitespaceCache(client *redis.Client) *WhitespaceCache {
	return &WhitespaceCache{
		client: client,
	}
}

func whitespaceKey(brandID string) string {
	// key format: "whitespace:brand:{brand_id}"
	return fmt.Sprintf("whitespace:brand:%s", brandID)
}

func (r *WhitespaceCache) SetWhitespace(ctx context.Context, brandID string, candidates []domain.WhitespaceCandidate, ttl time.Duration) error {
	jsonData, err := json.Marshal(whitespaceEntry{
		BrandID:    brandID,
		Candidates: candidates,
		ComputedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal whitespace candidates: %w", err)
	}

	err = r.client.Set(ctx, whitespaceKey(brandID), jsonData, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to store whitespace in Redis: %w", err)
	}
	return nil
}

// GetWhitespace reports false on a miss.
func (r *WhitespaceCache) GetWhitespace(ctx context.Context, brandID string) ([]domain.WhitespaceCandidate, bool, error) {
	val, err := r.client.Get(ctx, whitespaceKey(brandID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get whitespace from Redis: %w", err)
	}

	var entry whitespaceEntry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal whitespace entry: %w", err)
	}
	return entry.Candidates, true, nil
}
