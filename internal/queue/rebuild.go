package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RebuildNotifier signals the flat-view renderer that a post needs its
// denormalized cache regenerated. The renderer itself lives outside this
// service; the contract is just a post ID on a redis list.
type RebuildNotifier struct {
	rdb *redis.Client
	key string
}

// NewRebuildNotifier creates a new RebuildNotifier
func NewRebuildNotifier(rdb *redis.Client, key string) *RebuildNotifier {
	return &RebuildNotifier{rdb: rdb, key: key}
}

// Rebuild enqueues a rebuild request for the post
func (n *RebuildNotifier) Rebuild(ctx context.Context, postID int64) error {
	if err := n.rdb.LPush(ctx, n.key, postID).Err(); err != nil {
		return fmt.Errorf("enqueue cache rebuild: %w", err)
	}
	return nil
}
