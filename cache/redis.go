package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"postboard/models"
)

type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(ctx context.Context, addr string, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("error connecting to Redis: %w", err)
	}

	return &Redis{client: client, ttl: ttl}, nil
}

func responsesKey(postID int) string {
	return fmt.Sprintf("post:%d:responses", postID)
}

func generationKey(postID int) string {
	return fmt.Sprintf("post:%d:generation", postID)
}

func (r *Redis) Get(ctx context.Context, postID int) ([]models.Response, bool, error) {
	value, err := r.client.Get(ctx, responsesKey(postID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var responses []models.Response
	if err := json.Unmarshal(value, &responses); err != nil {
		return nil, false, err
	}
	return responses, true, nil
}

func (r *Redis) Generation(ctx context.Context, postID int) (int64, error) {
	return generation(ctx, r.client, postID)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func generation(ctx context.Context, c getter, postID int) (int64, error) {
	n, err := c.Get(ctx, generationKey(postID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// Set stores the list only while the generation key still holds generation.
// WATCH aborts the write when an Invalidate lands in between.
func (r *Redis) Set(ctx context.Context, postID int, gen int64, responses []models.Response) error {
	value, err := json.Marshal(responses)
	if err != nil {
		return err
	}

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := generation(ctx, tx, postID)
		if err != nil {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, responsesKey(postID), value, r.ttl)
			return nil
		})
		return err
	}, generationKey(postID))

	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

func (r *Redis) Invalidate(ctx context.Context, postID int) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(postID))
		pipe.Del(ctx, responsesKey(postID))
		return nil
	})
	return err
}

func (r *Redis) Close() error {
	return r.client.Close()
}
