package dlq

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	deperrors "github.com/droverco/drover/common/errors"
)

const (
	listKey  = "dlq"
	statsKey = "dlq:stats"
)

type redisQueue struct {
	client redis.UniversalClient
}

// NewRedis returns a Queue backed by a Redis list plus a stats hash,
// sharing a server with the redisstore Job State Store.
func NewRedis(client redis.UniversalClient) Queue {
	return &redisQueue{client: client}
}

func (q *redisQueue) Add(ctx context.Context, e Entry) error {
	blob, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "marshal dlq entry")
	}
	pipe := q.client.TxPipeline()
	pipe.LPush(ctx, listKey, blob)
	pipe.HIncrBy(ctx, statsKey, "total_failed", 1)
	pipe.HIncrBy(ctx, statsKey, "failed:"+e.JobType, 1)
	pipe.HSet(ctx, statsKey, "last_failure", time.Now().UTC().Format(time.RFC3339Nano))
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "redis dlq add")
	}
	return nil
}

func (q *redisQueue) List(ctx context.Context, limit, offset int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	blobs, err := q.client.LRange(ctx, listKey, int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "redis dlq list")
	}
	return decodeAll(blobs), nil
}

func (q *redisQueue) Len(ctx context.Context) (int, error) {
	n, err := q.client.LLen(ctx, listKey).Result()
	if err != nil {
		return 0, errors.Wrap(err, "redis dlq len")
	}
	return int(n), nil
}

func (q *redisQueue) Take(ctx context.Context, id string) (*Entry, error) {
	blobs, err := q.client.LRange(ctx, listKey, 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "redis dlq take")
	}
	for _, blob := range blobs {
		var e Entry
		if json.Unmarshal([]byte(blob), &e) != nil {
			continue
		}
		if e.JobId == id {
			if err := q.client.LRem(ctx, listKey, 1, blob).Err(); err != nil {
				return nil, errors.Wrap(err, "redis dlq take")
			}
			return &e, nil
		}
	}
	return nil, deperrors.Errorf(deperrors.NotFound, "job %s not in dead letter queue", id)
}

func (q *redisQueue) Clear(ctx context.Context, jobType string) (int, error) {
	if jobType == "" {
		n, err := q.client.LLen(ctx, listKey).Result()
		if err != nil {
			return 0, errors.Wrap(err, "redis dlq clear")
		}
		pipe := q.client.TxPipeline()
		pipe.Del(ctx, listKey)
		pipe.Del(ctx, statsKey)
		if _, err := pipe.Exec(ctx); err != nil {
			return 0, errors.Wrap(err, "redis dlq clear")
		}
		return int(n), nil
	}

	blobs, err := q.client.LRange(ctx, listKey, 0, -1).Result()
	if err != nil {
		return 0, errors.Wrap(err, "redis dlq clear")
	}
	removed := 0
	for _, blob := range blobs {
		var e Entry
		if json.Unmarshal([]byte(blob), &e) != nil {
			continue
		}
		if e.JobType == jobType {
			if err := q.client.LRem(ctx, listKey, 1, blob).Err(); err != nil {
				return removed, errors.Wrap(err, "redis dlq clear")
			}
			removed++
		}
	}
	return removed, nil
}

func (q *redisQueue) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return q.List(ctx, limit, 0)
}

func (q *redisQueue) GetStats(ctx context.Context) (*Stats, error) {
	fields, err := q.client.HGetAll(ctx, statsKey).Result()
	if err != nil {
		return nil, errors.Wrap(err, "redis dlq stats")
	}
	stats := &Stats{ByType: map[string]int{}}
	for k, v := range fields {
		switch {
		case k == "total_failed":
			stats.TotalFailed, _ = strconv.Atoi(v)
		case k == "last_failure":
			stats.LastFailure, _ = time.Parse(time.RFC3339Nano, v)
		case len(k) > 7 && k[:7] == "failed:":
			n, _ := strconv.Atoi(v)
			stats.ByType[k[7:]] = n
		}
	}
	return stats, nil
}

func decodeAll(blobs []string) []Entry {
	var out []Entry
	for _, blob := range blobs {
		var e Entry
		if json.Unmarshal([]byte(blob), &e) == nil {
			out = append(out, e)
		}
	}
	return out
}
