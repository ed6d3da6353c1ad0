// Package redisstore implements the Job State Store on Redis.
//
// Layout: `job:<id>` is a hash holding the serialized record under `data`
// and the authoritative status under `status`; `jobs:index` orders ids by
// insertion for List; `edges:parents:<id>` / `edges:children:<id>` persist
// the dependency edges; `idem:<key>` binds idempotency keys.
package redisstore

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	deperrors "github.com/droverco/drover/common/errors"
	"github.com/droverco/drover/jobstore"
	"github.com/droverco/drover/sched"
)

const (
	jobKeyPrefix   = "job:"
	indexKey       = "jobs:index"
	parentsPrefix  = "edges:parents:"
	childrenPrefix = "edges:children:"
	idemKeyPrefix  = "idem:"
)

// casScript transitions the status field iff it currently holds the
// expected value. Returns 1 on success, 0 on mismatch, -1 if the job is
// missing.
var casScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'status')
if cur == false then
  return -1
end
if cur == ARGV[1] then
  redis.call('HSET', KEYS[1], 'status', ARGV[2], 'updated_at', ARGV[3])
  return 1
end
return 0
`)

type redisStore struct {
	client redis.UniversalClient
}

// New wraps an existing go-redis client. The caller owns the client's
// lifecycle.
func New(client redis.UniversalClient) jobstore.Store {
	return &redisStore{client: client}
}

func (s *redisStore) Get(ctx context.Context, id string) (*sched.Job, error) {
	vals, err := s.client.HMGet(ctx, jobKeyPrefix+id, "data", "status").Result()
	if err != nil {
		return nil, errors.Wrapf(err, "redis get job %s", id)
	}
	data, _ := vals[0].(string)
	if data == "" {
		return nil, deperrors.Errorf(deperrors.NotFound, "job %s not found", id)
	}
	job, err := sched.DeserializeJob([]byte(data))
	if err != nil {
		return nil, errors.Wrapf(err, "corrupt job record %s", id)
	}
	if statusName, ok := vals[1].(string); ok {
		if status, ok := sched.ParseStatus(statusName); ok {
			job.Status = status
		}
	}
	return job, nil
}

func (s *redisStore) Put(ctx context.Context, job *sched.Job) error {
	data, err := job.Serialize()
	if err != nil {
		return errors.Wrapf(err, "serialize job %s", job.Id)
	}
	key := jobKeyPrefix + job.Id
	exists, err := s.client.HExists(ctx, key, "status").Result()
	if err != nil {
		return errors.Wrapf(err, "redis put job %s", job.Id)
	}
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, "data", string(data))
	if !exists {
		// the status field is only seeded for a new record; afterwards
		// it moves exclusively through CASStatus
		pipe.HSetNX(ctx, key, "status", job.Status.String())
		pipe.RPush(ctx, indexKey, job.Id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "redis put job %s", job.Id)
	}
	return nil
}

func (s *redisStore) CASStatus(ctx context.Context, id string, expected, new sched.Status) (bool, error) {
	res, err := casScript.Run(ctx, s.client, []string{jobKeyPrefix + id},
		expected.String(), new.String(), time.Now().UTC().Format(time.RFC3339Nano)).Int()
	if err != nil {
		return false, errors.Wrapf(err, "redis cas job %s", id)
	}
	if res == -1 {
		return false, deperrors.Errorf(deperrors.NotFound, "job %s not found", id)
	}
	return res == 1, nil
}

func (s *redisStore) List(ctx context.Context, q jobstore.Query) (*jobstore.Page, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = jobstore.DefaultListLimit
	}
	start := int64(0)
	if q.Cursor != "" {
		n, err := strconv.ParseInt(q.Cursor, 10, 64)
		if err != nil {
			return nil, deperrors.Errorf(deperrors.InvalidSpec, "bad cursor %q", q.Cursor)
		}
		start = n
	}

	total, err := s.client.LLen(ctx, indexKey).Result()
	if err != nil {
		return nil, errors.Wrap(err, "redis list jobs")
	}

	page := &jobstore.Page{}
	pos := start
	for ; pos < total && len(page.Jobs) < limit; pos++ {
		id, err := s.client.LIndex(ctx, indexKey, pos).Result()
		if err == redis.Nil {
			break
		} else if err != nil {
			return nil, errors.Wrap(err, "redis list jobs")
		}
		job, err := s.Get(ctx, id)
		if deperrors.GetCode(err) == deperrors.NotFound {
			continue // retention removed the record, skip the index entry
		} else if err != nil {
			return nil, err
		}
		if matches(job, q) {
			page.Jobs = append(page.Jobs, job)
		}
	}
	if pos < total {
		page.NextCursor = strconv.FormatInt(pos, 10)
	}
	return page, nil
}

func matches(job *sched.Job, q jobstore.Query) bool {
	if q.Status != nil && job.Status != *q.Status {
		return false
	}
	if q.Priority != nil && job.Def.Priority != *q.Priority {
		return false
	}
	if q.Type != "" && job.Def.Type != q.Type {
		return false
	}
	return true
}

func (s *redisStore) PutIdempotency(ctx context.Context, key, id string) (string, error) {
	ok, err := s.client.SetNX(ctx, idemKeyPrefix+key, id, 0).Result()
	if err != nil {
		return "", errors.Wrapf(err, "redis idempotency %s", key)
	}
	if ok {
		return "", nil
	}
	existing, err := s.client.Get(ctx, idemKeyPrefix+key).Result()
	if err != nil {
		return "", errors.Wrapf(err, "redis idempotency %s", key)
	}
	return existing, nil
}

func (s *redisStore) PutEdges(ctx context.Context, id string, parents []string) error {
	if len(parents) == 0 {
		return nil
	}
	pipe := s.client.TxPipeline()
	for _, p := range parents {
		pipe.SAdd(ctx, parentsPrefix+id, p)
		pipe.SAdd(ctx, childrenPrefix+p, id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "redis put edges %s", id)
	}
	return nil
}
