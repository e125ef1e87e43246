package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ayush/credential-service/internal/models"
)

const usersIndexKey = "users"

// maxTxAttempts bounds how often a WATCH transaction is re-run after
// another client touched the watched key.
const maxTxAttempts = 100

func userKey(id string) string           { return "user:" + id }
func usernameKey(username string) string { return "user:username:" + username }
func emailKey(email string) string       { return "user:email:" + email }

// NewRedisClient creates and pings a Redis client with optional password auth.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// hashGetter is satisfied by both *redis.Client and *redis.Tx.
type hashGetter interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

// RedisStore keeps each user in a hash. Username and email uniqueness is
// claimed with SETNX on index keys, so of two racing writers only one wins.
type RedisStore struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, now: time.Now}
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	id, err := s.rdb.Get(ctx, usernameKey(username)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, opError("find by username", err)
	}
	return s.load(ctx, s.rdb, "find by username", id)
}

func (s *RedisStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.load(ctx, s.rdb, "find by id", id)
}

func (s *RedisStore) Create(ctx context.Context, nu NewUser) (*models.User, error) {
	const op = "create user"

	role, err := roleOrDefault(nu.Role)
	if err != nil {
		return nil, opError(op, err)
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	u := &models.User{
		ID:        uuid.NewString(),
		Username:  nu.Username,
		Email:     nu.Email,
		Password:  nu.Password,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	claimed, err := s.rdb.SetNX(ctx, usernameKey(u.Username), u.ID, 0).Result()
	if err != nil {
		return nil, opError(op, err)
	}
	if !claimed {
		return nil, duplicateError(op, fmt.Errorf("username %q taken", u.Username))
	}

	claimed, err = s.rdb.SetNX(ctx, emailKey(u.Email), u.ID, 0).Result()
	if err != nil || !claimed {
		s.rdb.Del(ctx, usernameKey(u.Username))
		if err != nil {
			return nil, opError(op, err)
		}
		return nil, duplicateError(op, fmt.Errorf("email %q taken", u.Email))
	}

	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, userKey(u.ID), hashFields(u))
		p.ZAdd(ctx, usersIndexKey, redis.Z{Score: float64(toMillis(u.CreatedAt)), Member: u.ID})
		return nil
	})
	if err != nil {
		s.rdb.Del(ctx, usernameKey(u.Username), emailKey(u.Email))
		return nil, opError(op, err)
	}
	return u, nil
}

func (s *RedisStore) UpdateByID(ctx context.Context, id string, upd UserUpdate) (*models.User, error) {
	const op = "update user"

	if upd.Empty() {
		return s.FindByID(ctx, id)
	}

	var updated *models.User
	err := s.watch(ctx, op, userKey(id), func(tx *redis.Tx) error {
		u, err := s.load(ctx, tx, op, id)
		if err != nil {
			return err
		}

		oldUsername := u.Username
		renamed := upd.Username != nil && *upd.Username != oldUsername
		if renamed {
			claimed, err := tx.SetNX(ctx, usernameKey(*upd.Username), id, 0).Result()
			if err != nil {
				return opError(op, err)
			}
			if !claimed {
				return duplicateError(op, fmt.Errorf("username %q taken", *upd.Username))
			}
			u.Username = *upd.Username
		}
		if upd.Password != nil {
			u.Password = *upd.Password
		}
		u.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, userKey(id), hashFields(u))
			if renamed {
				p.Del(ctx, usernameKey(oldUsername))
			}
			return nil
		})
		if err != nil {
			if renamed {
				s.rdb.Del(ctx, usernameKey(u.Username))
			}
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *RedisStore) DeleteByID(ctx context.Context, id string) (*models.User, error) {
	const op = "delete user"

	var deleted *models.User
	err := s.watch(ctx, op, userKey(id), func(tx *redis.Tx) error {
		u, err := s.load(ctx, tx, op, id)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Del(ctx, userKey(id), usernameKey(u.Username), emailKey(u.Email))
			p.ZRem(ctx, usersIndexKey, id)
			return nil
		})
		if err != nil {
			return err
		}
		deleted = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// List returns users in creation order.
func (s *RedisStore) List(ctx context.Context) ([]models.User, error) {
	const op = "list users"

	ids, err := s.rdb.ZRange(ctx, usersIndexKey, 0, -1).Result()
	if err != nil {
		return nil, opError(op, err)
	}
	if len(ids) == 0 {
		return []models.User{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = p.HGetAll(ctx, userKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, opError(op, err)
	}

	out := make([]models.User, 0, len(ids))
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		u, err := userFromHash(fields)
		if err != nil {
			return nil, opError(op, err)
		}
		out = append(out, *u)
	}
	return out, nil
}

// watch runs fn under WATCH key and re-runs it when EXEC is aborted because
// the key changed. The rerun reloads the record, so a concurrent delete ends
// in ErrNotFound and a concurrent update is simply overwritten.
func (s *RedisStore) watch(ctx context.Context, op, key string, fn func(*redis.Tx) error) error {
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := s.rdb.Watch(ctx, fn, key)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, ErrNotFound):
			return err
		default:
			var se *Error
			if errors.As(err, &se) {
				return err
			}
			return opError(op, err)
		}
	}
	return opError(op, redis.TxFailedErr)
}

func (s *RedisStore) load(ctx context.Context, c hashGetter, op, id string) (*models.User, error) {
	fields, err := c.HGetAll(ctx, userKey(id)).Result()
	if err != nil {
		return nil, opError(op, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	u, err := userFromHash(fields)
	if err != nil {
		return nil, opError(op, err)
	}
	return u, nil
}

func hashFields(u *models.User) map[string]any {
	return map[string]any{
		"id":         u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"password":   u.Password,
		"role":       string(u.Role),
		"created_at": toMillis(u.CreatedAt),
		"updated_at": toMillis(u.UpdatedAt),
	}
}

func userFromHash(h map[string]string) (*models.User, error) {
	created, err := strconv.ParseInt(h["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	updated, err := strconv.ParseInt(h["updated_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("updated_at: %w", err)
	}
	return &models.User{
		ID:        h["id"],
		Username:  h["username"],
		Email:     h["email"],
		Password:  h["password"],
		Role:      models.Role(h["role"]),
		CreatedAt: fromMillis(created),
		UpdatedAt: fromMillis(updated),
	}, nil
}

var _ UserStore = (*RedisStore)(nil)
