package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Locker はルーム単位の排他を提供します。返された関数でロックを解放します。
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// RedisLocker は複数のサーバープロセス間で共有されるロック
type RedisLocker struct {
	rdb    *redis.Client
	ttl    time.Duration
	retry  time.Duration
	logger *zap.Logger
}

// 自分が取得したロックのときだけ削除する
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func NewRedisLocker(rdb *redis.Client, logger *zap.Logger) *RedisLocker {
	return &RedisLocker{
		rdb:    rdb,
		ttl:    5 * time.Second,
		retry:  25 * time.Millisecond,
		logger: logger,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := "lock:" + key
	token := uuid.New().String()

	for {
		ok, err := l.rdb.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", lockKey, err)
		}
		if ok {
			return func() {
				err := unlockScript.Run(context.Background(), l.rdb, []string{lockKey}, token).Err()
				if err != nil && !errors.Is(err, redis.Nil) {
					l.logger.Warn("Failed to release lock", zap.String("key", lockKey), zap.Error(err))
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}

// LocalLocker は1プロセス内だけで有効なロック。Redisを使わない構成とテスト用
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*localLock
}

type localLock struct {
	sem  chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*localLock)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	lk := l.locks[key]
	if lk == nil {
		lk = &localLock{sem: make(chan struct{}, 1)}
		l.locks[key] = lk
	}
	lk.refs++
	l.mu.Unlock()

	select {
	case lk.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, lk)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lk.sem
			l.release(key, lk)
		})
	}, nil
}

func (l *LocalLocker) release(key string, lk *localLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, key)
	}
}
