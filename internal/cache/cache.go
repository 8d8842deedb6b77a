// Package cache provides a Redis-backed response cache for the query
// endpoints, plus a scheduled daily reset.
package cache

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "spimex-cache:"

const defaultTTL = time.Hour

// Config holds connection parameters for the Redis cache.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Cache wraps a go-redis client keyed by request URL.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a Redis cache, pings it to verify connectivity, and returns
// the wrapper. It returns an error if the connection cannot be established.
func New(ctx context.Context, cfg Config) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return &Cache{rdb: rdb, ttl: defaultTTL}, nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

// Clear removes every cached response. Ingestion of new records and the
// daily reset both call this.
func (c *Cache) Clear(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Middleware caches successful GET response bodies by request URI. A cache
// miss or an unreachable Redis degrades to a pass-through, never a request
// failure.
func (c *Cache) Middleware() gin.HandlerFunc {
	return func(g *gin.Context) {
		if g.Request.Method != http.MethodGet {
			g.Next()
			return
		}

		key := keyPrefix + g.Request.URL.RequestURI()
		ctx := g.Request.Context()

		if data, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
			g.Data(http.StatusOK, "application/json; charset=utf-8", data)
			g.Abort()
			return
		}

		capture := &bodyCapture{ResponseWriter: g.Writer, body: &bytes.Buffer{}}
		g.Writer = capture
		g.Next()

		if capture.Status() != http.StatusOK {
			return
		}
		if err := c.rdb.Set(ctx, key, capture.body.Bytes(), c.ttl).Err(); err != nil {
			log.Debug().Err(err).Str("key", key).Msg("failed to cache response")
		}
	}
}

// bodyCapture tees the response body so it can be stored after the handler
// has written it.
type bodyCapture struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}
