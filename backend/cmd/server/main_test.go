package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"soceyo/backend/pkg/config"
)

func TestRedisOptions(t *testing.T) {
	cfg := &config.Config{RedisHost: "cache.internal", RedisPort: 6380, RedisPassword: "pw"}

	opts := redisOptions(cfg)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Nil(t, opts.TLSConfig)

	cfg.RedisSSL = true
	opts = redisOptions(cfg)
	if assert.NotNil(t, opts.TLSConfig) {
		assert.Equal(t, "cache.internal", opts.TLSConfig.ServerName)
	}
}

func TestNewHTTPServer(t *testing.T) {
	srv := newHTTPServer("8000", http.NotFoundHandler())

	assert.Equal(t, ":8000", srv.Addr)
	assert.Equal(t, 10*time.Second, srv.ReadHeaderTimeout)
}
