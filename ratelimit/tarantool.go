// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/tarantool/go-tarantool"
)

type TarantoolConfig struct {
	Host     string `yaml:"TARANTOOL_HOST" env:"TARANTOOL_HOST" env-default:"localhost"`
	Port     string `yaml:"TARANTOOL_PORT" env:"TARANTOOL_PORT" env-default:"3301"`
	Username string `yaml:"TARANTOOL_USER" env:"TARANTOOL_USER" env-default:"admin"`
	Password string `yaml:"TARANTOOL_PASSWORD" env:"TARANTOOL_PASSWORD" env-default:"secret"`
}

// Connect opens a Tarantool connection and makes sure the counter space exists.
func Connect(cfg TarantoolConfig) (*tarantool.Connection, error) {
	conn, err := tarantool.Connect(cfg.Host+":"+cfg.Port, tarantool.Opts{
		User:    cfg.Username,
		Pass:    cfg.Password,
		Timeout: 2 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Tarantool: %w", err)
	}

	if _, err := conn.Eval(ensureSpace, []interface{}{}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create rate limit space: %w", err)
	}
	return conn, nil
}

const ensureSpace = `
box.schema.space.create('rate_limit', {if_not_exists = true})
box.space.rate_limit:create_index('primary', {parts = {1, 'string'}, if_not_exists = true})
box.space.rate_limit:create_index('expires', {parts = {3, 'unsigned'}, unique = false, if_not_exists = true})
`

// incrScript runs as a single Lua call, so concurrent increments from
// different server instances never interleave.
const incrScript = `
local key, now, expires_at = ...
local t = box.space.rate_limit:get(key)
if t == nil or t[3] <= now then
    box.space.rate_limit:replace({key, 1, expires_at})
    return 1
end
return box.space.rate_limit:update(key, {{'+', 2, 1}})[2]
`

// sweepScript collects expired keys before deleting so the index is not
// modified while it is being iterated.
const sweepScript = `
local now = ...
local keys = {}
for _, t in box.space.rate_limit.index.expires:pairs(now, {iterator = 'LE'}) do
    table.insert(keys, t[1])
end
for _, k in ipairs(keys) do
    box.space.rate_limit:delete(k)
end
return #keys
`

type doer interface {
	Do(req tarantool.Request) *tarantool.Future
}

// TarantoolStore keeps counters in a Tarantool space shared by every server
// instance, with expiry encoded in the tuple.
type TarantoolStore struct {
	conn doer
	now  func() time.Time
}

func NewTarantoolStore(conn *tarantool.Connection) *TarantoolStore {
	return &TarantoolStore{conn: conn, now: time.Now}
}

func (s *TarantoolStore) Incr(ctx context.Context, key string, window time.Duration) (int, error) {
	return s.eval(ctx, incrScript, incrArgs(key, s.now(), window))
}

func incrArgs(key string, now time.Time, window time.Duration) []interface{} {
	return []interface{}{key, now.UnixMilli(), now.Add(window).UnixMilli()}
}

// Sweep deletes counters whose window has ended and returns how many.
func (s *TarantoolStore) Sweep(ctx context.Context) (int, error) {
	return s.eval(ctx, sweepScript, []interface{}{s.now().UnixMilli()})
}

// eval runs a script bound to ctx, so a stalled server fails the call when
// the request does instead of at the connection timeout.
func (s *TarantoolStore) eval(ctx context.Context, script string, args []interface{}) (int, error) {
	req := tarantool.NewEvalRequest(script).Args(args).Context(ctx)
	resp, err := s.conn.Do(req).Get()
	if err != nil {
		return 0, fmt.Errorf("ratelimit: tarantool eval: %w", err)
	}
	if resp == nil || len(resp.Data) == 0 {
		return 0, fmt.Errorf("ratelimit: empty tarantool response")
	}
	return toInt(resp.Data[0])
}

func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint:
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		return int(n), nil
	}
	return 0, fmt.Errorf("ratelimit: unexpected counter type %T", v)
}
