package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/pos-inventory/internal/core/domain"
	"github.com/rl1809/pos-inventory/internal/port"
)

const (
	inventoryKeyPrefix   = "inventory:"
	idempotencyKeyPrefix = "idempotency:"
)

const (
	scriptNotFound = -1
	scriptRejected = 0
	scriptApplied  = 1
)

// Scripts reply {status, stock, sold_count, version}.
var incrementSoldScript = redis.NewScript(`
local key = KEYS[1]
local quantity = tonumber(ARGV[1])

if redis.call('EXISTS', key) == 0 then
	return {-1, 0, 0, 0}
end

local stock = tonumber(redis.call('HGET', key, 'stock'))
local sold = tonumber(redis.call('HGET', key, 'sold_count'))
local version = tonumber(redis.call('HGET', key, 'version'))

if quantity > stock - sold then
	return {0, stock, sold, version}
end

sold = redis.call('HINCRBY', key, 'sold_count', quantity)
version = redis.call('HINCRBY', key, 'version', 1)
return {1, stock, sold, version}
`)

var incrementStockScript = redis.NewScript(`
local key = KEYS[1]
local amount = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])

if redis.call('EXISTS', key) == 0 then
	return {-1, 0, 0, 0}
end

local stock = tonumber(redis.call('HGET', key, 'stock'))
local sold = tonumber(redis.call('HGET', key, 'sold_count'))
if amount > limit - stock then
	local version = tonumber(redis.call('HGET', key, 'version'))
	return {0, stock, sold, version}
end

stock = redis.call('HINCRBY', key, 'stock', amount)
local version = redis.call('HINCRBY', key, 'version', 1)
return {1, stock, sold, version}
`)

var createRecordScript = redis.NewScript(`
local key = KEYS[1]

if redis.call('EXISTS', key) == 1 then
	return 0
end

redis.call('HSET', key, 'stock', ARGV[1], 'sold_count', 0, 'version', 0)
return 1
`)

type redisRecord struct {
	Stock     int `redis:"stock"`
	SoldCount int `redis:"sold_count"`
	Version   int `redis:"version"`
}

// RedisAdapter stores each record as a hash and mutates it only through Lua
// scripts, which Redis runs atomically.
type RedisAdapter struct {
	client         *redis.Client
	idempotencyTTL time.Duration
}

func NewRedisAdapter(client *redis.Client, idempotencyTTL time.Duration) *RedisAdapter {
	return &RedisAdapter{client: client, idempotencyTTL: idempotencyTTL}
}

func inventoryKey(storeID, productID string) string {
	return inventoryKeyPrefix + storeID + ":" + productID
}

func (r *RedisAdapter) FetchRecord(ctx context.Context, storeID, productID string) (domain.InventoryRecord, error) {
	cmd := r.client.HGetAll(ctx, inventoryKey(storeID, productID))
	fields, err := cmd.Result()
	if err != nil {
		return domain.InventoryRecord{}, fmt.Errorf("hgetall: %w", err)
	}
	if len(fields) == 0 {
		return domain.InventoryRecord{}, port.ErrRecordNotFound
	}

	var rr redisRecord
	if err := cmd.Scan(&rr); err != nil {
		return domain.InventoryRecord{}, fmt.Errorf("scan record: %w", err)
	}
	return domain.InventoryRecord{
		StoreID:   storeID,
		ProductID: productID,
		Stock:     rr.Stock,
		SoldCount: rr.SoldCount,
		Version:   rr.Version,
	}, nil
}

func (r *RedisAdapter) ConditionalIncrementSold(ctx context.Context, storeID, productID string, quantity int) (port.IncrementResult, error) {
	if quantity <= 0 {
		return port.IncrementResult{}, port.ErrInvalidDelta
	}

	reply, err := incrementSoldScript.Run(ctx, r.client, []string{inventoryKey(storeID, productID)}, quantity).Int64Slice()
	if err != nil {
		return port.IncrementResult{}, fmt.Errorf("increment sold: %w", err)
	}

	rec, status, err := parseScriptReply(storeID, productID, reply)
	if err != nil {
		return port.IncrementResult{}, err
	}
	if status == scriptNotFound {
		return port.IncrementResult{}, port.ErrRecordNotFound
	}
	return port.IncrementResult{Committed: status == scriptApplied, Record: rec}, nil
}

func (r *RedisAdapter) IncrementStock(ctx context.Context, storeID, productID string, amount int) (domain.InventoryRecord, error) {
	if amount <= 0 {
		return domain.InventoryRecord{}, port.ErrInvalidDelta
	}

	reply, err := incrementStockScript.Run(ctx, r.client, []string{inventoryKey(storeID, productID)}, amount, domain.MaxCounter).Int64Slice()
	if err != nil {
		return domain.InventoryRecord{}, fmt.Errorf("increment stock: %w", err)
	}

	rec, status, err := parseScriptReply(storeID, productID, reply)
	if err != nil {
		return domain.InventoryRecord{}, err
	}
	switch status {
	case scriptNotFound:
		return domain.InventoryRecord{}, port.ErrRecordNotFound
	case scriptRejected:
		return domain.InventoryRecord{}, port.ErrCounterLimit
	}
	return rec, nil
}

func (r *RedisAdapter) CreateRecord(ctx context.Context, storeID, productID string, stock int) (domain.InventoryRecord, error) {
	if stock > domain.MaxCounter {
		return domain.InventoryRecord{}, port.ErrCounterLimit
	}

	created, err := createRecordScript.Run(ctx, r.client, []string{inventoryKey(storeID, productID)}, stock).Int()
	if err != nil {
		return domain.InventoryRecord{}, fmt.Errorf("create record: %w", err)
	}
	if created == 0 {
		return domain.InventoryRecord{}, port.ErrRecordExists
	}
	return domain.InventoryRecord{StoreID: storeID, ProductID: productID, Stock: stock}, nil
}

func (r *RedisAdapter) DeleteRecord(ctx context.Context, storeID, productID string) error {
	n, err := r.client.Del(ctx, inventoryKey(storeID, productID)).Result()
	if err != nil {
		return fmt.Errorf("del: %w", err)
	}
	if n == 0 {
		return port.ErrRecordNotFound
	}
	return nil
}

func (r *RedisAdapter) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, idempotencyKeyPrefix+key, 1, r.idempotencyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func parseScriptReply(storeID, productID string, reply []int64) (domain.InventoryRecord, int64, error) {
	if len(reply) != 4 {
		return domain.InventoryRecord{}, 0, fmt.Errorf("unexpected script reply %v", reply)
	}
	return domain.InventoryRecord{
		StoreID:   storeID,
		ProductID: productID,
		Stock:     int(reply[1]),
		SoldCount: int(reply[2]),
		Version:   int(reply[3]),
	}, reply[0], nil
}
