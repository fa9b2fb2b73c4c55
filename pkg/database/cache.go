package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache Redis缓存操作封装
//
// 作为 bean 使用时 Prefix 由属性 "prefix" 填充。
type Cache struct {
	Prefix string `property:"prefix"`

	client redis.UniversalClient
}

// NewCache 创建缓存实例
func NewCache(client redis.UniversalClient, prefix string) *Cache {
	return &Cache{
		client: client,
		Prefix: prefix,
	}
}

// key 生成带前缀的key
func (c *Cache) key(key string) string {
	if c.Prefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", c.Prefix, key)
}

// AfterPropertiesSet 校验依赖
func (c *Cache) AfterPropertiesSet() error {
	if c.client == nil {
		return fmt.Errorf("cache %q: redis client is nil", c.Prefix)
	}
	return nil
}

// Set 设置缓存
func (c *Cache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return c.client.Set(ctx, c.key(key), value, expiration).Err()
}

// Get 获取缓存
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, c.key(key)).Result()
}

// Del 删除缓存
func (c *Cache) Del(ctx context.Context, keys ...string) error {
	fullKeys := make([]string, len(keys))
	for i, k := range keys {
		fullKeys[i] = c.key(k)
	}
	return c.client.Del(ctx, fullKeys...).Err()
}

// Exists 检查key是否存在
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(key)).Result()
	return n > 0, err
}

// Incr 自增
func (c *Cache) Incr(ctx context.Context, key string) (int64, error) {
	return c.client.Incr(ctx, c.key(key)).Result()
}

// HSet 哈希设置
func (c *Cache) HSet(ctx context.Context, key string, values ...any) error {
	return c.client.HSet(ctx, c.key(key), values...).Err()
}

// HGetAll 获取所有哈希字段
func (c *Cache) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return c.client.HGetAll(ctx, c.key(key)).Result()
}
