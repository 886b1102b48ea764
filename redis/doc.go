// Package redis wraps go-redis with authkit logging and configuration
// conventions. It is shared by the Redis token backend and the Redis
// flow-state store.
//
//	client, err := redis.New(redis.Config{Addr: "localhost:6379"}, log)
//	defer client.Close()
package redis
