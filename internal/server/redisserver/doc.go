// Package redisserver serves the key/value store over the Redis
// serialization protocol (RESP2), so redis-cli and ordinary Redis client
// libraries can read and write keys.
//
// Supported commands:
//
//	PING [msg]  ECHO msg  AUTH [user] password  QUIT  COMMAND
//	GET key  SET key value  DEL key...  EXISTS key...
//	RENAME src dst  RENAMENX src dst  KEYS pattern  DBSIZE  INFO
//
// KEYS accepts a literal key, "*", or a literal prefix followed by "*".
// Expiry options are rejected since keys never expire.
package redisserver
