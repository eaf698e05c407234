// Package domain defines the shardkv data model and its error codes.
//
//   - errors.go: DomainError and the SKV error code catalogue
//   - key.go: key and value validation rules
//   - mutation.go: changes applied to persistent storage
//
// The package has no IO dependencies.
package domain
