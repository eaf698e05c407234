package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/yndnr/sharded-go/internal/core/domain"
	"github.com/yndnr/sharded-go/internal/telemetry/logger"
	"github.com/yndnr/sharded-go/pkg/sharded"
)

const (
	// DefaultListLimit is the page size used when a list request names none.
	DefaultListLimit = 100
	// MaxListLimit caps a list request.
	MaxListLimit = 1000
)

// KVRepository defines the storage interface for key/value operations.
type KVRepository interface {
	// Get returns the value stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value and reports whether key was created.
	Put(ctx context.Context, key string, value []byte) (bool, error)

	// TryPut is Put without waiting on a busy shard.
	TryPut(ctx context.Context, key string, value []byte) (bool, error)

	// Delete removes key and returns its last value.
	Delete(ctx context.Context, key string) ([]byte, error)

	// Move renames src to dst atomically.
	Move(ctx context.Context, src, dst string, overwrite bool) error

	// List returns keys with prefix in ascending order.
	List(ctx context.Context, prefix string, limit int) []string

	Len() int
	ShardCount() int
	Route(key string) int
	Stats() []sharded.ShardStats
}

// KVService handles key/value operations.
type KVService struct {
	repo        KVRepository
	maxValueLen int
	log         logger.Logger
}

// Option configures a KVService.
type Option func(*KVService)

// WithMaxValueLen limits stored values to n bytes. Zero or less disables
// the limit.
func WithMaxValueLen(n int) Option {
	return func(s *KVService) { s.maxValueLen = n }
}

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option {
	return func(s *KVService) { s.log = l }
}

// NewKVService creates a new KVService.
func NewKVService(repo KVRepository, opts ...Option) *KVService {
	s := &KVService{
		repo:        repo,
		maxValueLen: domain.DefaultMaxValueLen,
		log:         logger.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the value stored under key.
func (s *KVService) Get(ctx context.Context, key string) ([]byte, error) {
	if err := domain.ValidateKey(key); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, key)
}

// PutRequest contains parameters for storing a value.
type PutRequest struct {
	Key   string
	Value []byte
	// NoWait fails with domain.ErrShardBusy instead of waiting for the
	// key's shard.
	NoWait bool
}

// PutResponse contains the result of a put.
type PutResponse struct {
	Created bool `json:"created"`
	Shard   int  `json:"shard"`
}

// Put stores a value.
func (s *KVService) Put(ctx context.Context, req *PutRequest) (*PutResponse, error) {
	if err := domain.ValidateKey(req.Key); err != nil {
		return nil, err
	}
	if err := domain.ValidateValue(req.Value, s.maxValueLen); err != nil {
		return nil, err
	}

	put := s.repo.Put
	if req.NoWait {
		put = s.repo.TryPut
	}
	created, err := put(ctx, req.Key, req.Value)
	if err != nil {
		s.logFailure(ctx, "put", req.Key, err)
		return nil, err
	}

	return &PutResponse{Created: created, Shard: s.repo.Route(req.Key)}, nil
}

// Delete removes key.
func (s *KVService) Delete(ctx context.Context, key string) error {
	if err := domain.ValidateKey(key); err != nil {
		return err
	}
	if _, err := s.repo.Delete(ctx, key); err != nil {
		s.logFailure(ctx, "delete", key, err)
		return err
	}
	return nil
}

// MoveRequest contains parameters for renaming a key.
type MoveRequest struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Overwrite bool   `json:"overwrite"`
}

// Move renames req.From to req.To. Both keys change together or not at
// all, even when they live on different shards.
func (s *KVService) Move(ctx context.Context, req *MoveRequest) error {
	if err := domain.ValidateKey(req.From); err != nil {
		return err
	}
	if err := domain.ValidateKey(req.To); err != nil {
		return err
	}
	if err := s.repo.Move(ctx, req.From, req.To, req.Overwrite); err != nil {
		s.logFailure(ctx, "move", req.From, err)
		return err
	}

	logger.L(ctx).Debug("key moved",
		"from", req.From,
		"to", req.To,
		"from_shard", s.repo.Route(req.From),
		"to_shard", s.repo.Route(req.To))
	return nil
}

// ListRequest contains parameters for listing keys.
type ListRequest struct {
	Prefix string
	Limit  int
}

// ListResponse contains one page of keys.
type ListResponse struct {
	Keys      []string `json:"keys"`
	Truncated bool     `json:"truncated"`
}

// List returns keys starting with req.Prefix in ascending order.
func (s *KVService) List(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	limit := req.Limit
	switch {
	case limit < 0:
		return nil, domain.ErrBadRequest.WithDetails("limit must not be negative")
	case limit == 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	// One extra key tells whether the page was cut.
	keys := s.repo.List(ctx, req.Prefix, limit+1)
	resp := &ListResponse{Keys: keys}
	if len(keys) > limit {
		resp.Keys = keys[:limit]
		resp.Truncated = true
	}
	if resp.Keys == nil {
		resp.Keys = []string{}
	}
	return resp, nil
}

// StatsResponse describes how keys are spread over shards.
type StatsResponse struct {
	Keys   int                  `json:"keys"`
	Shards []sharded.ShardStats `json:"shards"`
}

// Stats returns the current key distribution.
func (s *KVService) Stats(_ context.Context) *StatsResponse {
	return &StatsResponse{
		Keys:   s.repo.Len(),
		Shards: s.repo.Stats(),
	}
}

// Route returns the shard key belongs to.
func (s *KVService) Route(key string) int {
	return s.repo.Route(key)
}

// logFailure logs errors the caller cannot act on. Expected outcomes such
// as a missing key are left to the transport layer.
func (s *KVService) logFailure(ctx context.Context, op, key string, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	var de *domain.DomainError
	if errors.As(err, &de) && de.Code != domain.ErrStorageError.Code && de.Code != domain.ErrInternalServer.Code {
		return
	}
	s.log.WithContext(ctx).Error(fmt.Sprintf("%s failed", op),
		"key", logger.Truncate(key),
		"shard", s.repo.Route(key),
		"error", err)
}
