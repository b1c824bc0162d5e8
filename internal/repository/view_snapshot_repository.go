package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/deskops/ticket-desk/internal/domain"
)

// ErrSnapshotNotFound is returned when no snapshot exists for a view.
var ErrSnapshotNotFound = errors.New("view snapshot not found")

// ViewKind separates list views from ticket detail views.
type ViewKind string

const (
	ViewKindList   ViewKind = "list"
	ViewKindTicket ViewKind = "ticket"
)

// ListSnapshot is the persisted part of a list view.
type ListSnapshot struct {
	Status    domain.StatusFilter `json:"status"`
	SortBy    domain.SortField    `json:"sort_by"`
	SortOrder domain.SortOrder    `json:"sort_order"`
	Page      int                 `json:"page"`
}

// TicketSnapshot is the persisted part of a ticket detail view.
type TicketSnapshot struct {
	TicketID domain.TicketID `json:"ticket_id"`
	Editing  bool            `json:"editing"`
	Draft    *domain.Ticket  `json:"draft,omitempty"`
}

// ViewSnapshot is what survives a desk restart.
type ViewSnapshot struct {
	ID        string          `json:"id"`
	Kind      ViewKind        `json:"kind"`
	List      *ListSnapshot   `json:"list,omitempty"`
	Ticket    *TicketSnapshot `json:"ticket,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ViewSnapshotRepository persists view snapshots with a time to live.
type ViewSnapshotRepository interface {
	Save(ctx context.Context, snapshot ViewSnapshot) error
	Get(ctx context.Context, id string) (*ViewSnapshot, error)
	Delete(ctx context.Context, id string) error
}

type redisViewSnapshotRepository struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisViewSnapshotRepository stores snapshots as JSON under prefix+id.
func NewRedisViewSnapshotRepository(client *redis.Client, prefix string, ttl time.Duration) ViewSnapshotRepository {
	if prefix == "" {
		prefix = "ticket-desk:view:"
	}
	return &redisViewSnapshotRepository{client: client, prefix: prefix, ttl: ttl}
}

func (r *redisViewSnapshotRepository) Save(ctx context.Context, snapshot ViewSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.prefix+snapshot.ID, payload, r.ttl).Err()
}

func (r *redisViewSnapshotRepository) Get(ctx context.Context, id string) (*ViewSnapshot, error) {
	payload, err := r.client.Get(ctx, r.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	var snapshot ViewSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *redisViewSnapshotRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.prefix+id).Err()
}

type memoryViewSnapshotRepository struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	snapshots map[string]memorySnapshot
}

type memorySnapshot struct {
	snapshot  ViewSnapshot
	expiresAt time.Time
}

// NewMemoryViewSnapshotRepository keeps snapshots in process, for desks
// running without redis.
func NewMemoryViewSnapshotRepository(ttl time.Duration) ViewSnapshotRepository {
	return &memoryViewSnapshotRepository{
		ttl:       ttl,
		now:       time.Now,
		snapshots: make(map[string]memorySnapshot),
	}
}

func (r *memoryViewSnapshotRepository) Save(ctx context.Context, snapshot ViewSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := memorySnapshot{snapshot: snapshot}
	if r.ttl > 0 {
		entry.expiresAt = r.now().Add(r.ttl)
	}
	r.snapshots[snapshot.ID] = entry
	return nil
}

func (r *memoryViewSnapshotRepository) Get(ctx context.Context, id string) (*ViewSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.snapshots[id]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	if !entry.expiresAt.IsZero() && r.now().After(entry.expiresAt) {
		delete(r.snapshots, id)
		return nil, ErrSnapshotNotFound
	}
	snapshot := entry.snapshot
	return &snapshot, nil
}

func (r *memoryViewSnapshotRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.snapshots, id)
	return nil
}
