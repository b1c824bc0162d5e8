package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/deskops/ticket-desk/internal/domain"
)

func TestMemoryViewSnapshotRepository(t *testing.T) {
	repo := NewMemoryViewSnapshotRepository(time.Minute).(*memoryViewSnapshotRepository)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	snapshot := ViewSnapshot{
		ID:   "v1",
		Kind: ViewKindList,
		List: &ListSnapshot{Status: "pending", SortBy: domain.SortByTitle, SortOrder: domain.SortAsc, Page: 2},
	}
	if err := repo.Save(ctx, snapshot); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repo.Get(ctx, "v1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.List == nil || *got.List != *snapshot.List {
		t.Errorf("snapshot = %+v", got)
	}

	now = now.Add(2 * time.Minute)
	if _, err := repo.Get(ctx, "v1"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("expired snapshot err = %v", err)
	}

	_ = repo.Save(ctx, snapshot)
	if err := repo.Delete(ctx, "v1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, "v1"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("deleted snapshot err = %v", err)
	}
}
