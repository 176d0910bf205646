package repos

import (
  "context"
  "testing"
  "time"
  "github.com/google/uuid"
  "gorm.io/datatypes"
  "github.com/amplifylms/amplify-backend/internal/types"
)

func TestAssignmentRepo(t *testing.T) {
  db := testDB(t)
  repo := NewAssignmentRepo(db, testLogger(t))
  ctx := context.Background()

  owner := seedUser(t, ctx, db, "assignmentrepo@example.com")

  created, err := repo.Create(ctx, nil, &types.Assignment{
    ID:        uuid.NewString(),
    Title:     "Chapter 1 Quiz",
    OwnerID:   &owner.ID,
    Questions: datatypes.JSON([]byte(`[{"prompt":"What is 2+2?"}]`)),
  })
  if err != nil {
    t.Fatalf("Create: %v", err)
  }

  got, err := repo.GetByID(ctx, nil, created.ID)
  if err != nil {
    t.Fatalf("GetByID: %v", err)
  }
  if got == nil || got.Title != "Chapter 1 Quiz" {
    t.Fatalf("GetByID: unexpected result: %+v", got)
  }

  missing, err := repo.GetByID(ctx, nil, "nope")
  if err != nil {
    t.Fatalf("GetByID (missing): %v", err)
  }
  if missing != nil {
    t.Fatalf("GetByID (missing): expected nil, got %+v", missing)
  }

  if err := repo.DeleteByID(ctx, nil, created.ID); err != nil {
    t.Fatalf("DeleteByID: %v", err)
  }
  gone, err := repo.GetByID(ctx, nil, created.ID)
  if err != nil {
    t.Fatalf("GetByID (after delete): %v", err)
  }
  if gone != nil {
    t.Fatalf("expected assignment deleted, got %+v", gone)
  }
}

func TestAssignmentRepoListByOwnerScoping(t *testing.T) {
  db := testDB(t)
  repo := NewAssignmentRepo(db, testLogger(t))
  ctx := context.Background()

  ownerA := seedUser(t, ctx, db, "owner-a@example.com")
  ownerB := seedUser(t, ctx, db, "owner-b@example.com")

  first := seedAssignment(t, ctx, db, ownerA.ID, "First")
  time.Sleep(5 * time.Millisecond)
  second := seedAssignment(t, ctx, db, ownerA.ID, "Second")
  seedAssignment(t, ctx, db, ownerB.ID, "Other owner")
  seedAssignment(t, ctx, db, "", "Ownerless")

  listed, err := repo.ListByOwnerID(ctx, nil, ownerA.ID)
  if err != nil {
    t.Fatalf("ListByOwnerID: %v", err)
  }
  if len(listed) != 2 {
    t.Fatalf("ListByOwnerID: expected 2 assignments, got %d", len(listed))
  }
  // Newest first.
  if listed[0].ID != second.ID || listed[1].ID != first.ID {
    t.Fatalf("ListByOwnerID: wrong order: %s, %s", listed[0].Title, listed[1].Title)
  }
}
