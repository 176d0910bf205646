package repos

import (
  "context"
  "testing"
  "time"
  "github.com/google/uuid"
  "gorm.io/datatypes"
  "github.com/amplifylms/amplify-backend/internal/types"
)

func TestResponseRepoDuplicateSubmission(t *testing.T) {
  db := testDB(t)
  repo := NewResponseRepo(db, testLogger(t))
  ctx := context.Background()

  assignment := seedAssignment(t, ctx, db, "", "Quiz")
  seedResponse(t, ctx, db, assignment.ID, "J001")

  // Same student resubmitting must hit the composite unique index.
  _, err := repo.Create(ctx, nil, &types.Response{
    ID:           uuid.NewString(),
    AssignmentID: assignment.ID,
    StudentName:  "Student",
    JNumber:      "J001",
    Answers:      datatypes.JSON([]byte(`{}`)),
    SubmittedAt:  time.Now(),
  })
  if err == nil {
    t.Fatalf("expected unique violation for duplicate (assignment, jNumber)")
  }

  // Same jNumber on a different assignment is fine.
  other := seedAssignment(t, ctx, db, "", "Other quiz")
  if _, err := repo.Create(ctx, nil, &types.Response{
    ID:           uuid.NewString(),
    AssignmentID: other.ID,
    StudentName:  "Student",
    JNumber:      "J001",
    Answers:      datatypes.JSON([]byte(`{}`)),
    SubmittedAt:  time.Now(),
  }); err != nil {
    t.Fatalf("Create on other assignment: %v", err)
  }
}

func TestResponseRepoGetByAssignmentAndJNumber(t *testing.T) {
  db := testDB(t)
  repo := NewResponseRepo(db, testLogger(t))
  ctx := context.Background()

  assignment := seedAssignment(t, ctx, db, "", "Quiz")
  seeded := seedResponse(t, ctx, db, assignment.ID, "J002")

  got, err := repo.GetByAssignmentAndJNumber(ctx, nil, assignment.ID, "J002")
  if err != nil {
    t.Fatalf("GetByAssignmentAndJNumber: %v", err)
  }
  if got == nil || got.ID != seeded.ID {
    t.Fatalf("GetByAssignmentAndJNumber: unexpected result: %+v", got)
  }

  missing, err := repo.GetByAssignmentAndJNumber(ctx, nil, assignment.ID, "J999")
  if err != nil {
    t.Fatalf("GetByAssignmentAndJNumber (missing): %v", err)
  }
  if missing != nil {
    t.Fatalf("GetByAssignmentAndJNumber (missing): expected nil, got %+v", missing)
  }
}

func TestResponseRepoListAndDeleteByAssignment(t *testing.T) {
  db := testDB(t)
  repo := NewResponseRepo(db, testLogger(t))
  ctx := context.Background()

  first := seedAssignment(t, ctx, db, "", "First")
  second := seedAssignment(t, ctx, db, "", "Second")
  seedResponse(t, ctx, db, first.ID, "J001")
  seedResponse(t, ctx, db, first.ID, "J002")
  seedResponse(t, ctx, db, second.ID, "J001")

  byOne, err := repo.ListByAssignmentID(ctx, nil, first.ID)
  if err != nil {
    t.Fatalf("ListByAssignmentID: %v", err)
  }
  if len(byOne) != 2 {
    t.Fatalf("ListByAssignmentID: expected 2, got %d", len(byOne))
  }

  byBoth, err := repo.ListByAssignmentIDs(ctx, nil, []string{first.ID, second.ID})
  if err != nil {
    t.Fatalf("ListByAssignmentIDs: %v", err)
  }
  if len(byBoth) != 3 {
    t.Fatalf("ListByAssignmentIDs: expected 3, got %d", len(byBoth))
  }

  byNone, err := repo.ListByAssignmentIDs(ctx, nil, nil)
  if err != nil {
    t.Fatalf("ListByAssignmentIDs (empty): %v", err)
  }
  if len(byNone) != 0 {
    t.Fatalf("ListByAssignmentIDs (empty): expected 0, got %d", len(byNone))
  }

  if err := repo.DeleteByAssignmentID(ctx, nil, first.ID); err != nil {
    t.Fatalf("DeleteByAssignmentID: %v", err)
  }
  remaining, err := repo.ListByAssignmentID(ctx, nil, first.ID)
  if err != nil {
    t.Fatalf("ListByAssignmentID (after delete): %v", err)
  }
  if len(remaining) != 0 {
    t.Fatalf("expected responses deleted, got %d", len(remaining))
  }
  untouched, err := repo.ListByAssignmentID(ctx, nil, second.ID)
  if err != nil {
    t.Fatalf("ListByAssignmentID (other): %v", err)
  }
  if len(untouched) != 1 {
    t.Fatalf("expected other assignment untouched, got %d", len(untouched))
  }
}
