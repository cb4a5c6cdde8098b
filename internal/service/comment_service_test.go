package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prepdesk/prepdesk-backend/internal/model"
)

func comment(id uuid.UUID, parent *uuid.UUID, createdAt time.Time) model.Comment {
	return model.Comment{
		ID:              id,
		QuestionID:      uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		UserID:          1,
		Content:         "c",
		ParentCommentID: parent,
		CreatedAt:       createdAt,
	}
}

func TestBuildTreeNestsRepliesUnderParents(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p1 := uuid.New()
	p2 := uuid.New()
	r1 := uuid.New()
	r2 := uuid.New()
	r3 := uuid.New()

	flat := []model.Comment{
		comment(p1, nil, t0),
		comment(r1, &p1, t0.Add(1*time.Minute)),
		comment(p2, nil, t0.Add(2*time.Minute)),
		comment(r2, &p2, t0.Add(3*time.Minute)),
		comment(r3, &p1, t0.Add(4*time.Minute)),
	}

	tree := BuildTree(flat)
	if len(tree) != 2 {
		t.Fatalf("expected 2 top-level comments, got %d", len(tree))
	}
	if tree[0].ID != p1 || tree[1].ID != p2 {
		t.Fatalf("top-level order not preserved")
	}
	if tree[0].ReplyCount != 2 || len(tree[0].Replies) != 2 {
		t.Fatalf("expected 2 replies under first comment, got count=%d len=%d", tree[0].ReplyCount, len(tree[0].Replies))
	}
	if tree[0].Replies[0].ID != r1 || tree[0].Replies[1].ID != r3 {
		t.Fatalf("replies not in creation order")
	}
	if tree[1].ReplyCount != 1 || tree[1].Replies[0].ID != r2 {
		t.Fatalf("reply attached to wrong parent")
	}
}

func TestBuildTreeEmptyInput(t *testing.T) {
	tree := BuildTree(nil)
	if len(tree) != 0 {
		t.Fatalf("expected empty tree, got %d nodes", len(tree))
	}
}

func TestBuildTreeDropsOrphanReplies(t *testing.T) {
	missing := uuid.New()
	flat := []model.Comment{
		comment(uuid.New(), &missing, time.Now()),
	}
	tree := BuildTree(flat)
	if len(tree) != 0 {
		t.Fatalf("orphan reply should not become top-level, got %d nodes", len(tree))
	}
}

func TestBuildTreeTopLevelRepliesSliceNeverNil(t *testing.T) {
	flat := []model.Comment{comment(uuid.New(), nil, time.Now())}
	tree := BuildTree(flat)
	if tree[0].Replies == nil {
		t.Fatal("top-level comment without replies should carry an empty slice")
	}
}
