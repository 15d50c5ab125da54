package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/taskmaster-backend/internal/domain"
)

// SeedUser inserts a user whose username and email derive from handle plus a
// random suffix, so repeated seeds never collide.
func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, handle string) *types.User {
	tb.Helper()
	suffix := uuid.NewString()[:8]
	u := &types.User{
		ID:        uuid.New(),
		Username:  handle + "_" + suffix,
		Email:     handle + "_" + suffix + "@example.com",
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedProject inserts a project and the owner's member row.
func SeedProject(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, name string) *types.Project {
	tb.Helper()
	p := &types.Project{
		ID:      uuid.New(),
		Name:    name,
		OwnerID: ownerID,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	SeedMember(tb, ctx, tx, p.ID, ownerID)
	return p
}

func SeedMember(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID, userID uuid.UUID) {
	tb.Helper()
	m := &types.ProjectMember{ProjectID: projectID, UserID: userID}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed member: %v", err)
	}
}

func SeedTask(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, title string, assigneeID *uuid.UUID) *types.Task {
	tb.Helper()
	t := &types.Task{
		ID:         uuid.New(),
		ProjectID:  projectID,
		Title:      title,
		Status:     types.TaskStatusOpen,
		AssigneeID: assigneeID,
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed task: %v", err)
	}
	return t
}

func SeedComment(tb testing.TB, ctx context.Context, tx *gorm.DB, taskID, authorID uuid.UUID, content string, at time.Time) *types.Comment {
	tb.Helper()
	c := &types.Comment{
		ID:        uuid.New(),
		TaskID:    taskID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: at,
		UpdatedAt: at,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed comment: %v", err)
	}
	return c
}

func SeedAttachment(tb testing.TB, ctx context.Context, tx *gorm.DB, taskID, uploaderID uuid.UUID, storageKey string) *types.Attachment {
	tb.Helper()
	a := &types.Attachment{
		ID:          uuid.New(),
		FileName:    "file.pdf",
		ContentType: "application/pdf",
		SizeBytes:   3,
		StorageKey:  storageKey,
		TaskID:      taskID,
		UploaderID:  uploaderID,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed attachment: %v", err)
	}
	return a
}
