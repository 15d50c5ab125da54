package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/taskmaster-backend/internal/data/repos"
	types "github.com/yungbote/taskmaster-backend/internal/domain"
	domainagg "github.com/yungbote/taskmaster-backend/internal/domain/aggregates"
	"github.com/yungbote/taskmaster-backend/internal/platform/dbctx"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
	"github.com/yungbote/taskmaster-backend/internal/realtime"
	"github.com/yungbote/taskmaster-backend/internal/realtime/bus"
)

type CommentService interface {
	Add(ctx context.Context, in domainagg.AddCommentInput) (*types.Comment, error)
	List(ctx context.Context, actorID, taskID uuid.UUID, page types.Page) (types.PagedResult[types.Comment], error)
	Delete(ctx context.Context, in domainagg.DeleteCommentInput) error
}

type commentService struct {
	log       *logger.Logger
	aggregate domainagg.CommentThread
	tasks     repos.TaskRepo
	comments  repos.CommentRepo
	events    eventPublisher
}

func NewCommentService(
	log *logger.Logger,
	aggregate domainagg.CommentThread,
	tasks repos.TaskRepo,
	comments repos.CommentRepo,
	eventBus bus.Bus,
) CommentService {
	serviceLog := log.With("service", "CommentService")
	return &commentService{
		log:       serviceLog,
		aggregate: aggregate,
		tasks:     tasks,
		comments:  comments,
		events:    newEventPublisher(eventBus, serviceLog),
	}
}

// projectOfTask resolves the event address of a task. Lookup failures only
// cost the event.
func projectOfTask(ctx context.Context, log *logger.Logger, tasks repos.TaskRepo, taskID uuid.UUID) (uuid.UUID, bool) {
	t, err := tasks.GetByID(dbctx.Context{Ctx: ctx}, taskID)
	if err != nil {
		log.Warn("Task lookup for event failed", "task_id", taskID, "error", err)
		return uuid.Nil, false
	}
	if t == nil {
		return uuid.Nil, false
	}
	return t.ProjectID, true
}

func (s *commentService) Add(ctx context.Context, in domainagg.AddCommentInput) (*types.Comment, error) {
	c, err := s.aggregate.Add(ctx, in)
	if err != nil {
		return nil, err
	}
	if projectID, ok := projectOfTask(ctx, s.log, s.tasks, c.TaskID); ok {
		s.events.publish(ctx, realtime.NewProjectEvent(realtime.EventCommentAdded, projectID, in.ActorID, c.ID, c))
	}
	return c, nil
}

func (s *commentService) List(ctx context.Context, actorID, taskID uuid.UUID, page types.Page) (types.PagedResult[types.Comment], error) {
	return s.aggregate.List(ctx, actorID, taskID, page)
}

func (s *commentService) Delete(ctx context.Context, in domainagg.DeleteCommentInput) error {
	existing, lookupErr := s.comments.GetByID(dbctx.Context{Ctx: ctx}, in.CommentID)
	if err := s.aggregate.Delete(ctx, in); err != nil {
		return err
	}
	if lookupErr != nil || existing == nil {
		return nil
	}
	if projectID, ok := projectOfTask(ctx, s.log, s.tasks, existing.TaskID); ok {
		s.events.publish(ctx, realtime.NewProjectEvent(realtime.EventCommentDeleted, projectID, in.ActorID, in.CommentID, map[string]any{
			"task_id": existing.TaskID,
		}))
	}
	return nil
}
