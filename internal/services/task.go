package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/yungbote/taskmaster-backend/internal/domain"
	domainagg "github.com/yungbote/taskmaster-backend/internal/domain/aggregates"
	"github.com/yungbote/taskmaster-backend/internal/platform/logger"
	"github.com/yungbote/taskmaster-backend/internal/realtime"
	"github.com/yungbote/taskmaster-backend/internal/realtime/bus"
)

type TaskService interface {
	Create(ctx context.Context, in domainagg.CreateTaskInput) (*types.Task, error)
	Update(ctx context.Context, in domainagg.UpdateTaskInput) (*types.Task, error)
	UpdateStatus(ctx context.Context, in domainagg.UpdateTaskStatusInput) (*types.Task, error)
	Assign(ctx context.Context, in domainagg.AssignTaskInput) (*types.Task, error)
	Delete(ctx context.Context, in domainagg.DeleteTaskInput) (domainagg.DeleteTaskResult, error)

	Get(ctx context.Context, actorID, projectID, taskID uuid.UUID) (*types.Task, error)
	List(ctx context.Context, actorID, projectID uuid.UUID, filter types.TaskFilter, page types.Page) (types.PagedResult[types.Task], error)
	ListAssignedTo(ctx context.Context, actorID uuid.UUID, page types.Page) (types.PagedResult[types.Task], error)
}

type taskService struct {
	log       *logger.Logger
	aggregate domainagg.TaskAggregate
	events    eventPublisher
}

func NewTaskService(log *logger.Logger, aggregate domainagg.TaskAggregate, eventBus bus.Bus) TaskService {
	serviceLog := log.With("service", "TaskService")
	return &taskService{
		log:       serviceLog,
		aggregate: aggregate,
		events:    newEventPublisher(eventBus, serviceLog),
	}
}

func (s *taskService) Create(ctx context.Context, in domainagg.CreateTaskInput) (*types.Task, error) {
	t, err := s.aggregate.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.events.publish(ctx, realtime.NewProjectEvent(realtime.EventTaskCreated, t.ProjectID, in.ActorID, t.ID, t))
	return t, nil
}

func (s *taskService) Update(ctx context.Context, in domainagg.UpdateTaskInput) (*types.Task, error) {
	t, err := s.aggregate.Update(ctx, in)
	if err != nil {
		return nil, err
	}
	s.events.publish(ctx, realtime.NewProjectEvent(realtime.EventTaskUpdated, t.ProjectID, in.ActorID, t.ID, t))
	return t, nil
}

// UpdateStatus announces only real transitions; repeating the current status
// is silent.
func (s *taskService) UpdateStatus(ctx context.Context, in domainagg.UpdateTaskStatusInput) (*types.Task, error) {
	before, err := s.aggregate.Get(ctx, in.ActorID, in.ProjectID, in.TaskID)
	if err != nil {
		return nil, err
	}
	t, err := s.aggregate.UpdateStatus(ctx, in)
	if err != nil {
		return nil, err
	}
	if t.Status != before.Status {
		s.events.publish(ctx, realtime.NewProjectEvent(realtime.EventTaskStatusChanged, t.ProjectID, in.ActorID, t.ID, map[string]any{
			"from": before.Status,
			"to":   t.Status,
		}))
	}
	return t, nil
}

func (s *taskService) Assign(ctx context.Context, in domainagg.AssignTaskInput) (*types.Task, error) {
	t, err := s.aggregate.Assign(ctx, in)
	if err != nil {
		return nil, err
	}
	s.events.publish(ctx, realtime.NewProjectEvent(realtime.EventTaskAssigned, t.ProjectID, in.ActorID, t.ID, map[string]any{
		"assignee_id": t.AssigneeID,
	}))
	return t, nil
}

func (s *taskService) Delete(ctx context.Context, in domainagg.DeleteTaskInput) (domainagg.DeleteTaskResult, error) {
	res, err := s.aggregate.Delete(ctx, in)
	if err != nil {
		return res, err
	}
	if res.BlobFailures > 0 {
		s.log.Warn("Task deleted with orphaned blobs", "task_id", res.TaskID, "blob_failures", res.BlobFailures)
	}
	s.events.publish(ctx, realtime.NewProjectEvent(realtime.EventTaskDeleted, in.ProjectID, in.ActorID, res.TaskID, nil))
	return res, nil
}

func (s *taskService) Get(ctx context.Context, actorID, projectID, taskID uuid.UUID) (*types.Task, error) {
	return s.aggregate.Get(ctx, actorID, projectID, taskID)
}

func (s *taskService) List(ctx context.Context, actorID, projectID uuid.UUID, filter types.TaskFilter, page types.Page) (types.PagedResult[types.Task], error) {
	return s.aggregate.List(ctx, actorID, projectID, filter, page)
}

func (s *taskService) ListAssignedTo(ctx context.Context, actorID uuid.UUID, page types.Page) (types.PagedResult[types.Task], error) {
	return s.aggregate.ListAssignedTo(ctx, actorID, page)
}
