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

type ProjectService interface {
	Create(ctx context.Context, in domainagg.CreateProjectInput) (*types.Project, error)
	Update(ctx context.Context, in domainagg.UpdateProjectInput) (*types.Project, error)
	Delete(ctx context.Context, in domainagg.DeleteProjectInput) (domainagg.DeleteProjectResult, error)
	AddMember(ctx context.Context, in domainagg.MemberInput) (*types.ProjectMember, error)
	RemoveMember(ctx context.Context, in domainagg.MemberInput) (domainagg.RemoveMemberResult, error)

	Get(ctx context.Context, actorID, projectID uuid.UUID) (*types.Project, error)
	ListForUser(ctx context.Context, actorID uuid.UUID, page types.Page) (types.PagedResult[types.Project], error)
	ListMembers(ctx context.Context, actorID, projectID uuid.UUID) ([]types.User, error)
	ListActivity(ctx context.Context, actorID, projectID uuid.UUID, page types.Page) (types.PagedResult[types.ActivityEntry], error)
}

type projectService struct {
	log       *logger.Logger
	aggregate domainagg.ProjectAggregate
	events    eventPublisher
}

func NewProjectService(log *logger.Logger, aggregate domainagg.ProjectAggregate, eventBus bus.Bus) ProjectService {
	serviceLog := log.With("service", "ProjectService")
	return &projectService{
		log:       serviceLog,
		aggregate: aggregate,
		events:    newEventPublisher(eventBus, serviceLog),
	}
}

func (s *projectService) Create(ctx context.Context, in domainagg.CreateProjectInput) (*types.Project, error) {
	p, err := s.aggregate.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.log.Info("Project created", "project_id", p.ID, "owner_id", p.OwnerID)
	return p, nil
}

func (s *projectService) Update(ctx context.Context, in domainagg.UpdateProjectInput) (*types.Project, error) {
	p, err := s.aggregate.Update(ctx, in)
	if err != nil {
		return nil, err
	}
	s.events.publish(ctx, realtime.NewProjectEvent(realtime.EventProjectUpdated, p.ID, in.ActorID, p.ID, p))
	return p, nil
}

func (s *projectService) Delete(ctx context.Context, in domainagg.DeleteProjectInput) (domainagg.DeleteProjectResult, error) {
	res, err := s.aggregate.Delete(ctx, in)
	if err != nil {
		return res, err
	}
	if res.BlobFailures > 0 {
		s.log.Warn("Project deleted with orphaned blobs", "project_id", res.ProjectID, "blob_failures", res.BlobFailures)
	}
	s.events.publish(ctx, realtime.NewProjectEvent(realtime.EventProjectDeleted, res.ProjectID, in.ActorID, res.ProjectID, nil))
	return res, nil
}

func (s *projectService) AddMember(ctx context.Context, in domainagg.MemberInput) (*types.ProjectMember, error) {
	m, err := s.aggregate.AddMember(ctx, in)
	if err != nil {
		return nil, err
	}
	s.events.publish(ctx, realtime.NewProjectEvent(realtime.EventMemberAdded, in.ProjectID, in.ActorID, in.UserID, nil))
	return m, nil
}

func (s *projectService) RemoveMember(ctx context.Context, in domainagg.MemberInput) (domainagg.RemoveMemberResult, error) {
	res, err := s.aggregate.RemoveMember(ctx, in)
	if err != nil {
		return res, err
	}
	s.events.publish(ctx, realtime.NewProjectEvent(realtime.EventMemberRemoved, in.ProjectID, in.ActorID, in.UserID, map[string]any{
		"unassigned_tasks": res.UnassignedTasks,
	}))
	return res, nil
}

func (s *projectService) Get(ctx context.Context, actorID, projectID uuid.UUID) (*types.Project, error) {
	return s.aggregate.Get(ctx, actorID, projectID)
}

func (s *projectService) ListForUser(ctx context.Context, actorID uuid.UUID, page types.Page) (types.PagedResult[types.Project], error) {
	return s.aggregate.ListForUser(ctx, actorID, page)
}

func (s *projectService) ListMembers(ctx context.Context, actorID, projectID uuid.UUID) ([]types.User, error) {
	return s.aggregate.ListMembers(ctx, actorID, projectID)
}

func (s *projectService) ListActivity(ctx context.Context, actorID, projectID uuid.UUID, page types.Page) (types.PagedResult[types.ActivityEntry], error) {
	return s.aggregate.ListActivity(ctx, actorID, projectID, page)
}
