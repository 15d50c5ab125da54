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

type AttachmentService interface {
	Upload(ctx context.Context, in domainagg.StoreAttachmentInput) (*types.Attachment, error)
	// Download returns an open body the caller must close.
	Download(ctx context.Context, actorID, attachmentID uuid.UUID) (domainagg.LoadedAttachment, error)
	Delete(ctx context.Context, in domainagg.DeleteAttachmentInput) (domainagg.DeleteAttachmentResult, error)
	ListForTask(ctx context.Context, actorID, taskID uuid.UUID) ([]types.Attachment, error)
}

type attachmentService struct {
	log         *logger.Logger
	aggregate   domainagg.AttachmentStore
	tasks       repos.TaskRepo
	attachments repos.AttachmentRepo
	events      eventPublisher
}

func NewAttachmentService(
	log *logger.Logger,
	aggregate domainagg.AttachmentStore,
	tasks repos.TaskRepo,
	attachments repos.AttachmentRepo,
	eventBus bus.Bus,
) AttachmentService {
	serviceLog := log.With("service", "AttachmentService")
	return &attachmentService{
		log:         serviceLog,
		aggregate:   aggregate,
		tasks:       tasks,
		attachments: attachments,
		events:      newEventPublisher(eventBus, serviceLog),
	}
}

func (s *attachmentService) Upload(ctx context.Context, in domainagg.StoreAttachmentInput) (*types.Attachment, error) {
	att, err := s.aggregate.Store(ctx, in)
	if err != nil {
		return nil, err
	}
	s.log.Info("Attachment stored", "attachment_id", att.ID, "task_id", att.TaskID, "size_bytes", att.SizeBytes)
	if projectID, ok := projectOfTask(ctx, s.log, s.tasks, att.TaskID); ok {
		s.events.publish(ctx, realtime.NewProjectEvent(realtime.EventAttachmentStored, projectID, in.ActorID, att.ID, att))
	}
	return att, nil
}

func (s *attachmentService) Download(ctx context.Context, actorID, attachmentID uuid.UUID) (domainagg.LoadedAttachment, error) {
	return s.aggregate.Load(ctx, actorID, attachmentID)
}

func (s *attachmentService) Delete(ctx context.Context, in domainagg.DeleteAttachmentInput) (domainagg.DeleteAttachmentResult, error) {
	existing, lookupErr := s.attachments.GetByID(dbctx.Context{Ctx: ctx}, in.AttachmentID)
	res, err := s.aggregate.Delete(ctx, in)
	if err != nil {
		return res, err
	}
	if lookupErr != nil || existing == nil {
		return res, nil
	}
	if projectID, ok := projectOfTask(ctx, s.log, s.tasks, existing.TaskID); ok {
		s.events.publish(ctx, realtime.NewProjectEvent(realtime.EventAttachmentDeleted, projectID, in.ActorID, in.AttachmentID, map[string]any{
			"task_id":      existing.TaskID,
			"blob_deleted": res.BlobDeleted,
		}))
	}
	return res, nil
}

func (s *attachmentService) ListForTask(ctx context.Context, actorID, taskID uuid.UUID) ([]types.Attachment, error) {
	return s.aggregate.ListForTask(ctx, actorID, taskID)
}
