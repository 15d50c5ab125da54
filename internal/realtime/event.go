package realtime

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventProjectUpdated    EventType = "ProjectUpdated"
	EventProjectDeleted    EventType = "ProjectDeleted"
	EventMemberAdded       EventType = "MemberAdded"
	EventMemberRemoved     EventType = "MemberRemoved"
	EventTaskCreated       EventType = "TaskCreated"
	EventTaskUpdated       EventType = "TaskUpdated"
	EventTaskStatusChanged EventType = "TaskStatusChanged"
	EventTaskAssigned      EventType = "TaskAssigned"
	EventTaskDeleted       EventType = "TaskDeleted"
	EventCommentAdded      EventType = "CommentAdded"
	EventCommentDeleted    EventType = "CommentDeleted"
	EventAttachmentStored  EventType = "AttachmentStored"
	EventAttachmentDeleted EventType = "AttachmentDeleted"
)

// Event is a committed change fanned out to the members of a project.
type Event struct {
	Channel   string    `json:"channel"`
	Type      EventType `json:"event"`
	ProjectID uuid.UUID `json:"project_id"`
	ActorID   uuid.UUID `json:"actor_id"`
	SubjectID uuid.UUID `json:"subject_id"`
	Data      any       `json:"data,omitempty"`
	At        time.Time `json:"at"`
}

func ProjectChannel(projectID uuid.UUID) string {
	return "project:" + projectID.String()
}

// NewProjectEvent addresses an event to the project's channel.
func NewProjectEvent(typ EventType, projectID, actorID, subjectID uuid.UUID, data any) Event {
	return Event{
		Channel:   ProjectChannel(projectID),
		Type:      typ,
		ProjectID: projectID,
		ActorID:   actorID,
		SubjectID: subjectID,
		Data:      data,
		At:        time.Now().UTC(),
	}
}
