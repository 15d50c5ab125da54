package aggregates

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/taskmaster-backend/internal/data/repos"
	types "github.com/yungbote/taskmaster-backend/internal/domain"
	"github.com/yungbote/taskmaster-backend/internal/platform/dbctx"
)

// recordActivity appends one audit row in the caller's transaction. A nil
// repo disables auditing.
func recordActivity(dbc dbctx.Context, repo repos.ActivityRepo, at time.Time, projectID, actorID uuid.UUID, kind string, subjectID uuid.UUID, meta map[string]any) error {
	if repo == nil {
		return nil
	}
	entry := &types.ActivityEntry{
		ID:        uuid.New(),
		ProjectID: projectID,
		Kind:      kind,
		CreatedAt: at,
	}
	if actorID != uuid.Nil {
		a := actorID
		entry.ActorID = &a
	}
	if subjectID != uuid.Nil {
		s := subjectID
		entry.SubjectID = &s
	}
	if len(meta) > 0 {
		raw, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		entry.Metadata = datatypes.JSON(raw)
	}
	return repo.Append(dbc, entry)
}
