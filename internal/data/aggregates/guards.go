package aggregates

import (
	"github.com/google/uuid"

	"github.com/yungbote/taskmaster-backend/internal/data/repos"
	types "github.com/yungbote/taskmaster-backend/internal/domain"
	"github.com/yungbote/taskmaster-backend/internal/platform/dbctx"
)

// Guard answers the two access questions every project scoped operation
// asks. It must be called with the transaction of the operation it gates.
type Guard struct {
	Projects repos.ProjectRepo
	Members  repos.MemberRepo
}

func NewGuard(projects repos.ProjectRepo, members repos.MemberRepo) Guard {
	return Guard{Projects: projects, Members: members}
}

// RequireMembership returns the project when principalID is in its member
// set. A missing project is ErrNotFound; an unknown principal or a non member
// is ErrForbidden.
func (g Guard) RequireMembership(dbc dbctx.Context, projectID, principalID uuid.UUID) (*types.Project, error) {
	return g.require(dbc, projectID, principalID, false, false)
}

// RequireMembershipLocked is RequireMembership holding the project row lock.
func (g Guard) RequireMembershipLocked(dbc dbctx.Context, projectID, principalID uuid.UUID) (*types.Project, error) {
	return g.require(dbc, projectID, principalID, false, true)
}

// RequireOwnership returns the project when principalID owns it.
func (g Guard) RequireOwnership(dbc dbctx.Context, projectID, principalID uuid.UUID) (*types.Project, error) {
	return g.require(dbc, projectID, principalID, true, false)
}

// RequireOwnershipLocked is RequireOwnership holding the project row lock.
func (g Guard) RequireOwnershipLocked(dbc dbctx.Context, projectID, principalID uuid.UUID) (*types.Project, error) {
	return g.require(dbc, projectID, principalID, true, true)
}

func (g Guard) require(dbc dbctx.Context, projectID, principalID uuid.UUID, owner, lock bool) (*types.Project, error) {
	var (
		p   *types.Project
		err error
	)
	if lock {
		p, err = g.Projects.LockByID(dbc, projectID)
	} else {
		p, err = g.Projects.GetByID(dbc, projectID)
	}
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, NotFoundError("project not found")
	}
	if principalID == uuid.Nil {
		return nil, ForbiddenError("not a member of this project")
	}
	if owner {
		if !p.IsOwner(principalID) {
			return nil, ForbiddenError("only the project owner may do this")
		}
		return p, nil
	}
	ok, err := g.Members.IsMember(dbc, projectID, principalID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ForbiddenError("not a member of this project")
	}
	return p, nil
}
