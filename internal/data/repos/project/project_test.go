package project

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/taskmaster-backend/internal/data/repos/testutil"
	types "github.com/yungbote/taskmaster-backend/internal/domain"
	"github.com/yungbote/taskmaster-backend/internal/platform/dbctx"
)

func TestProjectRepoListForMember(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	bob := testutil.SeedUser(t, ctx, tx, "bob")
	p1 := testutil.SeedProject(t, ctx, tx, alice.ID, "one")
	testutil.SeedProject(t, ctx, tx, bob.ID, "two")
	testutil.SeedMember(t, ctx, tx, p1.ID, bob.ID)

	repo := NewProjectRepo(db, testutil.Logger(t))
	got, total, err := repo.ListForMember(dbc, alice.ID, types.Page{Size: 10})
	if err != nil {
		t.Fatalf("ListForMember: %v", err)
	}
	if total != 1 || len(got) != 1 || got[0].ID != p1.ID {
		t.Fatalf("ListForMember(alice): want [%s] got total=%d %+v", p1.ID, total, got)
	}
	_, total, err = repo.ListForMember(dbc, bob.ID, types.Page{Size: 10})
	if err != nil {
		t.Fatalf("ListForMember: %v", err)
	}
	if total != 2 {
		t.Fatalf("ListForMember(bob): want=2 got=%d", total)
	}

	locked, err := repo.LockByID(dbc, p1.ID)
	if err != nil || locked == nil || locked.ID != p1.ID {
		t.Fatalf("LockByID: got %+v,%v", locked, err)
	}
	missing, err := repo.GetByID(dbc, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("GetByID (missing): want nil,nil got %+v,%v", missing, err)
	}
}

func TestMemberRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	bob := testutil.SeedUser(t, ctx, tx, "bob")
	p := testutil.SeedProject(t, ctx, tx, alice.ID, "one")

	repo := NewMemberRepo(db, testutil.Logger(t))
	if err := repo.Add(dbc, &types.ProjectMember{ProjectID: p.ID, UserID: bob.ID, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := repo.Add(dbc, &types.ProjectMember{ProjectID: p.ID, UserID: bob.ID, CreatedAt: time.Now()}); err == nil {
		t.Fatalf("Add duplicate: expected error")
	}
}

func TestMemberRepoRemove(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	bob := testutil.SeedUser(t, ctx, tx, "bob")
	p := testutil.SeedProject(t, ctx, tx, alice.ID, "one")
	testutil.SeedMember(t, ctx, tx, p.ID, bob.ID)

	repo := NewMemberRepo(db, testutil.Logger(t))
	ids, err := repo.ListUserIDs(dbc, p.ID)
	if err != nil || len(ids) != 2 {
		t.Fatalf("ListUserIDs: want 2 got %v,%v", ids, err)
	}
	removed, err := repo.Remove(dbc, p.ID, bob.ID)
	if err != nil || !removed {
		t.Fatalf("Remove: want true got %v,%v", removed, err)
	}
	removed, err = repo.Remove(dbc, p.ID, bob.ID)
	if err != nil || removed {
		t.Fatalf("Remove again: want false got %v,%v", removed, err)
	}
	ok, err := repo.IsMember(dbc, p.ID, alice.ID)
	if err != nil || !ok {
		t.Fatalf("IsMember(owner): want true got %v,%v", ok, err)
	}
}
