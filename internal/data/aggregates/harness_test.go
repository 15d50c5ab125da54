package aggregates_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/taskmaster-backend/internal/data/aggregates"
	aggtest "github.com/yungbote/taskmaster-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/taskmaster-backend/internal/data/repos"
	"github.com/yungbote/taskmaster-backend/internal/data/repos/testutil"
	types "github.com/yungbote/taskmaster-backend/internal/domain"
	domainagg "github.com/yungbote/taskmaster-backend/internal/domain/aggregates"
	"github.com/yungbote/taskmaster-backend/internal/platform/blobstore"
	"github.com/yungbote/taskmaster-backend/internal/platform/dbctx"
)

// fixedNow is a Wednesday; due dates in tests are relative to it.
var fixedNow = time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)

type harness struct {
	ctx   context.Context
	db    *gorm.DB
	blobs *recordingStore
	hooks *aggtest.HooksRecorder
	// now is the aggregate clock; tests may advance it.
	now time.Time

	projects    domainagg.ProjectAggregate
	tasks       domainagg.TaskAggregate
	comments    domainagg.CommentThread
	attachments domainagg.AttachmentStore

	activity repos.ActivityRepo
	taskRepo repos.TaskRepo
}

type harnessOpt func(*aggregates.BaseDeps)

// withInjectedRunner routes every aggregate transaction through r, bound to
// the harness database.
func withInjectedRunner(r *aggtest.InjectedTxRunner) harnessOpt {
	return func(b *aggregates.BaseDeps) {
		r.DB = b.DB
		b.Runner = r
	}
}

func newHarness(t *testing.T, opts ...harnessOpt) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	local, err := blobstore.NewLocalStore(log, t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	store := &recordingStore{Store: local}
	hooks := &aggtest.HooksRecorder{}
	h := &harness{ctx: context.Background(), db: db, blobs: store, hooks: hooks, now: fixedNow}

	base := aggregates.BaseDeps{
		DB:    db,
		Log:   log,
		Hooks: hooks,
		Now:   func() time.Time { return h.now },
	}
	for _, o := range opts {
		o(&base)
	}

	users := repos.NewUserRepo(db, log)
	projects := repos.NewProjectRepo(db, log)
	members := repos.NewMemberRepo(db, log)
	tasks := repos.NewTaskRepo(db, log)
	comments := repos.NewCommentRepo(db, log)
	atts := repos.NewAttachmentRepo(db, log)
	activity := repos.NewActivityRepo(db, log)

	h.projects = aggregates.NewProjectAggregate(aggregates.ProjectAggregateDeps{
		Base: base, Users: users, Projects: projects, Members: members,
		Tasks: tasks, Comments: comments, Attachments: atts, Activity: activity, Blobs: store,
	})
	h.tasks = aggregates.NewTaskAggregate(aggregates.TaskAggregateDeps{
		Base: base, Projects: projects, Members: members, Tasks: tasks,
		Comments: comments, Attachments: atts, Activity: activity, Blobs: store,
	})
	h.comments = aggregates.NewCommentThread(aggregates.CommentThreadDeps{
		Base: base, Projects: projects, Members: members, Tasks: tasks,
		Comments: comments, Activity: activity,
	})
	h.attachments = aggregates.NewAttachmentStore(aggregates.AttachmentStoreDeps{
		Base: base, Projects: projects, Members: members, Tasks: tasks,
		Attachments: atts, Activity: activity, Blobs: store, MaxUploadBytes: 64,
	})
	h.activity = activity
	h.taskRepo = tasks
	return h
}

func (h *harness) user(t *testing.T, handle string) *types.User {
	t.Helper()
	return testutil.SeedUser(t, h.ctx, h.db, handle)
}

func (h *harness) project(t *testing.T, owner *types.User, name string, members ...*types.User) *types.Project {
	t.Helper()
	p, err := h.projects.Create(h.ctx, domainagg.CreateProjectInput{ActorID: owner.ID, Name: name})
	if err != nil {
		t.Fatalf("create project %q: %v", name, err)
	}
	for _, m := range members {
		if _, err := h.projects.AddMember(h.ctx, domainagg.MemberInput{ActorID: owner.ID, ProjectID: p.ID, UserID: m.ID}); err != nil {
			t.Fatalf("add member %s: %v", m.Username, err)
		}
	}
	return p
}

func (h *harness) task(t *testing.T, actor *types.User, p *types.Project, title string) *types.Task {
	t.Helper()
	tk, err := h.tasks.Create(h.ctx, domainagg.CreateTaskInput{ActorID: actor.ID, ProjectID: p.ID, Title: title})
	if err != nil {
		t.Fatalf("create task %q: %v", title, err)
	}
	return tk
}

func (h *harness) upload(t *testing.T, actor *types.User, tk *types.Task, name, body string) *types.Attachment {
	t.Helper()
	att, err := h.attachments.Store(h.ctx, domainagg.StoreAttachmentInput{
		ActorID:      actor.ID,
		TaskID:       tk.ID,
		Content:      strings.NewReader(body),
		Size:         int64(len(body)),
		OriginalName: name,
		ContentType:  "text/plain",
	})
	if err != nil {
		t.Fatalf("store %q: %v", name, err)
	}
	return att
}

func (h *harness) count(t *testing.T, model interface{}, where string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := h.db.WithContext(h.ctx).Model(model)
	if where != "" {
		q = q.Where(where, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

// assignedOutside counts tasks of p whose assignee is not a member of p.
func (h *harness) assignedOutside(t *testing.T, p *types.Project) int64 {
	t.Helper()
	n, err := h.taskRepo.CountAssignedOutside(dbctx.Context{Ctx: h.ctx}, p.ID)
	if err != nil {
		t.Fatalf("CountAssignedOutside: %v", err)
	}
	return n
}

func (h *harness) blobKeys(t *testing.T) []string {
	t.Helper()
	keys, err := h.blobs.List(h.ctx, "")
	if err != nil {
		t.Fatalf("list blobs: %v", err)
	}
	return keys
}

func wantCode(t *testing.T, err error, code domainagg.ErrorCode) {
	t.Helper()
	if !domainagg.IsCode(err, code) {
		t.Fatalf("error code: want=%s got=%q (%v)", code, domainagg.CodeOf(err), err)
	}
}

// recordingStore wraps a real store and can be told to fail writes or deletes.
type recordingStore struct {
	blobstore.Store

	mu         sync.Mutex
	failPut    bool
	failDelete bool
	deleted    []string
}

func (s *recordingStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (int64, error) {
	s.mu.Lock()
	fail := s.failPut
	s.mu.Unlock()
	if fail {
		return 0, errors.New("bucket unavailable")
	}
	return s.Store.Put(ctx, key, r, contentType)
}

func (s *recordingStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	fail := s.failDelete
	s.mu.Unlock()
	if fail {
		return errors.New("blob backend unavailable")
	}
	if err := s.Store.Delete(ctx, key); err != nil {
		return err
	}
	s.mu.Lock()
	s.deleted = append(s.deleted, key)
	s.mu.Unlock()
	return nil
}

func (s *recordingStore) setFailPut(v bool) {
	s.mu.Lock()
	s.failPut = v
	s.mu.Unlock()
}

func (s *recordingStore) deletedKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

func (s *recordingStore) setFailDelete(v bool) {
	s.mu.Lock()
	s.failDelete = v
	s.mu.Unlock()
}

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}
