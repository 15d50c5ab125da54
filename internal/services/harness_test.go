package services

import (
	"context"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/taskmaster-backend/internal/data/aggregates"
	"github.com/yungbote/taskmaster-backend/internal/data/repos"
	"github.com/yungbote/taskmaster-backend/internal/data/repos/testutil"
	types "github.com/yungbote/taskmaster-backend/internal/domain"
	domainagg "github.com/yungbote/taskmaster-backend/internal/domain/aggregates"
	"github.com/yungbote/taskmaster-backend/internal/platform/blobstore"
	"github.com/yungbote/taskmaster-backend/internal/platform/ctxutil"
	"github.com/yungbote/taskmaster-backend/internal/realtime"
	"github.com/yungbote/taskmaster-backend/internal/realtime/bus"
)

type eventLog struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (l *eventLog) record(ev realtime.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) kinds() []realtime.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]realtime.EventType, 0, len(l.events))
	for _, ev := range l.events {
		out = append(out, ev.Type)
	}
	return out
}

func (l *eventLog) last() realtime.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.events) == 0 {
		return realtime.Event{}
	}
	return l.events[len(l.events)-1]
}

type fixture struct {
	ctx    context.Context
	db     *gorm.DB
	store  *blobstore.LocalStore
	events *eventLog

	users       repos.UserRepo
	attRepo     repos.AttachmentRepo
	activity    repos.ActivityRepo
	auth        AuthService
	profile     UserService
	projects    ProjectService
	tasks       TaskService
	comments    CommentService
	attachments AttachmentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	store, err := blobstore.NewLocalStore(log, t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	eventBus := bus.NewMemoryBus()
	t.Cleanup(func() { _ = eventBus.Close() })
	events := &eventLog{}
	if err := eventBus.StartForwarder(ctx, events.record); err != nil {
		t.Fatalf("StartForwarder: %v", err)
	}

	users := repos.NewUserRepo(db, log)
	projectRepo := repos.NewProjectRepo(db, log)
	members := repos.NewMemberRepo(db, log)
	taskRepo := repos.NewTaskRepo(db, log)
	commentRepo := repos.NewCommentRepo(db, log)
	attRepo := repos.NewAttachmentRepo(db, log)
	activity := repos.NewActivityRepo(db, log)
	base := aggregates.BaseDeps{DB: db, Log: log}

	auth := NewAuthService(db, log, users, "test-secret", 0)
	auth.(*authService).bcryptCost = bcrypt.MinCost

	f := &fixture{
		ctx:      ctx,
		db:       db,
		store:    store,
		events:   events,
		users:    users,
		attRepo:  attRepo,
		activity: activity,
		auth:     auth,
		profile:  NewUserService(db, log, users),
	}
	f.projects = NewProjectService(log, aggregates.NewProjectAggregate(aggregates.ProjectAggregateDeps{
		Base: base, Users: users, Projects: projectRepo, Members: members, Tasks: taskRepo,
		Comments: commentRepo, Attachments: attRepo, Activity: activity, Blobs: store,
	}), eventBus)
	f.tasks = NewTaskService(log, aggregates.NewTaskAggregate(aggregates.TaskAggregateDeps{
		Base: base, Projects: projectRepo, Members: members, Tasks: taskRepo,
		Comments: commentRepo, Attachments: attRepo, Activity: activity, Blobs: store,
	}), eventBus)
	f.comments = NewCommentService(log, aggregates.NewCommentThread(aggregates.CommentThreadDeps{
		Base: base, Projects: projectRepo, Members: members, Tasks: taskRepo,
		Comments: commentRepo, Activity: activity,
	}), taskRepo, commentRepo, eventBus)
	f.attachments = NewAttachmentService(log, aggregates.NewAttachmentStore(aggregates.AttachmentStoreDeps{
		Base: base, Projects: projectRepo, Members: members, Tasks: taskRepo,
		Attachments: attRepo, Activity: activity, Blobs: store,
	}), taskRepo, attRepo, eventBus)
	return f
}

func (f *fixture) user(t *testing.T, handle string) *types.User {
	t.Helper()
	return testutil.SeedUser(t, f.ctx, f.db, handle)
}

func (f *fixture) asUser(u *types.User) context.Context {
	return ctxutil.WithRequestData(f.ctx, &ctxutil.RequestData{UserID: u.ID})
}

func wantCode(t *testing.T, err error, code domainagg.ErrorCode) {
	t.Helper()
	if !domainagg.IsCode(err, code) {
		t.Fatalf("error code: want=%s got=%q (%v)", code, domainagg.CodeOf(err), err)
	}
}
