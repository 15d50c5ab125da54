package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/taskmaster-backend/internal/data/aggregates"
	"github.com/yungbote/taskmaster-backend/internal/data/repos"
	"github.com/yungbote/taskmaster-backend/internal/data/repos/testutil"
	httpH "github.com/yungbote/taskmaster-backend/internal/http/handlers"
	httpMW "github.com/yungbote/taskmaster-backend/internal/http/middleware"
	"github.com/yungbote/taskmaster-backend/internal/observability"
	"github.com/yungbote/taskmaster-backend/internal/platform/blobstore"
	"github.com/yungbote/taskmaster-backend/internal/realtime"
	"github.com/yungbote/taskmaster-backend/internal/realtime/bus"
	"github.com/yungbote/taskmaster-backend/internal/services"
)

type apiFixture struct {
	t      *testing.T
	engine *gin.Engine
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	store, err := blobstore.NewLocalStore(log, t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	hub := realtime.NewHub(log)
	eventBus := bus.NewMemoryBus()
	t.Cleanup(func() { _ = eventBus.Close() })
	if err := eventBus.StartForwarder(ctx, hub.Dispatch); err != nil {
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

	auth := services.NewAuthService(db, log, users, "router-test-secret", time.Hour)
	projects := services.NewProjectService(log, aggregates.NewProjectAggregate(aggregates.ProjectAggregateDeps{
		Base: base, Users: users, Projects: projectRepo, Members: members, Tasks: taskRepo,
		Comments: commentRepo, Attachments: attRepo, Activity: activity, Blobs: store,
	}), eventBus)
	tasks := services.NewTaskService(log, aggregates.NewTaskAggregate(aggregates.TaskAggregateDeps{
		Base: base, Projects: projectRepo, Members: members, Tasks: taskRepo,
		Comments: commentRepo, Attachments: attRepo, Activity: activity, Blobs: store,
	}), eventBus)
	comments := services.NewCommentService(log, aggregates.NewCommentThread(aggregates.CommentThreadDeps{
		Base: base, Projects: projectRepo, Members: members, Tasks: taskRepo,
		Comments: commentRepo, Activity: activity,
	}), taskRepo, commentRepo, eventBus)
	attachments := services.NewAttachmentService(log, aggregates.NewAttachmentStore(aggregates.AttachmentStoreDeps{
		Base: base, Projects: projectRepo, Members: members, Tasks: taskRepo,
		Attachments: attRepo, Activity: activity, Blobs: store,
	}), taskRepo, attRepo, eventBus)

	engine := NewRouter(RouterConfig{
		Log:               log,
		Metrics:           observability.NewMetrics(),
		AuthHandler:       httpH.NewAuthHandler(log, auth),
		AuthMiddleware:    httpMW.NewAuthMiddleware(log, auth),
		UserHandler:       httpH.NewUserHandler(log, services.NewUserService(db, log, users), tasks),
		RealtimeHandler:   httpH.NewRealtimeHandler(log, hub, projects),
		ProjectHandler:    httpH.NewProjectHandler(log, projects),
		ActivityHandler:   httpH.NewActivityHandler(log, projects),
		TaskHandler:       httpH.NewTaskHandler(log, tasks),
		CommentHandler:    httpH.NewCommentHandler(log, comments),
		AttachmentHandler: httpH.NewAttachmentHandlerWithDeps(httpH.AttachmentHandlerDeps{Log: log, Attachments: attachments, MaxUploadBytes: 1 << 20}),
		HealthHandler:     httpH.NewHealthHandler(db),
	})
	return &apiFixture{t: t, engine: engine}
}

func (f *apiFixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	f.t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			f.t.Fatalf("marshal body: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) expect(rec *httptest.ResponseRecorder, status int, out any) {
	f.t.Helper()
	if rec.Code != status {
		f.t.Fatalf("status: want=%d got=%d body=%s", status, rec.Code, rec.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			f.t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
		}
	}
}

type idBody struct {
	ID string `json:"id"`
}

type session struct {
	token  string
	userID string
}

func (f *apiFixture) signUp(username string) session {
	f.t.Helper()
	f.expect(f.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret123",
	}), http.StatusCreated, nil)

	var login struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		User        idBody `json:"user"`
	}
	f.expect(f.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"username_or_email": username,
		"password":          "secret123",
	}), http.StatusOK, &login)
	if login.AccessToken == "" || login.TokenType != "Bearer" {
		f.t.Fatalf("login response: %+v", login)
	}
	return session{token: login.AccessToken, userID: login.User.ID}
}

func TestAuthFlowAndProfile(t *testing.T) {
	api := newAPI(t)
	alice := api.signUp("alice")

	api.expect(api.do(http.MethodGet, "/api/users/me", "", nil), http.StatusUnauthorized, nil)
	api.expect(api.do(http.MethodGet, "/api/users/me", "not-a-token", nil), http.StatusUnauthorized, nil)

	var me struct {
		User struct {
			ID        string `json:"id"`
			Username  string `json:"username"`
			FirstName string `json:"first_name"`
			Password  string `json:"password"`
		} `json:"user"`
	}
	api.expect(api.do(http.MethodPut, "/api/users/me", alice.token, map[string]string{"first_name": "Alice"}), http.StatusOK, &me)
	if me.User.ID != alice.userID || me.User.FirstName != "Alice" || me.User.Password != "" {
		t.Fatalf("profile: %+v", me.User)
	}

	// duplicate username
	api.expect(api.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "email": "other@example.com", "password": "secret123",
	}), http.StatusConflict, nil)
	api.expect(api.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"username_or_email": "alice@example.com", "password": "wrong-password",
	}), http.StatusUnauthorized, nil)
	api.expect(api.do(http.MethodPost, "/api/auth/register", "", "not an object"), http.StatusBadRequest, nil)
}

func TestProjectTaskLifecycle(t *testing.T) {
	api := newAPI(t)
	alice := api.signUp("alice")
	bob := api.signUp("bob")

	var created struct {
		Project idBody `json:"project"`
	}
	api.expect(api.do(http.MethodPost, "/api/projects", alice.token, map[string]string{"name": "Launch"}), http.StatusCreated, &created)
	projectPath := "/api/projects/" + created.Project.ID

	api.expect(api.do(http.MethodGet, projectPath, bob.token, nil), http.StatusForbidden, nil)
	api.expect(api.do(http.MethodGet, "/api/projects/not-a-uuid", alice.token, nil), http.StatusBadRequest, nil)
	api.expect(api.do(http.MethodPost, projectPath+"/members", bob.token, map[string]string{"user_id": bob.userID}), http.StatusForbidden, nil)
	api.expect(api.do(http.MethodPost, projectPath+"/members", alice.token, map[string]string{"user_id": bob.userID}), http.StatusCreated, nil)
	api.expect(api.do(http.MethodPost, projectPath+"/members", alice.token, map[string]string{"user_id": bob.userID}), http.StatusConflict, nil)
	api.expect(api.do(http.MethodGet, projectPath, bob.token, nil), http.StatusOK, nil)

	var members struct {
		Members []idBody `json:"members"`
	}
	api.expect(api.do(http.MethodGet, projectPath+"/members", bob.token, nil), http.StatusOK, &members)
	if len(members.Members) != 2 {
		t.Fatalf("members: want=2 got=%d", len(members.Members))
	}

	due := time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")
	var task struct {
		Task struct {
			ID         string  `json:"id"`
			Status     string  `json:"status"`
			AssigneeID *string `json:"assignee_id"`
		} `json:"task"`
	}
	api.expect(api.do(http.MethodPost, projectPath+"/tasks", bob.token, map[string]any{
		"title": "Write docs", "due_date": due, "assignee_id": bob.userID,
	}), http.StatusCreated, &task)
	if task.Task.Status != "OPEN" || task.Task.AssigneeID == nil || *task.Task.AssigneeID != bob.userID {
		t.Fatalf("created task: %+v", task.Task)
	}
	taskPath := projectPath + "/tasks/" + task.Task.ID

	api.expect(api.do(http.MethodPost, projectPath+"/tasks", bob.token, map[string]any{"title": "x", "due_date": "07/01/2030"}), http.StatusBadRequest, nil)
	api.expect(api.do(http.MethodPatch, taskPath+"/status", bob.token, map[string]string{"status": "in_progress"}), http.StatusOK, &task)
	if task.Task.Status != "IN_PROGRESS" {
		t.Fatalf("status: want=IN_PROGRESS got=%s", task.Task.Status)
	}
	api.expect(api.do(http.MethodPatch, taskPath+"/status", bob.token, map[string]string{"status": "DONE"}), http.StatusBadRequest, nil)

	var page struct {
		Items      []idBody `json:"items"`
		TotalItems int64    `json:"total_items"`
	}
	api.expect(api.do(http.MethodGet, projectPath+"/tasks?status=IN_PROGRESS&search=docs", alice.token, nil), http.StatusOK, &page)
	if page.TotalItems != 1 || page.Items[0].ID != task.Task.ID {
		t.Fatalf("filtered list: %+v", page)
	}
	api.expect(api.do(http.MethodGet, projectPath+"/tasks?status=bogus", alice.token, nil), http.StatusBadRequest, nil)
	api.expect(api.do(http.MethodGet, "/api/users/me/tasks", bob.token, nil), http.StatusOK, &page)
	if page.TotalItems != 1 {
		t.Fatalf("my tasks: want=1 got=%d", page.TotalItems)
	}

	var unassigned struct {
		Task struct {
			ID         string  `json:"id"`
			AssigneeID *string `json:"assignee_id"`
		} `json:"task"`
	}
	api.expect(api.do(http.MethodPatch, taskPath+"/assignee", alice.token, map[string]any{"assignee_id": nil}), http.StatusOK, &unassigned)
	if unassigned.Task.ID != task.Task.ID || unassigned.Task.AssigneeID != nil {
		t.Fatalf("assignee should be cleared: %+v", unassigned.Task)
	}
	api.expect(api.do(http.MethodGet, projectPath+"/tasks?unassigned=true", alice.token, nil), http.StatusOK, &page)
	if page.TotalItems != 1 {
		t.Fatalf("unassigned list: want=1 got=%d", page.TotalItems)
	}

	// members edit, only the owner deletes
	api.expect(api.do(http.MethodDelete, taskPath, bob.token, nil), http.StatusForbidden, nil)

	var activity struct {
		Items []struct {
			Kind string `json:"kind"`
		} `json:"items"`
	}
	api.expect(api.do(http.MethodGet, projectPath+"/activity?size=50", alice.token, nil), http.StatusOK, &activity)
	if len(activity.Items) == 0 || activity.Items[0].Kind != "task.assigned" {
		t.Fatalf("activity newest first: %+v", activity.Items)
	}

	var removed struct {
		UnassignedTasks int64 `json:"unassigned_tasks"`
	}
	api.expect(api.do(http.MethodDelete, projectPath+"/members/"+bob.userID, alice.token, nil), http.StatusOK, &removed)
	api.expect(api.do(http.MethodGet, taskPath, bob.token, nil), http.StatusForbidden, nil)

	api.expect(api.do(http.MethodDelete, taskPath, alice.token, nil), http.StatusNoContent, nil)
	api.expect(api.do(http.MethodGet, taskPath, alice.token, nil), http.StatusNotFound, nil)
	api.expect(api.do(http.MethodDelete, projectPath, alice.token, nil), http.StatusNoContent, nil)
	api.expect(api.do(http.MethodGet, projectPath, alice.token, nil), http.StatusNotFound, nil)
}

func TestCommentsAndAttachments(t *testing.T) {
	api := newAPI(t)
	alice := api.signUp("alice")
	bob := api.signUp("bob")

	var created struct {
		Project idBody `json:"project"`
	}
	api.expect(api.do(http.MethodPost, "/api/projects", alice.token, map[string]string{"name": "Docs"}), http.StatusCreated, &created)
	projectPath := "/api/projects/" + created.Project.ID
	api.expect(api.do(http.MethodPost, projectPath+"/members", alice.token, map[string]string{"user_id": bob.userID}), http.StatusCreated, nil)
	var task struct {
		Task idBody `json:"task"`
	}
	api.expect(api.do(http.MethodPost, projectPath+"/tasks", alice.token, map[string]string{"title": "Review"}), http.StatusCreated, &task)

	var comment struct {
		Comment idBody `json:"comment"`
	}
	api.expect(api.do(http.MethodPost, "/api/tasks/"+task.Task.ID+"/comments", bob.token, map[string]string{"content": "looks good"}), http.StatusCreated, &comment)
	api.expect(api.do(http.MethodPost, "/api/tasks/"+task.Task.ID+"/comments", bob.token, map[string]string{"content": "  "}), http.StatusBadRequest, nil)
	var comments struct {
		Items []struct {
			Content string `json:"content"`
		} `json:"items"`
	}
	api.expect(api.do(http.MethodGet, "/api/tasks/"+task.Task.ID+"/comments", alice.token, nil), http.StatusOK, &comments)
	if len(comments.Items) != 1 || comments.Items[0].Content != "looks good" {
		t.Fatalf("comments: %+v", comments.Items)
	}
	// project owner moderates
	api.expect(api.do(http.MethodDelete, "/api/comments/"+comment.Comment.ID, alice.token, nil), http.StatusNoContent, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "../../notes.txt")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	_, _ = part.Write([]byte("hello attachment"))
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/tasks/"+task.Task.ID+"/attachments", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+bob.token)
	rec := httptest.NewRecorder()
	api.engine.ServeHTTP(rec, req)
	var uploaded struct {
		Attachment struct {
			ID        string `json:"id"`
			FileName  string `json:"file_name"`
			SizeBytes int64  `json:"size_bytes"`
		} `json:"attachment"`
	}
	api.expect(rec, http.StatusCreated, &uploaded)
	if uploaded.Attachment.SizeBytes != int64(len("hello attachment")) {
		t.Fatalf("size: got=%d", uploaded.Attachment.SizeBytes)
	}

	dl := api.do(http.MethodGet, "/api/attachments/"+uploaded.Attachment.ID+"/download", alice.token, nil)
	if dl.Code != http.StatusOK || dl.Body.String() != "hello attachment" {
		t.Fatalf("download: status=%d body=%q", dl.Code, dl.Body.String())
	}
	if cd := dl.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") || !strings.Contains(cd, uploaded.Attachment.FileName) {
		t.Fatalf("content disposition: %q", cd)
	}

	outsider := api.signUp("mallory")
	api.expect(api.do(http.MethodGet, "/api/attachments/"+uploaded.Attachment.ID+"/download", outsider.token, nil), http.StatusForbidden, nil)

	var list struct {
		Attachments []idBody `json:"attachments"`
	}
	api.expect(api.do(http.MethodGet, "/api/tasks/"+task.Task.ID+"/attachments", alice.token, nil), http.StatusOK, &list)
	if len(list.Attachments) != 1 {
		t.Fatalf("attachments: want=1 got=%d", len(list.Attachments))
	}
	api.expect(api.do(http.MethodDelete, "/api/attachments/"+uploaded.Attachment.ID, bob.token, nil), http.StatusNoContent, nil)
	api.expect(api.do(http.MethodGet, "/api/attachments/"+uploaded.Attachment.ID+"/download", alice.token, nil), http.StatusNotFound, nil)
}

func TestProjectEventStream(t *testing.T) {
	api := newAPI(t)
	alice := api.signUp("alice")
	var created struct {
		Project idBody `json:"project"`
	}
	api.expect(api.do(http.MethodPost, "/api/projects", alice.token, map[string]string{"name": "Live"}), http.StatusCreated, &created)
	projectPath := "/api/projects/" + created.Project.ID

	srv := httptest.NewServer(api.engine)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+projectPath+"/events?token="+alice.token, nil)
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stream status: %d", resp.StatusCode)
	}

	api.expect(api.do(http.MethodPost, projectPath+"/tasks", alice.token, map[string]string{"title": "Ship"}), http.StatusCreated, nil)

	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		if sc.Text() == fmt.Sprintf("event: %s", realtime.EventTaskCreated) {
			return
		}
	}
	t.Fatalf("stream ended without %s: %v", realtime.EventTaskCreated, sc.Err())
}

func TestHealthAndMetrics(t *testing.T) {
	api := newAPI(t)
	if rec := api.do(http.MethodGet, "/healthcheck", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthcheck: %d", rec.Code)
	}
	if rec := api.do(http.MethodGet, "/readyz", "", nil); rec.Code != http.StatusOK || rec.Body.String() != "ready" {
		t.Fatalf("readyz: %d %q", rec.Code, rec.Body.String())
	}
	rec := api.do(http.MethodGet, "/metrics", "", nil)
	if !strings.Contains(rec.Body.String(), `tm_api_requests_total{method="GET",route="/readyz",status="200"} 1`) {
		t.Fatalf("metrics exposition: %s", rec.Body.String())
	}
}
