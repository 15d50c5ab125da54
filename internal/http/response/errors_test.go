package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/taskmaster-backend/internal/domain/aggregates"
	"github.com/yungbote/taskmaster-backend/internal/platform/ctxutil"
)

func TestRespondAggregateErrorStatuses(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"validation", domainagg.NewError(domainagg.CodeValidation, "Task.Create", "title is required", nil), http.StatusBadRequest, "validation", "title is required"},
		{"unauthenticated", domainagg.NewError(domainagg.CodeUnauthenticated, "Auth.Login", "invalid username/email or password", nil), http.StatusUnauthorized, "unauthenticated", "invalid username/email or password"},
		{"forbidden", domainagg.NewError(domainagg.CodeForbidden, "Project.Update", "only the owner may update the project", nil), http.StatusForbidden, "forbidden", "only the owner may update the project"},
		{"not found", domainagg.NewError(domainagg.CodeNotFound, "Task.Get", "task not found", nil), http.StatusNotFound, "not_found", "task not found"},
		{"conflict", domainagg.NewError(domainagg.CodeConflict, "Project.AddMember", "already a member", nil), http.StatusConflict, "conflict", "already a member"},
		{"storage", domainagg.NewError(domainagg.CodeStorage, "Attachment.Store", "bucket down", errors.New("dial tcp")), http.StatusBadGateway, "storage_fault", internalMessage},
		{"retryable", domainagg.NewError(domainagg.CodeRetryable, "Task.Update", "serialization failure", nil), http.StatusServiceUnavailable, "retryable", internalMessage},
		{"untagged", errors.New("boom"), http.StatusInternalServerError, "internal", internalMessage},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			RespondAggregateError(c, tc.err)

			if rec.Code != tc.status {
				t.Fatalf("status: want=%d got=%d", tc.status, rec.Code)
			}
			var env ErrorEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Error.Code != tc.code || env.Error.Message != tc.message {
				t.Fatalf("envelope: want=%s/%q got=%s/%q", tc.code, tc.message, env.Error.Code, env.Error.Message)
			}
		})
	}
}

func TestRespondErrorQuotesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request = req.WithContext(ctxutil.WithCorrelation(req.Context(), ctxutil.Correlation{RequestID: "req-500"}))

	RespondAggregateError(c, errors.New("db connection reset"))

	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.RequestID != "req-500" || env.Error.Message != internalMessage {
		t.Fatalf("envelope: got=%+v", env.Error)
	}
}
