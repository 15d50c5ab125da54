package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/taskmaster-backend/internal/domain"
	"github.com/yungbote/taskmaster-backend/internal/http/response"
	"github.com/yungbote/taskmaster-backend/internal/platform/ctxutil"
)

// actorID returns the authenticated user, or writes 401 and reports false.
func actorID(c *gin.Context) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthenticated", errors.New("not authenticated"))
		return uuid.Nil, false
	}
	return rd.UserID, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_"+toSnake(name), errors.New("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// pageFromQuery reads zero-based ?page= and ?size=. Out of range values are
// clamped by the aggregates; non-numeric values are rejected.
func pageFromQuery(c *gin.Context) (types.Page, bool) {
	var page types.Page
	for _, q := range []struct {
		key string
		dst *int
	}{{"page", &page.Number}, {"size", &page.Size}} {
		raw := strings.TrimSpace(c.Query(q.key))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New(q.key+" must be an integer"))
			return types.Page{}, false
		}
		*q.dst = n
	}
	return page, true
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
