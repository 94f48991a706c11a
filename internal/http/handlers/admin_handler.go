// Admin HTTP handlers.
//
// This file exposes the moderation listing. Only the listing is
// admin-specific: delete and toggle already honour the admin override in the
// authorization guard, so admins moderate through the regular poll endpoints.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-poll-backend/internal/http/middleware"
	"github.com/tbourn/go-poll-backend/internal/repo"
)

// AdminListPolls godoc
// @ID          adminListPolls
// @Summary     List polls for moderation
// @Description Returns a filtered, sorted page across all polls regardless of visibility. Admin role required.
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
//
// @Param       page       query  int     false "Page number"                         minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"                      minimum(1) maximum(100) default(20)
// @Param       q          query  string  false "Question substring filter"
// @Param       status     query  string  false "Status filter"                       Enums(open, closed, draft)
// @Param       owner      query  string  false "Creator user ID filter"
// @Param       sort       query  string  false "Sort column"                         Enums(created_at, question, status) default(created_at)
// @Param       dir        query  string  false "Sort direction"                      Enums(asc, desc) default(desc)
//
// @Success     200  {object}  handlers.ListPollsResponse
// @Failure     401  {object}  handlers.ErrorResponse "Authentication required"
// @Failure     403  {object}  handlers.ErrorResponse "Admin role required"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /admin/polls [get]
func (h *Handlers) AdminListPolls(c *gin.Context) {
	principal := middleware.PrincipalFrom(c)
	if principal == nil {
		fail(c, http.StatusUnauthorized, ErrCodeAuthRequired, "authentication required")
		return
	}

	page, pageSize := clampPagination(c)
	search := repo.PollSearch{
		Query:  c.Query("q"),
		Status: c.Query("status"),
		Owner:  c.Query("owner"),
		Sort:   c.DefaultQuery("sort", "created_at"),
		Dir:    c.DefaultQuery("dir", "desc"),
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	}

	items, total, err := h.pollSvc.AdminSearch(c.Request.Context(), principal, search)
	if err != nil {
		failFromService(c, err)
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListPollsResponse{
		Polls: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}
