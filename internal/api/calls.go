package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/neurelo-connect/neurelo-connect-mcp/internal/service/journal"
)

func (s *Server) listCallsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.journalService == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "the call journal is not enabled on this server"})
			return
		}

		opts := journal.ListOptions{Tool: c.Query("tool")}
		if v := c.Query("limit"); v != "" {
			limit, err := strconv.Atoi(v)
			if err != nil || limit < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer, got '" + v + "'"})
				return
			}
			opts.Limit = limit
		}
		if v := c.Query("failed"); v != "" {
			failed, err := strconv.ParseBool(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "failed must be a boolean, got '" + v + "'"})
				return
			}
			opts.FailedOnly = failed
		}

		calls, err := s.journalService.List(c.Request.Context(), opts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, calls)
	}
}
