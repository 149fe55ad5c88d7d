package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	ytddomain "github.com/licensedesk/royalty/internal/ytd/domain"
)

func (s *Server) GetYearSummary(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		AbortWithError(c, ytddomain.ErrInvalidYear)
		return
	}

	resp, err := s.ytdSvc.Summary(c.Request.Context(), c.Param("id"), year)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
