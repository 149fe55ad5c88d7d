package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	perioddomain "github.com/licensedesk/royalty/internal/period/domain"
)

func (s *Server) CheckOverlap(c *gin.Context) {
	var req perioddomain.OverlapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	conflicts, err := s.periodSvc.CheckOverlap(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"has_conflict": len(conflicts) > 0,
		"conflicts":    conflicts,
	}})
}

func (s *Server) ListPeriods(c *gin.Context) {
	resp, err := s.periodSvc.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPeriodByID(c *gin.Context) {
	resp, err := s.periodSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeletePeriod(c *gin.Context) {
	if err := s.periodSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
