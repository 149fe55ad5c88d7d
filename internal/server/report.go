package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	perioddomain "github.com/licensedesk/royalty/internal/period/domain"
	reportdomain "github.com/licensedesk/royalty/internal/report/domain"
)

func (s *Server) PreviewReport(c *gin.Context) {
	var req reportdomain.Upload
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.reportSvc.Preview(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SubmitReport(c *gin.Context) {
	var req reportdomain.Upload
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.reportSvc.Submit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		// Conflicts carry the blocking periods so the caller can decide
		// whether to override.
		if errors.Is(err, perioddomain.ErrOverlapConflict) && resp != nil {
			c.JSON(http.StatusConflict, gin.H{
				"error": gin.H{
					"type":      "overlap_conflict",
					"message":   "period overlaps committed periods",
					"conflicts": resp.Conflicts,
				},
			})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type submitBatchRequest struct {
	Uploads []reportdomain.Upload `json:"uploads"`
}

func (s *Server) SubmitReportBatch(c *gin.Context) {
	var req submitBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(req.Uploads) == 0 {
		AbortWithError(c, newValidationError("uploads", "invalid_request", "no uploads"))
		return
	}

	results := s.reportSvc.SubmitBatch(c.Request.Context(), c.Param("id"), req.Uploads)
	c.JSON(http.StatusOK, gin.H{"data": results})
}
