package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	mappingdomain "github.com/licensedesk/royalty/internal/mapping/domain"
)

func (s *Server) ResolveMapping(c *gin.Context) {
	var req mappingdomain.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.mappingSvc.Resolve(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSavedMapping(c *gin.Context) {
	resp, err := s.mappingSvc.SavedMapping(c.Request.Context(), c.Param("id"), c.Query("licensee_format"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SaveMapping(c *gin.Context) {
	var req mappingdomain.SaveMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.mappingSvc.SaveMapping(c.Request.Context(), c.Param("id"), req); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

func (s *Server) GetSavedAliases(c *gin.Context) {
	resp, err := s.mappingSvc.SavedAliases(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SaveAliases(c *gin.Context) {
	var req mappingdomain.SaveAliasesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.mappingSvc.SaveAliases(c.Request.Context(), c.Param("id"), req); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}
