package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	contractdomain "github.com/licensedesk/royalty/internal/contract/domain"
)

type createContractRequest struct {
	Name         string `json:"name"`
	LicenseeName string `json:"licensee_name"`

	RateType      contractdomain.RateType              `json:"rate_type"`
	FlatRate      string                               `json:"flat_rate"`
	Tiers         []contractdomain.TierRequest         `json:"tiers"`
	CategoryRates []contractdomain.CategoryRateRequest `json:"category_rates"`

	RoyaltyBase           string `json:"royalty_base"`
	MinimumGuarantee      string `json:"minimum_guarantee"`
	MinimumGuaranteeScope string `json:"minimum_guarantee_scope"`
	AdvancePayment        string `json:"advance_payment"`

	ReportingFrequency contractdomain.Frequency `json:"reporting_frequency"`
	StartDate          time.Time                `json:"start_date"`
	EndDate            time.Time                `json:"end_date"`
}

func (s *Server) CreateContract(c *gin.Context) {
	var req createContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.contractSvc.Create(c.Request.Context(), contractdomain.CreateRequest{
		Name:                  strings.TrimSpace(req.Name),
		LicenseeName:          strings.TrimSpace(req.LicenseeName),
		RateType:              req.RateType,
		FlatRate:              req.FlatRate,
		Tiers:                 req.Tiers,
		CategoryRates:         req.CategoryRates,
		RoyaltyBase:           req.RoyaltyBase,
		MinimumGuarantee:      req.MinimumGuarantee,
		MinimumGuaranteeScope: req.MinimumGuaranteeScope,
		AdvancePayment:        req.AdvancePayment,
		ReportingFrequency:    req.ReportingFrequency,
		StartDate:             req.StartDate,
		EndDate:               req.EndDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListContracts(c *gin.Context) {
	resp, err := s.contractSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetContractByID(c *gin.Context) {
	resp, err := s.contractSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateContract(c *gin.Context) {
	var req contractdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.contractSvc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
