package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	ledgerapp "github.com/erp/ledger/internal/application/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/interfaces/http/dto"
)

// ProfitHandler handles profit record API endpoints
type ProfitHandler struct {
	BaseHandler
	profitService *ledgerapp.ProfitService
}

// NewProfitHandler creates a new ProfitHandler
func NewProfitHandler(profitService *ledgerapp.ProfitService) *ProfitHandler {
	return &ProfitHandler{profitService: profitService}
}

// RegisterRoutes registers profit routes on the given group
func (h *ProfitHandler) RegisterRoutes(rg *gin.RouterGroup) {
	profits := rg.Group("/profits")
	profits.GET("", h.List)
	profits.GET("/:year/:month", h.GetByPeriod)
	profits.POST("/:year/:month/refresh", h.Refresh)
	profits.POST("/verify", h.Verify)
}

// RefreshProfitRequest represents a request to recompute a profit record
type RefreshProfitRequest struct {
	Currency string `json:"currency" binding:"omitempty,currency"`
}

// GetByPeriod retrieves the profit record for a calendar month
func (h *ProfitHandler) GetByPeriod(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	year, month, ok := parsePeriod(c)
	if !ok {
		h.BadRequest(c, "Invalid period: year and month must be numeric")
		return
	}

	summary, err := h.profitService.GetProfit(c.Request.Context(), companyID, year, month)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// List retrieves profit records, newest period first
func (h *ProfitHandler) List(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Normalize()

	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
	}

	summaries, err := h.profitService.ListProfits(c.Request.Context(), companyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summaries)
}

// Refresh recomputes the profit record for a calendar month from the
// posted transactions of that period
func (h *ProfitHandler) Refresh(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	year, month, ok := parsePeriod(c)
	if !ok {
		h.BadRequest(c, "Invalid period: year and month must be numeric")
		return
	}

	var req RefreshProfitRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	summary, err := h.profitService.RefreshProfit(c.Request.Context(), companyID, year, month,
		valueobject.Currency(req.Currency))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// Verify cross-checks debts, transactions, accounts, and profit records
// for the company and reports any discrepancies found
func (h *ProfitHandler) Verify(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	report, err := h.profitService.VerifyLedger(c.Request.Context(), companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{
		"clean":         report.IsClean(),
		"discrepancies": report.Discrepancies,
	})
}

// parsePeriod reads the year and month path parameters
func parsePeriod(c *gin.Context) (int, int, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		return 0, 0, false
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil {
		return 0, 0, false
	}
	return year, month, true
}
