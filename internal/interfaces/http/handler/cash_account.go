package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	ledgerapp "github.com/erp/ledger/internal/application/finance"
	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/interfaces/http/dto"
)

// CashAccountHandler handles cash account API endpoints
type CashAccountHandler struct {
	BaseHandler
	accountService *ledgerapp.CashAccountService
}

// NewCashAccountHandler creates a new CashAccountHandler
func NewCashAccountHandler(accountService *ledgerapp.CashAccountService) *CashAccountHandler {
	return &CashAccountHandler{accountService: accountService}
}

// RegisterRoutes registers cash account routes on the given group
func (h *CashAccountHandler) RegisterRoutes(rg *gin.RouterGroup) {
	accounts := rg.Group("/accounts")
	accounts.POST("", h.Create)
	accounts.GET("", h.List)
	accounts.GET("/:id", h.GetByID)
	accounts.PUT("/:id/name", h.Rename)
	accounts.PUT("/:id/overdraft-policy", h.SetOverdraftPolicy)
	accounts.POST("/:id/reconcile", h.Reconcile)
}

// CreateCashAccountRequest represents a request to create a cash account
type CreateCashAccountRequest struct {
	BranchID        *string `json:"branch_id" binding:"omitempty,uuid"`
	AccountName     string  `json:"account_name" binding:"required,min=1,max=100"`
	AccountType     string  `json:"account_type" binding:"required,oneof=CASH BANK OTHER"`
	Currency        string  `json:"currency" binding:"omitempty,currency"`
	OverdraftPolicy string  `json:"overdraft_policy" binding:"omitempty,oneof=ALLOW_OVERDRAFT NO_OVERDRAFT"`
}

// RenameAccountRequest represents a request to rename a cash account
type RenameAccountRequest struct {
	AccountName string `json:"account_name" binding:"required,min=1,max=100"`
}

// SetOverdraftPolicyRequest represents a request to change the overdraft policy
type SetOverdraftPolicyRequest struct {
	OverdraftPolicy string `json:"overdraft_policy" binding:"required,oneof=ALLOW_OVERDRAFT NO_OVERDRAFT"`
}

// ListAccountsRequest represents cash account list query parameters
type ListAccountsRequest struct {
	dto.ListRequest
	BranchID    *string `form:"branch_id" binding:"omitempty,uuid"`
	AccountType *string `form:"account_type" binding:"omitempty,oneof=CASH BANK OTHER"`
}

// Create creates a new cash account
func (h *CashAccountHandler) Create(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	var req CreateCashAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := ledgerapp.CreateCashAccountRequest{
		CompanyID:       companyID,
		AccountName:     req.AccountName,
		AccountType:     finance.AccountType(req.AccountType),
		Currency:        valueobject.Currency(req.Currency),
		OverdraftPolicy: finance.OverdraftPolicy(req.OverdraftPolicy),
		CreatedBy:       getUserID(c),
	}
	if req.BranchID != nil {
		branchID, err := uuid.Parse(*req.BranchID)
		if err != nil {
			h.BadRequest(c, "Invalid branch ID format")
			return
		}
		appReq.BranchID = &branchID
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, account)
}

// GetByID retrieves a cash account by ID
func (h *CashAccountHandler) GetByID(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	account, err := h.accountService.GetAccount(c.Request.Context(), companyID, accountID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, account)
}

// List retrieves cash accounts with filtering
func (h *CashAccountHandler) List(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	req := ListAccountsRequest{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Normalize()

	filter := finance.CashAccountFilter{}
	filter.Page = req.Page
	filter.PageSize = req.PageSize
	filter.OrderBy = req.OrderBy
	filter.OrderDir = req.OrderDir
	filter.Search = req.Search
	if req.BranchID != nil {
		branchID, err := uuid.Parse(*req.BranchID)
		if err != nil {
			h.BadRequest(c, "Invalid branch ID format")
			return
		}
		filter.BranchID = &branchID
	}
	if req.AccountType != nil {
		at := finance.AccountType(*req.AccountType)
		filter.AccountType = &at
	}

	accounts, err := h.accountService.ListAccounts(c.Request.Context(), companyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, accounts)
}

// Rename changes the display name of a cash account
func (h *CashAccountHandler) Rename(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	var req RenameAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	account, err := h.accountService.RenameAccount(c.Request.Context(), companyID, accountID, req.AccountName)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, account)
}

// Reconcile checks the account balance against its posted transactions
func (h *CashAccountHandler) Reconcile(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	report, err := h.accountService.ReconcileAccount(c.Request.Context(), companyID, accountID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{
		"clean":         report.IsClean(),
		"discrepancies": report.Discrepancies,
	})
}

// SetOverdraftPolicy changes whether the account balance may go negative
func (h *CashAccountHandler) SetOverdraftPolicy(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	var req SetOverdraftPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	account, err := h.accountService.SetOverdraftPolicy(c.Request.Context(), companyID, accountID,
		finance.OverdraftPolicy(req.OverdraftPolicy))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, account)
}
