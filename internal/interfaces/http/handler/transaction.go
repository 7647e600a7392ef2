package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ledgerapp "github.com/erp/ledger/internal/application/finance"
	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/interfaces/http/dto"
)

// TransactionHandler handles ledger transaction API endpoints
type TransactionHandler struct {
	BaseHandler
	transactionService *ledgerapp.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService *ledgerapp.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// RegisterRoutes registers transaction routes on the given group
func (h *TransactionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	transactions := rg.Group("/transactions")
	transactions.POST("", h.Record)
	transactions.GET("", h.List)
	transactions.GET("/:id", h.GetByID)
	transactions.POST("/:id/void", h.Void)
}

// RecordTransactionRequest represents a request to post a transaction
type RecordTransactionRequest struct {
	CashAccountID   string          `json:"cash_account_id" binding:"required,uuid"`
	TransactionType string          `json:"transaction_type" binding:"required,oneof=INCOME EXPENSE"`
	Category        string          `json:"category" binding:"required"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	Currency        string          `json:"currency" binding:"omitempty,currency"`
	TransactionDate *time.Time      `json:"transaction_date"`
	CounterpartyID  *string         `json:"counterparty_id" binding:"omitempty,uuid"`
	ContractID      *string         `json:"contract_id" binding:"omitempty,uuid"`
	Description     string          `json:"description" binding:"max=500"`
}

// VoidTransactionRequest represents a request to void a posted transaction
type VoidTransactionRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ListTransactionsRequest represents transaction list query parameters
type ListTransactionsRequest struct {
	dto.ListRequest
	CashAccountID   *string    `form:"cash_account_id" binding:"omitempty,uuid"`
	CounterpartyID  *string    `form:"counterparty_id" binding:"omitempty,uuid"`
	TransactionType *string    `form:"transaction_type" binding:"omitempty,oneof=INCOME EXPENSE"`
	Category        *string    `form:"category"`
	Status          *string    `form:"status" binding:"omitempty,oneof=POSTED VOIDED"`
	DateFrom        *time.Time `form:"date_from" time_format:"2006-01-02"`
	DateTo          *time.Time `form:"date_to" time_format:"2006-01-02"`
}

// Record posts a new transaction and applies it to the cash account
// balance atomically. Retries with the same X-Idempotency-Key are
// recorded at most once.
func (h *TransactionHandler) Record(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	var req RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	cashAccountID, err := uuid.Parse(req.CashAccountID)
	if err != nil {
		h.BadRequest(c, "Invalid cash account ID format")
		return
	}

	transactionDate := time.Now()
	if req.TransactionDate != nil {
		transactionDate = *req.TransactionDate
	}

	appReq := ledgerapp.RecordTransactionRequest{
		CompanyID:       companyID,
		CashAccountID:   cashAccountID,
		TransactionType: finance.TransactionType(req.TransactionType),
		Category:        finance.TransactionCategory(req.Category),
		Amount:          req.Amount,
		Currency:        valueobject.Currency(req.Currency),
		TransactionDate: transactionDate,
		Description:     req.Description,
		CreatedBy:       getUserID(c),
		IdempotencyKey:  getIdempotencyKey(c),
	}
	if req.CounterpartyID != nil {
		id, err := uuid.Parse(*req.CounterpartyID)
		if err != nil {
			h.BadRequest(c, "Invalid counterparty ID format")
			return
		}
		appReq.CounterpartyID = &id
	}
	if req.ContractID != nil {
		id, err := uuid.Parse(*req.ContractID)
		if err != nil {
			h.BadRequest(c, "Invalid contract ID format")
			return
		}
		appReq.ContractID = &id
	}

	result, err := h.transactionService.RecordTransaction(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.Duplicate {
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}

// GetByID retrieves a transaction by ID
func (h *TransactionHandler) GetByID(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID format")
		return
	}

	transaction, err := h.transactionService.GetTransaction(c.Request.Context(), companyID, transactionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, transaction)
}

// List retrieves transactions with filtering and pagination
func (h *TransactionHandler) List(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	req := ListTransactionsRequest{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Normalize()

	filter, err := buildTransactionFilter(req)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.transactionService.ListTransactions(c.Request.Context(), companyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Void voids a posted transaction and restores the account balance
func (h *TransactionHandler) Void(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID format")
		return
	}

	var req VoidTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.transactionService.VoidTransaction(c.Request.Context(), ledgerapp.VoidTransactionRequest{
		CompanyID:     companyID,
		TransactionID: transactionID,
		Reason:        req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// buildTransactionFilter converts list query parameters into a domain filter
func buildTransactionFilter(req ListTransactionsRequest) (finance.TransactionFilter, error) {
	filter := finance.TransactionFilter{}
	filter.Page = req.Page
	filter.PageSize = req.PageSize
	filter.OrderBy = req.OrderBy
	filter.OrderDir = req.OrderDir
	filter.Search = req.Search
	filter.DateFrom = req.DateFrom
	filter.DateTo = req.DateTo

	if req.CashAccountID != nil {
		id, err := uuid.Parse(*req.CashAccountID)
		if err != nil {
			return filter, err
		}
		filter.CashAccountID = &id
	}
	if req.CounterpartyID != nil {
		id, err := uuid.Parse(*req.CounterpartyID)
		if err != nil {
			return filter, err
		}
		filter.CounterpartyID = &id
	}
	if req.TransactionType != nil {
		tt := finance.TransactionType(*req.TransactionType)
		filter.TransactionType = &tt
	}
	if req.Category != nil {
		cat := finance.TransactionCategory(*req.Category)
		filter.Category = &cat
	}
	if req.Status != nil {
		st := finance.TransactionStatus(*req.Status)
		filter.Status = &st
	}

	return filter, nil
}
