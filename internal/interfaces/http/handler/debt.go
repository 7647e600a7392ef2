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

// DebtHandler handles debt-related API endpoints
type DebtHandler struct {
	BaseHandler
	debtService *ledgerapp.DebtService
}

// NewDebtHandler creates a new DebtHandler
func NewDebtHandler(debtService *ledgerapp.DebtService) *DebtHandler {
	return &DebtHandler{debtService: debtService}
}

// RegisterRoutes registers debt routes on the given group
func (h *DebtHandler) RegisterRoutes(rg *gin.RouterGroup) {
	debts := rg.Group("/debts")
	debts.POST("", h.Create)
	debts.GET("", h.List)
	debts.GET("/:id", h.GetByID)
	debts.POST("/:id/payments", h.RegisterPayment)
	debts.POST("/:id/payments/:payment_id/reverse", h.ReversePayment)
	debts.POST("/:id/cancel", h.Cancel)
	debts.POST("/sweep-overdue", h.SweepOverdue)
}

// CreateDebtRequest represents a request to create a new debt
type CreateDebtRequest struct {
	CounterpartyID string          `json:"counterparty_id" binding:"required,uuid"`
	ContractID     *string         `json:"contract_id" binding:"omitempty,uuid"`
	DebtType       string          `json:"debt_type" binding:"required,oneof=PAYABLE RECEIVABLE"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	Currency       string          `json:"currency" binding:"omitempty,currency"`
	DueDate        *time.Time      `json:"due_date"`
	Description    string          `json:"description" binding:"max=500"`
}

// RegisterPaymentRequest represents a request to pay down a debt
type RegisterPaymentRequest struct {
	CashAccountID string          `json:"cash_account_id" binding:"required,uuid"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	PaymentDate   *time.Time      `json:"payment_date"`
	Method        string          `json:"method" binding:"required,oneof=CASH BANK_TRANSFER CHECK CARD OTHER"`
	Category      string          `json:"category" binding:"omitempty"`
	Notes         string          `json:"notes" binding:"max=500"`
}

// ReversePaymentRequest represents a request to reverse a debt payment
type ReversePaymentRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// CancelDebtRequest represents a request to cancel a debt
type CancelDebtRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// SweepOverdueRequest represents a request to mark past-due debts overdue
type SweepOverdueRequest struct {
	AsOf      *time.Time `json:"as_of"`
	BatchSize int        `json:"batch_size" binding:"omitempty,min=1,max=1000"`
}

// ListDebtsRequest represents debt list query parameters
type ListDebtsRequest struct {
	dto.ListRequest
	CounterpartyID *string    `form:"counterparty_id" binding:"omitempty,uuid"`
	ContractID     *string    `form:"contract_id" binding:"omitempty,uuid"`
	DebtType       *string    `form:"debt_type" binding:"omitempty,oneof=PAYABLE RECEIVABLE"`
	Status         *string    `form:"status" binding:"omitempty,oneof=PENDING PARTIALLY_PAID PAID OVERDUE CANCELLED"`
	DueFrom        *time.Time `form:"due_from" time_format:"2006-01-02"`
	DueTo          *time.Time `form:"due_to" time_format:"2006-01-02"`
	MinRemaining   *string    `form:"min_remaining"`
	MaxRemaining   *string    `form:"max_remaining"`
}

// Create creates a new debt
func (h *DebtHandler) Create(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	var req CreateDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	counterpartyID, err := uuid.Parse(req.CounterpartyID)
	if err != nil {
		h.BadRequest(c, "Invalid counterparty ID format")
		return
	}

	appReq := ledgerapp.CreateDebtRequest{
		CompanyID:      companyID,
		CounterpartyID: counterpartyID,
		DebtType:       finance.DebtType(req.DebtType),
		Amount:         req.Amount,
		Currency:       valueobject.Currency(req.Currency),
		DueDate:        req.DueDate,
		Description:    req.Description,
		CreatedBy:      getUserID(c),
	}
	if req.ContractID != nil {
		contractID, err := uuid.Parse(*req.ContractID)
		if err != nil {
			h.BadRequest(c, "Invalid contract ID format")
			return
		}
		appReq.ContractID = &contractID
	}

	debt, err := h.debtService.CreateDebt(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, debt)
}

// GetByID retrieves a debt by ID
func (h *DebtHandler) GetByID(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	debtID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid debt ID format")
		return
	}

	debt, err := h.debtService.GetDebt(c.Request.Context(), companyID, debtID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, debt)
}

// List retrieves debts with filtering and pagination
func (h *DebtHandler) List(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	req := ListDebtsRequest{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Normalize()

	filter, err := buildDebtFilter(req)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.debtService.ListDebts(c.Request.Context(), companyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// RegisterPayment applies a payment to a debt. The payment, the ledger
// transaction, and the cash account balance change are recorded in one
// database transaction; retries with the same X-Idempotency-Key are
// recorded at most once.
func (h *DebtHandler) RegisterPayment(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	debtID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid debt ID format")
		return
	}

	var req RegisterPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	cashAccountID, err := uuid.Parse(req.CashAccountID)
	if err != nil {
		h.BadRequest(c, "Invalid cash account ID format")
		return
	}

	paymentDate := time.Now()
	if req.PaymentDate != nil {
		paymentDate = *req.PaymentDate
	}

	result, err := h.debtService.RegisterPayment(c.Request.Context(), ledgerapp.RegisterDebtPaymentRequest{
		CompanyID:      companyID,
		DebtID:         debtID,
		CashAccountID:  cashAccountID,
		Amount:         req.Amount,
		PaymentDate:    paymentDate,
		Method:         finance.PaymentMethod(req.Method),
		Category:       finance.TransactionCategory(req.Category),
		Notes:          req.Notes,
		CreatedBy:      getUserID(c),
		IdempotencyKey: getIdempotencyKey(c),
	})
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

// ReversePayment reverses a previously registered debt payment
func (h *DebtHandler) ReversePayment(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	debtID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid debt ID format")
		return
	}

	paymentID, err := uuid.Parse(c.Param("payment_id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	var req ReversePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.debtService.ReversePayment(c.Request.Context(), ledgerapp.ReverseDebtPaymentRequest{
		CompanyID: companyID,
		DebtID:    debtID,
		PaymentID: paymentID,
		Reason:    req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Cancel cancels a debt that has no applied payments
func (h *DebtHandler) Cancel(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.BadRequest(c, "Invalid company ID")
		return
	}

	debtID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid debt ID format")
		return
	}

	var req CancelDebtRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	debt, err := h.debtService.CancelDebt(c.Request.Context(), companyID, debtID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, debt)
}

// SweepOverdue marks open past-due debts as overdue. The background
// scanner runs this on an interval; the endpoint allows an immediate run.
func (h *DebtHandler) SweepOverdue(c *gin.Context) {
	var req SweepOverdueRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	asOf := time.Now()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}
	batchSize := req.BatchSize
	if batchSize == 0 {
		batchSize = 100
	}

	marked, err := h.debtService.MarkOverdueDebts(c.Request.Context(), asOf, batchSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"marked": marked})
}

// buildDebtFilter converts list query parameters into a domain filter
func buildDebtFilter(req ListDebtsRequest) (finance.DebtFilter, error) {
	filter := finance.DebtFilter{}
	filter.Page = req.Page
	filter.PageSize = req.PageSize
	filter.OrderBy = req.OrderBy
	filter.OrderDir = req.OrderDir
	filter.Search = req.Search
	filter.DueFrom = req.DueFrom
	filter.DueTo = req.DueTo

	if req.CounterpartyID != nil {
		id, err := uuid.Parse(*req.CounterpartyID)
		if err != nil {
			return filter, err
		}
		filter.CounterpartyID = &id
	}
	if req.ContractID != nil {
		id, err := uuid.Parse(*req.ContractID)
		if err != nil {
			return filter, err
		}
		filter.ContractID = &id
	}
	if req.DebtType != nil {
		dt := finance.DebtType(*req.DebtType)
		filter.DebtType = &dt
	}
	if req.Status != nil {
		st := finance.DebtStatus(*req.Status)
		filter.Status = &st
	}
	if req.MinRemaining != nil {
		d, err := decimal.NewFromString(*req.MinRemaining)
		if err != nil {
			return filter, err
		}
		filter.MinRemaining = &d
	}
	if req.MaxRemaining != nil {
		d, err := decimal.NewFromString(*req.MaxRemaining)
		if err != nil {
			return filter, err
		}
		filter.MaxRemaining = &d
	}

	return filter, nil
}
