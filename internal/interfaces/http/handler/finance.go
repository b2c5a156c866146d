package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/application/tms"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/finance"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/logger"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InvoiceArchive serves links to archived invoice documents
type InvoiceArchive interface {
	Exists(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (bool, error)
	DownloadURL(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (string, time.Time, error)
}

// FinanceHandler handles invoice, settlement and expense endpoints
type FinanceHandler struct {
	BaseHandler
	archive InvoiceArchive
}

// NewFinanceHandler creates a new FinanceHandler. archive may be nil.
func NewFinanceHandler(base BaseHandler, archive InvoiceArchive) *FinanceHandler {
	return &FinanceHandler{BaseHandler: base, archive: archive}
}

// RegisterRoutes mounts the finance routes on rg
func (h *FinanceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	invoices.GET("", h.ListInvoices)
	invoices.POST("", h.CreateInvoice)
	invoices.GET("/due", h.DueInvoices)
	invoices.GET("/:id", h.GetInvoice)
	invoices.PATCH("/:id", h.UpdateInvoice)
	invoices.DELETE("/:id", h.DeleteInvoice)
	invoices.GET("/:id/archive", h.InvoiceArchiveLink)

	settlements := rg.Group("/settlements")
	settlements.GET("", h.ListSettlements)
	settlements.POST("", h.CreateSettlement)
	settlements.GET("/:id", h.GetSettlement)
	settlements.PATCH("/:id", h.UpdateSettlement)
	settlements.DELETE("/:id", h.DeleteSettlement)

	expenses := rg.Group("/expenses")
	expenses.GET("", h.ListExpenses)
	expenses.POST("", h.CreateExpense)
	expenses.GET("/:id", h.GetExpense)
	expenses.PATCH("/:id", h.UpdateExpense)
	expenses.DELETE("/:id", h.DeleteExpense)
}

// ListInvoices lists invoices filtered by ?status= and ?load_id=
func (h *FinanceHandler) ListInvoices(c *gin.Context) {
	s, _, ok := h.session(c)
	if !ok {
		return
	}
	var q dto.InvoiceListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	loadID, ok := h.optionalUUID(c, "load_id", q.LoadID)
	if !ok {
		return
	}
	status := finance.InvoiceStatus(q.Status)
	if status != "" && !status.IsValid() {
		h.BadRequest(c, "Unknown invoice status: "+q.Status)
		return
	}
	items := s.ListInvoices(tms.InvoiceFilter{Status: status, LoadID: loadID})
	h.SuccessList(c, dto.NewInvoiceResponses(items), len(items))
}

// DueInvoices lists open invoices due within ?days= (default 7)
func (h *FinanceHandler) DueInvoices(c *gin.Context) {
	s, _, ok := h.session(c)
	if !ok {
		return
	}
	var q struct {
		Days int `form:"days" binding:"omitempty,min=1,max=365"`
	}
	if !h.bindQuery(c, &q) {
		return
	}
	if q.Days == 0 {
		q.Days = 7
	}
	items := s.DueWithin(time.Duration(q.Days) * 24 * time.Hour)
	h.SuccessList(c, dto.NewInvoiceResponses(items), len(items))
}

func (h *FinanceHandler) GetInvoice(c *gin.Context) {
	getEntity(&h.BaseHandler, c, (*tms.Session).GetInvoice, dto.NewInvoiceResponse)
}

// CreateInvoice bills one or more delivered loads
func (h *FinanceHandler) CreateInvoice(c *gin.Context) {
	createEntity(&h.BaseHandler, c, (*tms.Session).CreateInvoice, dto.NewInvoiceResponse)
}

func (h *FinanceHandler) UpdateInvoice(c *gin.Context) {
	updateEntity[dto.UpdateInvoiceRequest](&h.BaseHandler, c, (*tms.Session).UpdateInvoice, dto.NewInvoiceResponse)
}

func (h *FinanceHandler) DeleteInvoice(c *gin.Context) {
	deleteEntity(&h.BaseHandler, c, (*tms.Session).DeleteInvoice)
}

// InvoiceArchiveLink returns a short-lived download link for the archived
// invoice document
func (h *FinanceHandler) InvoiceArchiveLink(c *gin.Context) {
	s, _, ok := h.session(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	inv, err := s.GetInvoice(id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if h.archive == nil {
		h.HandleError(c, shared.NewPreconditionFailedError("Invoice archiving is not configured"))
		return
	}

	ctx := c.Request.Context()
	exists, err := h.archive.Exists(ctx, s.TenantID(), inv.InvoiceNumber)
	if err != nil {
		h.archiveUnavailable(c, err)
		return
	}
	if !exists {
		h.HandleError(c, shared.NewDomainError(shared.CodeNotFound,
			"Invoice "+inv.InvoiceNumber+" has not been archived yet"))
		return
	}
	url, expiresAt, err := h.archive.DownloadURL(ctx, s.TenantID(), inv.InvoiceNumber)
	if err != nil {
		h.archiveUnavailable(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ArchiveLinkResponse{URL: url, ExpiresAt: expiresAt}))
}

func (h *FinanceHandler) archiveUnavailable(c *gin.Context, err error) {
	logger.FromContext(c.Request.Context()).Warn("Invoice archive unavailable", zap.Error(err))
	h.HandleError(c, shared.NewDomainError(shared.CodeIOFailure, "The invoice archive is unavailable. Please try again."))
}

// ListSettlements lists settlements, optionally for one ?driver_id=
func (h *FinanceHandler) ListSettlements(c *gin.Context) {
	s, _, ok := h.session(c)
	if !ok {
		return
	}
	driverID, ok := h.optionalUUID(c, "driver_id", c.Query("driver_id"))
	if !ok {
		return
	}
	items := s.ListSettlements(driverID)
	h.SuccessList(c, dto.NewSettlementResponses(items), len(items))
}

func (h *FinanceHandler) GetSettlement(c *gin.Context) {
	getEntity(&h.BaseHandler, c, (*tms.Session).GetSettlement, dto.NewSettlementResponse)
}

// CreateSettlement pays a driver for delivered loads
func (h *FinanceHandler) CreateSettlement(c *gin.Context) {
	createEntity(&h.BaseHandler, c, (*tms.Session).CreateSettlement, dto.NewSettlementResponse)
}

func (h *FinanceHandler) UpdateSettlement(c *gin.Context) {
	updateEntity[dto.UpdateSettlementRequest](&h.BaseHandler, c, (*tms.Session).UpdateSettlement, dto.NewSettlementResponse)
}

func (h *FinanceHandler) DeleteSettlement(c *gin.Context) {
	deleteEntity(&h.BaseHandler, c, (*tms.Session).DeleteSettlement)
}

// ListExpenses lists expenses, optionally for one ?load_id=
func (h *FinanceHandler) ListExpenses(c *gin.Context) {
	s, _, ok := h.session(c)
	if !ok {
		return
	}
	loadID, ok := h.optionalUUID(c, "load_id", c.Query("load_id"))
	if !ok {
		return
	}
	items := s.ListExpenses(loadID)
	h.SuccessList(c, dto.NewExpenseResponses(items), len(items))
}

func (h *FinanceHandler) GetExpense(c *gin.Context) {
	getEntity(&h.BaseHandler, c, (*tms.Session).GetExpense, dto.NewExpenseResponse)
}

func (h *FinanceHandler) CreateExpense(c *gin.Context) {
	createEntity(&h.BaseHandler, c, (*tms.Session).CreateExpense, dto.NewExpenseResponse)
}

func (h *FinanceHandler) UpdateExpense(c *gin.Context) {
	updateEntity[dto.UpdateExpenseRequest](&h.BaseHandler, c, (*tms.Session).UpdateExpense, dto.NewExpenseResponse)
}

// DeleteExpense removes an expense. Expenses have no dependents, so force is ignored.
func (h *FinanceHandler) DeleteExpense(c *gin.Context) {
	deleteEntity(&h.BaseHandler, c, func(s *tms.Session, ctx context.Context, actor shared.Actor, id uuid.UUID, _ bool) (*tms.Pending, error) {
		return s.DeleteExpense(ctx, actor, id)
	})
}
