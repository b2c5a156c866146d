package handler

import (
	"github.com/Abdihaliim1/tmsv3-sub007/internal/application/tms"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// PartnerHandler handles broker and factoring company endpoints
type PartnerHandler struct {
	BaseHandler
}

// NewPartnerHandler creates a new PartnerHandler
func NewPartnerHandler(base BaseHandler) *PartnerHandler {
	return &PartnerHandler{BaseHandler: base}
}

// RegisterRoutes mounts the partner routes on rg
func (h *PartnerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	brokers := rg.Group("/brokers")
	brokers.GET("", h.ListBrokers)
	brokers.POST("", h.CreateBroker)
	brokers.GET("/:id", h.GetBroker)
	brokers.PATCH("/:id", h.UpdateBroker)
	brokers.DELETE("/:id", h.DeleteBroker)

	factoring := rg.Group("/factoring-companies")
	factoring.GET("", h.ListFactoringCompanies)
	factoring.POST("", h.CreateFactoringCompany)
	factoring.GET("/:id", h.GetFactoringCompany)
	factoring.PATCH("/:id", h.UpdateFactoringCompany)
	factoring.DELETE("/:id", h.DeleteFactoringCompany)
}

func (h *PartnerHandler) ListBrokers(c *gin.Context) {
	s, _, ok := h.session(c)
	if !ok {
		return
	}
	items := s.ListBrokers()
	h.SuccessList(c, dto.NewBrokerResponses(items), len(items))
}

func (h *PartnerHandler) GetBroker(c *gin.Context) {
	getEntity(&h.BaseHandler, c, (*tms.Session).GetBroker, dto.NewBrokerResponse)
}

func (h *PartnerHandler) CreateBroker(c *gin.Context) {
	createEntity(&h.BaseHandler, c, (*tms.Session).CreateBroker, dto.NewBrokerResponse)
}

func (h *PartnerHandler) UpdateBroker(c *gin.Context) {
	updateEntity[dto.UpdateBrokerRequest](&h.BaseHandler, c, (*tms.Session).UpdateBroker, dto.NewBrokerResponse)
}

func (h *PartnerHandler) DeleteBroker(c *gin.Context) {
	deleteEntity(&h.BaseHandler, c, (*tms.Session).DeleteBroker)
}

func (h *PartnerHandler) ListFactoringCompanies(c *gin.Context) {
	s, _, ok := h.session(c)
	if !ok {
		return
	}
	items := s.ListFactoringCompanies()
	h.SuccessList(c, dto.NewFactoringCompanyResponses(items), len(items))
}

func (h *PartnerHandler) GetFactoringCompany(c *gin.Context) {
	getEntity(&h.BaseHandler, c, (*tms.Session).GetFactoringCompany, dto.NewFactoringCompanyResponse)
}

func (h *PartnerHandler) CreateFactoringCompany(c *gin.Context) {
	createEntity(&h.BaseHandler, c, (*tms.Session).CreateFactoringCompany, dto.NewFactoringCompanyResponse)
}

func (h *PartnerHandler) UpdateFactoringCompany(c *gin.Context) {
	updateEntity[dto.UpdateFactoringCompanyRequest](&h.BaseHandler, c, (*tms.Session).UpdateFactoringCompany, dto.NewFactoringCompanyResponse)
}

func (h *PartnerHandler) DeleteFactoringCompany(c *gin.Context) {
	deleteEntity(&h.BaseHandler, c, (*tms.Session).DeleteFactoringCompany)
}
