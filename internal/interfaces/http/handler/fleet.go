package handler

import (
	"strconv"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/application/tms"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// FleetHandler handles employee, truck and trailer endpoints
type FleetHandler struct {
	BaseHandler
}

// NewFleetHandler creates a new FleetHandler
func NewFleetHandler(base BaseHandler) *FleetHandler {
	return &FleetHandler{BaseHandler: base}
}

// RegisterRoutes mounts the fleet routes on rg
func (h *FleetHandler) RegisterRoutes(rg *gin.RouterGroup) {
	employees := rg.Group("/employees")
	employees.GET("", h.ListEmployees)
	employees.POST("", h.CreateEmployee)
	employees.GET("/:id", h.GetEmployee)
	employees.PATCH("/:id", h.UpdateEmployee)
	employees.DELETE("/:id", h.DeleteEmployee)

	trucks := rg.Group("/trucks")
	trucks.GET("", h.ListTrucks)
	trucks.POST("", h.CreateTruck)
	trucks.GET("/:id", h.GetTruck)
	trucks.PATCH("/:id", h.UpdateTruck)
	trucks.DELETE("/:id", h.DeleteTruck)

	trailers := rg.Group("/trailers")
	trailers.GET("", h.ListTrailers)
	trailers.POST("", h.CreateTrailer)
	trailers.GET("/:id", h.GetTrailer)
	trailers.PATCH("/:id", h.UpdateTrailer)
	trailers.DELETE("/:id", h.DeleteTrailer)
}

// ListEmployees lists employees; ?drivers=true keeps drivers only
func (h *FleetHandler) ListEmployees(c *gin.Context) {
	s, _, ok := h.session(c)
	if !ok {
		return
	}
	driversOnly, _ := strconv.ParseBool(c.Query("drivers"))
	items := s.ListEmployees(driversOnly)
	h.SuccessList(c, dto.NewEmployeeResponses(items), len(items))
}

// GetEmployee returns one employee
func (h *FleetHandler) GetEmployee(c *gin.Context) {
	getEntity(&h.BaseHandler, c, (*tms.Session).GetEmployee, dto.NewEmployeeResponse)
}

// CreateEmployee adds a driver or dispatcher
func (h *FleetHandler) CreateEmployee(c *gin.Context) {
	createEntity(&h.BaseHandler, c, (*tms.Session).CreateEmployee, dto.NewEmployeeResponse)
}

// UpdateEmployee edits an employee. Pay changes carry into draft settlements.
func (h *FleetHandler) UpdateEmployee(c *gin.Context) {
	updateEntity[dto.UpdateEmployeeRequest](&h.BaseHandler, c, (*tms.Session).UpdateEmployee, dto.NewEmployeeResponse)
}

// DeleteEmployee removes an employee
func (h *FleetHandler) DeleteEmployee(c *gin.Context) {
	deleteEntity(&h.BaseHandler, c, (*tms.Session).DeleteEmployee)
}

// ListTrucks lists trucks
func (h *FleetHandler) ListTrucks(c *gin.Context) {
	s, _, ok := h.session(c)
	if !ok {
		return
	}
	items := s.ListTrucks()
	h.SuccessList(c, dto.NewTruckResponses(items), len(items))
}

// GetTruck returns one truck
func (h *FleetHandler) GetTruck(c *gin.Context) {
	getEntity(&h.BaseHandler, c, (*tms.Session).GetTruck, dto.NewTruckResponse)
}

// CreateTruck adds a truck
func (h *FleetHandler) CreateTruck(c *gin.Context) {
	createEntity(&h.BaseHandler, c, (*tms.Session).CreateTruck, dto.NewTruckResponse)
}

// UpdateTruck edits a truck
func (h *FleetHandler) UpdateTruck(c *gin.Context) {
	updateEntity[dto.UpdateTruckRequest](&h.BaseHandler, c, (*tms.Session).UpdateTruck, dto.NewTruckResponse)
}

// DeleteTruck removes a truck
func (h *FleetHandler) DeleteTruck(c *gin.Context) {
	deleteEntity(&h.BaseHandler, c, (*tms.Session).DeleteTruck)
}

// ListTrailers lists trailers
func (h *FleetHandler) ListTrailers(c *gin.Context) {
	s, _, ok := h.session(c)
	if !ok {
		return
	}
	items := s.ListTrailers()
	h.SuccessList(c, dto.NewTrailerResponses(items), len(items))
}

// GetTrailer returns one trailer
func (h *FleetHandler) GetTrailer(c *gin.Context) {
	getEntity(&h.BaseHandler, c, (*tms.Session).GetTrailer, dto.NewTrailerResponse)
}

// CreateTrailer adds a trailer
func (h *FleetHandler) CreateTrailer(c *gin.Context) {
	createEntity(&h.BaseHandler, c, (*tms.Session).CreateTrailer, dto.NewTrailerResponse)
}

// UpdateTrailer edits a trailer
func (h *FleetHandler) UpdateTrailer(c *gin.Context) {
	updateEntity[dto.UpdateTrailerRequest](&h.BaseHandler, c, (*tms.Session).UpdateTrailer, dto.NewTrailerResponse)
}

// DeleteTrailer removes a trailer
func (h *FleetHandler) DeleteTrailer(c *gin.Context) {
	deleteEntity(&h.BaseHandler, c, (*tms.Session).DeleteTrailer)
}
