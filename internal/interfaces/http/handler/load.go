package handler

import (
	"net/http"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/application/tms"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/freight"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// LoadHandler handles load endpoints
type LoadHandler struct {
	BaseHandler
}

// NewLoadHandler creates a new LoadHandler
func NewLoadHandler(base BaseHandler) *LoadHandler {
	return &LoadHandler{BaseHandler: base}
}

// RegisterRoutes mounts the load routes on rg
func (h *LoadHandler) RegisterRoutes(rg *gin.RouterGroup) {
	loads := rg.Group("/loads")
	loads.GET("", h.List)
	loads.POST("", h.Create)
	loads.GET("/:id", h.Get)
	loads.PATCH("/:id", h.Update)
	loads.DELETE("/:id", h.Delete)
	loads.GET("/:id/adjustments", h.Adjustments)
}

// List godoc
//
//	@Summary	List loads
//	@Param		status		query	string	false	"Load status"
//	@Param		driver_id	query	string	false	"Driver ID"
//	@Param		customer	query	string	false	"Customer name, case-insensitive"
//	@Param		locked		query	bool	false	"Only locked or unlocked loads"
//	@Router		/loads [get]
func (h *LoadHandler) List(c *gin.Context) {
	s, _, ok := h.session(c)
	if !ok {
		return
	}
	var q dto.LoadListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	driverID, ok := h.optionalUUID(c, "driver_id", q.DriverID)
	if !ok {
		return
	}
	status := freight.LoadStatus(q.Status)
	if status != "" && !status.IsValid() {
		h.BadRequest(c, "Unknown load status: "+q.Status)
		return
	}

	loads := s.ListLoads(tms.LoadFilter{
		Status:   status,
		DriverID: driverID,
		Customer: q.Customer,
		Locked:   q.Locked,
	})
	h.SuccessList(c, dto.NewLoadResponses(loads), len(loads))
}

// Get godoc
//
//	@Summary	Get a load by id
//	@Router		/loads/{id} [get]
func (h *LoadHandler) Get(c *gin.Context) {
	s, _, ok := h.session(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	load, err := s.GetLoad(id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewLoadResponse(load))
}

// Create godoc
//
//	@Summary		Create a load
//	@Description	An empty load number is generated from the tenant sequence.
//	@Router			/loads [post]
func (h *LoadHandler) Create(c *gin.Context) {
	s, actor, ok := h.session(c)
	if !ok {
		return
	}
	var req dto.CreateLoadRequest
	if !h.bindJSON(c, &req) {
		return
	}

	load, pending, err := s.AddLoad(c.Request.Context(), actor, tms.CreateLoadInput{
		LoadNumber: req.LoadNumber,
		Fields:     req.ToUpdate(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Mutated(c, http.StatusCreated, dto.NewLoadResponse(load), pending)
}

// Update godoc
//
//	@Summary		Update a load
//	@Description	Changing a locked load requires a reason and records an adjustment.
//	@Router			/loads/{id} [patch]
func (h *LoadHandler) Update(c *gin.Context) {
	s, actor, ok := h.session(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateLoadRequest
	if !h.bindJSON(c, &req) {
		return
	}

	load, pending, err := s.UpdateLoad(c.Request.Context(), actor, id, tms.UpdateLoadInput{
		Fields: req.ToUpdate(),
		Reason: req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Mutated(c, http.StatusOK, dto.NewLoadResponse(load), pending)
}

// Delete removes a load. ?force=true detaches it from invoices and settlements.
func (h *LoadHandler) Delete(c *gin.Context) {
	s, actor, ok := h.session(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	pending, err := s.DeleteLoad(c.Request.Context(), actor, id, force(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c, pending)
}

// Adjustments returns the post-lock change history of a load
func (h *LoadHandler) Adjustments(c *gin.Context) {
	s, _, ok := h.session(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	entries, err := s.LoadAdjustments(id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, entries, len(entries))
}
