package handler

import (
	"context"
	"net/http"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/application/tms"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// The helpers below drive the session's uniform entity operations. They take
// session method expressions such as (*tms.Session).GetTruck.

type (
	getFunc[T any]        func(*tms.Session, uuid.UUID) (*T, error)
	createFunc[In, T any] func(*tms.Session, context.Context, shared.Actor, In) (*T, *tms.Pending, error)
	updateFunc[U, T any]  func(*tms.Session, context.Context, shared.Actor, uuid.UUID, U) (*T, *tms.Pending, error)
	deleteFunc            func(*tms.Session, context.Context, shared.Actor, uuid.UUID, bool) (*tms.Pending, error)
	updateRequest[U any]  interface{ ToUpdate() U }
)

func getEntity[T, R any](h *BaseHandler, c *gin.Context, get getFunc[T], render func(*T) R) {
	s, _, ok := h.session(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	item, err := get(s, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, render(item))
}

func createEntity[In, T, R any](h *BaseHandler, c *gin.Context, create createFunc[In, T], render func(*T) R) {
	s, actor, ok := h.session(c)
	if !ok {
		return
	}
	var in In
	if !h.bindJSON(c, &in) {
		return
	}
	item, pending, err := create(s, c.Request.Context(), actor, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Mutated(c, http.StatusCreated, render(item), pending)
}

func updateEntity[Req updateRequest[U], U, T, R any](h *BaseHandler, c *gin.Context, update updateFunc[U, T], render func(*T) R) {
	s, actor, ok := h.session(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req Req
	if !h.bindJSON(c, &req) {
		return
	}
	item, pending, err := update(s, c.Request.Context(), actor, id, req.ToUpdate())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Mutated(c, http.StatusOK, render(item), pending)
}

func deleteEntity(h *BaseHandler, c *gin.Context, del deleteFunc) {
	s, actor, ok := h.session(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	pending, err := del(s, c.Request.Context(), actor, id, force(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c, pending)
}
