package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dynhttp/internal/note"
	"dynhttp/internal/shared"
	"dynhttp/pkg/httperr"
	"dynhttp/pkg/httperr/ginhttp"
)

const defaultListLimit = 20

// NewRouter builds the HTTP API. Every handler reports failure by returning
// an error, which tr turns into exactly one response.
func NewRouter[R httperr.Renderer](tr *httperr.Translator[R], store *note.Store, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(requestID(), accessLog(log), ginhttp.Errors(tr))

	h := &noteHandlers{store: store}
	r.GET("/healthz", handle(tr, h.health))
	r.GET("/notes", handle(tr, h.list))
	r.POST("/notes", handle(tr, h.create))
	r.GET("/notes/:id", handle(tr, h.get))
	r.DELETE("/notes/:id", handle(tr, h.delete))
	return r
}

// handle classifies kind-marked errors before they reach the translator.
func handle[R httperr.Renderer](tr *httperr.Translator[R], fn ginhttp.HandlerFunc) gin.HandlerFunc {
	return ginhttp.Handle(tr, func(c *gin.Context) error {
		return shared.Classify(fn(c))
	})
}

type noteHandlers struct {
	store *note.Store
}

func (h *noteHandlers) health(c *gin.Context) error {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		return httperr.WithStatus(err, http.StatusServiceUnavailable)
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
	return nil
}

func (h *noteHandlers) list(c *gin.Context) error {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return shared.Validation("limit must be an integer")
		}
		limit = n
	}
	notes, err := h.store.List(c.Request.Context(), limit)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, notes)
	return nil
}

func (h *noteHandlers) create(c *gin.Context) error {
	var in note.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		return shared.WithCause(shared.KindValidation, "request body must be a JSON object", err)
	}
	n, err := h.store.Create(c.Request.Context(), in)
	if err != nil {
		return err
	}
	c.Header("Location", fmt.Sprintf("/notes/%d", n.ID))
	c.JSON(http.StatusCreated, n)
	return nil
}

func (h *noteHandlers) get(c *gin.Context) error {
	id, err := noteID(c)
	if err != nil {
		return err
	}
	n, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, n)
	return nil
}

func (h *noteHandlers) delete(c *gin.Context) error {
	id, err := noteID(c)
	if err != nil {
		return err
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		return err
	}
	c.Status(http.StatusNoContent)
	return nil
}

// noteID parses the :id parameter. A malformed id is an opaque error with an
// explicit 400, so its text is hidden from clients in hide mode.
func noteID(c *gin.Context) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, httperr.WithStatus(fmt.Errorf("parse note id %q: %w", raw, err), http.StatusBadRequest)
	}
	return id, nil
}
