package api

import (
	"context"
	"net/http"

	"TWPull/internal/domain/models"
	drepo "TWPull/internal/domain/repository"
	"TWPull/internal/usecase"
	xhttp "TWPull/pkg/http"
	xlogger "TWPull/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Enqueuer submits async collection jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, msgType string, payload interface{}) error
}

// InstrumentsEchoHandler exposes the collected instrument data over HTTP.
type InstrumentsEchoHandler struct {
	logger    *xlogger.Logger
	collector *usecase.InstrumentCollector
	store     drepo.InstrumentStore
	history   drepo.HistoryStore
	jobs      Enqueuer
}

func NewInstrumentsEchoHandler(
	logger *xlogger.Logger,
	collector *usecase.InstrumentCollector,
	store drepo.InstrumentStore,
	history drepo.HistoryStore,
	jobs Enqueuer,
) *InstrumentsEchoHandler {
	return &InstrumentsEchoHandler{
		logger:    logger,
		collector: collector,
		store:     store,
		history:   history,
		jobs:      jobs,
	}
}

func (h *InstrumentsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)

	g := e.Group("/api")
	g.GET("/indices", h.Indices)
	g.GET("/instruments/:index", h.Instruments)
	g.GET("/changes/:index", h.Changes)
	g.POST("/collect/:index", h.Collect)
}

// Healthz reports liveness plus the state of the optional history store.
func (h *InstrumentsEchoHandler) Healthz(c echo.Context) error {
	status := map[string]string{"status": "ok"}
	if h.history != nil {
		if err := h.history.Health(c.Request().Context()); err != nil {
			h.logger.Warn("history store unhealthy", xlogger.Error(err))
			status["status"] = "degraded"
			status["history"] = err.Error()
			return c.JSON(http.StatusServiceUnavailable, status)
		}
		status["history"] = "ok"
	}
	return xhttp.SuccessResponse(c, status)
}

func (h *InstrumentsEchoHandler) Indices(c echo.Context) error {
	return xhttp.SuccessResponse(c, models.Indices())
}

func (h *InstrumentsEchoHandler) Instruments(c echo.Context) error {
	req := &models.InstrumentsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	index, err := models.ParseIndex(req.Index)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	if !h.store.Exists(index) {
		return xhttp.NotFoundResponse(c, "index not collected yet")
	}
	instruments, err := h.store.Read(c.Request().Context(), index)
	if err != nil {
		h.logger.Error("instruments read error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, instruments, int64(len(instruments)))
}

func (h *InstrumentsEchoHandler) Changes(c echo.Context) error {
	req := &models.ChangesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	index, err := models.ParseIndex(req.Index)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	if h.history == nil {
		return xhttp.NotFoundResponse(c, "history store not configured")
	}
	changes, err := h.history.QueryChanges(c.Request().Context(), index, req.Limit)
	if err != nil {
		h.logger.Error("changes query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, changes, int64(len(changes)))
}

// Collect enqueues an async collection job when a queue is configured, and
// falls back to synchronous collection otherwise.
func (h *InstrumentsEchoHandler) Collect(c echo.Context) error {
	req := &models.CollectRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	index, err := models.ParseIndex(req.Index)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	if h.jobs != nil {
		payload := usecase.CollectJobPayload{Index: string(index)}
		if err := h.jobs.Enqueue(c.Request().Context(), usecase.CollectJobType, payload); err != nil {
			h.logger.Error("collect enqueue error", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
		return xhttp.CreatedResponse(c, map[string]string{"status": "queued", "index": string(index)})
	}

	res, err := h.collector.Collect(c.Request().Context(), index)
	if err != nil {
		h.logger.Error("collect error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}
