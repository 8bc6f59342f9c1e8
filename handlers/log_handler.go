package handlers

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"math-log-server/middleware"
	"math-log-server/services"
)

type LogHandler struct {
	logger *services.OperationLogger
	export *services.ExportService
}

func NewLogHandler(logger *services.OperationLogger, export *services.ExportService) *LogHandler {
	return &LogHandler{logger: logger, export: export}
}

// ListLogs godoc
// @Summary List request logs
// @Description Returns every logged operation, newest first
// @Tags logs
// @Produce json
// @Param operation query string false "Exact operation name (pow, fibonacci, factorial)"
// @Success 200 {object} models.Envelope{data=[]models.OperationLog}
// @Failure 500 {object} models.ErrorResponse
// @Router /api/logs [get]
func (h *LogHandler) ListLogs(c *fiber.Ctx) error {
	logs, err := h.logger.ListLogs(middleware.GetXRayContext(c), c.Query("operation"))
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, err.Error())
	}
	return respond(c, logs)
}

// ExportLogs godoc
// @Summary Export a log snapshot
// @Description Writes the current request log to snapshot storage
// @Tags logs
// @Produce json
// @Param operation query string false "Exact operation name to export"
// @Success 200 {object} models.Envelope{data=models.SnapshotInfo}
// @Failure 500 {object} models.ErrorResponse
// @Router /api/logs/export [post]
func (h *LogHandler) ExportLogs(c *fiber.Ctx) error {
	info, err := h.export.Export(middleware.GetXRayContext(c), c.Query("operation"))
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, err.Error())
	}
	return respond(c, info)
}

// GetExport godoc
// @Summary Fetch a log snapshot
// @Tags logs
// @Produce json
// @Param key path string true "Snapshot key returned by the export"
// @Success 200 {object} models.Envelope{data=models.LogSnapshot}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/logs/export/{key} [get]
func (h *LogHandler) GetExport(c *fiber.Ctx) error {
	// clients may send the key with its slashes escaped
	key, err := url.PathUnescape(c.Params("*"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "invalid snapshot key")
	}

	snapshot, err := h.export.Get(middleware.GetXRayContext(c), key)
	if errors.Is(err, services.ErrSnapshotNotFound) {
		return errorResponse(c, fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, err.Error())
	}
	return respond(c, snapshot)
}
