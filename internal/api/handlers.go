// handlers.go - Uplink ingestion handlers
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/iot-ganaderia/backend/internal/models"
	"github.com/iot-ganaderia/backend/internal/process"
	"github.com/iot-ganaderia/backend/internal/publish"
)

// MIMEMsgpack selects the msgpack acknowledgement encoding.
const MIMEMsgpack = "application/x-msgpack"

// Handler handles API requests.
type Handler struct {
	pipeline  *process.Pipeline
	publisher *publish.Publisher
	logger    *slog.Logger
	version   string
}

// NewHandler creates a new API handler.
func NewHandler(pipeline *process.Pipeline, publisher *publish.Publisher, logger *slog.Logger, version string) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		pipeline:  pipeline,
		publisher: publisher,
		logger:    logger,
		version:   version,
	}
}

// Ack is the acknowledgement returned for every uplink. The endpoint answers
// HTTP 200 for all structurally-deliverable input so the network server does
// not endlessly retry; genuine failures are reported in the Ok/Error fields
// (acknowledge-then-diagnose).
type Ack struct {
	Ok    bool           `json:"ok" msgpack:"ok"`
	ID    string         `json:"id,omitempty" msgpack:"id,omitempty"`
	Data  *models.Record `json:"data,omitempty" msgpack:"data,omitempty"`
	Error string         `json:"error,omitempty" msgpack:"error,omitempty"`
}

// HandleUplink ingests one uplink: normalize, run the engines, acknowledge,
// and hand the record to the detached publisher.
func (h *Handler) HandleUplink(c echo.Context) error {
	id := uuid.NewString()

	var body map[string]any
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil || body == nil {
		h.logger.Warn("unreadable uplink body", "id", id, "error", err)
		return h.respond(c, Ack{Ok: false, ID: id, Error: "unreadable JSON body"})
	}

	rec := h.pipeline.Handle(body)

	token, err := h.publisher.TokenFor(rec.DevID)
	if err != nil {
		// No publish credentials: reject at the payload level instead of
		// silently dropping the telemetry.
		h.logger.Warn("uplink rejected", "id", id, "dev_id", rec.DevID, "error", err)
		return h.respond(c, Ack{Ok: false, ID: id, Error: err.Error()})
	}

	h.logger.Info("uplink processed",
		"id", id,
		"dev_id", rec.DevID,
		"estado", rec.Estado,
		"actividad", rec.Actividad,
		"estado_general", rec.EstadoGeneral,
	)

	h.publisher.PublishAsync(token, rec)
	return h.respond(c, Ack{Ok: true, ID: id, Data: &rec})
}

// respond encodes the acknowledgement as JSON, or msgpack when the client
// asked for it.
func (h *Handler) respond(c echo.Context, ack Ack) error {
	if c.Request().Header.Get(echo.HeaderAccept) == MIMEMsgpack {
		data, err := msgpack.Marshal(ack)
		if err != nil {
			return NewInternalError("failed to encode acknowledgement", err)
		}
		return c.Blob(http.StatusOK, MIMEMsgpack, data)
	}
	return c.JSON(http.StatusOK, ack)
}
