package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/iot-ganaderia/backend/internal/process"
	"github.com/iot-ganaderia/backend/internal/publish"
)

type fixedBaseline struct{ value float64 }

func (f fixedBaseline) Predict(_, _, _ float64) (float64, error) { return f.value, nil }

// newTestHandler wires a handler against a throwaway dashboard server.
func newTestHandler(t *testing.T, tokens publish.TokenTable) *Handler {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	loc := time.FixedZone("-05", -5*3600)
	pipeline := process.NewPipeline(loc, fixedBaseline{value: 37.0}, nil)
	publisher := publish.New(srv.URL, tokens, time.Second, nil)
	return NewHandler(pipeline, publisher, nil, "test")
}

func TestHandleUplinkFlat(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t, publish.TokenTable{Default: "tok"})

	body := bytes.NewBufferString(`{"dev_id":"collar-1","temp_body_c":39.5,"temp_amb_c":28,"VeDBA_g":2.0}`)
	req := httptest.NewRequest(http.MethodPost, "/uplink", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if assert.NoError(t, h.HandleUplink(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)

		var ack Ack
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
		assert.True(t, ack.Ok)
		assert.NotEmpty(t, ack.ID)
		if assert.NotNil(t, ack.Data) {
			assert.Equal(t, "collar-1", ack.Data.DevID)
			assert.Equal(t, "posible_celo", ack.Data.Estado)
			assert.Equal(t, "alta", ack.Data.Actividad)
			assert.Equal(t, "alerta_celo", ack.Data.EstadoGeneral)
		}
	}
}

func TestHandleUplinkTTNEnvelope(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t, publish.TokenTable{Default: "tok"})

	body := bytes.NewBufferString(`{
		"end_device_ids": {"device_id": "eui-1", "dev_eui": "70B3D57ED0009999"},
		"uplink_message": {"decoded_payload": {"To_c": 38.0, "Ta_c": 28}},
		"received_at": "2023-11-14T22:13:20Z"
	}`)
	req := httptest.NewRequest(http.MethodPost, "/ttn-data/uplink", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if assert.NoError(t, h.HandleUplink(c)) {
		var ack Ack
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
		assert.True(t, ack.Ok)
		assert.Equal(t, "70B3D57ED0009999", ack.Data.DevID)
		assert.Equal(t, "normal", ack.Data.Estado)
		assert.Contains(t, ack.Data.TimestampLocal, "17:13:20-05:00")
	}
}

func TestHandleUplinkUnreadableBody(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t, publish.TokenTable{Default: "tok"})

	req := httptest.NewRequest(http.MethodPost, "/uplink", bytes.NewBufferString("not json"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// Delivery is still acknowledged with 200 so the network server does
	// not retry forever; the failure is a payload-level flag.
	if assert.NoError(t, h.HandleUplink(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)
		var ack Ack
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
		assert.False(t, ack.Ok)
		assert.NotEmpty(t, ack.Error)
	}
}

func TestHandleUplinkNoToken(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t, publish.TokenTable{}) // no credentials at all

	body := bytes.NewBufferString(`{"dev_id":"collar-1","temp_body_c":38.5}`)
	req := httptest.NewRequest(http.MethodPost, "/uplink", body)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if assert.NoError(t, h.HandleUplink(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)
		var ack Ack
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
		assert.False(t, ack.Ok)
		assert.Contains(t, ack.Error, "no publish token")
	}
}

func TestHandleUplinkMsgpackAck(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t, publish.TokenTable{Default: "tok"})

	body := bytes.NewBufferString(`{"dev_id":"collar-1","temp_body_c":38.0,"temp_amb_c":28}`)
	req := httptest.NewRequest(http.MethodPost, "/uplink", body)
	req.Header.Set(echo.HeaderAccept, MIMEMsgpack)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if assert.NoError(t, h.HandleUplink(c)) {
		assert.Equal(t, MIMEMsgpack, rec.Header().Get(echo.HeaderContentType))

		var ack Ack
		assert.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &ack))
		assert.True(t, ack.Ok)
		assert.Equal(t, "collar-1", ack.Data.DevID)
	}
}

func TestHandleHealth(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t, publish.TokenTable{Default: "secret-token"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if assert.NoError(t, h.HandleHealth(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"service":"iot_ganaderia"`)
		// Tokens must never leak through the health endpoint.
		assert.NotContains(t, rec.Body.String(), "secret-token")
	}
}
