package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRouter(t *testing.T, det Detector) (*gin.Engine, *Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cam := NewFrameCamera()
	m := NewManager(cam, det, Options{PreferredWidth: 1280, PreferredHeight: 720}, zap.NewNop(), nil)
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	router := gin.New()
	NewCaptureHandler(m, cam).RegisterRoutes(router.Group(""))
	return router, m
}

func request(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if len(body) > 0 && body[0] == '{' {
		req.Header.Set("Content-Type", "application/json")
	}
	router.ServeHTTP(w, req)
	return w
}

func pngFrame(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(16, 12)))
	return buf.Bytes()
}

func TestCaptureHandlerFlow(t *testing.T) {
	router, _ := setupRouter(t, &fakeDetector{present: true})

	w := request(router, http.MethodPost, "/capture/devices", []byte(`{"id":"front","label":"Webcam","facing":"user"}`))
	require.Equal(t, http.StatusCreated, w.Code)

	w = request(router, http.MethodPost, "/capture/sessions", []byte(`{"deviceId":"front"}`))
	require.Equal(t, http.StatusCreated, w.Code)
	var status Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	id := status.ID

	w = request(router, http.MethodPost, "/capture/sessions", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	frame := pngFrame(t)
	require.Eventually(t, func() bool {
		request(router, http.MethodPost, "/capture/devices/front/frames", frame)
		w := request(router, http.MethodGet, "/capture/sessions/"+id, nil)
		var st Status
		_ = json.Unmarshal(w.Body.Bytes(), &st)
		return st.FacePresent
	}, 2*time.Second, 5*time.Millisecond)

	w = request(router, http.MethodGet, "/capture/sessions/"+id+"/preview", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))

	w = request(router, http.MethodPost, "/capture/sessions/"+id+"/capture", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = request(router, http.MethodGet, "/capture/sessions/"+id+"/still", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = request(router, http.MethodPost, "/capture/sessions/"+id+"/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var confirmed struct {
		Photo    string `json:"photo"`
		Mirrored bool   `json:"mirrored"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &confirmed))
	assert.True(t, strings.HasPrefix(confirmed.Photo, "data:image/jpeg;base64,"))
	assert.True(t, confirmed.Mirrored)

	w = request(router, http.MethodGet, "/capture/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCaptureHandlerRejections(t *testing.T) {
	router, _ := setupRouter(t, &fakeDetector{})

	w := request(router, http.MethodPost, "/capture/devices/unknown/frames", pngFrame(t))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = request(router, http.MethodPost, "/capture/devices", []byte(`{"id":"cam"}`))
	require.Equal(t, http.StatusCreated, w.Code)

	w = request(router, http.MethodPost, "/capture/devices/cam/frames", []byte("garbage"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = request(router, http.MethodPost, "/capture/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var status Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))

	w = request(router, http.MethodPost, "/capture/sessions/"+status.ID+"/confirm", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = request(router, http.MethodPost, "/capture/sessions/"+status.ID+"/device", []byte(`{"deviceId":"nope"}`))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = request(router, http.MethodDelete, "/capture/sessions/"+status.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = request(router, http.MethodGet, "/capture/devices", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"cam"`)
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusCode(ErrSessionNotFound))
	assert.Equal(t, http.StatusConflict, StatusCode(ErrCameraBusy))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusCode(ErrNoFace))
	assert.Equal(t, http.StatusServiceUnavailable, StatusCode(ErrCameraUnavailable))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(assert.AnError))
}
