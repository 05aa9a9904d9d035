package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"photosheet/internal/model"
	"photosheet/internal/service"
	serviceMocks "photosheet/internal/service/mocks"
	storeMocks "photosheet/internal/staging/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// sheetForm builds a multipart body with the given label and image payloads.
func sheetForm(t *testing.T, label string, images ...[]byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if label != "" {
		require.NoError(t, writer.WriteField("label", label))
	}
	for _, img := range images {
		part, err := writer.CreateFormFile("images", "photo.png")
		require.NoError(t, err)
		_, err = part.Write(img)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func testSheet() *model.Sheet {
	return &model.Sheet{
		ID:          "sheet-1",
		Label:       "pic",
		Filename:    model.DefaultFilename,
		ContentType: model.ContentTypePDF,
		Pages:       3,
		Images:      5,
		PageRows:    []int{2, 2, 1},
		Size:        4,
		GeneratedAt: time.Now().UTC(),
	}
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		mStore := new(storeMocks.MockStore)
		mStore.On("Ping", mock.Anything).Return(nil).Once()

		app := fiber.New()
		app.Get("/health", HealthCheck(mStore))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
		mStore.AssertExpectations(t)
	})

	t.Run("unhealthy", func(t *testing.T) {
		mStore := new(storeMocks.MockStore)
		mStore.On("Ping", mock.Anything).Return(errors.New("backend down")).Once()

		app := fiber.New()
		app.Get("/health", HealthCheck(mStore))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
		mStore.AssertExpectations(t)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGenerateSheet(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockSheetService)
		app := fiber.New()
		app.Post("/sheets", GenerateSheet(mockSvc))

		mockSvc.On("Generate", mock.Anything, mock.MatchedBy(func(ups []service.Upload) bool {
			return len(ups) == 2 && ups[0].Filename == "photo.png"
		}), "pic").Return(testSheet(), []byte("%PDF"), nil).Once()

		body, ct := sheetForm(t, "pic", []byte("one"), []byte("two"))
		req := httptest.NewRequest(http.MethodPost, "/sheets", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))
		assert.Equal(t, `attachment; filename="landscape_photos.pdf"`, resp.Header.Get(fiber.HeaderContentDisposition))
		assert.Equal(t, "3", resp.Header.Get("X-Sheet-Pages"))

		data, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "%PDF", string(data))
		mockSvc.AssertExpectations(t)
	})

	t.Run("label defaults when omitted", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockSheetService)
		app := fiber.New()
		app.Post("/sheets", GenerateSheet(mockSvc))

		mockSvc.On("Generate", mock.Anything, mock.Anything, "pic").
			Return(testSheet(), []byte("%PDF"), nil).Once()

		body, ct := sheetForm(t, "", []byte("one"))
		req := httptest.NewRequest(http.MethodPost, "/sheets", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no images", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockSheetService)
		app := fiber.New()
		app.Post("/sheets", GenerateSheet(mockSvc))

		mockSvc.On("Generate", mock.Anything, mock.Anything, "pic").
			Return(nil, nil, service.ErrNoImages).Once()

		body, ct := sheetForm(t, "pic")
		req := httptest.NewRequest(http.MethodPost, "/sheets", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NO_IMAGES", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("unreadable image", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockSheetService)
		app := fiber.New()
		app.Post("/sheets", GenerateSheet(mockSvc))

		mockSvc.On("Generate", mock.Anything, mock.Anything, "pic").
			Return(nil, nil, &service.ResourceError{Filename: "photo.png", Err: errors.New("bad header")}).Once()

		body, ct := sheetForm(t, "pic", []byte("junk"))
		req := httptest.NewRequest(http.MethodPost, "/sheets", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "UNREADABLE_IMAGE", res.Error.Code)
		assert.Contains(t, res.Error.Message, "photo.png")
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockSheetService)
		app := fiber.New()
		app.Post("/sheets", GenerateSheet(mockSvc))

		mockSvc.On("Generate", mock.Anything, mock.Anything, "pic").
			Return(nil, nil, &service.RenderError{Err: errors.New("boom")}).Once()

		body, ct := sheetForm(t, "pic", []byte("one"))
		req := httptest.NewRequest(http.MethodPost, "/sheets", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INTERNAL_ERROR", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not multipart", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockSheetService)
		app := fiber.New()
		app.Post("/sheets", GenerateSheet(mockSvc))

		req := httptest.NewRequest(http.MethodPost, "/sheets", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_FORM", res.Error.Code)
	})
}

func TestPreviewSheet(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockSheetService)
		app := fiber.New()
		app.Post("/sheets/preview", PreviewSheet(mockSvc))

		mockSvc.On("Preview", mock.Anything, mock.Anything, "holiday").
			Return(testSheet(), nil).Once()

		body, ct := sheetForm(t, "holiday", []byte("one"))
		req := httptest.NewRequest(http.MethodPost, "/sheets/preview", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.Sheet
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, 3, result.Pages)
		assert.Equal(t, []int{2, 2, 1}, result.PageRows)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no images", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockSheetService)
		app := fiber.New()
		app.Post("/sheets/preview", PreviewSheet(mockSvc))

		mockSvc.On("Preview", mock.Anything, mock.Anything, "pic").
			Return(nil, service.ErrNoImages).Once()

		body, ct := sheetForm(t, "pic")
		req := httptest.NewRequest(http.MethodPost, "/sheets/preview", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NO_IMAGES", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	mStore := new(storeMocks.MockStore)
	mockSvc := new(serviceMocks.MockSheetService)
	RegisterRoutes(app, mStore, mockSvc)

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		// /sheets only allows POST
		req := httptest.NewRequest(http.MethodGet, "/sheets", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "METHOD_NOT_ALLOWED", res.Error.Code)
	})
}
