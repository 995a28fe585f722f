package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang-narrative-engine/internal/api/dto"
	"golang-narrative-engine/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNarrativeService struct {
	listResponse *dto.ListNarrativesResponse
	listErr      error
	detail       *dto.NarrativeDetailResponse
	detailErr    error
	lastRequest  dto.ListNarrativesRequest
}

func (f *fakeNarrativeService) ListNarratives(ctx context.Context, req dto.ListNarrativesRequest) (*dto.ListNarrativesResponse, error) {
	f.lastRequest = req
	return f.listResponse, f.listErr
}

func (f *fakeNarrativeService) GetNarrative(ctx context.Context, id uint) (*dto.NarrativeDetailResponse, error) {
	return f.detail, f.detailErr
}

func newTestServer(t *testing.T, svc *fakeNarrativeService) *echo.Echo {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)

	e := echo.New()
	handler := NewNarrativeHandler(svc, log)
	handler.RegisterRoutes(e.Group("/api/v1/narratives"))
	return e
}

func TestListNarratives_OK(t *testing.T) {
	svc := &fakeNarrativeService{
		listResponse: &dto.ListNarrativesResponse{
			Narratives: []dto.NarrativeResponse{{ID: 1, Title: "$TSLA Market Movement", Sentiment: "bearish"}},
			Page:       1,
			Limit:      20,
			Total:      1,
		},
	}
	e := newTestServer(t, svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/narratives?sentiment=bearish&sort_by=velocity", nil)
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body dto.ListNarrativesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Narratives, 1)
	assert.Equal(t, "$TSLA Market Movement", body.Narratives[0].Title)

	assert.Equal(t, "bearish", svc.lastRequest.Sentiment)
	assert.Equal(t, dto.SortByVelocity, svc.lastRequest.SortBy)
}

func TestListNarratives_InvalidSentiment(t *testing.T) {
	e := newTestServer(t, &fakeNarrativeService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/narratives?sentiment=angry", nil)
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListNarratives_InvalidSort(t *testing.T) {
	e := newTestServer(t, &fakeNarrativeService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/narratives?sort_by=alphabetical", nil)
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListNarratives_ServiceError(t *testing.T) {
	e := newTestServer(t, &fakeNarrativeService{listErr: errors.New("db down")})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/narratives", nil)
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetNarrative_OK(t *testing.T) {
	svc := &fakeNarrativeService{
		detail: &dto.NarrativeDetailResponse{
			NarrativeResponse: dto.NarrativeResponse{ID: 7, Title: "Jerome Powell Developments"},
			Items:             []dto.ContentItemResponse{{ID: 1, Title: "Powell speaks"}},
		},
	}
	e := newTestServer(t, svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/narratives/7", nil)
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body dto.NarrativeDetailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, uint(7), body.ID)
	assert.Len(t, body.Items, 1)
}

func TestGetNarrative_NotFound(t *testing.T) {
	e := newTestServer(t, &fakeNarrativeService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/narratives/99", nil)
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetNarrative_InvalidID(t *testing.T) {
	e := newTestServer(t, &fakeNarrativeService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/narratives/abc", nil)
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
