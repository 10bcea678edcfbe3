package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"model-trainer-service/internal/adapters/primary/http/dto"
	"model-trainer-service/internal/adapters/primary/http/middleware"
	"model-trainer-service/internal/adapters/secondary/localfs"
	"model-trainer-service/internal/adapters/secondary/memory"
	"model-trainer-service/internal/adapters/secondary/registryfile"
	"model-trainer-service/internal/adapters/secondary/trainer"
	"model-trainer-service/internal/core/domain"
	ports "model-trainer-service/internal/core/ports/output"
	"model-trainer-service/internal/core/services"
	"model-trainer-service/internal/testutil"
)

// setupEngine wires the full stack against real adapters: in-memory index,
// file-backed store and registry, stubbed fetchers. Only the network edges
// are fake, so these tests exercise the same paths the binary runs.
func setupEngine(t *testing.T, apiKey string, fetchers ...ports.Fetcher) (*gin.Engine, *services.RunTracker) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := localfs.NewStore(t.TempDir())
	require.NoError(t, err)
	index := memory.NewIndex()
	registry, err := registryfile.NewRegistry(filepath.Join(t.TempDir(), "registry.json"))
	require.NoError(t, err)
	tracker := services.NewRunTracker()

	ingestionSvc := services.NewIngestionService(store, index, registry, nil, fetchers, tracker,
		services.IngestionOptions{ModelName: "vit", LimitPerSource: 100})
	trainingSvc := services.NewTrainingService(index, registry, trainer.NewEvaluator(), tracker,
		services.TrainingOptions{})
	datasetSvc := services.NewDatasetService(index, store)
	modelSvc := services.NewModelService(registry)
	metricsSvc := services.NewMetricsService(index, registry, "vit")

	h := New(ingestionSvc, trainingSvc, datasetSvc, modelSvc, metricsSvc, tracker, store)
	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(middleware.APIKeyAuth(apiKey))
	h.RegisterRoutes(api)
	r.GET("/healthz", h.Healthz)

	return r, tracker
}

func stubFetcher(name string, items []domain.SourceItem) *testutil.MockFetcher {
	f := new(testutil.MockFetcher)
	f.On("SourceName").Return(name)
	f.On("FetchBatch", mock.Anything, mock.Anything).Return(items, nil)
	return f
}

// attributedItems builds n unique payloads carrying the credit the source's
// terms demand.
func attributedItems(platform, prefix string, label domain.Label, n int) []domain.SourceItem {
	items := make([]domain.SourceItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, domain.SourceItem{
			Payload: []byte(fmt.Sprintf("%s-payload-%03d", prefix, i)),
			Label:   label,
			Attribution: &domain.Attribution{
				Platform: platform, Author: fmt.Sprintf("author-%d", i), License: platform + " License",
			},
		})
	}
	return items
}

func doRequest(r *gin.Engine, method, path string, body interface{}, apiKey string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeInto(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), target))
}

// ===========================================================================
// Full pipeline: ingest, deduplicate, train, publish
// ===========================================================================

func TestE2E_IngestDedupTrainFlow(t *testing.T) {
	// 40 unique photos; 20 generated items of which the last 5 repeat the
	// first 5 payloads byte for byte.
	photos := attributedItems("Unsplash", "real", domain.LabelReal, 40)
	generated := attributedItems("Civitai", "gen", domain.LabelAI, 15)
	generated = append(generated, generated[:5]...)

	r, _ := setupEngine(t, "",
		stubFetcher(domain.SourceUnsplash, photos),
		stubFetcher(domain.SourceCivitai, generated),
	)

	w := doRequest(r, http.MethodPost, "/api/v1/ingestion/runs", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report dto.IngestionReportResponse
	decodeInto(t, w, &report)
	assert.Equal(t, 55, report.TotalAccepted)
	require.Contains(t, report.PerSource, domain.SourceUnsplash)
	require.Contains(t, report.PerSource, domain.SourceCivitai)
	assert.Equal(t, 40, report.PerSource[domain.SourceUnsplash].Accepted)
	assert.Zero(t, report.PerSource[domain.SourceUnsplash].Duplicates)
	assert.Equal(t, 20, report.PerSource[domain.SourceCivitai].Attempted)
	assert.Equal(t, 15, report.PerSource[domain.SourceCivitai].Accepted)
	assert.Equal(t, 5, report.PerSource[domain.SourceCivitai].Duplicates)
	assert.Zero(t, report.PerSource[domain.SourceCivitai].Failed)

	// Running the same batches again adds nothing.
	w = doRequest(r, http.MethodPost, "/api/v1/ingestion/runs", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	report = dto.IngestionReportResponse{}
	decodeInto(t, w, &report)
	assert.Zero(t, report.TotalAccepted)
	assert.Equal(t, 40, report.PerSource[domain.SourceUnsplash].Duplicates)
	assert.Equal(t, 20, report.PerSource[domain.SourceCivitai].Duplicates)

	w = doRequest(r, http.MethodGet, "/api/v1/dataset/stats", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats dto.DatasetStatsResponse
	decodeInto(t, w, &stats)
	assert.Equal(t, 55, stats.Total)
	assert.Equal(t, 40, stats.Real)
	assert.Equal(t, 15, stats.AIGenerated)
	assert.Zero(t, stats.Unlabeled)
	assert.Equal(t, map[string]int{"real": 40, "ai": 15}, stats.ByLabel)

	// First training cycle over the 55-image dataset.
	w = doRequest(r, http.MethodPost, "/api/v1/training/runs", nil, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var version dto.ModelVersionResponse
	decodeInto(t, w, &version)
	assert.Equal(t, "vit", version.ModelName)
	assert.Equal(t, 1, version.Version)
	assert.Equal(t, "v1", version.VersionTag)
	assert.Equal(t, 55, version.DatasetSize)
	assert.Equal(t, 50, version.TrainSize)
	assert.Equal(t, 5, version.ValSize)
	assert.Equal(t, "models/vit/v1/weights.pt", version.WeightsPath)
	assert.Contains(t, version.Metrics, "val_accuracy")
	assert.NotEqual(t, uuid.Nil, version.ID)

	// A second cycle appends, never overwrites.
	w = doRequest(r, http.MethodPost, "/api/v1/training/runs", nil, "")
	require.Equal(t, http.StatusCreated, w.Code)
	version = dto.ModelVersionResponse{}
	decodeInto(t, w, &version)
	assert.Equal(t, 2, version.Version)

	w = doRequest(r, http.MethodGet, "/api/v1/models/vit/latest", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var latest dto.ModelVersionResponse
	decodeInto(t, w, &latest)
	assert.Equal(t, 2, latest.Version)

	w = doRequest(r, http.MethodGet, "/api/v1/models/vit/versions", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var history dto.ListModelVersionsResponse
	decodeInto(t, w, &history)
	assert.Equal(t, "vit", history.ModelName)
	assert.Equal(t, 2, history.Count)
	require.Len(t, history.Items, 2)
	assert.Equal(t, 1, history.Items[0].Version)
	assert.Equal(t, 2, history.Items[1].Version)

	w = doRequest(r, http.MethodGet, "/api/v1/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var summary map[string]interface{}
	decodeInto(t, w, &summary)
	assert.Equal(t, float64(55), summary["total_images"])
	assert.Equal(t, float64(2), summary["models_trained"])
	assert.Contains(t, summary, "latest_val_accuracy")

	w = doRequest(r, http.MethodGet, "/api/v1/status", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var status dto.StatusResponse
	decodeInto(t, w, &status)
	assert.False(t, status.IngestionRunning)
	assert.False(t, status.TrainingRunning)
	assert.Equal(t, 55, status.Dataset.Total)
	require.NotNil(t, status.LastIngestion)
	assert.Zero(t, status.LastIngestion.TotalAccepted)
	require.NotNil(t, status.LastTraining)
	assert.Equal(t, 2, status.LastTraining.Version)
}

// ===========================================================================
// Artifact queries and the external labeling path
// ===========================================================================

func TestE2E_ArtifactQueriesAndRelabel(t *testing.T) {
	unlabeled := []domain.SourceItem{
		{Payload: []byte("scrape-001")},
		{Payload: []byte("scrape-002")},
		{Payload: []byte("scrape-003")},
	}
	r, _ := setupEngine(t, "", stubFetcher(domain.SourceReddit, unlabeled))

	w := doRequest(r, http.MethodPost, "/api/v1/ingestion/runs", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodGet, "/api/v1/artifacts", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var list dto.ListArtifactsResponse
	decodeInto(t, w, &list)
	assert.Equal(t, 3, list.Count)
	assert.Equal(t, 50, list.PageSize)

	w = doRequest(r, http.MethodGet, "/api/v1/artifacts?limit=2", nil, "")
	list = dto.ListArtifactsResponse{}
	decodeInto(t, w, &list)
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, 2, list.PageSize)

	// A present-but-empty label selects the unlabeled backlog.
	w = doRequest(r, http.MethodGet, "/api/v1/artifacts?label=", nil, "")
	list = dto.ListArtifactsResponse{}
	decodeInto(t, w, &list)
	assert.Equal(t, 3, list.Count)

	w = doRequest(r, http.MethodGet, "/api/v1/artifacts?source=unsplash", nil, "")
	list = dto.ListArtifactsResponse{}
	decodeInto(t, w, &list)
	assert.Zero(t, list.Count)

	w = doRequest(r, http.MethodGet, "/api/v1/artifacts", nil, "")
	list = dto.ListArtifactsResponse{}
	decodeInto(t, w, &list)
	require.NotEmpty(t, list.Items)
	picked := list.Items[0]
	assert.Equal(t, domain.SourceReddit, picked.Source)
	assert.Empty(t, picked.Label)
	assert.Len(t, picked.ContentHash, 64)

	w = doRequest(r, http.MethodGet, "/api/v1/artifacts/"+picked.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var got dto.ArtifactResponse
	decodeInto(t, w, &got)
	assert.Equal(t, picked.ID, got.ID)
	assert.NotEmpty(t, got.Location)

	w = doRequest(r, http.MethodGet, "/api/v1/artifacts/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodGet, "/api/v1/artifacts/"+uuid.NewString(), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// External labeling: a reviewer settles one of the unlabeled items.
	w = doRequest(r, http.MethodPatch, "/api/v1/artifacts/"+picked.ID.String()+"/label",
		map[string]interface{}{"label": "ai_generated", "confidence": 0.93}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got = dto.ArtifactResponse{}
	decodeInto(t, w, &got)
	assert.Equal(t, "ai_generated", got.Label)
	require.NotNil(t, got.LabelConfidence)
	assert.InDelta(t, 0.93, *got.LabelConfidence, 1e-9)

	w = doRequest(r, http.MethodPatch, "/api/v1/artifacts/"+picked.ID.String()+"/label",
		map[string]interface{}{"label": "banana"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPatch, "/api/v1/artifacts/"+picked.ID.String()+"/label",
		map[string]interface{}{"confidence": 0.5}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodGet, "/api/v1/dataset/stats", nil, "")
	var stats dto.DatasetStatsResponse
	decodeInto(t, w, &stats)
	assert.Equal(t, 1, stats.AIGenerated)
	assert.Equal(t, 2, stats.Unlabeled)

	w = doRequest(r, http.MethodGet, "/api/v1/artifacts?label=ai_generated", nil, "")
	list = dto.ListArtifactsResponse{}
	decodeInto(t, w, &list)
	assert.Equal(t, 1, list.Count)
}

// ===========================================================================
// Guard rails
// ===========================================================================

func TestE2E_APIKeyGuard(t *testing.T) {
	r, _ := setupEngine(t, "trainer-key")

	w := doRequest(r, http.MethodGet, "/api/v1/status", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	var resp map[string]string
	decodeInto(t, w, &resp)
	assert.Equal(t, domain.ErrUnauthorized.Error(), resp["error"])

	w = doRequest(r, http.MethodGet, "/api/v1/status", nil, "trainer-key")
	assert.Equal(t, http.StatusOK, w.Code)

	// The liveness probe stays open.
	w = doRequest(r, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestE2E_BusyPipelinesRejectTriggers(t *testing.T) {
	r, tracker := setupEngine(t, "", stubFetcher(domain.SourceReddit, nil))

	require.True(t, tracker.TryBeginIngestion())
	w := doRequest(r, http.MethodPost, "/api/v1/ingestion/runs", nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	require.True(t, tracker.TryBeginTraining())
	w = doRequest(r, http.MethodPost, "/api/v1/training/runs", nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestE2E_TrainingBeforeEnoughData(t *testing.T) {
	r, _ := setupEngine(t, "", stubFetcher(domain.SourceReddit, nil))

	w := doRequest(r, http.MethodPost, "/api/v1/training/runs", nil, "")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp map[string]string
	decodeInto(t, w, &resp)
	assert.Contains(t, resp["error"], "below training threshold")
}

func TestE2E_ModelRouteErrors(t *testing.T) {
	r, _ := setupEngine(t, "")

	w := doRequest(r, http.MethodGet, "/api/v1/models/ghost/latest", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(r, http.MethodPost, "/api/v1/training/runs",
		map[string]string{"model_name": "Bad Name"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestE2E_SourceSelection(t *testing.T) {
	photo := attributedItems("Unsplash", "photo", domain.LabelReal, 1)
	gen := attributedItems("Civitai", "gen", domain.LabelAI, 1)
	r, _ := setupEngine(t, "",
		stubFetcher(domain.SourceUnsplash, photo),
		stubFetcher(domain.SourceCivitai, gen),
	)

	w := doRequest(r, http.MethodPost, "/api/v1/ingestion/runs",
		dto.RunIngestionRequest{Sources: []string{domain.SourceCivitai}}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var report dto.IngestionReportResponse
	decodeInto(t, w, &report)
	assert.Len(t, report.PerSource, 1)
	assert.Equal(t, 1, report.PerSource[domain.SourceCivitai].Accepted)

	w = doRequest(r, http.MethodPost, "/api/v1/ingestion/runs",
		dto.RunIngestionRequest{Sources: []string{"atari"}}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
