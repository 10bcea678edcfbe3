package sources

import (
	"context"
	"fmt"
	"net/url"

	"model-trainer-service/internal/config"
	"model-trainer-service/internal/core/domain"
	ports "model-trainer-service/internal/core/ports/output"
)

const civitaiBaseURL = "https://civitai.com"

// CivitaiFetcher pulls community-generated images from the Civitai images
// API. Everything on Civitai is model output, so the label is always ai.
// The feed is not text-searchable; configured queries are ignored and the
// batch comes from the most recent safe-rated uploads.
type CivitaiFetcher struct {
	client *apiClient
}

func NewCivitaiFetcher(cfg config.SourceConfig, ing config.IngestionConfig) *CivitaiFetcher {
	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + cfg.APIKey
	}
	return &CivitaiFetcher{
		client: newAPIClient(clientConfig{
			baseURL:         civitaiBaseURL,
			userAgent:       ing.UserAgent,
			headers:         headers,
			budgetPerHour:   cfg.RatePerHour,
			downloadTimeout: ing.DownloadTimeout,
		}),
	}
}

var _ ports.Fetcher = (*CivitaiFetcher)(nil)

func (f *CivitaiFetcher) SourceName() string { return domain.SourceCivitai }

type civitaiImage struct {
	ID       int    `json:"id"`
	URL      string `json:"url"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Username string `json:"username"`
	Meta     struct {
		Model string `json:"Model"`
	} `json:"meta"`
}

type civitaiImagesResponse struct {
	Items []civitaiImage `json:"items"`
}

func (f *CivitaiFetcher) FetchBatch(ctx context.Context, limit int) ([]domain.SourceItem, error) {
	var resp civitaiImagesResponse
	err := f.client.getJSON(ctx, "/api/v1/images", url.Values{
		"limit": {fmt.Sprint(limit * 2)},
		"sort":  {"Newest"},
		"nsfw":  {"None"},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("civitai images: %w", err)
	}

	refs := make([]remoteImage, 0, len(resp.Items))
	for _, img := range resp.Items {
		author := img.Username
		if author == "" {
			author = "Civitai Community"
		}
		refs = append(refs, remoteImage{
			URL: img.URL,
			Item: domain.SourceItem{
				Label: domain.LabelAI,
				Attribution: &domain.Attribution{
					Platform: "Civitai",
					Author:   author,
					License:  "Civitai Content Rules",
				},
				SourceMetadata: map[string]interface{}{
					"image_id": img.ID,
					"width":    img.Width,
					"height":   img.Height,
					"model":    img.Meta.Model,
				},
			},
		})
	}
	return f.client.collect(ctx, f.SourceName(), refs, limit), nil
}
