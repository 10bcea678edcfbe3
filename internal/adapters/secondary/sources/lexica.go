package sources

import (
	"context"
	"fmt"
	"net/url"

	"model-trainer-service/internal/config"
	"model-trainer-service/internal/core/domain"
	ports "model-trainer-service/internal/core/ports/output"
)

const lexicaBaseURL = "https://lexica.art"

// LexicaFetcher pulls diffusion-model output from the Lexica search API.
// The gallery is unauthenticated and carries no attribution requirement;
// results are labeled ai_generated with the generating prompt kept as
// source metadata.
type LexicaFetcher struct {
	client  *apiClient
	queries []string
	perRun  int
}

func NewLexicaFetcher(cfg config.SourceConfig, ing config.IngestionConfig) *LexicaFetcher {
	return &LexicaFetcher{
		client: newAPIClient(clientConfig{
			baseURL:         lexicaBaseURL,
			userAgent:       ing.UserAgent,
			budgetPerHour:   cfg.RatePerHour,
			downloadTimeout: ing.DownloadTimeout,
		}),
		queries: cfg.Queries,
		perRun:  ing.QueriesPerRun,
	}
}

var _ ports.Fetcher = (*LexicaFetcher)(nil)

func (f *LexicaFetcher) SourceName() string { return domain.SourceLexica }

type lexicaImage struct {
	ID     string `json:"id"`
	Src    string `json:"src"`
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
}

type lexicaSearchResponse struct {
	Images []lexicaImage `json:"images"`
}

func (f *LexicaFetcher) FetchBatch(ctx context.Context, limit int) ([]domain.SourceItem, error) {
	queries := pickQueries(f.queries, f.perRun)
	if len(queries) == 0 {
		return nil, fmt.Errorf("%w: no queries configured", domain.ErrSourceNotConfigured)
	}

	shares := splitLimit(limit, len(queries))
	var items []domain.SourceItem
	for i, q := range queries {
		share := shares[i]
		if share == 0 {
			continue
		}

		var resp lexicaSearchResponse
		err := f.client.getJSON(ctx, "/api/v1/search", url.Values{"q": {q}}, &resp)
		if err != nil {
			return items, fmt.Errorf("lexica query %q: %w", q, err)
		}

		refs := make([]remoteImage, 0, len(resp.Images))
		for _, img := range resp.Images {
			refs = append(refs, remoteImage{
				URL: img.Src,
				Item: domain.SourceItem{
					Label: domain.LabelAIGenerated,
					SourceMetadata: map[string]interface{}{
						"image_id": img.ID,
						"prompt":   img.Prompt,
						"model":    img.Model,
					},
				},
			})
		}
		items = append(items, f.client.collect(ctx, f.SourceName(), refs, share)...)
	}
	return items, nil
}
