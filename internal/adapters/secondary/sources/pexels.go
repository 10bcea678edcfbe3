package sources

import (
	"context"
	"fmt"
	"net/url"

	"model-trainer-service/internal/config"
	"model-trainer-service/internal/core/domain"
	ports "model-trainer-service/internal/core/ports/output"
)

const pexelsBaseURL = "https://api.pexels.com"

// PexelsFetcher pulls stock photography from the Pexels search API. All
// results are labeled real and carry photographer attribution.
type PexelsFetcher struct {
	client  *apiClient
	queries []string
	perRun  int
}

func NewPexelsFetcher(cfg config.SourceConfig, ing config.IngestionConfig) *PexelsFetcher {
	return &PexelsFetcher{
		client: newAPIClient(clientConfig{
			baseURL:         pexelsBaseURL,
			userAgent:       ing.UserAgent,
			headers:         map[string]string{"Authorization": cfg.APIKey},
			budgetPerHour:   cfg.RatePerHour,
			downloadTimeout: ing.DownloadTimeout,
		}),
		queries: cfg.Queries,
		perRun:  ing.QueriesPerRun,
	}
}

var _ ports.Fetcher = (*PexelsFetcher)(nil)

func (f *PexelsFetcher) SourceName() string { return domain.SourcePexels }

type pexelsPhoto struct {
	ID           int    `json:"id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	URL          string `json:"url"`
	Photographer string `json:"photographer"`
	Src          struct {
		Large string `json:"large"`
	} `json:"src"`
}

type pexelsSearchResponse struct {
	Photos []pexelsPhoto `json:"photos"`
}

func (f *PexelsFetcher) FetchBatch(ctx context.Context, limit int) ([]domain.SourceItem, error) {
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

		var resp pexelsSearchResponse
		err := f.client.getJSON(ctx, "/v1/search", url.Values{
			"query":    {q},
			"per_page": {fmt.Sprint(share * 2)},
		}, &resp)
		if err != nil {
			return items, fmt.Errorf("pexels query %q: %w", q, err)
		}

		refs := make([]remoteImage, 0, len(resp.Photos))
		for _, p := range resp.Photos {
			refs = append(refs, remoteImage{
				URL: p.Src.Large,
				Item: domain.SourceItem{
					Label: domain.LabelReal,
					Attribution: &domain.Attribution{
						Platform: "Pexels",
						Author:   p.Photographer,
						License:  "Pexels License",
						URL:      p.URL,
					},
					SourceMetadata: map[string]interface{}{
						"photo_id": p.ID,
						"width":    p.Width,
						"height":   p.Height,
					},
				},
			})
		}
		items = append(items, f.client.collect(ctx, f.SourceName(), refs, share)...)
	}
	return items, nil
}
