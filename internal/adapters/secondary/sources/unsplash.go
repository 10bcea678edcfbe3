package sources

import (
	"context"
	"fmt"
	"net/url"

	"model-trainer-service/internal/config"
	"model-trainer-service/internal/core/domain"
	ports "model-trainer-service/internal/core/ports/output"
)

const unsplashBaseURL = "https://api.unsplash.com"

// UnsplashFetcher pulls photographic images from the Unsplash search API.
// Everything it returns is labeled real; Unsplash terms require keeping
// photographer attribution with each download.
type UnsplashFetcher struct {
	client  *apiClient
	queries []string
	perRun  int
}

func NewUnsplashFetcher(cfg config.SourceConfig, ing config.IngestionConfig) *UnsplashFetcher {
	return &UnsplashFetcher{
		client: newAPIClient(clientConfig{
			baseURL:         unsplashBaseURL,
			userAgent:       ing.UserAgent,
			headers:         map[string]string{"Authorization": "Client-ID " + cfg.APIKey},
			budgetPerHour:   cfg.RatePerHour,
			downloadTimeout: ing.DownloadTimeout,
		}),
		queries: cfg.Queries,
		perRun:  ing.QueriesPerRun,
	}
}

var _ ports.Fetcher = (*UnsplashFetcher)(nil)

func (f *UnsplashFetcher) SourceName() string { return domain.SourceUnsplash }

type unsplashPhoto struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Likes       int    `json:"likes"`
	URLs        struct {
		Regular string `json:"regular"`
	} `json:"urls"`
	User struct {
		Name  string `json:"name"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
	} `json:"user"`
}

type unsplashSearchResponse struct {
	Results []unsplashPhoto `json:"results"`
}

func (f *UnsplashFetcher) FetchBatch(ctx context.Context, limit int) ([]domain.SourceItem, error) {
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

		var resp unsplashSearchResponse
		err := f.client.getJSON(ctx, "/search/photos", url.Values{
			"query":    {q},
			"per_page": {fmt.Sprint(share * 2)},
		}, &resp)
		if err != nil {
			return items, fmt.Errorf("unsplash query %q: %w", q, err)
		}

		refs := make([]remoteImage, 0, len(resp.Results))
		for _, p := range resp.Results {
			refs = append(refs, remoteImage{
				URL: p.URLs.Regular,
				Item: domain.SourceItem{
					Label: domain.LabelReal,
					Attribution: &domain.Attribution{
						Platform: "Unsplash",
						Author:   p.User.Name,
						License:  "Unsplash License",
						URL:      p.User.Links.HTML,
					},
					SourceMetadata: map[string]interface{}{
						"photo_id":    p.ID,
						"description": p.Description,
						"likes":       p.Likes,
					},
				},
			})
		}
		items = append(items, f.client.collect(ctx, f.SourceName(), refs, share)...)
	}
	return items, nil
}
