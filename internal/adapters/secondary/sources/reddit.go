package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"model-trainer-service/internal/config"
	"model-trainer-service/internal/core/domain"
	ports "model-trainer-service/internal/core/ports/output"
)

const redditBaseURL = "https://www.reddit.com"

// RedditFetcher pulls image posts from configured subreddits through the
// public JSON listings. Subreddits mix authentic photography with generated
// content, so items leave here unlabeled and the auto-labeling step decides.
type RedditFetcher struct {
	client     *apiClient
	subreddits []string
	minScore   int
	perRun     int
}

func NewRedditFetcher(cfg config.RedditConfig, ing config.IngestionConfig) *RedditFetcher {
	return &RedditFetcher{
		client: newAPIClient(clientConfig{
			baseURL:         redditBaseURL,
			userAgent:       ing.UserAgent,
			budgetPerHour:   cfg.RatePerHour,
			downloadTimeout: ing.DownloadTimeout,
		}),
		subreddits: cfg.Subreddits,
		minScore:   cfg.MinScore,
		perRun:     ing.QueriesPerRun,
	}
}

var _ ports.Fetcher = (*RedditFetcher)(nil)

func (f *RedditFetcher) SourceName() string { return domain.SourceReddit }

type redditPost struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Author    string  `json:"author"`
	Subreddit string  `json:"subreddit"`
	Score     int     `json:"score"`
	URL       string  `json:"url_overridden_by_dest"`
	PostHint  string  `json:"post_hint"`
	CreatedAt float64 `json:"created_utc"`
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (f *RedditFetcher) FetchBatch(ctx context.Context, limit int) ([]domain.SourceItem, error) {
	subs := pickQueries(f.subreddits, f.perRun)
	if len(subs) == 0 {
		return nil, fmt.Errorf("%w: no subreddits configured", domain.ErrSourceNotConfigured)
	}

	shares := splitLimit(limit, len(subs))
	var items []domain.SourceItem
	for i, sub := range subs {
		share := shares[i]
		if share == 0 {
			continue
		}

		var listing redditListing
		err := f.client.getJSON(ctx, fmt.Sprintf("/r/%s/top.json", sub), url.Values{
			"limit": {fmt.Sprint(share * 3)},
			"t":     {"week"},
		}, &listing)
		if err != nil {
			return items, fmt.Errorf("reddit r/%s: %w", sub, err)
		}

		refs := make([]remoteImage, 0, len(listing.Data.Children))
		for _, child := range listing.Data.Children {
			post := child.Data
			if post.Score < f.minScore || !isImagePost(post) {
				continue
			}
			refs = append(refs, remoteImage{
				URL: post.URL,
				Item: domain.SourceItem{
					// Label deliberately left empty for the auto-labeler.
					SourceMetadata: map[string]interface{}{
						"post_id":   post.ID,
						"subreddit": post.Subreddit,
						"title":     post.Title,
						"author":    post.Author,
						"score":     post.Score,
					},
				},
			})
		}
		items = append(items, f.client.collect(ctx, f.SourceName(), refs, share)...)
	}
	return items, nil
}

func isImagePost(post redditPost) bool {
	if post.URL == "" {
		return false
	}
	if post.PostHint == "image" {
		return true
	}
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif"} {
		if strings.HasSuffix(strings.ToLower(post.URL), ext) {
			return true
		}
	}
	return false
}
