package youtube

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"study-planner/internal/models"
	"study-planner/shared/config"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// videos.list accepts at most 50 ids per call.
const detailsBatchSize = 50

// Client searches YouTube and fetches video metadata through the Data API v3.
type Client struct {
	service *youtube.Service
	limiter *rate.Limiter
}

// NewClient authenticates with the configured API key, or with the OAuth
// token stored in TokenFile when no key is set.
func NewClient(ctx context.Context, cfg *config.YouTubeConfig) (*Client, error) {
	var opts []option.ClientOption

	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	} else {
		token, err := tokenFromFile(cfg.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("no YouTube API key and no usable token in %s (run the auth command first): %w", cfg.TokenFile, err)
		}
		log.Printf("Loaded YouTube token from file (expires: %v)", token.Expiry)

		source := &tokenSaver{
			config:    oauthConfig(cfg),
			token:     token,
			tokenFile: cfg.TokenFile,
		}
		opts = append(opts, option.WithHTTPClient(oauth2.NewClient(ctx, source)))
	}

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return NewClientWithService(service, cfg.RequestsPerSecond), nil
}

// NewClientWithService wraps an existing service. requestsPerSecond <= 0
// disables throttling.
func NewClientWithService(service *youtube.Service, requestsPerSecond float64) *Client {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Client{
		service: service,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func videoURL(id string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", id)
}

// Search returns up to limit video results for query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]models.SearchHit, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, describeError("search", err)
	}

	hits := make([]models.SearchHit, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		hit := models.SearchHit{ID: item.Id.VideoId, URL: videoURL(item.Id.VideoId)}
		if item.Snippet != nil {
			hit.Title = item.Snippet.Title
		}
		hits = append(hits, hit)
	}

	return hits, nil
}

// Details fetches duration and engagement counts for ids, in batches.
func (c *Client) Details(ctx context.Context, ids []string) ([]models.VideoDetails, error) {
	var details []models.VideoDetails

	for i := 0; i < len(ids); i += detailsBatchSize {
		end := min(i+detailsBatchSize, len(ids))

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.service.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
			Id(strings.Join(ids[i:end], ",")).
			Context(ctx).
			Do()
		if err != nil {
			return nil, describeError("videos", err)
		}

		for _, item := range resp.Items {
			d := models.VideoDetails{ID: item.Id, URL: videoURL(item.Id)}
			if item.Snippet != nil {
				d.Title = item.Snippet.Title
			}
			if item.ContentDetails != nil {
				d.Duration = item.ContentDetails.Duration
			}
			if item.Statistics != nil {
				d.LikeCount = item.Statistics.LikeCount
				d.CommentCount = item.Statistics.CommentCount
			}
			details = append(details, d)
		}
	}

	return details, nil
}

func describeError(call string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		reason := ""
		if len(apiErr.Errors) > 0 {
			reason = apiErr.Errors[0].Reason
		}
		if reason != "" {
			return fmt.Errorf("youtube %s failed (HTTP %d, %s): %w", call, apiErr.Code, reason, err)
		}
		return fmt.Errorf("youtube %s failed (HTTP %d): %w", call, apiErr.Code, err)
	}
	return fmt.Errorf("youtube %s failed: %w", call, err)
}
