package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"strava-thresholds/internal/streams"
	"strava-thresholds/internal/threshold"
)

const BaseURL = "https://www.strava.com/api/v3"

// maxPerPage is the largest page Strava serves
const maxPerPage = 100

// Client is a Strava API client
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *RateLimiter
}

// NewClient creates a client that authenticates through tokenSource
func NewClient(tokenSource oauth2.TokenSource) *Client {
	return NewClientWithHTTP(oauth2.NewClient(context.Background(), tokenSource), BaseURL)
}

// NewClientWithHTTP creates a client against baseURL using an already
// authenticated HTTP client
func NewClientWithHTTP(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		httpClient:  httpClient,
		baseURL:     baseURL,
		rateLimiter: NewRateLimiter(),
	}
}

// GetActivities fetches one page of activities started after 'after'
func (c *Client) GetActivities(ctx context.Context, after time.Time, page, perPage int) ([]Activity, error) {
	params := url.Values{}
	if !after.IsZero() {
		params.Set("after", strconv.FormatInt(after.Unix(), 10))
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))

	body, err := c.get(ctx, "/athlete/activities", params)
	if err != nil {
		return nil, err
	}

	var activities []Activity
	if err := json.Unmarshal(body, &activities); err != nil {
		return nil, fmt.Errorf("decoding activities: %w", err)
	}
	return activities, nil
}

// GetAllActivities pages through every activity started after 'after'
func (c *Client) GetAllActivities(ctx context.Context, after time.Time, onProgress func(fetched int)) ([]Activity, error) {
	var all []Activity
	for page := 1; ; page++ {
		activities, err := c.GetActivities(ctx, after, page, maxPerPage)
		if err != nil {
			return all, fmt.Errorf("fetching page %d: %w", page, err)
		}
		all = append(all, activities...)

		if onProgress != nil && len(activities) > 0 {
			onProgress(len(all))
		}
		if len(activities) < maxPerPage {
			return all, nil
		}
	}
}

// GetActivityStreams fetches the time, heart rate, power, velocity and
// distance streams of an activity
func (c *Client) GetActivityStreams(ctx context.Context, activityID int64) (threshold.Streams, error) {
	params := url.Values{}
	params.Set("keys", StreamKeys)
	params.Set("key_by_type", "true")

	body, err := c.get(ctx, fmt.Sprintf("/activities/%d/streams", activityID), params)
	if err != nil {
		return threshold.Streams{}, err
	}

	s, err := streams.Decode(body)
	if err != nil {
		return threshold.Streams{}, fmt.Errorf("activity %d: %w", activityID, err)
	}
	return s, nil
}

// RateLimitStatus returns the current rate limit status
func (c *Client) RateLimitStatus() (shortRemaining, dailyRemaining int) {
	return c.rateLimiter.Status()
}

// APIError is a non-200 response from Strava
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Body)
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	c.rateLimiter.UpdateFromHeaders(resp.Header)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
