package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"hrzones/internal/store"
)

const activitiesPath = "/api/activities"

// ErrFetchFailed wraps transport errors and non-2xx responses
var ErrFetchFailed = errors.New("fetching activities failed")

// ErrMalformedActivity is returned when the response cannot be decoded into activities
var ErrMalformedActivity = errors.New("malformed activity data")

// Config configures a Client
type Config struct {
	BaseURL string
	Token   string        // optional bearer token
	Timeout time.Duration // per-request, zero means none
}

// Client fetches activities from the activity endpoint
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new activity source client
func NewClient(cfg Config) *Client {
	httpClient := &http.Client{}
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	httpClient.Timeout = cfg.Timeout

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
	}
}

// FetchActivities fetches the full activity list, heart-rate samples included
func (c *Client) FetchActivities(ctx context.Context) ([]store.Activity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+activitiesPath, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %w", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: API error %d: %s", ErrFetchFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrFetchFailed, err)
	}

	return DecodeActivities(body)
}

// wireActivity is the JSON shape served by the endpoint
type wireActivity struct {
	ID               json.Number `json:"id"`
	Name             string      `json:"name"`
	Type             string      `json:"type"`
	StartDate        string      `json:"start_date"`
	MovingTime       float64     `json:"moving_time"`
	Distance         float64     `json:"distance"`
	Heartrate        []any       `json:"heartrate"`
	AverageHeartrate *float64    `json:"average_heartrate"`
	MaxHeartrate     *float64    `json:"max_heartrate"`
}

// DecodeActivities decodes a JSON array of activities.
// Heart-rate entries that aren't numbers are kept as store.InvalidHeartrate
// so they count as unclassified instead of failing the whole response.
func DecodeActivities(data []byte) ([]store.Activity, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedActivity, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrMalformedActivity)
	}

	activities := make([]store.Activity, 0, len(raw))
	for i, msg := range raw {
		var w wireActivity
		if err := json.Unmarshal(msg, &w); err != nil {
			return nil, fmt.Errorf("%w: activity %d: %w", ErrMalformedActivity, i, err)
		}
		a, err := w.toActivity()
		if err != nil {
			return nil, fmt.Errorf("%w: activity %d: %w", ErrMalformedActivity, i, err)
		}
		activities = append(activities, a)
	}

	return activities, nil
}

func (w wireActivity) toActivity() (store.Activity, error) {
	id, err := w.ID.Int64()
	if err != nil {
		return store.Activity{}, fmt.Errorf("parsing id %q: %w", w.ID, err)
	}

	start, err := parseStartDate(w.StartDate)
	if err != nil {
		return store.Activity{}, err
	}

	a := store.Activity{
		ID:               id,
		Name:             w.Name,
		Type:             w.Type,
		StartDate:        start,
		MovingTime:       int(math.Max(0, math.Round(w.MovingTime))),
		Distance:         w.Distance,
		AverageHeartrate: w.AverageHeartrate,
		MaxHeartrate:     w.MaxHeartrate,
		Source:           store.SourceRemote,
	}

	if w.Heartrate != nil {
		a.Heartrate = make([]int, len(w.Heartrate))
		for i, v := range w.Heartrate {
			a.Heartrate[i] = sampleValue(v)
		}
	}

	return a, nil
}

func sampleValue(v any) int {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return store.InvalidHeartrate
	}
	r := math.Round(f)
	if r < 0 || r > math.MaxInt32 {
		return store.InvalidHeartrate
	}
	return int(r)
}

var startDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseStartDate(s string) (time.Time, error) {
	for _, layout := range startDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing start_date %q", s)
}
