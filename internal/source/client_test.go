package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrzones/internal/store"
)

const sampleBody = `[
  {
    "id": 101,
    "name": "Morning Run",
    "type": "Run",
    "start_date": "2024-06-01T07:30:00Z",
    "moving_time": 1800,
    "distance": 5200.5,
    "heartrate": [100, 130.4, "n/a", null, 170],
    "average_heartrate": 138.2,
    "max_heartrate": 171
  },
  {
    "id": 102,
    "name": "Commute",
    "type": "Ride",
    "start_date": "2024-06-02T08:00:00Z",
    "moving_time": 900,
    "distance": 4000
  }
]`

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/", Timeout: 5 * time.Second})
}

func TestFetchActivities(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/activities", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleBody))
	})

	activities, err := client.FetchActivities(context.Background())
	require.NoError(t, err)
	require.Len(t, activities, 2)

	run := activities[0]
	assert.Equal(t, int64(101), run.ID)
	assert.Equal(t, "Morning Run", run.Name)
	assert.Equal(t, 1800, run.MovingTime)
	assert.Equal(t, time.Date(2024, 6, 1, 7, 30, 0, 0, time.UTC), run.StartDate.UTC())
	assert.Equal(t, []int{100, 130, store.InvalidHeartrate, store.InvalidHeartrate, 170}, run.Heartrate)
	require.NotNil(t, run.AverageHeartrate)
	assert.InDelta(t, 138.2, *run.AverageHeartrate, 1e-9)
	assert.Equal(t, store.SourceRemote, run.Source)

	ride := activities[1]
	assert.Nil(t, ride.Heartrate, "absent heartrate stays nil")
	assert.Nil(t, ride.MaxHeartrate)
}

func TestFetchActivities_BearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Token: "abc123"})
	activities, err := client.FetchActivities(context.Background())
	require.NoError(t, err)
	assert.Empty(t, activities)
	assert.Equal(t, "Bearer abc123", gotAuth)
}

func TestFetchActivities_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, "boom", ErrFetchFailed},
		{"not found", http.StatusNotFound, "", ErrFetchFailed},
		{"object instead of array", http.StatusOK, `{"activities": []}`, ErrMalformedActivity},
		{"null body", http.StatusOK, `null`, ErrMalformedActivity},
		{"truncated json", http.StatusOK, `[{"id": 1`, ErrMalformedActivity},
		{"bad start date", http.StatusOK, `[{"id": 1, "start_date": "yesterday"}]`, ErrMalformedActivity},
		{"missing id", http.StatusOK, `[{"start_date": "2024-06-01T07:30:00Z"}]`, ErrMalformedActivity},
		{"heartrate not an array", http.StatusOK, `[{"id": 1, "start_date": "2024-06-01", "heartrate": "high"}]`, ErrMalformedActivity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			activities, err := client.FetchActivities(context.Background())
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, activities)
		})
	}
}

func TestFetchActivities_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(Config{BaseURL: url, Timeout: time.Second})
	_, err := client.FetchActivities(context.Background())
	require.ErrorIs(t, err, ErrFetchFailed)
}

func TestFetchActivities_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.FetchActivities(ctx)
	require.ErrorIs(t, err, ErrFetchFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDecodeActivities_DateLayouts(t *testing.T) {
	activities, err := DecodeActivities([]byte(`[
		{"id": 1, "start_date": "2024-06-01T07:30:00"},
		{"id": 2, "start_date": "2024-06-01T07:30:00.123+02:00"},
		{"id": 3, "start_date": "2024-06-01"}
	]`))
	require.NoError(t, err)
	require.Len(t, activities, 3)
	assert.Equal(t, 7, activities[0].StartDate.Hour())
	assert.Equal(t, 2024, activities[2].StartDate.Year())
}
