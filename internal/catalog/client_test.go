package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUpstream(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestListRestaurants_Success(t *testing.T) {
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/restaurants", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"name":"Pizza Palace","cuisine":"Italian","rating":4.5,"deliveryTime":"30-40 mins"}]`))
	})

	client := NewClient(srv.URL, time.Second)
	restaurants, err := client.ListRestaurants(context.Background())
	require.NoError(t, err)
	require.Len(t, restaurants, 1)
	assert.Equal(t, int64(1), restaurants[0].ID)
	assert.Equal(t, "Pizza Palace", restaurants[0].Name)
	assert.Equal(t, "Italian", restaurants[0].Cuisine)
	assert.Equal(t, 4.5, restaurants[0].Rating)
	assert.Equal(t, "30-40 mins", restaurants[0].DeliveryTime)
}

func TestListRestaurants_EmptyArray(t *testing.T) {
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`null`))
	})

	restaurants, err := NewClient(srv.URL, time.Second).ListRestaurants(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, restaurants)
	assert.Empty(t, restaurants)
}

func TestGetMenu_Success(t *testing.T) {
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/restaurants/3/menu", r.URL.Path)
		w.Write([]byte(`[{"id":301,"name":"Salmon Sushi","description":"Fresh salmon sushi (6 pieces)","price":499}]`))
	})

	// trailing slash on the base URL must not produce a double slash
	items, err := NewClient(srv.URL+"/", time.Second).GetMenu(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(301), items[0].ID)
	assert.Equal(t, 499.0, items[0].Price)
}

func TestClient_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"NotFound", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"Restaurant not found"}`))
		}},
		{"ServerError", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"InvalidJSON", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"id":`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newUpstream(t, tt.handler)

			_, err := NewClient(srv.URL, time.Second).GetMenu(context.Background(), 99)
			assert.ErrorIs(t, err, ErrUpstreamUnavailable)
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).ListRestaurants(context.Background())
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestClient_Timeout(t *testing.T) {
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	})

	_, err := NewClient(srv.URL, 50*time.Millisecond).ListRestaurants(context.Background())
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestClient_NoCaching(t *testing.T) {
	var calls atomic.Int32
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`[]`))
	})

	client := NewClient(srv.URL, time.Second)
	for i := 0; i < 3; i++ {
		_, err := client.ListRestaurants(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	client := NewClient(srv.URL, time.Second)
	for i := 0; i < consecutiveFailures; i++ {
		_, err := client.ListRestaurants(context.Background())
		require.ErrorIs(t, err, ErrUpstreamUnavailable)
	}

	// open circuit fails fast without reaching the upstream
	_, err := client.ListRestaurants(context.Background())
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.ErrorContains(t, err, "circuit breaker is open")
	assert.Equal(t, int32(consecutiveFailures), calls.Load())
}

func TestClient_ClientErrorsDoNotOpenBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	client := NewClient(srv.URL, time.Second)
	for i := 0; i < consecutiveFailures+2; i++ {
		_, err := client.GetMenu(context.Background(), 99)
		require.ErrorIs(t, err, ErrUpstreamUnavailable)
		assert.NotContains(t, err.Error(), "circuit breaker is open")
	}
	assert.Equal(t, int32(consecutiveFailures+2), calls.Load())
}
