package extract

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/etl/internal/config"
	"github.com/JonMunkholm/etl/internal/storage"
)

func testConfig(baseURL string, ids ...int64) config.ExtractConfig {
	return config.ExtractConfig{
		BaseURL:   baseURL,
		Token:     "secret",
		FlightIDs: ids,
		Timeout:   time.Second,
		Retries:   2,
		Table:     "flight_data",
	}
}

func testClient(cfg config.ExtractConfig) *Client {
	return newClient(resty.New(), cfg, time.Millisecond)
}

func TestClient_Flight(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "secret", r.Header.Get("X-Auth-Token"))
		assert.Equal(t, "/api/external/flight/79952", r.URL.Path)
		_, _ = io.WriteString(w, `{"flightId":79952}`)
	}))
	defer srv.Close()

	c := testClient(testConfig(srv.URL + "/api/external/flight/"))
	body, err := c.Flight(context.Background(), 79952)
	require.NoError(t, err)
	assert.JSONEq(t, `{"flightId":79952}`, string(body))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	_, err := testClient(testConfig(srv.URL+"/")).Flight(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_NotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(testConfig(srv.URL+"/")).Flight(context.Background(), 1)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, int32(1), calls.Load(), "client errors are not retried")
}

func TestClient_URL(t *testing.T) {
	c := NewClient(testConfig("https://test.fl3xx.com/api/external/flight/"))
	assert.Equal(t, "https://test.fl3xx.com/api/external/flight/79960", c.URL(79960))
}

func flightServer(t *testing.T) *httptest.Server {
	t.Helper()
	bodies := map[string]string{
		"/1": `{"flightId":1,"registrationNumber":"C-GABC","airportFrom":"CYYC","blockOff":true,"crew":[{"id":7}],"eta":null}`,
		"/2": `{"flightId":2,"airportTo":"KLAS","registrationNumber":"N123","price":1250.50}`,
		"/3": `[1,2]`,
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := bodies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, body)
	}))
}

func TestExtractor_Run(t *testing.T) {
	srv := flightServer(t)
	defer srv.Close()

	store := storage.NewFSStore(afero.NewMemMapFs(), "rawdata")
	cfg := testConfig(srv.URL+"/", 1, 404, 2, 3)
	res, err := New(testClient(cfg), store, cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "flight_data.csv", res.Object)
	assert.Equal(t, []int64{1, 2}, res.Fetched)
	assert.Equal(t, []int64{404, 3}, res.Skipped)
	assert.Equal(t, 8, res.Columns)

	rc, err := store.Open(context.Background(), "flight_data.csv")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)

	want := strings.Join([]string{
		"flightId,registrationNumber,airportFrom,blockOff,crew,eta,airportTo,price",
		`1,C-GABC,CYYC,True,"[{""id"":7}]",,,`,
		"2,N123,,,,,KLAS,1250.50",
		"",
	}, "\n")
	assert.Equal(t, want, string(data))
}

func TestExtractor_NothingFetched(t *testing.T) {
	srv := flightServer(t)
	defer srv.Close()

	store := storage.NewFSStore(afero.NewMemMapFs(), "rawdata")
	cfg := testConfig(srv.URL+"/", 404)
	_, err := New(testClient(cfg), store, cfg).Run(context.Background())
	assert.ErrorIs(t, err, ErrNoFlights)

	names, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names, "raw store is not overwritten")
}

type brokenFetcher struct{}

func (brokenFetcher) Flight(context.Context, int64) ([]byte, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func TestExtractor_TransportErrorAborts(t *testing.T) {
	store := storage.NewFSStore(afero.NewMemMapFs(), "rawdata")
	cfg := testConfig("http://unused/", 1, 2)
	_, err := New(brokenFetcher{}, store, cfg).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestNew_DefaultTable(t *testing.T) {
	cfg := testConfig("http://unused/")
	cfg.Table = ""
	e := New(brokenFetcher{}, nil, cfg)
	assert.Equal(t, "flight_data", e.table)
}
