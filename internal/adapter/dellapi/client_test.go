package dellapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetchDriversRetriesThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusNoContent)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"DriverListData":[{"DriverName":"CPLD Firmware","DellVer":"1.2","ReleaseDate":"10 Jan 2024"}]}`))
	}))
	defer srv.Close()

	var sleeps []time.Duration
	c := NewWithClient(srv.Client(), func(d time.Duration) { sleeps = append(sleeps, d) },
		srv.URL, "en-us", 3, 2*time.Second, testLogger())

	rows, err := c.FetchDrivers(context.Background(), "poweredge-r750", "NAA")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "CPLD Firmware", rows[0].Name)
	require.Equal(t, "1.2", rows[0].Version)

	require.Equal(t, 3, attempts)
	require.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, sleeps)
}

func TestFetchDriversExhaustsRetries(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	var sleeps []time.Duration
	c := NewWithClient(srv.Client(), func(d time.Duration) { sleeps = append(sleeps, d) },
		srv.URL, "en-us", 3, 2*time.Second, testLogger())

	rows, err := c.FetchDrivers(context.Background(), "poweredge-r750", "NAA")
	require.NoError(t, err)
	require.Nil(t, rows)

	require.Equal(t, 3, attempts)
	require.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 6 * time.Second}, sleeps)
}

func TestFetchDriversRejectsWrongContentType(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>please enable javascript</html>"))
	}))
	defer srv.Close()

	c := NewWithClient(srv.Client(), func(time.Duration) {},
		srv.URL, "en-us", 2, time.Second, testLogger())

	rows, err := c.FetchDrivers(context.Background(), "poweredge-r750", "NAA")
	require.NoError(t, err)
	require.Nil(t, rows)
	require.Equal(t, 2, attempts)
}

func TestFetchDriversRequestShape(t *testing.T) {
	var gotReq *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"DriverListData":[]}`))
	}))
	defer srv.Close()

	c := NewWithClient(srv.Client(), func(time.Duration) {},
		srv.URL, "en-us", 3, time.Second, testLogger())

	rows, err := c.FetchDrivers(context.Background(), "poweredge-r750", "W2022")
	require.NoError(t, err)
	require.Empty(t, rows)

	require.NotNil(t, gotReq)
	q := gotReq.URL.Query()
	require.Equal(t, "poweredge-r750", q.Get("productcode"))
	require.Equal(t, "W2022", q.Get("oscode"))
	require.Equal(t, "PowerEdge", q.Get("lob"))
	require.Equal(t, "true", q.Get("initialload"))
	require.NotEmpty(t, q.Get("_"))

	require.Equal(t, "XMLHttpRequest", gotReq.Header.Get("x-requested-with"))
	require.Contains(t, gotReq.Header.Get("Accept"), "application/json")
	require.NotEmpty(t, gotReq.Header.Get("User-Agent"))
	require.Equal(t,
		"https://www.dell.com/support/home/en-us/product-support/product/poweredge-r750/drivers",
		gotReq.Header.Get("Referer"))
}

func TestFetchDriversCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewWithClient(srv.Client(), func(time.Duration) {},
		srv.URL, "en-us", 3, time.Second, testLogger())

	_, err := c.FetchDrivers(ctx, "poweredge-r750", "NAA")
	require.ErrorIs(t, err, context.Canceled)
}
