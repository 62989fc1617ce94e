package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyloom/storyloom-backend/internal/common"
)

func testFetcher(maxAttempts int) *HTTPFetcher {
	return NewHTTPFetcher(FetchOptions{
		MaxAttempts: maxAttempts,
		UserAgent:   "storyloom-importer/test",
	})
}

func TestFetchSuccess(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`<html><body><div class="entry"><h3 class="entry-title">hello</h3></div></body></html>`))
	}))
	defer srv.Close()

	doc, err := testFetcher(3).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "hello", doc.Subject())
	assert.Equal(t, "storyloom-importer/test", gotUA)
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`<html><body><div class="entry"><h3 class="entry-title">eventually</h3></div></body></html>`))
	}))
	defer srv.Close()

	doc, err := testFetcher(3).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "eventually", doc.Subject())
}

func TestFetchExhaustsAttempts(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testFetcher(3).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, common.ErrOriginUnreachable)
	assert.Equal(t, 3, calls)
}

func TestFetchClientErrorIsFatal(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testFetcher(3).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, common.ErrOriginUnreachable)
	// A 404 is not transient: no second attempt.
	assert.Equal(t, 1, calls)
}

func TestFetchCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testFetcher(3).Fetch(ctx, srv.URL)
	assert.Error(t, err)
}
