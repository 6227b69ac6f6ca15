package serper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serptrack/packages/retry"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(Config{
		APIKey:      "test-key",
		Endpoint:    srv.URL,
		Region:      "hk",
		Language:    "zh-tw",
		Autocorrect: true,
		Timeout:     time.Second,
	}, nil)
	require.NoError(t, err)
	return client
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.Error(t, err)
}

func TestFetchParsesOrganicResults(t *testing.T) {
	var gotReq searchRequest
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-API-KEY"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"organic":[
			{"title":"t1","link":"https://cateringbear.com/page","snippet":"s1","position":1},
			{"title":"t2","link":"https://kamadelivery.com","snippet":"s2","position":2}
		]}`))
	})

	results, err := client.Fetch(context.Background(), "到會", 3)
	require.NoError(t, err)

	assert.Equal(t, "到會", gotReq.Q)
	assert.Equal(t, "hk", gotReq.GL)
	assert.Equal(t, "zh-tw", gotReq.HL)
	assert.Equal(t, 10, gotReq.Num)
	assert.Equal(t, 3, gotReq.Page)
	assert.True(t, gotReq.Autocorrect)

	require.Len(t, results, 2)
	assert.Equal(t, "https://cateringbear.com/page", results[0].URL)
	assert.Equal(t, 3, results[0].Page)
	assert.Equal(t, 21, results[0].AbsoluteRank)
	assert.Equal(t, 22, results[1].AbsoluteRank)
}

func TestFetchFirstPageRank(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"organic":[{"link":"https://example.com","position":3}]}`))
	})

	results, err := client.Fetch(context.Background(), "kw", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 3, results[0].AbsoluteRank)
}

func TestFetchOmittedPositionDegradesRank(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"organic":[{"link":"https://example.com"}]}`))
	})

	results, err := client.Fetch(context.Background(), "kw", 2)
	require.NoError(t, err)
	require.Len(t, results, 1)
	// (2-1)*10 + 0: degraded but still a valid ordering value
	assert.Equal(t, 10, results[0].AbsoluteRank)
	assert.Equal(t, 0, results[0].Position)
}

func TestFetchMissingOrganicFieldMeansEmptyPage(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"searchParameters":{"q":"kw"}}`))
	})

	results, err := client.Fetch(context.Background(), "kw", 1)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFetchRateLimited(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Fetch(context.Background(), "kw", 1)
	assert.ErrorIs(t, err, retry.ErrRateLimited)
}

func TestFetchOtherStatusIsTransient(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	_, err := client.Fetch(context.Background(), "kw", 1)
	require.Error(t, err)
	var transient retry.TransientError
	assert.ErrorAs(t, err, &transient)
}

func TestFetchMalformedBodyIsTransient(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{`))
	})

	_, err := client.Fetch(context.Background(), "kw", 1)
	var transient retry.TransientError
	assert.ErrorAs(t, err, &transient)
}

func TestLanguageHint(t *testing.T) {
	assert.Equal(t, "zh-tw", LanguageHint("到會推介"))
	assert.Equal(t, "en", LanguageHint("best catering service hong kong"))
}
