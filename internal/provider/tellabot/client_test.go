package tellabot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(srv.Close)
	return srv, NewClient(srv.URL, "apiuser", "apikey", 0)
}

func TestClient_RequestNumber(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "apiuser", q.Get("user"))
		assert.Equal(t, "apikey", q.Get("api_key"))
		assert.Equal(t, "request", q.Get("cmd"))
		assert.Equal(t, "telegram", q.Get("service"))
		assert.Empty(t, q.Get("state"))

		_, _ = w.Write([]byte(`{"status":"ok","message":[{"id":"tx-1","mdn":"15550001111","service":"telegram","price":"0.5","till_expiration":"900"}]}`))
	})

	result, err := client.RequestNumber(context.Background(), "telegram", "random")

	require.NoError(t, err)
	assert.Equal(t, "tx-1", result.ID)
	assert.Equal(t, "15550001111", result.MDN)
	assert.Equal(t, "900", result.TillExpiration.String())
}

func TestClient_RequestNumber_StateParam(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "CA", r.URL.Query().Get("state"))
		_, _ = w.Write([]byte(`{"status":"ok","message":[{"id":"tx-2","mdn":"15550002222"}]}`))
	})

	_, err := client.RequestNumber(context.Background(), "telegram", "CA")
	require.NoError(t, err)
}

func TestClient_RequestNumber_SingleObjectMessage(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok","message":{"id":"tx-3","mdn":"15550003333"}}`))
	})

	result, err := client.RequestNumber(context.Background(), "telegram", "")

	require.NoError(t, err)
	assert.Equal(t, "tx-3", result.ID)
}

func TestClient_ReadSMS_NoMessages(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","message":"No messages"}`))
	})

	_, err := client.ReadSMS(context.Background(), "telegram", "15550001111")

	assert.ErrorIs(t, err, ErrNoMessages)
}

func TestClient_ProviderErrorPassthrough(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","message":"Service temporarily out of stock"}`))
	})

	_, err := client.RequestNumber(context.Background(), "telegram", "random")

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "Service temporarily out of stock", provErr.Message)
}

func TestClient_Reject_UnableToReject(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "reject", r.URL.Query().Get("cmd"))
		_, _ = w.Write([]byte(`{"status":"error","message":"Unable to reject this number"}`))
	})

	err := client.Reject(context.Background(), "tx-1")

	require.Error(t, err)
	assert.True(t, IsUnableToReject(err))
}

func TestClient_RentNumber_Params(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "ltr_rent", q.Get("cmd"))
		assert.Equal(t, "3", q.Get("duration"))
		assert.Equal(t, "0", q.Get("autorenew"))
		assert.Equal(t, "15550001111", q.Get("mdn"))
		_, _ = w.Write([]byte(`{"status":"ok","message":[{"id":"ltr-2","mdn":"15550001111"}]}`))
	})

	result, err := client.RentNumber(context.Background(), "telegram", "random", 3, "15550001111")

	require.NoError(t, err)
	assert.Equal(t, "ltr-2", result.ID)
}

func TestClient_ListServices(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "list_services", r.URL.Query().Get("cmd"))
		_, _ = w.Write([]byte(`{"status":"ok","message":[{"name":"telegram","price":"0.5","available":"42","ltr_available":"1","ltr_price":"12","ltr_short_price":"2.5"}]}`))
	})

	services, err := client.ListServices(context.Background())

	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, "telegram", services[0].Name)
	assert.Equal(t, "0.5", services[0].Price.String())
}

func TestIsUnableToReject(t *testing.T) {
	assert.True(t, IsUnableToReject(&ProviderError{Message: "Unable to reject this number"}))
	assert.False(t, IsUnableToReject(&ProviderError{Message: "Out of stock"}))
	assert.False(t, IsUnableToReject(context.Canceled))
}
