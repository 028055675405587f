package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edy93762/gesto-de-epi-sub000/internal/remotesync"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/models"
)

func TestSend(t *testing.T) {
	var (
		gotMethod string
		gotType   string
		gotBody   map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Write([]byte("not json at all"))
	}))
	defer server.Close()

	client := NewClient(func() string { return server.URL }, server.Client(), zap.NewNop())
	require.True(t, client.Configured())

	err := client.Send(context.Background(), remotesync.NewCollaboratorPush(models.Collaborator{ID: "p1", Name: "Ana"}))
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "text/plain;charset=utf-8", gotType)
	assert.Equal(t, "COLLABORATOR_ITEM", gotBody["type"])
	assert.Equal(t, "Ana", gotBody["name"])
}

func TestSendIgnoresResponseStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("script error"))
	}))
	defer server.Close()

	push := remotesync.NewCatalogPush(models.CatalogItem{Code: "LUVA01"})

	client := NewClient(func() string { return server.URL }, server.Client(), zap.NewNop())
	assert.NoError(t, client.Send(context.Background(), push))

	server.Close()
	assert.Error(t, client.Send(context.Background(), push))
}

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"collaborators":[{"name":"Ana"}],"catalog":[{"code":"LUVA01","stock":"3"}]}`))
	}))
	defer server.Close()

	client := NewClient(func() string { return server.URL }, server.Client(), zap.NewNop())
	resp, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Collaborators, 1)
	require.Len(t, resp.Catalog, 1)
	assert.Equal(t, remotesync.Stock(3), resp.Catalog[0].Stock)
}

func TestFetchErrors(t *testing.T) {
	status := http.StatusBadGateway
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte("oops"))
	}))
	defer server.Close()

	client := NewClient(func() string { return server.URL }, server.Client(), zap.NewNop())
	_, err := client.Fetch(context.Background())
	assert.Error(t, err)

	status = http.StatusOK
	_, err = client.Fetch(context.Background())
	assert.Error(t, err)
}

func TestNotConfigured(t *testing.T) {
	client := NewClient(func() string { return "" }, nil, zap.NewNop())
	assert.False(t, client.Configured())
}
