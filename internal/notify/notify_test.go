package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlackNotifier_PostsAlertText(t *testing.T) {
	var body struct {
		Text string `json:"text"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := notify.New(srv.URL).Notify(context.Background(), domain.AlertEvent{Difference: -600, Date: "03/04/2026"})

	require.NoError(t, err)
	assert.Equal(t, "Inventory diff is -600 from yesterday. Date: 03/04/2026.", body.Text)
}

func TestSlackNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_token", http.StatusForbidden)
	}))
	defer srv.Close()

	err := notify.New(srv.URL).Notify(context.Background(), domain.AlertEvent{Difference: 700, Date: "03/04/2026"})
	assert.Error(t, err)
}

func TestNoopNotifier(t *testing.T) {
	assert.NoError(t, notify.New("").Notify(context.Background(), domain.AlertEvent{Difference: 1}))
}
