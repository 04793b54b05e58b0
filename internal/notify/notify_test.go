package notify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/places-cli/internal/config"
	"github.com/sells-group/places-cli/internal/model"
)

func testSummary(success bool) Summary {
	return Summary{
		OperationID: "op-1",
		Query:       "bakery",
		Language:    "he",
		Viewport:    model.Viewport{North: 32.1, South: 32.0, East: 34.9, West: 34.8},
		Success:     success,
		ResultCount: 25,
		Timestamp:   time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
	}
}

func TestWebhookNotifier_PostsSummaryWithAttachment(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	err := n.Notify(context.Background(), testSummary(true), &Attachment{
		Filename: "places_2026-08-28T12:00:00.csv",
		Data:     []byte("\ufeffname,address\n"),
	})

	require.NoError(t, err)
	assert.Equal(t, "bakery", got.Query)
	assert.True(t, got.Success)
	assert.Equal(t, 25, got.ResultCount)
	assert.Equal(t, "places_2026-08-28T12:00:00.csv", got.AttachmentName)

	decoded, err := base64.StdEncoding.DecodeString(got.AttachmentB64)
	require.NoError(t, err)
	assert.Equal(t, "\ufeffname,address\n", string(decoded))
}

func TestWebhookNotifier_FailureStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	err := n.Notify(context.Background(), testSummary(false), nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestDispatch_SwallowsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	// Must not panic or propagate; failures are logged and dropped.
	Dispatch(context.Background(), []Notifier{NewWebhookNotifier(srv.URL)}, testSummary(true), nil)
}

func TestFromConfig(t *testing.T) {
	assert.Empty(t, FromConfig(config.NotifyConfig{}))

	ns := FromConfig(config.NotifyConfig{WebhookURL: "https://hooks.example.com/x"})
	assert.Len(t, ns, 1)

	ns = FromConfig(config.NotifyConfig{
		WebhookURL: "https://hooks.example.com/x",
		SMTP: config.SMTPConfig{
			Host: "smtp.gmail.com",
			To:   "ops@example.com",
		},
	})
	assert.Len(t, ns, 2)
}

func TestMailSubjectAndBody(t *testing.T) {
	s := testSummary(true)
	assert.Equal(t, `Place search "bakery": 25 results`, subjectLine(s))
	assert.Contains(t, bodyText(s), "Results: 25")

	s.Success = false
	s.Error = "upstream status 500"
	assert.Equal(t, `Place search "bakery" failed`, subjectLine(s))
	assert.Contains(t, bodyText(s), "Failed: upstream status 500")
}
