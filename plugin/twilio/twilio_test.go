package twilio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCall(t *testing.T) {
	var gotPath, gotTo, gotFrom, gotTwiml string
	var gotUser, gotPass string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		require.NoError(t, r.ParseForm())
		gotTo = r.PostFormValue("To")
		gotFrom = r.PostFormValue("From")
		gotTwiml = r.PostFormValue("Twiml")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid": "CA0123456789"}`))
	}))
	defer server.Close()

	client := NewClient(Config{
		AccountSID: "AC123",
		AuthToken:  "secret",
		BaseURL:    server.URL,
	})

	sid, err := client.Call(context.Background(), "+15550002222", "+15550001111", "Reminder. Meeting: Team sync, at 14:30.")
	require.NoError(t, err)
	assert.Equal(t, "CA0123456789", sid)

	assert.Equal(t, "/Accounts/AC123/Calls.json", gotPath)
	assert.Equal(t, "AC123", gotUser)
	assert.Equal(t, "secret", gotPass)
	assert.Equal(t, "+15550002222", gotTo)
	assert.Equal(t, "+15550001111", gotFrom)
	assert.Contains(t, gotTwiml, `<Say voice="man">`)
	assert.Contains(t, gotTwiml, "Team sync")
}

func TestCallEscapesMessage(t *testing.T) {
	var gotTwiml string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotTwiml = r.PostFormValue("Twiml")
		_, _ = w.Write([]byte(`{"sid": "CA1"}`))
	}))
	defer server.Close()

	client := NewClient(Config{AccountSID: "AC123", AuthToken: "secret", BaseURL: server.URL})

	_, err := client.Call(context.Background(), "+1", "+2", `Lunch <with> "Bob" & co`)
	require.NoError(t, err)
	assert.NotContains(t, gotTwiml, "<with>")
	assert.Contains(t, gotTwiml, "&lt;with&gt;")
	assert.Contains(t, gotTwiml, "&amp; co")
}

func TestCallSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code": 20003, "message": "Authenticate"}`))
	}))
	defer server.Close()

	client := NewClient(Config{AccountSID: "AC123", AuthToken: "wrong", BaseURL: server.URL})

	_, err := client.Call(context.Background(), "+1", "+2", "msg")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestCallDryRun(t *testing.T) {
	client := NewClient(Config{DryRun: true})

	sid, err := client.Call(context.Background(), "+1", "+2", "msg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sid, "dry-"))
}

func TestIsConfigured(t *testing.T) {
	assert.True(t, NewClient(Config{AccountSID: "AC", AuthToken: "tok"}).IsConfigured())
	assert.False(t, NewClient(Config{AccountSID: "AC"}).IsConfigured())
	assert.False(t, NewClient(Config{}).IsConfigured())
}
