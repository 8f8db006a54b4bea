package alerts

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_DisabledIsNoOp(t *testing.T) {
	n := NewNotifier("", "", logrus.New())
	assert.False(t, n.Enabled())
	assert.NoError(t, n.Notify([]string{"Toxic inventory at 50.0%"}))
}

func TestNotifier_EmptyAlertsIsNoOp(t *testing.T) {
	n := NewNotifier("token", "chat", logrus.New())
	assert.NoError(t, n.Notify(nil))
}

func TestNotifier_SendsFormattedMessage(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottoken/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNotifier("token", "chat-1", logrus.New())
	n.apiBase = srv.URL

	err := n.Notify([]string{"Kaz-era win rate at 70.0% (target: >80%)"})
	require.NoError(t, err)

	assert.Equal(t, "chat-1", got["chat_id"])
	assert.Contains(t, got["text"], "Kaz-era win rate")
}

func TestNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	n := NewNotifier("bad", "chat", logrus.New())
	n.apiBase = srv.URL

	err := n.Notify([]string{"alert"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid bot token")
}
