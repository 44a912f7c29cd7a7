package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mibandtool/wftool/internal/model"
)

type stubVerifier struct{ valid string }

func (v stubVerifier) VerifyState(state string) error {
	if state != v.valid {
		return errors.New("bad state")
	}
	return nil
}

func get(t *testing.T, s *CallbackServer, target string) (int, model.Response[json.RawMessage]) {
	t.Helper()
	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	var body model.Response[json.RawMessage]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func waitShort(t *testing.T, s *CallbackServer) (string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	return s.Wait(ctx)
}

func TestCallbackDeliversFirstValidCode(t *testing.T) {
	s := New("127.0.0.1:0", stubVerifier{valid: "good"}, zerolog.Nop())

	status, body := get(t, s, "/callback?code=abc&state=forged")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, body.OK())
	_, err := waitShort(t, s)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	status, body = get(t, s, "/callback?state=good")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "缺少授权码", body.Msg)

	status, body = get(t, s, "/callback?code=abc&state=good")
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, body.OK())

	status, _ = get(t, s, "/callback?code=second&state=good")
	assert.Equal(t, http.StatusOK, status)

	code, err := waitShort(t, s)
	require.NoError(t, err)
	assert.Equal(t, "abc", code)
}

func TestCallbackDenied(t *testing.T) {
	s := New("127.0.0.1:0", stubVerifier{valid: "good"}, zerolog.Nop())
	status, body := get(t, s, "/callback?error=access_denied")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, ErrDenied.Error(), body.Msg)

	_, err := waitShort(t, s)
	assert.ErrorIs(t, err, ErrDenied)
}

func TestHealthAndRedirectURI(t *testing.T) {
	s := New("127.0.0.1:8765", stubVerifier{}, zerolog.Nop())
	assert.Equal(t, "http://127.0.0.1:8765/callback", s.RedirectURI())

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListenReportsBoundPort(t *testing.T) {
	s := New("127.0.0.1:0", stubVerifier{}, zerolog.Nop())
	ln, err := s.Listen()
	require.NoError(t, err)
	defer ln.Close()
	assert.NotEqual(t, "http://127.0.0.1:0/callback", s.RedirectURI())
}
