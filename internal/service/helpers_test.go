package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mibandtool/wftool/internal/model"
	"github.com/mibandtool/wftool/internal/storage"
	"github.com/mibandtool/wftool/internal/storage/bolt"
	"github.com/mibandtool/wftool/internal/wfclient"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := bolt.New(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

type fakeAuth struct {
	sess *model.Session
	err  error
	code string
}

func (a *fakeAuth) LoginByCode(_ context.Context, code string) (*model.Session, error) {
	a.code = code
	if a.err != nil {
		return nil, a.err
	}
	return a.sess, nil
}

var testAuthorize = wfclient.AuthorizeConfig{
	URL:         "https://auth.example.com/authorize",
	ClientID:    "client",
	RedirectURI: "https://example.com/callback",
	Scope:       "all",
}

func newTestSessions(t *testing.T, store storage.Store, n Notifier) *SessionService {
	t.Helper()
	s, err := NewSessionService(store, &fakeAuth{}, testAuthorize, "secret", n, zerolog.Nop())
	require.NoError(t, err)
	return s
}

// login stores a session directly, bypassing the code exchange.
func login(t *testing.T, store storage.Store) *model.Session {
	t.Helper()
	ctx := context.Background()
	sess := &model.Session{OpenID: "oid", ValidToken: "tok", Nickname: "Alice"}
	require.NoError(t, store.Set(ctx, storage.Durable, storage.KeyOpenID, sess.OpenID))
	require.NoError(t, store.Set(ctx, storage.Durable, storage.KeyValidToken, sess.ValidToken))
	require.NoError(t, store.Set(ctx, storage.Durable, storage.KeyNickname, sess.Nickname))
	return sess
}
