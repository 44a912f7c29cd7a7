package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/mibandtool/wftool/internal/crypto"
	"github.com/mibandtool/wftool/internal/model"
	"github.com/mibandtool/wftool/internal/storage"
	"github.com/mibandtool/wftool/internal/wfclient"
)

// stateTTL bounds how long an authorisation link stays usable.
const stateTTL = 10 * time.Minute

// Authenticator exchanges an authorisation code for a session.
type Authenticator interface {
	LoginByCode(ctx context.Context, code string) (*model.Session, error)
}

// StateClaims is the payload of the OAuth state parameter.
type StateClaims struct {
	Nonce string `json:"nonce"`
	jwt.RegisteredClaims
}

// SessionService owns the persisted login session.
type SessionService struct {
	store     storage.Store
	auth      Authenticator
	authorize wfclient.AuthorizeConfig
	secret    []byte
	notifier  Notifier
	logger    zerolog.Logger
	now       func() time.Time
}

// NewSessionService builds SessionService. An empty stateSecret gets a random
// per-process secret, which is enough because the state is verified by the
// same process that issued it.
func NewSessionService(store storage.Store, auth Authenticator, authorize wfclient.AuthorizeConfig, stateSecret string, notifier Notifier, logger zerolog.Logger) (*SessionService, error) {
	secret := strings.TrimSpace(stateSecret)
	if secret == "" {
		generated, err := crypto.GenerateString(32)
		if err != nil {
			return nil, fmt.Errorf("generate state secret: %w", err)
		}
		secret = generated
	}
	return &SessionService{
		store:     store,
		auth:      auth,
		authorize: authorize,
		secret:    []byte(secret),
		notifier:  orDiscard(notifier),
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Current returns the stored session, or nil when nobody is logged in.
func (s *SessionService) Current(ctx context.Context) (*model.Session, error) {
	values := make(map[string]string, len(storage.SessionKeys))
	for _, k := range storage.SessionKeys {
		v, err := storage.GetOr(ctx, s.store, storage.Durable, k, "")
		if err != nil {
			return nil, err
		}
		values[k] = v
	}
	sess := &model.Session{
		OpenID:     values[storage.KeyOpenID],
		ValidToken: values[storage.KeyValidToken],
		Nickname:   values[storage.KeyNickname],
		Avatar:     values[storage.KeyAvatar],
	}
	if !sess.Valid() {
		return nil, nil
	}
	if sess.Nickname == "" {
		sess.Nickname = model.DefaultNickname
	}
	return sess, nil
}

// RequireSession returns the session or ErrNotLoggedIn, notifying the user in
// the latter case.
func (s *SessionService) RequireSession(ctx context.Context) (*model.Session, error) {
	sess, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		s.notifier.Notify(ErrNotLoggedIn.Error())
		return nil, ErrNotLoggedIn
	}
	return sess, nil
}

// Login exchanges code for a session and persists it.
func (s *SessionService) Login(ctx context.Context, code string) (*model.Session, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		s.notifier.Notify(ErrEmptyCode.Error())
		return nil, ErrEmptyCode
	}
	sess, err := s.auth.LoginByCode(ctx, code)
	if err != nil {
		s.logger.Warn().Err(err).Msg("code exchange failed")
		s.notifier.Notify(failureMessage("登录", err))
		return nil, err
	}
	if !sess.Valid() {
		err := errors.New("login response carried no identity")
		s.notifier.Notify(failureMessage("登录", err))
		return nil, err
	}
	pairs := [][2]string{
		{storage.KeyOpenID, sess.OpenID},
		{storage.KeyValidToken, sess.ValidToken},
		{storage.KeyNickname, sess.Nickname},
		{storage.KeyAvatar, sess.Avatar},
	}
	for _, kv := range pairs {
		if err := s.store.Set(ctx, storage.Durable, kv[0], kv[1]); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
	}
	if sess.Nickname == "" {
		sess.Nickname = model.DefaultNickname
	}
	s.logger.Info().Str("openid", sess.OpenID).Msg("logged in")
	s.notifier.Notify("登录成功！")
	return sess, nil
}

// Logout removes the session fields from the durable store.
func (s *SessionService) Logout(ctx context.Context) error {
	if err := s.store.Delete(ctx, storage.Durable, storage.SessionKeys...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.notifier.Notify("已退出登录")
	return nil
}

// AuthorizeURL returns the external authorisation link and the state value
// embedded in it.
func (s *SessionService) AuthorizeURL(redirectURI string) (link, state string, err error) {
	state, err = s.NewState()
	if err != nil {
		return "", "", err
	}
	cfg := s.authorize
	if redirectURI != "" {
		cfg.RedirectURI = redirectURI
	}
	link, err = wfclient.AuthorizeURL(cfg, state)
	if err != nil {
		return "", "", err
	}
	return link, state, nil
}

// NewState issues a signed, short-lived OAuth state token.
func (s *SessionService) NewState() (string, error) {
	nonce, err := crypto.GenerateString(16)
	if err != nil {
		return "", err
	}
	now := s.now()
	claims := StateClaims{
		Nonce: nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyState checks a state token issued by NewState.
func (s *SessionService) VerifyState(state string) error {
	parsed, err := jwt.ParseWithClaims(state, &StateClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if claims, ok := parsed.Claims.(*StateClaims); !ok || !parsed.Valid || claims.Nonce == "" {
		return ErrInvalidState
	}
	return nil
}
