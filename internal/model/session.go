package model

// Session is the authenticated identity obtained from the OAuth code exchange.
type Session struct {
	OpenID     string `json:"openid" yaml:"openid"`
	ValidToken string `json:"valid_token" yaml:"-"`
	Nickname   string `json:"nickname" yaml:"nickname"`
	Avatar     string `json:"figureurl_qq" yaml:"avatar,omitempty"`
}

// DefaultNickname is shown when the service returned no nickname.
const DefaultNickname = "User"

// Valid reports whether the session carries both an identity and a token.
func (s *Session) Valid() bool {
	return s != nil && s.OpenID != "" && s.ValidToken != ""
}
