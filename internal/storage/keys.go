package storage

// Durable keys. The names match what the web client kept in localStorage so
// an exported profile reads the same in both.
const (
	KeySelectedDevice = "selectedDevice"
	KeyTheme          = "theme"
	KeyOpenID         = "openid"
	KeyValidToken     = "validtoken"
	KeyNickname       = "nickname"
	KeyAvatar         = "avatar"
)

// Temp keys.
const (
	KeyListing = "listing"
)

// SessionKeys are removed on logout.
var SessionKeys = []string{KeyOpenID, KeyValidToken, KeyNickname, KeyAvatar}

// DeviceSwitchKeep is the allow-list of durable keys kept when the device changes.
var DeviceSwitchKeep = []string{
	KeySelectedDevice,
	KeyTheme,
	KeyOpenID,
	KeyValidToken,
	KeyNickname,
	KeyAvatar,
}
