package model

// DeviceModel is one entry of the device catalog, keyed by model id.
type DeviceModel struct {
	Codename string `json:"codename"`
	Name     string `json:"name"`
}

// Device is a selectable device codename with its display name.
type Device struct {
	Codename string `json:"codename" yaml:"codename"`
	Name     string `json:"name" yaml:"name"`
	Active   bool   `json:"active" yaml:"active"`
}

// DefaultDevice is the codename used when nothing was selected yet.
const DefaultDevice = "o66"
