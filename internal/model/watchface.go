package model

// Watchface is a shared watchface resource as returned by the listing,
// search and "my resources" endpoints.
type Watchface struct {
	ID            ID     `json:"id" yaml:"id"`
	Name          string `json:"name" yaml:"name"`
	Desc          string `json:"desc" yaml:"desc,omitempty"`
	Preview       string `json:"preview" yaml:"preview,omitempty"`
	PreviewAod    string `json:"previewAod,omitempty" yaml:"previewAod,omitempty"`
	Type          string `json:"type" yaml:"type"`
	Nickname      string `json:"nickname" yaml:"nickname,omitempty"`
	Views         int64  `json:"views" yaml:"views"`
	DownloadTimes int64  `json:"downloadTimes" yaml:"downloadTimes"`
	FileSize      int64  `json:"filesize" yaml:"filesize"`
	IsShare       Flag   `json:"isShare" yaml:"isShare"`
	MitanTID      string `json:"mitantid,omitempty" yaml:"mitantid,omitempty"`
	MitanType     string `json:"mitantype,omitempty" yaml:"mitantype,omitempty"`
}

// DescOrDefault returns the description or a placeholder when empty.
func (w Watchface) DescOrDefault() string {
	if w.Desc == "" {
		return "暂无描述"
	}
	return w.Desc
}
