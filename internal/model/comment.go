package model

// Comment is a user comment attached to a watchface.
type Comment struct {
	ID       ID     `json:"id" yaml:"id"`
	Nickname string `json:"nickname" yaml:"nickname"`
	Avatar   string `json:"avator" yaml:"avatar,omitempty"`
	Content  string `json:"content" yaml:"content"`
	Time     Millis `json:"time" yaml:"time"`
	// Deletable is set by the service when the requesting user owns the comment.
	Deletable Flag `json:"delflag" yaml:"deletable"`
}

// CommentTypeWatchface is the relation type used for watchface comments.
const CommentTypeWatchface = "wf"
