package service

import (
	"github.com/mibandtool/wftool/internal/wfclient"
)

// Notifier surfaces short, transient messages to the user.
type Notifier interface {
	Notify(msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string)

// Notify calls f(msg).
func (f NotifierFunc) Notify(msg string) { f(msg) }

// Discard drops every message.
var Discard Notifier = NotifierFunc(func(string) {})

// failureMessage renders "<action>失败：<reason>" when the service explained
// the failure and "<action>失败，请重试" otherwise.
func failureMessage(action string, err error) string {
	if msg := wfclient.Message(err); msg != "" {
		return action + "失败：" + msg
	}
	return action + "失败，请重试"
}

func orDiscard(n Notifier) Notifier {
	if n == nil {
		return Discard
	}
	return n
}
