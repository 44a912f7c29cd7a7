package tui

import tea "github.com/charmbracelet/bubbletea"

// noticeBuffer bounds how many messages may queue before new ones are dropped.
const noticeBuffer = 16

// Notices carries service notifications into the browser's status line.
type Notices chan string

// NewNotices creates a notification channel.
func NewNotices() Notices {
	return make(Notices, noticeBuffer)
}

// Notify queues msg, dropping it when the buffer is full.
func (n Notices) Notify(msg string) {
	select {
	case n <- msg:
	default:
	}
}

type noticeMsg string

func (n Notices) wait() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-n
		if !ok {
			return nil
		}
		return noticeMsg(msg)
	}
}
