// Package render writes command results as tables, JSON or YAML.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/mibandtool/wftool/internal/model"
)

// Format is an output encoding.
type Format string

// Supported formats.
const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

const tabPadding = 2

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	}
	return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Printer renders values in one format.
type Printer struct {
	w      io.Writer
	format Format
	styles Styles
	now    func() time.Time
}

// NewPrinter builds a Printer. Styling is applied only to tables written to a
// terminal.
func NewPrinter(w io.Writer, format Format, theme string) *Printer {
	styles := Plain()
	if format == FormatTable && IsTerminal(w) {
		styles = NewStyles(theme)
	}
	return &Printer{w: w, format: format, styles: styles, now: time.Now}
}

// Format returns the printer's encoding.
func (p *Printer) Format() Format { return p.format }

// Message prints a one-line notice. Structured formats skip it so their output
// stays machine readable.
func (p *Printer) Message(msg string) {
	if p.format != FormatTable {
		return
	}
	fmt.Fprintln(p.w, p.styles.Status.Render(msg))
}

// Encode writes v as JSON or YAML.
func (p *Printer) Encode(v any) error {
	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("format %s cannot encode values", p.format)
}

// Watchfaces prints a listing page.
func (p *Printer) Watchfaces(items []model.Watchface) error {
	if p.format != FormatTable {
		if items == nil {
			items = []model.Watchface{}
		}
		return p.Encode(items)
	}
	if len(items) == 0 {
		fmt.Fprintln(p.w, p.styles.Muted.Render("暂无表盘"))
		return nil
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintln(tw, "ID\t名称\t作者\t浏览\t下载\t大小")
	for _, wf := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			wf.ID, wf.Name, wf.Nickname, Count(wf.Views), Count(wf.DownloadTimes), FileSize(wf.FileSize))
	}
	return tw.Flush()
}

// Listing prints a reconciled listing with a one-line summary.
func (p *Printer) Listing(state model.ListingState) error {
	if p.format != FormatTable {
		return p.Encode(state)
	}
	if err := p.Watchfaces(state.Items); err != nil {
		return err
	}
	summary := fmt.Sprintf("设备 %s · 排序 %s · 第 %d 页 · 共 %d 个",
		state.Filter.Device, model.SortName(state.Filter.Sort), state.Page, len(state.Items))
	if state.Filter.Searching() {
		summary += " · 搜索 “" + state.Filter.Keyword + "”"
	}
	if !state.HasMore {
		summary += " · 没有更多了"
	}
	fmt.Fprintln(p.w, p.styles.Muted.Render(summary))
	return nil
}

// Detail prints a watchface with its comments.
func (p *Printer) Detail(wf model.Watchface, comments []model.Comment) error {
	if p.format != FormatTable {
		if comments == nil {
			comments = []model.Comment{}
		}
		return p.Encode(struct {
			Watchface model.Watchface `json:"watchface" yaml:"watchface"`
			Comments  []model.Comment `json:"comments" yaml:"comments"`
		}{wf, comments})
	}
	fmt.Fprintln(p.w, p.styles.Title.Render(wf.Name))
	rows := [][2]string{
		{"ID", wf.ID.String()},
		{"作者", wf.Nickname},
		{"型号", wf.Type},
		{"浏览", Count(wf.Views)},
		{"下载", Count(wf.DownloadTimes)},
		{"大小", FileSize(wf.FileSize)},
		{"预览", wf.Preview},
		{"描述", wf.DescOrDefault()},
	}
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		fmt.Fprintf(p.w, "%s  %s\n", p.styles.Label.Render(r[0]), p.styles.Value.Render(r[1]))
	}
	fmt.Fprintln(p.w)
	return p.commentsTable(comments)
}

// Comments prints a comment list.
func (p *Printer) Comments(comments []model.Comment) error {
	if p.format != FormatTable {
		if comments == nil {
			comments = []model.Comment{}
		}
		return p.Encode(comments)
	}
	return p.commentsTable(comments)
}

func (p *Printer) commentsTable(comments []model.Comment) error {
	fmt.Fprintln(p.w, p.styles.Title.Render(fmt.Sprintf("评论 (%d)", len(comments))))
	if len(comments) == 0 {
		fmt.Fprintln(p.w, p.styles.Muted.Render("暂无评论，快来抢沙发吧！"))
		return nil
	}
	now := p.now()
	for _, c := range comments {
		head := c.Nickname
		if when := RelativeTime(c.Time.Time, now); when != "" {
			head += " · " + when
		}
		if c.Deletable {
			head += " · #" + c.ID.String()
		}
		fmt.Fprintln(p.w, p.styles.Label.Render(head))
		fmt.Fprintln(p.w, "  "+c.Content)
	}
	return nil
}

// Resources prints the user's uploads with their sharing state.
func (p *Printer) Resources(items []model.Watchface) error {
	if p.format != FormatTable {
		if items == nil {
			items = []model.Watchface{}
		}
		return p.Encode(items)
	}
	if len(items) == 0 {
		fmt.Fprintln(p.w, p.styles.Muted.Render("暂无上传的表盘"))
		return nil
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintln(tw, "ID\t名称\t型号\t状态\t浏览\t下载")
	for _, wf := range items {
		status := "不公开"
		if wf.IsShare {
			status = "公开"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			wf.ID, wf.Name, wf.Type, status, Count(wf.Views), Count(wf.DownloadTimes))
	}
	return tw.Flush()
}

// Devices prints the device catalog, marking the selected device.
func (p *Printer) Devices(devices []model.Device) error {
	if p.format != FormatTable {
		return p.Encode(devices)
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintln(tw, " \t代号\t名称")
	for _, d := range devices {
		mark := " "
		if d.Active {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", mark, d.Codename, d.Name)
	}
	return tw.Flush()
}

// Session prints the logged-in user, or a hint when nobody is.
func (p *Printer) Session(sess *model.Session) error {
	if p.format != FormatTable {
		if sess == nil {
			return p.Encode(map[string]any{"loggedIn": false})
		}
		return p.Encode(map[string]any{"loggedIn": true, "openid": sess.OpenID, "nickname": sess.Nickname, "avatar": sess.Avatar})
	}
	if sess == nil {
		fmt.Fprintln(p.w, p.styles.Muted.Render("未登录"))
		return nil
	}
	fmt.Fprintf(p.w, "%s  %s\n", p.styles.Label.Render("昵称"), p.styles.Value.Render(sess.Nickname))
	fmt.Fprintf(p.w, "%s  %s\n", p.styles.Label.Render("OpenID"), p.styles.Value.Render(sess.OpenID))
	return nil
}
