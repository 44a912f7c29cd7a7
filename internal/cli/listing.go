package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mibandtool/wftool/internal/model"
	"github.com/mibandtool/wftool/internal/render"
	"github.com/mibandtool/wftool/internal/tui"
)

// parseSort accepts a sort name or a raw index.
func parseSort(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for idx, name := range model.SortNames {
		if s == name {
			return idx, nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("unknown sort %q (want latest, downloads, views or an index)", s)
	}
	return n, nil
}

type listingFlags struct {
	sort     string
	pageSize int
}

func (f *listingFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.sort, "sort", "", "sort order: latest, downloads, views or an index")
	cmd.Flags().IntVar(&f.pageSize, "page-size", 0, "items per page (default from config)")
}

// apply restores the previous listing and applies --page-size and --sort
// without fetching.
func (f *listingFlags) apply(cmd *cobra.Command, a *app) error {
	ctx := cmd.Context()
	if _, err := a.restoreListing(ctx); err != nil {
		return err
	}
	snap := a.listing.Snapshot()
	filter := snap.Filter
	if f.sort != "" {
		sort, err := parseSort(f.sort)
		if err != nil {
			return err
		}
		filter.Sort = sort
	}
	size := snap.PageSize
	if f.pageSize > 0 {
		size = f.pageSize
	}
	// Restore with the new filter, unloaded, so the caller's transition
	// starts from page 1.
	return restoreFilter(a, filter, size)
}

func restoreFilter(a *app, filter model.ListingFilter, size int) error {
	if !a.listing.Restore(model.ListingState{Filter: filter, Page: 1, PageSize: size, HasMore: true}) {
		return fmt.Errorf("listing is busy")
	}
	return nil
}

func newListCmd(a *app) *cobra.Command {
	var flags listingFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List watchfaces for the selected device",
		Long:  "Fetches page 1 of the sorted listing. Any active search is cleared.",
		Example: `  wftool list
  wftool list --sort downloads
  wftool list -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := flags.apply(cmd, a); err != nil {
				return err
			}
			if _, err := a.listing.ClearSearch(ctx); err != nil {
				return err
			}
			if err := a.saveListing(ctx); err != nil {
				return err
			}
			return a.printer.Listing(a.listing.Snapshot())
		},
	}
	flags.register(cmd)
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var flags listingFlags
	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search watchfaces by keyword",
		Long:  "Fetches page 1 of the search results. The sort and device filters are kept.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := flags.apply(cmd, a); err != nil {
				return err
			}
			if _, err := a.listing.Search(ctx, strings.Join(args, " ")); err != nil {
				return err
			}
			if err := a.saveListing(ctx); err != nil {
				return err
			}
			return a.printer.Listing(a.listing.Snapshot())
		},
	}
	flags.register(cmd)
	return cmd
}

func newMoreCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "more",
		Short: "Fetch the next page of the last listing or search",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			restored, err := a.restoreListing(ctx)
			if err != nil {
				return err
			}
			before := len(a.listing.Snapshot().Items)
			if !restored {
				if _, err := a.listing.Refresh(ctx); err != nil {
					return err
				}
			} else if _, err := a.listing.LoadMore(ctx); err != nil {
				return err
			}
			if err := a.saveListing(ctx); err != nil {
				return err
			}
			snap := a.listing.Snapshot()
			if !all && restored {
				page := snap
				page.Items = snap.Items[before:]
				return a.printer.Listing(page)
			}
			return a.printer.Listing(snap)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "print the whole accumulated list, not only the new page")
	return cmd
}

func newBrowseCmd(a *app) *cobra.Command {
	var flags listingFlags
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse watchfaces interactively",
		Long: `Opens a scrolling list. Moving near the bottom loads the next page.

Keys: s cycles the sort order, / searches, esc clears the search,
r refreshes, q quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if !render.IsTerminal(cmd.OutOrStdout()) {
				return fmt.Errorf("browse needs an interactive terminal; use list or search instead")
			}
			restored, err := a.restoreListing(ctx)
			if err != nil {
				return err
			}
			if flags.sort != "" || flags.pageSize > 0 {
				if err := flags.apply(cmd, a); err != nil {
					return err
				}
				restored = false
			}
			if !restored {
				snap := a.listing.Snapshot()
				if err := restoreFilter(a, snap.Filter, snap.PageSize); err != nil {
					return err
				}
			}

			theme, err := a.prefs.Theme(ctx)
			if err != nil {
				return err
			}
			notices := tui.NewNotices()
			a.notifier.set(notices)
			defer a.notifier.set(writerNotifier(cmd.ErrOrStderr()))

			m := tui.NewBrowseModel(ctx, a.listing, notices, render.NewStyles(theme))
			p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithOutput(cmd.OutOrStdout()), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("browse: %w", err)
			}
			return a.saveListing(ctx)
		},
	}
	flags.register(cmd)
	return cmd
}
