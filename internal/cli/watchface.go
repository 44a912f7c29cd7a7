package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mibandtool/wftool/internal/model"
	"github.com/mibandtool/wftool/internal/render"
)

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a watchface with its comments",
		Long:  "Shows a watchface from the last listing or search, or one of your uploads. Viewing counts as a view.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			wf, err := a.findWatchface(ctx, model.ID(args[0]))
			if err != nil {
				return err
			}
			d := a.watchfaces.Detail(ctx, wf)
			return a.printer.Detail(d.Watchface, d.Comments)
		},
	}
}

func newDownloadCmd(a *app) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download a watchface file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.watchfaces.Download(cmd.Context(), model.ID(args[0]), dir)
			if err != nil {
				return err
			}
			if a.printer.Format() != render.FormatTable {
				return a.printer.Encode(map[string]string{"path": path})
			}
			cmd.Println(path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "directory to save into")
	return cmd
}

func newCommentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "List, post and delete comments",
	}

	list := &cobra.Command{
		Use:   "list <watchface-id>",
		Short: "List comments on a watchface",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			comments, err := a.comments.List(cmd.Context(), model.ID(args[0]))
			if err != nil {
				return err
			}
			return a.printer.Comments(comments)
		},
	}

	add := &cobra.Command{
		Use:   "add <watchface-id> <text...>",
		Short: "Post a comment (login required)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.comments.Add(cmd.Context(), model.ID(args[0]), strings.Join(args[1:], " "))
		},
	}

	del := &cobra.Command{
		Use:     "delete <comment-id>",
		Aliases: []string{"rm"},
		Short:   "Delete one of your comments (login required)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.comments.Delete(cmd.Context(), model.ID(args[0]))
		},
	}

	cmd.AddCommand(list, add, del)
	return cmd
}
