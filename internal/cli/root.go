// Package cli implements the wftool command line.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	output     string
	debug      bool
}

// NewRootCmd creates the root Cobra command for the wftool CLI.
func NewRootCmd(ver string) *cobra.Command {
	cmd, _ := newRoot(ver)
	return cmd
}

// Execute runs the CLI with args and returns the process exit code. Errors
// the user was already told about are not printed a second time.
func Execute(ctx context.Context, ver string, args []string, stdout, stderr io.Writer) int {
	cmd, a := newRoot(ver)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if closeErr := a.close(); err == nil {
		err = closeErr
	}
	if err == nil {
		return 0
	}
	if !a.notifier.told() {
		fmt.Fprintln(stderr, "Error:", err)
	}
	a.logger.Debug().Err(err).Msg("command failed")
	return 1
}

func newRoot(ver string) (*cobra.Command, *app) {
	opts := &rootOptions{}
	a := &app{}

	cmd := &cobra.Command{
		Use:           "wftool",
		Short:         "Browse, download and share Mi Band watchfaces",
		Long:          "wftool: a terminal client for the community watchface library",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd, opts)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (default $XDG_CONFIG_HOME/wftool/config.yaml)")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "output format: table, json or yaml")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(
		newListCmd(a),
		newMoreCmd(a),
		newSearchCmd(a),
		newBrowseCmd(a),
		newShowCmd(a),
		newDownloadCmd(a),
		newCommentCmd(a),
		newDeviceCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newUploadCmd(a),
		newEditCmd(a),
		newMineCmd(a),
		newThemeCmd(a),
	)
	return cmd, a
}

const rootCmdExample = `  # List the newest watchfaces for the selected band
  wftool list

  # Next page of the last listing or search
  wftool more

  # Search and browse interactively
  wftool search 赛博
  wftool browse

  # Switch device
  wftool device use n66

  # Log in through a local callback
  wftool login --listen`
