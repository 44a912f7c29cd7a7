package cli

import (
	"github.com/spf13/cobra"
)

func newDeviceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "List devices or switch the selected one",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List known devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			devices, err := a.devices.Devices(cmd.Context())
			if err != nil {
				return err
			}
			return a.printer.Devices(devices)
		},
	}

	use := &cobra.Command{
		Use:   "use <codename>",
		Short: "Switch device; clears cached results and reloads the listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			switched, err := a.devices.Switch(ctx, args[0])
			if err != nil || !switched {
				return err
			}
			if err := a.saveListing(ctx); err != nil {
				return err
			}
			return a.printer.Listing(a.listing.Snapshot())
		},
	}

	cmd.AddCommand(list, use)
	return cmd
}

func newThemeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark|toggle]",
		Short:     "Show or change the colour theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"light", "dark", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var (
				theme string
				err   error
			)
			switch {
			case len(args) == 0:
				theme, err = a.prefs.Theme(ctx)
			case args[0] == "toggle":
				theme, err = a.prefs.ToggleTheme(ctx)
			default:
				theme = args[0]
				err = a.prefs.SetTheme(ctx, theme)
			}
			if err != nil {
				return err
			}
			cmd.Println(theme)
			return nil
		},
	}
}
