package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mibandtool/wftool/internal/model"
	"github.com/mibandtool/wftool/internal/service"
	"github.com/mibandtool/wftool/internal/wfclient"
)

// previewSlots maps the names accepted by --preview to form fields.
var previewSlots = map[string]string{
	"main": wfclient.PreviewMain,
	"aod":  wfclient.PreviewAod,
	"aod2": wfclient.PreviewAod2,
	"aod3": wfclient.PreviewAod3,
}

type uploadFlags struct {
	name      string
	desc      string
	typ       string
	static    bool
	previews  map[string]string
	mitanTID  string
	mitanType string
}

func (f *uploadFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.name, "name", "", "watchface name")
	fs.StringVar(&f.desc, "desc", "", "description")
	fs.StringVar(&f.typ, "type", "", "target device codename (default: selected device)")
	fs.BoolVar(&f.static, "static", false, "the always-on preview is a static image")
	fs.StringToStringVar(&f.previews, "preview", nil, "preview images as slot=path, slot is main, aod, aod2 or aod3")
	fs.StringVar(&f.mitanTID, "mitan-tid", "", "Mitan template id")
	fs.StringVar(&f.mitanType, "mitan-type", "", "Mitan template type")
}

// apply copies the flags that were given onto req.
func (f *uploadFlags) apply(fs *pflag.FlagSet, req *service.UploadRequest) error {
	if fs.Changed("name") {
		req.Name = f.name
	}
	if fs.Changed("desc") {
		req.Desc = f.desc
	}
	if fs.Changed("type") {
		req.Type = f.typ
	}
	if fs.Changed("static") {
		req.StaticPNG = f.static
	}
	if fs.Changed("mitan-tid") {
		req.MitanTID = f.mitanTID
	}
	if fs.Changed("mitan-type") {
		req.MitanType = f.mitanType
	}
	if len(f.previews) == 0 {
		return nil
	}
	req.Previews = make(map[string]string, len(f.previews))
	for slot, path := range f.previews {
		field, ok := previewSlots[strings.ToLower(slot)]
		if !ok {
			return fmt.Errorf("unknown preview slot %q (want main, aod, aod2 or aod3)", slot)
		}
		req.Previews[field] = path
	}
	return nil
}

func newUploadCmd(a *app) *cobra.Command {
	flags := &uploadFlags{}
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a watchface (.bin or .rpk, login required)",
		Example: `  wftool upload face.bin --name 赛博时钟 --preview main=cover.png
  wftool upload face.rpk --name 极简 --type n66 --static --preview main=a.png --preview aod=b.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			device, err := a.devices.Current(ctx)
			if err != nil {
				return err
			}
			req := service.UploadRequest{FilePath: args[0], Type: device}
			if err := flags.apply(cmd.Flags(), &req); err != nil {
				return err
			}
			return a.uploads.Submit(ctx, req)
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	flags := &uploadFlags{}
	var file string
	cmd := &cobra.Command{
		Use:     "edit <id>",
		Short:   "Change one of your uploads; unset flags keep their current value",
		Example: `  wftool edit 12345 --desc 新的描述 --file face-v2.bin`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			req, err := a.uploads.LoadForEdit(ctx, model.ID(args[0]))
			if err != nil {
				return err
			}
			req.FilePath = file
			if err := flags.apply(cmd.Flags(), req); err != nil {
				return err
			}
			return a.uploads.Submit(ctx, *req)
		},
	}
	flags.register(cmd.Flags())
	cmd.Flags().StringVar(&file, "file", "", "replacement watchface file")
	return cmd
}

func newMineCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "Manage your uploaded watchfaces (login required)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listMine(cmd, a)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List your uploads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listMine(cmd, a)
		},
	}

	share := &cobra.Command{
		Use:   "share <id>",
		Short: "Make an upload public",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.resources.SetShare(cmd.Context(), model.ID(args[0]), true)
		},
	}

	unshare := &cobra.Command{
		Use:   "unshare <id>",
		Short: "Make an upload private",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.resources.SetShare(cmd.Context(), model.ID(args[0]), false)
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip the sharing state of an upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.resources.ToggleShare(cmd.Context(), model.ID(args[0]))
			return err
		},
	}

	var yes bool
	del := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an upload permanently",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm(cmd, fmt.Sprintf("确定删除表盘 %s 吗？此操作不可恢复 [y/N] ", args[0])) {
				cmd.PrintErrln("已取消")
				return nil
			}
			return a.resources.Delete(cmd.Context(), model.ID(args[0]))
		},
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	var dir string
	download := &cobra.Command{
		Use:   "download <id>",
		Short: "Download one of your uploads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.watchfaces.Download(cmd.Context(), model.ID(args[0]), dir)
			if err != nil {
				return err
			}
			cmd.Println(path)
			return nil
		},
	}
	download.Flags().StringVarP(&dir, "dir", "d", ".", "directory to save into")

	cmd.AddCommand(list, share, unshare, toggle, del, download)
	return cmd
}

func listMine(cmd *cobra.Command, a *app) error {
	items, err := a.resources.List(cmd.Context())
	if err != nil {
		return err
	}
	return a.printer.Resources(items)
}

// confirm asks a yes/no question on stdin. Anything but y or yes is a no.
func confirm(cmd *cobra.Command, prompt string) bool {
	cmd.PrintErr(prompt)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
