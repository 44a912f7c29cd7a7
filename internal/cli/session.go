package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mibandtool/wftool/internal/server"
	"github.com/mibandtool/wftool/internal/service"
)

func newLoginCmd(a *app) *cobra.Command {
	var (
		code     string
		listen   bool
		printURL bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with a forum account",
		Long: `Logs in through the forum's OAuth page.

By default the authorisation link is printed and the code shown after
authorising is read from standard input. --listen instead starts a local
callback server and waits for the redirect.`,
		Example: `  wftool login
  wftool login --code 1a2b3c
  wftool login --listen
  wftool login --print-url`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			switch {
			case code != "":
				return a.login(cmd, code)
			case printURL:
				link, _, err := a.sessions.AuthorizeURL("")
				if err != nil {
					return err
				}
				cmd.Println(link)
				return nil
			case listen:
				return a.loginWithCallback(ctx, cmd)
			}

			link, _, err := a.sessions.AuthorizeURL("")
			if err != nil {
				return err
			}
			cmd.PrintErrln("在浏览器中打开以下链接完成授权：")
			cmd.Println(link)
			cmd.PrintErr("请输入授权码: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && strings.TrimSpace(line) == "" {
				return service.ErrEmptyCode
			}
			return a.login(cmd, line)
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "authorisation code obtained from the login page")
	cmd.Flags().BoolVar(&listen, "listen", false, "receive the code on a local callback server")
	cmd.Flags().BoolVar(&printURL, "print-url", false, "only print the authorisation link")
	cmd.MarkFlagsMutuallyExclusive("code", "listen", "print-url")
	return cmd
}

func (a *app) login(cmd *cobra.Command, code string) error {
	sess, err := a.sessions.Login(cmd.Context(), code)
	if err != nil {
		return err
	}
	return a.printer.Session(sess)
}

func (a *app) loginWithCallback(ctx context.Context, cmd *cobra.Command) error {
	srv := server.New(a.cfg.OAuth.ListenAddr, a.sessions, a.logger)
	ln, err := srv.Listen()
	if err != nil {
		return fmt.Errorf("start callback server: %w", err)
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.API.RequestTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn().Err(err).Msg("callback server shutdown")
		}
	}()

	link, _, err := a.sessions.AuthorizeURL(srv.RedirectURI())
	if err != nil {
		return err
	}
	cmd.PrintErrln("在浏览器中打开以下链接完成授权：")
	cmd.Println(link)

	waitCtx, cancel := context.WithTimeout(ctx, a.cfg.OAuth.WaitTimeout)
	defer cancel()
	type waited struct {
		code string
		err  error
	}
	done := make(chan waited, 1)
	go func() {
		code, err := srv.Wait(waitCtx)
		done <- waited{code, err}
	}()

	select {
	case w := <-done:
		if errors.Is(w.err, context.DeadlineExceeded) {
			return fmt.Errorf("等待授权超时")
		}
		if w.err != nil {
			return w.err
		}
		return a.login(cmd, w.code)
	case err := <-serveErr:
		return fmt.Errorf("callback server: %w", err)
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.sessions.Logout(cmd.Context())
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.sessions.Current(cmd.Context())
			if err != nil {
				return err
			}
			return a.printer.Session(sess)
		},
	}
}
