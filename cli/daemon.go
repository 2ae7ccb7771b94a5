package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"snipt/activity"
	"snipt/api"
	"snipt/config"
	"snipt/daemon"
	"snipt/engine"
	"snipt/store"
)

const (
	stopTimeout     = 5 * time.Second
	shutdownTimeout = 3 * time.Second
)

func newStartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run the expansion agent and the management API in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			port, _ := cmd.Flags().GetInt("port")
			if !cmd.Flags().Changed("port") {
				port = a.settings.API.Port
			}
			create, _ := cmd.Flags().GetBool("init")
			return a.start(cmd, port, create)
		},
	}
	cmd.Flags().IntP("port", "p", 0, "API port (default from config.yaml, 3030)")
	cmd.Flags().Bool("init", false, "Create an empty store if none exists")
	return cmd
}

func (a *app) start(cmd *cobra.Command, port int, create bool) error {
	if a.desktop == nil {
		return errors.New("this build has no desktop input support")
	}
	if err := a.paths.Ensure(); err != nil {
		return err
	}
	s := store.New(a.paths.Store)
	if create {
		if err := s.Init(); err != nil {
			return err
		}
	}
	if err := daemon.Acquire(a.paths.PID); err != nil {
		return err
	}
	defer daemon.RemovePID(a.paths.PID)

	log, closer, err := config.OpenLog(a.paths.DaemonLog, a.level)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hook, keys, fg := a.desktop(log.With("component", "desktop"))
	hub := activity.NewHub(activity.DefaultMaxEntries)
	eng := engine.New(engine.Options{
		Store:    s,
		Settings: a.settings,
		Hook:     hook,
		Keys:     keys,
		App:      fg,
		Activity: hub,
		Logger:   log,
	})

	ln, err := listen(port)
	if err != nil {
		return err
	}
	bound := ln.Addr().(*net.TCPAddr).Port
	if err := daemon.WritePort(a.paths.Port, bound); err != nil {
		ln.Close()
		return err
	}
	defer os.Remove(a.paths.Port)

	handler := api.RegisterRoutes(api.Deps{
		Store:    s,
		Activity: hub,
		Paths:    a.paths,
		Port:     bound,
		Logger:   log.With("component", "api"),
	})
	apiErr := make(chan error, 1)
	go func() { apiErr <- serve(ctx, ln, handler, log) }()

	fmt.Fprintf(cmd.OutOrStdout(), "snipt running (pid %d, api http://127.0.0.1:%d)\n", os.Getpid(), bound)
	runErr := eng.Run(ctx)
	stop()
	if err := <-apiErr; err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		log.Error("agent exited", "error", runErr)
	}
	return runErr
}

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run only the management API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			port, _ := cmd.Flags().GetInt("port")
			if !cmd.Flags().Changed("port") {
				port = a.settings.API.Port
			}
			if err := a.paths.Ensure(); err != nil {
				return err
			}
			log, closer, err := config.OpenLog(a.paths.APILog, a.level)
			if err != nil {
				return err
			}
			defer closer.Close()

			ln, err := listen(port)
			if err != nil {
				return err
			}
			bound := ln.Addr().(*net.TCPAddr).Port
			handler := api.RegisterRoutes(api.Deps{
				Store:  store.New(a.paths.Store),
				Paths:  a.paths,
				Port:   bound,
				Logger: log,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			fmt.Fprintf(cmd.OutOrStdout(), "snipt API listening on http://127.0.0.1:%d\n", bound)
			return serve(ctx, ln, handler, log)
		},
	}
	cmd.Flags().IntP("port", "p", 0, "API port (default from config.yaml, 3030)")
	return cmd
}

func newStopCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := daemon.Stop(a.paths.PID, stopTimeout)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stopped snipt (pid %d)\n", pid)
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether the agent is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			pid, err := daemon.Status(a.paths.PID)
			switch {
			case err == nil:
				fmt.Fprintf(out, "running (pid %d)\n", pid)
				if port, err := daemon.ReadPort(a.paths.Port); err == nil {
					fmt.Fprintf(out, "api: http://127.0.0.1:%d\n", port)
				}
			case errors.Is(err, daemon.ErrStalePID):
				fmt.Fprintf(out, "not running (stale pid file %s)\n", a.paths.PID)
			case errors.Is(err, daemon.ErrNotRunning):
				fmt.Fprintln(out, "not running")
			default:
				return err
			}
			fmt.Fprintf(out, "store: %s\n", a.paths.Store)
			return nil
		},
	}
}

// listen binds the API to loopback only.
func listen(port int) (net.Listener, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("listen on port %d: %w", port, err)
	}
	return ln, nil
}

// serve runs handler on ln until ctx is done, then shuts down gracefully.
func serve(ctx context.Context, ln net.Listener, handler http.Handler, log *slog.Logger) error {
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	log.Info("api listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown api: %w", err)
	}
	log.Info("api stopped")
	return nil
}
