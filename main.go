package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"FadingInk/internal/config"
	"FadingInk/internal/logging"
	inknet "FadingInk/internal/net"
	"FadingInk/internal/surface"
	"FadingInk/internal/ui"

	"github.com/spf13/cobra"
)

func main() {
	var (
		configPath string
		browse     bool
		debug      bool
	)
	cmd := &cobra.Command{
		Use:   "fadingink [fadingink://host:port]",
		Short: "Draw with ink that fades away, alone or with others on the LAN",
		Long: "Without a link fadingink hosts a session and prints its share link.\n" +
			"With a link, or with --browse, it joins an existing session.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if debug {
				cfg.Logging.Level = "debug"
			}
			logger, closer, err := logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			defer closer.Close()

			var link string
			if len(args) > 0 {
				link = args[0]
			}
			if err := run(cfg, logger, link, browse); err != nil {
				logger.Error("fadingink stopped", "err", err)
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "fadingink.toml", "path to the TOML configuration")
	cmd.Flags().BoolVar(&browse, "browse", false, "join the first session found on the local network")
	cmd.Flags().BoolVar(&debug, "debug", false, "log at debug level")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger, link string, browse bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	board := ui.NewBoard(logger)
	surf := surface.New(cfg, board, logger)
	board.Attach(surf)
	surf.Start(ctx)
	defer surf.Close()

	if link == "" && browse {
		addrs, err := inknet.Browse(3 * time.Second)
		if err != nil {
			logger.Warn("session discovery failed", "err", err)
		}
		if len(addrs) > 0 {
			link = inknet.LinkScheme + addrs[0]
		}
	}

	if link != "" {
		addr, err := inknet.ParseShareLink(link)
		if err != nil {
			return err
		}
		logger.Info("starting as client", "host", addr)
		board.SetStatus("Connecting to " + addr)
		ui.RunApp("", board, func() {
			go join(ctx, cfg, logger, board, surf, addr)
		})
		return nil
	}

	shareLink, stop, err := host(ctx, cfg, logger, board, surf)
	if err != nil {
		return err
	}
	defer stop()
	ui.RunApp(shareLink, board, nil)
	return nil
}

// host serves the relay for joining surfaces and returns the share link.
func host(ctx context.Context, cfg config.Config, logger *slog.Logger, board *ui.Board, surf *surface.Surface) (string, func(), error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Relay.Port))
	if err != nil {
		return "", nil, fmt.Errorf("listen on port %d: %w", cfg.Relay.Port, err)
	}

	hub := inknet.NewHub(logger)
	hub.OnStroke = func(m inknet.StrokeMessage) { surf.ApplyRemote(m) }
	hub.OnPeers = func(n int) { board.SetStatus(hostStatus(n)) }
	surf.OnStroke(hub.Broadcast)

	go func() {
		if err := inknet.Serve(ctx, ln, cfg.Relay.Path, hub); err != nil {
			logger.Error("relay stopped", "err", err)
			board.SetStatus("Relay stopped: " + err.Error())
		}
	}()

	stop := func() {}
	if cfg.Relay.Advertise {
		server, err := inknet.Advertise(cfg.Relay.Port)
		if err != nil {
			logger.Warn("mdns advertise failed", "err", err)
		} else {
			stop = func() { _ = server.Shutdown() }
		}
	}

	shareLink := inknet.ShareLink(inknet.OutgoingIP(), cfg.Relay.Port)
	logger.Info("starting as host", "link", shareLink, "path", cfg.Relay.Path)
	board.SetStatus(hostStatus(0))
	return shareLink, stop, nil
}

func hostStatus(peers int) string {
	switch peers {
	case 0:
		return "Hosting"
	case 1:
		return "Hosting, 1 peer connected"
	default:
		return fmt.Sprintf("Hosting, %d peers connected", peers)
	}
}

func join(ctx context.Context, cfg config.Config, logger *slog.Logger, board *ui.Board, surf *surface.Surface, addr string) {
	client, err := inknet.Dial(ctx, inknet.HubURL(addr, cfg.Relay.Path), logger)
	if err != nil {
		logger.Error("connection failed", "err", err)
		board.SetStatus(fmt.Sprintf("Connection failed: %v", err))
		return
	}
	client.OnStroke = func(m inknet.StrokeMessage) { surf.ApplyRemote(m) }
	surf.OnStroke(func(m inknet.StrokeMessage) {
		if err := client.Send(m); err != nil {
			logger.Warn("stroke not sent", "id", m.ID, "err", err)
		}
	})
	board.SetStatus("Connected to host as " + client.LocalAddr())

	if err := client.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Warn("disconnected from host", "err", err)
		board.SetStatus(fmt.Sprintf("Disconnected from host: %v", err))
		return
	}
	board.SetStatus("Disconnected from host")
}
