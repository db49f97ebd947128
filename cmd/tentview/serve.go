package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/san-kum/tentview/internal/config"
	"github.com/san-kum/tentview/internal/mesh"
	"github.com/san-kum/tentview/internal/reactor"
	"github.com/san-kum/tentview/internal/render"
	"github.com/san-kum/tentview/internal/session"
	"github.com/san-kum/tentview/internal/tui"
	"github.com/san-kum/tentview/internal/view"
	"github.com/san-kum/tentview/internal/watch"
)

func runServe(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	var logOut io.Writer = os.Stderr
	if withTUI {
		logOut = io.Discard
	}
	logger, err := newLogger(logOut)
	if err != nil {
		return err
	}

	opts, err := reactorOptions(cmd, cfg, logger)
	if err != nil {
		return err
	}
	store := session.New(cfg.DataDir)
	if sessionID != "" {
		if err := restoreSession(store, sessionID, &opts); err != nil {
			return err
		}
	}

	var loop *reactor.Loop
	web, err := render.NewWebTarget(cfg.Addr,
		render.WithLogger(logger),
		render.WithTitle(filepath.Base(path)),
		render.WithMutationHandler(func(ctx context.Context, m view.Mutation) error {
			return loop.Handle(ctx, m)
		}),
	)
	if err != nil {
		return err
	}
	targets := render.Fanout{web}
	var term *tui.Target
	if withTUI {
		term = &tui.Target{}
		targets = append(targets, term)
	}

	r, err := reactor.Open(path, targets, opts)
	if err != nil {
		if errors.Is(err, mesh.ErrFileNotFound) {
			return fmt.Errorf("cannot open %s: file not found", path)
		}
		return err
	}
	loop = reactor.NewLoop(r)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := r.Redraw(ctx); err != nil {
		return err
	}
	go loop.Run(ctx)

	if cfg.Watch {
		w, err := watch.New(path, cfg.WatchDebounce, r.Reload, logger)
		if err != nil {
			return err
		}
		go w.Run(ctx)
		logger.Info("watching for changes", "path", path)
	}

	errc := make(chan error, 1)
	go func() { errc <- web.Start(ctx) }()

	if withTUI {
		save := func(st view.State) (string, error) {
			if err := store.Init(); err != nil {
				return "", err
			}
			return store.Save(filepath.Base(path), path, st, r.Geometry().Mesh)
		}
		err := tui.Run(ctx, r, term, tui.WithURL(web.URL()), tui.WithSave(save))
		stop()
		<-errc
		return err
	}

	select {
	case <-ctx.Done():
		return <-errc
	case err := <-errc:
		return err
	}
}

func reactorOptions(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) (reactor.Options, error) {
	opts, err := cfg.ReactorOptions(logger)
	if err != nil {
		return opts, err
	}
	if cmd.Flags().Changed("level") {
		l := level
		opts.Threshold = &l
	}
	return opts, nil
}

func restoreSession(store *session.Store, id string, opts *reactor.Options) error {
	sess, err := store.Load(id)
	if errors.Is(err, session.ErrNotFound) {
		sess, err = store.Latest(id)
	}
	if err != nil {
		return err
	}
	st := sess.State
	opts.State = st
	if !contains(opts.Colormaps, st.Colormap) {
		opts.Colormaps = append(opts.Colormaps, st.Colormap)
	}
	opts.Threshold = &st.Threshold
	return nil
}
