// Package ui runs the terminal front end together with the dispatch loop.
package ui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tableflip.dev/pismo/pkg/controller"
	teaui "tableflip.dev/pismo/pkg/runner/tea"
	"tableflip.dev/pismo/pkg/settings"
	"tableflip.dev/pismo/pkg/store"
)

// UI wires the stores, the controller and the Bubble Tea program.
type UI struct {
	Config     store.Config
	Logger     *zap.Logger
	ImportPath string

	// Options are appended to the program options; tests use them to swap
	// the terminal for buffers.
	Options []tea.ProgramOption
}

// Do runs until the user quits or ctx is done. The containers are saved on
// every exit path.
func (u *UI) Do(ctx context.Context) error {
	if u.Config == nil {
		return errors.New("ui: config required")
	}
	log := u.Logger
	if log == nil {
		log = zap.NewNop()
	}

	s, err := settings.Load(u.Config.SettingsPath())
	if err != nil {
		return err
	}
	outbox, err := store.OpenOutbox(u.Config.BasePath())
	if err != nil {
		return err
	}
	data := store.Open(u.Config.BasePath(), log.Named("store"))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	var ctl *controller.Controller
	model := teaui.New(func(sig controller.Signal) { ctl.Push(sig) }, u.ImportPath)
	opts := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(gctx)}, u.Options...)
	p := tea.NewProgram(model, opts...)

	ctl = controller.New(controller.Options{
		Data:         data,
		Presenter:    teaui.NewPresenter(p.Send),
		Settings:     s,
		SettingsPath: u.Config.SettingsPath(),
		Outbox:       outbox,
		Logger:       log.Named("controller"),
	})

	g.Go(func() error {
		// Whatever ended the program, the loop still has to save.
		defer ctl.Push(controller.Quit{})
		if _, err := p.Run(); err != nil {
			if errors.Is(err, tea.ErrProgramKilled) && gctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("ui: program: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		defer cancel()
		return ctl.Run(gctx)
	})

	changes, err := settings.Watch(gctx, u.Config.SettingsPath())
	if err != nil {
		log.Warn("settings will not be reloaded", zap.Error(err))
	} else {
		g.Go(func() error {
			for range changes {
				log.Debug("settings file changed", zap.String("path", u.Config.SettingsPath()))
				ctl.Push(controller.ReloadSettings{})
			}
			return nil
		})
	}

	return g.Wait()
}
