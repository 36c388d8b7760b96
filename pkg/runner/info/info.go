// Package info prints where pismo keeps its files and the effective
// settings.
package info

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"tableflip.dev/pismo/pkg/printers"
	"tableflip.dev/pismo/pkg/settings"
	"tableflip.dev/pismo/pkg/store"
)

type Info struct {
	Config store.Config
	// Output is "json" for machine readable output.
	Output string
	Out    io.Writer
}

func (n *Info) Do(ctx context.Context) error {
	if n.Config == nil {
		return errors.New("can not show info, no config")
	}
	out := n.Out
	if out == nil {
		out = color.Output
	}

	s, err := settings.Load(n.Config.SettingsPath())
	if err != nil {
		return err
	}
	masked := s.Masked()

	if n.Output == "json" {
		values := make(map[string]string, len(settings.Fields()))
		for _, f := range settings.Fields() {
			values[string(f)], _ = masked.Get(f)
		}
		b, err := json.MarshalIndent(map[string]any{
			"path":     n.Config.BasePath(),
			"settings": n.Config.SettingsPath(),
			"log":      n.Config.LogPath(),
			"values":   values,
		}, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(b))
		return err
	}

	if override := os.Getenv("PISMO_CONFIG_PATH"); override != "" {
		_, _ = fmt.Fprintln(out, "PISMO_CONFIG_PATH found on env, using", override)
	}
	_, _ = fmt.Fprintln(out, "Data:", n.Config.BasePath())
	_, _ = fmt.Fprintln(out, "Log: ", n.Config.LogPath())
	_, _ = fmt.Fprintln(out, "")

	pp := printers.PrettyPrint{Out: out}
	pp.Settings(n.Config.SettingsPath(), masked)
	return nil
}
