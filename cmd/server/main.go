// Package main is the entrypoint for the clipper API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/kiranshivaraju/clipper/internal/config"
	"github.com/kiranshivaraju/clipper/internal/media"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load() // best-effort: load .env if present

	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("server failed", "error", err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var portFlag int

	rootCmd := &cobra.Command{
		Use:           "clipper",
		Short:         "Cut long videos into vertical short-form clips",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFlag, portFlag)
			if err != nil {
				return err
			}
			slog.SetDefault(newLogger(os.Stdout, cfg.SlogLevel()))
			return run(cmd.Context(), cfg)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (TOML)")
	rootCmd.Flags().IntVarP(&portFlag, "port", "p", 0, "Listen port (overrides config)")

	rootCmd.AddCommand(newCheckCommand(&configFlag))
	return rootCmd
}

// newCheckCommand reports whether the external media tools are installed.
func newCheckCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify yt-dlp, ffprobe and ffmpeg are on PATH",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFlag, 0)
			if err != nil {
				return err
			}
			tools := media.DependencyStatus(toolCommands(cfg.Tools))
			out := cmd.OutOrStdout()
			for _, t := range tools {
				if t.Available {
					fmt.Fprintf(out, "%-8s ok       %s\n", t.Name, t.Path)
				} else {
					fmt.Fprintf(out, "%-8s missing  %s\n", t.Name, t.Command)
				}
			}
			return media.CheckDependencies(tools)
		},
	}
}

func loadConfig(path string, port int) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if port != 0 {
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("load config: --port must be between 1 and 65535, got %d", port)
		}
		cfg.Server.Port = port
	}
	return cfg, nil
}

// newLogger writes text to terminals and JSON everywhere else.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func toolCommands(cfg config.ToolsConfig) map[string]string {
	return map[string]string{
		"yt-dlp":  cfg.YtDlpPath,
		"ffprobe": cfg.FFprobePath,
		"ffmpeg":  cfg.FFmpegPath,
	}
}
