package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sticker2emoji/internal/app"
	"sticker2emoji/internal/config"
	"sticker2emoji/internal/handler/pack"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCommand().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\n❌ Error: %v\n", err)

		if ctx.Err() != nil {
			stop()
			os.Exit(130)
		}

		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configDir string
	opts := pack.Options{}

	rootCmd := &cobra.Command{
		Use:           "sticker2emoji <sticker pack name or URL>",
		Short:         "Convert a Telegram sticker pack into a custom emoji pack",
		Example:       "  sticker2emoji Opa4958\n  sticker2emoji https://t.me/addstickers/Opa4958 -l 20 --save-local",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Pack = args[0]

			a, err := newApp(configDir)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.Convert(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", "./config", "Directory containing app.env")

	rootCmd.Flags().StringVarP(&opts.Name, "name", "n", "", "Custom name for the emoji pack")
	rootCmd.Flags().IntVarP(&opts.Limit, "limit", "l", pack.DefaultLimit, "Max emojis")
	rootCmd.Flags().BoolVar(&opts.SaveLocal, "save-local", false, "Keep converted files in the output directory")
	rootCmd.Flags().StringVarP(&opts.OutputDir, "output", "o", "emoji_output", "Output directory for --save-local")
	rootCmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Convert only, do not publish")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run as a Telegram bot that converts packs sent to it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(configDir)
			if err != nil {
				return err
			}
			defer a.Close()

			a.Serve(cmd.Context())

			return nil
		},
	})

	return rootCmd
}

func newApp(configDir string) (*app.App, error) {
	cfg, err := config.NewConfig(configDir)
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if cfg.Debug {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	return app.New(cfg)
}
