package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// settings are the resolved CLI options: flags, GAMEHOST_* environment and
// an optional settings file, in that order of precedence.
type settings struct {
	Wasm          string
	Config        string
	Sounds        []string
	Volume        float64
	Watch         bool
	RequireConfig bool
	NamedEntry    bool
	Trace         bool
	Debug         bool
	Interactive   bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Bootstrap a compiled game module",
		Long: `Loads a game module, waits for its runtime configuration and calls its
start entry exactly once.

  run --wasm game.wasm --config runtime.yaml
  run --wasm game.wasm --config runtime.yaml --watch   (wait for the file)
  run --wasm game.wasm --config runtime.yaml --sound hit.wav -i`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindSettings(v, cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := loadSettings(v)
			if s.Wasm == "" {
				return fmt.Errorf("--wasm is required")
			}
			return runGame(cmd.Context(), s)
		},
	}

	f := cmd.PersistentFlags()
	f.String("settings", "", "settings file (yaml, json or toml)")
	f.Float64("volume", 1, "playback volume for clips (linear)")
	f.Bool("trace", false, "export spans to stderr")
	f.Bool("debug", false, "debug logging")

	cmd.Flags().String("wasm", "", "path or URL of the game module")
	cmd.Flags().String("config", "", "runtime configuration file (yaml)")
	cmd.Flags().Bool("watch", false, "wait for the configuration file to appear")
	cmd.Flags().Bool("require-config", false, "fail when configuration is absent at start")
	cmd.Flags().Bool("named-entry", false, "pass the entry module to start for games that do not declare it")
	cmd.Flags().StringSlice("sound", nil, "clips to preload (repeatable)")
	cmd.Flags().BoolP("interactive", "i", false, "interactive mode with TUI")

	cmd.AddCommand(newSoundsCmd(v))
	return cmd
}

func bindSettings(v *viper.Viper, flags *pflag.FlagSet) error {
	v.SetEnvPrefix("GAMEHOST")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}

	if file := v.GetString("settings"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read settings: %w", err)
		}
	}
	return nil
}

func loadSettings(v *viper.Viper) settings {
	return settings{
		Wasm:          v.GetString("wasm"),
		Config:        v.GetString("config"),
		Sounds:        v.GetStringSlice("sound"),
		Volume:        v.GetFloat64("volume"),
		Watch:         v.GetBool("watch"),
		RequireConfig: v.GetBool("require-config"),
		NamedEntry:    v.GetBool("named-entry"),
		Trace:         v.GetBool("trace"),
		Debug:         v.GetBool("debug"),
		Interactive:   v.GetBool("interactive"),
	}
}
