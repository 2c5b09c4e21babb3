package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JonMunkholm/exoplorer/internal/config"
	"github.com/JonMunkholm/exoplorer/internal/core"
	"github.com/JonMunkholm/exoplorer/internal/logging"
	"github.com/JonMunkholm/exoplorer/internal/storage"
)

// annotationNoStore marks commands that never touch storage.
const annotationNoStore = "exoctl/no-store"

// app carries what every subcommand needs once PersistentPreRunE ran.
type app struct {
	v     *viper.Viper
	store storage.Store
	ws    *core.Workspace
}

func newRootCmd() *cobra.Command {
	return newApp().rootCmd()
}

func newApp() *app {
	return &app{v: viper.New()}
}

func (a *app) rootCmd() *cobra.Command {
	var cfgFile string

	a.v.SetDefault("storage-driver", "sqlite")
	a.v.SetDefault("storage-dsn", "exoplorer.db")
	a.v.SetDefault("log-level", "warn")

	cmd := &cobra.Command{
		Use:           "exoctl",
		Short:         "Manage exoplorer tables and candidates",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.initConfig(cfgFile); err != nil {
				return err
			}
			logging.Setup(a.v.GetString("log-level"), "text")
			if cmd.Annotations[annotationNoStore] == "true" {
				return nil
			}
			return a.open(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (default ./exoctl.yaml if present)")
	cmd.PersistentFlags().String("storage-driver", "sqlite", "storage backend: memory, sqlite, postgres")
	cmd.PersistentFlags().String("storage-dsn", "exoplorer.db", "storage connection string or sqlite path")
	cmd.PersistentFlags().String("namespace", "", "client namespace to operate on (a browser's exo_client cookie)")
	cmd.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn, error")

	for _, name := range []string{"storage-driver", "storage-dsn", "namespace", "log-level"} {
		a.v.BindPFlag(name, cmd.PersistentFlags().Lookup(name))
	}

	cmd.AddCommand(
		newPreviewCmd(),
		newTableCmd(a),
		newCandidatesCmd(a),
	)
	a.closeOnError(cmd)

	return cmd
}

// closeOnError wraps every RunE below cmd so a failing command still closes
// the store. Cobra only runs PersistentPostRunE after a successful RunE.
func (a *app) closeOnError(cmd *cobra.Command) {
	for _, sub := range cmd.Commands() {
		a.closeOnError(sub)
	}
	run := cmd.RunE
	if run == nil {
		return
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		err := run(cmd, args)
		if err != nil {
			if cerr := a.close(); cerr != nil {
				slog.Warn("close store", "error", cerr)
			}
		}
		return err
	}
}

// initConfig layers the config file and EXOCTL_* variables under the flags.
func (a *app) initConfig(cfgFile string) error {
	a.v.SetEnvPrefix("EXOCTL")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
		return nil
	}

	a.v.SetConfigName("exoctl")
	a.v.SetConfigType("yaml")
	a.v.AddConfigPath(".")
	if err := a.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func (a *app) open(ctx context.Context) error {
	store, err := storage.Open(ctx, config.StorageConfig{
		Driver:          a.v.GetString("storage-driver"),
		DSN:             a.v.GetString("storage-dsn"),
		MaxConns:        2,
		MinConns:        0,
		MaxConnLifetime: time.Hour,
		OpTimeout:       5 * time.Second,
	})
	if err != nil {
		return err
	}

	node, err := core.NewIDNode()
	if err != nil {
		store.Close()
		return err
	}

	a.store = store
	a.ws = core.NewService(store, node).Workspace(a.v.GetString("namespace"))
	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// outputTo returns the -o destination, or the command's stdout when empty.
// The caller closes the returned writer.
func outputTo(cmd *cobra.Command, path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{cmd.OutOrStdout()}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// userError wraps err with its mapped message and code.
func userError(err error) error {
	if err == nil || !core.IsUserFacing(err) {
		return err
	}
	return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
}
