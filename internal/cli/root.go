package cli

import (
	"io"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lazypower/binder/internal/client"
	"github.com/lazypower/binder/internal/config"
	"github.com/lazypower/binder/internal/engine"
	"github.com/lazypower/binder/internal/store"
	"github.com/spf13/cobra"
)

// options holds global flags and the state resolved from them before any
// subcommand runs.
type options struct {
	configPath string
	dbPath     string
	nowMs      int64
	nowSet     bool
	remote     bool
	serverURL  string
	jsonOut    bool

	cfg      config.Config
	log      *slog.Logger
	closeLog func() error
}

// Execute runs the binder command tree.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:           "binder",
		Short:         "Staleness, priority and entropy scoring for notes and tasks",
		Long:          "Binder scores a collection of notes, tasks and events: how stale each item is, how urgent, how much effort it takes, and how healthy the collection is overall.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			o.nowSet = cmd.Flags().Changed("now")
			return o.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if o.closeLog != nil {
				return o.closeLog()
			}
			return nil
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&o.configPath, "config", "", "config file (default ~/.binder/config.toml)")
	f.StringVar(&o.dbPath, "db", "", "database path (default ~/.binder/binder.db)")
	f.Int64Var(&o.nowMs, "now", 0, "evaluation instant in epoch ms (default: current time)")
	f.BoolVar(&o.remote, "remote", false, "run through a binder server instead of in-process")
	f.StringVar(&o.serverURL, "server", "", "server URL for --remote (default $BINDER_URL or "+client.DefaultServerURL+")")
	f.BoolVar(&o.jsonOut, "json", false, "print JSON instead of a table")

	root.AddCommand(
		newScoreCmd(o),
		newEntropyCmd(o),
		newHistoryCmd(o),
		newCompressCmd(o),
		newCapsCmd(o),
		newServeCmd(o),
		newPingCmd(o),
		newVersionCmd(o),
	)
	return root
}

func (o *options) setup() error {
	if o.nowSet && o.nowMs < 0 {
		return errors.Newf("--now must be a non-negative epoch ms, got %d", o.nowMs)
	}
	path := o.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if o.dbPath != "" {
		cfg.Database.Path = o.dbPath
	}
	o.cfg = cfg
	o.log, o.closeLog = config.SetupLogger(cfg.Log)
	return nil
}

// now returns the evaluation instant in epoch milliseconds.
func (o *options) now() float64 {
	if o.nowSet {
		return float64(o.nowMs)
	}
	return float64(time.Now().UnixMilli())
}

// nowPtr is now for remote calls, where nil lets the server use its clock.
func (o *options) nowPtr() *float64 {
	if o.nowSet {
		v := float64(o.nowMs)
		return &v
	}
	return nil
}

func (o *options) engine() *engine.Engine {
	return engine.New(o.log, o.cfg.Scoring.Workers)
}

func (o *options) client() *client.Client {
	return client.New(o.serverURL)
}

// openDB opens the local database and seeds it with the configured caps.
func (o *options) openDB() (*store.DB, error) {
	path := o.cfg.Database.Path
	if path == "" {
		var err error
		if path, err = store.DefaultDBPath(); err != nil {
			return nil, errors.Wrap(err, "resolve db path")
		}
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	if err := db.SeedCapConfig(o.cfg.Caps); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (o *options) remoteReady(cmd *cobra.Command) error {
	c := o.client()
	if !c.Healthy(cmd.Context()) {
		return errors.Newf("binder server not reachable at %s", c.URL())
	}
	return nil
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
