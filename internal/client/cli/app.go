package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/otpkeeper/internal/client/capture"
	"github.com/dmitrijs2005/otpkeeper/internal/client/config"
	"github.com/dmitrijs2005/otpkeeper/internal/client/services"
	"github.com/dmitrijs2005/otpkeeper/internal/client/store"
	"github.com/dmitrijs2005/otpkeeper/internal/keyfile"
	"github.com/dmitrijs2005/otpkeeper/internal/logging"
)

// App is the application context shared by all commands.
type App struct {
	config   *config.Config
	log      logging.Logger
	store    *store.Store
	accounts services.AccountService
	pins     services.PinService
	sync     services.SyncService
	capture  *capture.Worker
	stop     context.CancelFunc
	reader   *bufio.Reader
	out      io.Writer
}

// NewApp loads the master key, opens the store and wires the services.
// Either failure leaves the vault unusable and is returned to the caller.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	src, err := keyfile.New(c.KeySource, c.DataDir)
	if err != nil {
		return nil, err
	}
	key, err := src.LoadOrCreate()
	if err != nil {
		return nil, fmt.Errorf("master key: %w", err)
	}

	st, err := store.OpenDir(ctx, c.DataDir, log)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}

	policy, err := services.ParseMergePolicy(c.MergePolicy)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	version, err := st.SchemaVersion(ctx)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("schema version: %w", err)
	}

	log.Info(ctx, "vault opened", "data_dir", c.DataDir, "key_source", c.KeySource, "schema_version", version)

	return newApp(c, log, st, key, os.Stdin, os.Stdout,
		services.WithLogger(log), services.WithMergePolicy(policy)), nil
}

func newApp(c *config.Config, log logging.Logger, st *store.Store, key []byte, in io.Reader, out io.Writer, opts ...services.Option) *App {
	ctx, stop := context.WithCancel(context.Background())
	w := capture.NewWorker(log, capture.TextDecoder)
	go w.Run(ctx)

	return &App{
		config:   c,
		log:      log,
		store:    st,
		accounts: services.NewAccountService(st, key, opts...),
		pins:     services.NewPinService(st, opts...),
		sync:     services.NewSyncService(st, opts...),
		capture:  w,
		stop:     stop,
		reader:   bufio.NewReader(in),
		out:      out,
	}
}

// Run unlocks the app and serves the REPL until exit or end of input.
func (a *App) Run(ctx context.Context) error {
	if err := a.unlock(ctx); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "otpkeeper (type 'help' for commands)")
	runREPL(ctx, a, a.reader, a.out)
	return nil
}

func (a *App) Close() error {
	a.stop()
	return a.store.Close()
}
