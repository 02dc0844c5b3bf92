// Package cli implements the tokenwise command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	urfave "github.com/urfave/cli/v2"

	"tokenwise/internal/bootstrap"
	"tokenwise/internal/config"
	"tokenwise/internal/logger"
	"tokenwise/internal/refresh"
	"tokenwise/internal/report"
	"tokenwise/internal/storage"
	"tokenwise/internal/symbols"
)

// StoreOpener opens the stores for a command.
type StoreOpener func(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage.Stores, error)

// SymbolResolver resolves counter mints for wallet_transactions.
type SymbolResolver interface {
	Resolve(ctx context.Context, mint string) string
}

// ResolverFactory builds the resolver for a command.
type ResolverFactory func(cfg *config.Config, log *logger.Logger) SymbolResolver

// Runner carries the command dependencies.
type Runner struct {
	stdout      io.Writer
	stderr      io.Writer
	openStores  StoreOpener
	newResolver ResolverFactory

	cfg     *config.Config
	log     *logger.Logger
	printer *Printer
}

// Option configures a Runner.
type Option func(*Runner)

// WithOutput redirects command output.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// WithStoreOpener replaces the store factory.
func WithStoreOpener(fn StoreOpener) Option {
	return func(r *Runner) { r.openStores = fn }
}

// WithResolverFactory replaces the symbol resolver factory.
func WithResolverFactory(fn ResolverFactory) Option {
	return func(r *Runner) { r.newResolver = fn }
}

func defaultStoreOpener(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage.Stores, error) {
	return bootstrap.OpenStores(ctx, cfg.StoreConfig, bootstrap.StoreOptions{MaxConns: 1}, log)
}

func defaultResolverFactory(cfg *config.Config, log *logger.Logger) SymbolResolver {
	rpc := bootstrap.NewRPCClient(cfg.SolanaConfig, nil)
	return symbols.NewResolver(rpc, symbols.NewMapCache(), log, nil)
}

// NewApp builds the urfave/cli application.
func NewApp(opts ...Option) *urfave.App {
	r := &Runner{
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		openStores:  defaultStoreOpener,
		newResolver: defaultResolverFactory,
	}
	for _, opt := range opts {
		opt(r)
	}

	return &urfave.App{
		Name:      "tokenwise",
		Usage:     "Inspect the top holders of a token and their trades",
		Writer:    r.stdout,
		ErrWriter: r.stderr,
		Flags:     globalFlags(),
		Before:    r.setup,
		Commands: []*urfave.Command{
			{
				Name:   "top_wallets",
				Usage:  "Show the top token holders",
				Flags:  []urfave.Flag{&urfave.IntFlag{Name: "limit", Value: storage.DefaultTopLimit, Usage: "number of wallets"}},
				Action: r.topWallets,
			},
			{
				Name:      "wallet_transactions",
				Usage:     "Show recent transactions of the wallet at a position",
				ArgsUsage: "POSITION",
				Action:    r.walletTransactions,
			},
			{
				Name:   "refresh",
				Usage:  "Ask the server to refresh the top wallets",
				Action: r.refresh,
			},
			{
				Name:      "summarize",
				Usage:     "Summarize the trades of the wallet at a position between two dates",
				ArgsUsage: "POSITION",
				Flags: []urfave.Flag{
					&urfave.StringFlag{Name: "start_date", Required: true, Usage: "start date, YYYY-MM-DD"},
					&urfave.StringFlag{Name: "end_date", Required: true, Usage: "end date, YYYY-MM-DD"},
				},
				Action: r.summarize,
			},
		},
	}
}

func globalFlags() []urfave.Flag {
	return []urfave.Flag{
		&urfave.StringFlag{Name: "store", Usage: "store backend: sqlite, postgres or memory"},
		&urfave.StringFlag{Name: "sqlite-path", Usage: "SQLite database file"},
		&urfave.StringFlag{Name: "postgres-dsn", Usage: "Postgres connection string"},
		&urfave.StringFlag{Name: "clickhouse-dsn", Usage: "ClickHouse connection string for transactions"},
		&urfave.StringFlag{Name: "rpc-endpoint", Usage: "Solana RPC endpoint"},
		&urfave.StringFlag{Name: "refresh-url", Usage: "refresh trigger URL"},
		&urfave.StringFlag{Name: "timezone", Usage: "display timezone"},
		&urfave.BoolFlag{Name: "no-color", Usage: "disable colored output"},
		&urfave.StringFlag{Name: "log-level", Value: "warn", Usage: "log level"},
	}
}

// setup loads the configuration, applies flag overrides and builds the
// logger and printer.
func (r *Runner) setup(c *urfave.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	overrides := []struct {
		flag string
		dst  *string
	}{
		{"store", &cfg.Backend},
		{"sqlite-path", &cfg.SQLitePath},
		{"postgres-dsn", &cfg.PostgresDSN},
		{"clickhouse-dsn", &cfg.ClickhouseDSN},
		{"rpc-endpoint", &cfg.RPCEndpoint},
		{"refresh-url", &cfg.URL},
		{"timezone", &cfg.Timezone},
	}
	for _, o := range overrides {
		if c.IsSet(o.flag) {
			*o.dst = c.String(o.flag)
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	log, err := logger.New(c.String("log-level"), cfg.Env)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	r.cfg = cfg
	r.log = log
	r.printer = NewPrinter(r.stdout, loc, !c.Bool("no-color"))
	return nil
}

// withStores opens the stores for the duration of fn.
func (r *Runner) withStores(c *urfave.Context, fn func(*report.Service) error) error {
	stores, err := r.openStores(c.Context, r.cfg, r.log)
	if err != nil {
		r.log.Errorw("store unavailable", "store", r.cfg.Backend, "error", err)
		return fmt.Errorf("open store: %w", err)
	}
	if stores.Close != nil {
		defer stores.Close()
	}
	return fn(report.NewService(stores.Wallets, stores.Transactions))
}

func (r *Runner) topWallets(c *urfave.Context) error {
	limit := c.Int("limit")
	if limit < 1 {
		return fmt.Errorf("invalid --limit %d: must be positive", limit)
	}

	return r.withStores(c, func(svc *report.Service) error {
		wallets, err := svc.ListTopWallets(c.Context, limit)
		if err != nil {
			return err
		}
		r.printer.TopWallets(wallets)
		return nil
	})
}

func (r *Runner) walletTransactions(c *urfave.Context) error {
	position, err := parsePosition(c)
	if err != nil {
		return err
	}

	return r.withStores(c, func(svc *report.Service) error {
		wt, err := svc.ListWalletTransactions(c.Context, position)
		if err != nil {
			return err
		}
		if wt == nil {
			r.printer.WalletNotFound(position)
			return nil
		}

		resolver := r.newResolver(r.cfg, r.log)
		r.printer.Transactions(wt, func(mint string) string {
			return resolver.Resolve(c.Context, mint)
		})
		return nil
	})
}

func (r *Runner) summarize(c *urfave.Context) error {
	position, err := parsePosition(c)
	if err != nil {
		return err
	}

	start, err := report.ParseDate(c.String("start_date"), r.printer.loc)
	if err != nil {
		return fmt.Errorf("--start_date: %w", err)
	}
	end, err := report.ParseDate(c.String("end_date"), r.printer.loc)
	if err != nil {
		return fmt.Errorf("--end_date: %w", err)
	}

	return r.withStores(c, func(svc *report.Service) error {
		summary, err := svc.Summarize(c.Context, position, start, end)
		if err != nil {
			return err
		}
		r.printer.Summary(summary)
		return nil
	})
}

func (r *Runner) refresh(c *urfave.Context) error {
	client := refresh.NewClient(r.cfg.URL, nil)

	resp, err := client.Trigger(c.Context)
	if err != nil {
		var statusErr *refresh.StatusError
		if errors.As(err, &statusErr) {
			r.printer.RefreshFailed(statusErr)
			return nil
		}
		return fmt.Errorf("refresh: %w", err)
	}

	r.printer.RefreshSucceeded(resp)
	return nil
}

// ErrInvalidPosition is returned for a missing or non-numeric position.
var ErrInvalidPosition = errors.New("invalid position")

func parsePosition(c *urfave.Context) (int, error) {
	if c.NArg() < 1 {
		return 0, fmt.Errorf("%w: POSITION is required", ErrInvalidPosition)
	}
	raw := c.Args().First()
	position, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w %q: must be an integer", ErrInvalidPosition, raw)
	}
	return position, nil
}

// commandTimeout bounds a whole command, refresh included.
const commandTimeout = 15 * time.Minute

// Run executes the app and returns the process exit code.
func Run(ctx context.Context, args []string, opts ...Option) int {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	app := NewApp(opts...)
	if err := app.RunContext(ctx, flagsFirst(args)); err != nil {
		fmt.Fprintf(app.ErrWriter, "Error: %v\n", err)
		return 1
	}
	return 0
}

// valueFlags are command flags that consume the following token.
var valueFlags = map[string]bool{
	"--limit": true, "-limit": true,
	"--start_date": true, "-start_date": true,
	"--end_date": true, "-end_date": true,
}

// flagsFirst moves command flags ahead of positional arguments so that
// "summarize 3 --start_date X" parses like "summarize --start_date X 3".
// Global flags before the command are left alone.
func flagsFirst(args []string) []string {
	cmd := -1
	for i := 1; i < len(args); i++ {
		if !strings.HasPrefix(args[i], "-") && isCommand(args[i]) {
			cmd = i
			break
		}
	}
	if cmd < 0 {
		return args
	}

	out := append([]string{}, args[:cmd+1]...)
	var (
		positional []string
		terminate  bool
	)
	rest := args[cmd+1:]
	for i := 0; i < len(rest); i++ {
		tok := rest[i]
		switch {
		case tok == "--":
			terminate = true
			positional = append(positional, rest[i+1:]...)
			i = len(rest)
		case strings.HasPrefix(tok, "-") && len(tok) > 1 && !isNumber(tok):
			out = append(out, tok)
			if valueFlags[tok] && i+1 < len(rest) {
				out = append(out, rest[i+1])
				i++
			}
		default:
			if strings.HasPrefix(tok, "-") {
				terminate = true
			}
			positional = append(positional, tok)
		}
	}
	if terminate {
		out = append(out, "--")
	}
	return append(out, positional...)
}

func isCommand(name string) bool {
	switch name {
	case "top_wallets", "wallet_transactions", "refresh", "summarize":
		return true
	}
	return false
}

func isNumber(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}
