// Package curator is the curator command line App. It runs one command
// against an Elasticsearch cluster and exits with a code that tells
// whether the command succeeded.
package curator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	elastic "github.com/olivere/elastic/v7" // Elasticsearch client.
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"                        // Logging.
	kingpin "gopkg.in/alecthomas/kingpin.v2" // Command line flag parsing.

	"github.com/mintel/elasticsearch-curator/internal/pkg/action"
	"github.com/mintel/elasticsearch-curator/internal/pkg/cmd"
	invoke "github.com/mintel/elasticsearch-curator/internal/pkg/curator"
	"github.com/mintel/elasticsearch-curator/internal/pkg/dispatch"
	"github.com/mintel/elasticsearch-curator/internal/pkg/elasticsearch"
	"github.com/mintel/elasticsearch-curator/internal/pkg/filter"
	"github.com/mintel/elasticsearch-curator/internal/pkg/metrics"
	"github.com/mintel/elasticsearch-curator/pkg/ctxlog"
	"github.com/mintel/elasticsearch-curator/pkg/es"
)

const (
	Name  = "curator"
	Usage = "Run a command against the indices, snapshots or cluster settings of Elasticsearch."
)

// Exit codes of App.Main.
const (
	ExitOK      = 0
	ExitFailure = 1 // An action call failed, or a search found nothing.
	ExitUsage   = 2
	ExitNoMatch = 99 // Filters left nothing to act on.
)

// dialer connects to Elasticsearch.
type dialer func(context.Context, es.Backoff, ...elastic.ClientOptionFunc) (*elasticsearch.Command, *elasticsearch.Query, error)

// App holds application state.
type App struct {
	*kingpin.Application

	flags *Flags           // Command line flags
	inst  *Instrumentation // App-specific Prometheus metrics
	out   io.Writer        // Where show and search print

	cmds struct {
		indices, snapshots, cluster, show, search *kingpin.CmdClause
	}
	command    string       // Command of the indices, snapshots and cluster commands
	showDomain string       // Domain arg of the show command
	search     *SearchFlags // Flags of the search command

	httpClient *http.Client // Instrumented, set after flags are parsed
	dial       dialer
}

// NewApp returns a new App.
func NewApp(r prometheus.Registerer) (*App, error) {
	namespace := cmd.Namespace

	m := NewInstrumentation(namespace)
	if err := r.Register(m); err != nil {
		return nil, err
	}

	app := &App{
		Application: kingpin.New(filepath.Base(os.Args[0]), Usage),
		inst:        m,
		out:         os.Stdout,
		dial:        elasticsearch.New,
	}
	app.flags = NewFlags(app.Application)

	domainCommand := func(d action.Domain, help string) *kingpin.CmdClause {
		c := app.Command(string(d), help)
		c.Arg("command", "Command to run.").
			Required().
			HintOptions(action.Default.Commands(d)...).
			StringVar(&app.command)
		return c
	}
	app.cmds.indices = domainCommand(action.Indices, "Run a command on the indices the filters select.")
	app.cmds.snapshots = domainCommand(action.Snapshots, "Run a command on the snapshots the filters select.")
	app.cmds.cluster = domainCommand(action.Cluster, "Run a command on the cluster.")

	app.cmds.show = app.Command("show", "Print the indices or snapshots the filters select.")
	app.cmds.show.Arg("domain", "indices or snapshots.").
		Required().
		EnumVar(&app.showDomain, string(action.Indices), string(action.Snapshots))

	app.cmds.search = app.Command("search", "Search indices and print the response as JSON.")
	app.search = NewSearchFlags(app.cmds.search)

	// Add action to set up the HTTP client after
	// flags are parsed.
	app.Action(func(*kingpin.ParseContext) error {
		if _, err := app.flags.ClientOptions(); err != nil {
			return err
		}
		constLabels := map[string]string{"recipient": "elasticsearch"}
		httpClient, err := metrics.InstrumentHTTP(app.flags.HTTPClient(), r, namespace, constLabels)
		if err != nil {
			return err
		}
		app.httpClient = httpClient
		return nil
	})

	return app, nil
}

// Main is the main method of App and should be called
// in main.main() after flag parsing. selected is the
// command returned by Parse. It returns the exit code.
func (app *App) Main(ctx context.Context, selected string, g prometheus.Gatherer) (code int) {
	logger := app.flags.NewLogger()
	defer func() { _ = logger.Sync() }()
	defer cmd.SetGlobalLogger(logger)()

	ctx, cancel := cmd.WithInterrupt(ctxlog.WithLogger(ctx, logger), logger)
	defer cancel()

	defer func() {
		app.inst.ExitCode.Set(float64(code))
		if code == ExitOK {
			app.inst.LastSuccess.SetToCurrentTime()
		}
		if err := app.flags.MetricsFlags.Write(g); err != nil {
			logger.Error("error writing metrics textfile", zap.Error(err))
		}
		logger.Debug("exiting", zap.Int("code", code))
	}()

	errLog, err := zap.NewStdLogAt(logger.Named("elastic"), zap.ErrorLevel)
	if err != nil {
		panic(err)
	}
	opts, err := app.flags.ClientOptions(
		elastic.SetHttpClient(app.httpClient),
		elastic.SetErrorLog(errLog),
	)
	if err != nil {
		logger.Error("bad Elasticsearch flags", zap.Error(err))
		return ExitUsage
	}
	command, query, err := app.dial(ctx, app.flags.Retry, opts...)
	if err != nil {
		logger.Error("error connecting to Elasticsearch", zap.Error(err))
		return ExitFailure
	}

	if app.flags.MasterOnly {
		master, err := query.IsLocalMaster(ctx)
		if err != nil {
			logger.Error("error checking for the elected master", zap.Error(err))
			return ExitFailure
		}
		if !master {
			logger.Info("node is not the elected master, doing nothing")
			return ExitOK
		}
	}

	if selected == app.cmds.search.FullCommand() {
		return app.runSearch(ctx, query)
	}

	var exec dispatch.Executor = command
	if app.flags.DryRun {
		exec = dispatch.DryRun{}
	}
	inv := invoke.NewInvoker(query, exec)

	switch selected {
	case app.cmds.show.FullCommand():
		return app.runShow(ctx, inv)
	case app.cmds.indices.FullCommand(), app.cmds.snapshots.FullCommand(), app.cmds.cluster.FullCommand():
		return app.runCommand(ctx, inv, selected)
	}
	logger.Error("unknown command", zap.String("command", selected))
	return ExitUsage
}

// runCommand invokes app.command in domain.
func (app *App) runCommand(ctx context.Context, inv *invoke.Invoker, domain string) int {
	logger := ctxlog.L(ctx).Named("App.runCommand")

	var filters filter.Spec
	if domain != app.cmds.cluster.FullCommand() {
		// Cluster commands act on no entities, so there is nothing to filter.
		var err error
		if filters, err = app.flags.Spec(app.command); err != nil {
			logger.Error("bad filters", zap.Error(err))
			return ExitUsage
		}
	}
	raw, err := app.flags.ActionOptions()
	if err != nil {
		logger.Error("bad options", zap.Error(err))
		return ExitUsage
	}

	report, err := inv.Invoke(ctx, invoke.Invocation{
		Domain:  domain,
		Command: app.command,
		Filters: filters,
		Options: raw,
	})
	if err != nil {
		return exitCode(err)
	}

	if report.Selected != nil {
		app.inst.Selected.WithLabelValues(string(report.Descriptor.Domain), report.Descriptor.Command).
			Set(float64(report.Selected.Len()))
	}
	if !report.OK() {
		logger.Error("command failed",
			zap.Int("failed_calls", report.Failed()),
			zap.Int("calls", len(report.Outcomes)),
			zap.Error(report.Err()),
		)
		return ExitFailure
	}
	logger.Info("command succeeded", zap.Int("calls", len(report.Outcomes)))
	return ExitOK
}

// runShow prints the names of the entities the filters select,
// one per line.
func (app *App) runShow(ctx context.Context, inv *invoke.Invoker) int {
	logger := ctxlog.L(ctx).Named("App.runShow")

	filters, err := app.flags.Spec("")
	if err != nil {
		logger.Error("bad filters", zap.Error(err))
		return ExitUsage
	}
	selected, err := inv.Select(ctx, app.showDomain, filters)
	if err != nil {
		return exitCode(err)
	}
	for _, name := range selected.Names() {
		fmt.Fprintln(app.out, name)
	}
	return ExitOK
}

// exitCode returns the exit code for an error that stopped
// an invocation before dispatch.
func exitCode(err error) int {
	switch err.(type) {
	case *filter.NoMatchError:
		return ExitNoMatch
	case *action.DomainError, *action.UnsupportedCommandError, *action.OptionError, *filter.ConfigurationError:
		return ExitUsage
	}
	return ExitFailure
}
