package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"heurbench/internal/config"
	"heurbench/internal/logging"
	"heurbench/internal/source"
	"heurbench/internal/stats"
	"heurbench/internal/storage"
	"heurbench/pkg/heurbench"
)

const memoryStore = "memory"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	return execute(ctx, args, os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCommand(stdout, stderr)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// globalFlags are shared by the root command and its subcommands.
type globalFlags struct {
	store          string
	dbPath         string
	logLevel       string
	logFormat      string
	gcsCredentials string
}

type analyzeFlags struct {
	configPath   string
	params       string
	scaling      float64
	absolute     bool
	difficult    string
	level        int
	champion     string
	championOut  string
	metric       string
	names        string
	reportJSON   string
	historyEntry string
	historyPair  string
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var global globalFlags
	var flags analyzeFlags

	root := &cobra.Command{
		Use:   "heurbenchctl",
		Short: "Compare heuristic algorithms from an experiment results log",
		Long: "heurbenchctl reads a results log and writes the comparison table " +
			"(FE, FS, BA, EBA, WD, MD, BD, AR), a difficult-instance list or a " +
			"champion instance list.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd, stdout, stderr, global, flags)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&global.store, "store", storage.DefaultStoreKind(), "analysis archive backend: memory|sqlite")
	pf.StringVar(&global.dbPath, "db-path", "heurbench.db", "sqlite database path")
	pf.StringVar(&global.logLevel, "log-level", "info", "log level: debug|info|warn|error")
	pf.StringVar(&global.logFormat, "log-format", "auto", "log format: auto|text|json")
	pf.StringVar(&global.gcsCredentials, "gcs-credentials", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"), "service account key for gs:// paths")

	f := root.Flags()
	f.StringVar(&flags.configPath, "config", "", "YAML configuration file")
	f.StringVarP(&flags.params, "params", "p", "", "parameter file naming the results log, inclusion lists and statistics output")
	f.Float64VarP(&flags.scaling, "scaling", "s", 1, "time limit scaling factor in (0, 1]")
	f.BoolVarP(&flags.absolute, "absolute", "a", false, "report FE, FS, BA and EBA as instance counts")
	f.StringVarP(&flags.difficult, "difficult", "d", "", "write the difficult instances to this file")
	f.IntVarP(&flags.level, "level", "l", 0, "most algorithms that may solve a difficult instance on every seed (default half)")
	f.StringVarP(&flags.champion, "champion", "c", "", "algorithm whose winning instances are listed")
	f.StringVarP(&flags.championOut, "champion-out", "r", "", "write the champion instances to this file")
	f.StringVarP(&flags.metric, "metric", "m", "0", "champion metric: 0=FE 1=FS 2=BA 3=EBA, or its name")
	f.StringVar(&flags.names, "names", config.DefaultNamesPath, "algorithm display-name table")
	f.StringVar(&flags.reportJSON, "report-json", "", "also write the full report as JSON")
	f.StringVar(&flags.historyEntry, "history-entry", "", "history entry delimiter (default ';')")
	f.StringVar(&flags.historyPair, "history-pair", "", "history value/time delimiter (default ':')")

	root.AddCommand(newRunsCommand(stdout, &global))
	return root
}

func runAnalyze(cmd *cobra.Command, stdout, stderr io.Writer, global globalFlags, flags analyzeFlags) error {
	ctx := cmd.Context()
	opener := source.NewOpener(global.gcsCredentials)
	defer opener.Close()

	cfg, err := resolveConfig(ctx, cmd, opener, global, flags)
	if err != nil {
		return err
	}
	if err := cfg.CheckOptions(); err != nil {
		if errors.Is(err, config.ErrInvalidConfig) {
			return usageError(err.Error())
		}
		return err
	}
	logger, err := logging.New(stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	if cfg.ParamsPath != "" {
		r, err := opener.Open(ctx, cfg.ParamsPath)
		if err != nil {
			return err
		}
		params, err := config.ReadParameterFile(r)
		_ = r.Close()
		if err != nil {
			return fmt.Errorf("parameter file %s: %w", cfg.ParamsPath, err)
		}
		cfg.ApplyParams(params)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	delims, err := cfg.Delimiters()
	if err != nil {
		return err
	}

	client, err := heurbench.New(heurbench.Options{
		StoreKind:       cfg.Store,
		DBPath:          cfg.DBPath,
		CredentialsFile: global.gcsCredentials,
		Logger:          logger,
	})
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.Init(ctx); err != nil {
		return err
	}

	inputs := heurbench.Inputs{
		Results:    cfg.Results,
		Instances:  cfg.Instances,
		Algorithms: cfg.Algorithms,
		Delimiters: delims,
	}

	switch {
	case cfg.Difficult != "":
		sel, err := client.Difficult(ctx, heurbench.DifficultRequest{
			Inputs: inputs,
			Level:  cfg.EffectiveLevel(),
			Out:    cfg.Difficult,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "difficult accepted=%d rejected=%d out=%s\n", len(sel.Accepted), sel.Rejected, cfg.Difficult)
	case cfg.Champion != "":
		sel, err := client.Champion(ctx, heurbench.ChampionRequest{
			Inputs:    inputs,
			Scaling:   cfg.EffectiveScaling(),
			Algorithm: cfg.Champion,
			Metric:    stats.Metric(cfg.EffectiveMetric()),
			Out:       cfg.ChampionOut,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "champion algorithm=%s metric=%s accepted=%d rejected=%d out=%s\n",
			cfg.Champion, stats.Metric(cfg.EffectiveMetric()), len(sel.Accepted), sel.Rejected, cfg.ChampionOut)
	default:
		archive := cfg.Store != memoryStore
		if !archive {
			logger.Warn("analysis not archived: the memory store does not outlive the process; use --store sqlite in a build with -tags sqlite")
		}
		res, err := client.Analyze(ctx, heurbench.AnalyzeRequest{
			Inputs:     inputs,
			Scaling:    cfg.EffectiveScaling(),
			Absolute:   cfg.Absolute,
			NamesPath:  cfg.Names,
			StatsOut:   cfg.Stats,
			ReportJSON: cfg.ReportJSON,
			Archive:    archive,
		})
		if err != nil {
			return err
		}
		leader := ""
		if len(res.Rows) > 0 {
			leader = res.Rows[0].Display
		}
		fmt.Fprintf(stdout, "analysis_id=%s algorithms=%d leader=%q stats=%s\n", res.AnalysisID, len(res.Rows), leader, cfg.Stats)
	}
	return nil
}

// resolveConfig layers the YAML file (if any) under the flags that were
// set explicitly.
func resolveConfig(ctx context.Context, cmd *cobra.Command, opener *source.Opener, global globalFlags, flags analyzeFlags) (config.Config, error) {
	cfg := config.Default()
	if flags.configPath != "" {
		r, err := opener.Open(ctx, flags.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg, err = config.LoadYAML(r)
		_ = r.Close()
		if err != nil {
			return config.Config{}, fmt.Errorf("config %s: %w", flags.configPath, err)
		}
	}

	changed := cmd.Flags().Changed
	if changed("params") {
		cfg.ParamsPath = flags.params
	}
	if changed("scaling") {
		cfg.Scaling = &flags.scaling
	}
	if changed("absolute") {
		cfg.Absolute = flags.absolute
	}
	if changed("difficult") {
		cfg.Difficult = flags.difficult
	}
	if changed("level") {
		cfg.Level = &flags.level
	}
	if changed("champion") {
		cfg.Champion = flags.champion
	}
	if changed("champion-out") {
		cfg.ChampionOut = flags.championOut
	}
	if changed("metric") {
		m, err := stats.ParseMetric(flags.metric)
		if err != nil {
			return config.Config{}, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
		}
		idx := int(m)
		cfg.Metric = &idx
	}
	if changed("names") {
		cfg.Names = flags.names
	}
	if changed("report-json") {
		cfg.ReportJSON = flags.reportJSON
	}
	if changed("history-entry") {
		cfg.HistoryEntry = flags.historyEntry
	}
	if changed("history-pair") {
		cfg.HistoryPair = flags.historyPair
	}
	if changed("store") || cfg.Store == "" {
		cfg.Store = global.store
	}
	if changed("db-path") || cfg.DBPath == "" {
		cfg.DBPath = global.dbPath
	}
	if changed("log-level") {
		cfg.LogLevel = global.logLevel
	}
	if changed("log-format") {
		cfg.LogFormat = global.logFormat
	}
	return cfg, nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: heurbenchctl -p <parameter file> [-s scaling] [-a] [-d file [-l level]] [-c algorithm -r file [-m metric]]", msg)
}
