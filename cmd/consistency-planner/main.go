package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/iwvelando/consistency-planner/internal/analysis"
	"github.com/iwvelando/consistency-planner/internal/config"
	"github.com/iwvelando/consistency-planner/internal/fxrate"
	"github.com/iwvelando/consistency-planner/internal/logging"
	"github.com/iwvelando/consistency-planner/internal/session"
	"github.com/iwvelando/consistency-planner/internal/store"
	"github.com/iwvelando/consistency-planner/pkg/constants"
	"github.com/iwvelando/consistency-planner/pkg/output"
	"github.com/iwvelando/consistency-planner/pkg/validation"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// A missing .env file is not an error; environment overrides are optional.
	_ = godotenv.Load()

	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	save := flag.Bool("save", false, "save every analysed account to the snapshot store")
	load := flag.String("load", "", "analyse the named snapshot instead of the configured accounts")
	flag.Parse()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		return
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	ctx := context.Background()

	var snapshots store.Store
	if *save || *load != "" {
		snapshots, err = store.New(ctx, logger, conf.Store.Options())
		if err != nil {
			logger.Fatal("failed to open snapshot store",
				zap.String("op", "main"),
				zap.String("backend", conf.Store.Backend),
				zap.Error(err),
			)
		}
		defer func() {
			_ = snapshots.Close()
		}()
	}

	var results []analysis.Report
	if *load != "" {
		snapshot, err := snapshots.Load(ctx, *load)
		if err != nil {
			logger.Fatal("failed to load snapshot",
				zap.String("op", "main"),
				zap.String("name", *load),
				zap.Error(err),
			)
		}
		s, err := session.FromSnapshot(snapshot)
		if err != nil {
			logger.Fatal("stored snapshot is invalid",
				zap.String("op", "main"),
				zap.String("name", *load),
				zap.Error(err),
			)
		}
		results = []analysis.Report{analysis.Analyze(s)}
	} else {
		results, err = analysis.GetReports(logger, *conf)
		if err != nil {
			logger.Fatal("failed to analyse accounts",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}

	if *save {
		for _, result := range results {
			if err := snapshots.Save(ctx, result.Session().Snapshot()); err != nil {
				logger.Error("failed to save snapshot",
					zap.String("op", "main"),
					zap.String("name", result.Name),
					zap.Error(err),
				)
				continue
			}
			logger.Info("snapshot saved",
				zap.String("op", "main"),
				zap.String("name", result.Name),
			)
		}
	}

	local := localCurrency(ctx, logger, conf.Currency)

	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(results, local)
	case constants.OutputFormatCSV:
		output.CsvFormat(results)
	case constants.OutputFormatJSON:
		if err := output.JSONFormat(results, local); err != nil {
			logger.Fatal("failed to write output",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}
}

// localCurrency looks up the conversion rate when enabled. The lookup never
// fails; an unreachable rate service yields the fallback rate.
func localCurrency(ctx context.Context, logger *zap.Logger, cfg config.CurrencyConfig) *output.LocalCurrency {
	if !cfg.Enabled {
		return nil
	}

	provider := fxrate.NewProvider(logger, cfg.RateOptions())
	lookupCtx, cancel := context.WithTimeout(ctx, cfg.Timeout+time.Second)
	defer cancel()

	rate := provider.Rate(lookupCtx)
	logger.Debug("exchange rate resolved",
		zap.String("op", "main.localCurrency"),
		zap.String("code", rate.Code),
		zap.Float64("rate", rate.Value),
		zap.Bool("live", rate.Live),
	)
	return &output.LocalCurrency{
		Code:   rate.Code,
		Locale: cfg.Locale,
		Rate:   rate.Value,
		Live:   rate.Live,
	}
}
