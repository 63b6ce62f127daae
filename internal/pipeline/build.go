package pipeline

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"filearr/internal/config"
	"filearr/internal/decision"
	"filearr/internal/identification"
	"filearr/internal/identification/tmdb"
	"filearr/internal/ignore"
	"filearr/internal/language"
	"filearr/internal/media/ffprobe"
	"filearr/internal/metrics"
	"filearr/internal/organizer"
	"filearr/internal/quality"
	"filearr/internal/safety"
	"filearr/internal/store"
)

// Runtime bundles a pipeline with the shared collaborators the daemon also
// needs.
type Runtime struct {
	Pipeline *Pipeline
	Settings config.Provider
	Search   *identification.Search
}

// Build wires the production collaborators from cfg. st may be nil for
// one-shot runs without persistence; m and notifier may be nil.
func Build(cfg *config.Config, st *store.Store, m *metrics.Metrics, notifier Notifier, logger *slog.Logger) *Runtime {
	var (
		source  config.SettingsSource
		ignorer Ignorer
		ledger  Ledger
	)
	if st != nil {
		source = st
		ignorer = ignore.NewFilter(st, logger)
		ledger = st
	}
	settings := config.NewLayered(cfg, source)

	search := identification.NewSearch(
		identification.NewProviderClients(settings, cfg.TMDB.BaseURL, cfg.TMDB.Language,
			tmdb.WithTimeout(seconds(cfg.TMDB.TimeoutSeconds))),
		time.Duration(cfg.TMDB.CacheMinutes)*time.Minute,
		cfg.TMDB.RequestsPerSec,
	)
	prober := ffprobe.Command{Binary: cfg.FFprobeBinary()}
	probeTimeout := seconds(cfg.Pipeline.ProbeTimeoutSeconds)

	deps := Dependencies{
		Ignore:                ignorer,
		Gate:                  safety.New(safety.WithMinSize(minSizeFrom(settings))),
		Resolver:              identification.NewResolver(search, seconds(cfg.TMDB.TimeoutSeconds), logger),
		Languages:             language.NewResolver(prober, probeTimeout, logger),
		Quality:               quality.NewScorer(prober, probeTimeout, logger),
		Decider:               decision.NewEngine(settings),
		Mover:                 organizer.NewMover(organizer.PermissionsFromConfig(cfg), logger),
		Ledger:                ledger,
		Notifier:              notifier,
		Metrics:               m,
		RequireConfidentMatch: cfg.Pipeline.RequireConfidentMatch,
	}
	return &Runtime{
		Pipeline: New(deps, logger),
		Settings: settings,
		Search:   search,
	}
}

// minSizeFrom reads the size threshold from settings on every evaluation so a
// changed setting applies to the next file.
func minSizeFrom(settings config.Provider) func() int64 {
	return func() int64 {
		mib, err := strconv.ParseInt(strings.TrimSpace(settings.Get(config.KeyMinSizeMiB)), 10, 64)
		if err != nil || mib < 0 {
			return safety.DefaultMinSize
		}
		return mib * 1024 * 1024
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
