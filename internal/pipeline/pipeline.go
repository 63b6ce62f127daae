package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"time"

	"filearr/internal/decision"
	"filearr/internal/fileutil"
	"filearr/internal/identification"
	"filearr/internal/logging"
	"filearr/internal/metrics"
	"filearr/internal/release"
	"filearr/internal/safety"
	"filearr/internal/store"
)

// StatusPlanned marks a dry-run outcome. It is never written to the ledger.
const StatusPlanned store.Status = "planned"

// Skip reasons produced by the pipeline itself.
const (
	ReasonNoTitle           = "No title could be parsed"
	ReasonLowConfidence     = "Low TMDB confidence"
	ReasonDestinationExists = "Destination already exists"
	ReasonUnsupported       = "Unsupported extension"
	ReasonCancelled         = "Classification cancelled"
)

// Producer names used in Options.Source.
const (
	SourceWatch   = "watch"
	SourceRescan  = "rescan"
	SourceCleanup = "cleanup"
	SourceManual  = "manual"
)

// Ignorer is the ignore-list collaborator.
type Ignorer interface {
	ShouldIgnore(ctx context.Context, path string) (bool, string)
}

// Gate is the safety collaborator.
type Gate interface {
	Evaluate(path string) safety.Verdict
}

// MetadataResolver identifies a movie from its filename guess.
type MetadataResolver interface {
	Resolve(ctx context.Context, filename string, guess release.Guess) (identification.Match, bool)
}

// LanguageResolver determines the primary audio language.
type LanguageResolver interface {
	Resolve(ctx context.Context, path, originalLanguage, hint string) string
}

// QualityScorer produces the advisory 0-100 score.
type QualityScorer interface {
	Score(ctx context.Context, path string) int
}

// Decider routes a classified file.
type Decider interface {
	Decide(path, lang string, score int, isCAM bool, match identification.Match, overrides decision.Overrides) decision.Decision
}

// Mover relocates a file and returns the failure cause.
type Mover interface {
	Relocate(src, dest string) error
}

// Ledger is the audit sink.
type Ledger interface {
	Record(ctx context.Context, entry store.Entry) (store.Entry, error)
}

// Notifier announces finished classifications.
type Notifier interface {
	NotifyFileRouted(ctx context.Context, filename, title, destination string) error
	NotifyFileRejected(ctx context.Context, filename, reason string) error
	NotifyFileFailed(ctx context.Context, filename, reason string) error
}

// Dependencies wires the collaborators. Ignore, Ledger, Notifier and Metrics
// may be nil.
type Dependencies struct {
	Ignore    Ignorer
	Gate      Gate
	Resolver  MetadataResolver
	Languages LanguageResolver
	Quality   QualityScorer
	Decider   Decider
	Mover     Mover
	Ledger    Ledger
	Notifier  Notifier
	Metrics   *metrics.Metrics

	// RequireConfidentMatch skips files whose resolution fell back to the
	// filename guess.
	RequireConfidentMatch bool
}

// Options tune one Process call.
type Options struct {
	Source    string
	Overrides decision.Overrides
	DryRun    bool
}

// Outcome is the result of one run.
type Outcome struct {
	Path        string                `json:"path"`
	Status      store.Status          `json:"status"`
	Reason      string                `json:"reason"`
	Destination string                `json:"destination,omitempty"`
	Match       *identification.Match `json:"match,omitempty"`
	Language    string                `json:"language,omitempty"`
	Score       int                   `json:"quality_score,omitempty"`
}

// Pipeline runs classifications. It is safe for concurrent use when its
// collaborators are.
type Pipeline struct {
	deps   Dependencies
	logger *slog.Logger
}

// New constructs a Pipeline.
func New(deps Dependencies, logger *slog.Logger) *Pipeline {
	return &Pipeline{deps: deps, logger: logging.NewComponentLogger(logger, "pipeline")}
}

// Process classifies path and, unless opts.DryRun is set, moves it and
// records the outcome. A dry run has no side effects.
func (p *Pipeline) Process(ctx context.Context, path string, opts Options) (outcome Outcome) {
	started := time.Now()
	if opts.Source == "" {
		opts.Source = SourceManual
	}
	logger := p.logger.With(
		logging.String(logging.FieldPath, path),
		logging.String(logging.FieldSource, opts.Source),
	)
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(logger, "classification panicked", "pipeline_panic",
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())),
				logging.String(logging.FieldErrorHint, "report this file name; it was left in place"),
			)
			outcome = Outcome{Path: path, Status: store.StatusFailed, Reason: fmt.Sprintf("internal error: %v", r)}
			p.record(ctx, logger, opts, outcome)
			p.notify(ctx, logger, opts, outcome)
		}
		p.deps.Metrics.ObserveClassification(string(outcome.Status), opts.Source, time.Since(started))
	}()

	outcome = p.run(ctx, logger, path, opts)
	p.record(ctx, logger, opts, outcome)
	p.notify(ctx, logger, opts, outcome)
	logger.Info("classification finished",
		logging.String("status", string(outcome.Status)),
		logging.String("reason", outcome.Reason),
		logging.String(logging.FieldDestination, outcome.Destination),
		logging.Duration("elapsed", time.Since(started)),
	)
	return outcome
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, path string, opts Options) Outcome {
	out := Outcome{Path: path}
	if err := ctx.Err(); err != nil {
		out.Status, out.Reason = store.StatusSkipped, ReasonCancelled
		return out
	}

	if p.deps.Ignore != nil {
		if ignored, reason := p.deps.Ignore.ShouldIgnore(ctx, path); ignored {
			out.Status, out.Reason = store.StatusIgnored, reason
			return out
		}
	}
	if !decision.Processable(path) {
		out.Status, out.Reason = store.StatusIgnored, ReasonUnsupported
		return out
	}

	name := filepath.Base(path)
	if release.IsCAM(name) {
		d := p.deps.Decider.Decide(path, "", 0, true, identification.Match{}, opts.Overrides)
		return p.execute(logger, out, d, store.StatusRejected, 0, opts)
	}

	verdict := p.deps.Gate.Evaluate(path)
	if !verdict.Allowed {
		out.Status, out.Reason = store.StatusSkipped, verdict.Reason
		logger.Info("safety gate rejected file", logging.Args(logging.DecisionAttrs("safety", "skipped", verdict.Reason)...)...)
		return out
	}

	match, ok := p.deps.Resolver.Resolve(ctx, name, verdict.Guess)
	if ctx.Err() != nil {
		// A lookup cut short looks like a miss; drop it instead of recording one.
		out.Status, out.Reason = store.StatusSkipped, ReasonCancelled
		return out
	}
	if !ok {
		out.Status, out.Reason = store.StatusSkipped, ReasonNoTitle
		return out
	}
	p.deps.Metrics.ObserveMatch(match.Identified())
	out.Match = &match
	if !match.Identified() && p.deps.RequireConfidentMatch {
		out.Status, out.Reason = store.StatusSkipped, ReasonLowConfidence
		return out
	}

	out.Language = p.deps.Languages.Resolve(ctx, path, match.OriginalLanguage, release.LanguageHint(name))
	out.Score = p.deps.Quality.Score(ctx, path)
	if ctx.Err() != nil {
		out.Status, out.Reason = store.StatusSkipped, ReasonCancelled
		return out
	}
	logger.Info("file analyzed",
		logging.String("title", match.String()),
		logging.Int64("tmdb_id", match.TMDBID),
		logging.String("language", out.Language),
		logging.Int("quality_score", out.Score),
	)

	d := p.deps.Decider.Decide(path, out.Language, out.Score, false, match, opts.Overrides)
	switch d.Action {
	case decision.ActionMove:
		return p.execute(logger, out, d, store.StatusProcessed, verdict.Candidate.Size, opts)
	case decision.ActionReject:
		return p.execute(logger, out, d, store.StatusRejected, verdict.Candidate.Size, opts)
	default:
		out.Status, out.Reason = store.StatusIgnored, d.Reason
		return out
	}
}

// execute carries out a move or reject decision.
func (p *Pipeline) execute(logger *slog.Logger, out Outcome, d decision.Decision, success store.Status, size int64, opts Options) Outcome {
	out.Destination = d.Destination
	if fileutil.Exists(d.Destination) {
		out.Status, out.Reason = store.StatusSkipped, ReasonDestinationExists
		logger.Warn("destination exists; leaving source in place",
			logging.String(logging.FieldDestination, d.Destination),
			logging.String(logging.FieldEventType, "destination_exists"),
			logging.String(logging.FieldErrorHint, "remove the duplicate or the existing copy"),
			logging.String(logging.FieldImpact, "file skipped"),
		)
		return out
	}
	if opts.DryRun {
		out.Status, out.Reason = StatusPlanned, d.Reason
		return out
	}
	if err := p.deps.Mover.Relocate(out.Path, d.Destination); err != nil {
		out.Status, out.Reason = store.StatusFailed, err.Error()
		return out
	}
	out.Status = success
	if success == store.StatusProcessed {
		out.Reason = "Moved to " + filepath.Base(filepath.Dir(d.Destination))
		p.deps.Metrics.AddMovedBytes(size)
	} else {
		out.Reason = d.Reason
	}
	return out
}

func (p *Pipeline) record(ctx context.Context, logger *slog.Logger, opts Options, out Outcome) {
	if p.deps.Ledger == nil || opts.DryRun || !recordable(out) {
		return
	}
	entry := store.Entry{
		Path:         out.Path,
		Status:       out.Status,
		Reason:       out.Reason,
		Destination:  out.Destination,
		Source:       opts.Source,
		Language:     out.Language,
		QualityScore: out.Score,
		Retry:        retryable(out),
	}
	if out.Match != nil {
		entry.Title = out.Match.Title
		entry.Year = out.Match.Year
		entry.TMDBID = out.Match.TMDBID
	}
	if _, err := p.deps.Ledger.Record(context.WithoutCancel(ctx), entry); err != nil {
		logging.WarnWithContext(logger, "ledger write failed", "ledger_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the filearr database"),
			logging.String(logging.FieldImpact, "file may be classified again on the next rescan"),
		)
	}
}

func (p *Pipeline) notify(ctx context.Context, logger *slog.Logger, opts Options, out Outcome) {
	if p.deps.Notifier == nil || opts.DryRun {
		return
	}
	ctx = context.WithoutCancel(ctx)
	filename := filepath.Base(out.Path)
	var err error
	switch out.Status {
	case store.StatusProcessed:
		title := ""
		if out.Match != nil {
			title = out.Match.String()
		}
		err = p.deps.Notifier.NotifyFileRouted(ctx, filename, title, out.Destination)
	case store.StatusRejected:
		err = p.deps.Notifier.NotifyFileRejected(ctx, filename, out.Reason)
	case store.StatusFailed:
		err = p.deps.Notifier.NotifyFileFailed(ctx, filename, out.Reason)
	default:
		return
	}
	if err != nil {
		logging.WarnWithContext(logger, "notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}

// retryable reports skips caused by a file that may still be growing. They
// are recorded but a rescan classifies the path again.
func retryable(out Outcome) bool {
	if out.Status != store.StatusSkipped {
		return false
	}
	return out.Reason == safety.ReasonTooSmall || out.Reason == safety.ReasonSizeUnknown
}

// recordable excludes outcomes that must not be written to the ledger.
func recordable(out Outcome) bool {
	switch {
	case out.Status == StatusPlanned, out.Status == store.StatusIgnored:
		return false
	case out.Status == store.StatusSkipped && out.Reason == ReasonCancelled:
		return false
	}
	return true
}
