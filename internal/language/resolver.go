package language

import (
	"context"
	"log/slog"
	"time"

	"filearr/internal/logging"
	"filearr/internal/media/ffprobe"
)

// Resolver determines the primary audio language of a file.
type Resolver struct {
	prober  ffprobe.Prober
	timeout time.Duration
	logger  *slog.Logger
}

// NewResolver constructs a Resolver. A nil prober skips stream inspection.
func NewResolver(prober ffprobe.Prober, timeout time.Duration, logger *slog.Logger) *Resolver {
	return &Resolver{prober: prober, timeout: timeout, logger: logging.NewComponentLogger(logger, "language")}
}

// Resolve returns a 3-letter language code for path.
//
// A known stream tag other than eng/und wins. A filename hint other than
// eng/und wins next. When the remaining signal is empty, eng or und, the
// catalogue's original language is consulted for regional films. Otherwise the
// probed code (or an explicit eng hint) is returned, falling back to und.
func (r *Resolver) Resolve(ctx context.Context, path, originalLanguage, hint string) string {
	probed := r.probe(ctx, path)
	if probed != "" && probed != English && probed != Undetermined && Known(probed) {
		return probed
	}

	hint = normalizeHint(hint)
	if hint != "" && hint != English && hint != Undetermined {
		return hint
	}

	candidate := probed
	if hint == English && (candidate == "" || candidate == Undetermined) {
		candidate = English
	}
	if candidate == "" || candidate == Undetermined || candidate == English {
		if mapped := FromOriginalLanguage(originalLanguage); mapped != "" {
			return mapped
		}
	}
	if candidate == "" {
		return Undetermined
	}
	return candidate
}

// probe returns the normalized tag of the first audio stream, or "" when
// probing fails or the stream is untagged.
func (r *Resolver) probe(ctx context.Context, path string) string {
	if r == nil || r.prober == nil {
		return ""
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	result, err := r.prober.Inspect(ctx, path)
	if err != nil {
		r.logger.Debug("audio language probe failed", logging.String(logging.FieldPath, path), logging.Error(err))
		return ""
	}
	audio, ok := result.FirstAudio()
	if !ok {
		return ""
	}
	raw := ExtractFromTags(audio.Tags)
	if raw == "" {
		return ""
	}
	return ToISO3(raw)
}

func normalizeHint(hint string) string {
	if hint == "" {
		return ""
	}
	return ToISO3(hint)
}
