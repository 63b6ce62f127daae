// Package quality scores the technical quality of a media file from its
// probed streams. The score is advisory and never gates a move.
package quality

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"filearr/internal/logging"
	"filearr/internal/media/ffprobe"
)

// MaxScore caps the additive score.
const MaxScore = 100

// Scorer probes files and scores them in [0, MaxScore].
type Scorer struct {
	prober  ffprobe.Prober
	timeout time.Duration
	logger  *slog.Logger
}

// NewScorer constructs a Scorer.
func NewScorer(prober ffprobe.Prober, timeout time.Duration, logger *slog.Logger) *Scorer {
	return &Scorer{prober: prober, timeout: timeout, logger: logging.NewComponentLogger(logger, "quality")}
}

// Score probes path and returns its score. Probe failures and files without a
// video stream score 0.
func (s *Scorer) Score(ctx context.Context, path string) int {
	if s == nil || s.prober == nil {
		return 0
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	result, err := s.prober.Inspect(ctx, path)
	if err != nil {
		s.logger.Debug("quality probe failed", logging.String(logging.FieldPath, path), logging.Error(err))
		return 0
	}
	return Evaluate(result)
}

// Evaluate scores an already-probed result.
func Evaluate(result ffprobe.Result) int {
	video, ok := result.FirstVideo()
	if !ok {
		return 0
	}

	score := resolutionPoints(video.Width, video.Height)
	score += videoCodecPoints(video.CodecName)
	if audio, ok := result.FirstAudio(); ok {
		score += audioCodecPoints(audio.CodecName)
		if audio.Channels >= 6 {
			score += 5
		}
	}
	score += bitratePoints(result.VideoBitRate())
	return min(score, MaxScore)
}

func resolutionPoints(width, height int) int {
	switch {
	case width >= 3840 || height >= 2160:
		return 35
	case width >= 1920 || height >= 1080:
		return 25
	case width >= 1280 || height >= 720:
		return 15
	default:
		return 5
	}
}

func videoCodecPoints(codec string) int {
	codec = strings.ToLower(codec)
	switch {
	case containsAny(codec, "hevc", "h265", "av1"):
		return 20
	case containsAny(codec, "h264", "avc"):
		return 15
	default:
		return 5
	}
}

func audioCodecPoints(codec string) int {
	codec = strings.ToLower(codec)
	switch {
	case containsAny(codec, "dts", "truehd", "eac3"):
		return 20
	case containsAny(codec, "ac3", "aac"):
		return 15
	default:
		return 5
	}
}

func bitratePoints(bitsPerSecond int64) int {
	switch {
	case bitsPerSecond > 15_000_000:
		return 15
	case bitsPerSecond > 8_000_000:
		return 10
	case bitsPerSecond > 2_000_000:
		return 5
	default:
		return 0
	}
}

func containsAny(value string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(value, needle) {
			return true
		}
	}
	return false
}
