package quality

import (
	"context"
	"errors"
	"testing"

	"filearr/internal/media/ffprobe"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		result ffprobe.Result
		want   int
	}{
		{
			name:   "no video stream",
			result: ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "audio", CodecName: "aac"}}},
			want:   0,
		},
		{
			name: "4k hevc truehd 7.1 high bitrate",
			result: ffprobe.Result{
				Streams: []ffprobe.Stream{
					{CodecType: "video", CodecName: "hevc", Width: 3840, Height: 1600, BitRate: "40000000"},
					{CodecType: "audio", CodecName: "truehd", Channels: 8},
				},
			},
			want: 35 + 20 + 20 + 5 + 15,
		},
		{
			name: "scope 1080p uses width",
			result: ffprobe.Result{
				Streams: []ffprobe.Stream{
					{CodecType: "video", CodecName: "h264", Width: 1920, Height: 800},
					{CodecType: "audio", CodecName: "aac", Channels: 2},
				},
				Format: ffprobe.Format{BitRate: "9000000"},
			},
			want: 25 + 15 + 15 + 10,
		},
		{
			name: "720p mpeg4 no audio low bitrate",
			result: ffprobe.Result{
				Streams: []ffprobe.Stream{{CodecType: "video", CodecName: "mpeg4", Width: 1280, Height: 720, BitRate: "1500000"}},
			},
			want: 15 + 5,
		},
		{
			name: "sd vp9 opus 5.1 mid bitrate",
			result: ffprobe.Result{
				Streams: []ffprobe.Stream{
					{CodecType: "video", CodecName: "vp9", Width: 720, Height: 480, BitRate: "3000000"},
					{CodecType: "audio", CodecName: "opus", Channels: 6},
				},
			},
			want: 5 + 5 + 5 + 5 + 5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.result); got != tt.want {
				t.Fatalf("Evaluate() = %d, want %d", got, tt.want)
			}
		})
	}
}

type stubProber struct {
	result ffprobe.Result
	err    error
}

func (s stubProber) Inspect(context.Context, string) (ffprobe.Result, error) {
	return s.result, s.err
}

func TestScoreSwallowsProbeFailure(t *testing.T) {
	scorer := NewScorer(stubProber{err: errors.New("ffprobe missing")}, 0, nil)
	if got := scorer.Score(context.Background(), "/in/movie.mkv"); got != 0 {
		t.Fatalf("expected 0 on probe failure, got %d", got)
	}
}

func TestScoreBounds(t *testing.T) {
	scorer := NewScorer(stubProber{result: ffprobe.Result{
		Streams: []ffprobe.Stream{
			{CodecType: "video", CodecName: "av1", Width: 7680, Height: 4320, BitRate: "90000000"},
			{CodecType: "audio", CodecName: "dts", Channels: 8},
		},
	}}, 0, nil)
	got := scorer.Score(context.Background(), "/in/movie.mkv")
	if got < 0 || got > MaxScore {
		t.Fatalf("score out of range: %d", got)
	}
	if got != 95 {
		t.Fatalf("expected 95, got %d", got)
	}
}
