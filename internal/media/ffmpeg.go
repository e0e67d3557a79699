package media

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/scribeflow/scribeflow/pkg/executor"
	"github.com/scribeflow/scribeflow/pkg/log"
)

// FFmpeg implements DurationProber and Slicer on top of the ffmpeg and
// ffprobe binaries.
type FFmpeg struct {
	ffmpegCmd  string
	ffprobeCmd string
	exec       executor.Executor
}

func NewFFmpeg(exec executor.Executor) *FFmpeg {
	return &FFmpeg{
		ffmpegCmd:  "ffmpeg",
		ffprobeCmd: "ffprobe",
		exec:       exec,
	}
}

// ProbeDuration returns the container duration in seconds.
func (ff *FFmpeg) ProbeDuration(ctx context.Context, path string) (float64, error) {
	output, err := ff.exec.Execute(ctx, ff.ffprobeCmd, ff.probeArgs(path)...)
	if err != nil {
		log.Error("Failed to run ffprobe on %s: %v", path, err)
		return 0, fmt.Errorf("probe duration: %w", err)
	}

	var probeResult struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(output), &probeResult); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if probeResult.Format.Duration == "" {
		return 0, fmt.Errorf("no duration in ffprobe output for %s", path)
	}

	seconds, err := strconv.ParseFloat(probeResult.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", probeResult.Format.Duration, err)
	}
	return seconds, nil
}

// Slice writes the [start, start+duration) range of path to outPath.
func (ff *FFmpeg) Slice(ctx context.Context, path string, startSeconds, durationSeconds float64, outPath string) error {
	if _, err := ff.exec.Execute(ctx, ff.ffmpegCmd, ff.sliceArgs(path, startSeconds, durationSeconds, outPath)...); err != nil {
		return fmt.Errorf("slice %s: %w", path, err)
	}
	return nil
}

func (ff *FFmpeg) probeArgs(path string) []string {
	return []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	}
}

func (ff *FFmpeg) sliceArgs(path string, start, duration float64, outPath string) []string {
	return []string{
		"-i", path,
		"-ss", formatSeconds(start),
		"-t", formatSeconds(duration),
		"-c", "copy",
		"-y",
		outPath,
	}
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
