package processing

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
)

// AudioAssembler concatenates per-speaker MP3 segments into one continuous
// track with a short silence between turns. It shells out to ffmpeg; when the
// binary is missing it degrades to returning the first segment as the whole
// podcast.
type AudioAssembler struct {
	// FFmpegPath overrides the binary looked up on PATH. Tests point this at
	// a nonexistent name to exercise the degraded path.
	FFmpegPath string
	// GapSeconds is the silence inserted between consecutive segments.
	GapSeconds float64
}

// NewAudioAssembler returns an assembler with the default half-second gap.
func NewAudioAssembler() *AudioAssembler {
	return &AudioAssembler{FFmpegPath: "ffmpeg", GapSeconds: 0.5}
}

// Assemble joins the segments in order. With zero segments it errors; with
// ffmpeg unavailable it returns the first segment unchanged.
func (a *AudioAssembler) Assemble(segments [][]byte) ([]byte, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("no audio segments to assemble")
	}
	if len(segments) == 1 {
		return segments[0], nil
	}

	ffmpeg, err := exec.LookPath(a.FFmpegPath)
	if err != nil {
		log.Printf("ffmpeg not available, falling back to first audio segment: %v", err)
		return segments[0], nil
	}

	dir, err := os.MkdirTemp("", "podcast-assembly-")
	if err != nil {
		return nil, fmt.Errorf("create assembly workspace: %w", err)
	}
	defer os.RemoveAll(dir)

	silencePath := filepath.Join(dir, "silence.mp3")
	if err := a.renderSilence(ffmpeg, silencePath); err != nil {
		return nil, err
	}

	// Concat demuxer list: segment, silence, segment, ...
	listPath := filepath.Join(dir, "segments.txt")
	var list string
	for i, segment := range segments {
		segmentPath := filepath.Join(dir, fmt.Sprintf("segment_%03d.mp3", i))
		if err := os.WriteFile(segmentPath, segment, 0o644); err != nil {
			return nil, fmt.Errorf("write audio segment %d: %w", i, err)
		}
		if i > 0 {
			list += fmt.Sprintf("file '%s'\n", silencePath)
		}
		list += fmt.Sprintf("file '%s'\n", segmentPath)
	}
	if err := os.WriteFile(listPath, []byte(list), 0o644); err != nil {
		return nil, fmt.Errorf("write segment list: %w", err)
	}

	outPath := filepath.Join(dir, "podcast.mp3")
	cmd := exec.Command(ffmpeg,
		"-y", "-f", "concat", "-safe", "0",
		"-i", listPath,
		"-c:a", "libmp3lame", "-q:a", "4",
		outPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg concat failed: %w: %s", err, out)
	}

	assembled, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read assembled audio: %w", err)
	}
	return assembled, nil
}

// renderSilence produces the inter-segment gap file.
func (a *AudioAssembler) renderSilence(ffmpeg, path string) error {
	gap := a.GapSeconds
	if gap <= 0 {
		gap = 0.5
	}
	cmd := exec.Command(ffmpeg,
		"-y", "-f", "lavfi",
		"-i", "anullsrc=r=24000:cl=mono",
		"-t", fmt.Sprintf("%.2f", gap),
		"-c:a", "libmp3lame", "-q:a", "4",
		path,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg silence generation failed: %w: %s", err, out)
	}
	return nil
}
