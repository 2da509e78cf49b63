package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"mathviz/internal/domain"
	"mathviz/internal/domain/scenecfg"
	"mathviz/internal/infra"
)

// Output references the rendered files on local disk. ThumbnailPath is empty
// when thumbnail extraction failed; that never fails the render.
type Output struct {
	VideoPath     string
	ThumbnailPath string
}

// Renderer turns scene parameters into a video file.
type Renderer interface {
	Render(ctx context.Context, jobID string, params *scenecfg.Params) (*Output, error)
}

const thumbnailTimeout = 30 * time.Second

// ManimRenderer shells out to the manim CLI with a hard wall-clock ceiling.
// Each job renders into its own directory under outputDir.
type ManimRenderer struct {
	outputDir string
	timeout   time.Duration
	logger    infra.Logger
}

// NewManimRenderer creates a renderer writing under outputDir.
func NewManimRenderer(outputDir string, timeout time.Duration, logger infra.Logger) *ManimRenderer {
	return &ManimRenderer{outputDir: outputDir, timeout: timeout, logger: logger}
}

func (r *ManimRenderer) Render(ctx context.Context, jobID string, params *scenecfg.Params) (*Output, error) {
	script, sceneName, err := BuildScene(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRender, err)
	}

	jobDir := filepath.Join(r.outputDir, jobID)
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: prepare output directory: %v", domain.ErrRender, err)
	}
	scenePath := filepath.Join(jobDir, "scene.py")
	if err := os.WriteFile(scenePath, []byte(script), 0o644); err != nil {
		return nil, fmt.Errorf("%w: write scene script: %v", domain.ErrRender, err)
	}

	mediaDir := filepath.Join(jobDir, "media")
	renderCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(renderCtx, "manim", "-ql", "--media_dir", mediaDir, scenePath, sceneName)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.logger.Info().Str("job_id", jobID).Str("scene", sceneName).Msg("render: invoking manim")
	if err := cmd.Run(); err != nil {
		if errors.Is(renderCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: rendering timed out after %s", domain.ErrRender, r.timeout)
		}
		return nil, fmt.Errorf("%w: manim: %v: %s", domain.ErrRender, err, tail(stderr.String(), 400))
	}

	videoPath, err := findVideo(mediaDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRender, err)
	}
	finalVideo := filepath.Join(jobDir, "video.mp4")
	if err := os.Rename(videoPath, finalVideo); err != nil {
		return nil, fmt.Errorf("%w: move video: %v", domain.ErrRender, err)
	}

	out := &Output{VideoPath: finalVideo}
	thumbnail, err := r.extractThumbnail(ctx, finalVideo, jobDir)
	if err != nil {
		r.logger.Warn().Err(err).Str("job_id", jobID).Msg("render: thumbnail extraction failed")
	} else {
		out.ThumbnailPath = thumbnail
	}
	return out, nil
}

// extractThumbnail grabs the first frame with ffmpeg.
func (r *ManimRenderer) extractThumbnail(ctx context.Context, videoPath, jobDir string) (string, error) {
	thumbPath := filepath.Join(jobDir, "thumbnail.png")

	thumbCtx, cancel := context.WithTimeout(ctx, thumbnailTimeout)
	defer cancel()

	cmd := exec.CommandContext(thumbCtx, "ffmpeg", "-i", videoPath, "-vframes", "1", "-y", thumbPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg: %v: %s", err, tail(stderr.String(), 200))
	}
	if _, err := os.Stat(thumbPath); err != nil {
		return "", fmt.Errorf("thumbnail missing after extraction: %v", err)
	}
	return thumbPath, nil
}

// findVideo locates the mp4 manim produced somewhere under mediaDir.
func findVideo(mediaDir string) (string, error) {
	var found string
	err := filepath.WalkDir(mediaDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".mp4") {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("scan render output: %v", err)
	}
	if found == "" {
		return "", errors.New("no video file generated")
	}
	return found, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

var _ Renderer = (*ManimRenderer)(nil)
