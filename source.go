package ambient

import (
	"fmt"
	"image"
	"os/exec"

	"github.com/kbinani/screenshot"
	"golang.org/x/image/draw"
)

// Source produces one downsampled frame on demand. Grab fills dst, whose
// length equals the configured sample width times height.
type Source interface {
	Grab(dst []RGB) error
	Close() error
}

// SourceFactory acquires a capture source for the given geometry. The
// returned method names the backend for display purposes.
type SourceFactory func(cfg Config) (src Source, method string, err error)

// DefaultSource tries a streaming FFmpeg capture first and falls back to
// single-shot captures via kbinani/screenshot.
func DefaultSource(cfg Config) (Source, string, error) {
	if src, method, err := newFFmpegSource(cfg); err == nil {
		return src, method, nil
	}
	return newScreenshotSource(cfg)
}

// ScreenSize returns the dimensions of display 0.
func ScreenSize() (int, int, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return 0, 0, fmt.Errorf("no active displays")
	}
	b := screenshot.GetDisplayBounds(0)
	return b.Dx(), b.Dy(), nil
}

// screenshotSource grabs the screen with kbinani/screenshot and scales
// each capture down to the sample resolution.
type screenshotSource struct {
	rect   image.Rectangle // screen region to grab
	scaled *image.RGBA     // reused sample-sized scratch image
}

func newScreenshotSource(cfg Config) (Source, string, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return nil, "", fmt.Errorf("no active displays found")
	}
	return &screenshotSource{
		rect:   image.Rect(0, 0, cfg.ScreenWidth, cfg.ScreenHeight),
		scaled: image.NewRGBA(image.Rect(0, 0, cfg.SampleWidth, cfg.SampleHeight)),
	}, "Screenshot", nil
}

func (s *screenshotSource) Grab(dst []RGB) error {
	img, err := screenshot.CaptureRect(s.rect)
	if err != nil {
		return fmt.Errorf("capturing screen: %w", err)
	}
	draw.ApproxBiLinear.Scale(s.scaled, s.scaled.Bounds(), img, img.Bounds(), draw.Src, nil)

	pix := s.scaled.Pix
	for i := range dst {
		off := i * 4
		dst[i] = RGB{R: pix[off], G: pix[off+1], B: pix[off+2]}
	}
	return nil
}

func (s *screenshotSource) Close() error { return nil }

// hasExecutable reports whether the named program is on PATH.
func hasExecutable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
