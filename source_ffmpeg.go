package ambient

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

// ffmpegSource keeps an ffmpeg x11grab process running and retains its
// newest frame. ffmpeg scales each frame to the sample resolution and
// emits it as packed rgb24, so Grab only has to copy the latest frame out.
type ffmpegSource struct {
	cancel context.CancelFunc
	cmd    *exec.Cmd
	done   chan struct{}
	ready  chan struct{} // closed when the first frame is available

	mu    sync.Mutex
	frame []byte

	frameSize int
}

func newFFmpegSource(cfg Config) (Source, string, error) {
	if !hasExecutable("ffmpeg") {
		return nil, "", fmt.Errorf("ffmpeg not found")
	}

	display := os.Getenv("DISPLAY")
	if display == "" {
		return nil, "", fmt.Errorf("DISPLAY not set")
	}

	ctx, cancel := context.WithCancel(context.Background())

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-nostdin",
		"-loglevel", "error",
		"-f", "x11grab",
		"-framerate", "30",
		"-video_size", fmt.Sprintf("%dx%d", cfg.ScreenWidth, cfg.ScreenHeight),
		"-i", display+".0",
		"-vf", fmt.Sprintf("scale=%d:%d", cfg.SampleWidth, cfg.SampleHeight),
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"pipe:1",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, "", fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, "", fmt.Errorf("starting ffmpeg: %w", err)
	}

	s := &ffmpegSource{
		cancel:    cancel,
		cmd:       cmd,
		done:      make(chan struct{}),
		ready:     make(chan struct{}),
		frameSize: cfg.samples() * 3,
	}

	go s.readFrames(stdout)

	// Wait for the first frame so Grab is immediately usable.
	select {
	case <-s.ready:
	case <-time.After(5 * time.Second):
		s.cancel()
		<-s.done
		_ = s.cmd.Wait()
		return nil, "", fmt.Errorf("ffmpeg: timed out waiting for first frame")
	}

	return s, "FFmpeg", nil
}

func (s *ffmpegSource) readFrames(r io.Reader) {
	defer close(s.done)
	buf := make([]byte, s.frameSize)
	first := true
	for {
		_, err := io.ReadFull(r, buf)
		if err != nil {
			return
		}
		s.mu.Lock()
		if s.frame == nil {
			s.frame = make([]byte, s.frameSize)
		}
		copy(s.frame, buf)
		s.mu.Unlock()
		if first {
			close(s.ready)
			first = false
		}
	}
}

func (s *ffmpegSource) Grab(dst []RGB) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil {
		return fmt.Errorf("no frame captured yet")
	}
	for i := range dst {
		off := i * 3
		dst[i] = RGB{R: s.frame[off], G: s.frame[off+1], B: s.frame[off+2]}
	}
	return nil
}

func (s *ffmpegSource) Close() error {
	s.cancel()
	<-s.done
	return s.cmd.Wait()
}
