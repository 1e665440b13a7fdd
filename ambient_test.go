package ambient

import (
	"errors"
	"fmt"
	"testing"
)

// fakeSource feeds a fixed synthetic frame and counts lifecycle calls.
type fakeSource struct {
	frame   []RGB
	grabErr error

	grabs   int
	closes  int
	lastLen int
}

func (f *fakeSource) Grab(dst []RGB) error {
	f.grabs++
	f.lastLen = len(dst)
	if f.grabErr != nil {
		return f.grabErr
	}
	copy(dst, f.frame)
	return nil
}

func (f *fakeSource) Close() error {
	f.closes++
	return nil
}

func fakeFactory(src *fakeSource) SourceFactory {
	return func(Config) (Source, string, error) {
		return src, "Fake", nil
	}
}

func testConfig(sampleW, sampleH int) Config {
	return Config{ScreenWidth: 1920, ScreenHeight: 1080, SampleWidth: sampleW, SampleHeight: sampleH}
}

func TestAverageFrame_Uniform(t *testing.T) {
	frame := make([]RGB, 64)
	for i := range frame {
		frame[i] = RGB{R: 200, G: 100, B: 50}
	}
	got, err := averageFrame(frame)
	if err != nil {
		t.Fatalf("averageFrame: %v", err)
	}
	if got != (RGB{R: 200, G: 100, B: 50}) {
		t.Errorf("expected RGB{200, 100, 50}, got %v", got)
	}
}

func TestAverageFrame_TruncatingDivision(t *testing.T) {
	// One pure red and one black pixel: 255/2 truncates to 127, not 128.
	frame := []RGB{{R: 255}, {}}
	got, err := averageFrame(frame)
	if err != nil {
		t.Fatalf("averageFrame: %v", err)
	}
	if got != (RGB{R: 127}) {
		t.Errorf("expected RGB{127, 0, 0}, got %v", got)
	}
}

func TestAverageFrame_OrderIndependent(t *testing.T) {
	frame := []RGB{
		{10, 200, 33},
		{255, 0, 128},
		{0, 0, 0},
		{90, 90, 90},
		{1, 2, 3},
	}
	want, err := averageFrame(frame)
	if err != nil {
		t.Fatalf("averageFrame: %v", err)
	}

	reversed := make([]RGB, len(frame))
	for i, px := range frame {
		reversed[len(frame)-1-i] = px
	}
	got, err := averageFrame(reversed)
	if err != nil {
		t.Fatalf("averageFrame: %v", err)
	}
	if got != want {
		t.Errorf("reversed frame averaged to %v, want %v", got, want)
	}
}

func TestAverageFrame_Empty(t *testing.T) {
	_, err := averageFrame(nil)
	if !errors.Is(err, ErrEmptyBuffer) {
		t.Errorf("expected ErrEmptyBuffer, got %v", err)
	}
}

func TestPipeline_SampleBeforeInitialize(t *testing.T) {
	p := NewPipelineWith(fakeFactory(&fakeSource{}))
	if _, err := p.Hue(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}

func TestPipeline_SampleAfterUninitialize(t *testing.T) {
	src := &fakeSource{frame: []RGB{{R: 255}}}
	p := NewPipelineWith(fakeFactory(src))
	if err := p.Initialize(testConfig(1, 1)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	p.Uninitialize()
	if _, err := p.Hue(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}

func TestPipeline_Hue(t *testing.T) {
	frame := make([]RGB, 8*4)
	for i := range frame {
		frame[i] = RGB{G: 255}
	}
	src := &fakeSource{frame: frame}
	p := NewPipelineWith(fakeFactory(src))
	if err := p.Initialize(testConfig(8, 4)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer p.Uninitialize()

	hue, err := p.Hue()
	if err != nil {
		t.Fatalf("Hue: %v", err)
	}
	if want := 1.0 / 3.0; hue != want {
		t.Errorf("hue = %v, want %v", hue, want)
	}
	if src.lastLen != 32 {
		t.Errorf("grab buffer length = %d, want 32", src.lastLen)
	}
	if p.Method() != "Fake" {
		t.Errorf("Method() = %q, want %q", p.Method(), "Fake")
	}
}

func TestPipeline_SampleIsRepeatable(t *testing.T) {
	src := &fakeSource{frame: []RGB{{R: 255}, {R: 255}}}
	p := NewPipelineWith(fakeFactory(src))
	if err := p.Initialize(testConfig(2, 1)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer p.Uninitialize()

	for i := 0; i < 5; i++ {
		hsb, err := p.Sample()
		if err != nil {
			t.Fatalf("Sample %d: %v", i, err)
		}
		if hsb.Hue != 0 || hsb.Saturation != 1 || hsb.Brightness != 1 {
			t.Fatalf("Sample %d: got %+v, want pure red", i, hsb)
		}
	}
	if src.grabs != 5 {
		t.Errorf("grabs = %d, want 5", src.grabs)
	}
}

func TestPipeline_InvalidConfiguration(t *testing.T) {
	p := NewPipelineWith(fakeFactory(&fakeSource{}))
	for _, cfg := range []Config{
		{},
		{ScreenWidth: 1920, ScreenHeight: 1080, SampleWidth: 0, SampleHeight: 36},
		{ScreenWidth: 1920, ScreenHeight: 1080, SampleWidth: 64, SampleHeight: -1},
		{ScreenWidth: -1, ScreenHeight: 1080, SampleWidth: 64, SampleHeight: 36},
	} {
		if err := p.Initialize(cfg); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("Initialize(%+v): expected ErrInvalidConfiguration, got %v", cfg, err)
		}
	}
	// A failed Initialize must leave the pipeline uninitialized.
	if _, err := p.Hue(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized after failed Initialize, got %v", err)
	}
}

func TestPipeline_CaptureUnavailable(t *testing.T) {
	p := NewPipelineWith(func(Config) (Source, string, error) {
		return nil, "", fmt.Errorf("no displays")
	})
	err := p.Initialize(testConfig(64, 36))
	if !errors.Is(err, ErrCaptureUnavailable) {
		t.Errorf("expected ErrCaptureUnavailable, got %v", err)
	}
}

func TestPipeline_CaptureFailure(t *testing.T) {
	src := &fakeSource{grabErr: fmt.Errorf("grab broke")}
	p := NewPipelineWith(fakeFactory(src))
	if err := p.Initialize(testConfig(2, 2)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer p.Uninitialize()

	if _, err := p.Sample(); !errors.Is(err, ErrCaptureFailure) {
		t.Errorf("expected ErrCaptureFailure, got %v", err)
	}
}

func TestPipeline_UninitializeReleasesResources(t *testing.T) {
	src := &fakeSource{frame: []RGB{{}}}
	p := NewPipelineWith(fakeFactory(src))
	if err := p.Initialize(testConfig(1, 1)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	// Initialize then immediate Uninitialize: source closed, nothing grabbed.
	p.Uninitialize()
	if src.closes != 1 {
		t.Errorf("closes = %d, want 1", src.closes)
	}
	if src.grabs != 0 {
		t.Errorf("grabs = %d, want 0", src.grabs)
	}

	// Uninitialize is idempotent and safe before Initialize.
	p.Uninitialize()
	if src.closes != 1 {
		t.Errorf("closes after second Uninitialize = %d, want 1", src.closes)
	}
	NewPipeline().Uninitialize()
}

func TestPipeline_ReinitializeReleasesPrevious(t *testing.T) {
	var sources []*fakeSource
	factory := func(cfg Config) (Source, string, error) {
		src := &fakeSource{frame: make([]RGB, cfg.SampleWidth*cfg.SampleHeight)}
		sources = append(sources, src)
		return src, "Fake", nil
	}

	p := NewPipelineWith(factory)
	if err := p.Initialize(testConfig(4, 4)); err != nil {
		t.Fatalf("first Initialize: %v", err)
	}
	if err := p.Initialize(testConfig(8, 2)); err != nil {
		t.Fatalf("second Initialize: %v", err)
	}
	defer p.Uninitialize()

	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	if sources[0].closes != 1 {
		t.Errorf("first source closes = %d, want 1", sources[0].closes)
	}
	if sources[1].closes != 0 {
		t.Errorf("second source closes = %d, want 0", sources[1].closes)
	}

	// The frame buffer must match the new sample resolution.
	if _, err := p.Sample(); err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if sources[1].lastLen != 16 {
		t.Errorf("grab buffer length = %d, want 16", sources[1].lastLen)
	}
}
