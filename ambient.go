// Package ambient computes a representative hue from the current contents
// of a display, for driving ambient-lighting or color-mood effects.
//
// A Pipeline captures one downsampled frame per call, averages the channel
// values and converts the mean color to HSB. Sample performs a screen
// capture and may take non-trivial wall-clock time, so call it from a
// dedicated goroutine rather than an event loop — but a Pipeline has no
// internal locking: calls to Sample must not overlap each other or
// Initialize/Uninitialize.
package ambient

import "fmt"

// Config holds the capture geometry: the size of the screen region to grab
// and the reduced resolution it is sampled at. A smaller sample resolution
// means fewer pixels to scan per call.
type Config struct {
	ScreenWidth  int
	ScreenHeight int
	SampleWidth  int
	SampleHeight int
}

func (c Config) validate() error {
	if c.ScreenWidth <= 0 || c.ScreenHeight <= 0 || c.SampleWidth <= 0 || c.SampleHeight <= 0 {
		return fmt.Errorf("%w: sizes must be positive, got screen %dx%d sample %dx%d",
			ErrInvalidConfiguration, c.ScreenWidth, c.ScreenHeight, c.SampleWidth, c.SampleHeight)
	}
	return nil
}

// samples returns the pixel count of one downsampled frame.
func (c Config) samples() int {
	return c.SampleWidth * c.SampleHeight
}

// Pipeline owns the capture source and the reusable frame buffer between
// Initialize and Uninitialize. The zero value is ready for Initialize.
type Pipeline struct {
	cfg     Config
	src     Source
	method  string
	frame   []RGB
	factory SourceFactory
}

// NewPipeline returns a pipeline that acquires its capture source with
// DefaultSource.
func NewPipeline() *Pipeline {
	return &Pipeline{factory: DefaultSource}
}

// NewPipelineWith returns a pipeline using the given source factory
// instead of DefaultSource. Tests use this to feed synthetic frames.
func NewPipelineWith(factory SourceFactory) *Pipeline {
	return &Pipeline{factory: factory}
}

// Initialize validates cfg, allocates the frame buffer and acquires a
// capture source. Initializing an already initialized pipeline releases
// the previous resources first, so changing sizes reallocates cleanly.
func (p *Pipeline) Initialize(cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	p.Uninitialize()

	factory := p.factory
	if factory == nil {
		factory = DefaultSource
	}
	src, method, err := factory(cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}

	p.cfg = cfg
	p.src = src
	p.method = method
	p.frame = make([]RGB, cfg.samples())
	return nil
}

// Method reports which capture backend the pipeline is using, e.g.
// "FFmpeg". Empty until Initialize succeeds.
func (p *Pipeline) Method() string {
	return p.method
}

// Config returns the geometry the pipeline was initialized with. The zero
// Config outside an Initialize/Uninitialize bracket.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Sample grabs one frame and returns the HSB triple of its mean color.
// Each call is independent; only the scratch buffer is reused.
func (p *Pipeline) Sample() (HSB, error) {
	if p.src == nil {
		return HSB{}, ErrNotInitialized
	}
	if err := p.src.Grab(p.frame); err != nil {
		return HSB{}, fmt.Errorf("%w: %v", ErrCaptureFailure, err)
	}
	mean, err := averageFrame(p.frame)
	if err != nil {
		return HSB{}, err
	}
	return RGBToHSB(mean.R, mean.G, mean.B), nil
}

// Hue grabs one frame and returns the hue of its mean color as a fraction
// of a full turn in [0,1).
func (p *Pipeline) Hue() (float64, error) {
	hsb, err := p.Sample()
	if err != nil {
		return 0, err
	}
	return hsb.Hue, nil
}

// Uninitialize releases the frame buffer and the capture source. It never
// fails and may be called at any time, including before Initialize or
// during shutdown paths.
func (p *Pipeline) Uninitialize() {
	if p.src != nil {
		_ = p.src.Close()
		p.src = nil
	}
	p.frame = nil
	p.method = ""
	p.cfg = Config{}
}

// averageFrame computes the mean color of a frame. Channel sums use 64-bit
// accumulators so they cannot overflow, and the division truncates: a
// black pixel and a pure red pixel average to 127 red, not 128.
func averageFrame(frame []RGB) (RGB, error) {
	if len(frame) == 0 {
		return RGB{}, ErrEmptyBuffer
	}
	var rSum, gSum, bSum uint64
	for _, px := range frame {
		rSum += uint64(px.R)
		gSum += uint64(px.G)
		bSum += uint64(px.B)
	}
	n := uint64(len(frame))
	return RGB{
		R: uint8(rSum / n),
		G: uint8(gSum / n),
		B: uint8(bSum / n),
	}, nil
}
