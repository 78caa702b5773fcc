package facetrain

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"thaitanloi365/go-face-train/cascade"
)

// Config is fixed at startup and shared read-only by the whole run.
type Config struct {
	// Input is a file, a directory or a single digit camera index. Empty means camera 0.
	Input string `yaml:"input"`

	Cascade     string `yaml:"cascade"`
	CascadeKind string `yaml:"cascade_kind"`
	Nested      string `yaml:"nested"`
	NestedKind  string `yaml:"nested_kind"`
	// Name labels the subject. It is carried through the logs and changes nothing else.
	Name string `yaml:"name"`

	// Scale shrinks the working image by 1/Scale before detection.
	Scale   float64 `yaml:"scale"`
	TryFlip bool    `yaml:"try_flip"`

	MinSize      int     `yaml:"min_size"`
	MaxSize      int     `yaml:"max_size"`
	ScaleFactor  float64 `yaml:"scale_factor"`
	MinNeighbors int     `yaml:"min_neighbors"`
	ShiftFactor  float64 `yaml:"shift_factor"`
	IouThreshold float64 `yaml:"iou_threshold"`
	MinQuality   float64 `yaml:"min_quality"`
	Angle        float64 `yaml:"angle"`

	OutputDir    string        `yaml:"output_dir"`
	OutputFormat string        `yaml:"output_format"`
	HTTPAddr     string        `yaml:"http_addr"`
	Window       bool          `yaml:"window"`
	KeyWait      time.Duration `yaml:"key_wait"`
	MaxFrames    int           `yaml:"max_frames"`
}

// Defaults used when neither the config file nor the flags set a value.
const (
	DefaultCascade = "./cascade/facefinder"
	DefaultNested  = "./cascade/puploc"
	DefaultName    = "subject"
	DefaultKeyWait = 10 * time.Millisecond
)

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	var c Config
	c.setDefaults()
	return c
}

// setDefaults fills zero values.
func (c *Config) setDefaults() {
	p := cascade.DefaultParams()

	if c.Cascade == "" {
		c.Cascade = DefaultCascade
	}
	if c.Nested == "" {
		c.Nested = DefaultNested
	}
	if c.CascadeKind == "" {
		c.CascadeKind = string(cascade.KindAuto)
	}
	if c.NestedKind == "" {
		c.NestedKind = string(cascade.KindAuto)
	}
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Scale == 0 {
		c.Scale = 1
	}
	if c.MinSize == 0 {
		c.MinSize = p.MinSize
	}
	if c.MaxSize == 0 {
		c.MaxSize = p.MaxSize
	}
	if c.ScaleFactor == 0 {
		c.ScaleFactor = p.ScaleFactor
	}
	if c.MinNeighbors == 0 {
		c.MinNeighbors = p.MinNeighbors
	}
	if c.ShiftFactor == 0 {
		c.ShiftFactor = p.ShiftFactor
	}
	if c.IouThreshold == 0 {
		c.IouThreshold = p.IouThreshold
	}
	if c.MinQuality == 0 {
		c.MinQuality = float64(p.MinQuality)
	}
	if c.KeyWait == 0 {
		c.KeyWait = DefaultKeyWait
	}
}

// Validate rejects values no component can work with.
func (c Config) Validate() error {
	if c.Scale <= 0 {
		return errors.Errorf("scale must be positive, got %g", c.Scale)
	}
	if c.ScaleFactor <= 1 {
		return errors.Errorf("scale factor must be greater than 1, got %g", c.ScaleFactor)
	}
	if c.MinSize <= 0 {
		return errors.Errorf("min size must be positive, got %d", c.MinSize)
	}
	if c.MaxSize < c.MinSize {
		return errors.Errorf("max size %d is below min size %d", c.MaxSize, c.MinSize)
	}
	if c.MinNeighbors < 0 {
		return errors.Errorf("min neighbors must not be negative, got %d", c.MinNeighbors)
	}
	if c.ShiftFactor <= 0 || c.ShiftFactor > 1 {
		return errors.Errorf("shift factor must be in (0, 1], got %g", c.ShiftFactor)
	}
	if c.IouThreshold < 0 || c.IouThreshold > 1 {
		return errors.Errorf("iou threshold must be in [0, 1], got %g", c.IouThreshold)
	}
	if c.KeyWait <= 0 {
		return errors.Errorf("key wait must be positive, got %s", c.KeyWait)
	}
	if c.MaxFrames < 0 {
		return errors.Errorf("max frames must not be negative, got %d", c.MaxFrames)
	}
	if _, err := cascade.ParseKind(c.CascadeKind); err != nil {
		return errors.Wrap(err, "cascade kind")
	}
	if _, err := cascade.ParseKind(c.NestedKind); err != nil {
		return errors.Wrap(err, "nested kind")
	}
	return nil
}

// Params converts the detection knobs for the cascade package. Nested
// detection runs with the same parameters as the primary pass.
func (c Config) Params() cascade.Params {
	return cascade.Params{
		ScaleFactor:  c.ScaleFactor,
		MinNeighbors: c.MinNeighbors,
		MinSize:      c.MinSize,
		MaxSize:      c.MaxSize,
		ShiftFactor:  c.ShiftFactor,
		IouThreshold: c.IouThreshold,
		MinQuality:   float32(c.MinQuality),
		Angle:        c.Angle,
	}
}

// LoadConfigFile overlays the YAML file at path on c. Keys absent from the
// file keep their current value, unknown keys are an error.
func LoadConfigFile(path string, c *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read config %s", path)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrapf(err, "parse config %s", path)
	}
	return nil
}
