package tilemesh

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/meshforge/tilemesh/pkg/geom"
)

// Options holds the settings for one pipeline batch.
type Options struct {
	// Tolerance is the world-unit chord tolerance geometry is produced
	// at. Must be positive.
	Tolerance float64 `yaml:"tolerance"`

	// MaxTextureSize bounds each packed table's width and height in
	// RGBA texels.
	MaxTextureSize int `yaml:"max_texture_size"`

	Is2D          bool `yaml:"is_2d"`
	SurfacesOnly  bool `yaml:"surfaces_only"`
	PreserveOrder bool `yaml:"preserve_order"`
}

// DefaultOptions returns options suitable for a typical 3D tile batch.
func DefaultOptions() Options {
	return Options{
		Tolerance:      0.01,
		MaxTextureSize: 2048,
	}
}

// Validate checks that the options can drive a batch.
func (o Options) Validate() error {
	if o.Tolerance <= 0 {
		return fmt.Errorf("%w: tolerance must be positive, got %g", geom.ErrInvalidArgument, o.Tolerance)
	}
	if o.MaxTextureSize <= 0 {
		return fmt.Errorf("%w: max texture size must be positive, got %d", geom.ErrInvalidArgument, o.MaxTextureSize)
	}
	return nil
}

// LoadOptions reads options from a YAML file, merging over defaults so
// a partial file is valid.
func LoadOptions(path string) (Options, error) {
	o := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return o, fmt.Errorf("loading options from %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &o); err != nil {
		return o, fmt.Errorf("loading options from %s: %w", path, err)
	}
	if err := o.Validate(); err != nil {
		return o, err
	}
	return o, nil
}

// SaveTo writes the options to a YAML file, creating the parent
// directory if needed.
func (o Options) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(o)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
