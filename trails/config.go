package trails

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds engine settings. Fields omitted in a loaded file keep DefaultConfig values.
type Config struct {
	// Frames an object may stay unseen before its trail is purged. Default 60
	ExpirationFrames int `json:"expiration_frames"`
	// Number of sources in the pipeline, used for font scaling. Zero means "frames in the batch"
	NumSources int    `json:"num_sources"`
	FontName   string `json:"font_name"`
	// Hide detector bounding boxes. Default true
	HideBoxes bool `json:"hide_boxes"`
	// Pass anchors through Kalman filter before storing
	SmoothAnchors bool `json:"smooth_anchors"`
	// Fixed seed for class colors. Nil means different colors every run
	ColorSeed  *uint64 `json:"color_seed,omitempty"`
	SweepScope string  `json:"sweep_scope"`
	// Budget of display units per frame for MemoryPool. Zero means unlimited
	MaxUnitsPerFrame int `json:"max_units_per_frame"`
	// nvinfer-style config with labelfile-path key
	InferConfigPath string `json:"infer_config_path,omitempty"`
	// Label file, takes precedence over InferConfigPath
	LabelFilePath string `json:"label_file_path,omitempty"`
}

// DefaultConfig returns config with default values
func DefaultConfig() Config {
	return Config{
		ExpirationFrames: DefaultExpirationFrames,
		FontName:         DefaultFontName,
		HideBoxes:        true,
		SweepScope:       string(SweepScopeStore),
	}
}

const maxConfigFileSize = 1 * 1024 * 1024

// LoadConfig reads JSON config. Fields omitted in the file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return cfg, errors.Wrapf(ErrInvalidConfig, "config file must have .json extension, got '%s'", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return cfg, errors.Wrap(err, "Can't stat config file")
	}
	if info.Size() > maxConfigFileSize {
		return cfg, errors.Wrapf(ErrInvalidConfig, "config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return cfg, errors.Wrap(err, "Can't read config file")
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "Can't parse config file")
	}
	if cfg.InferConfigPath != "" && !filepath.IsAbs(cfg.InferConfigPath) {
		cfg.InferConfigPath = filepath.Join(filepath.Dir(cleanPath), cfg.InferConfigPath)
	}
	if cfg.LabelFilePath != "" && !filepath.IsAbs(cfg.LabelFilePath) {
		cfg.LabelFilePath = filepath.Join(filepath.Dir(cleanPath), cfg.LabelFilePath)
	}
	return cfg, cfg.Validate()
}

// Validate checks that values are usable
func (cfg Config) Validate() error {
	if cfg.ExpirationFrames < 0 {
		return errors.Wrapf(ErrInvalidConfig, "expiration_frames must be non-negative, got %d", cfg.ExpirationFrames)
	}
	if cfg.NumSources < 0 {
		return errors.Wrapf(ErrInvalidConfig, "num_sources must be non-negative, got %d", cfg.NumSources)
	}
	if cfg.MaxUnitsPerFrame < 0 {
		return errors.Wrapf(ErrInvalidConfig, "max_units_per_frame must be non-negative, got %d", cfg.MaxUnitsPerFrame)
	}
	if _, err := ParseSweepScope(cfg.SweepScope); err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}
	return nil
}

// LoadClassLabels loads labels from LabelFilePath or, if it is empty, from InferConfigPath
func (cfg Config) LoadClassLabels() ([]string, error) {
	if cfg.LabelFilePath != "" {
		return LoadLabels(cfg.LabelFilePath)
	}
	if cfg.InferConfigPath != "" {
		return LoadLabelsFromInferConfig(cfg.InferConfigPath)
	}
	return nil, errors.Wrap(ErrInvalidConfig, "neither label_file_path nor infer_config_path is set")
}

// ColorTableOptions returns options for BuildColorTable
func (cfg Config) ColorTableOptions() []ColorTableOption {
	if cfg.ColorSeed == nil {
		return nil
	}
	return []ColorTableOption{WithColorSeed(*cfg.ColorSeed)}
}
