package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Directory layout
	WorkDir   string `yaml:"work_dir"`   // analysis artifacts
	DataDir   string `yaml:"data_dir"`   // source + downsampled videos
	OutputDir string `yaml:"output_dir"` // rendered videos

	// Shots timeline file
	ShotsPath string `yaml:"shots_path"`

	// Stage settings
	Video    VideoConfig    `yaml:"video"`
	Pose     PoseConfig     `yaml:"pose"`
	Describe DescribeConfig `yaml:"describe"`
	Render   RenderConfig   `yaml:"render"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`
}

type VideoConfig struct {
	OriginalFPS float64 `yaml:"original_fps"`
}

type PoseConfig struct {
	FPS        float64 `yaml:"fps"`
	ModelPath  string  `yaml:"model_path"`
	InputSize  int     `yaml:"input_size"`
	Confidence float64 `yaml:"confidence"`
	IOU        float64 `yaml:"iou"`
}

type DescribeConfig struct {
	FPS        float64 `yaml:"fps"`
	Model      string  `yaml:"model"`
	BaseURL    string  `yaml:"base_url"`
	MaxTokens  int     `yaml:"max_tokens"`
	TimeoutSec int     `yaml:"timeout_sec"`
}

type RenderConfig struct {
	Codec  string `yaml:"codec"`
	CRF    int    `yaml:"crf"`
	Preset string `yaml:"preset"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	ProbePath  string `yaml:"probe_path"`
	Threads    int    `yaml:"threads"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks rate relationships the pipeline depends on
func (c *Config) Validate() error {
	if c.Video.OriginalFPS <= 0 {
		return fmt.Errorf("video.original_fps must be positive, got %v", c.Video.OriginalFPS)
	}
	if c.Pose.FPS <= 0 || c.Describe.FPS <= 0 {
		return fmt.Errorf("analysis rates must be positive (pose=%v describe=%v)", c.Pose.FPS, c.Describe.FPS)
	}
	if c.Pose.FPS > c.Video.OriginalFPS {
		return fmt.Errorf("pose.fps %v exceeds original rate %v", c.Pose.FPS, c.Video.OriginalFPS)
	}
	if c.Describe.FPS > c.Video.OriginalFPS {
		return fmt.Errorf("describe.fps %v exceeds original rate %v", c.Describe.FPS, c.Video.OriginalFPS)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		WorkDir:   "./analysis",
		DataDir:   "./data",
		OutputDir: "./output",
		ShotsPath: "./shots.yaml",
		Video: VideoConfig{
			OriginalFPS: 30,
		},
		Pose: PoseConfig{
			FPS:        4,
			ModelPath:  "./models/yolov8m-pose.onnx",
			InputSize:  640,
			Confidence: 0.5,
			IOU:        0.45,
		},
		Describe: DescribeConfig{
			FPS:        12,
			Model:      "gpt-4o",
			BaseURL:    "https://api.openai.com/v1",
			MaxTokens:  200,
			TimeoutSec: 60,
		},
		Render: RenderConfig{
			Codec:  "libx264",
			CRF:    23,
			Preset: "medium",
		},
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			ProbePath:  "ffprobe",
			Threads:    0,
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./shotline.yaml",
		"./shotline.yml",
		filepath.Join(os.Getenv("HOME"), ".shotline", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
