// Package config holds the settings of the gosubsurf tool. Settings come
// from a YAML file and are checked with struct tags before use.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/gorustyt/gosubsurf/subsurf"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

type Config struct {
	Subdiv *SubdivConfig `yaml:"subdiv" validate:"required"`
	Output *OutputConfig `yaml:"output" validate:"required"`
	Log    *LogConfig    `yaml:"log" validate:"required"`
}

func (cfg *Config) Reset() {
	cfg.Subdiv.Reset()
	cfg.Output.Reset()
	cfg.Log.Reset()
}

func NewConfig() *Config {
	c := &Config{
		Subdiv: &SubdivConfig{},
		Output: &OutputConfig{},
		Log:    &LogConfig{},
	}
	c.Reset()
	return c
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := NewConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	return validate.Struct(cfg)
}

type SubdivConfig struct {
	Levels            int     `yaml:"levels" validate:"gte=1,lte=11"`
	Normals           bool    `yaml:"normals"`
	Simple            bool    `yaml:"simple"`
	AllowEdgeCreation bool    `yaml:"allow_edge_creation"`
	DefaultCrease     float32 `yaml:"default_crease" validate:"gte=0,lte=1"`
	// ParallelThreshold is passed through; negative keeps evaluation serial.
	ParallelThreshold int  `yaml:"parallel_threshold"`
	PoolBuffers       bool `yaml:"pool_buffers"`
	// SampleLimit caps the number of live samples, 0 for no cap.
	SampleLimit int `yaml:"sample_limit" validate:"gte=0"`
}

func (cfg *SubdivConfig) Reset() {
	cfg.Levels = 2
	cfg.Normals = true
	cfg.Simple = false
	cfg.AllowEdgeCreation = false
	cfg.DefaultCrease = 0
	cfg.ParallelThreshold = 0
	cfg.PoolBuffers = false
	cfg.SampleLimit = 0
}

// SubSurfConfig translates the settings for subsurf.New.
func (cfg *SubdivConfig) SubSurfConfig(log *zap.Logger) *subsurf.Config {
	c := &subsurf.Config{
		SubdivLevels:       cfg.Levels,
		CalcVertNormals:    cfg.Normals,
		SimpleSubdiv:       cfg.Simple,
		AllowEdgeCreation:  cfg.AllowEdgeCreation,
		DefaultCreaseValue: cfg.DefaultCrease,
		ParallelThreshold:  cfg.ParallelThreshold,
		Logger:             log,
	}
	var samples subsurf.Allocator[subsurf.Sample] = subsurf.HeapAllocator[subsurf.Sample]{}
	if cfg.PoolBuffers {
		samples = subsurf.NewPoolAllocator[subsurf.Sample]()
	}
	if cfg.SampleLimit > 0 {
		samples = subsurf.NewLimitAllocator(samples, cfg.SampleLimit)
	}
	c.SampleAllocator = samples
	return c
}

type OutputConfig struct {
	Obj          string `yaml:"obj"`
	ObjNormals   bool   `yaml:"obj_normals"`
	Snapshot     string `yaml:"snapshot"`
	NormalMapDir string `yaml:"normal_map_dir"`
	Stats        string `yaml:"stats"`
	Check        bool   `yaml:"check"`
}

func (cfg *OutputConfig) Reset() {
	*cfg = OutputConfig{}
}

type LogConfig struct {
	Level      string `yaml:"level" validate:"oneof=debug info warn error"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `yaml:"max_age_days" validate:"gte=0"`
}

func (cfg *LogConfig) Reset() {
	cfg.Level = "info"
	cfg.File = ""
	cfg.MaxSizeMB = 64
	cfg.MaxBackups = 3
	cfg.MaxAgeDays = 28
}
