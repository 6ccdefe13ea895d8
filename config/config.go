// Package config holds the settings shared by the gosfs commands.
//
// Settings start from defaults, are overlaid by an optional YAML file and
// then by GOSFS_* environment variables.
package config

import (
	"io/ioutil"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/mit-pdos/gosfs/common"
	"github.com/mit-pdos/gosfs/disk"
	"github.com/mit-pdos/gosfs/util"
)

const EnvPrefix = "GOSFS"

const (
	BackendFile   = "file"
	BackendMem    = "mem"
	BackendBolt   = "bolt"
	BackendBadger = "badger"
)

type Config struct {
	// Image is the device: a file for the file and bolt backends, a
	// directory for badger. Unused by mem.
	Image       string `envconfig:"IMAGE" yaml:"image"`
	Blocks      uint64 `envconfig:"BLOCKS" yaml:"blocks"`
	Backend     string `envconfig:"BACKEND" yaml:"backend"`
	CacheBlocks uint64 `envconfig:"CACHEBLOCKS" yaml:"cacheBlocks"`
	Debug       uint64 `envconfig:"DEBUG" yaml:"debug"`
}

func Default() *Config {
	return &Config{
		Blocks:      1024,
		Backend:     BackendFile,
		CacheBlocks: 256,
	}
}

// Load reads the configuration. path may be empty, meaning no file.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := ioutil.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "reading config file")
		}
		if err := yaml.UnmarshalStrict(data, c); err != nil {
			return nil, errors.Wrap(err, "unmarshaling config file")
		}
	}
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return nil, errors.Wrap(err, "parsing environment variables")
	}
	return c, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFile, BackendBolt, BackendBadger:
		if c.Image == "" {
			return errors.Errorf("missing required configuration: image / %s_IMAGE", EnvPrefix)
		}
	case BackendMem:
	default:
		return errors.Errorf("unknown backend %q", c.Backend)
	}
	if c.Blocks < 2 || c.Blocks > common.MAXBLOCKS {
		return errors.Errorf("blocks must be between 2 and %d, got %d", common.MAXBLOCKS, c.Blocks)
	}
	if c.CacheBlocks == 0 {
		return errors.New("cacheBlocks must be positive")
	}
	return nil
}

// Apply sets process-wide settings, currently the debug level.
func (c *Config) Apply() {
	util.Debug = c.Debug
}

// OpenDisk opens the configured device, creating it with Blocks blocks if
// it does not exist.
func (c *Config) OpenDisk() (disk.Disk, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var d disk.Disk
	var err error
	switch c.Backend {
	case BackendFile:
		d, err = disk.NewFileDisk(c.Image, c.Blocks)
	case BackendMem:
		d = disk.NewMemDisk(c.Blocks)
	case BackendBolt:
		d, err = disk.NewBoltDisk(c.Image, c.Blocks)
	case BackendBadger:
		d, err = disk.NewBadgerDisk(c.Image, c.Blocks)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open %s disk %s", c.Backend, c.Image)
	}
	util.DPrintf(1, "OpenDisk: %s %s\n", c.Backend, c.Image)
	return d, nil
}
