package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setenv sets key and returns a function restoring its old value.
func setenv(t *testing.T, key, value string) func() {
	old, had := os.LookupEnv(key)
	require.NoError(t, os.Setenv(key, value))
	return func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	}
}

func TestDefaults(t *testing.T) {
	assert := assert.New(t)
	c, err := Load("")
	assert.NoError(err)
	assert.Equal(uint64(1024), c.Blocks)
	assert.Equal(BackendFile, c.Backend)
	assert.Equal(uint64(256), c.CacheBlocks)
	assert.Error(c.Validate(), "file backend without image")
}

func TestYAMLThenEnv(t *testing.T) {
	assert := assert.New(t)
	dir, err := ioutil.TempDir("", "gosfs-config")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "gosfs.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte("image: disk.img\nblocks: 64\nbackend: bolt\n"), 0644))

	c, err := Load(path)
	assert.NoError(err)
	assert.Equal("disk.img", c.Image)
	assert.Equal(uint64(64), c.Blocks)
	assert.Equal(BackendBolt, c.Backend)
	assert.Equal(uint64(256), c.CacheBlocks)

	defer setenv(t, "GOSFS_BLOCKS", "128")()
	defer setenv(t, "GOSFS_DEBUG", "2")()
	c, err = Load(path)
	assert.NoError(err)
	assert.Equal(uint64(128), c.Blocks)
	assert.Equal(uint64(2), c.Debug)
	assert.Equal("disk.img", c.Image)
}

func TestStrictYAML(t *testing.T) {
	dir, err := ioutil.TempDir("", "gosfs-config")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "gosfs.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte("blokcs: 64\n"), 0644))
	_, err = Load(path)
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert := assert.New(t)
	c := Default()
	c.Backend = BackendMem
	assert.NoError(c.Validate())
	c.Blocks = 1
	assert.Error(c.Validate())
	c.Blocks = 1 << 20
	assert.Error(c.Validate())
	c.Blocks = 16
	c.Backend = "tape"
	assert.Error(c.Validate())
}

func TestOpenDisk(t *testing.T) {
	dir, err := ioutil.TempDir("", "gosfs-config")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	for _, backend := range []string{BackendFile, BackendMem, BackendBolt, BackendBadger} {
		c := Default()
		c.Backend = backend
		c.Blocks = 8
		c.Image = filepath.Join(dir, backend)
		d, err := c.OpenDisk()
		if assert.NoError(t, err, backend) {
			n, err := d.Size()
			assert.NoError(t, err)
			assert.Equal(t, uint64(8), n, backend)
			assert.NoError(t, d.Close())
		}
	}
}
