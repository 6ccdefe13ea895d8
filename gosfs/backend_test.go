package gosfs

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/gosfs/disk"
	"github.com/mit-pdos/gosfs/vfs"
)

// TestRemount builds a small tree on each persistent backend, closes the
// device and checks the tree after reopening it.
func TestRemount(t *testing.T) {
	backends := map[string]func(path string) (disk.Disk, error){
		"file": func(path string) (disk.Disk, error) {
			return disk.NewFileDisk(path, 32)
		},
		"bolt": func(path string) (disk.Disk, error) {
			return disk.NewBoltDisk(path, 32)
		},
		"badger": func(path string) (disk.Disk, error) {
			return disk.NewBadgerDisk(path, 32)
		},
	}
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			dir, err := ioutil.TempDir("", "gosfs-remount")
			require.NoError(err)
			defer os.RemoveAll(dir)
			path := filepath.Join(dir, name)

			d, err := open(path)
			require.NoError(err)
			require.NoError(Format(d))
			fs, err := Mount(d)
			require.NoError(err)
			require.NoError(fs.CreateDirectory("/etc"))
			f, err := fs.Open("/etc/motd", vfs.O_CREATE|vfs.O_WRITE)
			require.NoError(err)
			_, err = f.Write([]byte("welcome"))
			require.NoError(err)
			require.NoError(f.Close())
			require.NoError(fs.Unmount())
			require.NoError(d.Close())

			d, err = open(path)
			require.NoError(err)
			defer d.Close()
			fs, err = Mount(d)
			require.NoError(err)
			st, err := fs.Stat("/etc/motd")
			require.NoError(err)
			require.Equal(uint64(7), st.Size)
			r, err := fs.Lookup("/etc/motd")
			require.NoError(err)
			p, err := fs.GetPath(r.Addr)
			require.NoError(err)
			require.Equal("/etc/motd", p)
			sfs, err := fs.StatFS()
			require.NoError(err)
			require.Equal(uint64(32-4), sfs.Free)
			require.NoError(fs.Unmount())
		})
	}
}
