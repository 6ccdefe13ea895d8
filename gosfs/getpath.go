package gosfs

import (
	"strings"

	"github.com/mit-pdos/gosfs/addr"
	"github.com/mit-pdos/gosfs/common"
	"github.com/mit-pdos/gosfs/util"
)

// GetPath rebuilds the absolute path of the entry at a by climbing ".."
// links until a directory is its own parent.
func (fs *Fs) GetPath(a addr.Addr) (string, error) {
	if err := fs.begin(); err != nil {
		return "", err
	}
	defer fs.end()
	return fs.getPath(a)
}

func (fs *Fs) getPath(a addr.Addr) (string, error) {
	if a.IsRoot() {
		return "/", nil
	}
	e, err := fs.entryAt(a)
	if err != nil {
		return "", err
	}
	names := []string{e.Name}
	cur := a.Blkno
	// every step moves up one directory, so a longer climb is a cycle
	for steps := uint64(0); ; steps++ {
		if steps > fs.sb.Size {
			util.DPrintf(0, "getPath %v: cycle at block %d\n", a, cur)
			return "", common.ErrUnspecified
		}
		parent, err := fs.parentOf(cur)
		if err != nil {
			return "", err
		}
		if parent == cur {
			break
		}
		pa, err := fs.locateSelfInParent(cur, parent)
		if err != nil {
			return "", err
		}
		pe, err := fs.readEntry(pa)
		if err != nil {
			return "", err
		}
		names = append(names, pe.Name)
		cur = parent
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	p := "/" + strings.Join(names, "/")
	util.DPrintf(3, "getPath %v: %s\n", a, p)
	return p, nil
}
