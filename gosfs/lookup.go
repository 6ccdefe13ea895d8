package gosfs

import (
	"strings"

	"github.com/mit-pdos/gosfs/addr"
	"github.com/mit-pdos/gosfs/buf"
	"github.com/mit-pdos/gosfs/common"
	"github.com/mit-pdos/gosfs/dirent"
	"github.com/mit-pdos/gosfs/util"
)

// LookupResult is the outcome of resolving a path.
//
// When Found is set, Addr and Entry describe the final component. Otherwise
// the final component is missing but creatable: Name is that component,
// Parent the directory block it would go in, and FreeSlot the first unused
// slot of Parent (valid only when HasFree).
type LookupResult struct {
	Found    bool
	Addr     addr.Addr
	Entry    *dirent.Entry
	Parent   common.Bnum
	Name     string
	FreeSlot uint64
	HasFree  bool
}

// unpackPath splits an absolute path into its first component and the rest,
// which is empty or starts with a slash.
func unpackPath(path string) (string, string) {
	path = strings.TrimLeft(path, "/")
	i := strings.IndexByte(path, '/')
	if i < 0 {
		return path, ""
	}
	return path[:i], path[i:]
}

func isTerminal(rest string) bool {
	return strings.Trim(rest, "/") == ""
}

type scanResult struct {
	slot     uint64
	entry    *dirent.Entry
	found    bool
	freeSlot uint64
	hasFree  bool
}

// scanDir looks for name in directory block dir. A plain file only matches
// as the last component.
func (fs *Fs) scanDir(dir common.Bnum, name string, terminal bool) (scanResult, error) {
	var r scanResult
	err := fs.withBlock(dir, func(b *buf.Buf) error {
		for slot := common.FIRSTSLOT; slot < common.DIRENTS; slot++ {
			e := dirent.Get(b.Data, slot)
			if !e.IsUsed() {
				if !r.hasFree {
					r.freeSlot = slot
					r.hasFree = true
				}
				continue
			}
			if e.Name == name && (terminal || e.IsDir()) {
				r.slot = slot
				r.entry = e
				r.found = true
				return nil
			}
		}
		return nil
	})
	return r, err
}

// lookup resolves path. Assumes fs.oplock is held.
func (fs *Fs) lookup(path string) (*LookupResult, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, common.ErrInvalid
	}
	root := *fs.root
	cur := fs.sb.Root
	curAddr := addr.Root
	curEntry := &root
	rest := path
	for {
		var comp string
		comp, rest = unpackPath(rest)
		terminal := isTerminal(rest)
		switch comp {
		case "":
			// "/" or a run of slashes names the directory reached so far
			return &LookupResult{Found: true, Addr: curAddr, Entry: curEntry, Parent: cur, Name: comp}, nil
		case ".":
		case "..":
			parent, err := fs.parentOf(cur)
			if err != nil {
				return nil, err
			}
			pa, err := fs.dirAddr(parent)
			if err != nil {
				return nil, err
			}
			pe, err := fs.readEntry(pa)
			if err != nil {
				return nil, err
			}
			cur, curAddr, curEntry = parent, pa, pe
		default:
			r, err := fs.scanDir(cur, comp, terminal)
			if err != nil {
				return nil, err
			}
			if !r.found {
				if !terminal {
					util.DPrintf(3, "lookup %s: %q missing in %d\n", path, comp, cur)
					return nil, common.ErrNotFound
				}
				util.DPrintf(3, "lookup %s: miss in %d, free %v %d\n", path, cur, r.hasFree, r.freeSlot)
				return &LookupResult{
					Parent:   cur,
					Name:     comp,
					FreeSlot: r.freeSlot,
					HasFree:  r.hasFree,
				}, nil
			}
			a := addr.MkAddr(cur, r.slot)
			if terminal {
				util.DPrintf(3, "lookup %s: %v %v\n", path, a, r.entry)
				return &LookupResult{Found: true, Addr: a, Entry: r.entry, Parent: cur, Name: comp}, nil
			}
			cur, curAddr, curEntry = r.entry.Data(), a, r.entry
			continue
		}
		if terminal {
			return &LookupResult{Found: true, Addr: curAddr, Entry: curEntry, Parent: cur, Name: comp}, nil
		}
	}
}

// Lookup resolves an absolute path. A missing final component is reported
// through LookupResult.Found rather than an error; a missing intermediate
// directory is ErrNotFound.
func (fs *Fs) Lookup(path string) (*LookupResult, error) {
	fs.oplock.Lock()
	defer fs.oplock.Unlock()
	if !fs.mounted {
		return nil, common.ErrInvalid
	}
	return fs.lookup(path)
}
