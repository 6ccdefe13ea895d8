// Package gosfsfuse serves a mounted GOSFS volume through the go-fuse raw
// filesystem API.
//
// FUSE node ids are entry pointer flat ids plus one, so the root entry
// pointer maps to FUSE_ROOT_ID. Path-taking GOSFS operations are reached by
// rebuilding the parent's path with GetPath.
package gosfsfuse

import (
	"os"
	"sync"
	"syscall"

	"github.com/hanwen/go-fuse/fuse"
	"github.com/pkg/errors"

	"github.com/mit-pdos/gosfs/addr"
	"github.com/mit-pdos/gosfs/common"
	"github.com/mit-pdos/gosfs/gosfs"
	"github.com/mit-pdos/gosfs/util"
	"github.com/mit-pdos/gosfs/vfs"
)

const (
	dirMode  = syscall.S_IFDIR | 0755
	fileMode = syscall.S_IFREG | 0644
)

type dirHandle struct {
	path    string
	entries []fuse.DirEntry
}

type Ops struct {
	fuse.RawFileSystem

	fs *gosfs.Fs

	mu      *sync.Mutex // protects handles and nextFh
	handles map[uint64]interface{}
	nextFh  uint64
}

var _ fuse.RawFileSystem = &Ops{}

func MkOps(fs *gosfs.Fs) *Ops {
	return &Ops{
		RawFileSystem: fuse.NewDefaultRawFileSystem(),
		fs:            fs,
		mu:            new(sync.Mutex),
		handles:       make(map[uint64]interface{}),
		nextFh:        1,
	}
}

func (ops *Ops) String() string {
	return "gosfs"
}

func toStatus(err error) fuse.Status {
	if err == nil {
		return fuse.OK
	}
	var errno syscall.Errno
	switch {
	case errors.Is(err, common.ErrNotFound):
		errno = syscall.ENOENT
	case errors.Is(err, common.ErrExists):
		errno = syscall.EEXIST
	case errors.Is(err, common.ErrNotDir):
		errno = syscall.ENOTDIR
	case errors.Is(err, common.ErrIsDir):
		errno = syscall.EISDIR
	case errors.Is(err, common.ErrNoMem), errors.Is(err, common.ErrNoSpace):
		errno = syscall.ENOSPC
	case errors.Is(err, common.ErrNotEmpty):
		errno = syscall.ENOTEMPTY
	case errors.Is(err, common.ErrNameTooLong):
		errno = syscall.ENAMETOOLONG
	case errors.Is(err, common.ErrInvalid):
		errno = syscall.EINVAL
	case errors.Is(err, common.ErrAccess):
		errno = syscall.EACCES
	case errors.Is(err, common.ErrFileTooBig):
		errno = syscall.EFBIG
	default:
		util.DPrintf(0, "gosfsfuse: %v\n", err)
		errno = syscall.EIO
	}
	return fuse.Status(errno)
}

func nodeAddr(node uint64) addr.Addr {
	return addr.FromFlatid(node - 1)
}

func addrNode(a addr.Addr) uint64 {
	return a.Flatid() + 1
}

func fillAttr(node uint64, st vfs.FileStat, out *fuse.Attr) {
	out.Ino = node
	out.Size = st.Size
	out.Blocks = util.RoundUp(st.Size, 512)
	out.Blksize = uint32(common.BlockSize)
	if st.IsDirectory {
		out.Mode = dirMode
		out.Nlink = 2
	} else {
		out.Mode = fileMode
		out.Nlink = 1
	}
	if st.IsSetuid {
		out.Mode |= syscall.S_ISUID
	}
}

func (ops *Ops) path(node uint64) (string, error) {
	return ops.fs.GetPath(nodeAddr(node))
}

func (ops *Ops) childPath(parent uint64, name string) (string, error) {
	p, err := ops.path(parent)
	if err != nil {
		return "", err
	}
	if p == "/" {
		return "/" + name, nil
	}
	return p + "/" + name, nil
}

// lookupPath fills out for the entry at path.
func (ops *Ops) lookupPath(path string, out *fuse.EntryOut) error {
	r, err := ops.fs.Lookup(path)
	if err != nil {
		return err
	}
	if !r.Found {
		return common.ErrNotFound
	}
	node := addrNode(r.Addr)
	out.NodeId = node
	fillAttr(node, vfsStat(r), &out.Attr)
	return nil
}

func vfsStat(r *gosfs.LookupResult) vfs.FileStat {
	return vfs.FileStat{
		Size:        r.Entry.Size,
		IsDirectory: r.Entry.IsDir(),
		IsSetuid:    r.Entry.IsSetuid(),
	}
}

func (ops *Ops) addHandle(h interface{}) uint64 {
	ops.mu.Lock()
	defer ops.mu.Unlock()
	fh := ops.nextFh
	ops.nextFh++
	ops.handles[fh] = h
	return fh
}

func (ops *Ops) handle(fh uint64) interface{} {
	ops.mu.Lock()
	defer ops.mu.Unlock()
	return ops.handles[fh]
}

func (ops *Ops) delHandle(fh uint64) interface{} {
	ops.mu.Lock()
	defer ops.mu.Unlock()
	h := ops.handles[fh]
	delete(ops.handles, fh)
	return h
}

func (ops *Ops) file(fh uint64) (*gosfs.File, fuse.Status) {
	f, ok := ops.handle(fh).(*gosfs.File)
	if !ok {
		return nil, fuse.EBADF
	}
	return f, fuse.OK
}

func (ops *Ops) Lookup(input *fuse.InHeader, name string, out *fuse.EntryOut) fuse.Status {
	p, err := ops.childPath(input.NodeId, name)
	if err != nil {
		return toStatus(err)
	}
	return toStatus(ops.lookupPath(p, out))
}

func (ops *Ops) GetAttr(input *fuse.GetAttrIn, out *fuse.AttrOut) fuse.Status {
	st, err := ops.fs.StatAddr(nodeAddr(input.NodeId))
	if err != nil {
		return toStatus(err)
	}
	fillAttr(input.NodeId, st, &out.Attr)
	return fuse.OK
}

func (ops *Ops) Mkdir(input *fuse.MkdirIn, name string, out *fuse.EntryOut) fuse.Status {
	p, err := ops.childPath(input.NodeId, name)
	if err != nil {
		return toStatus(err)
	}
	if err := ops.fs.CreateDirectory(p); err != nil {
		return toStatus(err)
	}
	return toStatus(ops.lookupPath(p, out))
}

func (ops *Ops) remove(parent uint64, name string, dir bool) fuse.Status {
	p, err := ops.childPath(parent, name)
	if err != nil {
		return toStatus(err)
	}
	st, err := ops.fs.Stat(p)
	if err != nil {
		return toStatus(err)
	}
	if st.IsDirectory && !dir {
		return fuse.Status(syscall.EISDIR)
	}
	if !st.IsDirectory && dir {
		return fuse.ENOTDIR
	}
	return toStatus(ops.fs.Delete(p))
}

func (ops *Ops) Unlink(input *fuse.InHeader, name string) fuse.Status {
	return ops.remove(input.NodeId, name, false)
}

func (ops *Ops) Rmdir(input *fuse.InHeader, name string) fuse.Status {
	return ops.remove(input.NodeId, name, true)
}

func openMode(flags uint32) int {
	mode := 0
	switch int(flags) & syscall.O_ACCMODE {
	case os.O_RDONLY:
		mode = vfs.O_READ
	case os.O_WRONLY:
		mode = vfs.O_WRITE
	case os.O_RDWR:
		mode = vfs.O_READ | vfs.O_WRITE
	}
	return mode
}

func (ops *Ops) Open(input *fuse.OpenIn, out *fuse.OpenOut) fuse.Status {
	p, err := ops.path(input.NodeId)
	if err != nil {
		return toStatus(err)
	}
	f, err := ops.fs.Open(p, openMode(input.Flags))
	if err != nil {
		return toStatus(err)
	}
	out.Fh = ops.addHandle(f)
	return fuse.OK
}

func (ops *Ops) Create(input *fuse.CreateIn, name string, out *fuse.CreateOut) fuse.Status {
	p, err := ops.childPath(input.NodeId, name)
	if err != nil {
		return toStatus(err)
	}
	mode := openMode(input.Flags) | vfs.O_CREATE
	if int(input.Flags)&os.O_EXCL != 0 {
		mode |= vfs.O_EXCL
	}
	f, err := ops.fs.Open(p, mode)
	if err != nil {
		return toStatus(err)
	}
	st, err := f.FStat()
	if err != nil {
		f.Close()
		return toStatus(err)
	}
	node := addrNode(f.Addr())
	out.NodeId = node
	fillAttr(node, st, &out.Attr)
	out.Fh = ops.addHandle(f)
	return fuse.OK
}

func (ops *Ops) Read(input *fuse.ReadIn, buf []byte) (fuse.ReadResult, fuse.Status) {
	f, code := ops.file(input.Fh)
	if !code.Ok() {
		return nil, code
	}
	st, err := f.FStat()
	if err != nil {
		return nil, toStatus(err)
	}
	if input.Offset >= st.Size {
		return fuse.ReadResultData(nil), fuse.OK
	}
	if err := f.Seek(input.Offset); err != nil {
		return nil, toStatus(err)
	}
	n, err := f.Read(buf)
	if err != nil {
		return nil, toStatus(err)
	}
	return fuse.ReadResultData(buf[:n]), fuse.OK
}

func (ops *Ops) Write(input *fuse.WriteIn, data []byte) (uint32, fuse.Status) {
	f, code := ops.file(input.Fh)
	if !code.Ok() {
		return 0, code
	}
	if err := f.Seek(input.Offset); err != nil {
		return 0, toStatus(err)
	}
	n, err := f.Write(data)
	if err != nil {
		return 0, toStatus(err)
	}
	return uint32(n), fuse.OK
}

func (ops *Ops) Release(input *fuse.ReleaseIn) {
	if f, ok := ops.delHandle(input.Fh).(*gosfs.File); ok {
		f.Close()
	}
}

func (ops *Ops) Fsync(input *fuse.FsyncIn) fuse.Status {
	return toStatus(ops.fs.Sync())
}

// readDir lists the directory at path with node ids for every entry.
func (ops *Ops) readDir(path string) ([]fuse.DirEntry, error) {
	d, err := ops.fs.OpenDirectory(path)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	var ents []fuse.DirEntry
	for {
		de, err := d.ReadEntry()
		if err == common.ErrEOF {
			break
		}
		if err != nil {
			return nil, err
		}
		cp := path + "/" + de.Name
		if path == "/" {
			cp = "/" + de.Name
		}
		r, err := ops.fs.Lookup(cp)
		if err != nil {
			return nil, err
		}
		mode := uint32(fileMode)
		if de.Stat.IsDirectory {
			mode = dirMode
		}
		ents = append(ents, fuse.DirEntry{Mode: mode, Name: de.Name, Ino: addrNode(r.Addr)})
	}
	return ents, nil
}

func (ops *Ops) OpenDir(input *fuse.OpenIn, out *fuse.OpenOut) fuse.Status {
	p, err := ops.path(input.NodeId)
	if err != nil {
		return toStatus(err)
	}
	ents, err := ops.readDir(p)
	if err != nil {
		return toStatus(err)
	}
	out.Fh = ops.addHandle(&dirHandle{path: p, entries: ents})
	return fuse.OK
}

func (ops *Ops) ReadDir(input *fuse.ReadIn, l *fuse.DirEntryList) fuse.Status {
	h, ok := ops.handle(input.Fh).(*dirHandle)
	if !ok {
		return fuse.EBADF
	}
	if input.Offset == 0 {
		ents, err := ops.readDir(h.path)
		if err != nil {
			return toStatus(err)
		}
		h.entries = ents
	}
	for i := input.Offset; i < uint64(len(h.entries)); i++ {
		if ok, _ := l.AddDirEntry(h.entries[i]); !ok {
			break
		}
	}
	return fuse.OK
}

func (ops *Ops) ReleaseDir(input *fuse.ReleaseIn) {
	ops.delHandle(input.Fh)
}

func (ops *Ops) StatFs(input *fuse.InHeader, out *fuse.StatfsOut) fuse.Status {
	st, err := ops.fs.StatFS()
	if err != nil {
		return toStatus(err)
	}
	out.Bsize = uint32(st.BlockSize)
	out.Frsize = uint32(st.BlockSize)
	out.Blocks = st.Blocks
	out.Bfree = st.Free
	out.Bavail = st.Free
	out.NameLen = uint32(common.FILENAMEMAX)
	return fuse.OK
}

// Serve mounts ops at mountpoint and serves requests until the filesystem
// is unmounted.
func Serve(ops *Ops, mountpoint string, debug bool) error {
	opts := &fuse.MountOptions{Name: "gosfs", Debug: debug}
	server, err := fuse.NewServer(ops, mountpoint, opts)
	if err != nil {
		return errors.Wrapf(err, "mount %s", mountpoint)
	}
	server.Serve()
	return nil
}
