package gosfsfuse

import (
	"os"
	"syscall"
	"testing"

	"github.com/hanwen/go-fuse/fuse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/gosfs/common"
	"github.com/mit-pdos/gosfs/disk"
	"github.com/mit-pdos/gosfs/gosfs"
)

func mkOps(t *testing.T) *Ops {
	d := disk.NewMemDisk(64)
	require.NoError(t, gosfs.Format(d))
	fs, err := gosfs.Mount(d)
	require.NoError(t, err)
	return MkOps(fs)
}

func hdr(node uint64) fuse.InHeader {
	return fuse.InHeader{NodeId: node}
}

func TestRootAttr(t *testing.T) {
	assert := assert.New(t)
	ops := mkOps(t)
	var out fuse.AttrOut
	code := ops.GetAttr(&fuse.GetAttrIn{InHeader: hdr(fuse.FUSE_ROOT_ID)}, &out)
	assert.Equal(fuse.OK, code)
	assert.Equal(uint32(dirMode), out.Mode)
	assert.Equal(common.BlockSize, out.Size)
}

func TestMkdirLookup(t *testing.T) {
	assert := assert.New(t)
	ops := mkOps(t)
	var d fuse.EntryOut
	assert.Equal(fuse.OK, ops.Mkdir(&fuse.MkdirIn{InHeader: hdr(fuse.FUSE_ROOT_ID)}, "d", &d))
	assert.Equal(uint32(dirMode), d.Mode)

	var e fuse.EntryOut
	assert.Equal(fuse.OK, ops.Lookup(&fuse.InHeader{NodeId: fuse.FUSE_ROOT_ID}, "d", &e))
	assert.Equal(d.NodeId, e.NodeId)

	var sub fuse.EntryOut
	assert.Equal(fuse.OK, ops.Mkdir(&fuse.MkdirIn{InHeader: hdr(d.NodeId)}, "sub", &sub))
	assert.Equal(fuse.Status(syscall.EEXIST), ops.Mkdir(&fuse.MkdirIn{InHeader: hdr(d.NodeId)}, "sub", &sub))
	assert.Equal(fuse.ENOENT, ops.Lookup(&fuse.InHeader{NodeId: d.NodeId}, "nope", &e))

	p, err := ops.path(sub.NodeId)
	assert.NoError(err)
	assert.Equal("/d/sub", p)

	assert.Equal(fuse.Status(syscall.EISDIR), ops.Unlink(&fuse.InHeader{NodeId: fuse.FUSE_ROOT_ID}, "d"))
	assert.Equal(fuse.Status(syscall.ENOTEMPTY), ops.Rmdir(&fuse.InHeader{NodeId: fuse.FUSE_ROOT_ID}, "d"))
	assert.Equal(fuse.OK, ops.Rmdir(&fuse.InHeader{NodeId: d.NodeId}, "sub"))
	assert.Equal(fuse.OK, ops.Rmdir(&fuse.InHeader{NodeId: fuse.FUSE_ROOT_ID}, "d"))
}

func TestCreateReadWrite(t *testing.T) {
	assert := assert.New(t)
	ops := mkOps(t)
	var out fuse.CreateOut
	in := &fuse.CreateIn{InHeader: hdr(fuse.FUSE_ROOT_ID), Flags: uint32(os.O_RDWR)}
	require.Equal(t, fuse.OK, ops.Create(in, "f", &out))
	assert.Equal(uint32(fileMode), out.Mode)

	n, code := ops.Write(&fuse.WriteIn{Fh: out.Fh, Offset: 0}, []byte("hello"))
	assert.Equal(fuse.OK, code)
	assert.Equal(uint32(5), n)
	_, code = ops.Write(&fuse.WriteIn{Fh: out.Fh, Offset: 5}, []byte(" world"))
	assert.Equal(fuse.OK, code)

	buf := make([]byte, 64)
	rr, code := ops.Read(&fuse.ReadIn{Fh: out.Fh, Offset: 6}, buf)
	assert.Equal(fuse.OK, code)
	data, code := rr.Bytes(buf)
	assert.Equal(fuse.OK, code)
	assert.Equal("world", string(data))

	_, code = ops.Write(&fuse.WriteIn{Fh: out.Fh, Offset: 11}, make([]byte, common.BlockSize))
	assert.Equal(fuse.Status(syscall.EFBIG), code)
	_, code = ops.Write(&fuse.WriteIn{Fh: out.Fh, Offset: 100}, []byte("x"))
	assert.Equal(fuse.EINVAL, code)
	ops.Release(&fuse.ReleaseIn{Fh: out.Fh})
	_, code = ops.Read(&fuse.ReadIn{Fh: out.Fh}, buf)
	assert.Equal(fuse.EBADF, code)

	var attr fuse.AttrOut
	assert.Equal(fuse.OK, ops.GetAttr(&fuse.GetAttrIn{InHeader: hdr(out.NodeId)}, &attr))
	assert.Equal(uint64(11), attr.Size)

	var oo fuse.OpenOut
	assert.Equal(fuse.OK, ops.Open(&fuse.OpenIn{InHeader: hdr(out.NodeId), Flags: uint32(os.O_RDONLY)}, &oo))
	_, code = ops.Write(&fuse.WriteIn{Fh: oo.Fh}, []byte("x"))
	assert.Equal(fuse.EACCES, code)
	ops.Release(&fuse.ReleaseIn{Fh: oo.Fh})

	assert.Equal(fuse.ENOTDIR, ops.Rmdir(&fuse.InHeader{NodeId: fuse.FUSE_ROOT_ID}, "f"))
	assert.Equal(fuse.OK, ops.Unlink(&fuse.InHeader{NodeId: fuse.FUSE_ROOT_ID}, "f"))
	assert.Equal(fuse.ENOENT, ops.GetAttr(&fuse.GetAttrIn{InHeader: hdr(out.NodeId)}, &attr))
}

func TestReadDirEntries(t *testing.T) {
	assert := assert.New(t)
	ops := mkOps(t)
	var e fuse.EntryOut
	require.Equal(t, fuse.OK, ops.Mkdir(&fuse.MkdirIn{InHeader: hdr(fuse.FUSE_ROOT_ID)}, "a", &e))
	var c fuse.CreateOut
	require.Equal(t, fuse.OK, ops.Create(&fuse.CreateIn{InHeader: hdr(fuse.FUSE_ROOT_ID)}, "b", &c))
	ops.Release(&fuse.ReleaseIn{Fh: c.Fh})

	ents, err := ops.readDir("/")
	assert.NoError(err)
	var names []string
	for _, de := range ents {
		names = append(names, de.Name)
	}
	assert.Equal([]string{".", "..", "a", "b"}, names)
	assert.Equal(uint64(fuse.FUSE_ROOT_ID), ents[0].Ino)
	assert.Equal(e.NodeId, ents[2].Ino)
	assert.Equal(uint32(dirMode), ents[2].Mode)
	assert.Equal(c.NodeId, ents[3].Ino)

	var oo fuse.OpenOut
	assert.Equal(fuse.OK, ops.OpenDir(&fuse.OpenIn{InHeader: hdr(e.NodeId)}, &oo))
	h, ok := ops.handle(oo.Fh).(*dirHandle)
	assert.True(ok)
	assert.Len(h.entries, 2)
	ops.ReleaseDir(&fuse.ReleaseIn{Fh: oo.Fh})
	assert.Nil(ops.handle(oo.Fh))
}

func TestStatFs(t *testing.T) {
	assert := assert.New(t)
	ops := mkOps(t)
	var out fuse.StatfsOut
	in := hdr(fuse.FUSE_ROOT_ID)
	assert.Equal(fuse.OK, ops.StatFs(&in, &out))
	assert.Equal(uint64(64), out.Blocks)
	assert.Equal(uint64(62), out.Bfree)
	assert.Equal(uint32(common.BlockSize), out.Bsize)
}

func TestToStatus(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(fuse.OK, toStatus(nil))
	assert.Equal(fuse.ENOENT, toStatus(common.ErrNotFound))
	assert.Equal(fuse.Status(syscall.ENOSPC), toStatus(common.ErrNoSpace))
	assert.Equal(fuse.Status(syscall.ENOSPC), toStatus(common.ErrNoMem))
	assert.Equal(fuse.EIO, toStatus(common.IOError(os.ErrClosed, "read")))
}
