package disk

import (
	"encoding/binary"
	"os"

	"github.com/dgraph-io/badger"
	"github.com/pkg/errors"

	"github.com/mit-pdos/gosfs/util"
)

// key prefixes: 'b' + blkno -> compressed block, 'm' + name -> metadata
var badgerBlockPrefix = []byte("b")
var badgerSizeKey = []byte("msize")

type badgerDisk struct {
	db        *badger.DB
	numBlocks uint64
}

var _ Disk = (*badgerDisk)(nil)

// NewBadgerDisk opens a badger database in dir. As with NewBoltDisk, a size
// already recorded in the database wins over numBlocks.
func NewBadgerDisk(dir string, numBlocks uint64) (Disk, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.Wrapf(err, "mkdir %s", dir)
	}
	opts := badger.DefaultOptions
	opts.Dir = dir
	opts.ValueDir = dir
	opts.SyncWrites = true
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "badger.Open %s", dir)
	}
	d := &badgerDisk{db: db, numBlocks: numBlocks}
	v, err := d.get(badgerSizeKey)
	switch {
	case err == badger.ErrKeyNotFound:
		err = d.set(badgerSizeKey, blockKey(numBlocks))
	case err == nil:
		d.numBlocks = binary.BigEndian.Uint64(v)
	}
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "badger init")
	}
	util.DPrintf(1, "NewBadgerDisk: %s %d blocks\n", dir, d.numBlocks)
	return d, nil
}

func (d *badgerDisk) get(k []byte) (v []byte, err error) {
	err = d.db.View(func(txn *badger.Txn) error {
		i, err := txn.Get(k)
		if err == nil {
			v, err = i.ValueCopy(nil)
		}
		return err
	})
	return
}

func (d *badgerDisk) set(k, v []byte) error {
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, v)
	})
}

func badgerBlockKey(a uint64) []byte {
	return append(append([]byte{}, badgerBlockPrefix...), blockKey(a)...)
}

func (d *badgerDisk) ReadTo(a uint64, buf Block) error {
	if err := checkBlock(buf); err != nil {
		return err
	}
	if err := checkAddr(a, d.numBlocks); err != nil {
		return err
	}
	v, err := d.get(badgerBlockKey(a))
	if err == badger.ErrKeyNotFound {
		v, err = nil, nil
	}
	if err != nil {
		return errors.Wrapf(err, "badger read block %d", a)
	}
	return decompressBlock(v, buf)
}

func (d *badgerDisk) Read(a uint64) (Block, error) {
	buf := make(Block, BlockSize)
	err := d.ReadTo(a, buf)
	return buf, err
}

func (d *badgerDisk) Write(a uint64, v Block) error {
	if err := checkBlock(v); err != nil {
		return err
	}
	if err := checkAddr(a, d.numBlocks); err != nil {
		return err
	}
	return errors.Wrapf(d.set(badgerBlockKey(a), compressBlock(v)),
		"badger write block %d", a)
}

func (d *badgerDisk) Size() (uint64, error) {
	return d.numBlocks, nil
}

// Barrier has nothing to do: writes are synchronous (SyncWrites).
func (d *badgerDisk) Barrier() error {
	return nil
}

func (d *badgerDisk) Close() error {
	return errors.Wrap(d.db.Close(), "badger close")
}
