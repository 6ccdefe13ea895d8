package disk

import (
	"encoding/binary"

	bbolt "github.com/coreos/bbolt"
	"github.com/pkg/errors"

	"github.com/mit-pdos/gosfs/util"
)

var blocksBucket = []byte("blocks")
var metaBucket = []byte("meta")
var sizeKey = []byte("size")

// boltDisk keeps one compressed block per key in a bbolt database. Blocks
// never written read as zeroes, so a fresh database is an all-zero disk.
type boltDisk struct {
	db        *bbolt.DB
	numBlocks uint64
}

var _ Disk = (*boltDisk)(nil)

// NewBoltDisk opens the database at path. The size recorded in an existing
// database wins over numBlocks.
func NewBoltDisk(path string, numBlocks uint64) (Disk, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "bbolt.Open %s", path)
	}
	d := &boltDisk{db: db, numBlocks: numBlocks}
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(blocksBucket); err != nil {
			return err
		}
		meta, err := tx.CreateBucketIfNotExists(metaBucket)
		if err != nil {
			return err
		}
		if v := meta.Get(sizeKey); v != nil {
			d.numBlocks = binary.BigEndian.Uint64(v)
			return nil
		}
		return meta.Put(sizeKey, blockKey(numBlocks))
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "bbolt init")
	}
	util.DPrintf(1, "NewBoltDisk: %s %d blocks\n", path, d.numBlocks)
	return d, nil
}

func (d *boltDisk) ReadTo(a uint64, buf Block) error {
	if err := checkBlock(buf); err != nil {
		return err
	}
	if err := checkAddr(a, d.numBlocks); err != nil {
		return err
	}
	return d.db.View(func(tx *bbolt.Tx) error {
		// the value is only valid inside the transaction
		return decompressBlock(tx.Bucket(blocksBucket).Get(blockKey(a)), buf)
	})
}

func (d *boltDisk) Read(a uint64) (Block, error) {
	buf := make(Block, BlockSize)
	err := d.ReadTo(a, buf)
	return buf, err
}

func (d *boltDisk) Write(a uint64, v Block) error {
	if err := checkBlock(v); err != nil {
		return err
	}
	if err := checkAddr(a, d.numBlocks); err != nil {
		return err
	}
	err := d.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(blocksBucket).Put(blockKey(a), compressBlock(v))
	})
	return errors.Wrapf(err, "bbolt write block %d", a)
}

func (d *boltDisk) Size() (uint64, error) {
	return d.numBlocks, nil
}

// Barrier flushes the database file; every bbolt update has already committed.
func (d *boltDisk) Barrier() error {
	return errors.Wrap(d.db.Sync(), "bbolt sync")
}

func (d *boltDisk) Close() error {
	return errors.Wrap(d.db.Close(), "bbolt close")
}
