package main

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/mit-pdos/gosfs/common"
	"github.com/mit-pdos/gosfs/config"
	"github.com/mit-pdos/gosfs/disk"
	"github.com/mit-pdos/gosfs/gosfs"
	"github.com/mit-pdos/gosfs/vfs"
)

// loadConfig reads the configuration file and applies command-line
// overrides.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	c, err := config.Load(ctx.String("config"))
	if err != nil {
		return nil, err
	}
	if ctx.IsSet("image") {
		c.Image = ctx.String("image")
	}
	if ctx.IsSet("backend") {
		c.Backend = ctx.String("backend")
	}
	if ctx.IsSet("blocks") {
		c.Blocks = ctx.Uint64("blocks")
	}
	if ctx.IsSet("debug") {
		c.Debug = ctx.Uint64("debug")
	}
	c.Apply()
	return c, nil
}

func withDisk(f func(d disk.Disk, ctx *cli.Context) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		c, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		d, err := c.OpenDisk()
		if err != nil {
			return err
		}
		defer d.Close()
		return f(d, ctx)
	}
}

// withFs mounts the configured volume for the duration of f.
func withFs(f func(fs *gosfs.Fs, ctx *cli.Context) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		c, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		d, err := c.OpenDisk()
		if err != nil {
			return err
		}
		defer d.Close()
		fs, err := gosfs.MountCache(d, c.CacheBlocks)
		if err != nil {
			return errors.Wrapf(err, "mount %s", c.Image)
		}
		err = f(fs, ctx)
		if uerr := fs.Unmount(); err == nil {
			err = uerr
		}
		return err
	}
}

func pathArg(ctx *cli.Context, i int) (string, error) {
	if ctx.NArg() <= i {
		return "", errors.Errorf("%s: missing argument", ctx.Command.Name)
	}
	return ctx.Args().Get(i), nil
}

func formatStat(st vfs.FileStat) string {
	kind := "file"
	if st.IsDirectory {
		kind = "dir"
	}
	s := fmt.Sprintf("%-4s %6d", kind, st.Size)
	if st.IsSetuid {
		s += " setuid"
	}
	for _, acl := range st.ACL {
		s += fmt.Sprintf(" uid=%d:%o", acl.Uid, acl.Permission)
	}
	return s
}

func cmdFormat(d disk.Disk, ctx *cli.Context) error {
	if err := gosfs.Format(d); err != nil {
		return err
	}
	n, err := d.Size()
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "formatted %d blocks\n", n)
	return nil
}

func cmdMkdir(fs *gosfs.Fs, ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return errors.New("mkdir: missing argument")
	}
	for _, p := range ctx.Args().Slice() {
		if err := fs.CreateDirectory(p); err != nil {
			return errors.Wrap(err, p)
		}
	}
	return nil
}

func cmdLs(fs *gosfs.Fs, ctx *cli.Context) error {
	p := "/"
	if ctx.NArg() > 0 {
		p = ctx.Args().First()
	}
	d, err := fs.OpenDirectory(p)
	if err != nil {
		return errors.Wrap(err, p)
	}
	defer d.Close()
	for {
		de, err := d.ReadEntry()
		if err == common.ErrEOF {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(ctx.App.Writer, "%s %s\n", formatStat(de.Stat), de.Name)
	}
}

func cmdStat(fs *gosfs.Fs, ctx *cli.Context) error {
	p, err := pathArg(ctx, 0)
	if err != nil {
		return err
	}
	st, err := fs.Stat(p)
	if err != nil {
		return errors.Wrap(err, p)
	}
	fmt.Fprintf(ctx.App.Writer, "%s %s\n", formatStat(st), p)
	return nil
}

func cmdRm(fs *gosfs.Fs, ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return errors.New("rm: missing argument")
	}
	for _, p := range ctx.Args().Slice() {
		if err := fs.Delete(p); err != nil {
			return errors.Wrap(err, p)
		}
	}
	return nil
}

// cmdPut copies a host file (or stdin for "-") into the volume.
func cmdPut(fs *gosfs.Fs, ctx *cli.Context) error {
	src, err := pathArg(ctx, 0)
	if err != nil {
		return err
	}
	dst, err := pathArg(ctx, 1)
	if err != nil {
		return err
	}
	var data []byte
	if src == "-" {
		data, err = ioutil.ReadAll(ctx.App.Reader)
	} else {
		data, err = ioutil.ReadFile(src)
	}
	if err != nil {
		return err
	}
	if uint64(len(data)) > common.BlockSize {
		return errors.Wrapf(common.ErrFileTooBig, "%s is %d bytes", src, len(data))
	}
	f, err := fs.Open(dst, vfs.O_CREATE|vfs.O_WRITE)
	if err != nil {
		return errors.Wrap(err, dst)
	}
	defer f.Close()
	_, err = f.Write(data)
	return errors.Wrap(err, dst)
}

func cmdCat(fs *gosfs.Fs, ctx *cli.Context) error {
	p, err := pathArg(ctx, 0)
	if err != nil {
		return err
	}
	f, err := fs.Open(p, vfs.O_READ)
	if err != nil {
		return errors.Wrap(err, p)
	}
	defer f.Close()
	_, err = io.Copy(ctx.App.Writer, f)
	return err
}

// cmdPath resolves a path and rebuilds it from the entry it names.
func cmdPath(fs *gosfs.Fs, ctx *cli.Context) error {
	p, err := pathArg(ctx, 0)
	if err != nil {
		return err
	}
	r, err := fs.Lookup(p)
	if err != nil {
		return errors.Wrap(err, p)
	}
	if !r.Found {
		return errors.Wrap(common.ErrNotFound, p)
	}
	full, err := fs.GetPath(r.Addr)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "%s %v\n", full, r.Addr)
	return nil
}

func cmdDf(fs *gosfs.Fs, ctx *cli.Context) error {
	st, err := fs.StatFS()
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "blocks %d used %d free %d (block size %d)\n",
		st.Blocks, st.Used, st.Free, st.BlockSize)
	return nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "gosfs",
		Usage: "inspect and modify GOSFS volumes",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML configuration file", EnvVars: []string{"GOSFS_CONFIG"}},
			&cli.StringFlag{Name: "image", Aliases: []string{"i"}, Usage: "volume image"},
			&cli.StringFlag{Name: "backend", Usage: "file, mem, bolt or badger"},
			&cli.Uint64Flag{Name: "blocks", Usage: "volume size in blocks when creating an image"},
			&cli.Uint64Flag{Name: "debug", Usage: "debug print level"},
		},
		Commands: []*cli.Command{{
			Name:   "format",
			Usage:  "write an empty filesystem",
			Action: withDisk(cmdFormat),
		}, {
			Name:      "mkdir",
			Usage:     "create directories",
			ArgsUsage: "PATH...",
			Action:    withFs(cmdMkdir),
		}, {
			Name:      "ls",
			Usage:     "list a directory",
			ArgsUsage: "[PATH]",
			Action:    withFs(cmdLs),
		}, {
			Name:      "stat",
			Usage:     "describe a file or directory",
			ArgsUsage: "PATH",
			Action:    withFs(cmdStat),
		}, {
			Name:      "rm",
			Aliases:   []string{"rmdir"},
			Usage:     "delete files and empty directories",
			ArgsUsage: "PATH...",
			Action:    withFs(cmdRm),
		}, {
			Name:      "put",
			Usage:     "copy a host file into the volume",
			ArgsUsage: "SRC DST",
			Action:    withFs(cmdPut),
		}, {
			Name:      "cat",
			Usage:     "print a file",
			ArgsUsage: "PATH",
			Action:    withFs(cmdCat),
		}, {
			Name:      "path",
			Usage:     "resolve a path and rebuild it from its entry",
			ArgsUsage: "PATH",
			Action:    withFs(cmdPath),
		}, {
			Name:   "df",
			Usage:  "report block usage",
			Action: withFs(cmdDf),
		}},
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}
