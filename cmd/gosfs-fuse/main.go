// Command gosfs-fuse mounts a GOSFS volume through FUSE.
package main

import (
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/mit-pdos/gosfs/config"
	"github.com/mit-pdos/gosfs/gosfs"
	"github.com/mit-pdos/gosfs/gosfsfuse"
	"github.com/mit-pdos/gosfs/util"
)

func serve(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("usage: gosfs-fuse [flags] MOUNTPOINT")
	}
	c, err := config.Load(ctx.String("config"))
	if err != nil {
		return err
	}
	if ctx.IsSet("image") {
		c.Image = ctx.String("image")
	}
	if ctx.IsSet("backend") {
		c.Backend = ctx.String("backend")
	}
	c.Apply()
	d, err := c.OpenDisk()
	if err != nil {
		return err
	}
	defer d.Close()
	if ctx.Bool("format") {
		if err := gosfs.Format(d); err != nil {
			return err
		}
	}
	fs, err := gosfs.MountCache(d, c.CacheBlocks)
	if err != nil {
		return errors.Wrapf(err, "mount %s", c.Image)
	}
	mnt := ctx.Args().First()
	util.DPrintf(0, "serving %s at %s\n", c.Image, mnt)
	err = gosfsfuse.Serve(gosfsfuse.MkOps(fs), mnt, ctx.Bool("fuse-debug"))
	if uerr := fs.Unmount(); err == nil {
		err = uerr
	}
	return err
}

func main() {
	app := &cli.App{
		Name:      "gosfs-fuse",
		Usage:     "mount a GOSFS volume",
		ArgsUsage: "MOUNTPOINT",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, EnvVars: []string{"GOSFS_CONFIG"}},
			&cli.StringFlag{Name: "image", Aliases: []string{"i"}},
			&cli.StringFlag{Name: "backend"},
			&cli.BoolFlag{Name: "format", Usage: "format the volume before mounting"},
			&cli.BoolFlag{Name: "fuse-debug", Usage: "log FUSE traffic"},
		},
		Action: serve,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
