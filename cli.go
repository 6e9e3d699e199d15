package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"

	"github.com/kaiakz/rcopy-os/fldb"
	"github.com/kaiakz/rcopy-os/rcopy"
	"github.com/kaiakz/rcopy-os/storage"
)

var errCopyFailed = errors.New("errors encountered during copy")

func runClient(ctx context.Context, cfg *Config, src string, dest string) error {
	address, err := rcopy.SplitAddress(dest, cfg.Port)
	if err != nil {
		return err
	}
	fp, err := rcopy.NewFingerprinter(cfg.Fingerprint)
	if err != nil {
		return err
	}
	exclusion, err := rcopy.NewExclusion(cfg.Exclude...)
	if err != nil {
		return err
	}

	client := rcopy.NewClient(address, &rcopy.Options{
		ChunkSize:     cfg.ChunkSize,
		MaxTransfers:  cfg.MaxTransfers,
		Fingerprinter: fp,
		Exclusion:     exclusion,
	})
	ok, err := client.Sync(ctx, src)
	if err != nil {
		return err
	}
	if !ok {
		return errCopyFailed
	}
	fmt.Println("Copy completed successfully")
	return nil
}

func runServer(ctx context.Context, cfg *Config, prefix string) error {
	fp, err := rcopy.NewFingerprinter(cfg.Fingerprint)
	if err != nil {
		return err
	}
	opts := &rcopy.ServerOptions{
		ChunkSize:     cfg.ChunkSize,
		Fingerprinter: fp,
		Mirror:        &storage.NULL{},
	}

	// Everything relative to the working directory is resolved before the sandbox locks it away
	dest, err := destDir(prefix)
	if err != nil {
		return err
	}
	if cfg.CachePath != "" {
		path, err := filepath.Abs(cfg.CachePath)
		if err != nil {
			return errors.Wrap(err, "cache path")
		}
		cache, err := fldb.Open(path, []byte(dest))
		if err != nil {
			return err
		}
		defer cache.Close()
		opts.Cache = cache
	}
	if cfg.Minio.Endpoint != "" {
		m := cfg.Minio
		mirror, err := storage.NewMinio(m.Bucket, m.Prefix, m.Endpoint, m.AccessKeyID, m.SecretAccessKey, m.Secure)
		if err != nil {
			return err
		}
		opts.Mirror = mirror
	}

	if err := prepareSandbox(dest); err != nil {
		return err
	}
	local, err := storage.NewLocal(".")
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return errors.Wrap(err, "listen")
	}
	slog.Info("serving", "dest", dest, "fingerprint", cfg.Fingerprint)

	err = rcopy.NewServer(local, opts).Serve(ctx, ln)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func destDir(prefix string) (string, error) {
	dest, err := filepath.Abs(filepath.Join(prefix, "sandbox", "dest"))
	if err != nil {
		return "", errors.Wrap(err, "path prefix")
	}
	return dest, nil
}

// prepareSandbox creates dest and its parent sandbox, moves into dest and then
// locks sandbox to 0400. Once locked, dest is only reachable through the working
// directory.
func prepareSandbox(dest string) error {
	sandbox := filepath.Dir(dest)
	if err := os.Mkdir(sandbox, 0700); err != nil && !os.IsExist(err) {
		return errors.Wrap(err, "create sandbox")
	}
	// A previous run left it locked
	if err := os.Chmod(sandbox, 0700); err != nil {
		return errors.Wrap(err, "unlock sandbox")
	}
	if err := os.Mkdir(dest, 0700); err != nil && !os.IsExist(err) {
		return errors.Wrap(err, "create dest")
	}
	if err := os.Chdir(dest); err != nil {
		return errors.Wrap(err, "enter dest")
	}
	if err := os.Chmod("..", 0400); err != nil {
		return errors.Wrap(err, "lock sandbox")
	}
	return nil
}

func listCache(w io.Writer, cfg *Config, prefix string) error {
	if cfg.CachePath == "" {
		return errors.New("server.cache.path is not configured")
	}
	dest, err := destDir(prefix)
	if err != nil {
		return err
	}
	cache, err := fldb.Open(cfg.CachePath, []byte(dest))
	if err != nil {
		return err
	}
	defer cache.Close()

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODE\tSIZE\tMTIME\tFINGERPRINT\tPATH")
	err = cache.Iter(func(name string, info *fldb.FInfo) error {
		_, err := fmt.Fprintf(tw, "%s\t%d\t%s\t%x\t%s\n",
			rcopy.FileMode(info.Mode), info.Size,
			time.Unix(0, info.Mtime).Format(time.RFC3339), info.Fingerprint, name)
		return err
	})
	if err != nil {
		return err
	}
	return tw.Flush()
}
