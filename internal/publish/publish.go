// Package publish uploads processed results to blob storage.
package publish

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"
)

// CompressedExt is appended to blob names of compressed uploads.
const CompressedExt = ".zst"

const maxConcurrentUploads = 4

// publishedExts are the output file types collected by CollectOutputs.
var publishedExts = map[string]string{
	".yaml": "application/yaml",
	".md":   "text/markdown; charset=utf-8",
	".html": "text/html; charset=utf-8",
	".json": "application/json",
}

// Options configures a Publisher.
type Options struct {
	// Prefix is prepended to every blob name, e.g. "llmscale/".
	Prefix string
	// Compress zstd-compresses each file and adds CompressedExt to its name.
	Compress bool
}

// Publisher uploads files under a root directory, keeping their relative
// paths as blob names.
type Publisher struct {
	uploader Uploader
	opts     Options
}

// New creates a Publisher.
func New(uploader Uploader, opts Options) *Publisher {
	return &Publisher{uploader: uploader, opts: opts}
}

// CollectOutputs lists publishable files under root, sorted.
func CollectOutputs(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := publishedExts[filepath.Ext(p)]; ok {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collecting outputs in %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// BlobName maps a file under root to its blob name.
func (p *Publisher) BlobName(root, file string) (string, error) {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside %s", file, root)
	}
	name := path.Join(p.opts.Prefix, filepath.ToSlash(rel))
	if p.opts.Compress {
		name += CompressedExt
	}
	return name, nil
}

// Publish uploads files concurrently and returns the blob names written, in
// the order of files. The first failed upload cancels the rest.
func (p *Publisher) Publish(ctx context.Context, root string, files []string) ([]string, error) {
	names := make([]string, len(files))
	for i, f := range files {
		n, err := p.BlobName(root, f)
		if err != nil {
			return nil, err
		}
		names[i] = n
	}

	var enc *zstd.Encoder
	if p.opts.Compress {
		var err error
		enc, err = zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("creating zstd encoder: %w", err)
		}
		defer enc.Close() //nolint:errcheck
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentUploads)
	for i, f := range files {
		g.Go(func() error {
			data, err := os.ReadFile(f)
			if err != nil {
				return fmt.Errorf("reading %s: %w", f, err)
			}
			contentType := contentTypeOf(f)
			if enc != nil {
				data = enc.EncodeAll(data, nil)
				contentType = "application/zstd"
			}
			slog.Debug("Uploading blob", "file", f, "blob", names[i], "bytes", len(data))
			return p.uploader.Upload(ctx, names[i], data, contentType)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return names, nil
}

func contentTypeOf(file string) string {
	if ct, ok := publishedExts[filepath.Ext(file)]; ok {
		return ct
	}
	return "application/octet-stream"
}
