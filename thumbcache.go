package thumbcache

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/singleflight"

	"thumbcache/internal/cachepath"
	"thumbcache/internal/command"
	"thumbcache/internal/executor"
	"thumbcache/internal/fallback"
	"thumbcache/internal/logging"
	"thumbcache/internal/metrics"
	"thumbcache/internal/pngmeta"
	"thumbcache/internal/registry"
)

// DefaultAppID namespaces failure markers and is written as the Software
// metadata chunk.
const DefaultAppID = "thumbcache"

// Generator is the public entry point. It is safe for concurrent use;
// concurrent requests for the same source and tier are collapsed into one
// generation.
type Generator struct {
	cacheDir        string
	appID           string
	registry        *registry.Registry
	executor        executor.Executor
	execTimeout     time.Duration
	builtinFallback bool

	group singleflight.Group
}

// Option configures a Generator.
type Option func(*Generator)

// WithCacheDir overrides the cache root directory. The default is the
// standard location, $XDG_CACHE_HOME/thumbnails.
func WithCacheDir(dir string) Option {
	return func(g *Generator) { g.cacheDir = dir }
}

// WithAppID sets the identifier used to namespace failure markers and as
// the Software metadata value.
func WithAppID(id string) Option {
	return func(g *Generator) { g.appID = id }
}

// WithSearchDirs overrides the thumbnailer descriptor search path,
// earliest directory taking precedence.
func WithSearchDirs(dirs ...string) Option {
	return func(g *Generator) { g.registry = registry.New(dirs...) }
}

// WithExecTimeout bounds each external thumbnailer run. Zero keeps the
// default.
func WithExecTimeout(timeout time.Duration) Option {
	return func(g *Generator) { g.execTimeout = timeout }
}

// WithBuiltinFallback enables in-process generation for common raster
// image types when no external thumbnailer matches. Disabled by default:
// without it, an unmatched MIME type is ErrUnsupportedMimeType.
func WithBuiltinFallback(enabled bool) Option {
	return func(g *Generator) { g.builtinFallback = enabled }
}

// New builds a Generator. Without options it uses the standard cache root,
// the standard descriptor search path, and a sandboxed executor when
// bubblewrap is available.
func New(opts ...Option) (*Generator, error) {
	g := &Generator{
		appID:       DefaultAppID,
		execTimeout: executor.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.cacheDir == "" {
		root, err := cachepath.DefaultRoot()
		if err != nil {
			return nil, wrapErr(ErrCacheIO, err)
		}
		g.cacheDir = root
	}
	if g.registry == nil {
		g.registry = registry.New()
	}
	if g.executor == nil {
		g.executor = executor.New(g.execTimeout)
	}
	return g, nil
}

// CacheDir returns the resolved cache root.
func (g *Generator) CacheDir() string {
	return g.cacheDir
}

// RefreshThumbnailers discards the cached descriptor registry so the next
// generation rescans the search directories.
func (g *Generator) RefreshThumbnailers() {
	g.registry.Refresh()
}

// Generate returns the cache path of a thumbnail for the given source file
// at the given tier, producing it if the cache holds no fresh entry.
//
// A fresh cached thumbnail short-circuits all work. A fresh failure marker
// short-circuits with ErrExecutionFailed; the marker is invalidated by the
// same freshness comparison, so changing the source retries. Errors carry
// one of the package's sentinel kinds.
func (g *Generator) Generate(ctx context.Context, path string, tier SizeTier) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !tier.Valid() {
		return "", errorf(ErrInvalidInput, "unknown size tier %q", tier)
	}

	src, uri, id, err := g.resolve(path)
	if err != nil {
		return "", err
	}

	entry := cachepath.EntryPath(g.cacheDir, tier.Dir(), id)
	if pngmeta.IsFresh(entry, src) {
		logging.Debug("cache hit for %s at %s", src, entry)
		metrics.CacheHitsTotal.WithLabelValues(tier.Dir()).Inc()
		return entry, nil
	}
	metrics.CacheMissesTotal.WithLabelValues(tier.Dir()).Inc()

	failPath := cachepath.FailPath(g.cacheDir, g.appID, id)
	if pngmeta.IsFresh(failPath, src) {
		logging.Debug("failure marker for %s is current, not retrying", src)
		metrics.FailMarkerHitsTotal.Inc()
		return "", errorf(ErrExecutionFailed, "generation previously failed for %s", src)
	}

	result, err, _ := g.group.Do(tier.Dir()+"/"+id, func() (interface{}, error) {
		return g.generate(ctx, src, uri, tier, entry, failPath)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Lookup returns the cache path for the source at the given tier if a
// fresh thumbnail exists, without generating anything.
func (g *Generator) Lookup(path string, tier SizeTier) (string, bool) {
	if !tier.Valid() {
		return "", false
	}
	src, _, id, err := g.resolve(path)
	if err != nil {
		return "", false
	}
	entry := cachepath.EntryPath(g.cacheDir, tier.Dir(), id)
	if !pngmeta.IsFresh(entry, src) {
		return "", false
	}
	return entry, true
}

// Invalidate removes all cached thumbnails and the failure marker for the
// source file across every tier. The source itself need not exist: entries
// for an already-deleted file are still purged under its last identity.
func (g *Generator) Invalidate(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return wrapErr(ErrInvalidInput, err)
	}
	// Symlink resolution needs the file; for a deleted source the
	// cleaned absolute path is the identity that was cached.
	src, err := filepath.EvalSymlinks(abs)
	if err != nil {
		src = abs
	}
	uri, err := cachepath.URI(src)
	if err != nil {
		return wrapErr(ErrInvalidInput, err)
	}
	id := cachepath.ID(uri)
	paths := make([]string, 0, len(SizeTiers())+1)
	for _, tier := range SizeTiers() {
		paths = append(paths, cachepath.EntryPath(g.cacheDir, tier.Dir(), id))
	}
	paths = append(paths, cachepath.FailPath(g.cacheDir, g.appID, id))

	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return wrapErr(ErrCacheIO, err)
		}
	}
	return nil
}

// resolve canonicalizes the source path and derives its URI and identifier.
func (g *Generator) resolve(path string) (src, uri, id string, err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", "", "", wrapErr(ErrInvalidInput, err)
	}
	src, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return "", "", "", wrapErr(ErrInvalidInput, err)
	}
	info, err := os.Stat(src)
	if err != nil {
		return "", "", "", wrapErr(ErrInvalidInput, err)
	}
	if info.IsDir() {
		return "", "", "", errorf(ErrInvalidInput, "%s is a directory", src)
	}
	uri, err = cachepath.URI(src)
	if err != nil {
		return "", "", "", wrapErr(ErrInvalidInput, err)
	}
	return src, uri, cachepath.ID(uri), nil
}

// generate runs the miss path: resolve a thumbnailer, execute it, and
// persist either the thumbnail or a failure marker.
func (g *Generator) generate(ctx context.Context, src, uri string, tier SizeTier, entry, failPath string) (interface{}, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return nil, wrapErr(ErrInvalidInput, err)
	}

	mime, err := detectMime(src)
	if err != nil {
		return nil, wrapErr(ErrInvalidInput, err)
	}
	logging.Debug("generating %s thumbnail for %s (%s)", tier.Dir(), src, mime)

	chunks := pngmeta.SourceChunks(g.appID, uri, mime, srcInfo)

	desc, ok := g.registry.Find(mime)
	if !ok {
		if g.builtinFallback && fallback.CanDecode(mime) {
			return g.generateBuiltin(src, mime, tier, entry, failPath, chunks)
		}
		metrics.GenerationsTotal.WithLabelValues(tier.Dir(), "external", "unsupported").Inc()
		return nil, errorf(ErrUnsupportedMimeType, "no thumbnailer registered for %s", mime)
	}

	if desc.TryExec != "" {
		if _, err := exec.LookPath(desc.TryExec); err != nil {
			// Nothing was executed, so no marker: installing the tool
			// must take effect on the next call.
			metrics.GenerationsTotal.WithLabelValues(tier.Dir(), "external", "failed").Inc()
			return nil, errorf(ErrExecutionFailed, "thumbnailer %s unavailable: %v", desc.ID, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(entry), 0o700); err != nil {
		return nil, wrapErr(ErrCacheIO, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(entry), "thumb-*.png.tmp")
	if err != nil {
		return nil, wrapErr(ErrCacheIO, err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	inv, err := command.Build(desc.Exec, command.Params{
		Size:   tier.Dimension(),
		URI:    uri,
		Input:  src,
		Output: tmpPath,
	})
	if err != nil {
		return nil, wrapErr(ErrMalformedCommandTemplate, err)
	}

	start := time.Now()
	execErr := g.executor.Execute(ctx, executor.Request{
		Invocation: inv,
		SourcePath: src,
		OutputPath: tmpPath,
	})
	metrics.GenerationDuration.WithLabelValues(tier.Dir(), "external").Observe(time.Since(start).Seconds())

	if execErr != nil {
		// A caller that gave up is not evidence about the source; a
		// marker here would poison the pair until the source changes.
		// The executor's own deadline leaves ctx untouched, so markers
		// for genuine timeouts still land.
		if ctx.Err() != nil {
			metrics.GenerationsTotal.WithLabelValues(tier.Dir(), "external", "canceled").Inc()
			return nil, wrapErr(ErrExecutionFailed, execErr)
		}
		g.writeFailMarker(failPath, src, chunks)
		metrics.GenerationsTotal.WithLabelValues(tier.Dir(), "external", "failed").Inc()
		return nil, wrapErr(ErrExecutionFailed, execErr)
	}

	raw, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, wrapErr(ErrCacheIO, err)
	}
	annotated, err := pngmeta.EmbedText(raw, chunks)
	if err != nil {
		// The process exited cleanly but did not produce a PNG; that
		// breaks the output contract the same way a failed exit does.
		g.writeFailMarker(failPath, src, chunks)
		metrics.GenerationsTotal.WithLabelValues(tier.Dir(), "external", "failed").Inc()
		return nil, errorf(ErrExecutionFailed, "thumbnailer %s produced invalid output: %v", desc.ID, err)
	}

	if err := atomicWrite(entry, annotated); err != nil {
		return nil, wrapErr(ErrCacheIO, err)
	}

	// A stale marker from an earlier failure must not outlive a success.
	if err := os.Remove(failPath); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove stale failure marker %s: %v", failPath, err)
	}

	metrics.GenerationsTotal.WithLabelValues(tier.Dir(), "external", "success").Inc()
	logging.Debug("thumbnail for %s written to %s", src, entry)
	return entry, nil
}

// generateBuiltin produces the thumbnail in-process for decodable image
// types when no external thumbnailer matched.
func (g *Generator) generateBuiltin(src, mime string, tier SizeTier, entry, failPath string, chunks []pngmeta.TextChunk) (interface{}, error) {
	start := time.Now()
	img, err := fallback.Generate(src, tier.Dimension())
	metrics.GenerationDuration.WithLabelValues(tier.Dir(), "builtin").Observe(time.Since(start).Seconds())
	if err != nil {
		g.writeFailMarker(failPath, src, chunks)
		metrics.GenerationsTotal.WithLabelValues(tier.Dir(), "builtin", "failed").Inc()
		return nil, errorf(ErrExecutionFailed, "builtin generation for %s: %v", src, err)
	}

	data, err := encodePNG(img, chunks)
	if err != nil {
		return nil, wrapErr(ErrCacheIO, err)
	}
	if err := atomicWrite(entry, data); err != nil {
		return nil, wrapErr(ErrCacheIO, err)
	}
	if err := os.Remove(failPath); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove stale failure marker %s: %v", failPath, err)
	}

	metrics.GenerationsTotal.WithLabelValues(tier.Dir(), "builtin", "success").Inc()
	logging.Debug("builtin thumbnail for %s written to %s", src, entry)
	return entry, nil
}

// writeFailMarker persists a failure marker atomically. Marker write
// failures are logged, not returned: they must not mask the generation
// error the caller is about to receive.
func (g *Generator) writeFailMarker(failPath, src string, chunks []pngmeta.TextChunk) {
	marker, err := pngmeta.FailMarker(chunks)
	if err != nil {
		logging.Warn("failed to build failure marker for %s: %v", src, err)
		return
	}
	if err := atomicWrite(failPath, marker); err != nil {
		logging.Warn("failed to write failure marker %s: %v", failPath, err)
		return
	}
	metrics.FailMarkersWrittenTotal.Inc()
	logging.Debug("failure marker for %s written to %s", src, failPath)
}

// detectMime sniffs the source's MIME type from content.
func detectMime(src string) (string, error) {
	mtype, err := mimetype.DetectFile(src)
	if err != nil {
		return "", fmt.Errorf("detecting mime type of %s: %w", src, err)
	}
	mime := mtype.String()
	if idx := strings.IndexByte(mime, ';'); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	return mime, nil
}

// encodePNG renders an image as a PNG with the metadata chunks embedded.
func encodePNG(img image.Image, chunks []pngmeta.TextChunk) ([]byte, error) {
	var buf bytes.Buffer
	if err := pngmeta.Encode(&buf, img, chunks); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// atomicWrite writes data to destPath via a temporary file in the same
// directory and a rename, so concurrent readers never observe a partial
// file. Last writer wins.
func atomicWrite(destPath string, data []byte) error {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".thumb-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
