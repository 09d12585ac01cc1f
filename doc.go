// Package thumbcache generates and caches thumbnails following the
// freedesktop thumbnail specification.
//
// Thumbnails are content-addressed by the MD5 digest of the source file's
// canonical file:// URI and stored under the cache root in per-size-tier
// directories. Pixel generation is delegated to externally registered
// thumbnailer programs (.thumbnailer descriptors), executed inside a
// bubblewrap sandbox when one is available. Each cached PNG embeds the
// source's modification time and size, so staleness is detected without
// consulting any state beyond the thumbnail itself. Failed generations
// leave a marker that short-circuits repeated attempts until the source
// changes.
//
// Typical use:
//
//	gen, err := thumbcache.New()
//	if err != nil {
//	    // cache root could not be resolved
//	}
//	path, err := gen.Generate(ctx, "/photos/cat.jpg", thumbcache.SizeNormal)
package thumbcache
