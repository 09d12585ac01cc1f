// Package pngmeta reads and writes the PNG tEXt chunks that carry thumbnail
// freshness metadata (Thumb::URI, Thumb::MTime, Thumb::Size,
// Thumb::Mimetype), and validates a cached thumbnail against its live
// source file.
//
// Go's image/png encoder and decoder discard ancillary chunks, so the chunk
// stream is handled directly here. This package is the single point that
// must reproduce the on-disk format other desktop tools read; everything
// else goes through its interface.
package pngmeta
