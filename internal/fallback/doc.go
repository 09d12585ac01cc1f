// Package fallback provides the optional in-process thumbnail generator
// used when no external thumbnailer claims an image MIME type. It decodes
// common raster formats and downscales them to fit the requested tier
// dimension, preserving aspect ratio.
package fallback
