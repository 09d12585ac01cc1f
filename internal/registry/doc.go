// Package registry locates external thumbnailer programs by MIME type.
//
// Descriptors are .thumbnailer files in desktop-entry INI format, scanned
// from an ordered list of search directories (user directories override
// system ones). Matching is deterministic: an exact MIME match beats a glob
// match, earlier directories beat later ones, and within a directory the
// lexical filename order decides.
package registry
