// Command thumbcache is a small front-end over the thumbnail cache
// library: it generates (or reuses) a thumbnail for a file, inspects a
// cached thumbnail's embedded metadata, and removes cached entries.
package main
