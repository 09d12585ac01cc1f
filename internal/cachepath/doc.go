// Package cachepath computes cache identities and on-disk locations for
// thumbnails following the freedesktop thumbnail layout.
//
// A thumbnail's identity is the MD5 hex digest of its source file's
// canonical file:// URI. Successful thumbnails live at
// <root>/<tier>/<id>.png and failure markers at <root>/fail/<app>/<id>.png.
// The package performs no I/O beyond resolving the default cache root;
// existence checks belong to callers.
package cachepath
