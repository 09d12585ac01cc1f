package registry

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/ini.v1"

	"thumbcache/internal/logging"
	"thumbcache/internal/metrics"
)

const (
	descriptorExt   = ".thumbnailer"
	descriptorGroup = "Thumbnailer Entry"
	keyMimeType     = "MimeType"
	keyExec         = "Exec"
	keyTryExec      = "TryExec"
	keyName         = "Name"
)

// Descriptor is one parsed .thumbnailer file. Immutable after load.
type Descriptor struct {
	// ID is the descriptor's file name without extension.
	ID string
	// Path is the descriptor file it was loaded from.
	Path string
	// Name is the optional display name.
	Name string
	// MimeTypes lists the MIME types and globs the thumbnailer claims,
	// in declaration order.
	MimeTypes []string
	// Exec is the command template with %-placeholder tokens.
	Exec string
	// TryExec optionally names an executable that must exist on PATH.
	TryExec string
}

// Registry scans an ordered list of directories for thumbnailer
// descriptors. Parsed descriptors are cached after the first lookup;
// Refresh discards the cache.
type Registry struct {
	dirs []string

	mu          sync.Mutex
	descriptors []Descriptor
	loaded      bool
}

// New builds a Registry over the given search directories, earliest first.
// With no directories the standard search path is used.
func New(dirs ...string) *Registry {
	if len(dirs) == 0 {
		dirs = DefaultSearchDirs()
	}
	return &Registry{dirs: dirs}
}

// DefaultSearchDirs returns the standard thumbnailer search path:
// $HOME/.local/share/thumbnailers, each $XDG_DATA_DIRS entry, then
// /usr/share/thumbnailers.
func DefaultSearchDirs() []string {
	var dirs []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".local", "share", "thumbnailers"))
	}
	if dataDirs := os.Getenv("XDG_DATA_DIRS"); dataDirs != "" {
		for _, d := range strings.Split(dataDirs, ":") {
			if d != "" {
				dirs = append(dirs, filepath.Join(d, "thumbnailers"))
			}
		}
	}
	return append(dirs, "/usr/share/thumbnailers")
}

// Refresh discards the cached descriptors so the next lookup rescans the
// search directories.
func (r *Registry) Refresh() {
	r.mu.Lock()
	r.descriptors = nil
	r.loaded = false
	r.mu.Unlock()
}

// Descriptors returns all loaded descriptors in precedence order.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked()
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Find returns the best descriptor for the MIME type. An exact MIME match
// anywhere in the search path wins over a glob match; among matches of the
// same quality, search-path order and then lexical file order decide.
// The second return is false when no thumbnailer claims the type.
func (r *Registry) Find(mimeType string) (Descriptor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked()

	for _, d := range r.descriptors {
		for _, m := range d.MimeTypes {
			if m == mimeType {
				return d, true
			}
		}
	}
	for _, d := range r.descriptors {
		for _, m := range d.MimeTypes {
			if !strings.ContainsAny(m, "*?[") {
				continue
			}
			if ok, err := path.Match(m, mimeType); err == nil && ok {
				return d, true
			}
		}
	}
	return Descriptor{}, false
}

// loadLocked scans the search directories once. Callers hold r.mu.
func (r *Registry) loadLocked() {
	if r.loaded {
		return
	}
	r.loaded = true
	r.descriptors = nil
	metrics.RegistryScansTotal.Inc()

	for _, dir := range r.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			logging.Debug("registry: skipping %s: %v", dir, err)
			continue
		}

		var names []string
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != descriptorExt {
				continue
			}
			names = append(names, e.Name())
		}
		sort.Strings(names)

		for _, name := range names {
			full := filepath.Join(dir, name)
			desc, err := parseDescriptor(full)
			if err != nil {
				logging.Warn("registry: ignoring %s: %v", full, err)
				continue
			}
			r.descriptors = append(r.descriptors, desc)
		}
	}
	logging.Debug("registry: loaded %d descriptors from %d dirs", len(r.descriptors), len(r.dirs))
}

// parseDescriptor reads one .thumbnailer file.
func parseDescriptor(file string) (Descriptor, error) {
	// Exec lines may contain ; and # legitimately; desktop entries have
	// no inline comments.
	cfg, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, file)
	if err != nil {
		return Descriptor{}, err
	}
	section, err := cfg.GetSection(descriptorGroup)
	if err != nil {
		return Descriptor{}, err
	}

	execLine := section.Key(keyExec).String()
	if execLine == "" {
		return Descriptor{}, errMissingExec
	}

	var mimes []string
	for _, m := range strings.Split(section.Key(keyMimeType).String(), ";") {
		m = strings.TrimSpace(m)
		if m != "" {
			mimes = append(mimes, m)
		}
	}
	if len(mimes) == 0 {
		return Descriptor{}, errMissingMimeType
	}

	return Descriptor{
		ID:        strings.TrimSuffix(filepath.Base(file), descriptorExt),
		Path:      file,
		Name:      section.Key(keyName).String(),
		MimeTypes: mimes,
		Exec:      execLine,
		TryExec:   section.Key(keyTryExec).String(),
	}, nil
}
