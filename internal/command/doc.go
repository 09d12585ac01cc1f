// Package command expands a thumbnailer descriptor's Exec template into a
// concrete program invocation.
//
// The template is tokenized once with shell-words quoting rules; each token
// is then scanned for placeholder markers and the substituted value is kept
// verbatim as a single argument. Nothing ever passes through a shell, so
// metacharacters in file names cannot be interpreted.
package command
