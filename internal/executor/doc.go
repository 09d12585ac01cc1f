// Package executor runs external thumbnailer invocations and enforces
// their result contract: the process must exit zero and the expected
// output file must exist and be non-empty.
//
// When bubblewrap (bwrap) is available the invocation runs in a restricted
// sandbox: the system directories are bound read-only, the source file is
// the only readable input, the output directory is the only writable
// location, and all namespaces are unshared. Without bwrap the process
// runs directly; that fallback is logged, never silent.
package executor
