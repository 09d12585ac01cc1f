package registry

import "errors"

var (
	errMissingExec     = errors.New("descriptor has no Exec key")
	errMissingMimeType = errors.New("descriptor declares no MIME types")
)
