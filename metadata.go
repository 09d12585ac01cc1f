package thumbcache

import "thumbcache/internal/pngmeta"

// TextPair is one (key, value) metadata pair embedded in a cached
// thumbnail's PNG text chunks.
type TextPair struct {
	Key   string
	Value string
}

// Metadata keys written at generation time.
const (
	MetaSoftware = pngmeta.KeySoftware
	MetaURI      = pngmeta.KeyURI
	MetaMTime    = pngmeta.KeyMTime
	MetaSize     = pngmeta.KeySize
	MetaMimetype = pngmeta.KeyMimetype
)

// Metadata returns the embedded metadata pairs of a cached thumbnail or
// failure marker, in file order. Unreadable or non-PNG files yield
// ErrMetadataParse.
func Metadata(thumbPath string) ([]TextPair, error) {
	chunks, err := pngmeta.ReadTextFile(thumbPath)
	if err != nil {
		return nil, wrapErr(ErrMetadataParse, err)
	}
	pairs := make([]TextPair, len(chunks))
	for i, c := range chunks {
		pairs[i] = TextPair{Key: c.Keyword, Value: c.Text}
	}
	return pairs, nil
}
