package pngmeta

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"io"
	"os"
	"strconv"

	"thumbcache/internal/logging"
)

// Standard metadata keywords. Exact spellings are part of the freedesktop
// on-disk contract.
const (
	KeySoftware = "Software"
	KeyURI      = "Thumb::URI"
	KeyMTime    = "Thumb::MTime"
	KeySize     = "Thumb::Size"
	KeyMimetype = "Thumb::Mimetype"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// TextChunk is one (keyword, value) pair stored in a PNG tEXt chunk.
type TextChunk struct {
	Keyword string
	Text    string
}

// Find returns the value of the first chunk with the given keyword.
func Find(chunks []TextChunk, keyword string) (string, bool) {
	for _, c := range chunks {
		if c.Keyword == keyword {
			return c.Text, true
		}
	}
	return "", false
}

// SourceChunks builds the standard chunk set describing a source file at
// generation time. info must be the source's metadata captured before the
// thumbnailer ran.
func SourceChunks(software, uri, mimeType string, info os.FileInfo) []TextChunk {
	chunks := []TextChunk{
		{Keyword: KeySoftware, Text: software},
		{Keyword: KeyURI, Text: uri},
		{Keyword: KeySize, Text: strconv.FormatInt(info.Size(), 10)},
		{Keyword: KeyMTime, Text: strconv.FormatInt(info.ModTime().Unix(), 10)},
	}
	if mimeType != "" {
		chunks = append(chunks, TextChunk{Keyword: KeyMimetype, Text: mimeType})
	}
	return chunks
}

// ReadText extracts all tEXt chunks from a PNG stream.
func ReadText(r io.Reader) ([]TextChunk, error) {
	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(r, sig); err != nil {
		return nil, fmt.Errorf("reading png signature: %w", err)
	}
	if !bytes.Equal(sig, pngSignature) {
		return nil, fmt.Errorf("not a png file")
	}

	var chunks []TextChunk
	header := make([]byte, 8)
	for {
		if _, err := io.ReadFull(r, header); err != nil {
			if err == io.EOF {
				return chunks, nil
			}
			return nil, fmt.Errorf("reading chunk header: %w", err)
		}
		length := binary.BigEndian.Uint32(header[:4])
		ctype := string(header[4:8])
		if length > 1<<28 {
			return nil, fmt.Errorf("chunk %s too large: %d bytes", ctype, length)
		}

		switch ctype {
		case "tEXt":
			data := make([]byte, length)
			if _, err := io.ReadFull(r, data); err != nil {
				return nil, fmt.Errorf("reading tEXt chunk: %w", err)
			}
			idx := bytes.IndexByte(data, 0)
			if idx < 0 {
				return nil, fmt.Errorf("tEXt chunk missing keyword separator")
			}
			chunks = append(chunks, TextChunk{
				Keyword: string(data[:idx]),
				Text:    string(data[idx+1:]),
			})
			// Skip the CRC.
			if _, err := io.CopyN(io.Discard, r, 4); err != nil {
				return nil, err
			}
		case "IEND":
			return chunks, nil
		default:
			if _, err := io.CopyN(io.Discard, r, int64(length)+4); err != nil {
				return nil, fmt.Errorf("skipping %s chunk: %w", ctype, err)
			}
		}
	}
}

// ReadTextFile extracts all tEXt chunks from a PNG file on disk.
func ReadTextFile(path string) ([]TextChunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadText(f)
}

// serializeText encodes one tEXt chunk including length and CRC.
func serializeText(c TextChunk) []byte {
	data := make([]byte, 0, len(c.Keyword)+1+len(c.Text))
	data = append(data, c.Keyword...)
	data = append(data, 0)
	data = append(data, c.Text...)

	buf := make([]byte, 8, 12+len(data))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(data)))
	copy(buf[4:8], "tEXt")
	buf = append(buf, data...)

	crc := crc32.NewIEEE()
	crc.Write(buf[4:])
	return binary.BigEndian.AppendUint32(buf, crc.Sum32())
}

// EmbedText inserts tEXt chunks into an encoded PNG, directly after the
// IHDR chunk. The input bytes are not modified.
func EmbedText(pngBytes []byte, chunks []TextChunk) ([]byte, error) {
	if len(pngBytes) < len(pngSignature)+12 || !bytes.Equal(pngBytes[:len(pngSignature)], pngSignature) {
		return nil, fmt.Errorf("not a png file")
	}
	// First chunk must be IHDR; splice after its CRC.
	ihdrLen := binary.BigEndian.Uint32(pngBytes[8:12])
	if string(pngBytes[12:16]) != "IHDR" {
		return nil, fmt.Errorf("png does not start with IHDR")
	}
	splice := 8 + 12 + int(ihdrLen)
	if splice > len(pngBytes) {
		return nil, fmt.Errorf("truncated IHDR chunk")
	}

	out := make([]byte, 0, len(pngBytes)+64*len(chunks))
	out = append(out, pngBytes[:splice]...)
	for _, c := range chunks {
		out = append(out, serializeText(c)...)
	}
	return append(out, pngBytes[splice:]...), nil
}

// Encode writes img as a PNG with the given tEXt chunks embedded.
func Encode(w io.Writer, img image.Image, chunks []TextChunk) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	out, err := EmbedText(buf.Bytes(), chunks)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// FailMarker returns the bytes of a 1x1 fully transparent PNG carrying the
// given chunks. Markers record a failed generation; embedding the same
// metadata lets the freshness check invalidate them when the source changes.
func FailMarker(chunks []TextChunk) ([]byte, error) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	var buf bytes.Buffer
	if err := Encode(&buf, img, chunks); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// IsFresh reports whether the thumbnail (or failure marker) at thumbPath is
// still valid for the source file. The stored Thumb::MTime must be equal to
// or newer than the source's modification time; Thumb::Size, when present,
// must match exactly. Any unreadable or malformed thumbnail is stale.
func IsFresh(thumbPath, sourcePath string) bool {
	chunks, err := ReadTextFile(thumbPath)
	if err != nil {
		logging.Debug("treating %s as stale: %v", thumbPath, err)
		return false
	}

	mtimeStr, ok := Find(chunks, KeyMTime)
	if !ok {
		logging.Debug("treating %s as stale: missing %s", thumbPath, KeyMTime)
		return false
	}
	storedMTime, err := strconv.ParseInt(mtimeStr, 10, 64)
	if err != nil {
		logging.Debug("treating %s as stale: bad %s %q", thumbPath, KeyMTime, mtimeStr)
		return false
	}

	info, err := os.Stat(sourcePath)
	if err != nil {
		return false
	}

	// Equal-or-newer tolerates filesystems with coarser timestamp
	// granularity than the source's.
	if storedMTime < info.ModTime().Unix() {
		return false
	}

	if sizeStr, ok := Find(chunks, KeySize); ok {
		storedSize, err := strconv.ParseInt(sizeStr, 10, 64)
		if err != nil || storedSize != info.Size() {
			return false
		}
	}
	return true
}
