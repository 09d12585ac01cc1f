package fallback

import (
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"

	"thumbcache/internal/logging"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// decodable lists the raster MIME types the in-process generator accepts.
var decodable = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
	"image/tiff": true,
}

// CanDecode reports whether the built-in generator handles the MIME type.
func CanDecode(mimeType string) bool {
	return decodable[mimeType]
}

// Generate decodes the source image and scales it down so its longest side
// is at most maxDimension. Images already within bounds are returned
// unscaled.
func Generate(sourcePath string, maxDimension int) (image.Image, error) {
	img, err := imaging.Open(sourcePath, imaging.AutoOrientation(true))
	if err != nil {
		logging.Debug("fallback: imaging.Open failed for %s: %v, trying stdlib decode", sourcePath, err)
		img, err = decodeFile(sourcePath)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", sourcePath, err)
		}
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("source image %s has no size", sourcePath)
	}

	if bounds.Dx() <= maxDimension && bounds.Dy() <= maxDimension {
		return img, nil
	}
	return imaging.Fit(img, maxDimension, maxDimension, imaging.Box), nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	logging.Debug("fallback: decoded %s as %s", path, format)
	return img, nil
}
