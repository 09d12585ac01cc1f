package thumbcache

import "fmt"

// SizeTier is one of the fixed thumbnail size buckets defined by the
// freedesktop thumbnail specification. The tier name doubles as the
// directory segment under the cache root.
type SizeTier string

const (
	// SizeSmall produces thumbnails up to 64 pixels on the longest side.
	SizeSmall SizeTier = "small"
	// SizeNormal produces thumbnails up to 128 pixels on the longest side.
	SizeNormal SizeTier = "normal"
	// SizeLarge produces thumbnails up to 256 pixels on the longest side.
	SizeLarge SizeTier = "large"
	// SizeXLarge produces thumbnails up to 512 pixels on the longest side.
	SizeXLarge SizeTier = "x-large"
	// SizeXXLarge produces thumbnails up to 1024 pixels on the longest side.
	SizeXXLarge SizeTier = "xx-large"
)

// tierDimensions maps each tier to its maximum pixel dimension.
var tierDimensions = map[SizeTier]int{
	SizeSmall:   64,
	SizeNormal:  128,
	SizeLarge:   256,
	SizeXLarge:  512,
	SizeXXLarge: 1024,
}

// SizeTiers returns all tiers in ascending dimension order.
func SizeTiers() []SizeTier {
	return []SizeTier{SizeSmall, SizeNormal, SizeLarge, SizeXLarge, SizeXXLarge}
}

// Dimension returns the maximum pixel dimension for the tier, or 0 for an
// unknown tier.
func (s SizeTier) Dimension() int {
	return tierDimensions[s]
}

// Dir returns the directory name used for the tier under the cache root.
func (s SizeTier) Dir() string {
	return string(s)
}

// Valid reports whether s is one of the defined tiers.
func (s SizeTier) Valid() bool {
	_, ok := tierDimensions[s]
	return ok
}

// ParseSizeTier converts a tier name (e.g. "normal") into a SizeTier.
func ParseSizeTier(name string) (SizeTier, error) {
	tier := SizeTier(name)
	if !tier.Valid() {
		return "", fmt.Errorf("unknown size tier %q", name)
	}
	return tier, nil
}
