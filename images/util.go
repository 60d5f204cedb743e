package images

import (
	"crypto/md5"
	"fmt"
)

// Checksum generates a deterministic checksum of a raster's dimensions and
// pixels. Tests use it to verify that filters leave their input untouched.
//
// Arguments:
// - r: The raster to compute the checksum for.
//
// Returns:
// - A hex-encoded MD5 checksum string, or "empty" for a zero-sized raster.
//
// Example:
//
// ```go
//
//	before := Checksum(frame)
//	_ = Invert(frame)
//	fmt.Println(before == Checksum(frame)) // true
//
// ```
func Checksum(r *Raster) string {
	if r == nil || len(r.Pix) == 0 {
		return "empty"
	}

	hash := md5.New()
	fmt.Fprintf(hash, "%dx%d:", r.Width, r.Height)
	hash.Write(r.Pix)
	return fmt.Sprintf("%x", hash.Sum(nil))
}
