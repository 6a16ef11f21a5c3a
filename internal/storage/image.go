// Package storage keeps uploaded payment proofs, either in a Cloud Storage
// bucket or on local disk.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	MaxProofBytes = 5 << 20
	maxProofWidth = 1280
	proofQuality  = 75
)

var (
	ErrUnsupportedImage = errors.New("only PNG or JPEG images are accepted")
	ErrImageTooLarge    = errors.New("image exceeds 5 MB")
)

// CompressProof checks that data is a PNG or JPEG of at most 5 MB, applies
// EXIF orientation, caps the width at 1280px and re-encodes it as JPEG.
func CompressProof(data []byte) ([]byte, error) {
	if len(data) > MaxProofBytes {
		return nil, ErrImageTooLarge
	}
	switch http.DetectContentType(data) {
	case "image/png", "image/jpeg":
	default:
		return nil, ErrUnsupportedImage
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if img.Bounds().Dx() > maxProofWidth {
		img = imaging.Resize(img, maxProofWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(proofQuality)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// ProofObjectName returns a collision-free object key for a compressed proof.
func ProofObjectName() string {
	return "proofs/" + uuid.NewString() + ".jpg"
}
