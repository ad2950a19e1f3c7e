package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// MediaKind is the type of a cached binary asset.
type MediaKind string

const (
	MediaKindAudio         MediaKind = "audio"
	MediaKindStrokeDiagram MediaKind = "stroke"
)

func (k MediaKind) IsValid() bool {
	switch k {
	case MediaKindAudio, MediaKindStrokeDiagram:
		return true
	}
	return false
}

// mediaHashLen is the length of the hex key fragment used by the in-process
// and object-storage tiers.
const mediaHashLen = 16

// MediaAssetKey identifies a cached binary asset. Two assets with the same key
// are the same content; caches overwrite rather than version.
type MediaAssetKey struct {
	Kind MediaKind
	// Text is the spoken text for audio, or the character/term for a stroke diagram.
	Text string
	// StrokeIndex is the 1-based diagram position; 0 for audio.
	StrokeIndex int
}

// AudioKey returns the key of the spoken audio for text.
func AudioKey(text string) MediaAssetKey {
	return MediaAssetKey{Kind: MediaKindAudio, Text: NormalizeTerm(text)}
}

// StrokeKey returns the key of stroke diagram number index for char.
func StrokeKey(char string, index int) MediaAssetKey {
	return MediaAssetKey{Kind: MediaKindStrokeDiagram, Text: NormalizeTerm(char), StrokeIndex: index}
}

// Validate checks that the key can address an asset.
func (k MediaAssetKey) Validate() error {
	var errs []FieldError
	if !k.Kind.IsValid() {
		errs = append(errs, FieldError{Field: "kind", Message: "unknown media kind"})
	}
	if strings.TrimSpace(k.Text) == "" {
		errs = append(errs, FieldError{Field: "text", Message: "required"})
	}
	if k.StrokeIndex < 0 {
		errs = append(errs, FieldError{Field: "stroke_index", Message: "must be >= 0"})
	}
	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}

// Hash returns a fixed-length fragment of a SHA-256 digest over the key
// fields. Collisions are accepted as extremely unlikely.
func (k MediaAssetKey) Hash() string {
	sum := sha256.Sum256([]byte(string(k.Kind) + "\x00" + k.Text + "\x00" + strconv.Itoa(k.StrokeIndex)))
	return hex.EncodeToString(sum[:])[:mediaHashLen]
}

// ObjectPath is the object-storage path of the asset, grouped by kind.
func (k MediaAssetKey) ObjectPath() string {
	switch k.Kind {
	case MediaKindStrokeDiagram:
		return "strokes/" + k.Hash()
	default:
		return "tts/" + k.Hash()
	}
}

// ContentType is the MIME type the asset is served with.
func (k MediaAssetKey) ContentType() string {
	if k.Kind == MediaKindStrokeDiagram {
		return "image/gif"
	}
	return "audio/mpeg"
}

func (k MediaAssetKey) String() string {
	if k.Kind == MediaKindStrokeDiagram {
		return string(k.Kind) + ":" + k.Text + ":" + strconv.Itoa(k.StrokeIndex)
	}
	return string(k.Kind) + ":" + k.Text
}
