package media

import (
	"strings"

	"sticker2emoji/internal/domain"
)

// Classify decides how an asset has to be normalized. The filename suffix is
// checked before the MIME type because the latter is sometimes mislabeled.
func Classify(asset domain.AssetDescriptor) domain.SourceKind {
	switch {
	case strings.HasSuffix(strings.ToLower(asset.FileName), domain.TGSSuffix):
		return domain.KindVectorAnimation
	case asset.MimeType == domain.MimeTGS:
		return domain.KindVectorAnimation
	case asset.MimeType == domain.MimeWebm:
		return domain.KindNativeVideo
	default:
		return domain.KindStatic
	}
}
