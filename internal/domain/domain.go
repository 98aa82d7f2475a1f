package domain

const (
	MimeTGS  = "application/x-tgsticker"
	MimeWebm = "video/webm"
	MimeWebp = "image/webp"

	TGSSuffix = ".tgs"

	// DefaultEmoji is attached to stickers that carry no glyph of their own.
	DefaultEmoji = "😀"
)

type SourceKind int

const (
	KindStatic SourceKind = iota
	KindVectorAnimation
	KindNativeVideo
)

func (k SourceKind) String() string {
	switch k {
	case KindStatic:
		return "static"
	case KindVectorAnimation:
		return "vector-animation"
	case KindNativeVideo:
		return "native-video"
	default:
		return "unknown"
	}
}

type FormatTag string

const (
	FormatStatic   FormatTag = "static"
	FormatAnimated FormatTag = "animated"
)

type (
	AssetDescriptor struct {
		ID       string
		UniqueID string
		MimeType string
		FileName string
		Emoji    string
		Size     int64
	}

	Pack struct {
		Name   string
		Title  string
		Assets []AssetDescriptor
	}

	NormalizedResult struct {
		Path   string
		Emoji  string
		Format FormatTag
		Kind   SourceKind
		Size   int64
	}

	// ItemOutcome records what happened to a single processed asset.
	// Exactly one of Result and Err is set.
	ItemOutcome struct {
		Index  int
		Asset  AssetDescriptor
		Result *NormalizedResult
		Err    error
	}

	ConversionBatch struct {
		Title    string
		Results  []NormalizedResult
		Outcomes []ItemOutcome
		Skipped  int
	}
)

// EmojiOrDefault returns the glyph declared on the asset, or DefaultEmoji.
func (a AssetDescriptor) EmojiOrDefault() string {
	if a.Emoji == "" {
		return DefaultEmoji
	}

	return a.Emoji
}

func (b *ConversionBatch) TotalSize() int64 {
	var total int64
	for _, r := range b.Results {
		total += r.Size
	}

	return total
}

func (b *ConversionBatch) CountFormat(format FormatTag) int {
	n := 0
	for _, r := range b.Results {
		if r.Format == format {
			n++
		}
	}

	return n
}

type UserRequest struct {
	ChatID           int64
	UserID           int64
	ReplyToMessageID int
	PackName         string
	ErrChan          chan error
}
