package domain

// CollectionReference names a remote sticker or emoji set.
type CollectionReference string

func (r CollectionReference) String() string {
	return string(r)
}

type Collection struct {
	Name  string
	Title string
	Items []ItemDescriptor
}

type ItemDescriptor struct {
	FileID       string
	FileUniqueID string
	Emoji        string
}

// DownloadLocator is the short-lived location an item's bytes are streamed from.
// RelativePath is the path suggested by the platform, e.g. "stickers/file_12.webp".
type DownloadLocator struct {
	FileID       string
	RelativePath string
	URL          string
	Size         int64
}
