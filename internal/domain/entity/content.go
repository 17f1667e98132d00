package entity

// Content is the type-specific payload of an entry.
// The interface is sealed: only TextContent, DeckContent and VideoContent implement it.
type Content interface {
	Type() EntryType
	sealed()
}

// TextContent holds an inline written submission.
type TextContent struct {
	Body string
}

// DeckContent holds a slide deck, either as an uploaded file, an external link, or both.
type DeckContent struct {
	File *FileRef
	URL  string
}

// VideoContent holds a link to a recognised video host.
type VideoContent struct {
	URL string
}

func (*TextContent) Type() EntryType  { return EntryTypeText }
func (*DeckContent) Type() EntryType  { return EntryTypePitchDeck }
func (*VideoContent) Type() EntryType { return EntryTypeVideo }

func (*TextContent) sealed()  {}
func (*DeckContent) sealed()  {}
func (*VideoContent) sealed() {}

// FileRef describes an uploaded file and where its bytes live.
//
// Inline storage keeps the bytes in Data. External storage leaves Data empty
// and sets StorageKey. In both cases URL is the path clients use to download it.
type FileRef struct {
	Filename   string
	MimeType   string
	Size       int64
	Data       []byte
	StorageKey string
	URL        string
}

// Inline reports whether the file bytes are embedded in the entry.
func (f *FileRef) Inline() bool {
	return f != nil && len(f.Data) > 0
}

// HasContent reports whether the bytes can be reconstructed from this reference.
func (f *FileRef) HasContent() bool {
	return f != nil && (len(f.Data) > 0 || f.StorageKey != "")
}

// WithoutInlineData returns a shallow copy of the entry whose file reference,
// if any, no longer carries the inline bytes. The original is left untouched.
func (e *Entry) WithoutInlineData() *Entry {
	out := *e
	deck, ok := e.Content.(*DeckContent)
	if !ok || deck.File == nil || len(deck.File.Data) == 0 {
		return &out
	}
	file := *deck.File
	file.Data = nil
	out.Content = &DeckContent{File: &file, URL: deck.URL}
	return &out
}
