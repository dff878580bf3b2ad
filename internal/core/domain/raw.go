package domain

// RawDocument is a source file as read from disk, before its format is
// interpreted. Metadata carries what the reader learnt about the file,
// such as its size and modification time.
type RawDocument struct {
	URI      string
	MIMEType string
	Content  []byte
	Metadata map[string]any
}

// Document is the plain-text rendering of a RawDocument that the chunker
// consumes. Content is NFC text whose paragraphs are separated by one
// blank line; table rows keep their cells on one line, tab-separated.
// Normalisers record the detected format and character count in
// Metadata next to the reader's entries.
type Document struct {
	ID       string
	URI      string
	Title    string
	Content  string
	Metadata map[string]any
}
