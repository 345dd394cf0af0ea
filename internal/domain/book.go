package domain

// Book is a catalog entry. The catalog is a static, read-only
// collaborator; the engine consults it for titles and page counts but
// never mutates it.
type Book struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	PDFPath    string `json:"pdf_path"`
	TotalPages int    `json:"total_pages"`
	Genre      string `json:"genre,omitempty"`
}
