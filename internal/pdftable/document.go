package pdftable

import (
	"github.com/rotisserie/eris"
	"github.com/tsawler/tabula/core"
	"github.com/tsawler/tabula/pages"
	"github.com/tsawler/tabula/reader"
)

// Fragment is a positioned run of text in PDF user space (origin bottom-left).
type Fragment struct {
	Text     string
	X, Y     float64
	Width    float64
	Height   float64
	FontName string
	FontSize float64
}

// Page is the decoded content of one page.
type Page struct {
	Number    int // 1-based
	Fragments []Fragment
	Content   []byte // concatenated, decoded content streams
}

// Document gives page-level access to a PDF.
type Document interface {
	PageCount() (int, error)
	Page(number int) (*Page, error)
	Close() error
}

type tabulaDocument struct {
	r    *reader.Reader
	path string
}

// OpenDocument opens a PDF with the tabula reader.
func OpenDocument(path string) (Document, error) {
	r, err := reader.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "pdftable: open %s", path)
	}
	return &tabulaDocument{r: r, path: path}, nil
}

func (d *tabulaDocument) PageCount() (int, error) {
	n, err := d.r.PageCount()
	if err != nil {
		return 0, eris.Wrapf(err, "pdftable: page count %s", d.path)
	}
	return n, nil
}

// Page loads page number (1-based).
func (d *tabulaDocument) Page(number int) (*Page, error) {
	p, err := d.r.GetPage(number - 1)
	if err != nil {
		return nil, eris.Wrapf(err, "pdftable: get page %d", number)
	}

	frags, err := d.r.ExtractTextFragments(p)
	if err != nil {
		return nil, eris.Wrapf(err, "pdftable: text on page %d", number)
	}

	content, err := decodeContents(p)
	if err != nil {
		return nil, eris.Wrapf(err, "pdftable: content on page %d", number)
	}

	out := &Page{
		Number:    number,
		Fragments: make([]Fragment, 0, len(frags)),
		Content:   content,
	}
	for _, f := range frags {
		out.Fragments = append(out.Fragments, Fragment{
			Text:     f.Text,
			X:        f.X,
			Y:        f.Y,
			Width:    f.Width,
			Height:   f.Height,
			FontName: f.FontName,
			FontSize: f.FontSize,
		})
	}
	return out, nil
}

func (d *tabulaDocument) Close() error {
	return d.r.Close()
}

func decodeContents(p *pages.Page) ([]byte, error) {
	contents, err := p.Contents()
	if err != nil {
		return nil, err
	}

	var data []byte
	for _, obj := range contents {
		stream, ok := obj.(*core.Stream)
		if !ok {
			continue
		}
		decoded, err := stream.Decode()
		if err != nil {
			return nil, err
		}
		data = append(data, decoded...)
		data = append(data, '\n')
	}
	return data, nil
}
