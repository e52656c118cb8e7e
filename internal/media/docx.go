package media

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
)

var ErrNotDOCX = errors.New("not a docx archive")

const documentPart = "word/document.xml"

// ConvertDOCX renders the body of a .docx file as an HTML fragment.
// Headings, paragraphs, list items, bold/italic/underline runs, line breaks
// and tables are kept; images and everything else are dropped.
func ConvertDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotDOCX, err)
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == documentPart {
			part = f
			break
		}
	}
	if part == nil {
		return "", fmt.Errorf("%w: missing %s", ErrNotDOCX, documentPart)
	}

	rc, err := part.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return "", fmt.Errorf("%w: missing body", ErrNotDOCX)
		}
		if err != nil {
			return "", err
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "body" {
			var out strings.Builder
			if err := convertBlocks(dec, &out); err != nil {
				return "", err
			}
			return out.String(), nil
		}
	}
}

// convertBlocks writes paragraphs and tables until the enclosing element
// (body or table cell) ends.
func convertBlocks(dec *xml.Decoder, out *strings.Builder) error {
	inList := false
	closeList := func() {
		if inList {
			out.WriteString("</ul>")
			inList = false
		}
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				p, err := readParagraph(dec)
				if err != nil {
					return err
				}
				content := p.html()
				if p.list {
					if !inList {
						out.WriteString("<ul>")
						inList = true
					}
					out.WriteString("<li>" + content + "</li>")
					continue
				}
				closeList()
				if content == "" {
					continue
				}
				if level := p.headingLevel(); level > 0 {
					tag := "h" + strconv.Itoa(level)
					out.WriteString("<" + tag + ">" + content + "</" + tag + ">")
				} else {
					out.WriteString("<p>" + content + "</p>")
				}
			case "tbl":
				closeList()
				if err := convertTable(dec, out); err != nil {
					return err
				}
			default:
				if err := dec.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			closeList()
			return nil
		}
	}
}

func convertTable(dec *xml.Decoder, out *strings.Builder) error {
	out.WriteString("<table>")
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "tr" {
				if err := dec.Skip(); err != nil {
					return err
				}
				continue
			}
			if err := convertRow(dec, out); err != nil {
				return err
			}
		case xml.EndElement:
			out.WriteString("</table>")
			return nil
		}
	}
}

func convertRow(dec *xml.Decoder, out *strings.Builder) error {
	out.WriteString("<tr>")
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "tc" {
				if err := dec.Skip(); err != nil {
					return err
				}
				continue
			}
			out.WriteString("<td>")
			if err := convertBlocks(dec, out); err != nil {
				return err
			}
			out.WriteString("</td>")
		case xml.EndElement:
			out.WriteString("</tr>")
			return nil
		}
	}
}

type paragraph struct {
	style string
	list  bool
	runs  []run
}

type run struct {
	bold, italic, underline bool
	// parts holds text pieces; "\n" marks a line break.
	parts []string
}

func (p paragraph) headingLevel() int {
	style := strings.ToLower(strings.ReplaceAll(p.style, " ", ""))
	if style == "title" {
		return 1
	}
	if rest, ok := strings.CutPrefix(style, "heading"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n >= 1 && n <= 6 {
			return n
		}
	}
	return 0
}

func (p paragraph) html() string {
	var b strings.Builder
	for _, r := range p.runs {
		var text strings.Builder
		for _, part := range r.parts {
			if part == "\n" {
				text.WriteString("<br>")
				continue
			}
			text.WriteString(html.EscapeString(part))
		}
		if text.Len() == 0 {
			continue
		}
		s := text.String()
		if r.underline {
			s = "<u>" + s + "</u>"
		}
		if r.italic {
			s = "<em>" + s + "</em>"
		}
		if r.bold {
			s = "<strong>" + s + "</strong>"
		}
		b.WriteString(s)
	}
	return b.String()
}

// readParagraph consumes a w:p element. Runs nested in hyperlinks, inserts
// and similar wrappers are collected as if they were direct children.
func readParagraph(dec *xml.Decoder) (paragraph, error) {
	var p paragraph
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return p, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pPr":
				if err := readParagraphProps(dec, &p); err != nil {
					return p, err
				}
			case "r":
				r, err := readRun(dec)
				if err != nil {
					return p, err
				}
				p.runs = append(p.runs, r)
			case "del", "drawing", "pict", "object":
				if err := dec.Skip(); err != nil {
					return p, err
				}
			default:
				depth++
			}
		case xml.EndElement:
			if depth == 0 {
				return p, nil
			}
			depth--
		}
	}
}

func readParagraphProps(dec *xml.Decoder, p *paragraph) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pStyle":
				p.style = attr(t, "val")
			case "numPr":
				p.list = true
			}
			if err := dec.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

func readRun(dec *xml.Decoder) (run, error) {
	var r run
	for {
		tok, err := dec.Token()
		if err != nil {
			return r, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "rPr":
				if err := readRunProps(dec, &r); err != nil {
					return r, err
				}
			case "t":
				var s string
				if err := dec.DecodeElement(&s, &t); err != nil {
					return r, err
				}
				r.parts = append(r.parts, s)
			case "tab":
				r.parts = append(r.parts, " ")
				if err := dec.Skip(); err != nil {
					return r, err
				}
			case "br", "cr":
				if attr(t, "type") != "page" {
					r.parts = append(r.parts, "\n")
				}
				if err := dec.Skip(); err != nil {
					return r, err
				}
			default:
				if err := dec.Skip(); err != nil {
					return r, err
				}
			}
		case xml.EndElement:
			return r, nil
		}
	}
}

func readRunProps(dec *xml.Decoder, r *run) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "b":
				r.bold = toggleOn(t)
			case "i":
				r.italic = toggleOn(t)
			case "u":
				r.underline = toggleOn(t) && attr(t, "val") != "none"
			}
			if err := dec.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

// toggleOn reads an OOXML on/off property: present without w:val means on.
func toggleOn(se xml.StartElement) bool {
	switch strings.ToLower(attr(se, "val")) {
	case "0", "false", "off":
		return false
	}
	return true
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
