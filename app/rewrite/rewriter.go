package rewrite

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// TitleConverter rewrites a single item title.
type TitleConverter interface {
	Convert(title string) string
}

var (
	cdataPrefix = []byte("<![CDATA[")

	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

// Rewriter copies a feed document token by token, replacing the text of every <title>
// that is a direct child of an <item>. Markup outside those titles is copied from the
// input bytes unchanged.
type Rewriter struct{}

func NewRewriter() *Rewriter {
	return &Rewriter{}
}

// Run rewrites data with converter. Malformed input yields a *ParseError carrying the
// output produced up to the failure point.
func (r *Rewriter) Run(data []byte, converter TitleConverter) (string, error) {
	p := &pass{
		converter:  converter,
		itemDepth:  -1,
		titleDepth: -1,
	}
	p.out.Grow(len(data))

	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Strict = true

	for {
		start := decoder.InputOffset()
		token, err := decoder.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", p.fail(decoder, err)
		}

		if err := p.handle(token, data[start:decoder.InputOffset()]); err != nil {
			return "", p.fail(decoder, err)
		}
	}

	if len(p.stack) > 0 {
		open := p.stack[len(p.stack)-1]
		return "", p.fail(decoder, fmt.Errorf("unexpected EOF: element <%s> is not closed", qualifiedName(open)))
	}
	if !p.sawRoot {
		return "", p.fail(decoder, errors.New("no root element"))
	}

	slog.Debug("Feed rewritten", "items", p.items, "titles", p.titles, "converted", p.converted)
	return p.out.String(), nil
}

// pass is the per-document state. It is never shared between calls.
type pass struct {
	converter TitleConverter
	out       bytes.Buffer
	stack     []xml.Name
	sawRoot   bool

	itemDepth  int
	titleDepth int
	title      strings.Builder
	titleRaw   []byte
	titlePlain bool

	items     int
	titles    int
	converted int
}

func (p *pass) handle(token xml.Token, raw []byte) error {
	switch t := token.(type) {
	case xml.StartElement:
		p.sawRoot = true
		p.stack = append(p.stack, t.Name)
		depth := len(p.stack)

		switch {
		case p.titleDepth >= 0:
			p.titlePlain = false
		case p.itemDepth < 0 && isUnprefixed(t.Name, "item"):
			p.itemDepth = depth
			p.items++
		case p.itemDepth >= 0 && depth == p.itemDepth+1 && isUnprefixed(t.Name, "title"):
			p.titleDepth = depth
			p.title.Reset()
			p.titleRaw = p.titleRaw[:0]
			p.titlePlain = true
		}
		p.out.Write(raw)

	case xml.EndElement:
		if len(p.stack) == 0 {
			return fmt.Errorf("unexpected end element </%s>", qualifiedName(t.Name))
		}
		depth := len(p.stack)
		open := p.stack[depth-1]
		if open != t.Name {
			return fmt.Errorf("element <%s> closed by </%s>", qualifiedName(open), qualifiedName(t.Name))
		}
		p.stack = p.stack[:depth-1]

		if depth == p.titleDepth {
			// self-closing <title/> produces no end tag bytes and has no text to rewrite
			if len(raw) > 0 {
				p.writeTitle()
			}
			p.titleDepth = -1
		} else if p.titleDepth >= 0 {
			p.titlePlain = false
		}
		if depth == p.itemDepth {
			p.itemDepth = -1
		}
		p.out.Write(raw)

	case xml.CharData:
		if p.titleDepth >= 0 {
			p.title.Write(t)
			if bytes.HasPrefix(raw, cdataPrefix) {
				p.titlePlain = false
			} else if p.titlePlain {
				p.titleRaw = append(p.titleRaw, raw...)
			}
			return nil
		}
		p.out.Write(raw)

	default:
		// comments, processing instructions, declaration and doctype
		if p.titleDepth >= 0 {
			p.titlePlain = false
		}
		p.out.Write(raw)
	}

	return nil
}

func (p *pass) writeTitle() {
	original := p.title.String()
	converted := p.converter.Convert(original)
	p.titles++

	if converted == original && p.titlePlain {
		p.out.Write(p.titleRaw)
		return
	}
	if converted != original {
		p.converted++
	}
	textEscaper.WriteString(&p.out, converted)
}

func (p *pass) fail(decoder *xml.Decoder, err error) *ParseError {
	line, _ := decoder.InputPos()

	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) {
		line = syntaxErr.Line
	}

	return &ParseError{
		Line:    line,
		Offset:  decoder.InputOffset(),
		Err:     err,
		Partial: p.out.String(),
	}
}

func isUnprefixed(name xml.Name, local string) bool {
	return name.Space == "" && name.Local == local
}

func qualifiedName(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}
