package svgraster

import (
	"bytes"
	"errors"
	"strconv"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/xml"
)

var errNoRoot = errors.New("no <svg> root element")

// CSS absolute units in px at 96 dpi.
var unitScale = map[string]float64{
	"":   1,
	"px": 1,
	"pt": 4.0 / 3.0,
	"pc": 16,
	"in": 96,
	"cm": 96 / 2.54,
	"mm": 96 / 25.4,
}

// viewport holds the root element attributes that oksvg drops once a viewBox
// is present. A zero width or height means the attribute is absent or relative.
type viewport struct {
	width   float64
	height  float64
	viewBox bool
	stretch bool
}

// readViewport checks that the document root is <svg> and reads its width,
// height, viewBox presence and preserveAspectRatio.
func readViewport(data []byte) (viewport, error) {
	l := xml.NewLexer(parse.NewInputBytes(bytes.Clone(data)))

	for {
		tt, _ := l.Next()
		switch tt {
		case xml.ErrorToken:
			return viewport{}, errNoRoot
		case xml.StartTagToken:
			if localName(l.Text()) != "svg" {
				return viewport{}, errNoRoot
			}
			return readRootAttrs(l), nil
		}
	}
}

func readRootAttrs(l *xml.Lexer) viewport {
	var vp viewport
	for {
		tt, _ := l.Next()
		switch tt {
		case xml.AttributeToken:
			val := string(unquote(l.AttrVal()))
			switch string(l.Text()) {
			case "width":
				vp.width = length(val)
			case "height":
				vp.height = length(val)
			case "viewBox":
				vp.viewBox = true
			case "preserveAspectRatio":
				vp.stretch = strings.TrimSpace(val) == "none"
			}
		default:
			return vp
		}
	}
}

func localName(name []byte) string {
	if i := bytes.IndexByte(name, ':'); i >= 0 {
		name = name[i+1:]
	}
	return string(name)
}

func unquote(v []byte) []byte {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}

// length converts an absolute SVG length to px. Relative units yield 0.
func length(s string) float64 {
	b := parse.TrimWhitespace([]byte(s))
	num, unit := parse.Dimension(b)
	if num == 0 || num+unit != len(b) {
		return 0
	}
	scale, ok := unitScale[string(bytes.ToLower(b[num:]))]
	if !ok {
		return 0
	}
	v, err := strconv.ParseFloat(string(b[:num]), 64)
	if err != nil || v <= 0 {
		return 0
	}
	return v * scale
}
