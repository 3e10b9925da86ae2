package mention

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	xhtml "golang.org/x/net/html"
)

// MentionClass marks a span as a mention token in markup.
const MentionClass = "mention"

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("br", "div", "p")
	p.AllowAttrs("class", "contenteditable", "data-username").OnElements("span")
	p.AllowDataAttributes()
	return p
}

// Serialize renders the document as markup. Text is escaped, newlines become
// <br>, non-breaking spaces become &nbsp; and each token becomes a
// non-editable span carrying its username.
func Serialize(d *Document) string {
	var b strings.Builder
	for _, u := range d.units {
		switch {
		case u.IsToken():
			name := html.EscapeString(u.Username)
			b.WriteString(`<span class="` + MentionClass + `" contenteditable="false" data-username="`)
			b.WriteString(name)
			b.WriteString(`">`)
			b.WriteString(html.EscapeString(string(Trigger)) + name)
			b.WriteString(`</span>`)
		case u.Rune == '\n':
			b.WriteString("<br>")
		case u.Rune == NBSP:
			b.WriteString("&nbsp;")
		default:
			b.WriteString(html.EscapeString(string(u.Rune)))
		}
	}
	return b.String()
}

// Parse rebuilds a document from markup with the caret at the end.
//
// Markup is sanitized first. <br> and the start of a <div> or <p> after
// content become newlines, other tags are dropped with their text kept, and
// a mention span without a username is read as plain text.
func Parse(markup string) *Document {
	d := &Document{}
	if markup == "" {
		return d
	}

	z := xhtml.NewTokenizer(strings.NewReader(policy.Sanitize(markup)))
	skipDepth := 0

	for {
		tt := z.Next()
		switch tt {
		case xhtml.ErrorToken:
			d.caret = len(d.units)
			d.anchor = d.caret
			return d

		case xhtml.TextToken:
			if skipDepth > 0 {
				continue
			}
			d.units = appendText(d.units, string(z.Text()))

		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			tok := z.Token()
			if skipDepth > 0 {
				if tok.Data == "span" && tt == xhtml.StartTagToken {
					skipDepth++
				}
				continue
			}
			switch tok.Data {
			case "br":
				d.units = append(d.units, Unit{Rune: '\n'})
			case "div", "p":
				if n := len(d.units); n > 0 && !isNewline(d.units[n-1]) {
					d.units = append(d.units, Unit{Rune: '\n'})
				}
			case "span":
				if name, ok := mentionUsername(tok); ok {
					d.units = append(d.units, Unit{Username: name})
					if tt == xhtml.StartTagToken {
						skipDepth = 1
					}
				}
			}

		case xhtml.EndTagToken:
			if skipDepth > 0 {
				if tn, _ := z.TagName(); string(tn) == "span" {
					skipDepth--
				}
			}
		}
	}
}

func mentionUsername(tok xhtml.Token) (string, bool) {
	var isMention bool
	var name string
	for _, a := range tok.Attr {
		switch a.Key {
		case "class":
			for _, c := range strings.Fields(a.Val) {
				if c == MentionClass {
					isMention = true
				}
			}
		case "data-username":
			name = strings.TrimSpace(a.Val)
		}
	}
	return name, isMention && name != ""
}
