package editor

import (
	"github.com/marcus/scribe/internal/mention"
	"github.com/mattn/go-runewidth"
)

// visualLine is one rendered row: units [start, end) of the document, with
// the column each unit starts at. A hard newline unit is never part of a
// row; the next row starts after it.
type visualLine struct {
	start, end int
	cols       []int
	width      int
}

// unitWidth is the number of cells u occupies.
func unitWidth(u mention.Unit) int {
	if u.IsToken() {
		return runewidth.StringWidth(u.Text())
	}
	if u.Rune == '\t' || u.Rune == mention.NBSP {
		return 1
	}
	return runewidth.RuneWidth(u.Rune)
}

// layout wraps doc into rows no wider than width. A token never splits
// across rows.
func layout(doc *mention.Document, width int) []visualLine {
	width = max(width, 1)
	lines := []visualLine{{}}
	cur := &lines[0]

	for i := 0; i < doc.Len(); i++ {
		u := doc.Unit(i)
		if !u.IsToken() && u.Rune == '\n' {
			cur.end = i
			lines = append(lines, visualLine{start: i + 1, end: i + 1})
			cur = &lines[len(lines)-1]
			continue
		}
		w := unitWidth(u)
		if cur.width > 0 && cur.width+w > width {
			cur.end = i
			lines = append(lines, visualLine{start: i, end: i})
			cur = &lines[len(lines)-1]
		}
		cur.cols = append(cur.cols, cur.width)
		cur.width += w
		cur.end = i + 1
	}
	return lines
}

// caretCell returns the row and column of document position pos. At a
// soft wrap the position belongs to the start of the next row.
func caretCell(lines []visualLine, pos int) (row, col int) {
	for i, l := range lines {
		if l.start <= pos && pos <= l.end {
			row = i
		}
	}
	l := lines[row]
	if pos >= l.end {
		return row, l.width
	}
	return row, l.cols[pos-l.start]
}

// positionAt returns the document position nearest to cell (row, col).
// A click on the right half of a unit lands after it.
func positionAt(doc *mention.Document, lines []visualLine, row, col int) int {
	if len(lines) == 0 {
		return 0
	}
	row = min(max(row, 0), len(lines)-1)
	l := lines[row]
	for i, c := range l.cols {
		w := unitWidth(doc.Unit(l.start + i))
		if col < c+w {
			if col-c >= (w+1)/2 && w > 1 {
				return l.start + i + 1
			}
			return l.start + i
		}
	}
	return l.end
}
