package mention

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommit_ReplacesTriggerAndQuery(t *testing.T) {
	d := NewDocument()
	d.InsertText("hi @jo")

	assert.True(t, Commit(d, "johndoe"))
	assert.Equal(t, []Segment{TextRun("hi "), TokenOf("johndoe"), TextRun("\u00a0")}, d.Segments())
	assert.Equal(t, d.Len(), d.Caret(), "caret lands after the separator")
	assert.Equal(t, "hi @johndoe ", d.PlainText())
}

func TestCommit_TriggerAloneAtStart(t *testing.T) {
	d := NewDocument()
	d.InsertText("@")

	assert.True(t, Commit(d, "janedoe"))
	assert.Equal(t, []Segment{TextRun(""), TokenOf("janedoe"), TextRun("\u00a0")}, d.Segments())
}

func TestCommit_RepeatedMentionsStayDistinct(t *testing.T) {
	d := NewDocument()
	for i := 0; i < 2; i++ {
		d.InsertText("@jo")
		assert.True(t, Commit(d, "johndoe"))
	}
	assert.Equal(t, []string{"johndoe", "johndoe"}, d.Mentions())
	assert.Equal(t, "@johndoe @johndoe ", d.PlainText())
}

func TestCommit_MidText(t *testing.T) {
	d := NewDocument()
	d.InsertText("a @ja tail")
	d.SetCaret(5)

	assert.True(t, Commit(d, "janedoe"))
	assert.Equal(t, []Segment{TextRun("a "), TokenOf("janedoe"), TextRun("\u00a0 tail")}, d.Segments())
	assert.Equal(t, 4, d.Caret())
}

func TestCommit_NoOps(t *testing.T) {
	d := NewDocument()
	d.InsertText("no trigger")
	assert.False(t, Commit(d, "bob"))
	assert.Equal(t, "no trigger", d.PlainText())

	d = NewDocument()
	d.InsertText("@bo")
	assert.False(t, Commit(d, ""), "empty username is never inserted")
	assert.Equal(t, "@bo", d.PlainText())

	d.Select(0, 1)
	assert.False(t, Commit(d, "bob"))
}

func TestDeleteBoundary(t *testing.T) {
	d := FromSegments([]Segment{TextRun("x "), TokenOf("bob"), TextRun("\u00a0y")})

	d.SetCaret(3)
	assert.True(t, DeleteBoundary(d))
	assert.Equal(t, []Segment{TextRun("x \u00a0y")}, d.Segments())
	assert.Equal(t, 2, d.Caret())
}

func TestDeleteBoundary_LeavesTokenWhenTextBefore(t *testing.T) {
	d := FromSegments([]Segment{TokenOf("bob"), TextRun("\u00a0y")})
	d.SetCaret(2)
	assert.False(t, DeleteBoundary(d))
	assert.Equal(t, []string{"bob"}, d.Mentions())
}

func TestDeleteBoundary_NonCollapsed(t *testing.T) {
	d := FromSegments([]Segment{TokenOf("bob")})
	d.Select(0, 1)
	assert.False(t, DeleteBoundary(d))
	assert.Equal(t, 1, d.Len())
}

func TestDeleteBoundary_AtStart(t *testing.T) {
	d := FromSegments([]Segment{TokenOf("bob")})
	d.SetCaret(0)
	assert.False(t, DeleteBoundary(d))
}
