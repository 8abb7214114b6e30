// Package ssml converts a speech.Sequence into a single well-formed SSML
// document. Writer is the low-level balanced-tag emitter; Converter (in
// converter.go) drives it according to the command-to-markup mapping.
package ssml

import (
	"sort"
	"strings"
)

// Tag identifies an XML element name used by the writer's tag-management
// operations (as opposed to raw markup emitted directly via Raw).
type Tag string

// Known tags used by the converter. Kept as a closed set of typed constants
// rather than bare strings, per the "sum-type representation of each
// supported tag" note for a systems-language reimplementation.
const (
	TagSpeak   Tag = "speak"
	TagVoice   Tag = "voice"
	TagProsody Tag = "prosody"
)

// Attrs maps attribute name to value. Iteration order when reopening tags is
// not required to be stable.
type Attrs map[string]string

var xmlEscapes = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

var xmlAttrEscapes = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

type tagEnclosure struct {
	tag   Tag
	attrs Attrs
}

// Writer emits a balanced XML document incrementally while allowing
// retroactive changes to the set of currently open tags: callers mutate the
// desired attribute set via SetAttr/DelAttr, and FlushTags reconciles the
// physically open tags to match by closing everything and reopening the
// desired set. This avoids tracking a least-common-ancestor when a state
// transition would otherwise require closing an outer tag to reset an inner
// one.
type Writer struct {
	out              strings.Builder
	enclosingAll     []Tag
	openTags         []Tag
	tags             map[Tag]Attrs
	tagsChanged      bool
	tagEnclosingText *tagEnclosure
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer {
	return &Writer{tags: make(map[Tag]Attrs)}
}

// Raw appends s to the output unprocessed.
func (w *Writer) Raw(s string) {
	w.out.WriteString(s)
}

// Text appends s as XML-escaped text. If a tag is currently set via
// EncloseTextInTag, s is wrapped in that tag's open/close pair.
func (w *Writer) Text(s string) {
	escaped := xmlEscapes.Replace(s)
	enc := w.tagEnclosingText
	if enc != nil {
		w.openTag(enc.tag, enc.attrs)
	}
	w.Raw(escaped)
	if enc != nil {
		w.closeTag(enc.tag)
	}
}

func (w *Writer) openTag(tag Tag, attrs Attrs) {
	w.out.WriteByte('<')
	w.out.WriteString(string(tag))
	names := make([]string, 0, len(attrs))
	for attr := range attrs {
		names = append(names, attr)
	}
	// Fixed order keeps output deterministic: version, xmlns and xml:lang
	// (the <speak> root's attributes) first, the rest by name.
	rank := map[string]string{"version": "0", "xmlns": "1", "xml:lang": "2"}
	sort.Slice(names, func(i, j int) bool { return rank[names[i]]+names[i] < rank[names[j]]+names[j] })
	for _, attr := range names {
		w.out.WriteByte(' ')
		w.out.WriteString(attr)
		w.out.WriteString(`="`)
		w.out.WriteString(xmlAttrEscapes.Replace(attrs[attr]))
		w.out.WriteByte('"')
	}
	w.out.WriteByte('>')
}

func (w *Writer) closeTag(tag Tag) {
	w.out.WriteString("</")
	w.out.WriteString(string(tag))
	w.out.WriteByte('>')
}

// EncloseAll opens tag and pushes it onto the enclosing-all stack, closed
// only when Finish is called. Must be called before any other emission.
func (w *Writer) EncloseAll(tag Tag, attrs Attrs) {
	w.openTag(tag, attrs)
	w.enclosingAll = append(w.enclosingAll, tag)
}

// SetAttr sets attr to val on tag in the desired tag set, marking the
// writer dirty if the value actually changed. The tag becomes physically
// open the next time FlushTags is called.
func (w *Writer) SetAttr(tag Tag, attr, val string) {
	attrs, ok := w.tags[tag]
	if !ok {
		attrs = make(Attrs)
		w.tags[tag] = attrs
	}
	if attrs[attr] != val {
		attrs[attr] = val
		w.tagsChanged = true
	}
}

// DelAttr removes attr from tag in the desired tag set. If tag has no
// attributes left, the tag itself is removed from the desired set.
func (w *Writer) DelAttr(tag Tag, attr string) {
	attrs, ok := w.tags[tag]
	if !ok {
		return
	}
	if _, ok := attrs[attr]; !ok {
		return
	}
	delete(attrs, attr)
	if len(attrs) == 0 {
		delete(w.tags, tag)
	}
	w.tagsChanged = true
}

// EncloseTextInTag directly encloses all text emitted by Text, until
// StopEnclosingTextInTag is called, in an open/close pair of tag.
func (w *Writer) EncloseTextInTag(tag Tag, attrs Attrs) {
	w.tagEnclosingText = &tagEnclosure{tag: tag, attrs: attrs}
}

// StopEnclosingTextInTag stops the text-enclosing behavior started by
// EncloseTextInTag.
func (w *Writer) StopEnclosingTextInTag() {
	w.tagEnclosingText = nil
}

// FlushTags reconciles the physically open tags with the desired tag set
// when it has changed: every currently open tag is closed in reverse order,
// then every tag in the desired set is reopened.
func (w *Writer) FlushTags() {
	if !w.tagsChanged {
		return
	}
	for i := len(w.openTags) - 1; i >= 0; i-- {
		w.closeTag(w.openTags[i])
	}
	w.openTags = w.openTags[:0]
	for tag, attrs := range w.tags {
		w.openTag(tag, attrs)
		w.openTags = append(w.openTags, tag)
	}
	w.tagsChanged = false
}

// Finish closes every remaining open tag in reverse order, then every
// enclosing-all tag in reverse order, and returns the finished document.
func (w *Writer) Finish() string {
	for i := len(w.openTags) - 1; i >= 0; i-- {
		w.closeTag(w.openTags[i])
	}
	for i := len(w.enclosingAll) - 1; i >= 0; i-- {
		w.closeTag(w.enclosingAll[i])
	}
	return w.out.String()
}
