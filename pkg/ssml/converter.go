package ssml

import (
	"context"
	"strconv"
	"strings"

	"github.com/pd360/onecoretts/o11y"
	"github.com/pd360/onecoretts/pkg/speech"
)

// Option configures a Converter. Following the pack's dominant functional
// option idiom (plain `type Option func(*T)` rather than a generic
// Option-interface wrapper, see DESIGN.md).
type Option func(*Converter)

// WithCharacterModeSuppressed disables CharacterMode handling entirely: the
// say-as/characters wrapping is skipped and character-mode text is emitted
// as plain text. Required for engines whose character mode rendering is
// poor.
func WithCharacterModeSuppressed() Option {
	return func(c *Converter) { c.suppressCharacterMode = true }
}

// WithBaseVolume configures the converter to always emit prosody/volume as
// baseVolume*multiplier (integer percent), including at multiplier == 1,
// rather than omitting the attribute at the default multiplier. Required
// for engines whose base volume must be SSML-driven rather than set via a
// separate property.
func WithBaseVolume(percent int) Option {
	return func(c *Converter) {
		c.forceVolume = true
		c.baseVolume = percent
	}
}

// Converter translates a speech.Sequence into a single SSML document using
// a Writer. It is grounded directly on the "close all and reopen desired
// set" reconciliation in Writer, and on the conversion dispatch table
// below.
type Converter struct {
	w                      *Writer
	defaultLanguage        string
	suppressCharacterMode  bool
	forceVolume            bool
	baseVolume             int
}

// NewConverter creates a Converter that will emit a <speak> document with
// the given default language, applying any supplied Options as the engine-
// specific override extension point.
func NewConverter(defaultLanguage string, opts ...Option) *Converter {
	c := &Converter{
		w:               NewWriter(),
		defaultLanguage: defaultLanguage,
		baseVolume:      100,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.w.EncloseAll(TagSpeak, Attrs{
		"version": "1.0",
		"xmlns":   "http://www.w3.org/2001/10/synthesis",
		"xml:lang": defaultLanguage,
	})
	return c
}

// Convert converts seq to an SSML document. speech.Command is a sealed
// interface, so every variant in the current set is handled below; the
// default case exists only to keep a future command variant added to
// pkg/speech from panicking here before this switch is updated for it — it
// is logged at warning level and the item is skipped rather than aborting
// the sequence.
func (c *Converter) Convert(ctx context.Context, seq speech.Sequence) string {
	ctx, span := o11y.StartSpan(ctx, "ssml.Convert", o11y.Attrs{"items": len(seq)})
	defer span.End()

	for _, item := range seq {
		c.convertItem(ctx, item)
		c.w.FlushTags()
	}
	return c.w.Finish()
}

func (c *Converter) convertItem(ctx context.Context, item speech.Item) {
	if item.IsText() {
		c.w.Text(item.Text)
		return
	}

	switch cmd := item.Command.(type) {
	case speech.Index:
		c.convertIndex(cmd)
	case speech.CharacterMode:
		c.convertCharacterMode(cmd)
	case speech.LangChange:
		c.convertLangChange(cmd)
	case speech.Break:
		c.convertBreak(cmd)
	case speech.Pitch:
		c.convertProsody("pitch", cmd.Multiplier)
	case speech.Rate:
		c.convertProsody("rate", cmd.Multiplier)
	case speech.Volume:
		c.convertVolume(cmd)
	case speech.Phoneme:
		c.convertPhoneme(cmd)
	default:
		o11y.FromContext(ctx).Warn(ctx, "unsupported speech command", "type", item.Command)
	}
}

func (c *Converter) convertIndex(cmd speech.Index) {
	c.w.Raw(`<mark name="` + strconv.FormatUint(uint64(cmd.I), 10) + `" />`)
}

func (c *Converter) convertCharacterMode(cmd speech.CharacterMode) {
	if c.suppressCharacterMode {
		return
	}
	if cmd.On {
		c.w.EncloseTextInTag("say-as", Attrs{"interpret-as": "characters"})
	} else {
		c.w.StopEnclosingTextInTag()
	}
}

func (c *Converter) convertLangChange(cmd speech.LangChange) {
	lang := c.defaultLanguage
	if cmd.Lang != nil && *cmd.Lang != "" {
		lang = *cmd.Lang
	}
	c.w.SetAttr(TagVoice, "xml:lang", toXMLLang(lang))
}

func (c *Converter) convertBreak(cmd speech.Break) {
	c.w.Raw(`<break time="` + strconv.FormatUint(uint64(cmd.Ms), 10) + `ms" />`)
}

func (c *Converter) convertProsody(attr string, multiplier float64) {
	if multiplier == 1 {
		c.w.DelAttr(TagProsody, attr)
		return
	}
	c.w.SetAttr(TagProsody, attr, strconv.Itoa(int(multiplier*100))+"%")
}

func (c *Converter) convertVolume(cmd speech.Volume) {
	if !c.forceVolume {
		c.convertProsody("volume", cmd.Multiplier)
		return
	}
	pct := int(float64(c.baseVolume) * cmd.Multiplier)
	c.w.SetAttr(TagProsody, "volume", strconv.Itoa(pct)+"%")
}

func (c *Converter) convertPhoneme(cmd speech.Phoneme) {
	// Mirrors the mapping table exactly: open tag, raw (unescaped)
	// fallback text, close tag.
	c.w.Raw(`<phoneme alphabet="ipa" ph="` + xmlAttrEscapes.Replace(cmd.IPA) + `">`)
	c.w.Raw(cmd.FallbackText)
	c.w.Raw(`</phoneme>`)
}

// toXMLLang converts an underscore-separated language tag ("en_US") to the
// XML-conventional hyphenated form ("en-US").
func toXMLLang(lang string) string {
	return strings.ReplaceAll(lang, "_", "-")
}
