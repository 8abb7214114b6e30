// Package speech defines the data model for speech sequences: the linear,
// caller-owned stream of text runs and state-changing commands that a
// screen reader emits and the driver converts to SSML.
package speech

// Item is a single element of a Sequence: either a text run or a Command.
// Exactly one of Text or Command is non-nil/non-zero.
type Item struct {
	// Text holds a text run when this item is not a command. Empty for
	// command items.
	Text string

	// Command holds the command when this item is not a text run. Nil for
	// text items.
	Command Command
}

// TextItem builds an Item carrying a text run.
func TextItem(text string) Item {
	return Item{Text: text}
}

// CommandItem builds an Item carrying a command.
func CommandItem(cmd Command) Item {
	return Item{Command: cmd}
}

// IsText reports whether this item is a text run rather than a command.
func (i Item) IsText() bool {
	return i.Command == nil
}

// Sequence is a finite ordered list of Items, owned by the caller and
// borrowed once for conversion to SSML.
type Sequence []Item

// Command is implemented by every speech-command variant. The marker method
// prevents types outside this package from satisfying the interface, since
// pkg/ssml dispatches on the concrete type via a type switch and must see an
// exhaustive, closed set.
type Command interface {
	isSpeechCommand()
}

// Index inserts a named marker whose "reached" moment is reported during
// playback via DriverState.lastIndex.
type Index struct {
	I uint32
}

func (Index) isSpeechCommand() {}

// CharacterMode turns letter-by-letter pronunciation of subsequent text on
// or off.
type CharacterMode struct {
	On bool
}

func (CharacterMode) isSpeechCommand() {}

// LangChange changes the language of subsequent text. A nil Lang resets to
// the driver's default language.
type LangChange struct {
	Lang *string
}

func (LangChange) isSpeechCommand() {}

// Break inserts a pause of the given duration in milliseconds.
type Break struct {
	Ms uint32
}

func (Break) isSpeechCommand() {}

// Pitch sets the pitch multiplier for subsequent text. A multiplier of 1
// resets pitch to the voice default.
type Pitch struct {
	Multiplier float64
}

func (Pitch) isSpeechCommand() {}

// Rate sets the rate multiplier for subsequent text. A multiplier of 1
// resets rate to the voice default.
type Rate struct {
	Multiplier float64
}

func (Rate) isSpeechCommand() {}

// Volume sets the volume multiplier for subsequent text. A multiplier of 1
// resets volume to the voice default.
type Volume struct {
	Multiplier float64
}

func (Volume) isSpeechCommand() {}

// Phoneme requests pronunciation of ipa using fallbackText when the engine
// cannot render the phoneme string directly.
type Phoneme struct {
	IPA          string
	FallbackText string
}

func (Phoneme) isSpeechCommand() {}
