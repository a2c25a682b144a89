package midi

// Note range mapped onto the 16 pads. Note 36 (C1) is pad 0, matching
// the common drum controller layout.
const (
	BaseNote  uint8 = 36
	padCount        = 16
)

// PadEvent is a pad hit from a connected controller. Velocity is
// normalized to [0,1].
type PadEvent struct {
	Pad      int
	Velocity float64
}

// padForNote maps a MIDI note to a pad index, or -1 if the note is
// outside the pad range.
func padForNote(note uint8) int {
	if note < BaseNote || note >= BaseNote+padCount {
		return -1
	}
	return int(note - BaseNote)
}
