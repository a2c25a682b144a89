package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// PadController turns note-on messages from any MIDI input into pad
// events. Notes outside the pad range are ignored.
type PadController struct {
	id       string
	inPort   drivers.In
	stopFunc func()

	padChan chan PadEvent
}

// NewPadController opens the input port and starts listening
func NewPadController(id string, inPort drivers.In) (*PadController, error) {
	pc := &PadController{
		id:      id,
		inPort:  inPort,
		padChan: make(chan PadEvent, 32),
	}

	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
			var channel, note, velocity uint8
			if msg.GetNoteOn(&channel, &note, &velocity) && velocity > 0 {
				pad := padForNote(note)
				if pad < 0 {
					return
				}
				select {
				case pc.padChan <- PadEvent{Pad: pad, Velocity: float64(velocity) / 127}:
				default:
				}
			}
		})
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		pc.stopFunc = stop
	}

	return pc, nil
}

func (pc *PadController) ID() string {
	return pc.id
}

func (pc *PadController) Events() <-chan PadEvent {
	return pc.padChan
}

func (pc *PadController) Close() error {
	if pc.stopFunc != nil {
		pc.stopFunc()
	}
	close(pc.padChan)
	return nil
}
