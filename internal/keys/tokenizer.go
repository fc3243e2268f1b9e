package keys

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Tokenizer states. The escape grammar is small enough that an explicit
// state machine keeps the end-of-stream cases enumerable.
type tokenizerState int

const (
	stateGround tokenizerState = iota
	stateEscape
	stateCSI
)

// csiFinals maps a parameterless CSI final byte to its key.
var csiFinals = map[byte]Press{
	'A': Up,
	'B': Down,
	'C': Right,
	'D': Left,
	'H': Home,
	'F': End,
}

// csiTildeParams maps the parameter of a `CSI <n> ~` sequence to its key.
var csiTildeParams = map[string]Press{
	"2": Insert,
	"3": Delete,
	"5": PageUp,
	"6": PageDown,
}

// Tokenize reconstructs the ordered keystroke sequence from a raw terminal
// input byte stream. Parsing is a pure function of the input: the same bytes
// always yield the same sequence. An unrecognized byte or escape sequence
// fails the whole stream.
func Tokenize(data []byte) (Sequence, error) {
	var presses []Press
	state := stateGround
	var csiParams []byte

	i := 0
	for i < len(data) {
		b := data[i]
		switch state {
		case stateGround:
			switch {
			case b == 0x1b:
				state = stateEscape
				i++
			case b == '\r' || b == '\n':
				presses = append(presses, Enter)
				i++
			case b == '\t':
				presses = append(presses, Tab)
				i++
			case b == ' ':
				presses = append(presses, Space)
				i++
			case b == 0x7f:
				presses = append(presses, Backspace)
				i++
			case b >= 0x01 && b <= 0x1a:
				presses = append(presses, Ctrl(b+0x60))
				i++
			case b < 0x20:
				return Sequence{}, fmt.Errorf("unrecognized control byte 0x%02x at offset %d", b, i)
			case b < 0x80:
				presses = append(presses, Press(b))
				i++
			default:
				r, size := utf8.DecodeRune(data[i:])
				if r == utf8.RuneError && size == 1 {
					return Sequence{}, fmt.Errorf("invalid UTF-8 byte 0x%02x at offset %d", b, i)
				}
				if !unicode.IsPrint(r) {
					return Sequence{}, fmt.Errorf("unprintable rune %q at offset %d", r, i)
				}
				presses = append(presses, Press(r))
				i += size
			}
		case stateEscape:
			switch {
			case b == '[':
				state = stateCSI
				csiParams = csiParams[:0]
				i++
			case isAlphanumeric(b):
				presses = append(presses, Alt(rune(b)))
				state = stateGround
				i++
			default:
				// Bare ESC; the next byte is reprocessed from ground.
				presses = append(presses, Esc)
				state = stateGround
			}
		case stateCSI:
			switch {
			case b >= 0x40 && b <= 0x7e:
				press, err := resolveCSI(b, csiParams)
				if err != nil {
					return Sequence{}, fmt.Errorf("%w at offset %d", err, i)
				}
				presses = append(presses, press)
				state = stateGround
				i++
			case b >= 0x20 && b <= 0x3f:
				csiParams = append(csiParams, b)
				i++
			default:
				return Sequence{}, fmt.Errorf("malformed escape sequence byte 0x%02x at offset %d", b, i)
			}
		}
	}

	switch state {
	case stateEscape:
		// A trailing lone ESC is the Esc key.
		presses = append(presses, Esc)
	case stateCSI:
		return Sequence{}, fmt.Errorf("truncated escape sequence at end of stream")
	}

	return NewSequence(presses), nil
}

func resolveCSI(final byte, params []byte) (Press, error) {
	if len(params) == 0 {
		if press, ok := csiFinals[final]; ok {
			return press, nil
		}
		return "", fmt.Errorf("unrecognized escape sequence ESC [ %c", final)
	}
	if final == '~' {
		if press, ok := csiTildeParams[string(params)]; ok {
			return press, nil
		}
	}
	return "", fmt.Errorf("unrecognized escape sequence ESC [ %s %c", params, final)
}

func isAlphanumeric(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
