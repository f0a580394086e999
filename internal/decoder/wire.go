package decoder

import (
	"errors"
	"fmt"
)

const (
	signatureLength = 64
	publicKeyLength = 32
	blockhashLength = 32
	headerLength    = 3

	// versionPrefixMask marks a versioned transaction message; the low bits
	// carry the version number.
	versionPrefixMask = 0x80
)

var errTruncated = errors.New("truncated transaction payload")

// compiledInstruction mirrors one instruction of the wire message: indexes
// into the static account-key table plus opaque instruction data.
type compiledInstruction struct {
	programIDIndex uint8
	accounts       []uint8
	data           []byte
}

// wireMessage is the parsed transaction message. raw keeps the exact message
// bytes for hashing.
type wireMessage struct {
	accountKeys  [][]byte
	instructions []compiledInstruction
	raw          []byte
}

type wireReader struct {
	buf []byte
	pos int
}

func (r *wireReader) remaining() int {
	return len(r.buf) - r.pos
}

func (r *wireReader) readByte() (byte, error) {
	if r.remaining() < 1 {
		return 0, errTruncated
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *wireReader) readBytes(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, errTruncated
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

// readCompactLength decodes a compact-u16 length prefix.
func (r *wireReader) readCompactLength() (int, error) {
	var value, shift uint
	for i := 0; i < 3; i++ {
		b, err := r.readByte()
		if err != nil {
			return 0, err
		}
		value |= uint(b&0x7f) << shift
		if b&0x80 == 0 {
			if value > 0xffff {
				return 0, fmt.Errorf("compact-u16 value %d out of range", value)
			}
			return int(value), nil
		}
		shift += 7
	}
	return 0, errors.New("compact-u16 prefix too long")
}

// parseTransaction splits a wire transaction into its message, skipping the
// signatures. Legacy and version-0 message formats are accepted.
func parseTransaction(payload []byte) (*wireMessage, error) {
	r := &wireReader{buf: payload}

	sigCount, err := r.readCompactLength()
	if err != nil {
		return nil, fmt.Errorf("read signature count: %w", err)
	}
	if _, err := r.readBytes(sigCount * signatureLength); err != nil {
		return nil, fmt.Errorf("read signatures: %w", err)
	}

	messageStart := r.pos

	prefix, err := r.readByte()
	if err != nil {
		return nil, fmt.Errorf("read message prefix: %w", err)
	}
	if prefix&versionPrefixMask != 0 {
		if version := prefix &^ byte(versionPrefixMask); version != 0 {
			return nil, fmt.Errorf("unsupported message version %d", version)
		}
	} else {
		// Legacy message: the prefix byte is the first header byte.
		r.pos--
	}

	if _, err := r.readBytes(headerLength); err != nil {
		return nil, fmt.Errorf("read message header: %w", err)
	}

	keyCount, err := r.readCompactLength()
	if err != nil {
		return nil, fmt.Errorf("read account key count: %w", err)
	}
	keys := make([][]byte, 0, keyCount)
	for i := 0; i < keyCount; i++ {
		key, err := r.readBytes(publicKeyLength)
		if err != nil {
			return nil, fmt.Errorf("read account key %d: %w", i, err)
		}
		keys = append(keys, key)
	}

	if _, err := r.readBytes(blockhashLength); err != nil {
		return nil, fmt.Errorf("read recent blockhash: %w", err)
	}

	insCount, err := r.readCompactLength()
	if err != nil {
		return nil, fmt.Errorf("read instruction count: %w", err)
	}
	instructions := make([]compiledInstruction, 0, insCount)
	for i := 0; i < insCount; i++ {
		ins, err := readInstruction(r)
		if err != nil {
			return nil, fmt.Errorf("read instruction %d: %w", i, err)
		}
		instructions = append(instructions, ins)
	}

	// Version-0 messages append address table lookups after the
	// instructions; transfers only reference static keys, so the tail is
	// left unread.
	return &wireMessage{
		accountKeys:  keys,
		instructions: instructions,
		raw:          payload[messageStart:],
	}, nil
}

func readInstruction(r *wireReader) (compiledInstruction, error) {
	programIDIndex, err := r.readByte()
	if err != nil {
		return compiledInstruction{}, fmt.Errorf("read program id index: %w", err)
	}

	accountCount, err := r.readCompactLength()
	if err != nil {
		return compiledInstruction{}, fmt.Errorf("read account count: %w", err)
	}
	accounts, err := r.readBytes(accountCount)
	if err != nil {
		return compiledInstruction{}, fmt.Errorf("read accounts: %w", err)
	}

	dataLen, err := r.readCompactLength()
	if err != nil {
		return compiledInstruction{}, fmt.Errorf("read data length: %w", err)
	}
	data, err := r.readBytes(dataLen)
	if err != nil {
		return compiledInstruction{}, fmt.Errorf("read data: %w", err)
	}

	return compiledInstruction{
		programIDIndex: programIDIndex,
		accounts:       accounts,
		data:           data,
	}, nil
}
