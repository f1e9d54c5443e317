// Package roundid generates sortable identifiers for archived rounds: a
// UUIDv7 rendered as 26 characters of Crockford base32.
package roundid

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/coder/quartz"
)

// Length of every encoded identifier
const Length = 26

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Generator produces round identifiers from a clock and a random source. It
// is safe for concurrent use.
type Generator struct {
	mu    sync.Mutex
	clock quartz.Clock
	rng   *rand.Rand
}

// NewGenerator creates a generator. A nil clock uses the wall clock and a nil
// rng draws from the runtime's random source.
func NewGenerator(clock quartz.Clock, rng *rand.Rand) *Generator {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Generator{clock: clock, rng: rng}
}

// Next returns a fresh identifier
func (g *Generator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var id [16]byte
	binary.BigEndian.PutUint64(id[0:8], uint64(g.clock.Now().UnixMilli())<<16)
	var a, b uint64
	if g.rng != nil {
		a, b = g.rng.Uint64(), g.rng.Uint64()
	} else {
		a, b = rand.Uint64(), rand.Uint64()
	}
	// low 16 bits of the first word carry random data next to the timestamp
	binary.BigEndian.PutUint16(id[6:8], uint16(a))
	binary.BigEndian.PutUint64(id[8:16], b)

	id[6] = (id[6] & 0x0f) | 0x70 // version 7
	id[8] = (id[8] & 0x3f) | 0x80 // RFC 4122 variant
	return encode(id)
}

// New returns an identifier stamped with the current wall clock time
func New() string {
	return NewGenerator(nil, nil).Next()
}

func encode(id [16]byte) string {
	hi := binary.BigEndian.Uint64(id[0:8])
	lo := binary.BigEndian.Uint64(id[8:16])

	out := make([]byte, Length)
	for i := Length - 1; i >= 0; i-- {
		out[i] = alphabet[lo&0x1f]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out)
}

func decode(s string) ([16]byte, error) {
	var id [16]byte
	if err := Validate(s); err != nil {
		return id, err
	}
	var hi, lo uint64
	for i := 0; i < Length; i++ {
		v := uint64(strings.IndexByte(alphabet, s[i]))
		hi = hi<<5 | lo>>59
		lo = lo<<5 | v
	}
	binary.BigEndian.PutUint64(id[0:8], hi)
	binary.BigEndian.PutUint64(id[8:16], lo)
	return id, nil
}

// Time extracts the millisecond timestamp embedded in id
func Time(id string) (time.Time, error) {
	raw, err := decode(id)
	if err != nil {
		return time.Time{}, err
	}
	ms := binary.BigEndian.Uint64(raw[0:8]) >> 16
	return time.UnixMilli(int64(ms)).UTC(), nil
}

// Validate checks that id is 26 lowercase base32 characters encoding at
// most 128 bits.
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("round ID must be exactly %d characters, got %d", Length, len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("round ID first character must be 0-7, got %c", id[0])
	}
	for i := 0; i < len(id); i++ {
		if strings.IndexByte(alphabet, id[i]) < 0 {
			return fmt.Errorf("invalid character %c at position %d", id[i], i)
		}
	}
	return nil
}
