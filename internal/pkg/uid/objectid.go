package uid

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// ErrNoNodeIdentity is returned when neither /etc/machine-id nor the
// hostname can identify this process.
var ErrNoNodeIdentity = errors.New("uid: no stable node identity available")

// ObjectIDGenerator produces 32-byte identifiers rendered as 64 hex
// characters. The layout is millisecond timestamp, node digest, pid,
// monotonic counter, then random padding, so IDs sort roughly by time and
// stay collision-safe across replicas.
type ObjectIDGenerator struct {
	node    [6]byte
	pid     uint16
	counter atomic.Uint32
}

// NewObjectIDGenerator derives the node bytes from the machine identity and
// seeds the counter from crypto/rand.
func NewObjectIDGenerator() (*ObjectIDGenerator, error) {
	identity, err := nodeIdentity()
	if err != nil {
		return nil, err
	}

	g := &ObjectIDGenerator{pid: uint16(os.Getpid())}
	digest := sha256.Sum256([]byte(identity))
	copy(g.node[:], digest[:6])

	var seed [4]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, err
	}
	g.counter.Store(binary.BigEndian.Uint32(seed[:]))

	return g, nil
}

func nodeIdentity() (string, error) {
	if b, err := os.ReadFile("/etc/machine-id"); err == nil {
		if id := strings.TrimSpace(string(b)); id != "" {
			return id, nil
		}
	}
	if host, err := os.Hostname(); err == nil {
		if host = strings.TrimSpace(host); host != "" {
			return host, nil
		}
	}
	return "", ErrNoNodeIdentity
}

// Generate returns the next identifier as a 64-character hex string.
func (g *ObjectIDGenerator) Generate() string {
	var raw [32]byte

	ms := uint64(time.Now().UnixMilli())
	binary.BigEndian.PutUint64(raw[:8], ms<<16) // keep the low 48 bits in raw[0:6]
	copy(raw[6:12], g.node[:])
	binary.BigEndian.PutUint16(raw[12:14], g.pid)
	binary.BigEndian.PutUint32(raw[14:18], g.counter.Add(1))

	if _, err := rand.Read(raw[18:]); err != nil {
		// entropy exhausted, derive the padding from the prefix instead
		digest := sha256.Sum256(raw[:18])
		copy(raw[18:], digest[:14])
	}

	return hex.EncodeToString(raw[:])
}
