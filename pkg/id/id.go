package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu   sync.Mutex
	mono io.Reader

	epoch = time.Unix(0, 0).UTC()
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns a ULID string stamped with the current time.
func New() string {
	id, err := At(time.Now())
	if err != nil {
		// entropy failure only; now is always in range
		panic(err)
	}
	return id
}

// At returns a ULID string stamped with t. IDs generated for the same
// millisecond stay lexicographically increasing, so chart sessions sort by
// start time even when a simulated clock is used. Times before the epoch are
// stamped as the epoch; times past the ULID range are an error.
func At(t time.Time) (string, error) {
	if t.Before(epoch) {
		t = epoch
	}
	ms := ulid.Timestamp(t)
	if ms > ulid.MaxTime() {
		return "", fmt.Errorf("id time %s out of range", t.UTC().Format(time.RFC3339))
	}

	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ms, mono)
	if err != nil {
		return "", fmt.Errorf("new id: %w", err)
	}
	return id.String(), nil
}

// Time extracts the timestamp from a ULID string.
func Time(s string) (time.Time, error) {
	id, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(id.Time()).UTC(), nil
}
