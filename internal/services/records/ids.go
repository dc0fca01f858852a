package records

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	trackingPrefix         = "PC"
	trackingSuffixLen      = 4
	maxTrackingAttempts    = 16
	trackingSuffixAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func randomSuffix() string {
	var b strings.Builder
	for range trackingSuffixLen {
		b.WriteByte(trackingSuffixAlphabet[rand.IntN(len(trackingSuffixAlphabet))])
	}
	return b.String()
}

// trackingNumber: "PC" + last 8 digits of the millisecond clock + random suffix.
func trackingNumber(now time.Time, suffix string) string {
	ms := fmt.Sprintf("%08d", now.UnixMilli()%100_000_000)
	return trackingPrefix + ms + suffix
}

// uniqueTrackingNumber draws tracking numbers until one is not in taken.
func (s *Store) uniqueTrackingNumber(taken map[string]struct{}) (string, error) {
	for range maxTrackingAttempts {
		tn := trackingNumber(s.now(), s.suffix())
		if _, ok := taken[tn]; !ok {
			return tn, nil
		}
	}
	return "", &Error{Kind: KindDuplicateTracking, Message: "could not allocate a unique tracking number"}
}

// uniqueID draws ids until one is not in taken.
func (s *Store) uniqueID(prefix string, taken map[string]struct{}) string {
	for {
		id := s.newID(prefix)
		if _, ok := taken[id]; !ok {
			return id
		}
	}
}
