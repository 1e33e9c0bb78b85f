package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance is how far a webhook's signature timestamp may drift from
// the current time before the event is rejected as a replay.
const DefaultTolerance = 5 * time.Minute

var (
	ErrMissingSignature = errors.New("missing signature header")
	ErrBadSignature     = errors.New("webhook signature verification failed")
	ErrStaleTimestamp   = errors.New("webhook timestamp outside tolerance")
)

// ConstructEvent verifies the signature header against the raw payload and
// unmarshals the event. The header carries a unix timestamp and one or more
// HMAC-SHA256 signatures of "<timestamp>.<payload>":
//
//	Signature: t=1712000000,v1=5257a86...
func ConstructEvent(payload []byte, sigHeader, secret string) (*Event, error) {
	return constructEventAt(payload, sigHeader, secret, time.Now(), DefaultTolerance)
}

func constructEventAt(payload []byte, sigHeader, secret string, now time.Time, tolerance time.Duration) (*Event, error) {
	if sigHeader == "" {
		return nil, ErrMissingSignature
	}

	var timestamp int64 = -1
	var signatures [][]byte

	for _, part := range strings.Split(sigHeader, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad timestamp", ErrBadSignature)
			}
			timestamp = ts
		case "v1":
			sig, err := hex.DecodeString(kv[1])
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		}
	}

	if timestamp < 0 || len(signatures) == 0 {
		return nil, ErrBadSignature
	}

	drift := now.Sub(time.Unix(timestamp, 0))
	if drift > tolerance || drift < -tolerance {
		return nil, ErrStaleTimestamp
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	valid := false
	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			valid = true
			break
		}
	}
	if !valid {
		return nil, ErrBadSignature
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal webhook payload: %v", err)
	}

	return &event, nil
}

// SignPayload produces a valid signature header for a payload. Used by tests
// and the local webhook replay tool.
func SignPayload(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}
