package powerauth

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/binary"
	"fmt"
	"io"

	pacrypto "southwinds.dev/powerauth/internal/crypto"
	"southwinds.dev/powerauth/internal/misc"
)

// Wire layout (all multi-byte integers big-endian):
//
//	byte    version
//	byte    state (0=Empty 1=Pending 2=Active 3=Broken)
//	-- state == Pending --
//	lp      activationIDShort
//	lp      activationOTP
//	lp      devicePrivateKey (32-byte scalar)
//	-- state == Active --
//	lp      activationID
//	lp      activationIDShort
//	lp      serverPublicKey (33-byte compressed point)
//	8       counter
//	lp      envelope[Possession] (zero-length lp = not enrolled)
//	lp      envelope[Knowledge]
//	lp      envelope[Biometry]
//	lp      devicePrivateKeyEnvelope
//	lp      transportKeyEnvelope
//
// lp = a 4-byte big-endian length prefix followed by that many bytes.
// Readers tolerate unknown trailing bytes after a fully-parsed structure
// (forward compatibility) but reject an unknown version byte outright.

func writeLP(buf *bytes.Buffer, data []byte) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	buf.Write(lenBuf[:])
	buf.Write(data)
}

func readLP(r *bytes.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := readFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	data := make([]byte, n)
	if _, err := readFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}

func readFull(r *bytes.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(r, buf)
	if err != nil {
		return n, fmt.Errorf("truncated field: %w", err)
	}
	return n, nil
}

// serializeLocked produces the versioned opaque blob persisted by
// saveLocked and loaded back by NewSession/deserializeLocked.
func (s *Session) serializeLocked() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(misc.SerializationVersion)
	buf.WriteByte(byte(s.state))

	switch s.state {
	case statePending:
		writeLP(&buf, []byte(s.pending.activationIDShort))
		writeLP(&buf, []byte(s.pending.activationOTP))
		if s.pending.devicePrivateKey == nil {
			return nil, fmt.Errorf("powerauth: pending state missing device key")
		}
		var scalar [32]byte
		s.pending.devicePrivateKey.D.FillBytes(scalar[:])
		writeLP(&buf, scalar[:])

	case stateActive:
		writeLP(&buf, []byte(s.active.activationID))
		writeLP(&buf, []byte(s.active.activationIDShort))
		if s.active.serverPublicKey == nil {
			return nil, fmt.Errorf("powerauth: active state missing server public key")
		}
		writeLP(&buf, pacrypto.CompressPoint(s.active.serverPublicKey.X, s.active.serverPublicKey.Y))

		var counterBuf [8]byte
		binary.BigEndian.PutUint64(counterBuf[:], s.active.counter)
		buf.Write(counterBuf[:])

		writeLP(&buf, s.active.envelopes[Possession])
		writeLP(&buf, s.active.envelopes[Knowledge])
		writeLP(&buf, s.active.envelopes[Biometry])
		writeLP(&buf, s.active.devicePrivateKeyEnvelope)
		writeLP(&buf, s.active.transportKeyEnvelope)

	case stateEmpty, stateBroken:
		// no further fields
	}

	return buf.Bytes(), nil
}

// deserializeLocked replaces the Session's state atomically: either it
// fully succeeds and every relevant field is populated, or it returns an
// error and leaves the Session as it invoked (Empty, for the
// NewSession-time call site).
func (s *Session) deserializeLocked(blob []byte) error {
	if len(blob) < 2 {
		return newError("deserialize", InvalidActivationData, fmt.Errorf("blob too short"))
	}
	if blob[0] != misc.SerializationVersion {
		return newError("deserialize", InvalidActivationData, fmt.Errorf("unknown version byte %d", blob[0]))
	}

	r := bytes.NewReader(blob[2:])
	declaredState := lifecycleState(blob[1])

	switch declaredState {
	case stateEmpty, stateBroken:
		s.state = declaredState
		s.pending = pendingData{}
		s.active = activeData{}
		return nil

	case statePending:
		idShort, err := readLP(r)
		if err != nil {
			return newError("deserialize", InvalidActivationData, err)
		}
		otp, err := readLP(r)
		if err != nil {
			return newError("deserialize", InvalidActivationData, err)
		}
		scalar, err := readLP(r)
		if err != nil {
			return newError("deserialize", InvalidActivationData, err)
		}
		if len(scalar) != 32 {
			return newError("deserialize", InvalidActivationData, fmt.Errorf("malformed device key"))
		}
		priv := new(ecdsa.PrivateKey)
		priv.Curve = pacurve()
		priv.D = bigFromBytes(scalar)
		priv.PublicKey.X, priv.PublicKey.Y = priv.Curve.ScalarBaseMult(scalar)

		s.pending = pendingData{
			activationIDShort: string(idShort),
			activationOTP:     string(otp),
			devicePrivateKey:  priv,
		}
		s.active = activeData{}
		s.state = statePending
		return nil

	case stateActive:
		activationID, err := readLP(r)
		if err != nil {
			return newError("deserialize", InvalidActivationData, err)
		}
		activationIDShort, err := readLP(r)
		if err != nil {
			return newError("deserialize", InvalidActivationData, err)
		}
		serverPubBytes, err := readLP(r)
		if err != nil {
			return newError("deserialize", InvalidActivationData, err)
		}
		x, y, err := pacrypto.DecompressPoint(serverPubBytes)
		if err != nil {
			return newError("deserialize", InvalidActivationData, err)
		}

		var counterBuf [8]byte
		if _, err := readFull(r, counterBuf[:]); err != nil {
			return newError("deserialize", InvalidActivationData, err)
		}
		counter := binary.BigEndian.Uint64(counterBuf[:])

		possEnv, err := readLP(r)
		if err != nil {
			return newError("deserialize", InvalidActivationData, err)
		}
		knowEnv, err := readLP(r)
		if err != nil {
			return newError("deserialize", InvalidActivationData, err)
		}
		bioEnv, err := readLP(r)
		if err != nil {
			return newError("deserialize", InvalidActivationData, err)
		}
		devPrivEnv, err := readLP(r)
		if err != nil {
			return newError("deserialize", InvalidActivationData, err)
		}
		transportEnv, err := readLP(r)
		if err != nil {
			return newError("deserialize", InvalidActivationData, err)
		}

		envelopes := map[Factor][]byte{}
		if len(possEnv) > 0 {
			envelopes[Possession] = possEnv
		}
		if len(knowEnv) > 0 {
			envelopes[Knowledge] = knowEnv
		}
		if len(bioEnv) > 0 {
			envelopes[Biometry] = bioEnv
		}

		s.active = activeData{
			activationID:             string(activationID),
			activationIDShort:        string(activationIDShort),
			serverPublicKey:          &ecdsa.PublicKey{Curve: pacurve(), X: x, Y: y},
			envelopes:                envelopes,
			devicePrivateKeyEnvelope: devPrivEnv,
			transportKeyEnvelope:     transportEnv,
			counter:                  counter,
		}
		s.pending = pendingData{}
		s.state = stateActive
		return nil

	default:
		return newError("deserialize", InvalidActivationData, fmt.Errorf("unknown state discriminant %d", declaredState))
	}
}
