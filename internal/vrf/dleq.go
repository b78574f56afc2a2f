package vrf

import "fmt"

const dleqDomain = "ocb/v1/vrf/dleq"

// dleqProof shows log_G(pk) == log_H(gamma) without revealing the key.
type dleqProof struct {
	A Point // w*G
	B Point // w*H
	S Scalar
}

func dleqChallenge(pk, h, gamma, a, b Point) (Scalar, error) {
	tr := newTranscript(dleqDomain)
	tr.append("pk", pk.Bytes())
	tr.append("h", h.Bytes())
	tr.append("gamma", gamma.Bytes())
	tr.append("a", a.Bytes())
	tr.append("b", b.Bytes())
	return tr.challenge("e")
}

func proveDLEQ(pk, h, gamma Point, x, w Scalar) (dleqProof, error) {
	if w.IsZero() {
		return dleqProof{}, fmt.Errorf("dleq: zero nonce")
	}
	a := baseMul(w)
	b := mul(h, w)
	e, err := dleqChallenge(pk, h, gamma, a, b)
	if err != nil {
		return dleqProof{}, err
	}
	return dleqProof{A: a, B: b, S: addScalars(w, mulScalars(e, x))}, nil
}

func verifyDLEQ(pk, h, gamma Point, p dleqProof) (bool, error) {
	e, err := dleqChallenge(pk, h, gamma, p.A, p.B)
	if err != nil {
		return false, err
	}
	// s*G == A + e*pk
	if !baseMul(p.S).Equal(add(p.A, mul(pk, e))) {
		return false, nil
	}
	// s*H == B + e*gamma
	if !mul(h, p.S).Equal(add(p.B, mul(gamma, e))) {
		return false, nil
	}
	return true, nil
}
