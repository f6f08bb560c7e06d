package core

import (
	"bytes"
	"encoding/gob"

	"github.com/takakv/vole-zkp/field"
	"github.com/takakv/vole-zkp/quicksilver"
	"github.com/zeebo/blake3"
)

// MarshalBinary encodes the proof with encoding/gob. Every field of
// Proof is a concrete struct or slice of concrete structs (no
// interfaces), so gob needs no registered types.
func (p Proof) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a proof previously produced by MarshalBinary.
func (p *Proof) UnmarshalBinary(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(p)
}

// CanonicalBytes returns a deterministic byte encoding of every field
// element the proof carries, in struct-declaration order, suitable for
// hashing (e.g. to derive a proof identifier). Unlike MarshalBinary
// this is not meant to round-trip; it exists only for content-addressing.
func (p Proof) CanonicalBytes() []byte {
	var out []byte
	out = append(out, p.SeedComm[:]...)
	out = append(out, encodeElements(quicksilver.Flatten(p.WitnessComm))...)
	out = append(out, encodeElements(quicksilver.Flatten(p.Correction))...)
	out = append(out, encodeElements(p.Consistency.UHash)...)
	out = append(out, encodeElements(p.Consistency.VHash)...)
	out = append(out, encodeElements([]field.Element{p.ZKP.A, p.ZKP.B})...)
	for _, so := range p.SeedOpenings {
		out = append(out, so.Seed[:]...)
		out = append(out, so.Sibling[:]...)
	}
	for _, po := range p.PublicOpenings {
		out = append(out, encodeElements([]field.Element{po.Value, po.Mac})...)
	}
	out = append(out, encodeElements(quicksilver.Flatten(p.SMatrix))...)
	out = append(out, encodeElements(p.SConsistencyCheck)...)
	return out
}

// Digest returns the BLAKE3 hash of CanonicalBytes, a stable identifier
// for a proof independent of its gob framing.
func (p Proof) Digest() [32]byte {
	return blake3.Sum256(p.CanonicalBytes())
}
