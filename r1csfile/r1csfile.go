// Package r1csfile parses the circom/snarkjs binary .r1cs format into
// an r1cs.WithMetadata instance. After the magic, version and section
// count, each section is a u32 type and a u64 size followed by its
// payload; the header, constraints and wire-to-label map sections are
// required. All integers are little-endian.
package r1csfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/takakv/vole-zkp/field"
	"github.com/takakv/vole-zkp/linalg"
	"github.com/takakv/vole-zkp/r1cs"
)

// ErrBadMagic is returned when the input does not start with "r1cs".
var ErrBadMagic = errors.New("r1csfile: bad magic number")

// ErrUnsupportedVersion is returned for any version other than 1.
var ErrUnsupportedVersion = errors.New("r1csfile: unsupported version")

// ErrUnsupportedField is returned when the file's field size or prime
// is not BN254's, the only field this module supports.
var ErrUnsupportedField = errors.New("r1csfile: unsupported field")

// ErrMissingSection is returned when a required section is absent.
var ErrMissingSection = errors.New("r1csfile: missing required section")

// ErrMalformedSection is returned when a section's declared size does
// not match its contents.
var ErrMalformedSection = errors.New("r1csfile: malformed section")

const (
	sectionHeader      = 1
	sectionConstraints = 2
	sectionWire2Label  = 3
)

var magic = [4]byte{'r', '1', 'c', 's'}

// BN254Prime is the BN254 scalar field modulus, little-endian, 32
// bytes: the only prime_size this parser accepts. Exported so callers
// building .r1cs files (tests, tooling) can fill the header correctly.
var BN254Prime = [32]byte{
	0x01, 0x00, 0x00, 0xf0, 0x93, 0xf5, 0xe1, 0x43,
	0x91, 0x70, 0xb9, 0x79, 0x48, 0xe8, 0x33, 0x28,
	0x5d, 0x58, 0x81, 0x81, 0xb6, 0x45, 0x50, 0xb8,
	0x29, 0xa0, 0x31, 0xe1, 0x72, 0x4e, 0x64, 0x30,
}

// Header is the file's fixed-layout header section.
type Header struct {
	FieldSize    uint32
	NWires       uint32
	NPubOut      uint32
	NPubIn       uint32
	NPrvIn       uint32
	NLabels      uint64
	NConstraints uint32
}

// File is a fully parsed .r1cs file: header, the R1CS it describes, and
// the wire-to-label map.
type File struct {
	Version     uint32
	Header      Header
	System      r1cs.WithMetadata
	WireMapping []uint64
}

type sectionInfo struct {
	offset int64
	size   uint64
}

// Parse reads a complete circom-format .r1cs file from r.
func Parse(r io.ReaderAt, size int64) (File, error) {
	sr := io.NewSectionReader(r, 0, size)

	var gotMagic [4]byte
	if _, err := io.ReadFull(sr, gotMagic[:]); err != nil {
		return File{}, err
	}
	if gotMagic != magic {
		return File{}, ErrBadMagic
	}

	version, err := readU32(sr)
	if err != nil {
		return File{}, err
	}
	if version != 1 {
		return File{}, ErrUnsupportedVersion
	}

	numSections, err := readU32(sr)
	if err != nil {
		return File{}, err
	}

	sections := make(map[uint32]sectionInfo, numSections)
	for i := uint32(0); i < numSections; i++ {
		sType, err := readU32(sr)
		if err != nil {
			return File{}, err
		}
		sSize, err := readU64(sr)
		if err != nil {
			return File{}, err
		}
		offset, err := sr.Seek(0, io.SeekCurrent)
		if err != nil {
			return File{}, err
		}
		sections[sType] = sectionInfo{offset: offset, size: sSize}
		if _, err := sr.Seek(int64(sSize), io.SeekCurrent); err != nil {
			return File{}, err
		}
	}

	headerInfo, ok := sections[sectionHeader]
	if !ok {
		return File{}, fmt.Errorf("%w: header", ErrMissingSection)
	}
	header, err := readHeader(io.NewSectionReader(r, headerInfo.offset, int64(headerInfo.size)), headerInfo.size)
	if err != nil {
		return File{}, err
	}

	constraintsInfo, ok := sections[sectionConstraints]
	if !ok {
		return File{}, fmt.Errorf("%w: constraints", ErrMissingSection)
	}
	system, err := readConstraints(io.NewSectionReader(r, constraintsInfo.offset, int64(constraintsInfo.size)), header)
	if err != nil {
		return File{}, err
	}

	mapInfo, ok := sections[sectionWire2Label]
	if !ok {
		return File{}, fmt.Errorf("%w: wire2label", ErrMissingSection)
	}
	wireMapping, err := readWireMap(io.NewSectionReader(r, mapInfo.offset, int64(mapInfo.size)), mapInfo.size, header)
	if err != nil {
		return File{}, err
	}

	meta := r1cs.WithMetadata{
		System:           system,
		NumPublicOutputs: int(header.NPubOut),
		NumPublicInputs:  int(header.NPubIn),
		NumPrivateInputs: int(header.NPrvIn),
		NumLabels:        header.NLabels,
	}
	if err := meta.Validate(); err != nil {
		return File{}, err
	}
	if 1+meta.NumPublicOutputs+meta.NumPublicInputs > meta.NumWires {
		return File{}, fmt.Errorf("%w: public wire ranges exceed wire count", ErrMalformedSection)
	}

	return File{
		Version:     version,
		Header:      header,
		System:      meta,
		WireMapping: wireMapping,
	}, nil
}

func readHeader(r io.Reader, size uint64) (Header, error) {
	fieldSize, err := readU32(r)
	if err != nil {
		return Header{}, err
	}
	if fieldSize != 32 {
		return Header{}, fmt.Errorf("%w: field size %d, want 32", ErrUnsupportedField, fieldSize)
	}
	if size != 32+uint64(fieldSize) {
		return Header{}, fmt.Errorf("%w: header section size", ErrMalformedSection)
	}

	var prime [32]byte
	if _, err := io.ReadFull(r, prime[:]); err != nil {
		return Header{}, err
	}
	if prime != BN254Prime {
		return Header{}, fmt.Errorf("%w: prime is not BN254", ErrUnsupportedField)
	}

	nWires, err := readU32(r)
	if err != nil {
		return Header{}, err
	}
	nPubOut, err := readU32(r)
	if err != nil {
		return Header{}, err
	}
	nPubIn, err := readU32(r)
	if err != nil {
		return Header{}, err
	}
	nPrvIn, err := readU32(r)
	if err != nil {
		return Header{}, err
	}
	nLabels, err := readU64(r)
	if err != nil {
		return Header{}, err
	}
	nConstraints, err := readU32(r)
	if err != nil {
		return Header{}, err
	}

	return Header{
		FieldSize:    fieldSize,
		NWires:       nWires,
		NPubOut:      nPubOut,
		NPubIn:       nPubIn,
		NPrvIn:       nPrvIn,
		NLabels:      nLabels,
		NConstraints: nConstraints,
	}, nil
}

func readConstraintVec(r io.Reader, width int) (linalg.SparseVector, error) {
	numPairs, err := readU32(r)
	if err != nil {
		return nil, err
	}
	row := make(linalg.SparseVector, numPairs)
	for i := range row {
		wireIdx, err := readU32(r)
		if err != nil {
			return nil, err
		}
		var coeffBytes [32]byte
		if _, err := io.ReadFull(r, coeffBytes[:]); err != nil {
			return nil, err
		}
		if int(wireIdx) >= width {
			return nil, fmt.Errorf("%w: wire index %d out of range", ErrMalformedSection, wireIdx)
		}
		reversed := reverseBytes(coeffBytes)
		row[i] = linalg.SparseEntry{Index: int(wireIdx), Value: field.FromBytes(reversed[:])}
	}
	return row, nil
}

func reverseBytes(b [32]byte) [32]byte {
	var out [32]byte
	for i := range b {
		out[i] = b[31-i]
	}
	return out
}

func readConstraints(r io.Reader, header Header) (r1cs.System, error) {
	width := int(header.NWires)
	aRows := make([]linalg.SparseVector, header.NConstraints)
	bRows := make([]linalg.SparseVector, header.NConstraints)
	cRows := make([]linalg.SparseVector, header.NConstraints)

	for i := 0; i < int(header.NConstraints); i++ {
		a, err := readConstraintVec(r, width)
		if err != nil {
			return r1cs.System{}, err
		}
		b, err := readConstraintVec(r, width)
		if err != nil {
			return r1cs.System{}, err
		}
		c, err := readConstraintVec(r, width)
		if err != nil {
			return r1cs.System{}, err
		}
		aRows[i], bRows[i], cRows[i] = a, b, c
	}

	return r1cs.System{
		A:        linalg.SparseMatrix{Width: width, Rows: aRows},
		B:        linalg.SparseMatrix{Width: width, Rows: bRows},
		C:        linalg.SparseMatrix{Width: width, Rows: cRows},
		NumWires: width,
	}, nil
}

func readWireMap(r io.Reader, size uint64, header Header) ([]uint64, error) {
	if size != uint64(header.NWires)*8 {
		return nil, fmt.Errorf("%w: wire2label section size", ErrMalformedSection)
	}
	mapping := make([]uint64, header.NWires)
	for i := range mapping {
		v, err := readU64(r)
		if err != nil {
			return nil, err
		}
		mapping[i] = v
	}
	if len(mapping) > 0 && mapping[0] != 0 {
		return nil, fmt.Errorf("%w: wire 0 must map to label 0", ErrMalformedSection)
	}
	return mapping, nil
}

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readU64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// ParseFile opens and parses a .r1cs file at path.
func ParseFile(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return File{}, err
	}
	return Parse(f, info.Size())
}
