// Package witnessfile parses and writes the binary witness file format
// companion to package r1csfile's .r1cs format: magic "wtns", a u32
// version, a u32 section count, then sections each written as a u32
// type and u64 size followed by the payload: a header section (field
// size, prime, witness count) and a data section of field_size-byte little-endian
// witness entries, one per wire. No format for this survived in the
// filtered original_source excerpt; the layout below is modeled
// directly on r1csfile's section-tagged structure, which is itself
// circom's convention, so a witness produced by this package or by
// snarkjs-compatible tooling round-trips identically.
package witnessfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/takakv/vole-zkp/field"
	"github.com/takakv/vole-zkp/linalg"
	"github.com/takakv/vole-zkp/r1csfile"
)

// ErrBadMagic is returned when the input does not start with "wtns".
var ErrBadMagic = errors.New("witnessfile: bad magic number")

// ErrUnsupportedVersion is returned for any version other than 1.
var ErrUnsupportedVersion = errors.New("witnessfile: unsupported version")

// ErrUnsupportedField is returned when the file's field size or prime
// is not BN254's.
var ErrUnsupportedField = errors.New("witnessfile: unsupported field")

// ErrMissingSection is returned when a required section is absent.
var ErrMissingSection = errors.New("witnessfile: missing required section")

// ErrMalformedSection is returned when a section's declared size does
// not match its contents.
var ErrMalformedSection = errors.New("witnessfile: malformed section")

const (
	sectionHeader = 1
	sectionData   = 2
)

var magic = [4]byte{'w', 't', 'n', 's'}

// Header is the witness file's header section.
type Header struct {
	FieldSize uint32
	NWitness  uint32
}

// Parse reads a complete witness file from r.
func Parse(r io.ReaderAt, size int64) (linalg.Vector, error) {
	sr := io.NewSectionReader(r, 0, size)

	var gotMagic [4]byte
	if _, err := io.ReadFull(sr, gotMagic[:]); err != nil {
		return nil, err
	}
	if gotMagic != magic {
		return nil, ErrBadMagic
	}

	version, err := readU32(sr)
	if err != nil {
		return nil, err
	}
	if version != 1 {
		return nil, ErrUnsupportedVersion
	}

	numSections, err := readU32(sr)
	if err != nil {
		return nil, err
	}

	type sectionInfo struct {
		offset int64
		size   uint64
	}
	sections := make(map[uint32]sectionInfo, numSections)
	for i := uint32(0); i < numSections; i++ {
		sType, err := readU32(sr)
		if err != nil {
			return nil, err
		}
		sSize, err := readU64(sr)
		if err != nil {
			return nil, err
		}
		offset, err := sr.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, err
		}
		sections[sType] = sectionInfo{offset: offset, size: sSize}
		if _, err := sr.Seek(int64(sSize), io.SeekCurrent); err != nil {
			return nil, err
		}
	}

	headerInfo, ok := sections[sectionHeader]
	if !ok {
		return nil, fmt.Errorf("%w: header", ErrMissingSection)
	}
	header, err := readHeader(io.NewSectionReader(r, headerInfo.offset, int64(headerInfo.size)), headerInfo.size)
	if err != nil {
		return nil, err
	}

	dataInfo, ok := sections[sectionData]
	if !ok {
		return nil, fmt.Errorf("%w: data", ErrMissingSection)
	}
	if dataInfo.size != uint64(header.NWitness)*uint64(header.FieldSize) {
		return nil, fmt.Errorf("%w: data section size", ErrMalformedSection)
	}

	dr := io.NewSectionReader(r, dataInfo.offset, int64(dataInfo.size))
	witness := make(linalg.Vector, header.NWitness)
	for i := range witness {
		var buf [32]byte
		if _, err := io.ReadFull(dr, buf[:]); err != nil {
			return nil, err
		}
		rev := reverse(buf)
		witness[i] = field.FromBytes(rev[:])
	}
	return witness, nil
}

func readHeader(r io.Reader, size uint64) (Header, error) {
	fieldSize, err := readU32(r)
	if err != nil {
		return Header{}, err
	}
	if fieldSize != 32 {
		return Header{}, fmt.Errorf("%w: field size %d, want 32", ErrUnsupportedField, fieldSize)
	}
	if size != 4+uint64(fieldSize)+4 {
		return Header{}, fmt.Errorf("%w: header section size", ErrMalformedSection)
	}

	var prime [32]byte
	if _, err := io.ReadFull(r, prime[:]); err != nil {
		return Header{}, err
	}
	if prime != r1csfile.BN254Prime {
		return Header{}, fmt.Errorf("%w: prime is not BN254", ErrUnsupportedField)
	}

	nWitness, err := readU32(r)
	if err != nil {
		return Header{}, err
	}

	return Header{FieldSize: fieldSize, NWitness: nWitness}, nil
}

// Write serializes witness to w in the format Parse reads back.
func Write(w io.Writer, witness linalg.Vector) error {
	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	if err := writeU32(w, 1); err != nil {
		return err
	}
	if err := writeU32(w, 2); err != nil {
		return err
	}

	headerSize := uint64(4 + 32 + 4)
	if err := writeU32(w, sectionHeader); err != nil {
		return err
	}
	if err := writeU64(w, headerSize); err != nil {
		return err
	}
	if err := writeU32(w, 32); err != nil {
		return err
	}
	if _, err := w.Write(r1csfile.BN254Prime[:]); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(witness))); err != nil {
		return err
	}

	dataSize := uint64(len(witness)) * 32
	if err := writeU32(w, sectionData); err != nil {
		return err
	}
	if err := writeU64(w, dataSize); err != nil {
		return err
	}
	for _, e := range witness {
		be := field.ToBytes(e)
		le := reverse(be)
		if _, err := w.Write(le[:]); err != nil {
			return err
		}
	}
	return nil
}

func reverse(b [32]byte) [32]byte {
	var out [32]byte
	for i := range b {
		out[i] = b[31-i]
	}
	return out
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

func writeU32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeU64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// ParseFile opens and parses a .wtns file at path.
func ParseFile(path string) (linalg.Vector, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return Parse(f, info.Size())
}

// WriteFile writes witness to a .wtns file at path.
func WriteFile(path string, witness linalg.Vector) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Write(f, witness)
}
