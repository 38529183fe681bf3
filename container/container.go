/*
Copyright 2011-2026 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package container encodes and decodes the self-describing file format:
// a header carrying one descriptor per chunk, laid out either before the
// compressed data (header-first, legacy) or after it with a trailing
// footer pointer (footer-last, preferred). All multi-byte integers are
// big-endian, matching the DataOutput convention.
package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/corvidae/dczf/huffman"
	"github.com/corvidae/dczf/integrity"
)

// Magic identifies a dczf container: the ASCII bytes "DCZF".
const Magic uint32 = 0x44435A46

// Version is the only header version this implementation understands.
const Version uint32 = 1

// FooterPointerSize is the width of the trailing absolute header offset
// in the footer-last layout.
const FooterPointerSize = 8

// Descriptor is one chunk's metadata, as stored in the header and as
// produced by the pipeline for each chunk it finishes encoding.
type Descriptor struct {
	Index            uint32
	OriginalOffset   uint64
	OriginalSize     uint32
	CompressedOffset uint64
	CompressedSize   uint32
	SHA256           integrity.Digest
	CodeLengths      [huffman.AlphabetSize]uint16
}

// Header is the full set of container-level metadata.
type Header struct {
	FileName    string
	OriginalSize uint64
	TimestampMs  uint64
	ChunkSize    uint32
	GlobalSHA256 integrity.Digest
	Descriptors  []Descriptor
}

// Layout distinguishes where the header sits relative to the compressed
// chunk data.
type Layout int

const (
	// HeaderFirst is the legacy layout: header, then chunk data.
	HeaderFirst Layout = iota
	// FooterLast is the preferred layout: chunk data, then header, then
	// an 8-byte big-endian absolute pointer to the header's start.
	FooterLast
)

// nameLengthPrefixSize is the width of the UTF-8 file name's length
// prefix. Fixed here at 32 bits so the header never needs a second size
// class for what is otherwise an all-u32/u64 layout.
const nameLengthPrefixSize = 4

// WriteHeader serialises h in field order: name, sizes,
// timestamp, chunk size, global digest, chunk count, then descriptors.
func WriteHeader(w io.Writer, h *Header) error {
	nameBytes := []byte(h.FileName)

	if err := binary.Write(w, binary.BigEndian, uint32(len(nameBytes))); err != nil {
		return err
	}

	if _, err := w.Write(nameBytes); err != nil {
		return err
	}

	if err := binary.Write(w, binary.BigEndian, h.OriginalSize); err != nil {
		return err
	}

	if err := binary.Write(w, binary.BigEndian, h.TimestampMs); err != nil {
		return err
	}

	if err := binary.Write(w, binary.BigEndian, h.ChunkSize); err != nil {
		return err
	}

	if _, err := w.Write(h.GlobalSHA256[:]); err != nil {
		return err
	}

	if err := binary.Write(w, binary.BigEndian, uint32(len(h.Descriptors))); err != nil {
		return err
	}

	for i := range h.Descriptors {
		if err := writeDescriptor(w, &h.Descriptors[i]); err != nil {
			return fmt.Errorf("container: writing descriptor %d: %w", i, err)
		}
	}

	return nil
}

func writeDescriptor(w io.Writer, d *Descriptor) error {
	fields := []any{
		d.Index,
		d.OriginalOffset,
		d.OriginalSize,
		d.CompressedOffset,
		d.CompressedSize,
	}

	for _, f := range fields {
		if err := binary.Write(w, binary.BigEndian, f); err != nil {
			return err
		}
	}

	if _, err := w.Write(d.SHA256[:]); err != nil {
		return err
	}

	return binary.Write(w, binary.BigEndian, d.CodeLengths)
}

// ReadHeader deserialises a Header written by WriteHeader.
func ReadHeader(r io.Reader) (*Header, error) {
	var nameLen uint32

	if err := binary.Read(r, binary.BigEndian, &nameLen); err != nil {
		return nil, fmt.Errorf("container: reading name length: %w", err)
	}

	name := make([]byte, nameLen)

	if _, err := io.ReadFull(r, name); err != nil {
		return nil, fmt.Errorf("container: reading name: %w", err)
	}

	h := &Header{FileName: string(name)}

	if err := binary.Read(r, binary.BigEndian, &h.OriginalSize); err != nil {
		return nil, err
	}

	if err := binary.Read(r, binary.BigEndian, &h.TimestampMs); err != nil {
		return nil, err
	}

	if err := binary.Read(r, binary.BigEndian, &h.ChunkSize); err != nil {
		return nil, err
	}

	if _, err := io.ReadFull(r, h.GlobalSHA256[:]); err != nil {
		return nil, err
	}

	var chunkCount uint32

	if err := binary.Read(r, binary.BigEndian, &chunkCount); err != nil {
		return nil, err
	}

	h.Descriptors = make([]Descriptor, chunkCount)

	for i := range h.Descriptors {
		d, err := readDescriptor(r)

		if err != nil {
			return nil, fmt.Errorf("container: reading descriptor %d: %w", i, err)
		}

		h.Descriptors[i] = *d
	}

	return h, nil
}

func readDescriptor(r io.Reader) (*Descriptor, error) {
	d := &Descriptor{}

	for _, f := range []any{&d.Index, &d.OriginalOffset, &d.OriginalSize, &d.CompressedOffset, &d.CompressedSize} {
		if err := binary.Read(r, binary.BigEndian, f); err != nil {
			return nil, err
		}
	}

	if _, err := io.ReadFull(r, d.SHA256[:]); err != nil {
		return nil, err
	}

	if err := binary.Read(r, binary.BigEndian, &d.CodeLengths); err != nil {
		return nil, err
	}

	return d, nil
}

// EncodeHeaderFirst writes magic, version, then the header, returning the
// byte offset at which compressed chunk data must begin.
func EncodeHeaderFirst(w io.Writer, h *Header) (int64, error) {
	var buf bytes.Buffer

	if err := binary.Write(&buf, binary.BigEndian, Magic); err != nil {
		return 0, err
	}

	if err := binary.Write(&buf, binary.BigEndian, Version); err != nil {
		return 0, err
	}

	if err := WriteHeader(&buf, h); err != nil {
		return 0, err
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// EncodeFooterLast writes the header followed by the 8-byte big-endian
// footer pointer, given headerOffset (the absolute byte offset, within
// the file being produced, at which this call's first byte will land).
func EncodeFooterLast(w io.Writer, h *Header, headerOffset int64) error {
	if err := WriteHeader(w, h); err != nil {
		return err
	}

	return binary.Write(w, binary.BigEndian, uint64(headerOffset))
}

// DecodeHeaderFirst reads magic, version, and the header from the start
// of r. It returns nil, nil if the magic does not match, signalling the
// caller should fall back to the footer-last decision path.
func DecodeHeaderFirst(r io.Reader) (*Header, error) {
	var magic, version uint32

	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, err
	}

	if magic != Magic {
		return nil, nil
	}

	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, err
	}

	if version != Version {
		return nil, fmt.Errorf("container: unsupported version %d", version)
	}

	return ReadHeader(r)
}

// ReadFooterPointer decodes the trailing 8-byte big-endian absolute
// header offset from footer, the last FooterPointerSize bytes of a
// footer-last container.
func ReadFooterPointer(footer []byte) (int64, error) {
	if len(footer) != FooterPointerSize {
		return 0, fmt.Errorf("container: footer pointer must be %d bytes, got %d", FooterPointerSize, len(footer))
	}

	return int64(binary.BigEndian.Uint64(footer)), nil
}
