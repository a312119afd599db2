package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// RXE container layout: a 38-byte header, the DSTOC, the default data
// (static then dynamic), the clump records and the codespace.
//
// The header carries "MindstormsNXT\0", two version bytes and eleven
// little-endian UWORD fields. Firmware 1.05 accepts major <= 1, minor >= 4.

var formatString = []byte("MindstormsNXT\x00")

const (
	fileVersionMajor = 0
	fileVersionMinor = 5

	headerSize      = 38
	clumpRecordSize = 4
	memMgrEmpty     = 0xFFFF
)

// ClumpRecord describes one clump to the firmware's scheduler.
type ClumpRecord struct {
	FireCount      byte // 0 = runs at program start
	DependentCount byte
	CodeStart      int // word offset into the codespace
}

// BuildImage assembles the final RXE bytes from the serialized dataspace,
// the clump records and the encoded code words. Identical inputs always
// produce identical bytes.
func BuildImage(layout *Layout, clumps []ClumpRecord, codeWords []int16) ([]byte, *CompileError) {
	dsDynamicSize := len(layout.DynamicDefaults)
	dataspaceSize := layout.StaticSize + dsDynamicSize
	dsDefaultsSize := len(layout.StaticDefaults) + dsDynamicSize

	fields := []struct {
		name  string
		value int
	}{
		{"DataspaceCount", len(layout.TOC) / tocEntrySize},
		{"DataspaceSize", dataspaceSize},
		{"DSStaticSize", layout.StaticSize},
		{"DSDefaultsSize", dsDefaultsSize},
		{"DynDSDefaultsOffset", len(layout.StaticDefaults)},
		{"DynDSDefaultsSize", dsDynamicSize},
		{"MemMgrHead", memMgrEmpty},
		{"MemMgrTail", memMgrEmpty},
		{"DVArrayOffset", layout.StaticSize}, // dope vectors lead the dynamic region
		{"ClumpCount", len(clumps)},
		{"CodespaceCount", len(codeWords)},
	}

	var buf bytes.Buffer
	buf.Write(formatString)
	buf.WriteByte(fileVersionMajor)
	buf.WriteByte(fileVersionMinor)
	for _, f := range fields {
		if f.value < 0 || f.value > 0xFFFF {
			return nil, internalErr(ImageAssemblyError,
				"header field %s is %d, beyond the 16-bit limit", f.name, f.value)
		}
		var word [2]byte
		binary.LittleEndian.PutUint16(word[:], uint16(f.value))
		buf.Write(word[:])
	}

	buf.Write(layout.TOC)
	buf.Write(layout.StaticDefaults)
	buf.Write(layout.DynamicDefaults)

	for i, c := range clumps {
		if c.CodeStart < 0 || c.CodeStart > 0xFFFF {
			return nil, internalErr(ImageAssemblyError,
				"clump %d starts at word %d, beyond the 16-bit limit", i, c.CodeStart)
		}
		var rec [clumpRecordSize]byte
		rec[0] = c.FireCount
		rec[1] = c.DependentCount
		binary.LittleEndian.PutUint16(rec[2:], uint16(c.CodeStart))
		buf.Write(rec[:])
	}

	buf.Write(wordsToBytes(codeWords))
	return buf.Bytes(), nil
}

// Image is a decoded RXE file, used by the dump listing and by tests that
// inspect compiled output.
type Image struct {
	VersionMajor byte
	VersionMinor byte

	DataspaceCount      int
	DataspaceSize       int
	DSStaticSize        int
	DSDefaultsSize      int
	DynDSDefaultsOffset int
	DynDSDefaultsSize   int
	DVArrayOffset       int

	TOC             []TOCEntry
	StaticDefaults  []byte
	DynamicDefaults []byte
	Clumps          []ClumpRecord
	CodeWords       []int16
}

// ParseImage decodes an RXE file produced by BuildImage.
func ParseImage(data []byte) (*Image, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("file is %d bytes, shorter than the %d-byte header", len(data), headerSize)
	}
	if !bytes.Equal(data[:len(formatString)], formatString) {
		return nil, fmt.Errorf("bad format string: not an RXE file")
	}

	u16 := func(off int) int { return int(binary.LittleEndian.Uint16(data[off:])) }
	img := &Image{
		VersionMajor:        data[14],
		VersionMinor:        data[15],
		DataspaceCount:      u16(16),
		DataspaceSize:       u16(18),
		DSStaticSize:        u16(20),
		DSDefaultsSize:      u16(22),
		DynDSDefaultsOffset: u16(24),
		DynDSDefaultsSize:   u16(26),
		DVArrayOffset:       u16(32),
	}
	clumpCount := u16(34)
	codeCount := u16(36)

	if img.DynDSDefaultsSize > img.DSDefaultsSize {
		return nil, fmt.Errorf("dynamic defaults size %d exceeds total defaults size %d",
			img.DynDSDefaultsSize, img.DSDefaultsSize)
	}

	pos := headerSize
	tocLen := img.DataspaceCount * tocEntrySize
	staticLen := img.DSDefaultsSize - img.DynDSDefaultsSize
	need := pos + tocLen + staticLen + img.DynDSDefaultsSize +
		clumpCount*clumpRecordSize + codeCount*2
	if len(data) < need {
		return nil, fmt.Errorf("file is %d bytes, header declares %d", len(data), need)
	}

	toc, cerr := DecodeTOC(data[pos : pos+tocLen])
	if cerr != nil {
		return nil, cerr
	}
	img.TOC = toc
	pos += tocLen

	img.StaticDefaults = data[pos : pos+staticLen]
	pos += staticLen
	img.DynamicDefaults = data[pos : pos+img.DynDSDefaultsSize]
	pos += img.DynDSDefaultsSize

	for i := 0; i < clumpCount; i++ {
		img.Clumps = append(img.Clumps, ClumpRecord{
			FireCount:      data[pos],
			DependentCount: data[pos+1],
			CodeStart:      int(binary.LittleEndian.Uint16(data[pos+2:])),
		})
		pos += clumpRecordSize
	}

	for i := 0; i < codeCount; i++ {
		img.CodeWords = append(img.CodeWords, int16(binary.LittleEndian.Uint16(data[pos:])))
		pos += 2
	}
	return img, nil
}
