package main

import "encoding/binary"

// Dataspace builds the DSTOC (dataspace table of contents) and the initial
// value layout of the target's flat dataspace.
//
// DSTOC entry format (4 bytes):
//   - TypeCode (1 byte)
//   - Flags (1 byte): bit 0 = written to by code
//   - DataDescriptor (2 bytes, little-endian):
//     scalars: byte offset into the dataspace
//     arrays:  dope vector index
//     clusters: number of members that follow
//
// Dope vectors (10 bytes: offset, elemSize, count, backPtr, link) and array
// contents live in the dynamic default region after the static region.
type Dataspace struct {
	Entries []TOCEntry
	offset  int // next free byte offset in the static region
	dopes   []dopeVector
}

// TOCEntry is one DSTOC entry plus the initial value it describes.
// Name is compiler-internal (dump listings, tests); it is not serialized.
type TOCEntry struct {
	TypeCode byte
	Flags    byte
	DataDesc int
	Name     string
	Default  int64
}

type dopeVector struct {
	data []byte // element bytes, NUL included for strings
}

const (
	tocEntrySize   = 4
	dopeVectorSize = 10
)

// entryFlagWritten marks slots the generated code stores into.
const entryFlagWritten = 0x01

func NewDataspace() *Dataspace {
	return &Dataspace{}
}

func (ds *Dataspace) Count() int { return len(ds.Entries) }

// AddScalar appends a scalar slot and returns its DSTOC index. The byte
// offset is aligned to the type's own size.
func (ds *Dataspace) AddScalar(typeCode byte, name string, def int64, flags byte) int {
	size := typeSizes[typeCode]
	ds.align(size)
	idx := len(ds.Entries)
	ds.Entries = append(ds.Entries, TOCEntry{
		TypeCode: typeCode,
		Flags:    flags,
		DataDesc: ds.offset,
		Name:     name,
		Default:  def,
	})
	ds.offset += size
	return idx
}

// AddConstant appends a read-only scalar.
func (ds *Dataspace) AddConstant(typeCode byte, name string, value int64) int {
	return ds.AddScalar(typeCode, name, value, 0)
}

// AddString appends a string slot: a TC_ARRAY entry whose descriptor is a
// dope vector index, immediately followed by its TC_UBYTE element entry.
// The bytes (NUL-terminated) go into the dynamic default region.
func (ds *Dataspace) AddString(value, name string) int {
	idx := len(ds.Entries)
	ds.Entries = append(ds.Entries, TOCEntry{
		TypeCode: TC_ARRAY,
		DataDesc: len(ds.dopes),
		Name:     name,
	})
	ds.Entries = append(ds.Entries, TOCEntry{
		TypeCode: TC_UBYTE,
		Name:     name + "[]",
	})
	ds.dopes = append(ds.dopes, dopeVector{data: append([]byte(value), 0)})
	return idx
}

// AddCluster appends a cluster (struct) slot: a TC_CLUSTER header whose
// descriptor is the member count, followed by one scalar entry per member.
// Returns the cluster index and the member indices.
func (ds *Dataspace) AddCluster(memberTypes []byte, name string, defaults []int64) (int, []int) {
	idx := len(ds.Entries)
	ds.Entries = append(ds.Entries, TOCEntry{
		TypeCode: TC_CLUSTER,
		DataDesc: len(memberTypes),
		Name:     name,
	})
	members := make([]int, len(memberTypes))
	for i, tc := range memberTypes {
		var def int64
		if i < len(defaults) {
			def = defaults[i]
		}
		members[i] = ds.AddScalar(tc, clusterMemberName(name, i), def, 0)
	}
	return idx, members
}

// AddClusterWithStrings is AddCluster for syscall parameter blocks that carry
// string members: TC_ARRAY member types become string slots with the default
// taken from stringDefaults.
func (ds *Dataspace) AddClusterWithStrings(memberTypes []byte, stringDefaults map[int]string, name string) (int, []int) {
	idx := len(ds.Entries)
	ds.Entries = append(ds.Entries, TOCEntry{
		TypeCode: TC_CLUSTER,
		DataDesc: len(memberTypes),
		Name:     name,
	})
	members := make([]int, len(memberTypes))
	for i, tc := range memberTypes {
		if tc == TC_ARRAY {
			members[i] = ds.AddString(stringDefaults[i], clusterMemberName(name, i))
		} else {
			members[i] = ds.AddScalar(tc, clusterMemberName(name, i), 0, 0)
		}
	}
	return idx, members
}

func clusterMemberName(name string, i int) string {
	return name + "." + string(rune('0'+i))
}

func (ds *Dataspace) align(alignment int) {
	if rem := ds.offset % alignment; rem != 0 {
		ds.offset += alignment - rem
	}
}

// Layout is the serialized dataspace: the DSTOC bytes, the static and
// dynamic default regions, and the sizes the image header records.
type Layout struct {
	TOC             []byte
	StaticDefaults  []byte
	DynamicDefaults []byte
	StaticSize      int
}

// Serialize lays out the dataspace. The static region is 4-byte aligned at
// the end; dope vectors come first in the dynamic region, each array's bytes
// follow.
func (ds *Dataspace) Serialize() (*Layout, *CompileError) {
	staticSize := ds.offset
	if rem := staticSize % 4; rem != 0 {
		staticSize += 4 - rem
	}

	static := make([]byte, staticSize)
	for i := 0; i < len(ds.Entries); i++ {
		e := ds.Entries[i]
		if e.TypeCode == TC_ARRAY {
			i++ // the next entry describes the element type, not a slot
			continue
		}
		size, scalar := typeSizes[e.TypeCode]
		if !scalar {
			continue
		}
		if e.DataDesc+size > staticSize {
			return nil, internalErr(ImageAssemblyError,
				"dataspace: slot %q offset %d exceeds static region of %d bytes", e.Name, e.DataDesc, staticSize)
		}
		putScalar(static[e.DataDesc:], size, e.Default)
	}

	// Dynamic region: all dope vectors first, then each array's contents.
	dynamic := make([]byte, len(ds.dopes)*dopeVectorSize)
	for i, dv := range ds.dopes {
		dataOffset := staticSize + len(dynamic)
		if dataOffset+len(dv.data) > 0xFFFF {
			return nil, internalErr(ImageAssemblyError,
				"dataspace: array data at offset %d exceeds the 16-bit dataspace", dataOffset)
		}
		field := dynamic[i*dopeVectorSize:]
		binary.LittleEndian.PutUint16(field[0:], uint16(dataOffset))
		binary.LittleEndian.PutUint16(field[2:], 1) // element size
		binary.LittleEndian.PutUint16(field[4:], uint16(len(dv.data)))
		binary.LittleEndian.PutUint16(field[6:], 0)      // back pointer
		binary.LittleEndian.PutUint16(field[8:], 0xFFFF) // link: none
		dynamic = append(dynamic, dv.data...)
	}

	toc := make([]byte, 0, len(ds.Entries)*4)
	for _, e := range ds.Entries {
		if e.DataDesc > 0xFFFF {
			return nil, internalErr(ImageAssemblyError,
				"dataspace: slot %q descriptor %d exceeds 16 bits", e.Name, e.DataDesc)
		}
		toc = append(toc, e.TypeCode, e.Flags, byte(e.DataDesc), byte(e.DataDesc>>8))
	}

	return &Layout{
		TOC:             toc,
		StaticDefaults:  static,
		DynamicDefaults: dynamic,
		StaticSize:      staticSize,
	}, nil
}

func putScalar(buf []byte, size int, val int64) {
	switch size {
	case 1:
		buf[0] = byte(val)
	case 2:
		binary.LittleEndian.PutUint16(buf, uint16(val))
	case 4:
		binary.LittleEndian.PutUint32(buf, uint32(val))
	}
}

// DecodeTOC parses serialized DSTOC bytes back into entries (names and
// defaults are not serialized, so only type, flags and descriptor survive).
func DecodeTOC(toc []byte) ([]TOCEntry, *CompileError) {
	if len(toc)%4 != 0 {
		return nil, internalErr(ImageAssemblyError, "TOC length %d is not a multiple of 4", len(toc))
	}
	entries := make([]TOCEntry, 0, len(toc)/4)
	for i := 0; i < len(toc); i += 4 {
		entries = append(entries, TOCEntry{
			TypeCode: toc[i],
			Flags:    toc[i+1],
			DataDesc: int(binary.LittleEndian.Uint16(toc[i+2:])),
		})
	}
	return entries, nil
}

// ReplaySlots reads each scalar slot's initial value back out of the default
// regions using only the TOC, reconstructing the slot→value mapping the
// compiler started from. Sign extension follows the slot's type code.
func ReplaySlots(entries []TOCEntry, static, dynamic []byte) map[int]int64 {
	buf := make([]byte, 0, len(static)+len(dynamic))
	buf = append(buf, static...)
	buf = append(buf, dynamic...)

	values := make(map[int]int64)
	for i := 0; i < len(entries); i++ {
		e := entries[i]
		if e.TypeCode == TC_ARRAY {
			i++ // the next entry describes the element type, not a slot
			continue
		}
		size, ok := typeSizes[e.TypeCode]
		if !ok || e.DataDesc+size > len(buf) {
			continue
		}
		var raw uint64
		switch size {
		case 1:
			raw = uint64(buf[e.DataDesc])
		case 2:
			raw = uint64(binary.LittleEndian.Uint16(buf[e.DataDesc:]))
		case 4:
			raw = uint64(binary.LittleEndian.Uint32(buf[e.DataDesc:]))
		}
		switch e.TypeCode {
		case TC_SBYTE:
			values[i] = int64(int8(raw))
		case TC_SWORD:
			values[i] = int64(int16(raw))
		case TC_SLONG:
			values[i] = int64(int32(raw))
		default:
			values[i] = int64(raw)
		}
	}
	return values
}
