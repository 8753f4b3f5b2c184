package extractortest

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"
)

const (
	sectorSize   = 512
	dirEntrySize = 128

	// Streams below this size live in the mini stream, which Compound does not write.
	miniStreamCutoff = 4096

	fatSect    = 0xFFFFFFFD
	endOfChain = 0xFFFFFFFE
	freeSect   = 0xFFFFFFFF
	noStream   = 0xFFFFFFFF

	wordTextOffset = 0x800
)

// Stream is one entry of a compound file. Size overrides the size recorded in the
// directory when non-zero, which lets tests declare more bytes than are stored.
type Stream struct {
	Name string
	Data []byte
	Size uint32
}

// Compound returns a version 3 OLE2 compound file holding the given streams in the
// root storage. Every stream is padded to at least 4096 bytes so it is stored in
// regular sectors. At most three streams are supported.
func Compound(streams ...Stream) []byte {
	if len(streams) > sectorSize/dirEntrySize-1 {
		panic("extractortest: too many streams for one directory sector")
	}

	// Sector 0 holds the FAT, sector 1 the directory, streams follow.
	starts := make([]uint32, len(streams))
	next := uint32(2)
	var payload []byte
	for i := range streams {
		data := streams[i].Data
		if len(data) < miniStreamCutoff {
			data = append(data, make([]byte, miniStreamCutoff-len(data))...)
		}
		if rem := len(data) % sectorSize; rem != 0 {
			data = append(data, make([]byte, sectorSize-rem)...)
		}
		streams[i].Data = data
		starts[i] = next
		next += uint32(len(data) / sectorSize)
		payload = append(payload, data...)
	}
	if next > sectorSize/4 {
		panic("extractortest: streams do not fit in one FAT sector")
	}

	fat := make([]byte, sectorSize)
	for i := 0; i < sectorSize/4; i++ {
		binary.LittleEndian.PutUint32(fat[i*4:], freeSect)
	}
	binary.LittleEndian.PutUint32(fat[0:], fatSect)
	binary.LittleEndian.PutUint32(fat[4:], endOfChain)
	for i, s := range streams {
		count := uint32(len(s.Data) / sectorSize)
		for j := uint32(0); j < count; j++ {
			sector := starts[i] + j
			link := uint32(endOfChain)
			if j+1 < count {
				link = sector + 1
			}
			binary.LittleEndian.PutUint32(fat[sector*4:], link)
		}
	}

	dir := make([]byte, sectorSize)
	child := uint32(noStream)
	if len(streams) > 0 {
		child = 1
	}
	writeDirEntry(dir[0:], "Root Entry", 5, noStream, child, endOfChain, 0)
	for i, s := range streams {
		right := uint32(noStream)
		if i+1 < len(streams) {
			right = uint32(i + 2)
		}
		size := s.Size
		if size == 0 {
			size = uint32(len(s.Data))
		}
		writeDirEntry(dir[(i+1)*dirEntrySize:], s.Name, 2, right, noStream, starts[i], size)
	}

	header := make([]byte, sectorSize)
	copy(header, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	binary.LittleEndian.PutUint16(header[24:], 0x003E)
	binary.LittleEndian.PutUint16(header[26:], 0x0003)
	binary.LittleEndian.PutUint16(header[28:], 0xFFFE)
	binary.LittleEndian.PutUint16(header[30:], 9)
	binary.LittleEndian.PutUint16(header[32:], 6)
	binary.LittleEndian.PutUint32(header[44:], 1)
	binary.LittleEndian.PutUint32(header[48:], 1)
	binary.LittleEndian.PutUint32(header[56:], miniStreamCutoff)
	binary.LittleEndian.PutUint32(header[60:], endOfChain)
	binary.LittleEndian.PutUint32(header[68:], endOfChain)
	binary.LittleEndian.PutUint32(header[76:], 0)
	for off := 80; off < sectorSize; off += 4 {
		binary.LittleEndian.PutUint32(header[off:], freeSect)
	}

	out := make([]byte, 0, 3*sectorSize+len(payload))
	out = append(out, header...)
	out = append(out, fat...)
	out = append(out, dir...)
	return append(out, payload...)
}

func writeDirEntry(b []byte, name string, objectType byte, right, child, start, size uint32) {
	units := utf16.Encode([]rune(name))
	for i, u := range units {
		binary.LittleEndian.PutUint16(b[i*2:], u)
	}
	binary.LittleEndian.PutUint16(b[64:], uint16((len(units)+1)*2))
	b[66] = objectType
	b[67] = 1 // black
	binary.LittleEndian.PutUint32(b[68:], noStream)
	binary.LittleEndian.PutUint32(b[72:], right)
	binary.LittleEndian.PutUint32(b[76:], child)
	binary.LittleEndian.PutUint32(b[116:], start)
	binary.LittleEndian.PutUint32(b[120:], size)
}

// DOC returns a legacy Word 97-2003 document with one paragraph per entry, stored as
// a single 8-bit piece. Paragraphs must be representable in Windows-1252.
func DOC(paragraphs ...string) []byte {
	wordDocument, table := WordStreams(paragraphs...)
	return Compound(
		Stream{Name: "WordDocument", Data: wordDocument},
		Stream{Name: "1Table", Data: table},
	)
}

// WordStreams returns the WordDocument and 1Table streams that DOC packs.
func WordStreams(paragraphs ...string) (wordDocument, table []byte) {
	text := ""
	if len(paragraphs) > 0 {
		text = strings.Join(paragraphs, "\r") + "\r"
	}
	encoded, err := charmap.Windows1252.NewEncoder().String(text)
	if err != nil {
		panic(fmt.Sprintf("extractortest: %q is not Windows-1252: %v", text, err))
	}

	wordDocument = make([]byte, max(miniStreamCutoff, wordTextOffset+len(encoded)))
	binary.LittleEndian.PutUint16(wordDocument[0x0A:], 0x0200) // fWhichTblStm: 1Table
	binary.LittleEndian.PutUint32(wordDocument[0x4C:], uint32(len(encoded)))
	copy(wordDocument[wordTextOffset:], encoded)

	plc := binary.LittleEndian.AppendUint32(nil, 0)
	plc = binary.LittleEndian.AppendUint32(plc, uint32(len(encoded)))
	pcd := make([]byte, 8)
	binary.LittleEndian.PutUint32(pcd[2:], 0x40000000|wordTextOffset*2)
	plc = append(plc, pcd...)

	table = append([]byte{0x02}, binary.LittleEndian.AppendUint32(nil, uint32(len(plc)))...)
	table = append(table, plc...)

	binary.LittleEndian.PutUint32(wordDocument[0x1A2:], 0)
	binary.LittleEndian.PutUint32(wordDocument[0x1A6:], uint32(len(table)))
	return wordDocument, table
}
