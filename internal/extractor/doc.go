package extractor

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf16"

	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding/charmap"
)

// Offsets into the Word 97-2003 File Information Block.
const (
	fibFlagsOffset   = 0x000A
	fibCcpTextOffset = 0x004C
	fibFcClxOffset   = 0x01A2
	fibLcbClxOffset  = 0x01A6
	fibMinSize       = 0x01AA

	fibWhichTblStm = 0x0200
	fibEncrypted   = 0x0100

	clxPrc  = 0x01
	clxPcdt = 0x02

	pcdSize         = 8
	fcCompressedBit = 0x40000000
	fcMask          = 0x3FFFFFFF
)

var errNoWordStream = errors.New("WordDocument stream not found")

// ExtractDOC reads the main document text of a legacy Word binary file by walking
// the piece table stored in the table stream.
func ExtractDOC(data []byte) (string, error) {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to read DOC container: %w", err)
	}

	streams := make(map[string][]byte, 3)
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		switch entry.Name {
		case "WordDocument", "0Table", "1Table":
		default:
			continue
		}
		// The declared size comes from the upload; a stream cannot be larger than the file holding it.
		if entry.Size < 0 || entry.Size > int64(len(data)) {
			return "", fmt.Errorf("%s stream declares %d bytes in a %d byte file", entry.Name, entry.Size, len(data))
		}
		buf := make([]byte, entry.Size)
		if _, err := io.ReadFull(entry, buf); err != nil {
			return "", fmt.Errorf("failed to read %s stream: %w", entry.Name, err)
		}
		streams[entry.Name] = buf
	}

	wordDocument, ok := streams["WordDocument"]
	if !ok {
		return "", errNoWordStream
	}
	return wordText(wordDocument, streams["0Table"], streams["1Table"])
}

func wordText(wordDocument, table0, table1 []byte) (string, error) {
	if len(wordDocument) < fibMinSize {
		return "", fmt.Errorf("WordDocument stream too short: %d bytes", len(wordDocument))
	}

	flags := binary.LittleEndian.Uint16(wordDocument[fibFlagsOffset:])
	if flags&fibEncrypted != 0 {
		return "", errors.New("encrypted Word documents are not supported")
	}

	table := table0
	if flags&fibWhichTblStm != 0 {
		table = table1
	}
	if table == nil {
		return "", errors.New("table stream not found")
	}

	ccpText := binary.LittleEndian.Uint32(wordDocument[fibCcpTextOffset:])
	fcClx := binary.LittleEndian.Uint32(wordDocument[fibFcClxOffset:])
	lcbClx := binary.LittleEndian.Uint32(wordDocument[fibLcbClxOffset:])
	if uint64(fcClx)+uint64(lcbClx) > uint64(len(table)) {
		return "", errors.New("piece table lies outside the table stream")
	}

	plcPcd, err := findPlcPcd(table[fcClx : fcClx+lcbClx])
	if err != nil {
		return "", err
	}

	raw, err := readPieces(wordDocument, plcPcd, ccpText)
	if err != nil {
		return "", err
	}
	return cleanText(normalizeWordText(raw)), nil
}

// findPlcPcd skips any property modifiers in the Clx and returns the PlcPcd body.
func findPlcPcd(clx []byte) ([]byte, error) {
	for pos := 0; pos < len(clx); {
		switch clx[pos] {
		case clxPrc:
			if pos+3 > len(clx) {
				return nil, errors.New("truncated Prc in piece table")
			}
			size := int(int16(binary.LittleEndian.Uint16(clx[pos+1:])))
			if size < 0 {
				return nil, errors.New("invalid Prc size")
			}
			pos += 3 + size
		case clxPcdt:
			if pos+5 > len(clx) {
				return nil, errors.New("truncated Pcdt in piece table")
			}
			lcb := int(binary.LittleEndian.Uint32(clx[pos+1:]))
			start := pos + 5
			if lcb < 4 || start+lcb > len(clx) {
				return nil, errors.New("invalid PlcPcd size")
			}
			return clx[start : start+lcb], nil
		default:
			return nil, fmt.Errorf("unexpected Clx marker 0x%02x", clx[pos])
		}
	}
	return nil, errors.New("piece table not found")
}

func readPieces(wordDocument, plcPcd []byte, ccpText uint32) (string, error) {
	if (len(plcPcd)-4)%(4+pcdSize) != 0 {
		return "", errors.New("malformed PlcPcd")
	}
	n := (len(plcPcd) - 4) / (4 + pcdSize)

	cp := func(i int) uint32 { return binary.LittleEndian.Uint32(plcPcd[i*4:]) }
	pcdBase := (n + 1) * 4

	var out strings.Builder
	decoder := charmap.Windows1252.NewDecoder()

	for i := 0; i < n; i++ {
		start, end := cp(i), cp(i+1)
		if start >= ccpText {
			break
		}
		if end > ccpText {
			end = ccpText
		}
		if end <= start {
			continue
		}
		count := int(end - start)

		fcCompressed := binary.LittleEndian.Uint32(plcPcd[pcdBase+i*pcdSize+2:])
		fc := int(fcCompressed & fcMask)

		if fcCompressed&fcCompressedBit != 0 {
			offset := fc / 2
			if offset+count > len(wordDocument) {
				return "", errors.New("piece points outside WordDocument stream")
			}
			decoded, err := decoder.Bytes(wordDocument[offset : offset+count])
			if err != nil {
				return "", fmt.Errorf("failed to decode piece: %w", err)
			}
			out.Write(decoded)
			continue
		}

		if fc+count*2 > len(wordDocument) {
			return "", errors.New("piece points outside WordDocument stream")
		}
		units := make([]uint16, count)
		for j := range units {
			units[j] = binary.LittleEndian.Uint16(wordDocument[fc+j*2:])
		}
		out.WriteString(string(utf16.Decode(units)))
	}

	return out.String(), nil
}

// normalizeWordText maps Word control characters to plain text and drops field codes,
// keeping only the field results.
func normalizeWordText(s string) string {
	var b strings.Builder
	fieldDepth := 0
	inCode := make([]bool, 0, 4)

	for _, r := range s {
		switch r {
		case 0x13:
			fieldDepth++
			inCode = append(inCode, true)
			continue
		case 0x14:
			if fieldDepth > 0 {
				inCode[fieldDepth-1] = false
			}
			continue
		case 0x15:
			if fieldDepth > 0 {
				fieldDepth--
				inCode = inCode[:fieldDepth]
			}
			continue
		}

		if fieldDepth > 0 && inCode[fieldDepth-1] {
			continue
		}

		switch {
		case r == '\r', r == '\v', r == 0x0C:
			b.WriteByte('\n')
		case r == 0x07:
			b.WriteByte('\t')
		case r == '\t':
			b.WriteRune(r)
		case r == 0x1E:
			b.WriteByte('-')
		case r < 0x20:
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}
