package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBodyPart = "word/document.xml"

// maxDocumentXMLSize caps how much of document.xml is decompressed.
var maxDocumentXMLSize int64 = 64 << 20

var errDocumentTooLarge = errors.New("document.xml exceeds the extraction size limit")

// cappedReader reads at most limit bytes and records whether the source had more.
type cappedReader struct {
	r        io.Reader
	limit    int64
	read     int64
	exceeded bool
}

func (c *cappedReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += int64(n)
	if c.read > c.limit {
		c.exceeded = true
		return 0, errDocumentTooLarge
	}
	return n, err
}

// ExtractDOCX returns the raw text of the main document part, one line per paragraph.
// Runs nested in hyperlinks, tables and content controls are included.
func ExtractDOCX(data []byte) (string, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read DOCX as ZIP: %w", err)
	}

	var documentFile *zip.File
	for _, file := range zipReader.File {
		if file.Name == docxBodyPart {
			documentFile = file
			break
		}
	}
	if documentFile == nil {
		return "", fmt.Errorf("document.xml not found in DOCX")
	}

	if documentFile.UncompressedSize64 > uint64(maxDocumentXMLSize) {
		return "", errDocumentTooLarge
	}

	xmlFile, err := documentFile.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open document.xml: %w", err)
	}
	defer xmlFile.Close()

	var textBuilder strings.Builder
	body := &cappedReader{r: io.LimitReader(xmlFile, maxDocumentXMLSize+1), limit: maxDocumentXMLSize}
	decoder := xml.NewDecoder(body)
	inText := false

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if body.exceeded {
			return "", errDocumentTooLarge
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse document.xml: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				textBuilder.WriteByte('\t')
			case "br", "cr":
				textBuilder.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				textBuilder.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				textBuilder.Write(t)
			}
		}
	}

	return cleanText(textBuilder.String()), nil
}
