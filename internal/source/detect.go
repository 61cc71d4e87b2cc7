package source

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/net/html/charset"

	"github.com/trabalhosfenix/planconv/internal/utils"
)

const sniffLen = 3072

var (
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	mpxMagic = []byte("MPX")
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
)

var extensions = map[string]Format{
	"xml": FormatMSPDI,
	"mpx": FormatMPX,
	"mpp": FormatMPP,
	"mpt": FormatMPP,
}

// Detect identifies the format of the file at path from its first bytes,
// falling back to the file extension.
func Detect(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	head = head[:n]

	if format, ok := sniff(head); ok {
		return format, nil
	}
	if format, ok := extensions[utils.LowerExt(path)]; ok {
		return format, nil
	}
	return "", fmt.Errorf("%w: content looks like %s", ErrUnknownFormat, mimetype.Detect(head).String())
}

// sniff identifies a format from content alone.
func sniff(head []byte) (Format, bool) {
	if bytes.HasPrefix(head, oleMagic) {
		return FormatMPP, true
	}
	text := bytes.TrimPrefix(head, utf8BOM)
	if bytes.HasPrefix(text, mpxMagic) {
		return FormatMPX, true
	}

	mtype := mimetype.Detect(head)
	if mtype.Is("application/x-ole-storage") {
		return FormatMPP, true
	}
	if isXML(mtype) || bytes.HasPrefix(bytes.TrimSpace(text), []byte("<")) {
		if rootElement(head) == "Project" {
			return FormatMSPDI, true
		}
	}
	return "", false
}

func isXML(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/xml") || m.Is("application/xml") {
			return true
		}
	}
	return false
}

func rootElement(head []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(head))
	dec.Strict = false
	dec.CharsetReader = charset.NewReaderLabel
	for {
		tok, err := dec.Token()
		if err != nil {
			return ""
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name.Local
		}
	}
}
