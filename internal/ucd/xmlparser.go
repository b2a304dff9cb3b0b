package ucd

import (
	"encoding/xml"
	"io"
	"strconv"

	"github.com/hartonomous/substrate/pkg/errors"
)

// maxXMLRange caps the number of codepoints a single first-cp/last-cp range
// element may expand to, guarding against a malformed file declaring an
// absurd range (e.g. swapped bounds) from exhausting memory.
const maxXMLRange = 0x110000

// charAttrs is the generic attribute bag for a <char>/<reserved>/
// <noncharacter>/<surrogate> element of the UCD "flat" XML repertoire
// format. Every attribute is captured, following a "store every
// attribute, filter nothing" parsing stance, even though ParseFlatXML
// below only interprets the subset this package needs.
type charAttrs struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
}

func (c charAttrs) get(name string) string {
	for _, a := range c.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// ParseFlatXML parses a Unicode Character Database "flat" XML repertoire
// (ucd.nounihan.flat.xml and similar) from r, returning one Metadata per
// assigned codepoint. <char> elements with first-cp/last-cp attributes
// (large uniformly-described ranges, e.g. CJK Unified Ideographs) are
// expanded into one Metadata per codepoint in the range, sharing the
// range's other attributes as a template.
//
// Unrecognised elements are skipped; <reserved>/<noncharacter>/<surrogate>
// elements are parsed the same as <char> since all four carry the same
// attribute shape.
func ParseFlatXML(r io.Reader) (map[uint32]*Metadata, error) {
	dec := xml.NewDecoder(r)
	out := make(map[uint32]*Metadata)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeParseError, "ucd: malformed flat XML")
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "char", "reserved", "noncharacter", "surrogate":
		default:
			continue
		}

		var attrs charAttrs
		if err := dec.DecodeElement(&attrs, &start); err != nil {
			return nil, errors.Wrap(err, errors.CodeParseError, "ucd: malformed element in flat XML")
		}

		if err := expandElement(attrs, out); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func expandElement(attrs charAttrs, out map[uint32]*Metadata) error {
	firstCP := attrs.get("first-cp")
	lastCP := attrs.get("last-cp")

	if firstCP != "" && lastCP != "" {
		first, err := parseHexCodepoint(firstCP)
		if err != nil {
			return err
		}
		last, err := parseHexCodepoint(lastCP)
		if err != nil {
			return err
		}
		if last < first || int64(last)-int64(first) > maxXMLRange {
			return errors.New(errors.CodeParseError, "ucd: invalid codepoint range in flat XML")
		}
		for cp := first; cp <= last; cp++ {
			out[cp] = metadataFromAttrs(cp, attrs)
		}
		return nil
	}

	cpStr := attrs.get("cp")
	if cpStr == "" {
		return nil
	}
	cp, err := parseHexCodepoint(cpStr)
	if err != nil {
		return err
	}
	out[cp] = metadataFromAttrs(cp, attrs)
	return nil
}

func metadataFromAttrs(cp uint32, attrs charAttrs) *Metadata {
	ccc, _ := strconv.Atoi(attrs.get("ccc"))

	return &Metadata{
		Codepoint:            cp,
		Name:                 attrs.get("na"),
		GeneralCategory:      attrs.get("gc"),
		Script:               attrs.get("sc"),
		Block:                attrs.get("blk"),
		Age:                  attrs.get("age"),
		CombiningClass:       uint8(ccc),
		SimpleUppercase:      attrs.get("suc"),
		SimpleLowercase:      attrs.get("slc"),
		IsEmoji:              attrs.get("Emoji") == "Y",
		DecompositionMapping: attrs.get("dm"),
	}
}

func parseHexCodepoint(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeParseError, "ucd: invalid codepoint hex")
	}
	return uint32(v), nil
}
