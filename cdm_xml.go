package orbveil

import (
	"encoding/xml"
	"io"
	"strings"
)

// ParseCDMXML parses a CCSDS 508.0-B-1 Conjunction Data Message in its XML
// encoding. Namespaces are tolerated: every element is looked
// up by local name only, ignoring whatever namespace the document declares.
// Two <segment> elements are expected, each carrying an <OBJECT> leaf of
// OBJECT1 or OBJECT2 that determines which CDMObject its sibling fields
// belong to.
func ParseCDMXML(text string) (*CDM, error) {
	dec := xml.NewDecoder(strings.NewReader(text))

	header := make(map[string]string)
	unknownHeader := make(map[string]string)
	obj1 := objectFields{known: map[string]string{}, unknown: map[string]string{}}
	obj2 := objectFields{known: map[string]string{}, unknown: map[string]string{}}
	sawObj1, sawObj2 := false, false

	var inSegment bool
	var segObject string
	segFields := map[string]string{}
	var curText strings.Builder

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Source: "cdm-xml", Field: "<root>", Reason: "malformed XML: " + err.Error()}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			if name == "segment" {
				inSegment = true
				segFields = map[string]string{}
				segObject = ""
			}
			curText.Reset()
		case xml.CharData:
			curText.Write(t)
		case xml.EndElement:
			name := t.Name.Local
			value := strings.TrimSpace(curText.String())
			curText.Reset()
			if value != "" {
				switch {
				case inSegment:
					if name == "OBJECT" {
						segObject = value
					}
					segFields[name] = value
				case knownHeaderKeys[name]:
					header[name] = value
				case name != "header" && name != "body" && name != "cdm":
					unknownHeader[name] = value
				}
			}
			if name == "segment" {
				switch segObject {
				case "OBJECT1":
					sawObj1 = true
					for k, v := range segFields {
						storeField(obj1.known, obj1.unknown, knownObjectKeys, k, v)
					}
				case "OBJECT2":
					sawObj2 = true
					for k, v := range segFields {
						storeField(obj2.known, obj2.unknown, knownObjectKeys, k, v)
					}
				}
				inSegment = false
			}
		}
	}

	if !sawObj1 || !sawObj2 {
		return nil, &ParseError{Source: "cdm-xml", Field: "OBJECT", Reason: "message must declare both OBJECT1 and OBJECT2 segments"}
	}
	return buildCDM(header, unknownHeader, obj1, obj2, "cdm-xml")
}
