package orbveil

import (
	"bufio"
	"strings"
)

// ParseCDMKVN parses a CCSDS 508.0-B-1 Conjunction Data Message in
// Key-Value Notation. Parsing is whitespace-insensitive;
// COMMENT and empty lines are skipped. A single pass reads the lines in
// order: keys before the first `OBJECT = OBJECT1` / `OBJECT = OBJECT2` line
// go into the header dictionary, and each such line opens an "object scope"
// whose following keys are captured under that object rather than the
// header. A header key that appears after an OBJECT line is therefore stored
// as an unknown field of that object, not as a header field.
func ParseCDMKVN(text string) (*CDM, error) {
	header := make(map[string]string)
	unknownHeader := make(map[string]string)
	obj1 := objectFields{known: map[string]string{}, unknown: map[string]string{}}
	obj2 := objectFields{known: map[string]string{}, unknown: map[string]string{}}

	scope := 0 // 0 = header, 1 = OBJECT1, 2 = OBJECT2
	sawObj1, sawObj2 := false, false

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "COMMENT") {
			continue
		}
		key, value, ok := splitKVN(line)
		if !ok {
			continue
		}

		if key == "OBJECT" {
			switch value {
			case "OBJECT1":
				scope = 1
				sawObj1 = true
				continue
			case "OBJECT2":
				scope = 2
				sawObj2 = true
				continue
			}
		}

		switch scope {
		case 1:
			storeField(obj1.known, obj1.unknown, knownObjectKeys, key, value)
		case 2:
			storeField(obj2.known, obj2.unknown, knownObjectKeys, key, value)
		default:
			storeField(header, unknownHeader, knownHeaderKeys, key, value)
		}
	}

	if !sawObj1 || !sawObj2 {
		return nil, &ParseError{Source: "cdm-kvn", Field: "OBJECT", Reason: "message must declare both OBJECT1 and OBJECT2 scopes"}
	}
	return buildCDM(header, unknownHeader, obj1, obj2, "cdm-kvn")
}

var knownHeaderKeys = map[string]bool{
	"CCSDS_CDM_VERS": true, "CREATION_DATE": true, "ORIGINATOR": true, "MESSAGE_ID": true,
	"TCA": true, "MISS_DISTANCE": true, "RELATIVE_SPEED": true, "COLLISION_PROBABILITY": true,
}

func storeField(known, unknown map[string]string, schema map[string]bool, key, value string) {
	if schema[key] {
		known[key] = value
	} else {
		unknown[key] = value
	}
}

// splitKVN splits a "key = value" line, tolerating arbitrary surrounding
// whitespace around the '='.
func splitKVN(line string) (key, value string, ok bool) {
	idx := strings.Index(line, "=")
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	if key == "" {
		return "", "", false
	}
	return key, value, true
}
