// Package nodemap resolves the integer keys used by the binary sample
// messages to the human readable node names published by the service.
//
// The service announces the mapping as an XML control message with one
// node element per skeleton joint, for example:
//
//	<?xml version="1.0"?>
//	<node key="0" id="default">
//	  <node key="4" id="Hips"/>
//	  <node key="5" id="LeftThigh"/>
//	</node>
package nodemap

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var ErrNoNodes = errors.New("nodemap: no node elements in document")

// Parse extracts the key to name mapping from a name map document. Node
// elements may nest; every element named "node" with both a key and an id
// attribute contributes an entry. The first occurrence of a key wins.
func Parse(document string) (map[uint32]string, error) {
	dec := xml.NewDecoder(strings.NewReader(document))
	names := make(map[uint32]string)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("nodemap: malformed document: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "node" {
			continue
		}

		var id string
		var key uint32
		var haveID, haveKey bool
		for _, attr := range start.Attr {
			switch attr.Name.Local {
			case "id":
				id = attr.Value
				haveID = true
			case "key":
				v, err := strconv.ParseUint(attr.Value, 10, 32)
				if err != nil {
					return nil, fmt.Errorf("nodemap: invalid key %q: %w", attr.Value, err)
				}
				key = uint32(v)
				haveKey = true
			}
		}
		if !haveID || !haveKey {
			continue
		}
		if _, dup := names[key]; !dup {
			names[key] = id
		}
	}

	if len(names) == 0 {
		return nil, ErrNoNodes
	}
	return names, nil
}

// Name returns the node name for key, falling back to the decimal key when
// the mapping has no entry.
func Name(names map[uint32]string, key uint32) string {
	if name, ok := names[key]; ok {
		return name
	}
	return strconv.FormatUint(uint64(key), 10)
}
