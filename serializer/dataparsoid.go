package serializer

import (
	"encoding/json"
	"fmt"

	"golang.org/x/net/html"
)

// OptListEntry is one image option recorded by the parser, in source
// order. V is nil for the caption entry that refers to the actual
// figcaption content.
type OptListEntry struct {
	K string  `json:"k"`
	V *string `json:"v"`
}

// DSR is a document source range: [start, end, openWidth, closeWidth]
// mapping an element onto a half-open byte range of the original
// wikitext. Offsets may individually be absent; -1 marks absence.
type DSR [4]int

// Valid reports whether the range invariant start <= end holds and both
// outer offsets are present.
func (d DSR) Valid() bool {
	return d[0] >= 0 && d[1] >= d[0]
}

// UnmarshalJSON accepts the wire form, a JSON array with up to four
// entries where null marks an absent offset.
func (d *DSR) UnmarshalJSON(b []byte) error {
	var raw []*int
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*d = DSR{-1, -1, -1, -1}
	for i := 0; i < len(raw) && i < 4; i++ {
		if raw[i] != nil {
			d[i] = *raw[i]
		}
	}
	return nil
}

// MarshalJSON emits the wire form.
func (d DSR) MarshalJSON() ([]byte, error) {
	raw := make([]*int, 4)
	for i := range d {
		if d[i] >= 0 {
			v := d[i]
			raw[i] = &v
		}
	}
	return json.Marshal(raw)
}

// DataParsoid is the per-node round-trip metadata carried in the
// data-parsoid attribute. Absent fields keep their zero value.
type DataParsoid struct {
	Src               string         `json:"src,omitempty"`
	DSR               *DSR           `json:"dsr,omitempty"`
	Stx               string         `json:"stx,omitempty"`
	StxV              string         `json:"stx_v,omitempty"`
	StartTagSrc       string         `json:"startTagSrc,omitempty"`
	EndTagSrc         string         `json:"endTagSrc,omitempty"`
	AttrSepSrc        string         `json:"attrSepSrc,omitempty"`
	Tail              string         `json:"tail,omitempty"`
	Prefix            string         `json:"prefix,omitempty"`
	PipeTrick         bool           `json:"pipetrick,omitempty"`
	AutoInsertedStart bool           `json:"autoInsertedStart,omitempty"`
	AutoInsertedEnd   bool           `json:"autoInsertedEnd,omitempty"`
	SelfClose         bool           `json:"selfClose,omitempty"`
	NoClose           bool           `json:"noClose,omitempty"`
	StrippedNL        bool           `json:"strippedNL,omitempty"`
	ExtraDashes       int            `json:"extra_dashes,omitempty"`
	LineContent       string         `json:"lineContent,omitempty"`
	MagicSrc          string         `json:"magicSrc,omitempty"`
	OptList           []OptListEntry `json:"optList,omitempty"`
	OptNames          []string       `json:"optNames,omitempty"`
	SrcContent        string         `json:"srcContent,omitempty"`
	SrcTagName        string         `json:"srcTagName,omitempty"`
}

// HasDSR reports whether the node carries a usable source range.
func (dp *DataParsoid) HasDSR() bool {
	return dp != nil && dp.DSR != nil && dp.DSR.Valid()
}

// parseDataParsoid decodes the data-parsoid attribute of n. A missing
// attribute yields an empty record; a malformed one is a fatal error per
// the error policy (the caller surfaces it through errCB).
func parseDataParsoid(n *html.Node) (*DataParsoid, error) {
	raw, ok := nodeAttr(n, "data-parsoid")
	if !ok || raw == "" {
		return &DataParsoid{}, nil
	}
	dp := &DataParsoid{}
	if err := json.Unmarshal([]byte(raw), dp); err != nil {
		return nil, fmt.Errorf("failed to decode data-parsoid on <%s>: %w", n.Data, err)
	}
	return dp, nil
}
