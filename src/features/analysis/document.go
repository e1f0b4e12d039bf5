package analysis

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

// attr is an XML attribute that remembers whether it was present at all.
type attr struct {
	Value string
	Set   bool
}

// UnmarshalXMLAttr implements xml.UnmarshalerAttr.
func (a *attr) UnmarshalXMLAttr(x xml.Attr) error {
	*a = attr{Value: x.Value, Set: true}
	return nil
}

// Or returns the attribute value, or def when the attribute was absent.
func (a attr) Or(def string) string {
	if !a.Set {
		return def
	}
	return a.Value
}

// Document is the decoded shape of a library export.
type Document struct {
	Collection *Collection `xml:"COLLECTION"`
	Playlists  *Playlists  `xml:"PLAYLISTS"`
}

// Collection is the flat list of track entries.
type Collection struct {
	Entries []Entry `xml:"TRACK"`
}

// Entry is one raw collection entry with its cue and tempo sub-entries.
type Entry struct {
	TrackID    attr `xml:"TrackID,attr"`
	Name       attr `xml:"Name,attr"`
	Artist     attr `xml:"Artist,attr"`
	Album      attr `xml:"Album,attr"`
	Genre      attr `xml:"Genre,attr"`
	Kind       attr `xml:"Kind,attr"`
	BitRate    attr `xml:"BitRate,attr"`
	SampleRate attr `xml:"SampleRate,attr"`
	AverageBpm attr `xml:"AverageBpm,attr"`
	Tonality   attr `xml:"Tonality,attr"`
	PlayCount  attr `xml:"PlayCount,attr"`
	Year       attr `xml:"Year,attr"`
	Location   attr `xml:"Location,attr"`

	Cues   []marker `xml:"POSITION_MARK"`
	Tempos []marker `xml:"TEMPO"`
}

// marker stands for any sub-entry that only matters by count.
type marker struct{}

// Playlists is the playlist section; its first node is the conventional root.
type Playlists struct {
	Nodes []Node `xml:"NODE"`
}

// Root returns the top-level node, or nil when the section is empty.
func (p *Playlists) Root() *Node {
	if p == nil || len(p.Nodes) == 0 {
		return nil
	}
	return &p.Nodes[0]
}

// Node is a playlist tree node. Type "1" marks a leaf playlist.
type Node struct {
	Name     attr       `xml:"Name,attr"`
	Type     string     `xml:"Type,attr"`
	Tracks   []TrackRef `xml:"TRACK"`
	Children []Node     `xml:"NODE"`
}

// IsPlaylist reports whether the node is a leaf playlist rather than a folder.
func (n *Node) IsPlaylist() bool {
	return n.Type == "1"
}

// TrackRef points at a collection entry by its TrackID.
type TrackRef struct {
	Key string `xml:"Key,attr"`
}

// Decode parses raw export bytes into a Document. Anything but whitespace,
// comments and processing instructions after the root element is rejected.
func Decode(raw []byte) (*Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.CharsetReader = charsetReader

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return nil, fmt.Errorf("%w: unexpected element <%s> after root", ErrMalformedDocument, t.Name.Local)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return nil, fmt.Errorf("%w: unexpected text after root", ErrMalformedDocument)
			}
		}
	}
	return &doc, nil
}

// charsetReader lets exports declared in a legacy encoding decode as UTF-8.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(strings.TrimSpace(label))
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}
