package serializer

import (
	"strings"

	"golang.org/x/net/html"
)

// Attribute is one key/value pair of an element, in source order.
type Attribute struct {
	Key   string
	Value string
}

// Token is the intermediate representation between the DOM walk and the
// wikitext emission. Tokens are ephemeral: a handler produces one, the
// token serializer consumes it immediately.
type Token interface {
	isToken()
}

// StartTag opens an element.
type StartTag struct {
	Name  string
	Attrs []Attribute
	DP    *DataParsoid
	// Node is the DOM node the token was synthesized from, when any.
	// Handlers use it for structural context checks.
	Node *html.Node
}

// EndTag closes an element.
type EndTag struct {
	Name  string
	Attrs []Attribute
	DP    *DataParsoid
	Node  *html.Node
}

// SelfClosing is an element with no separate end tag.
type SelfClosing struct {
	Name  string
	Attrs []Attribute
	DP    *DataParsoid
	Node  *html.Node
}

// Text is a character-data run.
type Text struct {
	Value string
}

// Comment is an HTML comment body (without the <!-- --> delimiters).
type Comment struct {
	Value string
}

// Newline is a bare newline token.
type Newline struct{}

// EOF terminates a token stream.
type EOF struct{}

func (StartTag) isToken()    {}
func (EndTag) isToken()      {}
func (SelfClosing) isToken() {}
func (Text) isToken()        {}
func (Comment) isToken()     {}
func (Newline) isToken()     {}
func (EOF) isToken()         {}

// tagToken is implemented by the three tag-shaped tokens.
type tagToken interface {
	Token
	tagName() string
	attrs() []Attribute
	dataParsoid() *DataParsoid
	node() *html.Node
}

func (t StartTag) tagName() string    { return t.Name }
func (t EndTag) tagName() string      { return t.Name }
func (t SelfClosing) tagName() string { return t.Name }

func (t StartTag) attrs() []Attribute    { return t.Attrs }
func (t EndTag) attrs() []Attribute      { return t.Attrs }
func (t SelfClosing) attrs() []Attribute { return t.Attrs }

func (t StartTag) dataParsoid() *DataParsoid    { return t.DP }
func (t EndTag) dataParsoid() *DataParsoid      { return t.DP }
func (t SelfClosing) dataParsoid() *DataParsoid { return t.DP }

func (t StartTag) node() *html.Node    { return t.Node }
func (t EndTag) node() *html.Node      { return t.Node }
func (t SelfClosing) node() *html.Node { return t.Node }

// getAttr returns the value of the named attribute and whether it exists.
func getAttr(attrs []Attribute, key string) (string, bool) {
	for _, a := range attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// nodeAttr reads an attribute straight off a DOM node.
func nodeAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// hasTypeOf reports whether the space-separated typeof attribute value
// contains want.
func hasTypeOf(typeOf, want string) bool {
	for _, t := range strings.Fields(typeOf) {
		if t == want {
			return true
		}
	}
	return false
}

// tokenAttrs converts DOM attributes to the ordered token form.
func tokenAttrs(n *html.Node) []Attribute {
	if len(n.Attr) == 0 {
		return nil
	}
	out := make([]Attribute, 0, len(n.Attr))
	for _, a := range n.Attr {
		out = append(out, Attribute{Key: a.Key, Value: a.Val})
	}
	return out
}
