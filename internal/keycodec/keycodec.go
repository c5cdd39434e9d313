// Package keycodec encodes and decodes the composite keys used by the
// sorted store: strings of the form "!<sublevel>!<id>" where sublevel
// and id are each dot-joined sequences of non-empty parts.
package keycodec

import "strings"

// Encode joins sublevel parts and id parts into a composite key. Empty
// parts are dropped before joining, matching the parts_join rule in the
// specification.
func Encode(sublevels, ids []string) string {
	var b strings.Builder
	b.WriteByte('!')
	writeJoined(&b, sublevels)
	b.WriteByte('!')
	writeJoined(&b, ids)
	return b.String()
}

func writeJoined(b *strings.Builder, parts []string) {
	first := true
	for _, p := range parts {
		if p == "" {
			continue
		}
		if !first {
			b.WriteByte('.')
		}
		b.WriteString(p)
		first = false
	}
}

// Decode splits a composite key into its sublevel and id strings (still
// dot-joined). It returns false if key does not have the "!...!..."
// shape.
func Decode(key string) (sublevel, id string, ok bool) {
	if len(key) == 0 || key[0] != '!' {
		return "", "", false
	}
	rest := key[1:]
	i := strings.IndexByte(rest, '!')
	if i < 0 {
		return "", "", false
	}
	return rest[:i], rest[i+1:], true
}

// Parts splits a dot-joined sublevel or id string back into its parts.
// An empty string yields a nil slice.
func Parts(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, ".")
}

// IsEmbedded reports whether a sublevel string (as returned by Decode)
// names an embedded-document entry, i.e. has more than one dot-joined
// part. Primary-document entries have a single-part sublevel.
func IsEmbedded(sublevel string) bool {
	return strings.Contains(sublevel, ".")
}

// EncodePrimary is a convenience wrapper for the common case of a
// primary document's key.
func EncodePrimary(collection, id string) string {
	return Encode([]string{collection}, []string{id})
}

// EmbeddedSublevel joins a parent sublevel with the next embedded
// collection name, used when constructing the key for a document one
// level deeper in the hierarchy.
func EmbeddedSublevel(parentSublevel, embeddedCollection string) string {
	return parentSublevel + "." + embeddedCollection
}

// EmbeddedID joins a parent id with the next embedded document's own
// id, used alongside EmbeddedSublevel.
func EmbeddedID(parentID, embeddedID string) string {
	return parentID + "." + embeddedID
}
