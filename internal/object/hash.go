package object

import "hash/fnv"

// HashKey identifies a hashable value inside a Hash.
type HashKey struct {
	Kind  Kind
	Value uint64
}

// HashPair keeps the original key next to its value so the hash can be inspected.
type HashPair struct {
	Key   Value
	Value Value
}

// HashKey derives the key for integers, booleans and strings. Any other
// kind is unusable as a hash key.
func (v Value) HashKey() (HashKey, bool) {
	switch v.Kind {
	case KindInteger:
		return HashKey{Kind: v.Kind, Value: uint64(v.Int)}, true
	case KindBoolean:
		var n uint64
		if v.B {
			n = 1
		}
		return HashKey{Kind: v.Kind, Value: n}, true
	case KindString:
		h := fnv.New64a()
		h.Write([]byte(v.Str))
		return HashKey{Kind: v.Kind, Value: h.Sum64()}, true
	default:
		return HashKey{}, false
	}
}

// Hashable reports whether v may be used as a hash key.
func Hashable(v Value) bool {
	_, ok := v.HashKey()
	return ok
}
