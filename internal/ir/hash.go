package ir

import (
	"encoding/binary"

	"github.com/spaolacci/murmur3"
)

// Type tags prefix each encoded value so Int(1) and Text("1") never collide.
const (
	tagInt  byte = 'i'
	tagText byte = 't'
	tagRef  byte = 'r'
)

// EncodeKey appends a self-delimiting binary encoding of values to buf.
// Two value sequences encode identically iff they are pairwise Equal
// (column references aside, which never reach a key).
func EncodeKey(buf []byte, values ...Value) []byte {
	for _, v := range values {
		switch val := v.(type) {
		case Int:
			buf = append(buf, tagInt)
			buf = binary.BigEndian.AppendUint64(buf, uint64(val))
		case Text:
			buf = append(buf, tagText)
			buf = binary.BigEndian.AppendUint32(buf, uint32(len(val)))
			buf = append(buf, val...)
		case ColumnRef:
			buf = append(buf, tagRef)
			buf = binary.BigEndian.AppendUint32(buf, uint32(len(val)))
			buf = append(buf, val...)
		}
	}
	return buf
}

// HashKey hashes a composite key with murmur3.
// Equal keys hash equally; callers must still compare keys with Equal
// because distinct keys may collide.
func HashKey(values ...Value) uint64 {
	return murmur3.Sum64(EncodeKey(nil, values...))
}

// HashRow hashes the values of a row at the given positions.
func HashRow(row Row, positions []int) uint64 {
	buf := make([]byte, 0, 16*len(positions))
	for _, p := range positions {
		buf = EncodeKey(buf, row[p])
	}
	return murmur3.Sum64(buf)
}

// Equivalent reports whether two tables expose the same set of columns and
// the same multiset of rows once b's columns are aligned to a's.
func Equivalent(a, b *Table) bool {
	if !a.Schema.SameColumns(b.Schema) || len(a.Rows) != len(b.Rows) {
		return false
	}
	positions := make([]int, a.Schema.Len())
	for i, name := range a.Schema.names {
		positions[i], _ = b.Schema.Position(name)
	}

	counts := make(map[string]int, len(a.Rows))
	for _, row := range a.Rows {
		counts[string(EncodeKey(nil, row...))]++
	}
	aligned := make(Row, len(positions))
	for _, row := range b.Rows {
		for i, p := range positions {
			aligned[i] = row[p]
		}
		key := string(EncodeKey(nil, aligned...))
		if counts[key] == 0 {
			return false
		}
		counts[key]--
	}
	return true
}
