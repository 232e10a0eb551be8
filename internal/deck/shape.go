package deck

// There are 560 ordered shapes (spade-heart-diamond-club lengths
// summing to 13). A ShapeMask is a 560-bit set over those shapes,
// precomputed at parse time so that matching a hand at evaluation
// time is a single indexed bit test.

// shapeWords is the number of 64-bit words needed for 560 bits.
const shapeWords = 9

// spadeOffsets[s] is the number of shapes with fewer than s spades.
var spadeOffsets = [15]int{
	0, 105, 196, 274, 340, 395, 440, 476, 504, 525, 540, 550, 556, 559, 560,
}

// ShapeIndex maps suit lengths (s+h+d+c must be 13) to a unique index
// in [0, 560).
func ShapeIndex(s, h, d, c int) int {
	_ = c
	remaining := 13 - s
	heartsOffset := 0
	if h > 0 {
		heartsOffset = h*(remaining+1) - h*(h-1)/2
	}
	return spadeOffsets[s] + heartsOffset + d
}

// ShapeMask is a set of hand shapes.
type ShapeMask struct {
	bits [shapeWords]uint64
}

// Set marks a shape index as a member of the mask
func (m *ShapeMask) Set(index int) {
	m.bits[index/64] |= 1 << (index % 64)
}

// Contains reports whether a shape index is in the mask
func (m *ShapeMask) Contains(index int) bool {
	return m.bits[index/64]&(1<<(index%64)) != 0
}

// Matches reports whether a hand with the given suit lengths is in the mask
func (m *ShapeMask) Matches(s, h, d, c int) bool {
	return m.Contains(ShapeIndex(s, h, d, c))
}

// Union returns the set union of two masks
func (m ShapeMask) Union(other ShapeMask) ShapeMask {
	var out ShapeMask
	for i := range out.bits {
		out.bits[i] = m.bits[i] | other.bits[i]
	}
	return out
}

// Difference returns the shapes in m that are not in other
func (m ShapeMask) Difference(other ShapeMask) ShapeMask {
	var out ShapeMask
	for i := range out.bits {
		out.bits[i] = m.bits[i] &^ other.bits[i]
	}
	return out
}

// IsEmpty reports whether no shapes are in the mask
func (m ShapeMask) IsEmpty() bool {
	for _, w := range m.bits {
		if w != 0 {
			return false
		}
	}
	return true
}

// Count returns the number of shapes in the mask
func (m ShapeMask) Count() int {
	n := 0
	for _, w := range m.bits {
		for ; w != 0; w &= w - 1 {
			n++
		}
	}
	return n
}

// ExactShape returns a mask holding the single shape s-h-d-c.
// A tuple that does not sum to 13 compiles to an empty mask, which
// never matches any hand.
func ExactShape(s, h, d, c int) ShapeMask {
	var m ShapeMask
	if s+h+d+c == 13 {
		m.Set(ShapeIndex(s, h, d, c))
	}
	return m
}

// WildcardShape returns a mask of all shapes matching the pattern,
// where a negative entry is a wildcard for that suit.
func WildcardShape(pattern [4]int) ShapeMask {
	var m ShapeMask
	for s := 0; s <= 13; s++ {
		if pattern[0] >= 0 && s != pattern[0] {
			continue
		}
		for h := 0; h <= 13-s; h++ {
			if pattern[1] >= 0 && h != pattern[1] {
				continue
			}
			for d := 0; d <= 13-s-h; d++ {
				if pattern[2] >= 0 && d != pattern[2] {
					continue
				}
				c := 13 - s - h - d
				if pattern[3] >= 0 && c != pattern[3] {
					continue
				}
				m.Set(ShapeIndex(s, h, d, c))
			}
		}
	}
	return m
}

// AnyShape returns the permutation closure of a pattern: every
// assignment of the pattern's entries to suits. Wildcards (negative
// entries) are permuted along with the fixed lengths.
func AnyShape(pattern [4]int) ShapeMask {
	var m ShapeMask
	for _, perm := range permutations4 {
		m = m.Union(WildcardShape([4]int{
			pattern[perm[0]], pattern[perm[1]], pattern[perm[2]], pattern[perm[3]],
		}))
	}
	return m
}

// permutations4 lists the 24 orderings of four indices.
var permutations4 = [24][4]int{
	{0, 1, 2, 3}, {0, 1, 3, 2}, {0, 2, 1, 3}, {0, 2, 3, 1}, {0, 3, 1, 2}, {0, 3, 2, 1},
	{1, 0, 2, 3}, {1, 0, 3, 2}, {1, 2, 0, 3}, {1, 2, 3, 0}, {1, 3, 0, 2}, {1, 3, 2, 0},
	{2, 0, 1, 3}, {2, 0, 3, 1}, {2, 1, 0, 3}, {2, 1, 3, 0}, {2, 3, 0, 1}, {2, 3, 1, 0},
	{3, 0, 1, 2}, {3, 0, 2, 1}, {3, 1, 0, 2}, {3, 1, 2, 0}, {3, 2, 0, 1}, {3, 2, 1, 0},
}
