package nestfile

// Jagged is a sequence of one-dimensional arrays of one dtype whose lengths
// may differ, e.g. [[1 2 3 4] [6 7]]. It is stored flattened, with the
// original lengths kept in the oldshape attribute.
type Jagged []Array

func (Jagged) Kind() Kind { return KindJagged }
func (Jagged) sealed()    {}

// Lengths returns the length of every inner array.
func (j Jagged) Lengths() []int {
	out := make([]int, len(j))
	for i, a := range j {
		out[i] = a.Len()
	}
	return out
}
