package store

type Predicate interface {
	predicate()
}

// Eq matches a field equal to Value. A string value compares against the text form of
// the field, a float64 value only matches numeric fields.
type Eq struct {
	Field string
	Value any
}

// Match is a case-insensitive regular expression test against the text form of a field.
type Match struct {
	Field   string
	Pattern string
}

// Range bounds a field inclusively. Float64 bounds compare numerically against numeric
// fields, string bounds compare lexically. A nil bound is open.
type Range struct {
	Field string
	Min   any
	Max   any
}

// Numeric matches a field holding a number or a string that parses as one.
type Numeric struct {
	Field string
}

type Or []Predicate

type And []Predicate

func (Eq) predicate()      {}
func (Match) predicate()   {}
func (Range) predicate()   {}
func (Numeric) predicate() {}
func (Or) predicate()      {}
func (And) predicate()     {}

// All matches every document.
func All() Predicate {
	return And{}
}

// Conjoin ANDs the non-empty predicates together.
func Conjoin(preds ...Predicate) Predicate {
	out := And{}
	for _, p := range preds {
		if p == nil || IsAll(p) {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

// IsAll reports whether p places no constraint on documents.
func IsAll(p Predicate) bool {
	if p == nil {
		return true
	}
	and, ok := p.(And)
	if !ok {
		return false
	}
	for _, sub := range and {
		if !IsAll(sub) {
			return false
		}
	}
	return true
}
