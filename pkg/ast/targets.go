package ast

import "fmt"

// TargetNames returns the names bound by a binding target. Only a Name or a
// Tuple/List of such targets is accepted.
func TargetNames(target Expr) ([]string, error) {
	switch t := target.(type) {
	case *Name:
		return []string{t.ID}, nil
	case *Tuple:
		return elementNames(t.Elts)
	case *List:
		return elementNames(t.Elts)
	case nil:
		return nil, fmt.Errorf("%w: missing binding target", ErrMalformed)
	default:
		return nil, fmt.Errorf("%w: binding target %T is not a name", ErrMalformed, target)
	}
}

func elementNames(elts []Expr) ([]string, error) {
	var names []string
	for _, e := range elts {
		sub, err := TargetNames(e)
		if err != nil {
			return nil, err
		}
		names = append(names, sub...)
	}
	return names, nil
}

// BoundNames returns the names an assignment target rebinds. Attribute and
// subscript targets mutate objects, not names, and yield nothing.
func BoundNames(target Expr) []string {
	switch t := target.(type) {
	case *Name:
		return []string{t.ID}
	case *Tuple:
		var names []string
		for _, e := range t.Elts {
			names = append(names, BoundNames(e)...)
		}
		return names
	case *List:
		var names []string
		for _, e := range t.Elts {
			names = append(names, BoundNames(e)...)
		}
		return names
	}
	return nil
}

// StoreNames builds a Store-context tuple of fresh names.
func StoreNames(names []string) *Tuple {
	elts := make([]Expr, len(names))
	for i, n := range names {
		elts[i] = &Name{ID: n, Ctx: Store}
	}
	return &Tuple{Elts: elts, Ctx: Store}
}

// LoadNames builds fresh Load-context name references.
func LoadNames(names []string) []Expr {
	elts := make([]Expr, len(names))
	for i, n := range names {
		elts[i] = &Name{ID: n, Ctx: Load}
	}
	return elts
}
