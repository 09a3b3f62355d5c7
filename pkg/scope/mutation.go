package scope

import (
	"fmt"

	"github.com/l3aro/go-singleline/pkg/ast"
)

// frame is the set of names mutated in one loop or function scope.
type frame struct {
	names *ast.NameSet
	// function frames are mutation boundaries; loop frames are transparent.
	function bool
	// declared holds nonlocal/global names of a function frame. Mutations of these
	// resolve to the enclosing scope.
	declared *ast.NameSet
}

// frameStack mirrors the nesting of loops and function definitions.
type frameStack []*frame

// push creates a new scope level and returns a func that pops it exactly once.
func (s *frameStack) push(f *frame) func() *frame {
	*s = append(*s, f)
	depth := len(*s)
	popped := false
	return func() *frame {
		if !popped {
			popped = true
			*s = (*s)[:depth-1]
		}
		return f
	}
}

// record adds name to the innermost frame that owns it, starting at index from.
// Function frames that declared the name nonlocal/global pass it further out.
func (s frameStack) record(name string, from int) {
	for i := from; i >= 0; i-- {
		f := s[i]
		if f.function && f.declared.Has(name) {
			continue
		}
		f.names.Add(name)
		return
	}
}

func (s frameStack) recordTop(name string) {
	s.record(name, len(s)-1)
}

// AnalyzeMutations computes the Mutation Annotation of a loop or function definition
// and of every loop and function nested in it, attaching each to its node.
//
// Loops seed their frame with their targets and merge it into the enclosing frame
// on exit. Functions seed theirs with their parameters and never merge, except for
// names declared nonlocal or global, which are recorded in the enclosing frame instead.
func AnalyzeMutations(node ast.Stmt) error {
	a := &mutationAnalyzer{}
	switch n := node.(type) {
	case *ast.Loop:
		return a.visitLoop(n)
	case *ast.FunctionDef:
		return a.visitFunction(n)
	default:
		return fmt.Errorf("%w: mutation analysis needs a loop or function definition, got %T", ast.ErrUnsupported, node)
	}
}

// AnalyzeBlock annotates every loop and function definition reachable from stmts
// without crossing another loop or function, such as those of a module body.
func AnalyzeBlock(stmts []ast.Stmt) error {
	a := &mutationAnalyzer{}
	return a.visitBlock(stmts)
}

type mutationAnalyzer struct {
	frames frameStack
}

func (a *mutationAnalyzer) visitBlock(stmts []ast.Stmt) error {
	for _, s := range stmts {
		if err := a.visitStatement(s); err != nil {
			return err
		}
	}
	return nil
}

func (a *mutationAnalyzer) visitStatement(s ast.Stmt) error {
	switch n := s.(type) {
	case *ast.Assign:
		for _, target := range n.Targets {
			a.recordTarget(target)
		}
	case *ast.AugAssign:
		a.recordTarget(n.Target)
	case *ast.If:
		if err := a.visitBlock(n.Body); err != nil {
			return err
		}
		return a.visitBlock(n.Orelse)
	case *ast.Loop:
		return a.visitLoop(n)
	case *ast.FunctionDef:
		a.frames.recordTop(n.Name)
		return a.visitFunction(n)
	case *ast.ClassDef:
		a.frames.recordTop(n.Name)
		return a.visitClass(n)
	case nil:
		return fmt.Errorf("%w: nil statement", ast.ErrMalformed)
	}
	return nil
}

func (a *mutationAnalyzer) recordTarget(target ast.Expr) {
	for _, name := range ast.BoundNames(target) {
		a.frames.recordTop(name)
	}
}

func (a *mutationAnalyzer) visitLoop(n *ast.Loop) error {
	seed := ast.NewNameSet()
	if n.Kind == ast.LoopFor {
		names, err := ast.TargetNames(n.Target)
		if err != nil {
			return fmt.Errorf("for loop at line %d: %w", n.Pos.Line, err)
		}
		for _, name := range names {
			seed.Add(name)
		}
	}

	pop := a.frames.push(&frame{names: seed})
	err := a.visitBlock(n.Body)
	f := pop()
	if err != nil {
		return err
	}

	n.Mutated = f.names
	// Loops are transparent: their mutations belong to the enclosing scope too.
	for _, name := range f.names.Sorted() {
		a.frames.recordTop(name)
	}
	return nil
}

func (a *mutationAnalyzer) visitFunction(n *ast.FunctionDef) error {
	f := &frame{
		names:    ast.NewNameSet(n.Params...),
		function: true,
		declared: DeclaredNames(n.Body),
	}

	pop := a.frames.push(f)
	err := a.visitBlock(n.Body)
	pop()
	if err != nil {
		return fmt.Errorf("function %s: %w", n.Name, err)
	}

	n.Mutated = f.names
	return nil
}

// visitClass annotates loops and functions of a class body. Class attributes are
// not variables of any enclosing scope.
func (a *mutationAnalyzer) visitClass(n *ast.ClassDef) error {
	pop := a.frames.push(&frame{names: ast.NewNameSet(), function: true, declared: ast.NewNameSet()})
	defer pop()
	if err := a.visitBlock(n.Body); err != nil {
		return fmt.Errorf("class %s: %w", n.Name, err)
	}
	return nil
}

// DeclaredNames collects the nonlocal and global declarations of a function body,
// including those inside its conditionals and loops.
func DeclaredNames(stmts []ast.Stmt) *ast.NameSet {
	names := ast.NewNameSet()
	var walk func([]ast.Stmt)
	walk = func(stmts []ast.Stmt) {
		for _, s := range stmts {
			switch n := s.(type) {
			case *ast.Nonlocal:
				for _, name := range n.Names {
					names.Add(name)
				}
			case *ast.Global:
				for _, name := range n.Names {
					names.Add(name)
				}
			case *ast.If:
				walk(n.Body)
				walk(n.Orelse)
			case *ast.Loop:
				walk(n.Body)
			}
		}
	}
	walk(stmts)
	return names
}
