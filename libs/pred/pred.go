package pred

import (
	"fmt"
	"strconv"
)

// Predicate is a fully saturated boolean function.
type Predicate interface {
	// Eval evaluates the predicate. It must not have side effects.
	Eval() bool
}

// Assertion is a check that reports why it failed.
type Assertion interface {
	Assert() error
}

// Ordered is the set of types LessThan and GreaterThan can compare.
type Ordered interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64 |
		~string
}

// ErrUnsatisfied is returned by AssertOf for predicates which carry no
// failure function of their own.
type ErrUnsatisfied struct {
	Label string
}

func (e ErrUnsatisfied) Error() string {
	return fmt.Sprintf("predicate %q is not satisfied", e.Label)
}

// AssertOf asserts p. Assertions fail with their own error, any other
// predicate fails with ErrUnsatisfied.
func AssertOf(p Predicate) error {
	if a, ok := p.(Assertion); ok {
		return a.Assert()
	}
	if p.Eval() {
		return nil
	}
	return ErrUnsatisfied{Label: labelOf(p)}
}

func labelOf(p Predicate) string {
	switch p := p.(type) {
	case *NamedPredicate:
		return p.name
	case Inspector:
		return p.Inspect().Label
	default:
		return fmt.Sprintf("%T", p)
	}
}

//-----------------------------------------------------------------------------
// leaves

// ConstPredicate always evaluates to the same value.
type ConstPredicate struct {
	value bool
}

// Always builds a predicate which always evaluates to value.
func Always(value bool) ConstPredicate {
	return ConstPredicate{value: value}
}

// Never builds a predicate which always evaluates to the negation of value.
func Never(value bool) ConstPredicate {
	return Always(!value)
}

func (p ConstPredicate) Eval() bool { return p.value }

func (p ConstPredicate) Inspect() Tree {
	return Leaf(strconv.FormatBool(p.value), p.value)
}

// FuncPredicate evaluates to the result of a closure.
type FuncPredicate struct {
	f func() bool
}

// FromFunc builds a predicate which evaluates to the result of invoking f.
// f must not have side effects; failures of whatever f computes must be
// reported as false.
func FromFunc(f func() bool) FuncPredicate {
	return FuncPredicate{f: f}
}

func (p FuncPredicate) Eval() bool { return p.f() }

func (p FuncPredicate) Inspect() Tree {
	return Leaf("<function>", p.Eval())
}

// EqualPredicate holds when both values are equal.
type EqualPredicate[T comparable] struct {
	left, right T
}

// Equal builds a predicate which holds when left == right.
func Equal[T comparable](left, right T) EqualPredicate[T] {
	return EqualPredicate[T]{left: left, right: right}
}

func (p EqualPredicate[T]) Eval() bool { return p.left == p.right }

func (p EqualPredicate[T]) Inspect() Tree {
	return Leaf(fmt.Sprintf("%v == %v", p.left, p.right), p.Eval())
}

// LessThanPredicate holds when left is strictly smaller than right.
type LessThanPredicate[T Ordered] struct {
	left, right T
}

// LessThan builds a predicate which holds when left < right.
func LessThan[T Ordered](left, right T) LessThanPredicate[T] {
	return LessThanPredicate[T]{left: left, right: right}
}

func (p LessThanPredicate[T]) Eval() bool { return p.left < p.right }

func (p LessThanPredicate[T]) Inspect() Tree {
	return Leaf(fmt.Sprintf("%v < %v", p.left, p.right), p.Eval())
}

// GreaterThanPredicate holds when left is strictly greater than right.
type GreaterThanPredicate[T Ordered] struct {
	left, right T
}

// GreaterThan builds a predicate which holds when left > right.
func GreaterThan[T Ordered](left, right T) GreaterThanPredicate[T] {
	return GreaterThanPredicate[T]{left: left, right: right}
}

func (p GreaterThanPredicate[T]) Eval() bool { return p.left > p.right }

func (p GreaterThanPredicate[T]) Inspect() Tree {
	return Leaf(fmt.Sprintf("%v > %v", p.left, p.right), p.Eval())
}

//-----------------------------------------------------------------------------
// combinators

// AndPredicate is the conjunction of two predicates.
//
// As an assertion it asserts the left side first and only asserts the right
// side if the left one holds.
type AndPredicate struct {
	left, right Predicate
}

// And builds the conjunction of left and right.
func And(left, right Predicate) *AndPredicate {
	return &AndPredicate{left: left, right: right}
}

// All builds the left-nested conjunction of ps, so that
// All(a, b, c) == And(And(a, b), c). The conjunction of nothing holds.
func All(ps ...Predicate) Predicate {
	if len(ps) == 0 {
		return Always(true)
	}
	acc := ps[0]
	for _, p := range ps[1:] {
		acc = And(acc, p)
	}
	return acc
}

func (p *AndPredicate) Eval() bool {
	return p.left.Eval() && p.right.Eval()
}

func (p *AndPredicate) Assert() error {
	if err := AssertOf(p.left); err != nil {
		return err
	}
	return AssertOf(p.right)
}

func (p *AndPredicate) Inspect() Tree {
	return Node("and", p.Eval(), Inspect(p.left), Inspect(p.right))
}

// OrPredicate is the disjunction of two predicates.
//
// As an assertion the right side is only asserted when the left one fails,
// and if both fail the error of the right side is returned.
type OrPredicate struct {
	left, right Predicate
}

// Or builds the disjunction of left and right.
func Or(left, right Predicate) *OrPredicate {
	return &OrPredicate{left: left, right: right}
}

func (p *OrPredicate) Eval() bool {
	return p.left.Eval() || p.right.Eval()
}

func (p *OrPredicate) Assert() error {
	if AssertOf(p.left) == nil {
		return nil
	}
	return AssertOf(p.right)
}

func (p *OrPredicate) Inspect() Tree {
	return Node("or", p.Eval(), Inspect(p.left), Inspect(p.right))
}

// NotPredicate is the negation of a predicate.
type NotPredicate struct {
	pred Predicate
}

// Not builds the negation of p.
func Not(p Predicate) *NotPredicate {
	return &NotPredicate{pred: p}
}

func (p *NotPredicate) Eval() bool {
	return !p.pred.Eval()
}

func (p *NotPredicate) Inspect() Tree {
	return Node("not", p.Eval(), Inspect(p.pred))
}

// ImpliesPredicate is the implication assumption => conclusion.
type ImpliesPredicate struct {
	assumption, conclusion Predicate
}

// Implies builds the implication of conclusion by assumption.
func Implies(assumption, conclusion Predicate) *ImpliesPredicate {
	return &ImpliesPredicate{assumption: assumption, conclusion: conclusion}
}

func (p *ImpliesPredicate) Eval() bool {
	return !p.assumption.Eval() || p.conclusion.Eval()
}

func (p *ImpliesPredicate) Inspect() Tree {
	return Node("implies", p.Eval(), Inspect(p.assumption), Inspect(p.conclusion))
}

//-----------------------------------------------------------------------------
// names and tags

// NamedPredicate attaches a human readable name to a predicate. The name is
// shown when inspecting and does not change evaluation.
type NamedPredicate struct {
	pred Predicate
	name string
}

// Named gives p a name.
func Named(p Predicate, name string) *NamedPredicate {
	return &NamedPredicate{pred: p, name: name}
}

// Name returns the name given to the predicate.
func (p *NamedPredicate) Name() string { return p.name }

func (p *NamedPredicate) Eval() bool { return p.pred.Eval() }

func (p *NamedPredicate) Assert() error {
	if a, ok := p.pred.(Assertion); ok {
		return a.Assert()
	}
	if p.pred.Eval() {
		return nil
	}
	return ErrUnsatisfied{Label: p.name}
}

func (p *NamedPredicate) Inspect() Tree {
	return Node(p.name, p.Eval(), Inspect(p.pred))
}

// Tagged carries a type-level tag T. Functions can require a Tagged[T] to
// make sure they are handed the predicate they expect.
type Tagged[T any] struct {
	pred Predicate
}

// Tag attaches the type-level tag T to p.
func Tag[T any](p Predicate) Tagged[T] {
	return Tagged[T]{pred: p}
}

// Untag returns the tagged predicate.
func (p Tagged[T]) Untag() Predicate { return p.pred }

func (p Tagged[T]) Eval() bool { return p.pred.Eval() }

func (p Tagged[T]) Assert() error { return AssertOf(p.pred) }

func (p Tagged[T]) Inspect() Tree { return Inspect(p.pred) }

//-----------------------------------------------------------------------------
// assertions

// AssertPredicate is a predicate bound to a function computing the error
// reported when the predicate does not hold.
type AssertPredicate struct {
	pred    Predicate
	ifFalse func(Predicate) error
}

var (
	_ Assertion = (*AssertPredicate)(nil)
	_ Predicate = (*AssertPredicate)(nil)
	_ Inspector = (*AssertPredicate)(nil)
)

// ToAssert turns p into an assertion. ifFalse is called with p when p
// evaluates to false.
func ToAssert(p Predicate, ifFalse func(Predicate) error) *AssertPredicate {
	return &AssertPredicate{pred: p, ifFalse: ifFalse}
}

// ConstAssert builds an assertion which fails with f() unless value is true.
func ConstAssert(value bool, f func() error) *AssertPredicate {
	return ToAssert(Always(value), func(Predicate) error { return f() })
}

// Assert evaluates the predicate exactly once.
func (a *AssertPredicate) Assert() error {
	if a.pred.Eval() {
		return nil
	}
	if err := a.ifFalse(a.pred); err != nil {
		return err
	}
	return ErrUnsatisfied{Label: labelOf(a.pred)}
}

func (a *AssertPredicate) Eval() bool {
	return a.Assert() == nil
}

func (a *AssertPredicate) Inspect() Tree {
	return Inspect(a.pred)
}
