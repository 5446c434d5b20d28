// Package pred implements fully saturated boolean predicates which can be
// combined, named, tagged, inspected and turned into assertions at runtime.
//
// A Predicate binds all the data it needs at construction time, so Eval is
// deterministic and can be repeated. Predicates are combined with And, Or,
// Not and Implies, all of which are predicates themselves.
//
// An Assertion is a predicate paired with a function producing an error when
// the predicate does not hold. Conjunctions of assertions are evaluated left
// to right and stop at the first failure:
//
//	check := pred.All(
//		pred.ToAssert(pred.Named(pred.GreaterThan(h2, h1), "is_monotonic_height"),
//			func(pred.Predicate) error { return errNonIncreasing }),
//		pred.ToAssert(...),
//	)
//	if err := pred.AssertOf(check); err != nil {
//		...
//	}
//
// Inspection is an optional capability. Predicates that implement Inspector
// can be rendered into a Tree showing the label and value of every
// sub-predicate, which is useful when diagnosing why a composite check failed.
// All predicates in this package implement it.
package pred
