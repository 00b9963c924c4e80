// Package optimizer rewrites relational-algebra plans into equivalent,
// cheaper ones.
//
// Every pass consumes a plan and returns a new one; inputs are never
// modified. The central contract is soundness: evaluating the output of any
// pass, or of any chain of passes, yields the same column set and the same
// multiset of rows as evaluating its input.
//
// Pass ordering matters. Column discovery (DLC) must run before any pass
// that inspects Load columns, and the pushdown passes only understand
// unfused plans, so Unfuse (UNF) must run first on trees that may already
// hold fused nodes. A pass that meets a shape it cannot handle fails with a
// PrecedenceError rather than guessing. The default chain is
//
//	UNF, DLC, PDS, APE, FCE
package optimizer
