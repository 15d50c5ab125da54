// Package aggregates implements the domain aggregate contracts on top of the
// table repos in internal/data/repos.
//
// Each operation runs its access guard, its invariant checks and its writes in
// one transaction obtained from a TxRunner. Blob side effects are ordered
// around that transaction as documented on each aggregate.
package aggregates
