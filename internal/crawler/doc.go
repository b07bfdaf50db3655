// Package crawler implements the generic engine for crawling a hierarchical cloud resource graph.
//
// The graph is rooted at an organization and fans out through folders, projects and their
// children (buckets, datasets, compute instances, Cloud SQL instances, ...). The engine knows
// nothing about how listings are performed over the network: it consumes a Client for listings
// and policy reads, and a Visitor that is invoked once per discovered resource and that supplies
// the dispatch mechanism for possibly-concurrent descent into subtrees.
//
// The algorithm for crawling the graph is as follows:
//  1. The caller constructs the root resource (see FetchOrganization) and calls Traverse with an
//     empty ancestor chain.
//  2. Traverse attaches the ancestor chain to the resource and calls Visitor.Visit exactly once,
//     before any child is visited.
//  3. For each child iterator registered for the resource's kind, in declared order, children are
//     pulled lazily from the Client. Leaf children are traversed inline; non-leaf children are
//     handed to Visitor.Dispatch as independent units of work.
//  4. A failed listing aborts only the Traverse call it occurred in. Subtrees already dispatched
//     keep running, so one broken branch never takes down the rest of the crawl.
//
// Visitation of a resource always precedes visitation of its children. No ordering guarantee is
// made between dispatched subtrees, or between a dispatched subtree and the continued enumeration
// of its siblings.
package crawler
