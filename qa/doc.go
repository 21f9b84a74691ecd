// Package qa answers questions about ad-account performance.
//
// A Chain is an explicit pipeline:
//
//	retrieve(question) -> join(chunks) -> render(template, context, question) -> generate(prompt)
//
// Each stage is supplied as a collaborator, so the chain can run against
// the remote store, the local index or test doubles.
package qa
