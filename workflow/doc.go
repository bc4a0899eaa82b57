// Package workflow implements the adaptive answering state machine: route the
// question to corpus retrieval or web search, grade the retrieved evidence,
// fall back to web search when evidence is missing or partially irrelevant,
// generate an answer, and verify it for groundedness and usefulness with a
// bounded self-correction loop.
//
// The graph is an explicit finite-state machine: a typed State enum, a pure
// Transition function and a small driver loop in Engine.Run. There are two
// cycles: re-draft on an ungrounded answer (same evidence), and fetch more
// web evidence on a grounded-but-unhelpful answer. Both share a single retry
// budget; when it is exhausted the run terminates with the last draft marked
// unverified instead of looping forever.
package workflow
