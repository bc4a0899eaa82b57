// Package judge implements the four binary LLM judges that drive the
// workflow's control flow: the question router, the per-document relevance
// grader, the hallucination grader and the usefulness grader.
//
// Every judge call must yield a strict single-key JSON verdict. The raw model
// output is parsed immediately after the call; anything other than the
// expected key and value domain is an *Error, never a semantic "no".
package judge
