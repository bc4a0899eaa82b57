// Package order is the side channel for purchase messages. A classifier
// decides whether a chat message is an order, a parser extracts its line
// items, and a tool-calling loop computes the total with add and multiply
// tools. Order messages bypass the retrieval workflow entirely.
package order
