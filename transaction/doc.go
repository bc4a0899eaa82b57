// Package transaction persists the expense records exposed by the HTTP API.
// Two backends are provided: SQLite for single-node deployments and
// PostgreSQL for shared ones.
package transaction
