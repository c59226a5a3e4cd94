// Package caseledgerservice implements the financial core of an insolvency
// case: the append-only fund ledger, the claims register with its
// adjudication lifecycle, and pro-rata distribution rounds.
//
// The module owns the transaction, claim and distribution tables and exposes
// HTTP command/query handlers plus the outbox relay worker entrypoint.
package caseledgerservice
