// Package caseregistryservice owns the master records of insolvency
// proceedings: cases with their lifecycle and stage, and the creditor
// register. Deleting a case cascades into the ledger; deleting a
// creditor is restricted while financial history references it.
package caseregistryservice
