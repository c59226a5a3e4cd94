// Package audittrailservice serves the append-only activity log shared
// by the insolvency modules: filtered, cursor-paginated history reads
// plus practitioner notes. Entries are never updated or deleted, not
// even when their case is.
package audittrailservice
