// Package preflight provides readiness checks for the directories and
// services the pipeline depends on.
//
// The workflow runs RunAll before a pipeline run and refuses to start when a
// directory check fails. The doctor command runs the same checks plus the
// network probes (CheckCatalog, CheckSpotify) and binary availability.
package preflight
