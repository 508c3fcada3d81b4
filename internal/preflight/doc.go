// Package preflight provides readiness checks for the external tools and
// filesystem paths that popquiz depends on.
//
// These checks run in two contexts:
//   - The workflow calls RunAll before touching a round. If any check
//     fails, the run stops before sources are fetched or outputs deleted.
//   - The CLI "popquiz preflight" command reports the same results to the
//     terminal, and "popquiz status" shows the ProbeTools snapshot.
package preflight
