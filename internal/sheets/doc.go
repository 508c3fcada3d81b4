// Package sheets produces the printable question and answer sheets for a
// round as Markdown tables. The question sheet leaves the answer columns
// blank for teams to fill in; the answer sheet carries the expected values.
package sheets
