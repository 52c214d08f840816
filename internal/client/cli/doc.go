// Package cli implements the interactive PostProof command line: fetch a
// post's owner identity with proof, drive the out-of-band verification
// step, and render the attested post data.
package cli
