// Package flags implements the filename flag convention and the grammar of
// recognized flag shapes.
//
// A flag is a token embedded in an entry name between delimiters, for example
// the "24" and "outline 2 000000" in "Body.24.outline 2 000000.ttf". Each shape
// is a Matcher that accepts a whole token or nothing. Tokens that match no
// shape are inert: they are legal metadata for other tasks or for humans.
//
// Scanning policy is chosen by the caller per flag: First for first-match-wins,
// Last for last-match-wins, All to collect every match.
package flags
