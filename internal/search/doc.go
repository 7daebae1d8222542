// Package search resolves a free-text reference ("my dentist appointment")
// to concrete calendar events.
//
// A search runs in two passes over the events of the coming year. The exact
// pass keeps events whose summary or description contains the keyword,
// ignoring case. Only when it finds nothing does the fuzzy pass run, keeping
// events whose summary or description is similar enough to the keyword
// according to the difflib similarity ratio.
package search
