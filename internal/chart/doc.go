// Package chart defines the natal-chart value model. A BirthInput resolves to
// a Chart carrying its derived solar instant; a Record is a saved Chart.
//
// Two charts denote the same natal chart when every raw birth field matches
// and the derived solar instant strings match (SameChart). Key derives a
// content-addressed identity key with the same equivalence, which the chart
// store uses as its lookup index.
//
// Record values encode to the durable wire shape used under the
// "zwds-saved-charts" key.
package chart
