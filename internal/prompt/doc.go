// Package prompt asks the operator questions on a terminal. Engines depend on
// the Confirmer and Selector interfaces so tests can script the answers.
package prompt
