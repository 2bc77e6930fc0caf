// Package parse provides the business boundary for Scribe's incident parsing.
// It defines the Service (input precondition, metrics, async notify), Engine
// (single-turn LLM orchestration), the validation/normalization pipeline that
// turns a raw model response into a Record, and the domain models.
package parse
