package service

import "signal_scanner/internal/models"

// NewEngine builds the evaluator for a validated profile.
func NewEngine(p models.Profile) Engine {
	return NewEvaluator(p)
}
