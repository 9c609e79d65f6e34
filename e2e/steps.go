package e2e

import (
	"github.com/cucumber/godog"

	"formpulse/e2e/steps/common"
	"formpulse/e2e/steps/erasure"
	"formpulse/e2e/steps/submission"
)

// RegisterSteps registers all step definitions from modular packages.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Common steps (health checks, generic status and field assertions)
	common.RegisterSteps(ctx, tc)

	// Submission and duplicate-detection steps
	submission.RegisterSteps(ctx, tc)

	// Erasure steps (admin deletion and self-service token flow)
	erasure.RegisterSteps(ctx, tc)
}
