package common

import (
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the subset of the scenario context common steps need.
type TestContext interface {
	GET(path string, headers map[string]string) error
	LastStatus() int
	LastBody() string
	GetResponseField(field string) (any, error)
	ResponseContains(field string) bool
}

// RegisterSteps registers health-check and generic assertion steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the service is running$`, steps.serviceIsRunning)
	ctx.Step(`^the response status should be (\d+)$`, steps.responseStatusShouldBe)
	ctx.Step(`^the response should contain "([^"]*)"$`, steps.responseShouldContainField)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.responseFieldShouldBe)
	ctx.Step(`^the error code should be "([^"]*)"$`, steps.errorCodeShouldBe)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) serviceIsRunning() error {
	if err := s.tc.GET("/healthz", nil); err != nil {
		return err
	}
	if s.tc.LastStatus() != 200 {
		return fmt.Errorf("health probe returned %d", s.tc.LastStatus())
	}
	return nil
}

func (s *commonSteps) responseStatusShouldBe(expected int) error {
	if s.tc.LastStatus() != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, s.tc.LastStatus(), s.tc.LastBody())
	}
	return nil
}

func (s *commonSteps) responseShouldContainField(field string) error {
	if !s.tc.ResponseContains(field) {
		return fmt.Errorf("field %q missing from response: %s", field, s.tc.LastBody())
	}
	return nil
}

func (s *commonSteps) responseFieldShouldBe(field, expected string) error {
	value, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if fmt.Sprintf("%v", value) != expected {
		return fmt.Errorf("expected %q to be %q, got %v", field, expected, value)
	}
	return nil
}

func (s *commonSteps) errorCodeShouldBe(code string) error {
	return s.responseFieldShouldBe("error", code)
}
