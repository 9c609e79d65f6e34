package submission

import (
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext is the subset of the scenario context submission steps need.
type TestContext interface {
	POST(path string, body any, headers map[string]string) error
	GET(path string, headers map[string]string) error
	LastStatus() int
	LastBody() string
	GetResponseField(field string) (any, error)
	Remember(key, value string)
}

// RegisterSteps registers submission and duplicate-detection step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &submissionSteps{tc: tc}

	ctx.Step(`^"([^"]*)" submits form "([^"]*)" as "([^"]*)"$`, steps.submitForm)
	ctx.Step(`^the submission is accepted$`, steps.submissionIsAccepted)
	ctx.Step(`^the submission is rejected as a duplicate$`, steps.submissionIsDuplicate)
	ctx.Step(`^I check whether "([^"]*)" has submitted form "([^"]*)"$`, steps.checkSubmission)
	ctx.Step(`^the check reports (true|false)$`, steps.checkReports)
	ctx.Step(`^I fetch the statistics for form "([^"]*)"$`, steps.fetchStats)
	ctx.Step(`^the statistics count (\d+) responses?$`, steps.statsCountResponses)
	ctx.Step(`^the statistics do not mention "([^"]*)"$`, steps.statsDoNotMention)
}

type submissionSteps struct {
	tc TestContext
}

func (s *submissionSteps) submitForm(email, formID, role string) error {
	body := map[string]any{
		"respondent_name":  "E2E Respondent",
		"respondent_email": email,
		"role":             role,
		"answers": []map[string]any{
			{"question_id": "q1", "value": 4},
			{"question_id": "q2", "value": "fine overall"},
		},
	}
	if err := s.tc.POST("/api/forms/"+formID+"/submit", body, nil); err != nil {
		return err
	}
	if s.tc.LastStatus() == 201 {
		if id, err := s.tc.GetResponseField("response_id"); err == nil {
			s.tc.Remember("response_id", fmt.Sprintf("%v", id))
		}
	}
	return nil
}

func (s *submissionSteps) submissionIsAccepted() error {
	if s.tc.LastStatus() != 201 {
		return fmt.Errorf("expected 201, got %d: %s", s.tc.LastStatus(), s.tc.LastBody())
	}
	if _, err := s.tc.GetResponseField("response_id"); err != nil {
		return err
	}
	return nil
}

func (s *submissionSteps) submissionIsDuplicate() error {
	if s.tc.LastStatus() != 400 {
		return fmt.Errorf("expected 400, got %d: %s", s.tc.LastStatus(), s.tc.LastBody())
	}
	code, err := s.tc.GetResponseField("error")
	if err != nil {
		return err
	}
	if code != "duplicate_submission" {
		return fmt.Errorf("expected error code duplicate_submission, got %v", code)
	}
	return nil
}

func (s *submissionSteps) checkSubmission(email, formID string) error {
	return s.tc.POST("/api/forms/"+formID+"/check-submission", map[string]any{"email": email}, nil)
}

func (s *submissionSteps) checkReports(expected string) error {
	value, err := s.tc.GetResponseField("has_submitted")
	if err != nil {
		return err
	}
	if fmt.Sprintf("%v", value) != expected {
		return fmt.Errorf("expected has_submitted=%s, got %v", expected, value)
	}
	return nil
}

func (s *submissionSteps) fetchStats(formID string) error {
	return s.tc.GET("/api/forms/"+formID+"/stats", nil)
}

func (s *submissionSteps) statsCountResponses(expected int) error {
	value, err := s.tc.GetResponseField("total_responses")
	if err != nil {
		return err
	}
	count, ok := value.(float64)
	if !ok || int(count) != expected {
		return fmt.Errorf("expected total_responses=%d, got %v", expected, value)
	}
	return nil
}

func (s *submissionSteps) statsDoNotMention(needle string) error {
	body := s.tc.LastBody()
	if strings.Contains(strings.ToLower(body), strings.ToLower(needle)) {
		return fmt.Errorf("statistics leaked %q: %s", needle, body)
	}
	return nil
}
