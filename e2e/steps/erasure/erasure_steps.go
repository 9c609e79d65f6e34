package erasure

import (
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the subset of the scenario context erasure steps need.
type TestContext interface {
	POST(path string, body any, headers map[string]string) error
	GET(path string, headers map[string]string) error
	DELETE(path string, headers map[string]string) error
	LastStatus() int
	LastBody() string
	GetResponseField(field string) (any, error)
	AdminKey() string
	Remember(key, value string)
	Recall(key string) (string, error)
}

// RegisterSteps registers admin-erasure and token-redemption step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &erasureSteps{tc: tc}

	ctx.Step(`^the admin looks up the respondent "([^"]*)" on form "([^"]*)"$`, steps.lookUpRespondent)
	ctx.Step(`^the admin erases that respondent$`, steps.eraseRespondent)
	ctx.Step(`^the admin mints an erasure token for that respondent$`, steps.mintToken)
	ctx.Step(`^the erasure token is redeemed$`, steps.redeemToken)
	ctx.Step(`^the erasure succeeds$`, steps.erasureSucceeds)
	ctx.Step(`^the respondent "([^"]*)" is gone from the roster of form "([^"]*)"$`, steps.respondentGoneFromRoster)
}

type erasureSteps struct {
	tc TestContext
}

func (s *erasureSteps) adminHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + s.tc.AdminKey()}
}

func (s *erasureSteps) lookUpRespondent(email, formID string) error {
	if err := s.tc.GET("/api/admin/forms/"+formID+"/respondents", s.adminHeaders()); err != nil {
		return err
	}
	if s.tc.LastStatus() != 200 {
		return fmt.Errorf("roster lookup returned %d: %s", s.tc.LastStatus(), s.tc.LastBody())
	}
	respondentID, err := s.findRespondentByEmail(email)
	if err != nil {
		return err
	}
	s.tc.Remember("respondent_id", respondentID)
	return nil
}

func (s *erasureSteps) eraseRespondent() error {
	respondentID, err := s.tc.Recall("respondent_id")
	if err != nil {
		return err
	}
	return s.tc.DELETE("/api/admin/respondents/"+respondentID, s.adminHeaders())
}

func (s *erasureSteps) mintToken() error {
	respondentID, err := s.tc.Recall("respondent_id")
	if err != nil {
		return err
	}
	if err := s.tc.POST("/api/admin/respondents/"+respondentID+"/erasure-token", nil, s.adminHeaders()); err != nil {
		return err
	}
	if s.tc.LastStatus() != 201 {
		return fmt.Errorf("token mint returned %d: %s", s.tc.LastStatus(), s.tc.LastBody())
	}
	token, err := s.tc.GetResponseField("token")
	if err != nil {
		return err
	}
	s.tc.Remember("erasure_token", fmt.Sprintf("%v", token))
	return nil
}

func (s *erasureSteps) redeemToken() error {
	token, err := s.tc.Recall("erasure_token")
	if err != nil {
		return err
	}
	return s.tc.POST("/api/privacy/erasure", map[string]any{"token": token}, nil)
}

func (s *erasureSteps) erasureSucceeds() error {
	if s.tc.LastStatus() != 200 {
		return fmt.Errorf("expected 200, got %d: %s", s.tc.LastStatus(), s.tc.LastBody())
	}
	status, err := s.tc.GetResponseField("status")
	if err != nil {
		return err
	}
	if status != "erased" {
		return fmt.Errorf("expected status erased, got %v", status)
	}
	return nil
}

func (s *erasureSteps) respondentGoneFromRoster(email, formID string) error {
	if err := s.tc.GET("/api/admin/forms/"+formID+"/respondents", s.adminHeaders()); err != nil {
		return err
	}
	if s.tc.LastStatus() != 200 {
		return fmt.Errorf("roster lookup returned %d: %s", s.tc.LastStatus(), s.tc.LastBody())
	}
	if _, err := s.findRespondentByEmail(email); err == nil {
		return fmt.Errorf("respondent %q still on the roster", email)
	}
	return nil
}

func (s *erasureSteps) findRespondentByEmail(email string) (string, error) {
	items, err := s.tc.GetResponseField("items")
	if err != nil {
		return "", err
	}
	rows, ok := items.([]any)
	if !ok {
		return "", fmt.Errorf("items is not a list: %s", s.tc.LastBody())
	}
	for _, row := range rows {
		entry, ok := row.(map[string]any)
		if !ok {
			continue
		}
		if entry["email"] == email {
			id, _ := entry["respondent_id"].(string)
			if id == "" {
				return "", fmt.Errorf("respondent row missing id: %v", entry)
			}
			return id, nil
		}
	}
	return "", fmt.Errorf("no respondent with email %q on the roster", email)
}
