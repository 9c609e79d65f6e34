package store

import (
	"context"
	"sort"
	"sync"

	"formpulse/internal/submission/models"
	id "formpulse/pkg/domain"
	"formpulse/pkg/platform/sentinel"
)

// MemoryDB backs the stores with process-local maps. It favors clarity over
// performance: transactions copy the whole state and swap it on commit, and a
// single mutex serializes them. Used in tests and for salt-free local runs.
type MemoryDB struct {
	mu    sync.Mutex
	state *memState
}

type respondentFormKey struct {
	respondent id.RespondentID
	form       id.FormID
}

type memState struct {
	respondents   map[id.RespondentID]models.Respondent
	byFingerprint map[string]id.RespondentID
	responses     map[id.ResponseID]models.Response
	byPair        map[respondentFormKey]id.ResponseID
	answers       map[id.AnswerID]models.Answer
}

func newMemState() *memState {
	return &memState{
		respondents:   make(map[id.RespondentID]models.Respondent),
		byFingerprint: make(map[string]id.RespondentID),
		responses:     make(map[id.ResponseID]models.Response),
		byPair:        make(map[respondentFormKey]id.ResponseID),
		answers:       make(map[id.AnswerID]models.Answer),
	}
}

func (s *memState) clone() *memState {
	next := newMemState()
	for k, v := range s.respondents {
		next.respondents[k] = v
	}
	for k, v := range s.byFingerprint {
		next.byFingerprint[k] = v
	}
	for k, v := range s.responses {
		next.responses[k] = v
	}
	for k, v := range s.byPair {
		next.byPair[k] = v
	}
	for k, v := range s.answers {
		next.answers[k] = v
	}
	return next
}

// NewMemory creates an empty in-memory database.
func NewMemory() *MemoryDB {
	return &MemoryDB{state: newMemState()}
}

// Stores returns a bundle reading and writing the live state directly.
// Writes outside RunInTx are applied immediately, like autocommit.
func (db *MemoryDB) Stores() Stores {
	return storesOver(db, nil)
}

// RunInTx executes fn against a copy of the state and swaps the copy in only
// when fn succeeds. The mutex is held for the duration, so transactions are
// serialized; uniqueness checks inside a transaction are therefore race-free,
// matching what the SQL constraints give the postgres implementation.
func (db *MemoryDB) RunInTx(ctx context.Context, fn func(stores Stores) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	txState := db.state.clone()
	if err := fn(storesOver(db, txState)); err != nil {
		return err
	}
	db.state = txState
	return nil
}

// storesOver builds a bundle bound either to a transaction state (txState
// non-nil, caller holds the mutex) or to the live state (autocommit).
func storesOver(db *MemoryDB, txState *memState) Stores {
	access := memAccess{db: db, tx: txState}
	return Stores{
		Respondents: &memRespondents{access},
		Responses:   &memResponses{access},
		Answers:     &memAnswers{access},
	}
}

type memAccess struct {
	db *MemoryDB
	tx *memState
}

// with runs fn on the right state under the right locking discipline.
func (a memAccess) with(fn func(s *memState) error) error {
	if a.tx != nil {
		return fn(a.tx)
	}
	a.db.mu.Lock()
	defer a.db.mu.Unlock()
	return fn(a.db.state)
}

type memRespondents struct{ memAccess }

func (m *memRespondents) FindByFingerprint(_ context.Context, fingerprint string) (*models.Respondent, error) {
	var found *models.Respondent
	err := m.with(func(s *memState) error {
		respondentID, ok := s.byFingerprint[fingerprint]
		if !ok {
			return sentinel.ErrNotFound
		}
		r := s.respondents[respondentID]
		found = &r
		return nil
	})
	return found, err
}

func (m *memRespondents) Create(_ context.Context, respondent *models.Respondent) error {
	return m.with(func(s *memState) error {
		if _, exists := s.byFingerprint[respondent.Fingerprint]; exists {
			return sentinel.ErrConflict
		}
		s.respondents[respondent.ID] = *respondent
		s.byFingerprint[respondent.Fingerprint] = respondent.ID
		return nil
	})
}

func (m *memRespondents) DeleteByID(_ context.Context, respondentID id.RespondentID) (bool, error) {
	deleted := false
	err := m.with(func(s *memState) error {
		r, ok := s.respondents[respondentID]
		if !ok {
			return nil
		}
		delete(s.respondents, respondentID)
		delete(s.byFingerprint, r.Fingerprint)
		deleted = true
		return nil
	})
	return deleted, err
}

func (m *memRespondents) ListByForm(_ context.Context, formID id.FormID) ([]*models.Respondent, error) {
	var out []*models.Respondent
	err := m.with(func(s *memState) error {
		seen := make(map[id.RespondentID]bool)
		for _, resp := range s.responses {
			if resp.FormID != formID || seen[resp.RespondentID] {
				continue
			}
			seen[resp.RespondentID] = true
			if r, ok := s.respondents[resp.RespondentID]; ok {
				copied := r
				out = append(out, &copied)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}

type memResponses struct{ memAccess }

func (m *memResponses) CountByRespondentAndForm(_ context.Context, respondentID id.RespondentID, formID id.FormID) (int, error) {
	count := 0
	err := m.with(func(s *memState) error {
		if _, ok := s.byPair[respondentFormKey{respondentID, formID}]; ok {
			count = 1
		}
		return nil
	})
	return count, err
}

func (m *memResponses) Create(_ context.Context, response *models.Response) error {
	return m.with(func(s *memState) error {
		key := respondentFormKey{response.RespondentID, response.FormID}
		if _, exists := s.byPair[key]; exists {
			return sentinel.ErrConflict
		}
		s.responses[response.ID] = *response
		s.byPair[key] = response.ID
		return nil
	})
}

func (m *memResponses) ListByForm(_ context.Context, formID id.FormID) ([]*models.Response, error) {
	var out []*models.Response
	err := m.with(func(s *memState) error {
		for _, resp := range s.responses {
			if resp.FormID == formID {
				copied := resp
				out = append(out, &copied)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, err
}

type memAnswers struct{ memAccess }

func (m *memAnswers) Create(_ context.Context, answer *models.Answer) error {
	return m.with(func(s *memState) error {
		s.answers[answer.ID] = *answer
		return nil
	})
}

func (m *memAnswers) ListByResponse(_ context.Context, responseID id.ResponseID) ([]*models.Answer, error) {
	var out []*models.Answer
	err := m.with(func(s *memState) error {
		for _, a := range s.answers {
			if a.ResponseID == responseID {
				copied := a
				out = append(out, &copied)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}

func (m *memAnswers) ListByForm(_ context.Context, formID id.FormID) ([]*models.Answer, error) {
	var out []*models.Answer
	err := m.with(func(s *memState) error {
		forForm := make(map[id.ResponseID]bool)
		for respID, resp := range s.responses {
			if resp.FormID == formID {
				forForm[respID] = true
			}
		}
		for _, a := range s.answers {
			if forForm[a.ResponseID] {
				copied := a
				out = append(out, &copied)
			}
		}
		return nil
	})
	return out, err
}
