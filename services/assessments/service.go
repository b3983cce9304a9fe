package assessments

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"talentgate/models"
)

var (
	ErrStorageDirRequired = errors.New("storage directory not provided")
	ErrTitleRequired      = errors.New("assessment title is required")
	ErrNoQuestions        = errors.New("assessment needs at least one question")
	ErrBadQuestion        = errors.New("question needs at least two choices and a correct index in range")
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrUnknownQuestion    = errors.New("answer references an unknown question")
	ErrChoiceOutOfRange   = errors.New("answer choice is out of range")
)

// Service manages persistence of assessment definitions.
type Service struct {
	mu          sync.RWMutex
	path        string
	assessments map[string]models.Assessment
}

// NewService creates an assessments service storing data inside the provided directory.
func NewService(storageDir string) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}

	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create assessments dir: %w", err)
	}

	svc := &Service{
		path:        filepath.Join(storageDir, "assessments.json"),
		assessments: make(map[string]models.Assessment),
	}

	if err := svc.load(); err != nil {
		return nil, err
	}

	return svc, nil
}

// Create registers a new assessment definition for a company.
func (s *Service) Create(companyID, title string, questions []models.Question) (models.Assessment, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Assessment{}, ErrTitleRequired
	}
	if len(questions) == 0 {
		return models.Assessment{}, ErrNoQuestions
	}
	for i := range questions {
		q := &questions[i]
		if len(q.Choices) < 2 || q.Correct < 0 || q.Correct >= len(q.Choices) {
			return models.Assessment{}, ErrBadQuestion
		}
		if strings.TrimSpace(q.ID) == "" {
			q.ID = uuid.NewString()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	assessment := models.Assessment{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		Title:     title,
		Questions: questions,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.assessments[assessment.ID] = assessment

	if err := s.saveLocked(); err != nil {
		delete(s.assessments, assessment.ID)
		return models.Assessment{}, err
	}

	return assessment, nil
}

// Get returns the assessment with the given ID if present.
func (s *Service) Get(id string) (models.Assessment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	assessment, ok := s.assessments[id]
	return assessment, ok
}

// Exists reports whether the assessment belongs to the given company.
func (s *Service) Exists(companyID, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	assessment, ok := s.assessments[id]
	return ok && assessment.CompanyID == companyID
}

// ListForCompany returns a company's assessments, newest first.
func (s *Service) ListForCompany(companyID string) []models.Assessment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	assessments := make([]models.Assessment, 0)
	for _, a := range s.assessments {
		if a.CompanyID == companyID {
			assessments = append(assessments, a)
		}
	}

	sort.Slice(assessments, func(i, j int) bool {
		return assessments[i].CreatedAt.After(assessments[j].CreatedAt)
	})

	return assessments
}

// Score grades answers against the assessment's key. Every answer must
// reference a known question with a choice in range; unanswered questions
// simply count as wrong.
func (s *Service) Score(assessmentID string, answers []models.Answer) (int, error) {
	s.mu.RLock()
	assessment, ok := s.assessments[assessmentID]
	s.mu.RUnlock()

	if !ok {
		return 0, ErrAssessmentNotFound
	}

	byID := make(map[string]models.Question, len(assessment.Questions))
	for _, q := range assessment.Questions {
		byID[q.ID] = q
	}
	for _, ans := range answers {
		q, ok := byID[ans.QuestionID]
		if !ok {
			return 0, ErrUnknownQuestion
		}
		if ans.Choice < 0 || ans.Choice >= len(q.Choices) {
			return 0, ErrChoiceOutOfRange
		}
	}

	return assessment.Score(answers), nil
}

func (s *Service) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open assessments file: %w", err)
	}
	defer file.Close()

	var stored []models.Assessment
	if err := json.NewDecoder(file).Decode(&stored); err != nil {
		return fmt.Errorf("decode assessments: %w", err)
	}

	s.assessments = make(map[string]models.Assessment, len(stored))
	for _, a := range stored {
		if strings.TrimSpace(a.ID) == "" {
			continue
		}
		s.assessments[a.ID] = a
	}

	return nil
}

func (s *Service) saveLocked() error {
	assessments := make([]models.Assessment, 0, len(s.assessments))
	for _, a := range s.assessments {
		assessments = append(assessments, a)
	}

	sort.Slice(assessments, func(i, j int) bool {
		return assessments[i].CreatedAt.Before(assessments[j].CreatedAt)
	})

	tmp := s.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create assessments temp file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(assessments); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode assessments: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync assessments: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close assessments temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace assessments file: %w", err)
	}

	return nil
}
