package service

import (
	"errors"
	"sync"
	"time"

	"learnsphere_backend/internal/model"
	"learnsphere_backend/internal/repository"
	"learnsphere_backend/internal/util"
	"learnsphere_backend/pkg/monitoring"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuizSessionState string

const (
	SessionInProgress QuizSessionState = "in_progress"
	SessionCompleted  QuizSessionState = "completed"
)

// QuizSession is server-held state for one pass through a course's questions.
// Sessions live in memory only; an abandoned one is swept after the TTL.
// mu guards the mutable fields so a submit's DB round trips only ever block
// operations on the same session.
type QuizSession struct {
	mu sync.Mutex

	ID        string
	UserID    uint
	CourseID  uint
	Questions []model.QuizQuestion
	Index     int
	Correct   int
	State     QuizSessionState
	Deadline  time.Time
	LastTouch time.Time
}

// QuestionView is a question as presented to the learner: no correct index.
type QuestionView struct {
	ID       uint     `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type SessionView struct {
	SessionID      string           `json:"sessionId"`
	CourseID       uint             `json:"courseId"`
	State          QuizSessionState `json:"state"`
	TotalQuestions int              `json:"totalQuestions"`
	QuestionIndex  int              `json:"questionIndex"`
	Question       *QuestionView    `json:"question,omitempty"`
	SecondsLeft    int              `json:"secondsLeft"`
}

type SubmitResult struct {
	Correct         bool             `json:"correct"`
	CorrectSoFar    int              `json:"correctSoFar"`
	Progress        int              `json:"progress"`
	State           QuizSessionState `json:"state"`
	NextQuestion    *QuestionView    `json:"nextQuestion,omitempty"`
	QuestionIndex   int              `json:"questionIndex"`
	TotalQuestions  int              `json:"totalQuestions"`
	FinalPercentage int              `json:"finalPercentage,omitempty"`
}

type QuizService struct {
	QuestionRepo *repository.QuizQuestionRepository
	AnswerRepo   *repository.QuizAnswerRepository
	Progress     *ProgressService

	questionTime time.Duration
	sessionTTL   time.Duration

	mu       sync.Mutex
	sessions map[string]*QuizSession
}

func NewQuizService(
	questionRepo *repository.QuizQuestionRepository,
	answerRepo *repository.QuizAnswerRepository,
	progress *ProgressService,
	questionSeconds, sessionTTLMinutes int,
) *QuizService {
	return &QuizService{
		QuestionRepo: questionRepo,
		AnswerRepo:   answerRepo,
		Progress:     progress,
		questionTime: time.Duration(questionSeconds) * time.Second,
		sessionTTL:   time.Duration(sessionTTLMinutes) * time.Minute,
		sessions:     make(map[string]*QuizSession),
	}
}

// StartSession opens a quiz pass for an enrolled learner. Questions already
// answered are filtered out; once every question has been answered the full set
// is presented again. That repeat behavior is long-standing and kept as is.
func (s *QuizService) StartSession(userID, courseID uint) (*SessionView, error) {
	if _, err := s.Progress.Store.GetEnrollmentProgress(userID, courseID); err != nil {
		return nil, err
	}

	all, err := s.QuestionRepo.FindByCourse(courseID)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, util.ErrQuestionNotFound
	}

	answeredIDs, err := s.AnswerRepo.AnsweredQuestionIDs(userID, courseID)
	if err != nil {
		return nil, err
	}
	answered := make(map[uint]bool, len(answeredIDs))
	for _, id := range answeredIDs {
		answered[id] = true
	}

	var presented []model.QuizQuestion
	for _, q := range all {
		if !answered[q.ID] {
			presented = append(presented, q)
		}
	}
	if len(presented) == 0 {
		presented = all
	}

	now := time.Now()
	session := &QuizSession{
		ID:        uuid.New().String(),
		UserID:    userID,
		CourseID:  courseID,
		Questions: presented,
		State:     SessionInProgress,
		Deadline:  now.Add(s.questionTime),
		LastTouch: now,
	}

	view := s.viewOf(session)

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return view, nil
}

// CurrentQuestion re-reads the live question and its remaining seconds, e.g.
// after a page reload.
func (s *QuizService) CurrentQuestion(sessionID string, userID uint) (*SessionView, error) {
	session, err := s.lookupSession(sessionID, userID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	session.LastTouch = time.Now()
	return s.viewOf(session), nil
}

// SubmitAnswer records the selection for the current question and advances the
// session. A nil selection, or a submit past the countdown deadline, scores
// incorrect; the record is still appended so the question counts as answered.
// Progress is recomputed and synchronized after every answer; a failed sync
// surfaces as an error once the session has advanced, since the answer itself
// is already committed.
func (s *QuizService) SubmitAnswer(sessionID string, userID uint, selected *int) (*SubmitResult, error) {
	session, err := s.lookupSession(sessionID, userID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.State != SessionInProgress {
		return nil, util.ErrSessionFinished
	}

	question := session.Questions[session.Index]
	late := time.Now().After(session.Deadline)

	selectedAnswer := -1
	if selected != nil {
		selectedAnswer = *selected
	}
	correct := !late && selected != nil && selectedAnswer == question.CorrectAnswer

	answer := &model.QuizAnswer{
		UserID:         userID,
		CourseID:       session.CourseID,
		QuestionID:     question.ID,
		SelectedAnswer: selectedAnswer,
		IsCorrect:      correct,
	}
	if err := s.AnswerRepo.Create(answer); err != nil {
		return nil, err
	}

	result := "incorrect"
	if correct {
		session.Correct++
		result = "correct"
	}
	monitoring.QuizAnswerCounter.WithLabelValues(result).Inc()

	progress, syncErr := s.Progress.Recompute(userID, session.CourseID)

	// The answer row is committed, so the session advances even when the sync
	// failed; the cached percentage heals on the next recompute.
	session.Index++
	session.LastTouch = time.Now()

	if session.Index >= len(session.Questions) {
		session.State = SessionCompleted
		s.mu.Lock()
		delete(s.sessions, session.ID)
		s.mu.Unlock()
		if syncErr != nil {
			return nil, syncErr
		}
		return &SubmitResult{
			Correct:         correct,
			CorrectSoFar:    session.Correct,
			Progress:        progress,
			State:           SessionCompleted,
			QuestionIndex:   session.Index,
			TotalQuestions:  len(session.Questions),
			FinalPercentage: progress,
		}, nil
	}

	session.Deadline = time.Now().Add(s.questionTime)
	if syncErr != nil {
		return nil, syncErr
	}

	next := session.Questions[session.Index]
	return &SubmitResult{
		Correct:        correct,
		CorrectSoFar:   session.Correct,
		Progress:       progress,
		State:          SessionInProgress,
		QuestionIndex:  session.Index,
		TotalQuestions: len(session.Questions),
		NextQuestion: &QuestionView{
			ID:       next.ID,
			Question: next.Question,
			Options:  next.Options,
		},
	}, nil
}

// StartSweeper drops sessions idle past the TTL. Runs until the process exits.
func (s *QuizService) StartSweeper() {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			s.sweep()
		}
	}()
}

func (s *QuizService) sweep() {
	s.mu.Lock()
	candidates := make([]*QuizSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		candidates = append(candidates, session)
	}
	s.mu.Unlock()

	var expired []string
	for _, session := range candidates {
		session.mu.Lock()
		if time.Since(session.LastTouch) > s.sessionTTL {
			expired = append(expired, session.ID)
		}
		session.mu.Unlock()
	}
	if len(expired) == 0 {
		return
	}

	s.mu.Lock()
	for _, id := range expired {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
}

// lookupSession fetches the session under the map lock; callers take the
// session's own lock before touching its state.
func (s *QuizService) lookupSession(sessionID string, userID uint) (*QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, util.ErrSessionNotFound
	}
	if session.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	return session, nil
}

func (s *QuizService) viewOf(session *QuizSession) *SessionView {
	view := &SessionView{
		SessionID:      session.ID,
		CourseID:       session.CourseID,
		State:          session.State,
		TotalQuestions: len(session.Questions),
		QuestionIndex:  session.Index,
	}
	if session.State == SessionInProgress && session.Index < len(session.Questions) {
		q := session.Questions[session.Index]
		view.Question = &QuestionView{
			ID:       q.ID,
			Question: q.Question,
			Options:  q.Options,
		}
		secondsLeft := int(time.Until(session.Deadline).Seconds())
		if secondsLeft < 0 {
			secondsLeft = 0
		}
		view.SecondsLeft = secondsLeft
	}
	return view
}

// Admin question management.

func (s *QuizService) ListQuestions(courseID uint) ([]model.QuizQuestion, error) {
	return s.QuestionRepo.FindByCourse(courseID)
}

func (s *QuizService) CreateQuestion(question *model.QuizQuestion) error {
	return s.QuestionRepo.Create(question)
}

func (s *QuizService) UpdateQuestion(id uint, updated *model.QuizQuestion) (*model.QuizQuestion, error) {
	question, err := s.QuestionRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}

	question.Question = updated.Question
	question.Options = updated.Options
	question.CorrectAnswer = updated.CorrectAnswer
	if err := s.QuestionRepo.Update(question); err != nil {
		return nil, err
	}
	return question, nil
}

func (s *QuizService) DeleteQuestion(id uint) error {
	if _, err := s.QuestionRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrQuestionNotFound
		}
		return err
	}
	return s.QuestionRepo.Delete(id)
}
