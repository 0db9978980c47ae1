package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type ImportStep string

const (
	StepUpload    ImportStep = "upload"
	StepPreview   ImportStep = "preview"
	StepComplete  ImportStep = "complete"
	StepCancelled ImportStep = "cancelled"
)

type leadImporter interface {
	Execute(ctx context.Context, ownerID string, rows []ParsedRow) (ImportResult, error)
}

// ImportSession walks one import through Upload -> Preview -> Complete.
// Preview may go back to Upload; Upload and Preview may be cancelled.
type ImportSession struct {
	ID      string
	OwnerID string

	mu        sync.Mutex
	step      ImportStep
	rows      []ParsedRow
	result    *ImportResult
	updatedAt time.Time
}

type ImportSessionView struct {
	ID      string        `json:"id"`
	Step    ImportStep    `json:"step"`
	Rows    []ParsedRow   `json:"rows"`
	Valid   int           `json:"valid"`
	Invalid int           `json:"invalid"`
	Total   int           `json:"total"`
	Result  *ImportResult `json:"result,omitempty"`
}

func NewImportSession(ownerID string, now time.Time) *ImportSession {
	return &ImportSession{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		step:      StepUpload,
		updatedAt: now,
	}
}

func invalidTransition(from ImportStep, action string) error {
	return &DomainError{
		Code:    CodeInvalidTransition,
		Message: "cannot " + action + " an import in step " + string(from),
	}
}

// Parse reads the uploaded text. A FormatError leaves the session in Upload.
func (s *ImportSession) Parse(text string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != StepUpload {
		return invalidTransition(s.step, "parse")
	}
	rows, err := ParseLeadsCSV(text)
	if err != nil {
		return err
	}
	s.rows = rows
	s.step = StepPreview
	s.updatedAt = now
	return nil
}

func (s *ImportSession) Back(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != StepPreview {
		return invalidTransition(s.step, "go back from")
	}
	s.rows = nil
	s.step = StepUpload
	s.updatedAt = now
	return nil
}

// Commit hands the preview to the importer. On failure the session stays in
// Preview so the user can retry by hand.
func (s *ImportSession) Commit(ctx context.Context, importer leadImporter, now time.Time) (ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != StepPreview {
		return ImportResult{}, invalidTransition(s.step, "commit")
	}
	res, err := importer.Execute(ctx, s.OwnerID, s.rows)
	if err != nil {
		return res, err
	}
	s.result = &res
	s.step = StepComplete
	s.updatedAt = now
	return res, nil
}

func (s *ImportSession) Cancel(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != StepUpload && s.step != StepPreview {
		return invalidTransition(s.step, "cancel")
	}
	s.rows = nil
	s.step = StepCancelled
	s.updatedAt = now
	return nil
}

func (s *ImportSession) Step() ImportStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *ImportSession) View() ImportSessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]ParsedRow, len(s.rows))
	copy(rows, s.rows)
	valid, invalid := CountRows(rows)
	v := ImportSessionView{
		ID:      s.ID,
		Step:    s.step,
		Rows:    rows,
		Valid:   valid,
		Invalid: invalid,
		Total:   len(rows),
	}
	if s.result != nil {
		r := *s.result
		v.Result = &r
	}
	return v
}

func (s *ImportSession) lastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// ImportSessionStore keeps in-flight imports per owner in memory.
type ImportSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*ImportSession
	ttl      time.Duration
	Now      Clock
}

func NewImportSessionStore(ttl time.Duration) *ImportSessionStore {
	return &ImportSessionStore{
		sessions: make(map[string]*ImportSession),
		ttl:      ttl,
	}
}

func (st *ImportSessionStore) Create(ownerID string) *ImportSession {
	s := NewImportSession(ownerID, st.Now.now())
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get hides other owners' sessions behind the same not-found error.
func (st *ImportSessionStore) Get(ownerID, id string) (*ImportSession, error) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	st.mu.Unlock()
	if !ok || s.OwnerID != ownerID {
		return nil, &DomainError{Code: CodeSessionNotFound, Message: "import session not found"}
	}
	return s, nil
}

func (st *ImportSessionStore) Remove(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

func (st *ImportSessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep drops sessions untouched for longer than the TTL.
func (st *ImportSessionStore) Sweep() int {
	cutoff := st.Now.now().Add(-st.ttl)

	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for id, s := range st.sessions {
		if s.lastTouched().Before(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

func (st *ImportSessionStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Sweep()
		}
	}
}
