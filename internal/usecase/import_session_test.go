package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

type stubImporter struct {
	calls int
	res   ImportResult
	err   error
}

func (s *stubImporter) Execute(_ context.Context, _ string, rows []ParsedRow) (ImportResult, error) {
	s.calls++
	return s.res, s.err
}

var t0 = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func TestImportSession_HappyPath(t *testing.T) {
	s := NewImportSession("u1", t0)
	assert.Equal(t, StepUpload, s.Step())

	require.NoError(t, s.Parse("Name,Email\nJohn,john@x.com\n,bademail", t0))
	assert.Equal(t, StepPreview, s.Step())

	v := s.View()
	assert.Equal(t, 1, v.Valid)
	assert.Equal(t, 1, v.Invalid)
	assert.Equal(t, 2, v.Total)

	imp := &stubImporter{res: ImportResult{Inserted: 1, Rejected: 1}}
	res, err := s.Commit(context.Background(), imp, t0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, StepComplete, s.Step())
	require.NotNil(t, s.View().Result)

	// Complete is terminal.
	assert.Equal(t, CodeInvalidTransition, DomainCode(s.Back(t0)))
	assert.Equal(t, CodeInvalidTransition, DomainCode(s.Cancel(t0)))
	_, err = s.Commit(context.Background(), imp, t0)
	assert.Equal(t, CodeInvalidTransition, DomainCode(err))
	assert.Equal(t, 1, imp.calls)
}

func TestImportSession_FormatErrorStaysInUpload(t *testing.T) {
	s := NewImportSession("u1", t0)
	err := s.Parse("Name only header", t0)
	require.Error(t, err)
	assert.True(t, IsFormatError(err))
	assert.Equal(t, StepUpload, s.Step())
}

func TestImportSession_BackAndCancel(t *testing.T) {
	s := NewImportSession("u1", t0)
	require.NoError(t, s.Parse("Name\nA", t0))
	require.NoError(t, s.Back(t0))
	assert.Equal(t, StepUpload, s.Step())
	assert.Empty(t, s.View().Rows)

	require.NoError(t, s.Cancel(t0))
	assert.Equal(t, StepCancelled, s.Step())
	assert.Equal(t, CodeInvalidTransition, DomainCode(s.Parse("Name\nA", t0)))
}

func TestImportSession_CommitWithoutPreview(t *testing.T) {
	s := NewImportSession("u1", t0)
	_, err := s.Commit(context.Background(), &stubImporter{}, t0)
	assert.Equal(t, CodeInvalidTransition, DomainCode(err))
}

func TestImportSession_StoreFailureKeepsPreview(t *testing.T) {
	s := NewImportSession("u1", t0)
	require.NoError(t, s.Parse("Name\nA", t0))

	imp := &stubImporter{err: storeErr("insert_many", errors.New("timeout"))}
	_, err := s.Commit(context.Background(), imp, t0)
	require.Error(t, err)
	assert.Equal(t, StepPreview, s.Step())

	imp.err = nil
	imp.res = ImportResult{Inserted: 1}
	_, err = s.Commit(context.Background(), imp, t0)
	require.NoError(t, err)
	assert.Equal(t, StepComplete, s.Step())
}

func TestImportSession_CommitUsesOwner(t *testing.T) {
	repo := new(MockLeadRepository)
	repo.On("CreateMany", mock.Anything, mock.Anything).Return(1, nil)

	s := NewImportSession("owner-7", t0)
	require.NoError(t, s.Parse("Name\nA", t0))
	_, err := s.Commit(context.Background(), NewImportLeadsUseCase(repo, nil, nil), t0)
	require.NoError(t, err)

	drafts := repo.Calls[0].Arguments.Get(1).([]entity.LeadDraft)
	assert.Equal(t, "owner-7", drafts[0].OwnerID)
}

func TestImportSessionStore_OwnerScopingAndSweep(t *testing.T) {
	now := t0
	st := NewImportSessionStore(30 * time.Minute)
	st.Now = func() time.Time { return now }

	s := st.Create("u1")
	got, err := st.Get("u1", s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = st.Get("u2", s.ID)
	assert.Equal(t, CodeSessionNotFound, DomainCode(err))

	now = t0.Add(29 * time.Minute)
	assert.Equal(t, 0, st.Sweep())

	now = t0.Add(31 * time.Minute)
	assert.Equal(t, 1, st.Sweep())
	assert.Equal(t, 0, st.Len())
}
