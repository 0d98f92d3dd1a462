package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"godoor/adapters/memory"
	"godoor/domain/core"
	"godoor/domain/door"
	"godoor/internal/errors"
)

// MockAnalysisRepository is a testify mock of ports.AnalysisRepository
type MockAnalysisRepository struct {
	mock.Mock
}

func (m *MockAnalysisRepository) Save(ctx context.Context, a *door.Analysis) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAnalysisRepository) Get(ctx context.Context, id core.AnalysisID) (*door.Analysis, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*door.Analysis)
	return a, args.Error(1)
}

func (m *MockAnalysisRepository) List(ctx context.Context, limit int) ([]*door.Analysis, error) {
	args := m.Called(ctx, limit)
	a, _ := args.Get(0).([]*door.Analysis)
	return a, args.Error(1)
}

func (m *MockAnalysisRepository) Delete(ctx context.Context, id core.AnalysisID) error {
	return m.Called(ctx, id).Error(0)
}

type staticSource struct {
	records []door.PatientRecord
	err     error
}

func (s staticSource) ReadRecords(context.Context) ([]door.PatientRecord, error) {
	return s.records, s.err
}

func trialRequest() AnalysisRequest {
	return AnalysisRequest{
		Hierarchy: door.MustHierarchy("Best", "Mid", "Worst"),
		Records: []door.PatientRecord{
			{PatientID: "T1", Arm: "Drug", Outcome: "Best"},
			{PatientID: "T2", Arm: "Drug", Outcome: "Mid"},
			{PatientID: "C1", Arm: "Placebo", Outcome: "Worst"},
			{PatientID: "C2", Arm: "Placebo", Outcome: "Mid"},
		},
		TreatmentArm: "Drug",
		ControlArm:   "Placebo",
	}
}

func TestAnalysisService_RunStores(t *testing.T) {
	repo := &MockAnalysisRepository{}
	repo.On("Save", mock.Anything, mock.AnythingOfType("*door.Analysis")).Return(nil).Once()

	svc := NewAnalysisService(repo, nil, nil)
	a, err := svc.Run(context.Background(), trialRequest())
	require.NoError(t, err)

	assert.Equal(t, int64(4), a.Result.NPairs)
	assert.Equal(t, int64(3), a.Result.TreatmentWins)
	assert.Equal(t, int64(1), a.Result.Ties)
	assert.Equal(t, "Drug", a.TreatmentArm)
	repo.AssertExpectations(t)
}

func TestAnalysisService_RunFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AnalysisRequest)
		code   string
		target error
	}{
		{"no hierarchy", func(r *AnalysisRequest) { r.Hierarchy = nil }, errors.CodeConfiguration, core.ErrEmptyHierarchy},
		{"missing arm", func(r *AnalysisRequest) { r.ControlArm = "" }, errors.CodeInvalidInput, nil},
		{"same arm", func(r *AnalysisRequest) { r.ControlArm = "Drug" }, errors.CodeInvalidInput, core.ErrInvalidArm},
		{"unknown outcome", func(r *AnalysisRequest) { r.Records[0].Outcome = "Unlisted" }, errors.CodeUnknownOutcome, core.ErrUnknownOutcome},
		{"empty arm", func(r *AnalysisRequest) { r.ControlArm = "Nobody" }, errors.CodeInsufficientSample, core.ErrInsufficientSample},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockAnalysisRepository{}
			svc := NewAnalysisService(repo, nil, nil)

			req := trialRequest()
			tt.mutate(&req)
			_, err := svc.Run(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}

func TestAnalysisService_RunSaveError(t *testing.T) {
	repo := &MockAnalysisRepository{}
	repo.On("Save", mock.Anything, mock.Anything).Return(fmt.Errorf("connection refused"))

	_, err := NewAnalysisService(repo, nil, nil).Run(context.Background(), trialRequest())
	require.Error(t, err)
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))
}

func TestAnalysisService_SampleCeiling(t *testing.T) {
	repo := &MockAnalysisRepository{}
	svc := NewAnalysisService(repo, door.NewComparator(door.WithMaxPairs(3)), nil)

	_, err := svc.Run(context.Background(), trialRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrSampleTooLarge)
	assert.Equal(t, errors.CodeSampleTooLarge, errors.GetCode(err))
}

func TestAnalysisService_RunFromSource(t *testing.T) {
	repo := memory.NewAnalysisRepository()
	svc := NewAnalysisService(repo, nil, nil)
	req := trialRequest()

	a, err := svc.RunFromSource(context.Background(), staticSource{records: req.Records}, req.Hierarchy, "Drug", "Placebo")
	require.NoError(t, err)

	stored, err := svc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Result, stored.Result)

	list, err := svc.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	bad := fmt.Errorf("%w: row 4: empty outcome", core.ErrInvalidRecord)
	_, err = svc.RunFromSource(context.Background(), staticSource{err: bad}, req.Hierarchy, "Drug", "Placebo")
	assert.ErrorIs(t, err, core.ErrInvalidRecord)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestAnalysisService_GetAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := NewAnalysisService(memory.NewAnalysisRepository(), nil, nil)

	_, err := svc.Get(ctx, core.NewAnalysisID())
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	a, err := svc.Run(ctx, trialRequest())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, a.ID))

	err = svc.Delete(ctx, a.ID)
	assert.True(t, core.IsNotFoundError(err))
}

func TestAnalysisService_ListError(t *testing.T) {
	repo := &MockAnalysisRepository{}
	repo.On("List", mock.Anything, 5).Return(nil, stderrors.New("timeout"))

	_, err := NewAnalysisService(repo, nil, nil).List(context.Background(), 5)
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))
}

type recordingNotifier struct {
	ids []core.AnalysisID
}

func (n *recordingNotifier) AnalysisCompleted(a *door.Analysis) {
	n.ids = append(n.ids, a.ID)
}

func TestAnalysisService_Notifies(t *testing.T) {
	n := &recordingNotifier{}
	svc := NewAnalysisService(memory.NewAnalysisRepository(), nil, nil).WithNotifier(n)

	a, err := svc.Run(context.Background(), trialRequest())
	require.NoError(t, err)
	assert.Equal(t, []core.AnalysisID{a.ID}, n.ids)

	req := trialRequest()
	req.ControlArm = "Drug"
	_, err = svc.Run(context.Background(), req)
	require.Error(t, err)
	assert.Len(t, n.ids, 1, "failed analyses are not announced")
}
