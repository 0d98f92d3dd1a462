package container

import (
	"context"
	"testing"
	"time"

	"godoor/adapters/memory"
	"godoor/app"
	"godoor/domain/door"
	"godoor/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Analysis: config.AnalysisConfig{Workers: 2, Alpha: 0.05, FastTallyThreshold: door.DefaultFastTallyThreshold},
		LogLevel: "ERROR",
	}
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestNew_InMemoryService(t *testing.T) {
	c, err := New(testConfig(), nil)
	require.NoError(t, err)
	defer c.Shutdown(context.Background())

	analysis, err := c.AnalysisService.Run(context.Background(), app.AnalysisRequest{
		Hierarchy:    door.MustHierarchy("Best", "Worst"),
		Records:      []door.PatientRecord{{PatientID: "1", Arm: "A", Outcome: "Best"}, {PatientID: "2", Arm: "B", Outcome: "Worst"}},
		TreatmentArm: "A",
		ControlArm:   "B",
	})
	require.NoError(t, err)

	stored, err := c.AnalysisRepo.Get(context.Background(), analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, analysis.ID, stored.ID)
}

func TestEnableEvents_PublishesCompletedAnalyses(t *testing.T) {
	c, err := New(testConfig(), nil)
	require.NoError(t, err)
	defer c.Shutdown(context.Background())

	hub := c.EnableEvents()
	assert.Same(t, hub, c.EnableEvents())

	events, leave := hub.Subscribe()
	defer leave()

	analysis, err := c.AnalysisService.Run(context.Background(), app.AnalysisRequest{
		Hierarchy:    door.MustHierarchy("Best", "Worst"),
		Records:      []door.PatientRecord{{PatientID: "1", Arm: "A", Outcome: "Best"}, {PatientID: "2", Arm: "B", Outcome: "Worst"}},
		TreatmentArm: "A",
		ControlArm:   "B",
	})
	require.NoError(t, err)

	select {
	case event := <-events:
		assert.Equal(t, analysis.ID.String(), event.AnalysisID)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}

func TestInitWithDatabase_NilDB(t *testing.T) {
	c, err := New(testConfig(), nil)
	require.NoError(t, err)
	assert.Error(t, c.InitWithDatabase(context.Background(), nil))
}

func TestOpen_WithoutDatabaseUsesMemory(t *testing.T) {
	c, err := Open(context.Background(), testConfig(), nil)
	require.NoError(t, err)
	defer c.Shutdown(context.Background())

	assert.Nil(t, c.DB)
	assert.IsType(t, &memory.AnalysisRepository{}, c.AnalysisRepo)
}
