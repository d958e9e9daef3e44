package matching

import (
	"context"
	"fmt"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

type fakeClaimSource struct {
	claims []models.Claim
	err    error
}

func (f *fakeClaimSource) CandidatesForIdentification(ctx context.Context, idt *models.Identification) ([]models.Claim, error) {
	return f.claims, f.err
}

type fakeIdtSource struct {
	idts []models.Identification
	err  error
}

func (f *fakeIdtSource) CandidatesForClaim(ctx context.Context, claim *models.Claim) ([]models.Identification, error) {
	return f.idts, f.err
}

type fakeRecorder struct {
	recorded map[string]*models.Match
	calls    int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{recorded: make(map[string]*models.Match)}
}

func (f *fakeRecorder) Record(ctx context.Context, claimID, identificationID string) (*models.Match, bool, error) {
	f.calls++
	key := claimID + "/" + identificationID
	if m, ok := f.recorded[key]; ok {
		return m, false, nil
	}
	m := &models.Match{
		ID:               fmt.Sprintf("match-%d", len(f.recorded)+1),
		ClaimID:          claimID,
		IdentificationID: identificationID,
	}
	f.recorded[key] = m
	return m, true, nil
}

type fakeNotifier struct {
	notified []string
}

func (f *fakeNotifier) MatchCreated(ctx context.Context, match *models.Match, claim *models.Claim, idt *models.Identification) {
	f.notified = append(f.notified, match.ID)
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestEngineMatchIdentification(t *testing.T) {
	idt := models.Identification{
		ID:          "idt-1",
		Name:        "Jane Doe",
		Course:      "Computer Science",
		Institution: "State College of Arts",
	}
	claims := &fakeClaimSource{claims: []models.Claim{
		{ID: "claim-1", UserID: "user-1", Name: "Jane Doe", Course: strPtr("Computer Science")},
		{ID: "claim-2", UserID: "user-2", Name: "Bob Xi"},
		{ID: "claim-3", UserID: "user-3", Name: "Jane Doe"},
	}}
	recorder := newFakeRecorder()
	notifier := &fakeNotifier{}

	engine := NewEngine(testLogger(), claims, &fakeIdtSource{}, recorder, notifier)

	created, err := engine.MatchIdentification(context.Background(), &idt)
	require.NoError(t, err)

	// claim-1 and claim-3 pass the threshold, claim-2 does not.
	assert.Equal(t, 2, created)
	assert.Len(t, recorder.recorded, 2)
	assert.Contains(t, recorder.recorded, "claim-1/idt-1")
	assert.Contains(t, recorder.recorded, "claim-3/idt-1")
	assert.Len(t, notifier.notified, 2)
}

func TestEngineMatchIdentificationIdempotent(t *testing.T) {
	idt := models.Identification{ID: "idt-1", Name: "Jane Doe", Course: "Computer Science"}
	claims := &fakeClaimSource{claims: []models.Claim{
		{ID: "claim-1", UserID: "user-1", Name: "Jane Doe", Course: strPtr("Computer Science")},
	}}
	recorder := newFakeRecorder()
	notifier := &fakeNotifier{}

	engine := NewEngine(testLogger(), claims, &fakeIdtSource{}, recorder, notifier)

	created, err := engine.MatchIdentification(context.Background(), &idt)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	// Re-running the pass re-detects the pair but records and notifies
	// nothing new.
	created, err = engine.MatchIdentification(context.Background(), &idt)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Len(t, recorder.recorded, 1)
	assert.Len(t, notifier.notified, 1)
}

func TestEngineMatchClaim(t *testing.T) {
	claim := models.Claim{ID: "claim-1", UserID: "user-1", Name: "Jane Doe", Course: strPtr("Computer Science")}
	idts := &fakeIdtSource{idts: []models.Identification{
		{ID: "idt-1", Name: "Jane Doe", Course: "Computer Science"},
		{ID: "idt-2", Name: "Zhu Wei", Course: "Fine Art"},
	}}
	recorder := newFakeRecorder()
	notifier := &fakeNotifier{}

	engine := NewEngine(testLogger(), &fakeClaimSource{}, idts, recorder, notifier)

	created, err := engine.MatchClaim(context.Background(), &claim)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Contains(t, recorder.recorded, "claim-1/idt-1")
}

func TestEngineScoresEveryCandidate(t *testing.T) {
	// No early exit: every candidate is scored and every qualifying pair is
	// recorded, not just the first.
	idt := models.Identification{ID: "idt-1", Name: "Jane Doe", Course: "Computer Science"}
	var candidates []models.Claim
	for i := 0; i < 5; i++ {
		candidates = append(candidates, models.Claim{
			ID:     fmt.Sprintf("claim-%d", i),
			Name:   "Jane Doe",
			Course: strPtr("Computer Science"),
		})
	}
	claims := &fakeClaimSource{claims: candidates}
	recorder := newFakeRecorder()

	engine := NewEngine(testLogger(), claims, &fakeIdtSource{}, recorder, nil)

	created, err := engine.MatchIdentification(context.Background(), &idt)
	require.NoError(t, err)
	assert.Equal(t, 5, created)
	assert.Equal(t, 5, recorder.calls)
}

func TestEngineNilNotifier(t *testing.T) {
	idt := models.Identification{ID: "idt-1", Name: "Jane Doe"}
	claims := &fakeClaimSource{claims: []models.Claim{{ID: "claim-1", Name: "Jane Doe"}}}

	engine := NewEngine(testLogger(), claims, &fakeIdtSource{}, newFakeRecorder(), nil)

	created, err := engine.MatchIdentification(context.Background(), &idt)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
}
