package lifecycle

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

type fakeIdtStore struct {
	byID   map[string]*models.Identification
	nextID int
}

func newFakeIdtStore() *fakeIdtStore {
	return &fakeIdtStore{byID: make(map[string]*models.Identification)}
}

func (f *fakeIdtStore) Create(ctx context.Context, idt *models.Identification) (*models.Identification, error) {
	f.nextID++
	idt.ID = fmt.Sprintf("idt-%d", f.nextID)
	idt.IsFound = false
	idt.Owner = nil
	cp := *idt
	f.byID[idt.ID] = &cp
	return idt, nil
}

func (f *fakeIdtStore) Get(ctx context.Context, id string) (*models.Identification, error) {
	idt, ok := f.byID[id]
	if !ok {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "identification not found")
	}
	cp := *idt
	return &cp, nil
}

func (f *fakeIdtStore) Update(ctx context.Context, idt *models.Identification) (*models.Identification, error) {
	if _, ok := f.byID[idt.ID]; !ok {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "identification not found")
	}
	cp := *idt
	f.byID[idt.ID] = &cp
	return idt, nil
}

func (f *fakeIdtStore) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return httperror.NewHTTPError(http.StatusNotFound, "identification not found")
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeIdtStore) List(ctx context.Context, filter models.IdentificationFilter) ([]models.Identification, error) {
	var out []models.Identification
	for _, idt := range f.byID {
		switch filter {
		case models.IdentificationFilterMissing:
			if idt.IsFound {
				continue
			}
		case models.IdentificationFilterFound:
			if !idt.IsFound {
				continue
			}
		}
		out = append(out, *idt)
	}
	return out, nil
}

func (f *fakeIdtStore) ListByOwner(ctx context.Context, userID string) ([]models.Identification, error) {
	var out []models.Identification
	for _, idt := range f.byID {
		if idt.Owner != nil && *idt.Owner == userID {
			out = append(out, *idt)
		}
	}
	return out, nil
}

func (f *fakeIdtStore) ListByPoster(ctx context.Context, userID string) ([]models.Identification, error) {
	var out []models.Identification
	for _, idt := range f.byID {
		if idt.PostedBy != nil && *idt.PostedBy == userID {
			out = append(out, *idt)
		}
	}
	return out, nil
}

func (f *fakeIdtStore) FindSimilar(ctx context.Context, idt *models.Identification) ([]models.Identification, error) {
	var out []models.Identification
	for _, existing := range f.byID {
		if existing.Name == idt.Name && existing.Course == idt.Course &&
			existing.Institution == idt.Institution && existing.Campus == idt.Campus {
			out = append(out, *existing)
		}
	}
	return out, nil
}

func (f *fakeIdtStore) MarkFound(ctx context.Context, id string) error {
	idt, ok := f.byID[id]
	if !ok {
		return httperror.NewHTTPError(http.StatusNotFound, "identification not found")
	}
	if idt.IsFound {
		return httperror.NewHTTPError(http.StatusConflict, "identification is already marked found")
	}
	idt.IsFound = true
	return nil
}

func (f *fakeIdtStore) MarkLost(ctx context.Context, id string) error {
	idt, ok := f.byID[id]
	if !ok {
		return httperror.NewHTTPError(http.StatusNotFound, "identification not found")
	}
	if !idt.IsFound {
		return httperror.NewHTTPError(http.StatusConflict, "identification is already marked lost")
	}
	idt.IsFound = false
	return nil
}

func (f *fakeIdtStore) AssignOwner(ctx context.Context, id string, userID string) error {
	idt, ok := f.byID[id]
	if !ok {
		return httperror.NewHTTPError(http.StatusNotFound, "identification not found")
	}
	if idt.Owner != nil {
		return httperror.NewHTTPError(http.StatusConflict, "identification already has an owner")
	}
	idt.Owner = &userID
	return nil
}

type fakeClaimStore struct {
	byID   map[string]*models.Claim
	nextID int
}

func newFakeClaimStore() *fakeClaimStore {
	return &fakeClaimStore{byID: make(map[string]*models.Claim)}
}

func (f *fakeClaimStore) Create(ctx context.Context, claim *models.Claim) (*models.Claim, error) {
	for _, existing := range f.byID {
		if existing.UserID == claim.UserID {
			return nil, httperror.NewHTTPError(http.StatusConflict, "user already has a claim")
		}
	}
	f.nextID++
	claim.ID = fmt.Sprintf("claim-%d", f.nextID)
	cp := *claim
	f.byID[claim.ID] = &cp
	return claim, nil
}

func (f *fakeClaimStore) Get(ctx context.Context, id string) (*models.Claim, error) {
	claim, ok := f.byID[id]
	if !ok {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "claim not found")
	}
	cp := *claim
	return &cp, nil
}

func (f *fakeClaimStore) GetByUser(ctx context.Context, userID string) (*models.Claim, error) {
	for _, claim := range f.byID {
		if claim.UserID == userID {
			cp := *claim
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeClaimStore) Update(ctx context.Context, claim *models.Claim) (*models.Claim, error) {
	if _, ok := f.byID[claim.ID]; !ok {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "claim not found")
	}
	cp := *claim
	f.byID[claim.ID] = &cp
	return claim, nil
}

func (f *fakeClaimStore) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return httperror.NewHTTPError(http.StatusNotFound, "claim not found")
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeClaimStore) FindSimilar(ctx context.Context, claim *models.Claim) ([]models.Claim, error) {
	var out []models.Claim
	for _, existing := range f.byID {
		if existing.Name == claim.Name && existing.Institution == claim.Institution {
			out = append(out, *existing)
		}
	}
	return out, nil
}

type fakeMatchStore struct {
	byPair map[string]*models.Match
}

func newFakeMatchStore() *fakeMatchStore {
	return &fakeMatchStore{byPair: make(map[string]*models.Match)}
}

func (f *fakeMatchStore) put(claimID, idtID string) {
	key := claimID + "/" + idtID
	f.byPair[key] = &models.Match{
		ID:               "match-" + key,
		ClaimID:          claimID,
		IdentificationID: idtID,
	}
}

func (f *fakeMatchStore) GetByPair(ctx context.Context, claimID, identificationID string) (*models.Match, error) {
	m, ok := f.byPair[claimID+"/"+identificationID]
	if !ok {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "no match for pair")
	}
	return m, nil
}

func (f *fakeMatchStore) ListByClaim(ctx context.Context, claimID string) ([]models.Match, error) {
	var out []models.Match
	for _, m := range f.byPair {
		if m.ClaimID == claimID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMatchStore) ListByIdentification(ctx context.Context, identificationID string) ([]models.Match, error) {
	var out []models.Match
	for _, m := range f.byPair {
		if m.IdentificationID == identificationID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMatchStore) DeleteByIdentification(ctx context.Context, identificationID string) error {
	for key, m := range f.byPair {
		if m.IdentificationID == identificationID {
			delete(f.byPair, key)
		}
	}
	return nil
}

type fakeMatcher struct {
	idtPasses   int
	claimPasses int
}

func (f *fakeMatcher) MatchIdentification(ctx context.Context, idt *models.Identification) (int, error) {
	f.idtPasses++
	return 0, nil
}

func (f *fakeMatcher) MatchClaim(ctx context.Context, claim *models.Claim) (int, error) {
	f.claimPasses++
	return 0, nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func newTestService() (*Service, *fakeIdtStore, *fakeClaimStore, *fakeMatchStore, *fakeMatcher) {
	idts := newFakeIdtStore()
	claims := newFakeClaimStore()
	matches := newFakeMatchStore()
	matcher := &fakeMatcher{}
	svc := NewService(testLogger(), idts, claims, matches, matcher)
	return svc, idts, claims, matches, matcher
}

func createReq() *models.CreateIdentificationRequest {
	return &models.CreateIdentificationRequest{
		Name:         "Jane Doe",
		Course:       "Computer Science",
		Institution:  "State College of Arts",
		Campus:       "Main",
		LocationName: "Library",
	}
}

func TestCreateIdentificationRunsMatchingPass(t *testing.T) {
	svc, _, _, _, matcher := newTestService()

	idt, err := svc.CreateIdentification(context.Background(), createReq(), "finder-1")
	require.NoError(t, err)
	assert.NotEmpty(t, idt.ID)
	assert.False(t, idt.IsFound)
	require.NotNil(t, idt.PostedBy)
	assert.Equal(t, "finder-1", *idt.PostedBy)
	assert.Equal(t, 1, matcher.idtPasses)
}

func TestCreateIdentificationDuplicateBlocked(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	_, err := svc.CreateIdentification(context.Background(), createReq(), "finder-1")
	require.NoError(t, err)

	_, err = svc.CreateIdentification(context.Background(), createReq(), "finder-1")
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
}

func TestCreateIdentificationResolvedDuplicateAllowed(t *testing.T) {
	svc, idts, _, _, _ := newTestService()

	first, err := svc.CreateIdentification(context.Background(), createReq(), "finder-1")
	require.NoError(t, err)
	require.NoError(t, idts.MarkFound(context.Background(), first.ID))

	// The same card lost again after its earlier record was closed out.
	_, err = svc.CreateIdentification(context.Background(), createReq(), "finder-1")
	assert.NoError(t, err)
}

func TestCreateIdentificationDifferentPosterNotDuplicate(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	_, err := svc.CreateIdentification(context.Background(), createReq(), "finder-1")
	require.NoError(t, err)

	// Same card details from a different poster fail strict equality on the
	// posted_by field.
	_, err = svc.CreateIdentification(context.Background(), createReq(), "finder-2")
	assert.NoError(t, err)
}

func TestMarkResolvedClearsMatches(t *testing.T) {
	svc, _, _, matches, _ := newTestService()

	idt, err := svc.CreateIdentification(context.Background(), createReq(), "finder-1")
	require.NoError(t, err)
	matches.put("claim-1", idt.ID)

	require.NoError(t, svc.MarkResolved(context.Background(), idt.ID))

	remaining, err := matches.ListByIdentification(context.Background(), idt.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestMarkResolvedTwiceConflicts(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	idt, err := svc.CreateIdentification(context.Background(), createReq(), "finder-1")
	require.NoError(t, err)

	require.NoError(t, svc.MarkResolved(context.Background(), idt.ID))

	err = svc.MarkResolved(context.Background(), idt.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
}

func TestMarkReopenedRunsMatchingPass(t *testing.T) {
	svc, _, _, _, matcher := newTestService()

	idt, err := svc.CreateIdentification(context.Background(), createReq(), "finder-1")
	require.NoError(t, err)
	require.NoError(t, svc.MarkResolved(context.Background(), idt.ID))

	passes := matcher.idtPasses
	require.NoError(t, svc.MarkReopened(context.Background(), idt.ID))
	assert.Equal(t, passes+1, matcher.idtPasses)

	err = svc.MarkReopened(context.Background(), idt.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
}

func claimReq() *models.CreateClaimRequest {
	course := "Computer Science"
	return &models.CreateClaimRequest{
		Name:        "Jane Doe",
		Course:      &course,
		Institution: "State College of Arts",
	}
}

func TestCreateClaimRunsMatchingPass(t *testing.T) {
	svc, _, _, _, matcher := newTestService()

	claim, err := svc.CreateClaim(context.Background(), claimReq(), "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, claim.ID)
	assert.Equal(t, "user-1", claim.UserID)
	assert.Equal(t, 1, matcher.claimPasses)
}

func TestCreateClaimSecondClaimConflicts(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	_, err := svc.CreateClaim(context.Background(), claimReq(), "user-1")
	require.NoError(t, err)

	// Even an entirely different claim is rejected: one claim per user.
	other := &models.CreateClaimRequest{Name: "Janet Doe", Institution: "Somewhere Else"}
	_, err = svc.CreateClaim(context.Background(), other, "user-1")
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
}

func TestCreateClaimDuplicateBlocked(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	_, err := svc.CreateClaim(context.Background(), claimReq(), "user-1")
	require.NoError(t, err)

	_, err = svc.CreateClaim(context.Background(), claimReq(), "user-2")
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
}

func TestUpdateClaimRerunsMatching(t *testing.T) {
	svc, _, _, _, matcher := newTestService()

	claim, err := svc.CreateClaim(context.Background(), claimReq(), "user-1")
	require.NoError(t, err)

	name := "Janet Doe"
	_, err = svc.UpdateClaim(context.Background(), claim.ID, &models.UpdateClaimRequest{Name: &name}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, matcher.claimPasses)

	// Another user cannot touch the claim.
	_, err = svc.UpdateClaim(context.Background(), claim.ID, &models.UpdateClaimRequest{Name: &name}, "user-2")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, httperror.GetStatusCode(err))
}

func TestConfirmClaim(t *testing.T) {
	svc, idts, _, matches, _ := newTestService()

	idt, err := svc.CreateIdentification(context.Background(), createReq(), "finder-1")
	require.NoError(t, err)
	claim, err := svc.CreateClaim(context.Background(), claimReq(), "user-1")
	require.NoError(t, err)
	matches.put(claim.ID, idt.ID)

	confirmed, err := svc.ConfirmClaim(context.Background(), &models.ConfirmClaimRequest{
		ClaimID:          claim.ID,
		IdentificationID: idt.ID,
	}, "user-1")
	require.NoError(t, err)
	require.NotNil(t, confirmed.Owner)
	assert.Equal(t, "user-1", *confirmed.Owner)

	// The owner is set exactly once.
	err = idts.AssignOwner(context.Background(), idt.ID, "user-2")
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
}

func TestConfirmClaimWrongUser(t *testing.T) {
	svc, _, _, matches, _ := newTestService()

	idt, err := svc.CreateIdentification(context.Background(), createReq(), "finder-1")
	require.NoError(t, err)
	claim, err := svc.CreateClaim(context.Background(), claimReq(), "user-1")
	require.NoError(t, err)
	matches.put(claim.ID, idt.ID)

	_, err = svc.ConfirmClaim(context.Background(), &models.ConfirmClaimRequest{
		ClaimID:          claim.ID,
		IdentificationID: idt.ID,
	}, "user-2")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, httperror.GetStatusCode(err))
}

func TestConfirmClaimWithoutRecordedMatch(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	idt, err := svc.CreateIdentification(context.Background(), createReq(), "finder-1")
	require.NoError(t, err)
	claim, err := svc.CreateClaim(context.Background(), claimReq(), "user-1")
	require.NoError(t, err)

	// The engine never accepted this pair, so the confirmation is rejected.
	_, err = svc.ConfirmClaim(context.Background(), &models.ConfirmClaimRequest{
		ClaimID:          claim.ID,
		IdentificationID: idt.ID,
	}, "user-1")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}
