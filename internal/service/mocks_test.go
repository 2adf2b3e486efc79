package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/noah-isme/placement-api/internal/models"
	"github.com/noah-isme/placement-api/internal/repository"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
)

var fixedNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func studentClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleStudent, FullName: "Student " + id}
}

func operatorClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "spc-1", Role: models.RoleSPC, FullName: "Priya Coordinator"}
}

func recruiterClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "rec-1", Role: models.RoleRecruiter, Email: "hr@acme.test"}
}

type mockStudentRepo struct {
	students   map[string]models.StudentProfile
	order      []string
	lastFilter models.StudentFilter
	err        error
}

func newMockStudentRepo(students ...models.StudentProfile) *mockStudentRepo {
	repo := &mockStudentRepo{students: map[string]models.StudentProfile{}}
	for _, s := range students {
		repo.students[s.ID] = s
		repo.order = append(repo.order, s.ID)
	}
	return repo
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentProfile, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.StudentProfile, 0, len(m.order))
	for _, id := range m.order {
		s := m.students[id]
		if filter.ProfileComplete != nil && s.ProfileComplete != *filter.ProfileComplete {
			continue
		}
		if filter.Available != nil && s.AvailableForPlacement != *filter.Available {
			continue
		}
		if filter.Program != "" && !strings.Contains(strings.ToLower(s.Program), strings.ToLower(filter.Program)) {
			continue
		}
		if filter.Branch != "" && !strings.Contains(strings.ToLower(s.Branch), strings.ToLower(filter.Branch)) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.StudentProfile, error) {
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (m *mockStudentRepo) UpdateAvailability(ctx context.Context, id string, available bool, at time.Time) error {
	s, ok := m.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.AvailableForPlacement = available
	s.AvailabilityUpdatedAt = &at
	m.students[id] = s
	return nil
}

type mockPostingRepo struct {
	postings map[string]models.Posting
	created  []models.Posting
	filter   models.PostingFilter
	err      error
}

func newMockPostingRepo(postings ...models.Posting) *mockPostingRepo {
	repo := &mockPostingRepo{postings: map[string]models.Posting{}}
	for _, p := range postings {
		repo.postings[p.ID] = p
	}
	return repo
}

func (m *mockPostingRepo) Create(ctx context.Context, posting *models.Posting) error {
	if m.err != nil {
		return m.err
	}
	if posting.ID == "" {
		posting.ID = fmt.Sprintf("post-%d", len(m.created)+1)
	}
	m.postings[posting.ID] = *posting
	m.created = append(m.created, *posting)
	return nil
}

func (m *mockPostingRepo) FindByID(ctx context.Context, id string) (*models.Posting, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.postings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (m *mockPostingRepo) List(ctx context.Context, filter models.PostingFilter) ([]models.Posting, int, error) {
	m.filter = filter
	if m.err != nil {
		return nil, 0, m.err
	}
	out := make([]models.Posting, 0, len(m.postings))
	for _, p := range m.postings {
		out = append(out, p)
	}
	return out, len(out), nil
}

// mockApplicationRepo mimics the unique constraint and the version guard.
type mockApplicationRepo struct {
	mu       sync.Mutex
	apps     map[string]*models.Application
	history  map[string][]models.StatusHistoryEntry
	postings *mockPostingRepo
	seq      int

	createErr error
	updateErr error
	// bumpBeforeUpdate simulates a concurrent writer winning the race.
	bumpBeforeUpdate bool
	lastFilter       models.ApplicationFilter
}

func newMockApplicationRepo(postings *mockPostingRepo) *mockApplicationRepo {
	return &mockApplicationRepo{
		apps:     map[string]*models.Application{},
		history:  map[string][]models.StatusHistoryEntry{},
		postings: postings,
	}
}

func (m *mockApplicationRepo) CreateWithHistory(ctx context.Context, app *models.Application, entry *models.StatusHistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.apps {
		if existing.StudentID == app.StudentID && existing.PostingID == app.PostingID {
			return fmt.Errorf("create application: %w", &pq.Error{Code: "23505", Constraint: repository.ApplicationStudentPostingKey})
		}
	}
	m.seq++
	if app.ID == "" {
		app.ID = fmt.Sprintf("app-%d", m.seq)
	}
	app.Version = 1
	entry.ApplicationID = app.ID
	entry.Seq = 1
	stored := *app
	m.apps[app.ID] = &stored
	m.history[app.ID] = []models.StatusHistoryEntry{*entry}
	return nil
}

func (m *mockApplicationRepo) UpdateStatus(ctx context.Context, params repository.UpdateStatusParams) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return 0, m.updateErr
	}
	app, ok := m.apps[params.ID]
	if !ok {
		return 0, sql.ErrNoRows
	}
	if m.bumpBeforeUpdate {
		app.Version++
	}
	if app.Version != params.ExpectedVersion {
		return 0, sql.ErrNoRows
	}
	app.Version++
	app.CurrentStatus = params.Status
	app.UpdatedAt = params.ChangedAt
	entry := *params.Entry
	entry.ApplicationID = params.ID
	entry.Seq = len(m.history[params.ID]) + 1
	m.history[params.ID] = append(m.history[params.ID], entry)
	return app.Version, nil
}

func (m *mockApplicationRepo) FindByID(ctx context.Context, id string) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *app
	return &copied, nil
}

func (m *mockApplicationRepo) History(ctx context.Context, applicationID string) ([]models.StatusHistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.StatusHistoryEntry, len(m.history[applicationID]))
	copy(out, m.history[applicationID])
	return out, nil
}

func (m *mockApplicationRepo) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = filter
	out := make([]models.Application, 0)
	for _, app := range m.apps {
		if filter.PostingID != "" && app.PostingID != filter.PostingID {
			continue
		}
		if filter.StudentID != "" && app.StudentID != filter.StudentID {
			continue
		}
		out = append(out, *app)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *mockApplicationRepo) ListWithPostingByStudents(ctx context.Context, studentIDs []string) ([]models.ApplicationWithPosting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := map[string]bool{}
	for _, id := range studentIDs {
		wanted[id] = true
	}
	out := make([]models.ApplicationWithPosting, 0)
	for _, app := range m.apps {
		if !wanted[app.StudentID] {
			continue
		}
		row := models.ApplicationWithPosting{Application: *app}
		if m.postings != nil {
			if p, ok := m.postings.postings[app.PostingID]; ok {
				row.Company, row.Position, row.Kind = p.Company, p.Position, p.Kind
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// seed stores an application directly, bypassing submission rules.
func (m *mockApplicationRepo) seed(app models.Application) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if app.Version == 0 {
		app.Version = 1
	}
	stored := app
	m.apps[app.ID] = &stored
	m.history[app.ID] = []models.StatusHistoryEntry{{ApplicationID: app.ID, Seq: 1, Status: models.ApplicationStatusApplied, ChangedAt: app.AppliedAt, ActorRole: models.ActorRoleStudent}}
}

type mockPlacementRepo struct {
	placements map[string]models.FinalPlacement
	err        error
}

func newMockPlacementRepo(placements ...models.FinalPlacement) *mockPlacementRepo {
	repo := &mockPlacementRepo{placements: map[string]models.FinalPlacement{}}
	for _, p := range placements {
		repo.placements[p.StudentID] = p
	}
	return repo
}

func (m *mockPlacementRepo) Upsert(ctx context.Context, placement *models.FinalPlacement) error {
	if m.err != nil {
		return m.err
	}
	m.placements[placement.StudentID] = *placement
	return nil
}

func (m *mockPlacementRepo) FindByStudent(ctx context.Context, studentID string) (*models.FinalPlacement, error) {
	p, ok := m.placements[studentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (m *mockPlacementRepo) ListByStudents(ctx context.Context, studentIDs []string) ([]models.FinalPlacement, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.FinalPlacement, 0)
	for _, id := range studentIDs {
		if p, ok := m.placements[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPlacementRepo) Delete(ctx context.Context, studentID string) error {
	if _, ok := m.placements[studentID]; !ok {
		return sql.ErrNoRows
	}
	delete(m.placements, studentID)
	return nil
}

type mockInternshipRepo struct {
	internships map[string]models.CompletedInternship
	seq         int
}

func newMockInternshipRepo() *mockInternshipRepo {
	return &mockInternshipRepo{internships: map[string]models.CompletedInternship{}}
}

func (m *mockInternshipRepo) Create(ctx context.Context, internship *models.CompletedInternship) error {
	m.seq++
	internship.ID = fmt.Sprintf("int-%d", m.seq)
	m.internships[internship.ID] = *internship
	return nil
}

func (m *mockInternshipRepo) Update(ctx context.Context, internship *models.CompletedInternship) error {
	existing, ok := m.internships[internship.ID]
	if !ok || existing.StudentID != internship.StudentID {
		return sql.ErrNoRows
	}
	m.internships[internship.ID] = *internship
	return nil
}

func (m *mockInternshipRepo) FindByID(ctx context.Context, studentID, id string) (*models.CompletedInternship, error) {
	existing, ok := m.internships[id]
	if !ok || existing.StudentID != studentID {
		return nil, sql.ErrNoRows
	}
	return &existing, nil
}

func (m *mockInternshipRepo) ListByStudent(ctx context.Context, studentID string) ([]models.CompletedInternship, error) {
	var out []models.CompletedInternship
	for _, i := range m.internships {
		if i.StudentID == studentID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (m *mockInternshipRepo) Delete(ctx context.Context, studentID, id string) error {
	existing, ok := m.internships[id]
	if !ok || existing.StudentID != studentID {
		return sql.ErrNoRows
	}
	delete(m.internships, id)
	return nil
}

type mockRedFlagRepo struct {
	flags      map[string]models.RedFlag
	missing    int
	backfilled int
	seq        int
}

func newMockRedFlagRepo() *mockRedFlagRepo {
	return &mockRedFlagRepo{flags: map[string]models.RedFlag{}}
}

func (m *mockRedFlagRepo) ListByStudent(ctx context.Context, studentID string) ([]models.RedFlag, error) {
	var out []models.RedFlag
	for _, f := range m.flags {
		if f.StudentID == studentID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *mockRedFlagRepo) Create(ctx context.Context, flag *models.RedFlag) error {
	m.seq++
	flag.ID = fmt.Sprintf("flag-%d", m.seq)
	m.flags[flag.ID] = *flag
	return nil
}

func (m *mockRedFlagRepo) UpdateReason(ctx context.Context, studentID, id, reason string, at time.Time) error {
	f, ok := m.flags[id]
	if !ok || f.StudentID != studentID {
		return sql.ErrNoRows
	}
	f.Reason = reason
	f.UpdatedAt = at
	m.flags[id] = f
	return nil
}

func (m *mockRedFlagRepo) Delete(ctx context.Context, studentID, id string) error {
	f, ok := m.flags[id]
	if !ok || f.StudentID != studentID {
		return sql.ErrNoRows
	}
	delete(m.flags, id)
	return nil
}

func (m *mockRedFlagRepo) CountMissingIDs(ctx context.Context) (int, error) {
	return m.missing, nil
}

func (m *mockRedFlagRepo) BackfillIDs(ctx context.Context) (int, error) {
	m.backfilled += m.missing
	n := m.missing
	m.missing = 0
	return n, nil
}

// memoryCacheRepo stores JSON payloads in a map.
type memoryCacheRepo struct {
	mu          sync.Mutex
	items       map[string][]byte
	gets        int
	invalidated []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{items: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.items {
		if key == pattern || (strings.HasSuffix(pattern, "*") && strings.HasPrefix(key, prefix)) {
			delete(m.items, key)
		}
	}
	return nil
}
