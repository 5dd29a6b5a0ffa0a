// Package memory provides a process-local Store. It backs the test suites and
// the STORE_DRIVER=memory development mode.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/internal/repository"
)

// Store keeps every collection in maps guarded by a single lock.
type Store struct {
	mu         sync.RWMutex
	users      map[primitive.ObjectID]models.User
	cattle     map[primitive.ObjectID]models.Cattle
	production map[primitive.ObjectID]models.ProductionRecord
	sales      map[primitive.ObjectID]models.SaleRecord
	reports    []models.WeeklyReport
	now        func() time.Time
}

var _ repository.Store = (*Store)(nil)

// NewStore instantiates an empty Store.
func NewStore() *Store {
	return &Store{
		users:      map[primitive.ObjectID]models.User{},
		cattle:     map[primitive.ObjectID]models.Cattle{},
		production: map[primitive.ObjectID]models.ProductionRecord{},
		sales:      map[primitive.ObjectID]models.SaleRecord{},
		now:        time.Now,
	}
}

// SetClock overrides the timestamp source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Users() repository.UserRepository     { return (*userRepo)(s) }
func (s *Store) Reports() repository.ReportRepository { return (*reportRepo)(s) }
func (s *Store) Close(context.Context) error          { return nil }

// Owner returns the scoped view of one owner.
func (s *Store) Owner(userID primitive.ObjectID) repository.OwnerScope {
	return &scope{store: s, owner: userID}
}

// WeeklyReports returns a copy of every saved report.
func (s *Store) WeeklyReports() []models.WeeklyReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.WeeklyReport(nil), s.reports...)
}

// ProductionRows returns a copy of every stored production record.
func (s *Store) ProductionRows() []models.ProductionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]models.ProductionRecord, 0, len(s.production))
	for _, p := range s.production {
		rows = append(rows, p)
	}
	return rows
}

type userRepo Store

func (r *userRepo) CreateUser(_ context.Context, user *models.User) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	now := s.now().UTC()
	user.ID = primitive.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

func (r *userRepo) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) FindUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) ListUserIDs(context.Context) ([]primitive.ObjectID, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]primitive.ObjectID, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Hex() < ids[j].Hex() })
	return ids, nil
}

type reportRepo Store

func (r *reportRepo) SaveWeeklyReport(_ context.Context, report models.WeeklyReport) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if report.CreatedAt.IsZero() {
		report.CreatedAt = s.now().UTC()
	}
	for i, existing := range s.reports {
		if existing.UserID == report.UserID && existing.ISOYear == report.ISOYear && existing.ISOWeek == report.ISOWeek {
			s.reports[i] = report
			return nil
		}
	}
	s.reports = append(s.reports, report)
	return nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
