package cattle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/internal/repository"
)

// ErrNotFound is returned for missing cattle and for cattle owned by someone else.
var ErrNotFound = errors.New("cattle not found")

// DuplicateTagError reports a tag already used by the same owner.
type DuplicateTagError struct {
	TagNo string
}

func (e *DuplicateTagError) Error() string {
	return fmt.Sprintf("tag number %s is already in use", e.TagNo)
}

const (
	defaultLimit = 20
	maxLimit     = 100
	maxPage      = math.MaxInt32
	defaultSort  = "-createdAt"
)

var sortableFields = map[string]bool{
	"createdAt": true,
	"entryDate": true,
	"name":      true,
	"tagNo":     true,
}

// CreateInput carries the raw create request fields.
type CreateInput struct {
	TagNo     string
	Name      string
	Breed     string
	Notes     string
	EntryDate string
}

// UpdateInput carries the raw partial update fields; nil means untouched.
type UpdateInput struct {
	TagNo     *string
	Name      *string
	Breed     *string
	Notes     *string
	EntryDate *string
}

// ListParams carries the raw list query.
type ListParams struct {
	Page  int
	Limit int
	Query string
	Breed string
	Sort  string
}

// Pagination describes the returned page.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// Page is one page of an owner's cattle.
type Page struct {
	Items      []models.Cattle
	Pagination Pagination
}

// Service implements the cattle registry.
type Service struct {
	store  repository.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService constructs the registry service.
func NewService(store repository.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// Create registers a cattle for the owner.
func (s *Service) Create(ctx context.Context, owner primitive.ObjectID, in CreateInput) (*models.Cattle, error) {
	var verrs models.ValidationErrors

	c := &models.Cattle{
		TagNo: normalizeTag(in.TagNo),
		Name:  strings.TrimSpace(in.Name),
		Breed: strings.TrimSpace(in.Breed),
		Notes: strings.TrimSpace(in.Notes),
	}
	checkTag(c.TagNo, &verrs)
	checkName(c.Name, &verrs)
	checkText("breed", c.Breed, 100, &verrs)
	checkText("notes", c.Notes, 2000, &verrs)

	c.EntryDate = s.now().UTC()
	if in.EntryDate != "" {
		if d, ok := models.ParseTimestamp(in.EntryDate); ok {
			c.EntryDate = d
		} else {
			verrs.Add("entryDate", "entryDate must be a valid date (YYYY-MM-DD)")
		}
	}
	if err := verrs.Err(); err != nil {
		return nil, err
	}

	if err := s.store.Owner(owner).InsertCattle(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &DuplicateTagError{TagNo: c.TagNo}
		}
		return nil, fmt.Errorf("create cattle: %w", err)
	}

	s.logger.Info("cattle added", zap.String("user_id", owner.Hex()), zap.String("cattle_id", c.ID.Hex()), zap.String("tag", c.TagNo))
	return c, nil
}

// List returns one page of the owner's cattle.
func (s *Service) List(ctx context.Context, owner primitive.ObjectID, params ListParams) (*Page, error) {
	page := min(max(params.Page, 1), maxPage)
	limit := params.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	limit = min(max(limit, 1), maxLimit)

	sortParam := strings.TrimSpace(params.Sort)
	field := strings.TrimPrefix(sortParam, "-")
	if !sortableFields[field] {
		sortParam = defaultSort
		field = strings.TrimPrefix(sortParam, "-")
	}

	query := models.CattleQuery{
		Search:    strings.TrimSpace(params.Query),
		Breed:     strings.TrimSpace(params.Breed),
		SortField: field,
		SortDesc:  strings.HasPrefix(sortParam, "-"),
		Skip:      int64((page - 1) * limit),
		Limit:     int64(limit),
	}

	items, total, err := s.store.Owner(owner).ListCattle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list cattle: %w", err)
	}

	pages := int(math.Ceil(float64(total) / float64(limit)))
	if pages == 0 {
		pages = 1
	}
	return &Page{
		Items:      items,
		Pagination: Pagination{Page: page, Limit: limit, Total: total, Pages: pages},
	}, nil
}

// Get fetches one cattle of the owner.
func (s *Service) Get(ctx context.Context, owner, id primitive.ObjectID) (*models.Cattle, error) {
	c, err := s.store.Owner(owner).FindCattle(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get cattle: %w", err)
	}
	return c, nil
}

// Update applies the whitelisted fields present in the input.
func (s *Service) Update(ctx context.Context, owner, id primitive.ObjectID, in UpdateInput) (*models.Cattle, error) {
	var (
		verrs  models.ValidationErrors
		update models.CattleUpdate
	)

	if in.TagNo != nil {
		tag := normalizeTag(*in.TagNo)
		checkTag(tag, &verrs)
		update.TagNo = &tag
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		checkName(name, &verrs)
		update.Name = &name
	}
	if in.Breed != nil {
		breed := strings.TrimSpace(*in.Breed)
		checkText("breed", breed, 100, &verrs)
		update.Breed = &breed
	}
	if in.Notes != nil {
		notes := strings.TrimSpace(*in.Notes)
		checkText("notes", notes, 2000, &verrs)
		update.Notes = &notes
	}
	if in.EntryDate != nil && *in.EntryDate != "" {
		d, ok := models.ParseTimestamp(*in.EntryDate)
		if !ok {
			verrs.Add("entryDate", "entryDate must be a valid date (YYYY-MM-DD)")
		}
		update.EntryDate = &d
	}
	if err := verrs.Err(); err != nil {
		return nil, err
	}

	c, err := s.store.Owner(owner).UpdateCattle(ctx, id, update)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return nil, &DuplicateTagError{TagNo: *update.TagNo}
	case err != nil:
		return nil, fmt.Errorf("update cattle: %w", err)
	}
	return c, nil
}

// Delete removes a cattle of the owner. Ledger rows are kept.
func (s *Service) Delete(ctx context.Context, owner, id primitive.ObjectID) error {
	if err := s.store.Owner(owner).DeleteCattle(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete cattle: %w", err)
	}
	s.logger.Info("cattle deleted", zap.String("user_id", owner.Hex()), zap.String("cattle_id", id.Hex()))
	return nil
}

func normalizeTag(tag string) string {
	return strings.ToUpper(strings.TrimSpace(tag))
}

func checkTag(tag string, verrs *models.ValidationErrors) {
	if n := len([]rune(tag)); n < 1 || n > 10 {
		verrs.Add("tagNo", "tagNo (1-10 chars) is required")
	}
}

func checkName(name string, verrs *models.ValidationErrors) {
	if n := len([]rune(name)); n < 1 || n > 100 {
		verrs.Add("name", "name is required (max 100 chars)")
	}
}

func checkText(field, value string, limit int, verrs *models.ValidationErrors) {
	if len([]rune(value)) > limit {
		verrs.Add(field, fmt.Sprintf("%s must be at most %d chars", field, limit))
	}
}
