package memory

import (
	"context"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/dairy/internal/domain/models"
	"github.com/mamadbah2/dairy/internal/repository"
)

type scope struct {
	store *Store
	owner primitive.ObjectID
}

var _ repository.OwnerScope = (*scope)(nil)

func inRange(localDate, from, to string) bool {
	return localDate >= from && localDate <= to
}

func (s *scope) InsertCattle(_ context.Context, cattle *models.Cattle) error {
	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, c := range st.cattle {
		if c.UserID == s.owner && c.TagNo == cattle.TagNo {
			return repository.ErrDuplicate
		}
	}
	now := st.now().UTC()
	cattle.ID = primitive.NewObjectID()
	cattle.UserID = s.owner
	cattle.CreatedAt = now
	cattle.UpdatedAt = now
	st.cattle[cattle.ID] = *cattle
	return nil
}

func (s *scope) FindCattle(_ context.Context, id primitive.ObjectID) (*models.Cattle, error) {
	st := s.store
	st.mu.RLock()
	defer st.mu.RUnlock()

	c, ok := st.cattle[id]
	if !ok || c.UserID != s.owner {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (s *scope) CattleExists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	_, err := s.FindCattle(ctx, id)
	if err == repository.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (s *scope) ListCattle(_ context.Context, query models.CattleQuery) ([]models.Cattle, int64, error) {
	st := s.store
	st.mu.RLock()
	defer st.mu.RUnlock()

	matched := []models.Cattle{}
	for _, c := range st.cattle {
		if c.UserID != s.owner {
			continue
		}
		if query.Search != "" && !containsFold(c.Name, query.Search) && !containsFold(c.TagNo, query.Search) {
			continue
		}
		if query.Breed != "" && !strings.EqualFold(c.Breed, query.Breed) {
			continue
		}
		matched = append(matched, c)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if query.SortDesc {
			a, b = b, a
		}
		switch cmp := compareCattle(a, b, query.SortField); {
		case cmp != 0:
			return cmp < 0
		default:
			return a.ID.Hex() < b.ID.Hex()
		}
	})

	total := int64(len(matched))
	start := min(query.Skip, total)
	end := total
	if query.Limit > 0 {
		end = min(start+query.Limit, total)
	}
	return matched[start:end], total, nil
}

func compareCattle(a, b models.Cattle, field string) int {
	switch field {
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "tagNo":
		return strings.Compare(a.TagNo, b.TagNo)
	case "entryDate":
		return a.EntryDate.Compare(b.EntryDate)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func (s *scope) UpdateCattle(_ context.Context, id primitive.ObjectID, update models.CattleUpdate) (*models.Cattle, error) {
	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()

	c, ok := st.cattle[id]
	if !ok || c.UserID != s.owner {
		return nil, repository.ErrNotFound
	}
	if update.Empty() {
		return &c, nil
	}

	if update.TagNo != nil {
		for otherID, other := range st.cattle {
			if otherID != id && other.UserID == s.owner && other.TagNo == *update.TagNo {
				return nil, repository.ErrDuplicate
			}
		}
		c.TagNo = *update.TagNo
	}
	if update.Name != nil {
		c.Name = *update.Name
	}
	if update.Breed != nil {
		c.Breed = *update.Breed
	}
	if update.Notes != nil {
		c.Notes = *update.Notes
	}
	if update.EntryDate != nil {
		c.EntryDate = *update.EntryDate
	}
	c.UpdatedAt = st.now().UTC()
	st.cattle[id] = c
	return &c, nil
}

func (s *scope) DeleteCattle(_ context.Context, id primitive.ObjectID) error {
	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()

	c, ok := st.cattle[id]
	if !ok || c.UserID != s.owner {
		return repository.ErrNotFound
	}
	delete(st.cattle, id)
	return nil
}

func (s *scope) CattleLabels(_ context.Context, ids []primitive.ObjectID) ([]models.CattleLabel, error) {
	st := s.store
	st.mu.RLock()
	defer st.mu.RUnlock()

	var labels []models.CattleLabel
	for _, id := range ids {
		if c, ok := st.cattle[id]; ok && c.UserID == s.owner {
			labels = append(labels, models.CattleLabel{ID: c.ID, TagNo: c.TagNo, Name: c.Name})
		}
	}
	return labels, nil
}

func (s *scope) UpsertProduction(_ context.Context, key models.ProductionKey, liters float64, notes string) (*models.ProductionRecord, error) {
	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now().UTC()
	for id, p := range st.production {
		if p.UserID == s.owner && p.CattleID == key.CattleID && p.LocalDate == key.LocalDate && p.Shift == key.Shift {
			p.Liters = liters
			p.Notes = notes
			p.UpdatedAt = now
			st.production[id] = p
			return &p, nil
		}
	}

	p := models.ProductionRecord{
		ID:        primitive.NewObjectID(),
		UserID:    s.owner,
		CattleID:  key.CattleID,
		LocalDate: key.LocalDate,
		Shift:     key.Shift,
		Liters:    liters,
		Notes:     notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	st.production[p.ID] = p
	return &p, nil
}

func (s *scope) FindProduction(_ context.Context, id primitive.ObjectID) (*models.ProductionRecord, error) {
	st := s.store
	st.mu.RLock()
	defer st.mu.RUnlock()

	p, ok := st.production[id]
	if !ok || p.UserID != s.owner {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *scope) DeleteProduction(_ context.Context, id primitive.ObjectID) error {
	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()

	p, ok := st.production[id]
	if !ok || p.UserID != s.owner {
		return repository.ErrNotFound
	}
	delete(st.production, id)
	return nil
}

func (s *scope) InsertSale(_ context.Context, sale *models.SaleRecord) error {
	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now().UTC()
	sale.ID = primitive.NewObjectID()
	sale.UserID = s.owner
	sale.CreatedAt = now
	sale.UpdatedAt = now
	st.sales[sale.ID] = *sale
	return nil
}

func (s *scope) DeleteSale(_ context.Context, id primitive.ObjectID) error {
	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()

	sale, ok := st.sales[id]
	if !ok || sale.UserID != s.owner {
		return repository.ErrNotFound
	}
	delete(st.sales, id)
	return nil
}

func (s *scope) DayTotals(_ context.Context, cattleID primitive.ObjectID, localDate string) (float64, float64, error) {
	st := s.store
	st.mu.RLock()
	defer st.mu.RUnlock()

	var produced, sold float64
	for _, p := range st.production {
		if p.UserID == s.owner && p.CattleID == cattleID && p.LocalDate == localDate {
			produced += p.Liters
		}
	}
	for _, sale := range st.sales {
		if sale.UserID == s.owner && sale.CattleID == cattleID && sale.LocalDate == localDate {
			sold += sale.Liters
		}
	}
	return produced, sold, nil
}

func (s *scope) ProductionByDay(_ context.Context, cattleID primitive.ObjectID, from, to string) ([]models.ProductionDay, error) {
	st := s.store
	st.mu.RLock()
	defer st.mu.RUnlock()

	byDay := map[string]*models.ProductionDay{}
	for _, p := range st.production {
		if p.UserID != s.owner || p.CattleID != cattleID || !inRange(p.LocalDate, from, to) {
			continue
		}
		day, ok := byDay[p.LocalDate]
		if !ok {
			day = &models.ProductionDay{LocalDate: p.LocalDate}
			byDay[p.LocalDate] = day
		}
		switch p.Shift {
		case models.ShiftMorning:
			day.Morning += p.Liters
		case models.ShiftEvening:
			day.Evening += p.Liters
		}
		day.ProducedTotal += p.Liters
	}

	rows := make([]models.ProductionDay, 0, len(byDay))
	for _, day := range byDay {
		rows = append(rows, *day)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].LocalDate < rows[j].LocalDate })
	return rows, nil
}

func (s *scope) SalesByDay(_ context.Context, filter models.SalesFilter) ([]models.SalesDay, error) {
	st := s.store
	st.mu.RLock()
	defer st.mu.RUnlock()

	byDay := map[string]*models.SalesDay{}
	for _, sale := range st.sales {
		if sale.UserID != s.owner || !inRange(sale.LocalDate, filter.From, filter.To) {
			continue
		}
		if filter.CattleID != nil && sale.CattleID != *filter.CattleID {
			continue
		}
		day, ok := byDay[sale.LocalDate]
		if !ok {
			day = &models.SalesDay{LocalDate: sale.LocalDate}
			byDay[sale.LocalDate] = day
		}
		day.Sold += sale.Liters
		day.Revenue += sale.Revenue()
	}

	rows := make([]models.SalesDay, 0, len(byDay))
	for _, day := range byDay {
		rows = append(rows, *day)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].LocalDate < rows[j].LocalDate })
	return rows, nil
}

func (s *scope) ProductionByCattle(_ context.Context, from, to string) ([]models.CattleTotals, error) {
	st := s.store
	st.mu.RLock()
	defer st.mu.RUnlock()

	totals := map[primitive.ObjectID]*models.CattleTotals{}
	for _, p := range st.production {
		if p.UserID != s.owner || !inRange(p.LocalDate, from, to) {
			continue
		}
		row, ok := totals[p.CattleID]
		if !ok {
			row = &models.CattleTotals{CattleID: p.CattleID}
			totals[p.CattleID] = row
		}
		row.Produced += p.Liters
	}
	return flatten(totals), nil
}

func (s *scope) SalesByCattle(_ context.Context, from, to string) ([]models.CattleTotals, error) {
	st := s.store
	st.mu.RLock()
	defer st.mu.RUnlock()

	totals := map[primitive.ObjectID]*models.CattleTotals{}
	for _, sale := range st.sales {
		if sale.UserID != s.owner || !inRange(sale.LocalDate, from, to) {
			continue
		}
		row, ok := totals[sale.CattleID]
		if !ok {
			row = &models.CattleTotals{CattleID: sale.CattleID}
			totals[sale.CattleID] = row
		}
		row.Sold += sale.Liters
		row.Revenue += sale.Revenue()
	}
	return flatten(totals), nil
}

func flatten(totals map[primitive.ObjectID]*models.CattleTotals) []models.CattleTotals {
	rows := make([]models.CattleTotals, 0, len(totals))
	for _, row := range totals {
		rows = append(rows, *row)
	}
	return rows
}
