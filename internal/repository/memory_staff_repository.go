package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/medinsight/staff-admin/internal/domain"
)

// MemoryStaffRepository keeps staff in process memory. It backs the service
// when no Postgres DSN is configured and serves as the fake in tests.
type MemoryStaffRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]domain.Staff
	now    func() time.Time
}

var _ StaffRepository = (*MemoryStaffRepository)(nil)

// NewMemoryStaffRepository creates an empty repository.
func NewMemoryStaffRepository() *MemoryStaffRepository {
	return &MemoryStaffRepository{
		nextID: 1,
		rows:   make(map[int64]domain.Staff),
		now:    time.Now,
	}
}

func (m *MemoryStaffRepository) Create(_ context.Context, staff *domain.Staff) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkUnique(staff, 0); err != nil {
		return err
	}
	now := m.now().UTC()
	staff.ID = m.nextID
	staff.CreatedAt = now
	staff.UpdatedAt = now
	m.nextID++
	m.rows[staff.ID] = copyStaff(*staff)
	return nil
}

func (m *MemoryStaffRepository) Update(_ context.Context, staff *domain.Staff) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.rows[staff.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if err := m.checkUnique(staff, staff.ID); err != nil {
		return err
	}
	staff.CreatedAt = existing.CreatedAt
	staff.UpdatedAt = m.now().UTC()
	if staff.PasswordHash == "" {
		staff.PasswordHash = existing.PasswordHash
	}
	m.rows[staff.ID] = copyStaff(*staff)
	return nil
}

func (m *MemoryStaffRepository) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.rows, id)
	return nil
}

func (m *MemoryStaffRepository) GetByID(_ context.Context, id int64) (*domain.Staff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	staff, ok := m.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := copyStaff(staff)
	return &out, nil
}

func (m *MemoryStaffRepository) GetByEmail(_ context.Context, email string) (*domain.Staff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, staff := range m.rows {
		if strings.EqualFold(staff.Email, email) {
			out := copyStaff(staff)
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *MemoryStaffRepository) List(_ context.Context, filter StaffFilter) ([]domain.Staff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]domain.Staff, 0, len(m.rows))
	for _, staff := range m.rows {
		if filter.Type != nil && staff.Type != *filter.Type {
			continue
		}
		if filter.Active != nil && staff.Actif != *filter.Active {
			continue
		}
		result = append(result, copyStaff(staff))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		if offset >= len(result) {
			return []domain.Staff{}, nil
		}
		end := offset + filter.Limit
		if end > len(result) {
			end = len(result)
		}
		result = result[offset:end]
	}
	return result, nil
}

// checkUnique must be called with the lock held.
func (m *MemoryStaffRepository) checkUnique(staff *domain.Staff, selfID int64) error {
	for id, other := range m.rows {
		if id == selfID {
			continue
		}
		if strings.EqualFold(other.Email, staff.Email) {
			return ErrDuplicateEmail
		}
		if staff.NumeroLicence != nil && other.NumeroLicence != nil && *staff.NumeroLicence == *other.NumeroLicence {
			return ErrDuplicateLicence
		}
	}
	return nil
}

func copyStaff(s domain.Staff) domain.Staff {
	if s.AccountID != nil {
		v := *s.AccountID
		s.AccountID = &v
	}
	if s.NumeroLicence != nil {
		v := *s.NumeroLicence
		s.NumeroLicence = &v
	}
	return s
}
