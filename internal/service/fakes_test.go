package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/olympiad-admin-api/internal/models"
	appErrors "github.com/noah-isme/olympiad-admin-api/pkg/errors"
)

// memoryStudentStore emulates the unique email index of the real stores.
type memoryStudentStore struct {
	mu        sync.Mutex
	byEmail   map[string]models.Student
	order     []string
	createErr map[string]error
	existsErr error
	lookups   int
}

func newMemoryStudentStore(existing ...models.Student) *memoryStudentStore {
	s := &memoryStudentStore{byEmail: map[string]models.Student{}, createErr: map[string]error{}}
	for _, st := range existing {
		s.byEmail[st.Email] = st
		s.order = append(s.order, st.Email)
	}
	return s
}

func (s *memoryStudentStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if s.existsErr != nil {
		return false, s.existsErr
	}
	_, ok := s.byEmail[email]
	return ok, nil
}

func (s *memoryStudentStore) Create(_ context.Context, student *models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.createErr[student.Email]; ok {
		return err
	}
	if _, ok := s.byEmail[student.Email]; ok {
		return appErrors.Clone(appErrors.ErrDuplicateKey, "email already registered")
	}
	student.ID = fmt.Sprintf("stu-%d", len(s.order)+1)
	student.CreatedAt = time.Date(2024, 1, 1, 0, 0, len(s.order), 0, time.UTC)
	s.byEmail[student.Email] = *student
	s.order = append(s.order, student.Email)
	return nil
}

func (s *memoryStudentStore) List(_ context.Context, filter models.AccountFilter) ([]models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Student{}
	for _, email := range s.order {
		st := s.byEmail[email]
		if filter.SchoolName != "" && st.SchoolName != filter.SchoolName {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

func (s *memoryStudentStore) FilterOptions(_ context.Context) (*models.StudentFilterOptions, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	schools := map[string]struct{}{}
	for _, st := range s.byEmail {
		schools[st.SchoolName] = struct{}{}
	}
	opts := &models.StudentFilterOptions{UserTypes: []string{string(models.UserTypeStudent)}}
	for name := range schools {
		opts.Schools = append(opts.Schools, name)
	}
	sort.Strings(opts.Schools)
	return opts, nil
}

func (s *memoryStudentStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byEmail)
}

type memorySalesStore struct {
	mu      sync.Mutex
	byEmail map[string]models.SalesUser
	order   []string
}

func newMemorySalesStore() *memorySalesStore {
	return &memorySalesStore{byEmail: map[string]models.SalesUser{}}
}

func (s *memorySalesStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byEmail[email]
	return ok, nil
}

func (s *memorySalesStore) Create(_ context.Context, user *models.SalesUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[user.Email]; ok {
		return appErrors.Clone(appErrors.ErrDuplicateKey, "email already registered")
	}
	user.ID = fmt.Sprintf("sales-%d", len(s.order)+1)
	s.byEmail[user.Email] = *user
	s.order = append(s.order, user.Email)
	return nil
}

func (s *memorySalesStore) List(_ context.Context, _ models.AccountFilter) ([]models.SalesUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.SalesUser{}
	for _, email := range s.order {
		out = append(out, s.byEmail[email])
	}
	return out, nil
}

type recordingAudit struct {
	entries []models.AuditLog
	err     error
}

func (a *recordingAudit) Create(_ context.Context, log *models.AuditLog) error {
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, *log)
	return nil
}

// memoryCache implements CacheRepository.
type memoryCache struct {
	values  map[string]interface{}
	deleted []string
	gets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]interface{}{}}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.gets++
	v, ok := c.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	opts, ok := v.(*models.StudentFilterOptions)
	target, ok2 := dest.(*models.StudentFilterOptions)
	if !ok || !ok2 {
		return fmt.Errorf("unexpected cache types")
	}
	*target = *opts
	return nil
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.values[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.values, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}
