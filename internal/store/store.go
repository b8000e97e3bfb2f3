// Package store is the narrow keyed-store boundary every manager
// consumes. One Store per entity kind, composed by value inside the
// owning service; no shared repository base type.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Amir-debuug/cert-verification-sub001/internal/faults"
)

type Store[T any] struct {
	db *gorm.DB
}

func New[T any](db *gorm.DB) *Store[T] {
	return &Store[T]{db: db}
}

func (s *Store[T]) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	var model T
	err := s.db.WithContext(ctx).Model(&model).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store[T]) FindByID(ctx context.Context, id string) (*T, error) {
	var entity T
	err := s.db.WithContext(ctx).First(&entity, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: id %s", faults.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (s *Store[T]) Find(ctx context.Context, q Query) ([]T, error) {
	tx := s.db.WithContext(ctx)
	for _, c := range q.Where {
		cond, arg := c.condition()
		tx = tx.Where(cond, arg)
	}
	if q.Order != "" {
		tx = tx.Order(q.Order)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	var entities []T
	if err := tx.Find(&entities).Error; err != nil {
		return nil, err
	}
	return entities, nil
}

// Create persists the entity. A primary-key collision is the store's
// sole serialization point for concurrent same-id writers and surfaces
// as faults.ErrConflict.
func (s *Store[T]) Create(ctx context.Context, entity *T) error {
	err := s.db.WithContext(ctx).Create(entity).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKey(err) {
		return fmt.Errorf("%w: %v", faults.ErrConflict, err)
	}
	return err
}

func (s *Store[T]) UpdateByID(ctx context.Context, id string, patch map[string]interface{}) (int64, error) {
	var model T
	res := s.db.WithContext(ctx).Model(&model).Where("id = ?", id).Updates(patch)
	return res.RowsAffected, res.Error
}

// UpdateAll applies the patch to every row matching the clauses and
// reports how many rows changed.
func (s *Store[T]) UpdateAll(ctx context.Context, patch map[string]interface{}, where []Clause) (int64, error) {
	var model T
	tx := s.db.WithContext(ctx).Model(&model)
	for _, c := range where {
		cond, arg := c.condition()
		tx = tx.Where(cond, arg)
	}
	res := tx.Updates(patch)
	return res.RowsAffected, res.Error
}

func (s *Store[T]) Count(ctx context.Context, where []Clause) (int64, error) {
	var model T
	tx := s.db.WithContext(ctx).Model(&model)
	for _, c := range where {
		cond, arg := c.condition()
		tx = tx.Where(cond, arg)
	}
	var count int64
	err := tx.Count(&count).Error
	return count, err
}

func (s *Store[T]) DeleteByID(ctx context.Context, id string) error {
	var model T
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id %s", faults.ErrNotFound, id)
	}
	return nil
}

// isDuplicateKey covers drivers that do not translate unique-constraint
// violations into gorm.ErrDuplicatedKey.
func isDuplicateKey(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate key")
}
