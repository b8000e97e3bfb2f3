package store

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Amir-debuug/cert-verification-sub001/internal/faults"
)

type record struct {
	ID        string `gorm:"primaryKey"`
	OwnerID   string `gorm:"index"`
	Name      string
	Status    string
	CreatedAt time.Time
}

type StoreSuite struct {
	suite.Suite
	store *Store[record]
	ctx   context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	s.Require().NoError(err)
	s.Require().NoError(database.AutoMigrate(&record{}))

	s.store = New[record](database)
	s.ctx = context.Background()
}

func (s *StoreSuite) seed(records ...record) {
	for i := range records {
		s.Require().NoError(s.store.Create(s.ctx, &records[i]))
	}
}

func (s *StoreSuite) TestCreateAndLookup() {
	s.seed(record{ID: "r1", OwnerID: "o1", Name: "Invoice", Status: "sent"})

	exists, err := s.store.Exists(s.ctx, "r1")
	s.Require().NoError(err)
	s.True(exists)

	found, err := s.store.FindByID(s.ctx, "r1")
	s.Require().NoError(err)
	s.Equal("Invoice", found.Name)

	_, err = s.store.FindByID(s.ctx, "missing")
	s.ErrorIs(err, faults.ErrNotFound)
}

func (s *StoreSuite) TestCreateDuplicateConflicts() {
	s.seed(record{ID: "r1", OwnerID: "o1"})

	err := s.store.Create(s.ctx, &record{ID: "r1", OwnerID: "o2"})
	s.ErrorIs(err, faults.ErrConflict)
}

func (s *StoreSuite) TestFindWithClauses() {
	s.seed(
		record{ID: "r1", OwnerID: "o1", Name: "Invoice March", Status: "sent"},
		record{ID: "r2", OwnerID: "o1", Name: "invoice april", Status: "signed"},
		record{ID: "r3", OwnerID: "o2", Name: "Contract", Status: "sent"},
	)

	s.Run("equality", func() {
		got, err := s.store.Find(s.ctx, Query{
			Where: []Clause{{Field: "owner_id", Op: "eq", Value: "o1"}},
			Order: "id ASC",
		})
		s.Require().NoError(err)
		s.Len(got, 2)
	})

	s.Run("like is a case-insensitive prefix match", func() {
		got, err := s.store.Find(s.ctx, Query{
			Where: []Clause{{Field: "name", Op: "like", Value: "INV"}},
			Order: "id ASC",
		})
		s.Require().NoError(err)
		s.Require().Len(got, 2)
		s.Equal("r1", got[0].ID)
		s.Equal("r2", got[1].ID)
	})

	s.Run("neq with limit and offset", func() {
		got, err := s.store.Find(s.ctx, Query{
			Where:  []Clause{{Field: "status", Op: "neq", Value: "signed"}},
			Order:  "id ASC",
			Limit:  1,
			Offset: 1,
		})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal("r3", got[0].ID)
	})
}

func (s *StoreSuite) TestUpdateByID() {
	s.seed(record{ID: "r1", Status: "sent"})

	affected, err := s.store.UpdateByID(s.ctx, "r1", map[string]interface{}{"status": "signed"})
	s.Require().NoError(err)
	s.EqualValues(1, affected)

	found, err := s.store.FindByID(s.ctx, "r1")
	s.Require().NoError(err)
	s.Equal("signed", found.Status)
}

func (s *StoreSuite) TestUpdateAll() {
	s.seed(
		record{ID: "r1", OwnerID: "o1", Status: "sent"},
		record{ID: "r2", OwnerID: "o1", Status: "sent"},
		record{ID: "r3", OwnerID: "o2", Status: "sent"},
	)

	affected, err := s.store.UpdateAll(s.ctx,
		map[string]interface{}{"status": "revoked"},
		[]Clause{
			{Field: "owner_id", Op: "eq", Value: "o1"},
			{Field: "id", Op: "neq", Value: "r1"},
		},
	)
	s.Require().NoError(err)
	s.EqualValues(1, affected)

	count, err := s.store.Count(s.ctx, []Clause{{Field: "status", Op: "eq", Value: "revoked"}})
	s.Require().NoError(err)
	s.EqualValues(1, count)
}

func (s *StoreSuite) TestDeleteByID() {
	s.seed(record{ID: "r1"})

	s.Require().NoError(s.store.DeleteByID(s.ctx, "r1"))
	s.ErrorIs(s.store.DeleteByID(s.ctx, "r1"), faults.ErrNotFound)
}
