package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Amir-debuug/cert-verification-sub001/internal/blob"
	"github.com/Amir-debuug/cert-verification-sub001/internal/codec"
	"github.com/Amir-debuug/cert-verification-sub001/internal/db/models"
	"github.com/Amir-debuug/cert-verification-sub001/internal/faults"
	"github.com/Amir-debuug/cert-verification-sub001/internal/hashid"
	"github.com/Amir-debuug/cert-verification-sub001/internal/store"
	"github.com/Amir-debuug/cert-verification-sub001/pkg/metrics"
)

type DocumentServiceSuite struct {
	suite.Suite
	database    *gorm.DB
	blobs       *blob.MemoryStore
	permissions *PermissionService
	service     *DocumentService
	ctx         context.Context
}

func TestDocumentServiceSuite(t *testing.T) {
	suite.Run(t, new(DocumentServiceSuite))
}

func (s *DocumentServiceSuite) SetupTest() {
	database, err := openTestDB()
	s.Require().NoError(err)
	s.database = database

	payloadCodec, err := codec.New("test-secret")
	s.Require().NoError(err)

	logger := zap.NewNop()
	s.blobs = blob.NewMemoryStore()
	s.permissions = NewPermissionService(database, logger)
	s.service = NewDocumentService(database, s.permissions, s.blobs, fakeMarker{}, payloadCodec, logger, metrics.NewCollector())
	s.ctx = context.Background()
}

func (s *DocumentServiceSuite) create(ownerID string, signerCount int) *models.Document {
	document, err := s.service.Create(s.ctx, CreateDocumentInput{
		OwnerID:     ownerID,
		Name:        "agreement",
		FolderName:  "contracts",
		SignerCount: signerCount,
		Content:     []byte("%PDF-stub"),
	})
	s.Require().NoError(err)
	return document
}

func (s *DocumentServiceSuite) TestCreateSingleSigner() {
	document := s.create("o1", 1)

	s.Equal(hashid.Derive("o1"), document.ID)
	s.Equal(models.StatusSigned, document.Status)
	s.Equal("o1/agreement.pdf", document.BlobKey)

	s.Run("owner permission granted", func() {
		grants, err := s.permissions.ListGrants(s.ctx, document.ID)
		s.Require().NoError(err)
		s.Require().Len(grants, 1)
		s.Equal("o1", grants[0].AccountID)
		s.Equal(models.LevelOwner, grants[0].Level)
	})

	s.Run("watermarked blob uploaded", func() {
		content, err := s.blobs.Get(s.ctx, document.BlobKey)
		s.Require().NoError(err)

		tag, err := fakeMarker{}.ExtractTag(content)
		s.Require().NoError(err)
		s.NotEmpty(tag)
	})

	s.Run("preview uploaded", func() {
		preview, err := s.blobs.Get(s.ctx, "o1/agreement.png")
		s.Require().NoError(err)
		s.NotEmpty(preview)
	})
}

func (s *DocumentServiceSuite) TestCreateMultiSignerStartsSent() {
	document := s.create("o1", 3)
	s.Equal(models.StatusSent, document.Status)
	s.Equal(3, document.SignerCount)
}

func (s *DocumentServiceSuite) TestCreateValidation() {
	_, err := s.service.Create(s.ctx, CreateDocumentInput{OwnerID: "o1", Name: "x"})
	s.ErrorIs(err, faults.ErrValidation)

	_, err = s.service.Create(s.ctx, CreateDocumentInput{Name: "x", Content: []byte("%PDF")})
	s.ErrorIs(err, faults.ErrValidation)
}

func (s *DocumentServiceSuite) TestCreateCollisionConflicts() {
	s.create("o1", 1)

	// same owner derives the same content address, regardless of content
	_, err := s.service.Create(s.ctx, CreateDocumentInput{
		OwnerID: "o1",
		Name:    "different",
		Content: []byte("other bytes"),
	})
	s.ErrorIs(err, faults.ErrConflict)
}

func (s *DocumentServiceSuite) TestCreateSupersedesAnomalyRows() {
	// a crash between create and supersession can leave an extra
	// non-revoked row behind; the next create cleans it up
	legacy := &models.Document{
		ID:          "legacy-row",
		OwnerID:     "o1",
		Name:        "old",
		Status:      models.StatusSigned,
		SignerCount: 1,
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
		BlobKey:     "o1/old.pdf",
	}
	s.Require().NoError(store.New[models.Document](s.database).Create(s.ctx, legacy))

	document := s.create("o1", 1)
	s.Equal(models.StatusSigned, document.Status)

	reloaded, err := store.New[models.Document](s.database).FindByID(s.ctx, "legacy-row")
	s.Require().NoError(err)
	s.Equal(models.StatusRevoked, reloaded.Status)
}

func (s *DocumentServiceSuite) TestRevoke() {
	document := s.create("o1", 1)

	s.Require().NoError(s.service.Revoke(s.ctx, document.ID, "o1"))

	reloaded, err := store.New[models.Document](s.database).FindByID(s.ctx, document.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusRevoked, reloaded.Status)

	s.Run("already revoked is not addressable", func() {
		s.ErrorIs(s.service.Revoke(s.ctx, document.ID, "o1"), faults.ErrNotFound)
	})

	s.Run("wrong owner is not addressable", func() {
		other := s.create("o2", 1)
		s.ErrorIs(s.service.Revoke(s.ctx, other.ID, "o1"), faults.ErrNotFound)
	})
}

func (s *DocumentServiceSuite) TestGetRequiresOwnerGrant() {
	document := s.create("o1", 1)

	_, _, err := s.service.Get(s.ctx, "stranger", document.ID)
	s.ErrorIs(err, faults.ErrForbidden)

	_, err = s.permissions.Grant(s.ctx, document.ID, "stranger", models.LevelViewer)
	s.Require().NoError(err)
	_, _, err = s.service.Get(s.ctx, "stranger", document.ID)
	s.ErrorIs(err, faults.ErrForbidden, "viewer grant does not satisfy the owner check")

	got, content, err := s.service.Get(s.ctx, "o1", document.ID)
	s.Require().NoError(err)
	s.Equal(document.ID, got.ID)
	s.NotEmpty(content)
}

func (s *DocumentServiceSuite) TestList() {
	s.create("o1", 1)
	second := s.create("o2", 2)
	s.Require().NoError(s.service.Revoke(s.ctx, second.ID, "o2"))

	s.Run("unfiltered with previews", func() {
		summaries, total, err := s.service.List(s.ctx, "", "created_at:desc", 10, 0)
		s.Require().NoError(err)
		s.EqualValues(2, total)
		s.Require().Len(summaries, 2)

		for _, summary := range summaries {
			if summary.Document.Status == models.StatusRevoked {
				s.Empty(summary.Preview)
			} else {
				s.NotEmpty(summary.Preview)
			}
		}
	})

	s.Run("filtered by status", func() {
		summaries, total, err := s.service.List(s.ctx, "status:eq:revoked", "", 10, 0)
		s.Require().NoError(err)
		s.EqualValues(1, total)
		s.Require().Len(summaries, 1)
		s.Equal(second.ID, summaries[0].Document.ID)
	})

	s.Run("bad filter is a validation error", func() {
		_, _, err := s.service.List(s.ctx, "status==revoked", "", 10, 0)
		s.ErrorIs(err, faults.ErrValidation)
	})

	s.Run("ordering is applied", func() {
		summaries, _, err := s.service.List(s.ctx, "", "owner_id:desc", 10, 0)
		s.Require().NoError(err)
		s.Require().Len(summaries, 2)
		s.Equal("o2", summaries[0].Document.OwnerID)
		s.Equal("o1", summaries[1].Document.OwnerID)
	})

	s.Run("raw SQL in order is a validation error", func() {
		_, _, err := s.service.List(s.ctx, "",
			"(CASE WHEN (SELECT COUNT(*) FROM accounts WHERE id = 'x') > 0 THEN owner_id END) DESC", 10, 0)
		s.ErrorIs(err, faults.ErrValidation)

		_, _, err = s.service.List(s.ctx, "", "owner_id; DROP TABLE accounts", 10, 0)
		s.ErrorIs(err, faults.ErrValidation)
	})
}
