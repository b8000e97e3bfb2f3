package watermark

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/Amir-debuug/cert-verification-sub001/internal/faults"
)

type WatermarkSuite struct {
	suite.Suite
	marker *Watermarker
}

func TestWatermarkSuite(t *testing.T) {
	suite.Run(t, new(WatermarkSuite))
}

func (s *WatermarkSuite) SetupTest() {
	s.marker = New(zap.NewNop())
}

// minimalPDF assembles a one-page PDF with a correct xref table.
func minimalPDF() []byte {
	var b bytes.Buffer
	var offsets []int

	obj := func(body string) {
		offsets = append(offsets, b.Len())
		b.WriteString(body)
	}

	b.WriteString("%PDF-1.4\n")
	obj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	obj("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	obj("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> /Contents 4 0 R >>\nendobj\n")
	obj("4 0 obj\n<< /Length 0 >>\nstream\n\nendstream\nendobj\n")

	xref := b.Len()
	b.WriteString(fmt.Sprintf("xref\n0 %d\n", len(offsets)+1))
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		b.WriteString(fmt.Sprintf("%010d 00000 n \n", off))
	}
	b.WriteString(fmt.Sprintf("trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref))
	return b.Bytes()
}

func (s *WatermarkSuite) TestEmbedExtractRoundTrip() {
	tag := "b64-opaque-verification-tag=="

	watermarked, err := s.marker.Embed(minimalPDF(), tag)
	s.Require().NoError(err)
	s.NotEmpty(watermarked)

	extracted, err := s.marker.ExtractTag(watermarked)
	s.Require().NoError(err)
	s.Equal(tag, extracted)
}

func (s *WatermarkSuite) TestEmbedChangesDocument() {
	pdf := minimalPDF()
	watermarked, err := s.marker.Embed(pdf, "tag")
	s.Require().NoError(err)
	s.NotEqual(pdf, watermarked)
}

func (s *WatermarkSuite) TestEmbedRejectsGarbage() {
	_, err := s.marker.Embed([]byte("definitely not a pdf"), "tag")
	s.ErrorIs(err, faults.ErrDocumentFormat)

	_, err = s.marker.Embed(nil, "tag")
	s.ErrorIs(err, faults.ErrDocumentFormat)
}

func (s *WatermarkSuite) TestExtractTagWithoutCreator() {
	_, err := s.marker.ExtractTag(minimalPDF())
	s.ErrorIs(err, faults.ErrDocumentFormat)
}

func (s *WatermarkSuite) TestExtractTagRejectsGarbage() {
	_, err := s.marker.ExtractTag([]byte("garbage"))
	s.ErrorIs(err, faults.ErrDocumentFormat)
}

func (s *WatermarkSuite) TestPreviewIsPNG() {
	preview, err := s.marker.Preview("tag")
	s.Require().NoError(err)
	s.True(bytes.HasPrefix(preview, []byte("\x89PNG")))
}
