package services

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Amir-debuug/cert-verification-sub001/internal/db"
	"github.com/Amir-debuug/cert-verification-sub001/internal/faults"
)

func openTestDB() (*gorm.DB, error) {
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return database, db.RunMigrations(database)
}

// fakeMarker stands in for the PDF watermarker so service tests do not
// need real PDF fixtures. The tag rides in a plain-text envelope.
type fakeMarker struct{}

const fakeMarkerHeader = "%TAGGED\n"

func (fakeMarker) Embed(pdf []byte, tag string) ([]byte, error) {
	if len(pdf) == 0 {
		return nil, fmt.Errorf("%w: empty input", faults.ErrDocumentFormat)
	}
	out := []byte(fakeMarkerHeader + tag + "\n")
	return append(out, pdf...), nil
}

func (fakeMarker) ExtractTag(pdf []byte) (string, error) {
	content := string(pdf)
	if !strings.HasPrefix(content, fakeMarkerHeader) {
		return "", fmt.Errorf("%w: no embedded tag", faults.ErrDocumentFormat)
	}
	rest := content[len(fakeMarkerHeader):]
	end := strings.IndexByte(rest, '\n')
	if end < 0 {
		return "", fmt.Errorf("%w: truncated tag", faults.ErrDocumentFormat)
	}
	return rest[:end], nil
}

func (fakeMarker) Preview(tag string) ([]byte, error) {
	return []byte("png:" + tag), nil
}
