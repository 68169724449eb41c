package portal

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/dmarchuk/otprelay/internal/parser"
	"github.com/dmarchuk/otprelay/pkg/models"
)

// Extractor turns raw portal markup into message records
type Extractor struct {
	detector *parser.CodeDetector
	now      func() time.Time
}

// NewExtractor creates a new extractor
func NewExtractor(detector *parser.CodeDetector) *Extractor {
	return &Extractor{
		detector: detector,
		now:      time.Now,
	}
}

// Extract parses the markup as a table of messages. The first row is a
// header and is skipped; rows with fewer than three cells are skipped
// (the portal serves partial rows under load). Rows whose body yields no
// OTP code are dropped entirely.
func (e *Extractor) Extract(markup string) ([]*models.MessageRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}

	var records []*models.MessageRecord
	doc.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // header row
		}

		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}

		rawText := strings.TrimSpace(cells.Eq(2).Text())
		code, ok := e.detector.Detect(rawText)
		if !ok {
			return
		}

		records = append(records, &models.MessageRecord{
			PhoneNumber: NormalizePhone(cells.Eq(0).Text()),
			ServiceName: NormalizeService(cells.Eq(1).Text()),
			OTPCode:     code,
			RawText:     rawText,
			ObservedAt:  e.now(),
		})
	})

	return records, nil
}
