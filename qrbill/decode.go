package qrbill

import (
	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

const rasterDPI = 300

// Extract rasterizes the PDF page by page and returns the record of the
// first decodable QR symbol, or nil when no page carries one. The decoder
// reads the file only; it performs no network or write I/O.
func Extract(pdfPath string) (*Record, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	for page := 0; page < doc.NumPage(); page++ {
		if record := decodePage(doc, page); record != nil {
			return record, nil
		}
	}
	return nil, nil
}

// ExtractAll decodes every page, one record per decodable symbol, for
// multi-invoice scans.
func ExtractAll(pdfPath string) ([]*Record, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	var records []*Record
	for page := 0; page < doc.NumPage(); page++ {
		if record := decodePage(doc, page); record != nil {
			records = append(records, record)
		}
	}
	return records, nil
}

// decodePage owns the page bitmap for its whole lifetime; it is released on
// every exit path when the image goes out of scope.
func decodePage(doc *fitz.Document, page int) *Record {
	img, err := doc.ImageDPI(page, rasterDPI)
	if err != nil {
		return nil
	}

	// Grayscale sharpens the black/white threshold for the binarizer.
	gray := imaging.Grayscale(img)

	bitmap, err := gozxing.NewBinaryBitmapFromImage(gray)
	if err != nil {
		return nil
	}

	result, err := qrcode.NewQRCodeReader().Decode(bitmap, map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	})
	if err != nil {
		return nil
	}
	return ParsePayload([]byte(result.GetText()))
}
