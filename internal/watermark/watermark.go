// Package watermark turns a PDF into a verification artifact: the
// encrypted payload is written into the document's Creator metadata
// (the durable, machine-readable carrier) and rendered as a QR marker
// drawn below every page.
package watermark

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/Amir-debuug/cert-verification-sub001/internal/faults"
)

const (
	// extra space added below each page, in points; the QR marker is
	// drawn bottom-right inside this strip
	qrMargin = 56.0

	qrPixels = 256
	qrDesc   = "pos:br, off:-8 8, scale:0.16 abs, rot:0"
)

type Watermarker struct {
	conf   *model.Configuration
	logger *zap.Logger
}

func New(logger *zap.Logger) *Watermarker {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Watermarker{
		conf:   conf,
		logger: logger.With(zap.String("component", "watermarker")),
	}
}

// Embed writes the verification tag into the PDF's Creator metadata,
// extends every page downward by a fixed margin and draws the tag as a
// QR image in the bottom-right corner of that margin. The input is
// never partially modified: any failure returns no output.
func (w *Watermarker) Embed(pdf []byte, tag string) ([]byte, error) {
	ctx, err := api.ReadContext(bytes.NewReader(pdf), w.conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", faults.ErrDocumentFormat, err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", faults.ErrDocumentFormat, err)
	}

	if err := setCreator(ctx, tag); err != nil {
		return nil, fmt.Errorf("embed creator metadata: %w", err)
	}
	if err := extendPageBoxes(ctx); err != nil {
		return nil, fmt.Errorf("extend page boxes: %w", err)
	}

	var staged bytes.Buffer
	if err := api.WriteContext(ctx, &staged); err != nil {
		return nil, fmt.Errorf("write tagged pdf: %w", err)
	}

	png, err := qrcode.Encode(tag, qrcode.Medium, qrPixels)
	if err != nil {
		return nil, fmt.Errorf("render qr marker: %w", err)
	}
	wm, err := api.ImageWatermarkForReader(bytes.NewReader(png), qrDesc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("build qr watermark: %w", err)
	}

	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(staged.Bytes()), &out, nil, wm, w.conf); err != nil {
		return nil, fmt.Errorf("draw qr watermark: %w", err)
	}

	w.logger.Debug("Document watermarked",
		zap.Int("pages", ctx.PageCount),
		zap.Int("input_size", len(pdf)),
		zap.Int("output_size", out.Len()),
	)
	return out.Bytes(), nil
}

// ExtractTag reads the verification tag back out of the Creator
// metadata field.
func (w *Watermarker) ExtractTag(pdf []byte) (string, error) {
	ctx, err := api.ReadContext(bytes.NewReader(pdf), w.conf)
	if err != nil {
		return "", fmt.Errorf("%w: %v", faults.ErrDocumentFormat, err)
	}
	if ctx.Info == nil {
		return "", fmt.Errorf("%w: document carries no info dictionary", faults.ErrDocumentFormat)
	}
	d, err := ctx.DereferenceDict(*ctx.Info)
	if err != nil || d == nil {
		return "", fmt.Errorf("%w: unreadable info dictionary", faults.ErrDocumentFormat)
	}
	obj, found := d.Find("Creator")
	if !found {
		return "", fmt.Errorf("%w: creator metadata absent", faults.ErrDocumentFormat)
	}
	obj, err = ctx.Dereference(obj)
	if err != nil {
		return "", fmt.Errorf("%w: %v", faults.ErrDocumentFormat, err)
	}

	switch lit := obj.(type) {
	case types.StringLiteral:
		s, err := types.StringLiteralToString(lit)
		if err != nil {
			return "", fmt.Errorf("%w: %v", faults.ErrDocumentFormat, err)
		}
		return s, nil
	case types.HexLiteral:
		s, err := types.HexLiteralToString(lit)
		if err != nil {
			return "", fmt.Errorf("%w: %v", faults.ErrDocumentFormat, err)
		}
		return s, nil
	}
	return "", fmt.Errorf("%w: creator metadata has unexpected type", faults.ErrDocumentFormat)
}

// Preview renders the tag as a standalone QR PNG, stored alongside the
// document as its listing preview.
func (w *Watermarker) Preview(tag string) ([]byte, error) {
	png, err := qrcode.Encode(tag, qrcode.Medium, qrPixels)
	if err != nil {
		return nil, fmt.Errorf("render preview: %w", err)
	}
	return png, nil
}

func setCreator(ctx *model.Context, tag string) error {
	if ctx.Info == nil {
		ir, err := ctx.IndRefForNewObject(types.NewDict())
		if err != nil {
			return err
		}
		ctx.Info = ir
	}
	d, err := ctx.DereferenceDict(*ctx.Info)
	if err != nil {
		return err
	}
	if d == nil {
		return fmt.Errorf("info dictionary unresolvable")
	}
	d.Update("Creator", types.StringLiteral(tag))
	return nil
}

func extendPageBoxes(ctx *model.Context) error {
	for i := 1; i <= ctx.PageCount; i++ {
		d, _, inh, err := ctx.PageDict(i, false)
		if err != nil {
			return fmt.Errorf("page %d: %w", i, err)
		}
		if inh.MediaBox == nil {
			continue
		}
		mb := inh.MediaBox
		r := types.NewRectangle(mb.LL.X, mb.LL.Y-qrMargin, mb.UR.X, mb.UR.Y)
		d.Update("MediaBox", r.Array())
		if _, found := d.Find("CropBox"); found {
			d.Update("CropBox", r.Array())
		}
	}
	return nil
}
