package ocr_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saikiran76/SwipeAI/internal/ocr"
)

// fakeRunner renders pages for pdftoppm and answers tesseract from a table
// keyed by the image's base name.
type fakeRunner struct {
	mu     sync.Mutex
	pages  int
	texts  map[string]string
	fail   map[string]bool
	delays map[string]time.Duration
	calls  []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name+" "+strings.Join(args, " "))
	f.mu.Unlock()

	switch name {
	case "pdftoppm":
		prefix := args[len(args)-1]
		for i := 1; i <= f.pages; i++ {
			if err := os.WriteFile(prefix+"-"+itoa(i)+".png", []byte("png"), 0o600); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case "tesseract":
		base := filepath.Base(args[0])
		if d := f.delays[base]; d > 0 {
			time.Sleep(d)
		}
		if f.fail[base] {
			return nil, []byte("bad image"), errors.New("exit status 1")
		}
		return []byte(f.texts[base]), nil, nil
	}
	return nil, nil, errors.New("unexpected command " + name)
}

func itoa(i int) string {
	return string(rune('0' + i))
}

func TestRecognizePDF_JoinsPagesInOrder(t *testing.T) {
	r := &fakeRunner{
		pages: 3,
		texts: map[string]string{
			"page-1.png": "INVOICE NO: INV-1",
			"page-2.png": "Widget 2 500.00 1000.00",
			"page-3.png": "TOTAL 1000.00",
		},
		delays: map[string]time.Duration{"page-1.png": 30 * time.Millisecond},
	}
	e := ocr.NewEngine(ocr.Config{Concurrency: 3}, nil, ocr.WithRunner(r))

	res, err := e.RecognizePDF(context.Background(), []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Pages)
	assert.Equal(t, "pdf-ocr", res.Method)
	assert.Equal(t, "INVOICE NO: INV-1\n\f\nWidget 2 500.00 1000.00\n\f\nTOTAL 1000.00", res.Text)
	assert.Empty(t, res.Warnings)
}

func TestRecognizePDF_FailedPageIsAWarning(t *testing.T) {
	r := &fakeRunner{
		pages: 2,
		texts: map[string]string{"page-1.png": "first"},
		fail:  map[string]bool{"page-2.png": true},
	}
	e := ocr.NewEngine(ocr.Config{}, nil, ocr.WithRunner(r))

	res, err := e.RecognizePDF(context.Background(), []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "first", res.Text)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "page 2")
}

func TestRecognizePDF_AllPagesFail(t *testing.T) {
	r := &fakeRunner{pages: 1, fail: map[string]bool{"page-1.png": true}}
	e := ocr.NewEngine(ocr.Config{}, nil, ocr.WithRunner(r))

	_, err := e.RecognizePDF(context.Background(), []byte("%PDF"))
	assert.ErrorContains(t, err, "every page")
}

func TestRecognizePDF_NoPagesRendered(t *testing.T) {
	e := ocr.NewEngine(ocr.Config{}, nil, ocr.WithRunner(&fakeRunner{}))
	_, err := e.RecognizePDF(context.Background(), []byte("%PDF"))
	assert.ErrorContains(t, err, "no pages rendered")
}

func TestRecognizeText_Image(t *testing.T) {
	r := &fakeRunner{texts: map[string]string{"scan.png": "INVOICE\t\tNO: 7\r\n\r\n\r\n\r\nTOTAL   Rs. 99.00\n-----\n"}}
	e := ocr.NewEngine(ocr.Config{Lang: "eng+hin", TessdataDir: "/td"}, nil, ocr.WithRunner(r))

	res, err := e.RecognizeText(context.Background(), []byte("png"), "scan.png")
	require.NoError(t, err)
	assert.Equal(t, "INVOICE NO: 7\n\nTOTAL Rs. 99.00", res.Text)
	assert.Equal(t, "image-ocr", res.Method)
	assert.Equal(t, 1, res.Pages)
	assert.Greater(t, res.Confidence, float32(0.2))

	require.Len(t, r.calls, 1)
	assert.Contains(t, r.calls[0], "-l eng+hin")
	assert.Contains(t, r.calls[0], "--tessdata-dir /td")
}

func TestRecognizeFile_UnsupportedExtension(t *testing.T) {
	e := ocr.NewEngine(ocr.Config{}, nil, ocr.WithRunner(&fakeRunner{}))
	_, err := e.RecognizeFile(context.Background(), "notes.docx")
	assert.ErrorContains(t, err, "unsupported extension")
}

func TestNormalize(t *testing.T) {
	in := "Item │ Qty\r\n══════\n____\nWidget\t2   500.00  \n\n\n\nEnd"
	assert.Equal(t, "Item Qty\n\nWidget 2 500.00\n\nEnd", ocr.Normalize(in))
}

func TestHeuristicConfidence(t *testing.T) {
	weak := ocr.HeuristicConfidence("hello")
	strong := ocr.HeuristicConfidence("INVOICE 12/03/2024 Rs. 1,180.00 " + strings.Repeat("x", 120))
	assert.InDelta(t, 0.2, weak, 0.001)
	assert.Greater(t, strong, weak)
	assert.LessOrEqual(t, strong, float32(1.0))
}
