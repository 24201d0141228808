package imaging

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
)

// CaptureContext holds the EXIF fields relevant to shooting advice. Knowing
// the camera lets the model ground its ISO/speed/EV suggestions in what the
// device can actually do.
type CaptureContext struct {
	CameraMake  string
	CameraModel string
	Taken       time.Time
	HasTaken    bool
}

// ExtractCaptureContext reads camera make/model and capture time from the
// original (pre-normalization) image bytes. Extraction is best-effort:
// recompressed or stripped uploads simply yield nil.
func ExtractCaptureContext(data []byte) *CaptureContext {
	exifData, err := imagemeta.Decode(bytes.NewReader(data))
	if err != nil {
		log.Debug().Err(err).Msg("No EXIF metadata in upload")
		return nil
	}

	ctx := &CaptureContext{
		CameraMake:  strings.TrimSpace(exifData.Make),
		CameraModel: strings.TrimSpace(exifData.Model),
	}

	// Priority: DateTimeOriginal > CreateDate
	if !exifData.DateTimeOriginal().IsZero() {
		ctx.Taken = exifData.DateTimeOriginal()
		ctx.HasTaken = true
	} else if !exifData.CreateDate().IsZero() {
		ctx.Taken = exifData.CreateDate()
		ctx.HasTaken = true
	}

	if ctx.CameraMake == "" && ctx.CameraModel == "" && !ctx.HasTaken {
		return nil
	}
	return ctx
}

// PromptLine formats the capture context as a single line for inclusion in
// the analysis instruction, or "" when nothing useful was extracted.
func (c *CaptureContext) PromptLine() string {
	if c == nil {
		return ""
	}

	var parts []string
	if c.CameraMake != "" || c.CameraModel != "" {
		parts = append(parts, strings.TrimSpace(c.CameraMake+" "+c.CameraModel))
	}
	if c.HasTaken {
		parts = append(parts, fmt.Sprintf("taken %s", c.Taken.Format("3:04 PM, January 2 2006")))
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ", ")
}
