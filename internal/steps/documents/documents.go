// Package documents is the document upload step. Only per-document
// metadata lives in the step record; the binary upload itself goes
// straight to the backend's document service and is out of scope here.
package documents

import (
	"context"

	"lead-intake/internal/common/logger"
	"lead-intake/internal/models"
	"lead-intake/internal/wizard"
)

// DocumentMeta describes one attached document.
type DocumentMeta struct {
	Type     string `json:"type"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Uploaded bool   `json:"uploaded"`
}

type Draft struct {
	Documents []DocumentMeta `json:"documents"`
}

func Seed(record models.StepRecord) Draft {
	if record == nil {
		return Draft{}
	}
	var docs []DocumentMeta
	if raw, ok := record["documents"].([]interface{}); ok {
		for _, item := range raw {
			m, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			rec := models.StepRecord(m)
			docs = append(docs, DocumentMeta{
				Type:     rec.String("type"),
				Filename: rec.String("filename"),
				Size:     int64(rec.Float("size")),
				Uploaded: rec.Bool("uploaded"),
			})
		}
	}
	return Draft{Documents: docs}
}

func (d Draft) Record() models.StepRecord {
	docs := make([]interface{}, 0, len(d.Documents))
	for _, doc := range d.Documents {
		docs = append(docs, map[string]interface{}{
			"type":     doc.Type,
			"filename": doc.Filename,
			"size":     doc.Size,
			"uploaded": doc.Uploaded,
		})
	}
	return models.StepRecord{"documents": docs}
}

type Handler struct {
	wizard *wizard.Controller
	logger logger.Logger
}

func NewHandler(w *wizard.Controller, log logger.Logger) *Handler {
	return &Handler{
		wizard: w,
		logger: log.WithFields(map[string]interface{}{"step": "documents"}),
	}
}

func (h *Handler) Save(ctx context.Context, sessionID, leadID string, draft Draft) (*wizard.Route, error) {
	return h.wizard.Advance(ctx, sessionID, leadID, wizard.StepDocuments, draft.Record())
}

func (h *Handler) Exit(ctx context.Context, sessionID, leadID string, draft Draft) (*wizard.Route, error) {
	if err := h.wizard.SaveAndStay(ctx, sessionID, leadID, wizard.StepDocuments, draft.Record()); err != nil {
		return nil, err
	}
	return h.wizard.Exit(ctx, sessionID, leadID)
}
