package workspace

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/termfx/codehem/core"
	"github.com/termfx/codehem/db"
	"github.com/termfx/codehem/models"
)

// PatchRecord is the read-side view of one journal row.
type PatchRecord struct {
	ID           string    `json:"id"`
	File         string    `json:"file"`
	Path         string    `json:"path"`
	Mode         string    `json:"mode"`
	Status       string    `json:"status"`
	BaseDigest   string    `json:"base_digest"`
	AfterDigest  string    `json:"after_digest"`
	LinesAdded   int       `json:"lines_added"`
	LinesRemoved int       `json:"lines_removed"`
	AppliedAt    time.Time `json:"applied_at"`
}

// journal persists applied patches through gorm. All failures degrade to
// debug logs; journaling never blocks a write.
type journal struct {
	gdb     *gorm.DB
	session string
}

func openJournal(dsn, root string) (*journal, error) {
	gdb, err := db.Connect(dsn, false)
	if err != nil {
		return nil, err
	}
	session := models.Session{ID: uuid.NewString(), Root: root}
	if err := gdb.Create(&session).Error; err != nil {
		return nil, err
	}
	return &journal{gdb: gdb, session: session.ID}, nil
}

func (j *journal) record(file, lang, path, mode, baseHash string, result core.PatchResult, status string) {
	patch := models.Patch{
		ID:           uuid.NewString(),
		SessionID:    j.session,
		Language:     lang,
		File:         file,
		Path:         path,
		Mode:         mode,
		BaseDigest:   baseHash,
		AfterDigest:  result.NewHash,
		Diff:         result.Diff,
		LinesAdded:   result.LinesAdded,
		LinesRemoved: result.LinesRemoved,
		Status:       status,
	}
	if err := j.gdb.Create(&patch).Error; err != nil {
		slog.Debug("journal write failed", "file", file, "err", err)
		return
	}

	update := map[string]any{"patch_count": gorm.Expr("patch_count + 1")}
	if status == "conflict" {
		update = map[string]any{"conflict_count": gorm.Expr("conflict_count + 1")}
	}
	if err := j.gdb.Model(&models.Session{}).Where("id = ?", j.session).Updates(update).Error; err != nil {
		slog.Debug("journal session update failed", "err", err)
	}
}

func (j *journal) history(file string) ([]PatchRecord, error) {
	var rows []models.Patch
	err := j.gdb.Where("file = ?", file).Order("applied_at desc").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]PatchRecord, len(rows))
	for i, r := range rows {
		out[i] = PatchRecord{
			ID:           r.ID,
			File:         r.File,
			Path:         r.Path,
			Mode:         r.Mode,
			Status:       r.Status,
			BaseDigest:   r.BaseDigest,
			AfterDigest:  r.AfterDigest,
			LinesAdded:   r.LinesAdded,
			LinesRemoved: r.LinesRemoved,
			AppliedAt:    r.AppliedAt,
		}
	}
	return out, nil
}

func (j *journal) close() error {
	now := time.Now()
	return j.gdb.Model(&models.Session{}).
		Where("id = ?", j.session).
		Update("ended_at", &now).Error
}
