package db

import "database/sql"

type CreateInvestigationInput struct {
	UserID    string
	SessionID string
	Title     string
	Brief     string
	Mode      string
}

// CreateInvestigation inserts a pending investigation created from the UI.
func (db *DB) CreateInvestigation(in CreateInvestigationInput) (*Investigation, error) {
	id := NewID()
	_, err := db.Exec(`
		INSERT INTO investigations (id, user_id, session_id, title, brief, mode, status)
		VALUES (?, ?, ?, ?, ?, ?, 'pending')`,
		id, in.UserID, in.SessionID, in.Title, in.Brief, in.Mode)
	if err != nil {
		return nil, err
	}
	return db.GetInvestigation(id)
}

// BootstrapInvestigation inserts an already-active investigation announced by
// the agent before any UI-side creation. The agent knows only its own run id,
// so that id doubles as the session handle.
func (db *DB) BootstrapInvestigation(id, userID string) (*Investigation, error) {
	_, err := db.Exec(`
		INSERT INTO investigations (id, user_id, session_id, title, brief, mode, status, started_at)
		VALUES (?, ?, ?, 'Agent Investigation', 'Investigation started by the agent', 'quick', 'active', datetime('now'))`,
		id, userID, id)
	if err != nil {
		return nil, err
	}
	return db.GetInvestigation(id)
}

// GetInvestigation fetches by id alone. Used by the callback dispatcher,
// which has no user context.
func (db *DB) GetInvestigation(id string) (*Investigation, error) {
	row := db.QueryRow(investigationSelect+` WHERE id = ?`, id)
	return scanInvestigation(row)
}

// GetInvestigationForUser fetches by id with an ownership check. A foreign
// investigation and a missing one are indistinguishable (sql.ErrNoRows).
func (db *DB) GetInvestigationForUser(id, userID string) (*Investigation, error) {
	row := db.QueryRow(investigationSelect+` WHERE id = ? AND user_id = ?`, id, userID)
	return scanInvestigation(row)
}

// ListInvestigationsByUser returns the user's investigations, newest first.
func (db *DB) ListInvestigationsByUser(userID string) ([]*Investigation, error) {
	rows, err := db.Query(investigationSelect+` WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*Investigation
	for rows.Next() {
		inv, err := scanInvestigationRows(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

// DeleteInvestigation removes the row and, via foreign keys, every child
// entity. Returns false when the id is missing or owned by someone else.
func (db *DB) DeleteInvestigation(id, userID string) (bool, error) {
	res, err := db.Exec(`DELETE FROM investigations WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkStarted flips the investigation to active. started_at is set exactly
// once: a redelivered start event cannot move the original start time.
func (db *DB) MarkStarted(id string) error {
	_, err := db.Exec(`
		UPDATE investigations
		SET status = 'active',
		    started_at = COALESCE(started_at, datetime('now')),
		    updated_at = datetime('now')
		WHERE id = ?`, id)
	return err
}

// SetSummary updates the progressive summary without touching status. A nil
// bias keeps the stored score.
func (db *DB) SetSummary(id, summary string, bias *string) error {
	_, err := db.Exec(`
		UPDATE investigations
		SET summary = ?,
		    overall_bias_score = COALESCE(?, overall_bias_score),
		    updated_at = datetime('now')
		WHERE id = ?`, summary, bias, id)
	return err
}

// Complete records the final summary and moves the investigation to completed.
func (db *DB) Complete(id, summary string, bias *string) error {
	_, err := db.Exec(`
		UPDATE investigations
		SET status = 'completed',
		    summary = ?,
		    overall_bias_score = COALESCE(?, overall_bias_score),
		    updated_at = datetime('now')
		WHERE id = ?`, summary, bias, id)
	return err
}

// MarkPartial records partial findings when the agent ran out of time or
// budget but has something to show.
func (db *DB) MarkPartial(id, summary, reason string, bias *string) error {
	_, err := db.Exec(`
		UPDATE investigations
		SET status = 'partial',
		    summary = ?,
		    partial_reason = ?,
		    overall_bias_score = COALESCE(?, overall_bias_score),
		    updated_at = datetime('now')
		WHERE id = ?`, summary, reason, bias, id)
	return err
}

// MarkFailed flips status only. The agent's error message is for logs, not
// for display.
func (db *DB) MarkFailed(id string) error {
	_, err := db.Exec(`
		UPDATE investigations
		SET status = 'failed', updated_at = datetime('now')
		WHERE id = ?`, id)
	return err
}

const investigationSelect = `
	SELECT id, user_id, session_id, title, brief, mode, status,
	       summary, overall_bias_score, partial_reason,
	       created_at, started_at, updated_at
	FROM investigations`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvestigationFrom(s rowScanner) (*Investigation, error) {
	var inv Investigation
	var summary, bias, reason sql.NullString
	var startedAt sql.NullTime
	err := s.Scan(&inv.ID, &inv.UserID, &inv.SessionID, &inv.Title, &inv.Brief,
		&inv.Mode, &inv.Status, &summary, &bias, &reason,
		&inv.CreatedAt, &startedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if summary.Valid {
		inv.Summary = &summary.String
	}
	if bias.Valid {
		inv.OverallBiasScore = &bias.String
	}
	if reason.Valid {
		inv.PartialReason = &reason.String
	}
	if startedAt.Valid {
		inv.StartedAt = &startedAt.Time
	}
	return &inv, nil
}

func scanInvestigation(row *sql.Row) (*Investigation, error) {
	return scanInvestigationFrom(row)
}

func scanInvestigationRows(rows *sql.Rows) (*Investigation, error) {
	return scanInvestigationFrom(rows)
}
