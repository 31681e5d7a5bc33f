package db

import "database/sql"

// The canvas queries back the polling UI. Every read takes
// (investigationID, userID) and checks ownership first; a foreign
// investigation answers exactly like a missing one (sql.ErrNoRows), so
// existence of other users' investigations never leaks. Reads are
// independent of each other — the UI polls, it does not snapshot.

func (db *DB) ownsInvestigation(investigationID, userID string) error {
	var one int
	return db.QueryRow(`
		SELECT 1 FROM investigations WHERE id = ? AND user_id = ?`,
		investigationID, userID).Scan(&one)
}

// CanvasSummary returns the progressive summary and aggregate bias score.
func (db *DB) CanvasSummary(investigationID, userID string) (summary, bias *string, err error) {
	var s, b sql.NullString
	err = db.QueryRow(`
		SELECT summary, overall_bias_score FROM investigations
		WHERE id = ? AND user_id = ?`, investigationID, userID).Scan(&s, &b)
	if err != nil {
		return nil, nil, err
	}
	if s.Valid {
		summary = &s.String
	}
	if b.Valid {
		bias = &b.String
	}
	return summary, bias, nil
}

// CanvasSources returns the investigation's sources, most credible first.
func (db *DB) CanvasSources(investigationID, userID string) ([]*Source, error) {
	if err := db.ownsInvestigation(investigationID, userID); err != nil {
		return nil, err
	}
	rows, err := db.Query(sourceSelect+`
		WHERE investigation_id = ?
		ORDER BY credibility_score DESC, created_at, rowid`, investigationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []*Source{}
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, src)
	}
	return list, rows.Err()
}

// CanvasClaims returns claims in extraction order.
func (db *DB) CanvasClaims(investigationID, userID string) ([]*Claim, error) {
	if err := db.ownsInvestigation(investigationID, userID); err != nil {
		return nil, err
	}
	rows, err := db.Query(claimSelect+`
		WHERE investigation_id = ?
		ORDER BY created_at, rowid`, investigationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []*Claim{}
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// CanvasFactChecks returns every fact check for the investigation's claims,
// each with the (id, url, title) slice of its source. Claims without
// evidence simply contribute no rows.
func (db *DB) CanvasFactChecks(investigationID, userID string) ([]*FactCheckWithSource, error) {
	if err := db.ownsInvestigation(investigationID, userID); err != nil {
		return nil, err
	}
	rows, err := db.Query(`
		SELECT fc.id, fc.claim_id, fc.source_id, fc.evidence_type, fc.evidence_text, fc.created_at,
		       s.id, s.url, s.title
		FROM fact_checks fc
		JOIN claims c ON c.id = fc.claim_id
		LEFT JOIN sources s ON s.id = fc.source_id
		WHERE c.investigation_id = ?
		ORDER BY c.created_at, c.rowid, fc.created_at, fc.rowid`, investigationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []*FactCheckWithSource{}
	for rows.Next() {
		var fc FactCheckWithSource
		var srcID, srcURL, srcTitle sql.NullString
		err := rows.Scan(&fc.ID, &fc.ClaimID, &fc.SourceID, &fc.EvidenceType,
			&fc.EvidenceText, &fc.CreatedAt, &srcID, &srcURL, &srcTitle)
		if err != nil {
			return nil, err
		}
		if srcID.Valid {
			ref := &SourceRef{ID: srcID.String, URL: srcURL.String}
			if srcTitle.Valid {
				ref.Title = &srcTitle.String
			}
			fc.Source = ref
		}
		list = append(list, &fc)
	}
	return list, rows.Err()
}

// CanvasTimeline returns timeline events in chronological order, each with
// its source slice when one is still attached.
func (db *DB) CanvasTimeline(investigationID, userID string) ([]*TimelineEventWithSource, error) {
	if err := db.ownsInvestigation(investigationID, userID); err != nil {
		return nil, err
	}
	rows, err := db.Query(`
		SELECT te.id, te.investigation_id, te.event_date, te.event_text, te.source_id, te.created_at,
		       s.id, s.url, s.title
		FROM timeline_events te
		LEFT JOIN sources s ON s.id = te.source_id
		WHERE te.investigation_id = ?
		ORDER BY te.event_date, te.created_at, te.rowid`, investigationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []*TimelineEventWithSource{}
	for rows.Next() {
		var ev TimelineEventWithSource
		var evSource sql.NullString
		var srcID, srcURL, srcTitle sql.NullString
		err := rows.Scan(&ev.ID, &ev.InvestigationID, &ev.EventDate, &ev.EventText,
			&evSource, &ev.CreatedAt, &srcID, &srcURL, &srcTitle)
		if err != nil {
			return nil, err
		}
		if evSource.Valid {
			ev.SourceID = &evSource.String
		}
		if srcID.Valid {
			ref := &SourceRef{ID: srcID.String, URL: srcURL.String}
			if srcTitle.Valid {
				ref.Title = &srcTitle.String
			}
			ev.Source = ref
		}
		list = append(list, &ev)
	}
	return list, rows.Err()
}
