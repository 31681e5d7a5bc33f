package db

import "database/sql"

type UpsertSourceInput struct {
	InvestigationID  string
	URL              string
	Title            *string
	ContentSnippet   *string
	CredibilityScore *int
	IsUserProvided   bool
}

// UpsertSource inserts a source or, when (investigation_id, url) already
// exists, refreshes title, snippet and credibility in place. url and
// is_user_provided are never overwritten after first insert, and absent
// fields keep their stored values. The unique constraint resolves races
// between two concurrently-reported duplicate URLs.
func (db *DB) UpsertSource(in UpsertSourceInput) (string, error) {
	var id string
	err := db.QueryRow(`
		INSERT INTO sources (id, investigation_id, url, title, content_snippet, credibility_score, is_user_provided)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(investigation_id, url) DO UPDATE SET
			title = COALESCE(excluded.title, sources.title),
			content_snippet = COALESCE(excluded.content_snippet, sources.content_snippet),
			credibility_score = COALESCE(excluded.credibility_score, sources.credibility_score)
		RETURNING id`,
		NewID(), in.InvestigationID, in.URL, in.Title, in.ContentSnippet,
		in.CredibilityScore, boolToInt(in.IsUserProvided)).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// SetBiasScore records the analysis result. analyzed_at distinguishes "not
// yet analyzed" (NULL) from "analyzed, whatever the score" (non-NULL).
func (db *DB) SetBiasScore(sourceID, score string) error {
	res, err := db.Exec(`
		UPDATE sources SET bias_score = ?, analyzed_at = datetime('now')
		WHERE id = ?`, score, sourceID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (db *DB) GetSource(id string) (*Source, error) {
	row := db.QueryRow(sourceSelect+` WHERE id = ?`, id)
	return scanSource(row)
}

const sourceSelect = `
	SELECT id, investigation_id, url, title, content_snippet,
	       credibility_score, bias_score, is_user_provided, analyzed_at, created_at
	FROM sources`

func scanSource(s rowScanner) (*Source, error) {
	var src Source
	var title, snippet, bias sql.NullString
	var cred sql.NullInt64
	var analyzedAt sql.NullTime
	var userProvided int
	err := s.Scan(&src.ID, &src.InvestigationID, &src.URL, &title, &snippet,
		&cred, &bias, &userProvided, &analyzedAt, &src.CreatedAt)
	if err != nil {
		return nil, err
	}
	if title.Valid {
		src.Title = &title.String
	}
	if snippet.Valid {
		src.ContentSnippet = &snippet.String
	}
	if cred.Valid {
		c := int(cred.Int64)
		src.CredibilityScore = &c
	}
	if bias.Valid {
		src.BiasScore = &bias.String
	}
	src.IsUserProvided = userProvided == 1
	if analyzedAt.Valid {
		src.AnalyzedAt = &analyzedAt.Time
	}
	return &src, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
