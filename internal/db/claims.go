package db

import "fmt"

// CreateClaim inserts a claim (always unverified, zero evidence) and links it
// to the sources that mention it. Duplicate extraction of the same text
// produces duplicate rows on purpose: the agent owns deduplication.
func (db *DB) CreateClaim(investigationID, claimText string, sourceIDs []string) (*Claim, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	id := NewID()
	if _, err := tx.Exec(`
		INSERT INTO claims (id, investigation_id, claim_text)
		VALUES (?, ?, ?)`, id, investigationID, claimText); err != nil {
		return nil, err
	}

	for _, sourceID := range sourceIDs {
		if _, err := tx.Exec(`
			INSERT OR IGNORE INTO claim_sources (claim_id, source_id)
			VALUES (?, ?)`, id, sourceID); err != nil {
			return nil, fmt.Errorf("linking source %s: %w", sourceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return db.GetClaim(id)
}

func (db *DB) GetClaim(id string) (*Claim, error) {
	row := db.QueryRow(claimSelect+` WHERE id = ?`, id)
	return scanClaim(row)
}

// FirstLinkedSource returns the claim's first linked source in insertion
// order, or sql.ErrNoRows when the claim has no sources.
func (db *DB) FirstLinkedSource(claimID string) (string, error) {
	var sourceID string
	err := db.QueryRow(`
		SELECT source_id FROM claim_sources
		WHERE claim_id = ? ORDER BY rowid LIMIT 1`, claimID).Scan(&sourceID)
	return sourceID, err
}

// ApplyFactCheck appends the evidence row and re-derives the claim status in
// one transaction. The status ratchet only moves forward:
// unverified -> verified on supporting evidence, anything -> contradicted on
// contradicting evidence, and contradicted never goes back.
func (db *DB) ApplyFactCheck(claimID, sourceID, evidenceType, evidenceText string) (*FactCheck, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var status string
	if err := tx.QueryRow(`SELECT status FROM claims WHERE id = ?`, claimID).Scan(&status); err != nil {
		return nil, fmt.Errorf("loading claim %s: %w", claimID, err)
	}

	id := NewID()
	if _, err := tx.Exec(`
		INSERT INTO fact_checks (id, claim_id, source_id, evidence_type, evidence_text)
		VALUES (?, ?, ?, ?, ?)`,
		id, claimID, sourceID, evidenceType, evidenceText); err != nil {
		return nil, err
	}

	switch {
	case evidenceType == "contradicting":
		status = "contradicted"
	case evidenceType == "supporting" && status == "unverified":
		status = "verified"
	}

	if _, err := tx.Exec(`
		UPDATE claims
		SET status = ?, evidence_count = evidence_count + 1, updated_at = datetime('now')
		WHERE id = ?`, status, claimID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return db.GetFactCheck(id)
}

func (db *DB) GetFactCheck(id string) (*FactCheck, error) {
	var fc FactCheck
	err := db.QueryRow(`
		SELECT id, claim_id, source_id, evidence_type, evidence_text, created_at
		FROM fact_checks WHERE id = ?`, id).
		Scan(&fc.ID, &fc.ClaimID, &fc.SourceID, &fc.EvidenceType, &fc.EvidenceText, &fc.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &fc, nil
}

const claimSelect = `
	SELECT id, investigation_id, claim_text, status, evidence_count, created_at, updated_at
	FROM claims`

func scanClaim(s rowScanner) (*Claim, error) {
	var c Claim
	err := s.Scan(&c.ID, &c.InvestigationID, &c.ClaimText, &c.Status,
		&c.EvidenceCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
