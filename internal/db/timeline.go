package db

import "time"

// InsertTimelineEvent appends one dated event. Events are immutable; the
// source reference is optional and survives as NULL if the source goes away.
func (db *DB) InsertTimelineEvent(investigationID string, eventDate time.Time, eventText string, sourceID *string) (*TimelineEvent, error) {
	id := NewID()
	_, err := db.Exec(`
		INSERT INTO timeline_events (id, investigation_id, event_date, event_text, source_id)
		VALUES (?, ?, ?, ?, ?)`,
		id, investigationID, eventDate.UTC(), eventText, sourceID)
	if err != nil {
		return nil, err
	}
	return db.GetTimelineEvent(id)
}

func (db *DB) GetTimelineEvent(id string) (*TimelineEvent, error) {
	var ev TimelineEvent
	var sourceID *string
	err := db.QueryRow(`
		SELECT id, investigation_id, event_date, event_text, source_id, created_at
		FROM timeline_events WHERE id = ?`, id).
		Scan(&ev.ID, &ev.InvestigationID, &ev.EventDate, &ev.EventText, &sourceID, &ev.CreatedAt)
	if err != nil {
		return nil, err
	}
	ev.SourceID = sourceID
	return &ev, nil
}
