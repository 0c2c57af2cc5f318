package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"timetracker/internal/core"
)

// Timestamps are written as ISO-8601 strings so documents created by the
// web frontend and by this service look the same.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// entryDoc is the stored shape of a time entry. Optional fields are
// pointers so a missing field is distinguishable from a zero value.
type entryDoc struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	Title       string        `bson:"title"`
	Description string        `bson:"description"`
	Date        string        `bson:"date"`
	Duration    int           `bson:"duration"`
	Category    *string       `bson:"category,omitempty"`
	Progress    *int          `bson:"progress,omitempty"`
	Completed   *bool         `bson:"completed,omitempty"`
	CreatedAt   bson.RawValue `bson:"createdAt,omitempty"`
	UpdatedAt   bson.RawValue `bson:"updatedAt,omitempty"`
}

func newDoc(e core.TimeEntry) bson.D {
	return bson.D{
		{Key: "title", Value: e.Title},
		{Key: "description", Value: e.Description},
		{Key: "date", Value: e.Date},
		{Key: "duration", Value: e.Duration},
		{Key: "category", Value: e.Category},
		{Key: "progress", Value: e.Progress},
		{Key: "completed", Value: e.Completed},
		{Key: "createdAt", Value: isoTime(e.CreatedAt)},
		{Key: "updatedAt", Value: isoTime(e.UpdatedAt)},
	}
}

func (d entryDoc) entry() core.TimeEntry {
	e := core.TimeEntry{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Date:        d.Date,
		Duration:    d.Duration,
		CreatedAt:   rawTime(d.CreatedAt),
		UpdatedAt:   rawTime(d.UpdatedAt),
	}
	if d.Category != nil {
		e.Category = *d.Category
	}
	if d.Progress != nil {
		e.Progress = *d.Progress
	}
	if d.Completed != nil {
		e.Completed = *d.Completed
	}
	return e
}

func updateSet(u core.EntryUpdate) bson.D {
	set := bson.D{
		{Key: "title", Value: u.Title},
		{Key: "description", Value: u.Description},
		{Key: "date", Value: u.Date},
		{Key: "duration", Value: u.Duration},
		{Key: "category", Value: u.Category},
	}
	if u.Progress != nil {
		set = append(set, bson.E{Key: "progress", Value: *u.Progress})
	}
	if u.Completed != nil {
		set = append(set, bson.E{Key: "completed", Value: *u.Completed})
	}
	set = append(set, bson.E{Key: "updatedAt", Value: isoTime(u.UpdatedAt)})
	return bson.D{{Key: "$set", Value: set}}
}

func progressSet(progress int, completed bool, at time.Time) bson.D {
	return bson.D{{Key: "$set", Value: bson.D{
		{Key: "progress", Value: progress},
		{Key: "completed", Value: completed},
		{Key: "updatedAt", Value: isoTime(at)},
	}}}
}

func isoTime(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// rawTime accepts either an ISO string or a BSON datetime.
func rawTime(v bson.RawValue) time.Time {
	switch v.Type {
	case bson.TypeString:
		s, _ := v.StringValueOK()
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}
		}
		return t.UTC()
	case bson.TypeDateTime:
		ms, _ := v.DateTimeOK()
		return time.UnixMilli(ms).UTC()
	default:
		return time.Time{}
	}
}
