package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tgienger/pdash/internal/models"
)

// Odoo search_read encodes dates as "2006-01-02", datetimes as
// "2006-01-02 15:04:05" (UTC) and unset values as false.
const (
	odooDate     = "2006-01-02"
	odooDateTime = "2006-01-02 15:04:05"
)

type odooTime struct {
	time.Time
}

func (t *odooTime) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}
	if isOdooEmpty(data) {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	if s == "" {
		return nil
	}

	for _, layout := range []string{odooDateTime, odooDate, time.RFC3339} {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("date: unrecognized value %q", s)
}

func (t odooTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("false"), nil
	}
	u := t.UTC()
	if u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 && u.Nanosecond() == 0 {
		return json.Marshal(u.Format(odooDate))
	}
	return json.Marshal(u.Format(odooDateTime))
}

// odooString reads Odoo char fields, which are false when unset
type odooString string

func (s *odooString) UnmarshalJSON(data []byte) error {
	*s = ""
	if isOdooEmpty(data) {
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = odooString(v)
	return nil
}

func (s odooString) MarshalJSON() ([]byte, error) {
	if s == "" {
		return []byte("false"), nil
	}
	return json.Marshal(string(s))
}

func isOdooEmpty(data []byte) bool {
	data = bytes.TrimSpace(data)
	return bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte("false"))
}

// document is the search_read dump read by the file source
type document struct {
	Projects []projectRecord `json:"projects"`
	Tasks    []taskRecord    `json:"tasks"`
}

type projectRecord struct {
	ID               int64        `json:"id"`
	Name             odooString   `json:"name"`
	DateStart        odooTime     `json:"date_start"`
	Date             odooTime     `json:"date"`
	UserID           models.Ref   `json:"user_id"`
	Department       odooString   `json:"department,omitempty"`
	TagIDs           []models.Ref `json:"tag_ids,omitempty"`
	LastUpdateStatus odooString   `json:"last_update_status"`
	Active           *bool        `json:"active,omitempty"` // absent means active
}

func (r projectRecord) raw() models.RawProject {
	p := models.RawProject{
		ID:         r.ID,
		Name:       string(r.Name),
		DateStart:  r.DateStart.Time,
		DateEnd:    r.Date.Time,
		Department: string(r.Department),
		User:       r.UserID,
		State:      string(r.LastUpdateStatus),
		Active:     r.Active == nil || *r.Active,
	}
	if p.Department == "" {
		for _, tag := range r.TagIDs {
			if tag.Name != "" {
				p.Department = tag.Name
				break
			}
		}
	}
	return p
}

type taskRecord struct {
	ID                   int64        `json:"id"`
	Name                 odooString   `json:"name"`
	CreateDate           odooTime     `json:"create_date"`
	DateDeadline         odooTime     `json:"date_deadline"`
	ParentID             models.Ref   `json:"parent_id"`
	ProjectID            models.Ref   `json:"project_id"`
	DependOnIDs          []models.Ref `json:"depend_on_ids"`
	State                odooString   `json:"state"`
	StageID              models.Ref   `json:"stage_id"`
	Stage                odooString   `json:"stage,omitempty"`
	AllocatedHours       float64      `json:"allocated_hours,omitempty"`
	ExpectedDurationDays *float64     `json:"expected_duration_days,omitempty"`
}

func (r taskRecord) raw(hoursPerDay float64) models.RawTask {
	t := models.RawTask{
		ID:         r.ID,
		Name:       string(r.Name),
		CreateDate: r.CreateDate.Time,
		Deadline:   r.DateDeadline.Time,
		Parent:     r.ParentID,
		Project:    r.ProjectID,
		State:      string(r.State),
		Stage:      r.StageID.Name,
	}
	if t.Stage == "" {
		t.Stage = string(r.Stage)
	}
	for _, dep := range r.DependOnIDs {
		if !dep.IsZero() {
			t.DependsOn = append(t.DependsOn, dep)
		}
	}
	switch {
	case r.ExpectedDurationDays != nil:
		d := *r.ExpectedDurationDays
		t.ExpectedDurationDays = &d
	default:
		t.ExpectedDurationDays = hoursToDays(r.AllocatedHours, hoursPerDay)
	}
	return t
}

// hoursToDays converts allocated hours to working days; nil when unset
func hoursToDays(hours, hoursPerDay float64) *float64 {
	if hours <= 0 || hoursPerDay <= 0 {
		return nil
	}
	d := hours / hoursPerDay
	return &d
}
