package models

import "time"

// WizardSession is the mutable state of one multi-step form flow. It is owned
// by a single actor and discarded on close or successful submit.
type WizardSession struct {
	ActorID     int64                  `json:"actor_id"`
	Kind        string                 `json:"kind"`
	CurrentStep int                    `json:"current_step"`
	TotalSteps  int                    `json:"total_steps"`
	Form        map[string]interface{} `json:"form"`
	Error       string                 `json:"error,omitempty"`
	Submitting  bool                   `json:"submitting"`
	StartedAt   time.Time              `json:"started_at"`
}

// Set stores a form field, allocating the map on first use.
func (s *WizardSession) Set(key string, value interface{}) {
	if s.Form == nil {
		s.Form = make(map[string]interface{})
	}
	s.Form[key] = value
}

func (s *WizardSession) GetString(key string) string {
	if s.Form == nil {
		return ""
	}
	if str, ok := s.Form[key].(string); ok {
		return str
	}
	return ""
}

func (s *WizardSession) GetInt64(key string) int64 {
	if s.Form == nil {
		return 0
	}
	switch v := s.Form[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		// JSON round-trips numbers as float64.
		return int64(v)
	default:
		return 0
	}
}

func (s *WizardSession) GetBool(key string) bool {
	if s.Form == nil {
		return false
	}
	b, ok := s.Form[key].(bool)
	return ok && b
}

func (s *WizardSession) GetTime(key string) time.Time {
	if s.Form == nil {
		return time.Time{}
	}
	switch v := s.Form[key].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
		if t, err := time.Parse("2006-01-02", v); err == nil {
			return t
		}
		return time.Time{}
	default:
		return time.Time{}
	}
}

// Progress returns completion percent for display.
func (s *WizardSession) Progress() float64 {
	if s.TotalSteps <= 0 {
		return 0
	}
	return float64(s.CurrentStep) / float64(s.TotalSteps) * 100
}
