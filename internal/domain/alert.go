package domain

// Alert is a due-date-driven notification computed by the backend. The same
// shape serves both urgent alerts (0-20 days) and reminders (21-60 days); the
// partition is the backend's, never recomputed here.
type Alert struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	DaysLeft    int    `json:"daysLeft"`
	Date        string `json:"date"`
	Type        string `json:"type"`
	Collection  string `json:"collection"`
	S3URL       string `json:"s3_url,omitempty"`
	ViewableURL string `json:"viewable_url,omitempty"`
}

// AlertsRemindersResponse is the polled alerts/reminders payload
type AlertsRemindersResponse struct {
	Alerts    []Alert `json:"alerts"`
	Reminders []Alert `json:"reminders"`
}
