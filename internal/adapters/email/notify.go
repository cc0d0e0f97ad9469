package email

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
)

// Roster change kinds.
const (
	ChangeAdded       = "added"
	ChangeDeactivated = "deactivated"
)

// Change describes one roster entry that was added or deactivated.
type Change struct {
	Kind  string // ChangeAdded or ChangeDeactivated
	Table string // e.g. "מדריכים"
	Name  string
	ID    string
}

var changeTemplate = template.Must(template.New("change").Parse(
	`<div dir="rtl"><p>{{if eq .Kind "added"}}נוסף{{else}}הועבר ללא פעיל{{end}}: <strong>{{.Name}}</strong></p>` +
		`<p>טבלה: {{.Table}}</p><p style="color:#888">{{.ID}}</p></div>`))

// Notifier tells the office about roster changes. A nil *Notifier or one
// without recipients does nothing.
type Notifier struct {
	sender Sender
	from   string
	to     []string
}

// NewNotifier creates a Notifier sending through sender.
// PRE: sender is non-nil
// POST: Returns a notifier; empty to disables delivery
func NewNotifier(sender Sender, from string, to []string) *Notifier {
	return &Notifier{sender: sender, from: from, to: to}
}

// Notify sends a change notice. Delivery failures are logged and swallowed so
// roster writes never fail because of email.
func (n *Notifier) Notify(ctx context.Context, c Change) {
	if n == nil || len(n.to) == 0 {
		return
	}

	var body bytes.Buffer
	if err := changeTemplate.Execute(&body, c); err != nil {
		slog.Error("notify_render_failed", "error", err)
		return
	}
	subject := "שינוי ברשימה: " + c.Table
	if _, err := n.sender.Send(ctx, SendRequest{
		To:      n.to,
		From:    n.from,
		Subject: subject,
		HTML:    body.String(),
	}); err != nil {
		slog.Warn("notify_failed", "error", err, "change", c.Kind, "id", c.ID)
	}
}
