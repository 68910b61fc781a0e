package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/todoboard/backend/internal/models"
)

const dueDateLayout = "Mon, 02 Jan 2006 15:04 MST"

var (
	assignedTemplate = template.Must(template.New("assigned").Parse(
		`<p>Hi {{.Name}},</p>` +
			`<p>You have been assigned the todo <strong>{{.Title}}</strong>.</p>` +
			`{{if .Due}}<p>It is due {{.Due}}.</p>{{end}}`))

	reminderTemplate = template.Must(template.New("reminder").Parse(
		`<p>Hi {{.Name}},</p>` +
			`<p>Your todo <strong>{{.Title}}</strong> is due {{.Due}}.</p>`))
)

type emailData struct {
	Name  string
	Title string
	Due   string
}

// renderAssigned returns the subject and body of a todo:assigned email
func renderAssigned(p models.TodoAssignedPayload) (string, string, error) {
	data := emailData{Name: p.AssigneeName, Title: p.Title}
	if p.DueDate != nil {
		data.Due = formatDue(*p.DueDate)
	}
	body, err := execute(assignedTemplate, data)
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf("New todo assigned: %s", p.Title), body, nil
}

// renderReminder returns the subject and body of a todo:due_reminder email
func renderReminder(p models.TodoDueReminderPayload) (string, string, error) {
	body, err := execute(reminderTemplate, emailData{Name: p.AssigneeName, Title: p.Title, Due: formatDue(p.DueDate)})
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf("Reminder: %s is due soon", p.Title), body, nil
}

func execute(tmpl *template.Template, data emailData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

func formatDue(t time.Time) string {
	return t.UTC().Format(dueDateLayout)
}
