// Package notification renders and dispatches the clinic's outbound email.
// The mail transport is pluggable; this package decides what a message says,
// not how it travels.
package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// EmailSender is the interface to the outbound mail transport.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Template defines a reusable notification template.
type Template struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// builtinTemplates ship with the server. Placeholders use {{key}} syntax and
// are filled from the data map at render time.
var builtinTemplates = []Template{
	{
		ID:      "appointment-reminder",
		Name:    "Appointment Reminder",
		Subject: "Appointment reminder for {{patient_name}}",
		Body:    "Dear {{patient_name}}, this is a reminder of your appointment on {{date}} at {{time}} with {{doctor}}.",
	},
	{
		ID:      "invoice-reminder",
		Name:    "Invoice Payment Reminder",
		Subject: "Payment reminder for invoice {{invoice_number}}",
		Body:    "Dear {{patient_name}}, invoice {{invoice_number}} has an outstanding balance of {{balance_due}}. Payment is due {{due_date}}.",
	},
}

// TemplateEngine holds notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine returns an engine with the built-in templates registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]*Template, len(builtinTemplates))}
	for _, t := range builtinTemplates {
		e.RegisterTemplate(t)
	}
	return e
}

// RegisterTemplate adds or replaces a template.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	e.templates[t.ID] = &t
	e.mu.Unlock()
}

// Render fills the template's subject and body from data. Placeholders with
// no matching key stay in the output, which makes a half-filled message
// visible instead of silently blank.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}
	return expand(t.Subject, data), expand(t.Body, data), nil
}

func expand(s string, data map[string]string) string {
	for k, v := range data {
		s = strings.ReplaceAll(s, "{{"+k+"}}", v)
	}
	return s
}

// EmailCall records a single call to SendEmail.
type EmailCall struct {
	To      string
	Subject string
	Body    string
}

// MockEmailSender is a recording EmailSender. It doubles as the default
// transport until a real provider adapter is configured.
type MockEmailSender struct {
	mu   sync.Mutex
	sent []EmailCall

	// Fail, when set, is returned from every SendEmail call. The call is
	// still recorded so tests can assert the attempt happened.
	Fail error
}

func (m *MockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	m.sent = append(m.sent, EmailCall{To: to, Subject: subject, Body: body})
	m.mu.Unlock()
	return m.Fail
}

// Calls returns a copy of the recorded sends.
func (m *MockEmailSender) Calls() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]EmailCall(nil), m.sent...)
}

// ReminderNotice carries everything the appointment reminder template needs.
type ReminderNotice struct {
	To          string
	PatientName string
	DoctorName  string
	Date        string
	Time        string
}

// InvoiceNotice carries everything the invoice reminder template needs.
// Amounts arrive pre-formatted so this package never does money math.
type InvoiceNotice struct {
	To            string
	PatientName   string
	InvoiceNumber string
	BalanceDue    string
	DueDate       string
}

// Manager renders templates and hands the result to the mail transport.
type Manager struct {
	sender    EmailSender
	templates *TemplateEngine
}

// NewManager constructs a Manager.
func NewManager(sender EmailSender, templates *TemplateEngine) *Manager {
	return &Manager{sender: sender, templates: templates}
}

// SendAppointmentReminder renders and sends one appointment reminder. Callers
// flip the appointment's reminder flag only when this returns nil.
func (m *Manager) SendAppointmentReminder(ctx context.Context, notice ReminderNotice) error {
	if notice.To == "" {
		return fmt.Errorf("appointment reminder has no recipient")
	}
	subject, body, err := m.templates.Render("appointment-reminder", map[string]string{
		"patient_name": notice.PatientName,
		"doctor":       notice.DoctorName,
		"date":         notice.Date,
		"time":         notice.Time,
	})
	if err != nil {
		return fmt.Errorf("render appointment reminder: %w", err)
	}
	return m.sender.SendEmail(ctx, notice.To, subject, body)
}

// SendInvoiceReminder renders and sends one payment reminder.
func (m *Manager) SendInvoiceReminder(ctx context.Context, notice InvoiceNotice) error {
	if notice.To == "" {
		return fmt.Errorf("invoice reminder has no recipient")
	}
	dueDate := notice.DueDate
	if dueDate == "" {
		dueDate = "on receipt"
	}
	subject, body, err := m.templates.Render("invoice-reminder", map[string]string{
		"patient_name":   notice.PatientName,
		"invoice_number": notice.InvoiceNumber,
		"balance_due":    notice.BalanceDue,
		"due_date":       dueDate,
	})
	if err != nil {
		return fmt.Errorf("render invoice reminder: %w", err)
	}
	return m.sender.SendEmail(ctx, notice.To, subject, body)
}
