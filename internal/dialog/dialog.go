// Package dialog renders the confirm/cancel modal used across the back-office.
// A Dialog carries no behaviour of its own: the confirm and cancel buttons post
// to the actions chosen by the caller.
package dialog

import (
	"bytes"
	"fmt"
	"html/template"
)

// Variant selects the emphasis of the confirm button.
type Variant string

const (
	Danger  Variant = "danger"
	Warning Variant = "warning"
	Success Variant = "success"
	Info    Variant = "info"
	Default Variant = "default"
)

// ButtonClass maps the variant to its CSS button class.
func (v Variant) ButtonClass() string {
	switch v {
	case Danger:
		return "btn-danger"
	case Warning:
		return "btn-warning"
	case Success:
		return "btn-success"
	case Info:
		return "btn-info"
	default:
		return "btn-primary"
	}
}

// Dialog holds everything needed to draw one modal.
type Dialog struct {
	Open        bool
	Title       string
	Message     string
	ConfirmText string
	CancelText  string
	Variant     Variant
	// HideCancel turns the dialog into a notification with a single acknowledgement button.
	HideCancel bool
	// ConfirmAction and CancelAction are the URLs the buttons post to.
	ConfirmAction string
	CancelAction  string
}

// Confirm returns an open dialog with the default labels and the danger variant.
func Confirm(title, message, confirmAction, cancelAction string) Dialog {
	return Dialog{
		Open:          true,
		Title:         title,
		Message:       message,
		ConfirmAction: confirmAction,
		CancelAction:  cancelAction,
	}
}

// Notify returns an open acknowledgement-only dialog.
func Notify(title, message string, variant Variant, ackAction string) Dialog {
	return Dialog{
		Open:          true,
		Title:         title,
		Message:       message,
		ConfirmText:   "U redu",
		Variant:       variant,
		HideCancel:    true,
		ConfirmAction: ackAction,
	}
}

func (d Dialog) withDefaults() Dialog {
	if d.ConfirmText == "" {
		d.ConfirmText = "Potvrdi"
	}
	if d.CancelText == "" {
		d.CancelText = "Otkaži"
	}
	if d.Variant == "" {
		d.Variant = Danger
	}
	return d
}

var tmpl = template.Must(template.New("dialog").Parse(`<div class="modal-overlay" role="dialog" aria-modal="true">
  <div class="modal-content">
    <h3>{{.Title}}</h3>
    <p>{{.Message}}</p>
    <div class="modal-actions">
      {{- if not .HideCancel}}
      <form method="post" action="{{.CancelAction}}"><button type="submit" class="btn btn-secondary">{{.CancelText}}</button></form>
      {{- end}}
      <form method="post" action="{{.ConfirmAction}}"><button type="submit" class="btn {{.Variant.ButtonClass}}">{{.ConfirmText}}</button></form>
    </div>
  </div>
</div>`))

// Render draws the dialog. A closed dialog renders nothing.
func (d Dialog) Render() (template.HTML, error) {
	if !d.Open {
		return "", nil
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, d.withDefaults()); err != nil {
		return "", fmt.Errorf("failed to render dialog %q: %w", d.Title, err)
	}
	return template.HTML(buf.String()), nil
}
