package core

import (
	"bytes"
	"fmt"
	htmltmpl "html/template"
	"path/filepath"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/google/uuid"
)

// EventType tags a notification with the structured event it reports.
type EventType string

const (
	EventDefenseScheduled   EventType = "defense.scheduled"
	EventDefenseRescheduled EventType = "defense.rescheduled"
	EventDefenseCancelled   EventType = "defense.cancelled"
	EventGradePublished     EventType = "grade.published"
)

var (
	templates tmplCache
	tmplInit  sync.Once
	tmplConf  *Config
)

type (
	tmplCacheEntry map[string]interface{}    // {ext: *Template}
	tmplCache      map[string]tmplCacheEntry // {name: {tmplCacheEntry}}

	// Recipient identifies who a notification goes to. Address resolution is
	// the delivery collaborator's concern; this core only knows person ids and
	// whatever contact data the caller already had.
	Recipient struct {
		PersonID string
		Name     string
		Email    string
	}

	Notification struct {
		ID         string
		Event      EventType
		Recipients []Recipient
		Subject    string
		BodyStr    string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	// NotificationService is any collaborator that can deliver notifications.
	// Delivery is fire-and-forget: implementations send asynchronously and a
	// delivery failure never propagates back to the operation that emitted
	// the notification.
	NotificationService interface {
		Send(notifs ...*Notification)
	}
)

func NewNotification(event EventType, subject string, recipients ...Recipient) *Notification {
	return &Notification{
		ID:         uuid.New().String(),
		Event:      event,
		Subject:    subject,
		Recipients: recipients,
	}
}

func (n *Notification) getContextData() ContextData {
	var baseURL string
	if tmplConf != nil {
		baseURL = tmplConf.FrontendBaseURL
	}
	return ContextData{
		FrontendBaseURL: baseURL,
		Data:            n.TemplateData,
	}
}

func (n *Notification) getTemplate(ext string) (interface{}, bool) {
	cache, ok := templates[n.TemplateName]
	if !ok {
		return nil, ok
	}
	tmplEntry, ok := cache[ext]
	return tmplEntry, ok
}

func (n *Notification) renderText() error {
	if n.BodyStr != "" {
		n.TextContent = n.BodyStr
		return nil
	} else if n.TemplateName == "" {
		return nil
	}

	tmplEntry, ok := n.getTemplate(".txt")
	if !ok {
		return nil
	}
	tmpl, ok := tmplEntry.(*texttmpl.Template)
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, n.getContextData()); err != nil {
		return err
	}
	n.TextContent = buff.String()
	return nil
}

func (n *Notification) renderHTML() error {
	if n.TemplateName == "" {
		return nil
	}

	tmplEntry, ok := n.getTemplate(".gohtml")
	if !ok {
		return nil
	}
	tmpl, ok := tmplEntry.(*htmltmpl.Template)
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, n.getContextData()); err != nil {
		return err
	}
	n.HTMLContent = buff.String()
	return nil
}

func (n *Notification) Render() error {
	if err := n.renderText(); err != nil {
		return err
	}
	return n.renderHTML()
}

func (n *Notification) HasRecipients() bool { return len(n.Recipients) > 0 }
func (n *Notification) HasContent() bool    { return (n.TextContent != "") || (n.HTMLContent != "") }

// ParseNotificationTemplates loads the notification template cache once, at
// application start.
func ParseNotificationTemplates(conf *Config, logger Logger) {
	tmplInit.Do(func() {
		tmplConf = conf
		parseTemplates(conf, logger)
	})
}

func parseTemplates(conf *Config, logger Logger) {
	templates = make(tmplCache)

	rp := filepath.Join(conf.WorkDir, "assets", "templates", "notifications")
	fps, err := filepath.Glob(filepath.Join(rp, "*"))
	if err != nil {
		logger.Error(fmt.Sprintf("core.parseTemplates: %v", err), err)
	}

	for _, fp := range fps {
		fname := filepath.Base(fp)
		ext := filepath.Ext(fname)
		if strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
			continue
		}
		name := fname[:strings.LastIndex(fname, ".")]
		entry, ok := templates[name]
		if !ok {
			templates[name] = make(tmplCacheEntry)
			entry = templates[name]
		}
		if ext == ".txt" {
			tmpl, err := texttmpl.ParseFiles(filepath.Join(rp, "_base.txt"), fp)
			if err != nil {
				logger.Error(fmt.Sprintf("core.parseTemplates: %v", err), err)
				continue
			}
			if conf.Debug || conf.TestMode {
				tmpl = tmpl.Option("missingkey=error")
			}
			entry[ext] = tmpl
		} else {
			tmpl, err := htmltmpl.ParseFiles(filepath.Join(rp, "_base.gohtml"), fp)
			if err != nil {
				logger.Error(fmt.Sprintf("core.parseTemplates: %v", err), err)
				continue
			}
			if conf.Debug || conf.TestMode {
				tmpl = tmpl.Option("missingkey=error")
			}
			entry[ext] = tmpl
		}
	}
}
