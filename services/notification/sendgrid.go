package notifsvc

import (
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/tfgestor/backend/core"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

// sendgridService delivers notifications by email. Recipients without a
// resolved email address are skipped; delivery is best-effort and failures
// are only logged.
type sendgridService struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
	logger     core.Logger
}

var _ core.NotificationService = (*sendgridService)(nil)

func NewSendgridService(conf *core.Config, logger core.Logger) *sendgridService {
	return &sendgridService{
		key:        conf.SendgridApiKey,
		from:       sgmail.NewEmail(conf.DefaultFromEmail.Name, conf.DefaultFromEmail.Address),
		subjPrefix: "[" + conf.AppName + "] ",
		logger:     logger,
	}
}

func (svc sendgridService) Send(notifs ...*core.Notification) {
	for _, n := range notifs {
		n := n
		go func() {
			if err := n.Render(); err != nil {
				svc.logger.Error(fmt.Sprintf("rendering notification: %v", err), err)
				return
			}
			if n.HasRecipients() && n.HasContent() {
				svc.send(*n)
			}
		}()
	}
}

func (svc sendgridService) prepare(n core.Notification) (*sgmail.SGMailV3, bool) {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + n.Subject

	var hasTos bool
	for _, r := range n.Recipients {
		if r.Email == "" {
			continue
		}
		p.AddTos(sgmail.NewEmail(r.Name, r.Email))
		hasTos = true
	}
	if !hasTos {
		return nil, false
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)
	m.AddContent(
		sgmail.NewContent("text/plain", n.TextContent),
		sgmail.NewContent("text/html", n.HTMLContent),
	)
	return m, true
}

func (svc sendgridService) send(n core.Notification) {
	m, ok := svc.prepare(n)
	if !ok {
		return
	}

	req := sendgrid.GetRequest(svc.key, endpoint, host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.API(req)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("sending notification: %v", err), err)
	} else if res.StatusCode >= http.StatusBadRequest {
		svc.logger.Error(fmt.Sprintf("sending notification - status: %d - Body: %s", res.StatusCode, res.Body))
	}
}
