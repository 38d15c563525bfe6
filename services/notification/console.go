package notifsvc

import (
	"fmt"
	"log"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/tfgestor/backend/core"
)

var (
	SentNotifications = make([]core.Notification, 0)
	mu                sync.Mutex
)

type consoleService struct {
	defaultFromEmail mail.Address
	subjPrefix       string
	disableOutput    bool
}

var _ core.NotificationService = (*consoleService)(nil)

func NewConsoleService(conf *core.Config) core.NotificationService {
	return &consoleService{
		defaultFromEmail: conf.DefaultFromEmail,
		subjPrefix:       "[" + conf.AppName + "] ",
	}
}

func (svc consoleService) Send(notifs ...*core.Notification) {
	for _, n := range notifs {
		go svc.sendNotification(n)
	}
}

func (svc consoleService) sendNotification(n *core.Notification) {
	if err := n.Render(); err != nil {
		log.Printf("%+v", errors.Wrap(err, "rendering notification"))
		return
	}
	if n.HasRecipients() && n.HasContent() {
		svc.send(*n)
		mu.Lock()
		SentNotifications = append(SentNotifications, *n)
		mu.Unlock()
	}
}

func (svc consoleService) send(n core.Notification) {
	body := new(strings.Builder)

	_, _ = fmt.Fprintf(body, "From: %s\r\n", svc.defaultFromEmail.String())
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	_, _ = fmt.Fprintf(body, "Event: %s\r\n", n.Event)
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n", svc.subjPrefix+n.Subject)
	_, _ = fmt.Fprintf(body, "To: %s\r\n", svc.joinRecipients(n.Recipients))
	_, _ = fmt.Fprint(body, "\r\n")
	_, _ = fmt.Fprintf(body, "%s\r\n", n.TextContent)

	if !svc.disableOutput {
		log.Println(body.String())
	}
}

func (svc consoleService) joinRecipients(recipients []core.Recipient) string {
	toJoin := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if r.Email != "" {
			addr := mail.Address{Name: r.Name, Address: r.Email}
			toJoin = append(toJoin, addr.String())
		} else {
			toJoin = append(toJoin, r.PersonID)
		}
	}
	return strings.Join(toJoin, ", ")
}

type consoleServiceMock struct {
	consoleService
}

func NewConsoleServiceMock(conf *core.Config) core.NotificationService {
	return &consoleServiceMock{
		consoleService: consoleService{
			defaultFromEmail: conf.DefaultFromEmail,
			subjPrefix:       "[" + conf.AppName + "] ",
			disableOutput:    true,
		},
	}
}

func (svc *consoleServiceMock) Send(notifs ...*core.Notification) {
	for _, n := range notifs {
		// run synchronously
		svc.sendNotification(n)
	}
}

// ClearSentNotifications resets the capture buffer between test cases.
func ClearSentNotifications() {
	mu.Lock()
	SentNotifications = SentNotifications[:0]
	mu.Unlock()
}
