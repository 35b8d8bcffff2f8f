package notify

import (
	"context"
	"fmt"
	"html"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendGridHost     = "https://api.sendgrid.com"
	sendGridEndpoint = "/v3/mail/send"
)

// EmailNotifier sends enrollment confirmations through SendGrid.
type EmailNotifier struct {
	apiKey string
	host   string
	from   *mail.Email
}

func NewEmailNotifier(apiKey, appName, sender string) *EmailNotifier {
	return &EmailNotifier{apiKey: apiKey, host: sendGridHost, from: mail.NewEmail(appName, sender)}
}

// WithHost points the notifier at another API host.
func (n *EmailNotifier) WithHost(host string) *EmailNotifier {
	n.host = host
	return n
}

func (n *EmailNotifier) EnrollmentCreated(ctx context.Context, ev EnrollmentEvent) error {
	if ev.StudentEmail == "" {
		return nil
	}
	subject := "You're enrolled in " + ev.CourseTitle
	body := fmt.Sprintf("<p>Hi %s,</p><p>Your enrollment in <b>%s</b> is confirmed. Happy learning!</p>",
		html.EscapeString(ev.StudentName), html.EscapeString(ev.CourseTitle))
	plain := fmt.Sprintf("Hi %s, your enrollment in %s is confirmed. Happy learning!", ev.StudentName, ev.CourseTitle)

	msg := mail.NewSingleEmail(n.from, subject, mail.NewEmail(ev.StudentName, ev.StudentEmail), plain, emailTemplate(subject, body))

	req := sendgrid.GetRequest(n.apiKey, sendGridEndpoint, n.host)
	req.Method = http.MethodPost
	req.Body = mail.GetRequestBody(msg)

	resp, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid responded %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

func emailTemplate(title, content string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<style>
		body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
		.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; }
		.header { background-color: #1F2A44; padding: 30px; text-align: center; color: #FFFFFF; }
		.content { padding: 40px 30px; color: #1F2A44; line-height: 1.6; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header"><h1>LearnHub</h1></div>
		<div class="content">
			<h2>%s</h2>
			%s
		</div>
	</div>
</body>
</html>`, html.EscapeString(title), content)
}
