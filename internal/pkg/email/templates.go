package email

import (
	"fmt"
	"html"
	"strings"
)

const layout = `<html>
<body>
	<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
		<h2 style="color: #333;">%s</h2>
		<p>Hello %s,</p>
		%s
		<p>Best regards,<br>The ScholarHub Team</p>
	</div>
</body>
</html>`

func render(title, name, inner string) string {
	return fmt.Sprintf(layout, html.EscapeString(title), html.EscapeString(name), inner)
}

func button(url, label string) string {
	return fmt.Sprintf(`<div style="text-align: center; margin: 30px 0;">
			<a href="%s" style="background-color: #4a86e8; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; font-weight: bold;">%s</a>
		</div>`, html.EscapeString(url), html.EscapeString(label))
}

// VerificationMessage asks a new user to confirm their address.
func VerificationMessage(baseURL, to, name, token string) Message {
	link := fmt.Sprintf("%s/api/v1/auth/verify-email?token=%s", strings.TrimRight(baseURL, "/"), token)
	inner := "<p>Please verify your email address to finish setting up your account.</p>" +
		button(link, "Verify Email") +
		"<p>This link expires in 24 hours.</p>"
	return Message{
		To:       to,
		ToName:   name,
		Subject:  "Verify Your Email Address - ScholarHub",
		HTMLBody: render("Welcome to ScholarHub!", name, inner),
	}
}

// PasswordResetMessage carries a password reset link.
func PasswordResetMessage(baseURL, to, name, token string) Message {
	link := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(baseURL, "/"), token)
	inner := "<p>We received a request to reset your password.</p>" +
		button(link, "Reset Password") +
		"<p>This link expires in 1 hour. If you did not ask for it, ignore this email.</p>"
	return Message{
		To:       to,
		ToName:   name,
		Subject:  "Reset Your Password - ScholarHub",
		HTMLBody: render("Password reset", name, inner),
	}
}

// NotificationMessage mirrors an in-app notification as email.
func NotificationMessage(to, name, title, message, actionURL string) Message {
	inner := "<p>" + html.EscapeString(message) + "</p>"
	if actionURL != "" {
		inner += button(actionURL, "Open ScholarHub")
	}
	return Message{
		To:       to,
		ToName:   name,
		Subject:  title + " - ScholarHub",
		HTMLBody: render(title, name, inner),
	}
}
