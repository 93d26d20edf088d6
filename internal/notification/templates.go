package notification

import (
	"bytes"
	"html/template"
)

const VerificationSubject = "Verify your email address"

var verificationTemplate = template.Must(template.New("verification").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #111827;">Verify your email address</h2>
  <p style="color: #6B7280; font-size: 16px;">Your verification code is:</p>
  <div style="background-color: #F3F4F6; padding: 16px; border-radius: 8px; text-align: center; margin: 24px 0;">
    <span style="font-size: 32px; font-weight: bold; color: #111827; letter-spacing: 4px;">{{.OTP}}</span>
  </div>
  <p style="color: #6B7280; font-size: 14px;">This code will expire in {{.Minutes}} minutes.</p>
  <p style="color: #6B7280; font-size: 14px;">If you didn't request this code, you can safely ignore this email.</p>
</div>
`))

func VerificationEmail(to, otp string, minutes int) (Message, error) {
	var b bytes.Buffer
	data := struct {
		OTP     string
		Minutes int
	}{otp, minutes}
	if err := verificationTemplate.Execute(&b, data); err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: VerificationSubject, HTML: b.String()}, nil
}
