package mail

import "fmt"

// VerificationEmail builds the subject and body for the account
// verification code mail. The code is valid for 30 minutes.
func VerificationEmail(firstName, code string) (subject, body string) {
	subject = "Verify your CSB account"
	body = fmt.Sprintf(`<div style="font-family: Arial, sans-serif;">
<h2>Hello %s,</h2>
<p>Your verification code is:</p>
<h1 style="letter-spacing: 4px;">%s</h1>
<p>This code expires in 30 minutes. If you did not create an account, you can ignore this email.</p>
</div>`, firstName, code)
	return subject, body
}

// ResetPasswordEmail builds the subject and body for the password reset
// mail. The link is valid for one hour.
func ResetPasswordEmail(firstName, resetURL string) (subject, body string) {
	subject = "Reset your CSB password"
	body = fmt.Sprintf(`<div style="font-family: Arial, sans-serif;">
<h2>Hello %s,</h2>
<p>We received a request to reset your password. Click the link below to choose a new one:</p>
<p><a href="%s">%s</a></p>
<p>This link expires in 1 hour. If you did not request a reset, you can ignore this email.</p>
</div>`, firstName, resetURL, resetURL)
	return subject, body
}
