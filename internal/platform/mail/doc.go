// Package mail delivers rendered email messages.
//
// SMTPSender talks to a real SMTP relay; LogSender only logs and is used
// when no relay is configured.
package mail
