// Package notify turns task lifecycle changes into owner email notifications.
//
// A Dispatcher hands a Notification to an asynchronous transport and
// returns at once. With the runner transport the notification becomes a
// persisted MailJob executed by job.Runner; with the rabbitmq transport it
// is published to a topic exchange and delivered by cmd/notifier.
package notify
