// Package sink holds observers that forward change events out of the process.
package sink

import (
	"log/slog"
	"social-lab/domain/event"
)

// LogSink writes one structured line per change event.
type LogSink struct {
	log *slog.Logger
}

func NewLogSink(log *slog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) OnUser(e event.UserChangeEvent) {
	s.log.Info("User changed", "kind", e.Kind, "id", e.User.ID, "email", e.User.Email)
}

func (s *LogSink) OnMessage(e event.MessageChangeEvent) {
	s.log.Info("Message changed", "kind", e.Kind, "id", e.Message.ID, "from", e.Message.From, "to", e.Message.To)
}

func (s *LogSink) OnSocialEvent(e event.SocialEventChangeEvent) {
	s.log.Info("Social event changed", "kind", e.Kind, "id", e.Event.ID, "title", e.Event.Title,
		"subscribers", len(e.Event.Subscribers))
}

func (s *LogSink) OnReminder(r event.Reminder) {
	s.log.Info("Reminder", "user", r.User.ID, "event", r.Event.ID, "title", r.Event.Title, "start", r.Event.Start)
}
