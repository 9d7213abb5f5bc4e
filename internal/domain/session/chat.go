package session

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// PostChat appends a chat message, keeping only the most recent ones.
func (s *Session) PostChat(id, voterID, name, text string, now time.Time) (ChatMessage, error) {
	text, err := cleanText(text)
	if err != nil {
		return ChatMessage{}, err
	}
	if registered, ok := s.Voters[voterID]; ok {
		name = registered
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Anonymous"
	}
	msg := ChatMessage{ID: id, VoterID: voterID, Name: name, Text: text, Timestamp: now}
	s.ChatMessages = append(s.ChatMessages, msg)
	if over := len(s.ChatMessages) - MaxChatMessages; over > 0 {
		s.ChatMessages = append([]ChatMessage(nil), s.ChatMessages[over:]...)
	}
	return msg, nil
}

// AddFeedback stores feedback and bumps the counter.
func (s *Session) AddFeedback(name, text string, now time.Time) (FeedbackEntry, error) {
	text, err := cleanText(text)
	if err != nil {
		return FeedbackEntry{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Anonymous"
	}
	entry := FeedbackEntry{Name: name, Text: text, Timestamp: now}
	s.FeedbackCount++
	s.Feedback = append(s.Feedback, entry)
	if over := len(s.Feedback) - MaxFeedbackEntries; over > 0 {
		s.Feedback = append([]FeedbackEntry(nil), s.Feedback[over:]...)
	}
	return entry, nil
}

// FeedbackDigest renders stored feedback as plain text, oldest first.
func (s *Session) FeedbackDigest() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Feedback for %s (%d total)\n", s.Name, s.FeedbackCount)
	for _, entry := range s.Feedback {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", entry.Timestamp.UTC().Format(time.RFC3339), entry.Name, entry.Text)
	}
	return b.String()
}

func cleanText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: text is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return "", fmt.Errorf("%w: text exceeds %d characters", ErrInvalidInput, MaxMessageLength)
	}
	return text, nil
}
