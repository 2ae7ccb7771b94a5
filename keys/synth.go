package keys

// Sequence returns the events a user typing s would generate. Backspace is
// written as '\b'.
func Sequence(s string) []Event {
	events := make([]Event, 0, len(s))
	for _, r := range s {
		switch r {
		case ' ':
			events = append(events, Event{Code: CodeSpace})
		case '\t':
			events = append(events, Event{Code: CodeTab})
		case '\n', '\r':
			events = append(events, Event{Code: CodeReturn})
		case '\b':
			events = append(events, Event{Code: CodeBackspace})
		default:
			events = append(events, Event{Code: CodeChar, Name: string(r)})
		}
	}
	return events
}
