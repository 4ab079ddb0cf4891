package action

// Fields flattens a for JSON views and filter expressions. Every key is
// always present so expressions can reference any of them.
func Fields(a Action) map[string]any {
	m := map[string]any{
		"kind":   a.Kind(),
		"text":   "",
		"sender": "",
		"x":      int64(0),
		"y":      int64(0),
		"error":  "",
	}
	switch v := a.(type) {
	case Raw:
		m["text"] = v.Text
	case Sample:
		m["x"] = int64(v.X)
		m["y"] = int64(v.Y)
	case UserMessage:
		m["text"] = v.Text
		m["sender"] = v.Sender.String()
	case Noop:
		if v.Err != nil {
			m["error"] = v.Err.Error()
		}
	}
	return m
}
