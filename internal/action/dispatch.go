package action

import (
	"github.com/solanafuns/ddmonitor/pkg/log"
)

// Dispatcher routes an action to the handler for its variant. Nil handlers
// fall back to logging.
type Dispatcher struct {
	OnRaw         func(Raw)
	OnSample      func(Sample)
	OnUserMessage func(UserMessage)
	OnNoop        func(Noop)

	logger log.Logger
}

// NewDispatcher returns a dispatcher whose handlers all log.
func NewDispatcher(logger log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Dispatcher{logger: logger.WithComponent("dispatch")}
}

func (d *Dispatcher) Dispatch(a Action) {
	switch v := a.(type) {
	case Raw:
		if d.OnRaw != nil {
			d.OnRaw(v)
			return
		}
		d.logger.Info("raw action", log.Str("text", v.Text))
	case Sample:
		if d.OnSample != nil {
			d.OnSample(v)
			return
		}
		d.logger.Info("sample action", log.Int("x", int(v.X)), log.Int("y", int(v.Y)))
	case UserMessage:
		if d.OnUserMessage != nil {
			d.OnUserMessage(v)
			return
		}
		d.logger.Info("user message", log.Stringer("sender", v.Sender), log.Str("text", v.Text))
	case Noop:
		if d.OnNoop != nil {
			d.OnNoop(v)
			return
		}
		if v.Err != nil {
			d.logger.Warn("invalid action", log.Err(v.Err))
			return
		}
		d.logger.Debug("noop action")
	default:
		d.logger.Error("unhandled action type")
	}
}
