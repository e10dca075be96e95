package gen

// Этапы пайплайна для внешнего наблюдателя.
const (
	StageAnalyzing   = "analyzing"
	StageGenerating  = "generating"
	StageFastAttempt = "fast_attempt"
	StageFallback    = "fallback"
	StagePersisting  = "persisting"
	StageComplete    = "complete"
	StageError       = "error"
)

// Event — уведомление о ходе генерации.
type Event struct {
	AppID  string `json:"app_id"`
	Stage  string `json:"stage"`
	Detail string `json:"detail,omitempty"`
}

// Notifier — односторонний канал прогресса без backpressure: при полном
// буфере событие молча выбрасывается, пайплайн от потребителей не зависит.
type Notifier struct {
	ch chan Event
}

func NewNotifier(size int) *Notifier {
	if size <= 0 {
		size = 64
	}
	return &Notifier{ch: make(chan Event, size)}
}

func (n *Notifier) Publish(e Event) {
	if n == nil {
		return
	}
	select {
	case n.ch <- e:
	default:
		// потребитель не успевает — событие отбрасывается
	}
}

func (n *Notifier) Events() <-chan Event { return n.ch }
