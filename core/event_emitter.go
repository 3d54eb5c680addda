package live

import "sync"

// observerEmitter delivers observer callbacks in order on a dedicated
// goroutine, so a slow observer, or one that calls Stop, never stalls the
// session loop. Callbacks must not call Close.
type observerEmitter struct {
	onStatusChange     func(State, string)
	onTranscriptUpdate func([]Utterance)
	onError            func(string)

	queue []func()
	mu    sync.Mutex

	wake    chan struct{}
	closeCh chan struct{}
	done    chan struct{}

	startOnce sync.Once
	closeOnce sync.Once
}

func newObserverEmitter() *observerEmitter {
	return &observerEmitter{
		wake:    make(chan struct{}, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (e *observerEmitter) start() {
	e.startOnce.Do(func() {
		go func() {
			defer close(e.done)

			for {
				if e.deliverPending() {
					continue
				}

				select {
				case <-e.wake:
				case <-e.closeCh:
					e.deliverPending()
					return
				}
			}
		}()
	})
}

func (e *observerEmitter) deliverPending() bool {
	e.mu.Lock()
	batch := e.queue
	e.queue = nil
	e.mu.Unlock()

	for _, callback := range batch {
		callback()
	}
	return len(batch) > 0
}

func (e *observerEmitter) push(callback func()) {
	e.mu.Lock()
	e.queue = append(e.queue, callback)
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *observerEmitter) statusChanged(state State, message string) {
	if e.onStatusChange == nil {
		return
	}
	onStatusChange := e.onStatusChange
	e.push(func() { onStatusChange(state, message) })
}

func (e *observerEmitter) transcriptUpdated(history []Utterance) {
	if e.onTranscriptUpdate == nil {
		return
	}
	onTranscriptUpdate := e.onTranscriptUpdate
	e.push(func() { onTranscriptUpdate(history) })
}

func (e *observerEmitter) errorRaised(message string) {
	if e.onError == nil {
		return
	}
	onError := e.onError
	e.push(func() { onError(message) })
}

// close delivers everything already queued and waits for the delivery
// goroutine to exit.
func (e *observerEmitter) close() {
	e.closeOnce.Do(func() { close(e.closeCh) })
	e.start()
	<-e.done
}
